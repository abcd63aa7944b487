// Copyright (c) 2024 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package account

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-aggregate/action/protocol"
	"github.com/iotexproject/iotex-aggregate/state"
)

// ErrInvalidTicket indicates a ticket that was not issued by Considerations
var ErrInvalidTicket = errors.New("invalid ticket")

type (
	// DepositPolicy prices a footprint as Base + PerItem * Count + PerByte * Size
	DepositPolicy struct {
		Base    *big.Int
		PerItem *big.Int
		PerByte *big.Int
	}

	// Considerations takes storage deposits by holding funds of the depositor
	Considerations struct {
		ledger *Ledger
		reason state.HoldReason
		policy DepositPolicy
	}
)

// Price returns the deposit required for fp
func (p DepositPolicy) Price(fp state.Footprint) *big.Int {
	price := new(big.Int)
	if p.Base != nil {
		price.Add(price, p.Base)
	}
	if p.PerItem != nil {
		price.Add(price, new(big.Int).Mul(p.PerItem, new(big.Int).SetUint64(fp.Count)))
	}
	if p.PerByte != nil {
		price.Add(price, new(big.Int).Mul(p.PerByte, new(big.Int).SetUint64(fp.Size)))
	}
	return price
}

// NewConsiderations returns considerations holding deposits under reason
func NewConsiderations(ledger *Ledger, reason state.HoldReason, policy DepositPolicy) *Considerations {
	return &Considerations{
		ledger: ledger,
		reason: reason,
		policy: policy,
	}
}

// Reason returns the hold reason deposits are taken under
func (c *Considerations) Reason() state.HoldReason {
	return c.reason
}

// Open holds the deposit for fp from who
func (c *Considerations) Open(sm protocol.StateManager, who address.Address, fp state.Footprint) (state.Ticket, error) {
	amount := c.policy.Price(fp)
	if err := c.ledger.Hold(sm, c.reason, who, amount); err != nil {
		return nil, err
	}
	return encodeTicket(amount)
}

// Update adjusts the deposit of who to the price of fp
func (c *Considerations) Update(sm protocol.StateManager, who address.Address, ticket state.Ticket, fp state.Footprint) (state.Ticket, error) {
	old, err := decodeTicket(ticket)
	if err != nil {
		return nil, err
	}
	amount := c.policy.Price(fp)
	switch diff := new(big.Int).Sub(amount, old); diff.Sign() {
	case 1:
		if err := c.ledger.Hold(sm, c.reason, who, diff); err != nil {
			return nil, err
		}
	case -1:
		if _, err := c.ledger.Release(sm, c.reason, who, diff.Neg(diff)); err != nil {
			return nil, err
		}
	}
	return encodeTicket(amount)
}

// Drop releases the deposit back to who
func (c *Considerations) Drop(sm protocol.StateManager, who address.Address, ticket state.Ticket) error {
	amount, err := decodeTicket(ticket)
	if err != nil {
		return err
	}
	_, err = c.ledger.Release(sm, c.reason, who, amount)
	return err
}

func encodeTicket(amount *big.Int) (state.Ticket, error) {
	data, err := rlp.EncodeToBytes(amount)
	if err != nil {
		return nil, errors.Wrap(state.ErrStateSerialization, err.Error())
	}
	return data, nil
}

func decodeTicket(ticket state.Ticket) (*big.Int, error) {
	if len(ticket) == 0 {
		return nil, ErrInvalidTicket
	}
	amount := new(big.Int)
	if err := rlp.DecodeBytes(ticket, amount); err != nil {
		return nil, errors.Wrap(ErrInvalidTicket, err.Error())
	}
	return amount, nil
}
