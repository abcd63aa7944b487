// Copyright (c) 2024 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package account

import (
	"math/big"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-aggregate/action"
	"github.com/iotexproject/iotex-aggregate/action/protocol"
	accountutil "github.com/iotexproject/iotex-aggregate/action/protocol/account/util"
	"github.com/iotexproject/iotex-aggregate/state"
)

// Ledger moves funds between the free and held balances of accounts stored in a StateManager
type Ledger struct{}

// NewLedger returns a ledger
func NewLedger() *Ledger {
	return &Ledger{}
}

// Balance returns the free balance of who
func (l *Ledger) Balance(sr protocol.StateReader, who address.Address) (*big.Int, error) {
	acct, err := accountutil.LoadAccount(sr, who)
	if err != nil {
		return nil, err
	}
	return acct.Balance, nil
}

// BalanceOnHold returns the amount of who held for reason
func (l *Ledger) BalanceOnHold(sr protocol.StateReader, reason state.HoldReason, who address.Address) (*big.Int, error) {
	acct, err := accountutil.LoadAccount(sr, who)
	if err != nil {
		return nil, err
	}
	return acct.Held(reason), nil
}

// Deposit credits amount to the free balance of who
func (l *Ledger) Deposit(sm protocol.StateManager, who address.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return action.ErrInvalidAmount
	}
	acct, err := accountutil.LoadAccount(sm, who)
	if err != nil {
		return err
	}
	if err := acct.AddBalance(amount); err != nil {
		return err
	}
	return accountutil.StoreAccount(sm, who, acct)
}

// Hold moves amount from the free balance of who to its held balance for reason. Nothing changes on failure.
func (l *Ledger) Hold(sm protocol.StateManager, reason state.HoldReason, who address.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return action.ErrInvalidAmount
	}
	acct, err := accountutil.LoadAccount(sm, who)
	if err != nil {
		return err
	}
	if err := acct.Hold(reason, amount); err != nil {
		return errors.Wrapf(err, "failed to hold %s for %s of %s", amount, reason, who.String())
	}
	return accountutil.StoreAccount(sm, who, acct)
}

// Release moves up to amount held for reason back to the free balance of who, and returns the amount moved
func (l *Ledger) Release(sm protocol.StateManager, reason state.HoldReason, who address.Address, amount *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, action.ErrInvalidAmount
	}
	acct, err := accountutil.LoadAccount(sm, who)
	if err != nil {
		return nil, err
	}
	released := acct.Unhold(reason, amount)
	if err := acct.AddBalance(released); err != nil {
		return nil, err
	}
	if err := accountutil.StoreAccount(sm, who, acct); err != nil {
		return nil, err
	}
	return released, nil
}

// TransferOnHold moves up to amount held for reason by from to the free balance of to, and returns the amount moved
func (l *Ledger) TransferOnHold(sm protocol.StateManager, reason state.HoldReason, from, to address.Address, amount *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, action.ErrInvalidAmount
	}
	src, err := accountutil.LoadAccount(sm, from)
	if err != nil {
		return nil, err
	}
	moved := src.Unhold(reason, amount)
	if err := accountutil.StoreAccount(sm, from, src); err != nil {
		return nil, err
	}
	dst, err := accountutil.LoadAccount(sm, to)
	if err != nil {
		return nil, err
	}
	if err := dst.AddBalance(moved); err != nil {
		return nil, err
	}
	if err := accountutil.StoreAccount(sm, to, dst); err != nil {
		return nil, err
	}
	return moved, nil
}

// Transfer moves amount from the free balance of from to the free balance of to
func (l *Ledger) Transfer(sm protocol.StateManager, from, to address.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return action.ErrInvalidAmount
	}
	src, err := accountutil.LoadAccount(sm, from)
	if err != nil {
		return err
	}
	if err := src.SubBalance(amount); err != nil {
		return errors.Wrapf(err, "failed to transfer %s from %s", amount, from.String())
	}
	if err := accountutil.StoreAccount(sm, from, src); err != nil {
		return err
	}
	dst, err := accountutil.LoadAccount(sm, to)
	if err != nil {
		return err
	}
	if err := dst.AddBalance(amount); err != nil {
		return err
	}
	return accountutil.StoreAccount(sm, to, dst)
}
