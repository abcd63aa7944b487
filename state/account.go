// Copyright (c) 2018 IoTeX
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package state

import (
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
)

// HoldReason names the purpose funds are held for
type HoldReason string

type (
	// Account is the ledger record of an address: a free balance plus amounts held per reason
	Account struct {
		Balance *big.Int
		holds   map[HoldReason]*big.Int
	}

	accountRecord struct {
		Balance *big.Int
		Holds   []holdRecord
	}

	holdRecord struct {
		Reason string
		Amount *big.Int
	}
)

// NewAccount returns an account with zero balance
func NewAccount() *Account {
	return &Account{
		Balance: big.NewInt(0),
		holds:   make(map[HoldReason]*big.Int),
	}
}

// Serialize serializes account state into bytes
func (st *Account) Serialize() ([]byte, error) {
	rec := accountRecord{Balance: st.Balance}
	for reason, amount := range st.holds {
		if amount.Sign() == 0 {
			continue
		}
		rec.Holds = append(rec.Holds, holdRecord{Reason: string(reason), Amount: amount})
	}
	sort.Slice(rec.Holds, func(i, j int) bool { return rec.Holds[i].Reason < rec.Holds[j].Reason })
	data, err := rlp.EncodeToBytes(&rec)
	if err != nil {
		return nil, errors.Wrap(ErrStateSerialization, err.Error())
	}
	return data, nil
}

// Deserialize deserializes bytes into account state
func (st *Account) Deserialize(buf []byte) error {
	var rec accountRecord
	if err := rlp.DecodeBytes(buf, &rec); err != nil {
		return errors.Wrap(ErrStateDeserialization, err.Error())
	}
	st.Balance = rec.Balance
	if st.Balance == nil {
		st.Balance = big.NewInt(0)
	}
	st.holds = make(map[HoldReason]*big.Int, len(rec.Holds))
	for _, h := range rec.Holds {
		st.holds[HoldReason(h.Reason)] = h.Amount
	}
	return nil
}

// AddBalance adds balance for account state
func (st *Account) AddBalance(amount *big.Int) error {
	st.Balance.Add(st.Balance, amount)
	return nil
}

// SubBalance subtracts balance for account state
func (st *Account) SubBalance(amount *big.Int) error {
	if amount.Cmp(st.Balance) == 1 {
		return ErrNotEnoughBalance
	}
	st.Balance.Sub(st.Balance, amount)
	return nil
}

// HasSufficientBalance returns true if balance is larger than amount
func (st *Account) HasSufficientBalance(amount *big.Int) bool {
	return amount.Cmp(st.Balance) <= 0
}

// Held returns the amount held for reason
func (st *Account) Held(reason HoldReason) *big.Int {
	if amount, ok := st.holds[reason]; ok {
		return new(big.Int).Set(amount)
	}
	return big.NewInt(0)
}

// TotalHeld returns the amount held for all reasons
func (st *Account) TotalHeld() *big.Int {
	total := big.NewInt(0)
	for _, amount := range st.holds {
		total.Add(total, amount)
	}
	return total
}

// Hold moves amount from the free balance to the held balance of reason
func (st *Account) Hold(reason HoldReason, amount *big.Int) error {
	if err := st.SubBalance(amount); err != nil {
		return err
	}
	if st.holds == nil {
		st.holds = make(map[HoldReason]*big.Int)
	}
	held, ok := st.holds[reason]
	if !ok {
		held = big.NewInt(0)
		st.holds[reason] = held
	}
	held.Add(held, amount)
	return nil
}

// Unhold removes at most amount from the held balance of reason without crediting it anywhere, and returns the
// amount actually removed
func (st *Account) Unhold(reason HoldReason, amount *big.Int) *big.Int {
	held, ok := st.holds[reason]
	if !ok {
		return big.NewInt(0)
	}
	taken := new(big.Int).Set(amount)
	if taken.Cmp(held) > 0 {
		taken.Set(held)
	}
	held.Sub(held, taken)
	if held.Sign() == 0 {
		delete(st.holds, reason)
	}
	return taken
}

// IsEmpty returns true if the account holds nothing at all
func (st *Account) IsEmpty() bool {
	return st.Balance.Sign() == 0 && st.TotalHeld().Sign() == 0
}
