// Copyright (c) 2018 IoTeX
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package action

import (
	"math/big"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
)

// Transfer moves free balance between accounts
type Transfer struct {
	recipient address.Address
	amount    *big.Int
}

// NewTransfer returns a Transfer action
func NewTransfer(recipient address.Address, amount *big.Int) *Transfer {
	return &Transfer{
		recipient: recipient,
		amount:    amount,
	}
}

// Recipient returns the recipient address
func (tsf *Transfer) Recipient() address.Address { return tsf.recipient }

// Amount returns the amount
func (tsf *Transfer) Amount() *big.Int { return tsf.amount }

// SanityCheck validates the variables in the action
func (tsf *Transfer) SanityCheck() error {
	if tsf.amount == nil || tsf.amount.Sign() < 0 {
		return errors.Wrap(ErrInvalidAmount, "negative value")
	}
	if tsf.recipient == nil {
		return errors.Wrap(ErrAddress, "missing recipient")
	}
	return nil
}
