// Copyright (c) 2018 IoTeX
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package account

import (
	"context"
	"math/big"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-aggregate/action"
	"github.com/iotexproject/iotex-aggregate/action/protocol"
)

// _protocolID is the protocol ID
const _protocolID = "account"

// TransferEvent is emitted when free balance moves between accounts
type TransferEvent struct {
	From   address.Address
	To     address.Address
	Amount *big.Int
}

// EventName returns the event name
func (TransferEvent) EventName() string { return "Transfer" }

// Protocol defines the protocol of handling account
type Protocol struct {
	ledger *Ledger
}

// NewProtocol instantiates the protocol of account
func NewProtocol(ledger *Ledger) *Protocol {
	return &Protocol{ledger: ledger}
}

// Name returns the name of protocol
func (p *Protocol) Name() string {
	return _protocolID
}

// Handle handles an account
func (p *Protocol) Handle(ctx context.Context, act action.Action, sm protocol.StateManager) (*action.Receipt, error) {
	switch act := act.(type) {
	case *action.Transfer:
		return p.handleTransfer(ctx, act, sm)
	}
	return nil, nil
}

func (p *Protocol) handleTransfer(ctx context.Context, tsf *action.Transfer, sm protocol.StateManager) (*action.Receipt, error) {
	actionCtx := protocol.MustGetActionCtx(ctx)
	blkCtx := protocol.MustGetBlockCtx(ctx)
	if actionCtx.Caller == nil {
		return nil, errors.Wrap(action.ErrAddress, "transfer requires a signed caller")
	}
	if err := p.ledger.Transfer(sm, actionCtx.Caller, tsf.Recipient(), tsf.Amount()); err != nil {
		return nil, errors.Wrap(err, "error when handling transfer action")
	}
	receipt := &action.Receipt{
		Status:      action.SuccessReceiptStatus,
		BlockHeight: blkCtx.BlockHeight,
		ActionHash:  actionCtx.ActionHash,
		Pays:        true,
	}
	return receipt.AddEvents(TransferEvent{
		From:   actionCtx.Caller,
		To:     tsf.Recipient(),
		Amount: new(big.Int).Set(tsf.Amount()),
	}), nil
}
