// Copyright (c) 2024 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package delivery

import (
	"context"
	"encoding/hex"
	"math/big"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-aggregate/action"
	"github.com/iotexproject/iotex-aggregate/action/protocol"
	"github.com/iotexproject/iotex-aggregate/action/protocol/aggregate"
	"github.com/iotexproject/iotex-aggregate/pkg/log"
)

// ErrMessageDispatchFailed indicates the post could not be dispatched
var ErrMessageDispatchFailed = errors.New("message dispatch failed")

type (
	// Transferer moves free balance between accounts
	Transferer interface {
		Transfer(sm protocol.StateManager, from, to address.Address, amount *big.Int) error
	}

	// Dispatcher turns published receipts into posts of the outbox
	Dispatcher struct {
		moduleID     []byte
		feeCollector address.Address
		minFee       *big.Int
		weight       action.Weight
		ledger       Transferer
	}
)

var _ aggregate.Dispatcher = (*Dispatcher)(nil)

// NewDispatcher creates a dispatcher
func NewDispatcher(cfg Config, ledger Transferer) (*Dispatcher, error) {
	if ledger == nil {
		return nil, errors.New("ledger is nil")
	}
	moduleID, err := hex.DecodeString(cfg.ModuleID)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid module id %s", cfg.ModuleID)
	}
	collector, err := address.FromString(cfg.FeeCollector)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid fee collector %s", cfg.FeeCollector)
	}
	minFee, ok := new(big.Int).SetString(cfg.MinFee, 10)
	if !ok || minFee.Sign() < 0 {
		return nil, errors.Errorf("invalid min fee %s", cfg.MinFee)
	}
	return &Dispatcher{
		moduleID:     moduleID,
		feeCollector: collector,
		minFee:       minFee,
		weight:       action.NewWeight(cfg.HyperbridgeRefTime, cfg.HyperbridgeProofSize),
		ledger:       ledger,
	}, nil
}

// DispatchAggregation sends the receipt to its destination
func (d *Dispatcher) DispatchAggregation(ctx context.Context, sm protocol.StateManager, req *aggregate.DispatchRequest) error {
	switch req.Destination.Kind {
	case action.DestinationNone:
		return nil
	case action.DestinationHyperbridge:
		return d.dispatchHyperbridge(ctx, sm, req)
	default:
		return errors.Wrapf(action.ErrDestination, "unknown destination kind %d", req.Destination.Kind)
	}
}

// DispatchWeight returns the weight of dispatching to dst
func (d *Dispatcher) DispatchWeight(dst action.Destination) action.Weight {
	if dst.Kind == action.DestinationHyperbridge {
		return d.weight
	}
	return action.Weight{}
}

// MaxDispatchWeight returns the weight of the most expensive destination
func (d *Dispatcher) MaxDispatchWeight() action.Weight {
	return d.weight
}

func (d *Dispatcher) dispatchHyperbridge(ctx context.Context, sm protocol.StateManager, req *aggregate.DispatchRequest) error {
	params := req.Destination.Hyperbridge
	fee := req.Fee
	if fee == nil {
		fee = big.NewInt(0)
	}
	if fee.Cmp(d.minFee) < 0 {
		return errors.Wrapf(ErrMessageDispatchFailed, "fee %s is below %s", fee, d.minFee)
	}
	if params.Timeout == 0 {
		return errors.Wrap(ErrMessageDispatchFailed, "zero timeout")
	}
	if req.DeliveryOwner == nil {
		return errors.Wrap(ErrMessageDispatchFailed, "no payer")
	}
	body, err := EncodeBody(req.DomainID, req.AggregationID, req.Receipt)
	if err != nil {
		return errors.Wrap(ErrMessageDispatchFailed, err.Error())
	}
	post := &Post{
		Dest:             params.DestinationChain,
		From:             d.moduleID,
		To:               append([]byte{}, params.DestinationModule[:]...),
		TimeoutTimestamp: timeoutTimestamp(ctx, params.Timeout),
		Body:             body,
		Fee:              new(big.Int).Set(fee),
		Payer:            req.DeliveryOwner,
	}
	if fee.Sign() > 0 {
		if err := d.ledger.Transfer(sm, req.DeliveryOwner, d.feeCollector, fee); err != nil {
			log.Logger("delivery").Error("failed to collect relayer fee",
				zap.String("payer", req.DeliveryOwner.String()),
				zap.String("fee", fee.String()),
				zap.Error(err))
			return errors.Wrap(ErrMessageDispatchFailed, err.Error())
		}
	}
	if err := enqueuePost(sm, post); err != nil {
		return err
	}
	log.Logger("delivery").Debug("post dispatched",
		zap.Uint64("nonce", post.Nonce),
		zap.Uint32("domain", req.DomainID),
		zap.Uint64("aggregation", req.AggregationID),
		zap.String("dest", post.Dest.String()))
	return nil
}

func timeoutTimestamp(ctx context.Context, timeout uint64) uint64 {
	blkCtx, ok := protocol.GetBlockCtx(ctx)
	if !ok || blkCtx.BlockTimeStamp.IsZero() {
		return timeout
	}
	return uint64(blkCtx.BlockTimeStamp.Unix()) + timeout
}
