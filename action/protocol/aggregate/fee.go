// Copyright (c) 2024 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package aggregate

import (
	"math/big"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-aggregate/action"
	"github.com/iotexproject/iotex-aggregate/action/protocol"
	"github.com/iotexproject/iotex-aggregate/pkg/log"
)

// LinearFeeEstimator prices a weight linearly on both of its dimensions
type LinearFeeEstimator struct {
	BaseFee         *big.Int
	FeePerRefTime   *big.Int
	FeePerProofSize *big.Int
}

// EstimateCallFee returns base + refTime*feePerRefTime + proofSize*feePerProofSize
func (e *LinearFeeEstimator) EstimateCallFee(w action.Weight) *big.Int {
	fee := new(big.Int).Set(bigOrZero(e.BaseFee))
	fee.Add(fee, new(big.Int).Mul(new(big.Int).SetUint64(w.RefTime), bigOrZero(e.FeePerRefTime)))
	fee.Add(fee, new(big.Int).Mul(new(big.Int).SetUint64(w.ProofSize), bigOrZero(e.FeePerProofSize)))
	return fee
}

// publishFee is the estimated fee of publishing an aggregation of size statements, with the publisher tip
func (p *Protocol) publishFee(size uint32) *big.Int {
	estimate := p.estimator.EstimateCallFee(p.weights.Aggregate(size))
	tip := new(big.Int).Mul(estimate, new(big.Int).SetUint64(p.cfg.PublisherTipPercent))
	tip.Quo(tip, big.NewInt(100))
	return estimate.Add(estimate, tip)
}

// computeReserve splits the publication and delivery costs of the next aggregation of d among its statements
func (p *Protocol) computeReserve(d *Domain) Reserve {
	n := big.NewInt(int64(d.Next.Size))
	if n.Sign() == 0 {
		n.SetInt64(1)
	}
	aggregate := p.publishFee(d.MaxAggregationSize)
	aggregate.Quo(aggregate, n)
	delivery := d.Delivery.TotalFee()
	delivery.Quo(delivery, n)
	return NewReserve(aggregate, delivery)
}

// reserve holds the statement reserve on the submitter. Nothing is held if either hold fails.
func (p *Protocol) reserve(sm protocol.StateManager, who address.Address, r Reserve) error {
	if err := p.ledger.Hold(sm, AggregationHoldReason, who, r.Aggregate); err != nil {
		return err
	}
	if err := p.ledger.Hold(sm, DeliveryHoldReason, who, r.Delivery); err != nil {
		if _, releaseErr := p.ledger.Release(sm, AggregationHoldReason, who, r.Aggregate); releaseErr != nil {
			return errors.Wrap(releaseErr, "failed to release aggregation reserve")
		}
		return err
	}
	return nil
}

// settle pays the reserves of a published aggregation. The aggregation share goes to the publisher, or back to
// the submitter when the manager publishes; the delivery share goes to the delivery owner. Shortfalls are logged.
func (p *Protocol) settle(sm protocol.StateManager, publisher User, deliveryOwner address.Address, agg *AggregationEntry) error {
	for _, s := range agg.Statements {
		if publisher.IsManager() {
			released, err := p.ledger.Release(sm, AggregationHoldReason, s.Account, s.Reserve.Aggregate)
			if err != nil {
				return err
			}
			warnShortfall("release aggregation reserve", s.Account, s.Reserve.Aggregate, released)
		} else {
			moved, err := p.ledger.TransferOnHold(sm, AggregationHoldReason, s.Account, publisher.Account(), s.Reserve.Aggregate)
			if err != nil {
				return err
			}
			warnShortfall("pay publisher", s.Account, s.Reserve.Aggregate, moved)
		}
		moved, err := p.ledger.TransferOnHold(sm, DeliveryHoldReason, s.Account, deliveryOwner, s.Reserve.Delivery)
		if err != nil {
			return err
		}
		warnShortfall("pay delivery owner", s.Account, s.Reserve.Delivery, moved)
	}
	return nil
}

func warnShortfall(what string, who address.Address, expected, actual *big.Int) {
	if actual.Cmp(expected) >= 0 {
		return
	}
	log.L().Warn("reserve shortfall",
		zap.String("operation", what),
		zap.String("account", who.String()),
		zap.String("expected", expected.String()),
		zap.String("actual", actual.String()))
}
