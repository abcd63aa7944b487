// Copyright (c) 2024 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package aggregate

import (
	"github.com/iotexproject/iotex-aggregate/action"
)

// WeightInfo returns the weight of every operation of the protocol
type WeightInfo interface {
	OnProofVerified() action.Weight
	Aggregate(n uint32) action.Weight
	AggregateOnInvalidDomain() action.Weight
	AggregateOnInvalidID() action.Weight
	RegisterDomain() action.Weight
	HoldDomain() action.Weight
	UnregisterDomain() action.Weight
	SetTotalDeliveryFee() action.Weight
	AllowlistProofSubmitters(n uint32) action.Weight
	RemoveProofSubmitters(n uint32) action.Weight
}

// benchmarked weights of the reference machine
type defaultWeights struct{}

// DefaultWeights returns the benchmarked weights
func DefaultWeights() WeightInfo {
	return defaultWeights{}
}

func (defaultWeights) OnProofVerified() action.Weight {
	return action.NewWeight(56_093_000, 177_995)
}

func (defaultWeights) Aggregate(n uint32) action.Weight {
	return action.NewWeight(36_081_001, 212_894).
		Add(action.NewWeight(59_493_113, 96).Mul(uint64(n)))
}

func (defaultWeights) AggregateOnInvalidDomain() action.Weight {
	return action.NewWeight(7_470_000, 212_894)
}

func (defaultWeights) AggregateOnInvalidID() action.Weight {
	return action.NewWeight(8_871_000, 212_894)
}

func (defaultWeights) RegisterDomain() action.Weight {
	return action.NewWeight(48_673_000, 3_604)
}

func (defaultWeights) HoldDomain() action.Weight {
	return action.NewWeight(12_350_000, 212_894)
}

func (defaultWeights) UnregisterDomain() action.Weight {
	return action.NewWeight(12_593_000, 212_894)
}

func (defaultWeights) SetTotalDeliveryFee() action.Weight {
	return action.NewWeight(9_482_000, 212_894)
}

func (defaultWeights) AllowlistProofSubmitters(n uint32) action.Weight {
	return action.NewWeight(14_000_000, 212_894).
		Add(action.NewWeight(3_500_000, 2_500).Mul(uint64(n)))
}

func (defaultWeights) RemoveProofSubmitters(n uint32) action.Weight {
	return action.NewWeight(13_000_000, 212_894).
		Add(action.NewWeight(3_600_000, 2_500).Mul(uint64(n)))
}
