// Copyright (c) 2024 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package action

import (
	"fmt"
	"math/big"

	"github.com/pkg/errors"
)

// ErrDestination indicates malformed delivery destination
var ErrDestination = errors.New("invalid destination")

type (
	// AggregateSecurityRules decides who may publish an aggregation
	AggregateSecurityRules uint8

	// ProofSecurityRules decides who may submit statements to a domain
	ProofSecurityRules uint8

	// DestinationKind tags a Destination
	DestinationKind uint8

	// StateMachineKind tags the chain family of a hyperbridge destination
	StateMachineKind uint8

	// StateMachine identifies a destination chain. Evm, Polkadot and Kusama chains are identified by ID;
	// Substrate and Tendermint chains by a four byte Tag.
	StateMachine struct {
		Kind StateMachineKind
		ID   uint32
		Tag  [4]byte
	}

	// HyperbridgeParams routes a receipt through hyperbridge
	HyperbridgeParams struct {
		DestinationChain  StateMachine
		DestinationModule [20]byte
		// Timeout on the destination chain, in seconds
		Timeout uint64
	}

	// Destination is where published receipts are delivered
	Destination struct {
		Kind        DestinationKind
		Hyperbridge HyperbridgeParams
	}

	// Delivery is the delivery configuration supplied at registration
	Delivery struct {
		Destination Destination
		Fee         *big.Int
		OwnerTip    *big.Int
	}
)

const (
	// AggregateUntrusted lets anyone publish any aggregation
	AggregateUntrusted AggregateSecurityRules = iota
	// AggregateOnlyOwner lets only domain owner, delivery owner or manager publish
	AggregateOnlyOwner
	// AggregateOnlyOwnerUncompleted lets anyone publish completed aggregations and restricts incomplete ones
	// to domain owner, delivery owner or manager
	AggregateOnlyOwnerUncompleted
)

const (
	// ProofUntrusted accepts statements from any account
	ProofUntrusted ProofSecurityRules = iota
	// ProofOnlyOwner accepts statements only from the owner account
	ProofOnlyOwner
	// ProofOnlyAllowlisted accepts statements only from allowlisted accounts
	ProofOnlyAllowlisted
)

const (
	// DestinationNone means the receipt is not delivered anywhere
	DestinationNone DestinationKind = iota
	// DestinationHyperbridge delivers through hyperbridge
	DestinationHyperbridge
)

const (
	// StateMachineEvm is an EVM chain, by chain id
	StateMachineEvm StateMachineKind = iota
	// StateMachinePolkadot is a polkadot parachain, by para id
	StateMachinePolkadot
	// StateMachineKusama is a kusama parachain, by para id
	StateMachineKusama
	// StateMachineSubstrate is a solochain, by tag
	StateMachineSubstrate
	// StateMachineTendermint is a tendermint chain, by tag
	StateMachineTendermint
)

// NoneDestination returns the none destination
func NoneDestination() Destination {
	return Destination{Kind: DestinationNone}
}

// HyperbridgeDestination returns a hyperbridge destination
func HyperbridgeDestination(p HyperbridgeParams) Destination {
	return Destination{Kind: DestinationHyperbridge, Hyperbridge: p}
}

// IsNone returns true for the none destination
func (d Destination) IsNone() bool {
	return d.Kind == DestinationNone
}

// SanityCheck validates the destination
func (d Destination) SanityCheck() error {
	switch d.Kind {
	case DestinationNone:
		return nil
	case DestinationHyperbridge:
		if d.Hyperbridge.DestinationChain.Kind > StateMachineTendermint {
			return errors.Wrapf(ErrDestination, "unknown state machine %d", d.Hyperbridge.DestinationChain.Kind)
		}
		return nil
	default:
		return errors.Wrapf(ErrDestination, "unknown destination kind %d", d.Kind)
	}
}

func (d Destination) String() string {
	if d.Kind == DestinationNone {
		return "None"
	}
	return fmt.Sprintf("Hyperbridge{%s, %x, %d}", d.Hyperbridge.DestinationChain, d.Hyperbridge.DestinationModule, d.Hyperbridge.Timeout)
}

func (s StateMachine) String() string {
	switch s.Kind {
	case StateMachineEvm:
		return fmt.Sprintf("EVM-%d", s.ID)
	case StateMachinePolkadot:
		return fmt.Sprintf("POLKADOT-%d", s.ID)
	case StateMachineKusama:
		return fmt.Sprintf("KUSAMA-%d", s.ID)
	case StateMachineSubstrate:
		return fmt.Sprintf("SUBSTRATE-%s", string(s.Tag[:]))
	case StateMachineTendermint:
		return fmt.Sprintf("TNDRMINT-%s", string(s.Tag[:]))
	default:
		return "UNKNOWN"
	}
}

// NewDelivery returns a delivery configuration
func NewDelivery(dst Destination, fee, ownerTip *big.Int) Delivery {
	return Delivery{Destination: dst, Fee: fee, OwnerTip: ownerTip}
}

// TotalFee returns fee plus owner tip
func (d Delivery) TotalFee() *big.Int {
	return new(big.Int).Add(d.Fee, d.OwnerTip)
}

// SanityCheck validates the delivery configuration
func (d Delivery) SanityCheck() error {
	if d.Fee == nil || d.Fee.Sign() < 0 || d.OwnerTip == nil || d.OwnerTip.Sign() < 0 {
		return ErrInvalidAmount
	}
	return d.Destination.SanityCheck()
}

func (r AggregateSecurityRules) String() string {
	switch r {
	case AggregateUntrusted:
		return "Untrusted"
	case AggregateOnlyOwner:
		return "OnlyOwner"
	case AggregateOnlyOwnerUncompleted:
		return "OnlyOwnerUncompleted"
	default:
		return fmt.Sprintf("AggregateSecurityRules(%d)", r)
	}
}

func (r ProofSecurityRules) String() string {
	switch r {
	case ProofUntrusted:
		return "Untrusted"
	case ProofOnlyOwner:
		return "OnlyOwner"
	case ProofOnlyAllowlisted:
		return "OnlyAllowlisted"
	default:
		return fmt.Sprintf("ProofSecurityRules(%d)", r)
	}
}
