// Copyright (c) 2024 IoTeX Foundation
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

// ErrInvalidRules indicates an unknown security rule
var ErrInvalidRules = errors.New("invalid security rules")

type (
	// RegisterDomain registers a new aggregation domain
	RegisterDomain struct {
		aggregationSize uint32
		queueSize       *uint32
		aggregateRules  AggregateSecurityRules
		proofRules      ProofSecurityRules
		delivery        Delivery
		deliveryOwner   address.Address
	}

	// HoldDomain stops a domain from accepting statements
	HoldDomain struct {
		domainID uint32
	}

	// UnregisterDomain removes a drained domain
	UnregisterDomain struct {
		domainID uint32
	}

	// SetTotalDeliveryFee updates the delivery fee and owner tip of a domain
	SetTotalDeliveryFee struct {
		domainID uint32
		fee      *big.Int
		ownerTip *big.Int
	}

	// AllowlistProofSubmitters adds accounts to the submitters allowlist of a domain
	AllowlistProofSubmitters struct {
		domainID   uint32
		submitters []address.Address
	}

	// RemoveProofSubmitters removes accounts from the submitters allowlist of a domain
	RemoveProofSubmitters struct {
		domainID   uint32
		submitters []address.Address
	}

	// Aggregate publishes an aggregation of a domain
	Aggregate struct {
		domainID      uint32
		aggregationID uint64
	}
)

// NewRegisterDomain returns a RegisterDomain action. queueSize and deliveryOwner are optional.
func NewRegisterDomain(
	aggregationSize uint32,
	queueSize *uint32,
	aggregateRules AggregateSecurityRules,
	proofRules ProofSecurityRules,
	delivery Delivery,
	deliveryOwner address.Address,
) *RegisterDomain {
	return &RegisterDomain{
		aggregationSize: aggregationSize,
		queueSize:       queueSize,
		aggregateRules:  aggregateRules,
		proofRules:      proofRules,
		delivery:        delivery,
		deliveryOwner:   deliveryOwner,
	}
}

// AggregationSize returns the requested aggregation size
func (r *RegisterDomain) AggregationSize() uint32 { return r.aggregationSize }

// QueueSize returns the requested publish queue size, nil for the default
func (r *RegisterDomain) QueueSize() *uint32 { return r.queueSize }

// AggregateRules returns the aggregate security rules
func (r *RegisterDomain) AggregateRules() AggregateSecurityRules { return r.aggregateRules }

// ProofRules returns the proof security rules
func (r *RegisterDomain) ProofRules() ProofSecurityRules { return r.proofRules }

// Delivery returns the delivery configuration
func (r *RegisterDomain) Delivery() Delivery { return r.delivery }

// DeliveryOwner returns the delivery owner, nil for the caller
func (r *RegisterDomain) DeliveryOwner() address.Address { return r.deliveryOwner }

// SanityCheck validates the variables in the action
func (r *RegisterDomain) SanityCheck() error {
	if r.aggregateRules > AggregateOnlyOwnerUncompleted || r.proofRules > ProofOnlyAllowlisted {
		return ErrInvalidRules
	}
	return r.delivery.SanityCheck()
}

// NewHoldDomain returns a HoldDomain action
func NewHoldDomain(domainID uint32) *HoldDomain {
	return &HoldDomain{domainID: domainID}
}

// DomainID returns the domain id
func (h *HoldDomain) DomainID() uint32 { return h.domainID }

// SanityCheck validates the variables in the action
func (h *HoldDomain) SanityCheck() error { return nil }

// NewUnregisterDomain returns an UnregisterDomain action
func NewUnregisterDomain(domainID uint32) *UnregisterDomain {
	return &UnregisterDomain{domainID: domainID}
}

// DomainID returns the domain id
func (u *UnregisterDomain) DomainID() uint32 { return u.domainID }

// SanityCheck validates the variables in the action
func (u *UnregisterDomain) SanityCheck() error { return nil }

// NewSetTotalDeliveryFee returns a SetTotalDeliveryFee action
func NewSetTotalDeliveryFee(domainID uint32, fee, ownerTip *big.Int) *SetTotalDeliveryFee {
	return &SetTotalDeliveryFee{
		domainID: domainID,
		fee:      fee,
		ownerTip: ownerTip,
	}
}

// DomainID returns the domain id
func (s *SetTotalDeliveryFee) DomainID() uint32 { return s.domainID }

// Fee returns the delivery fee
func (s *SetTotalDeliveryFee) Fee() *big.Int { return s.fee }

// OwnerTip returns the delivery owner tip
func (s *SetTotalDeliveryFee) OwnerTip() *big.Int { return s.ownerTip }

// SanityCheck validates the variables in the action
func (s *SetTotalDeliveryFee) SanityCheck() error {
	if s.fee == nil || s.fee.Sign() < 0 || s.ownerTip == nil || s.ownerTip.Sign() < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// NewAllowlistProofSubmitters returns an AllowlistProofSubmitters action
func NewAllowlistProofSubmitters(domainID uint32, submitters []address.Address) *AllowlistProofSubmitters {
	return &AllowlistProofSubmitters{
		domainID:   domainID,
		submitters: submitters,
	}
}

// DomainID returns the domain id
func (a *AllowlistProofSubmitters) DomainID() uint32 { return a.domainID }

// Submitters returns the accounts to add
func (a *AllowlistProofSubmitters) Submitters() []address.Address { return a.submitters }

// SanityCheck validates the variables in the action
func (a *AllowlistProofSubmitters) SanityCheck() error {
	return checkSubmitters(a.submitters)
}

// NewRemoveProofSubmitters returns a RemoveProofSubmitters action
func NewRemoveProofSubmitters(domainID uint32, submitters []address.Address) *RemoveProofSubmitters {
	return &RemoveProofSubmitters{
		domainID:   domainID,
		submitters: submitters,
	}
}

// DomainID returns the domain id
func (r *RemoveProofSubmitters) DomainID() uint32 { return r.domainID }

// Submitters returns the accounts to remove
func (r *RemoveProofSubmitters) Submitters() []address.Address { return r.submitters }

// SanityCheck validates the variables in the action
func (r *RemoveProofSubmitters) SanityCheck() error {
	return checkSubmitters(r.submitters)
}

// NewAggregate returns an Aggregate action
func NewAggregate(domainID uint32, aggregationID uint64) *Aggregate {
	return &Aggregate{
		domainID:      domainID,
		aggregationID: aggregationID,
	}
}

// DomainID returns the domain id
func (a *Aggregate) DomainID() uint32 { return a.domainID }

// AggregationID returns the aggregation id
func (a *Aggregate) AggregationID() uint64 { return a.aggregationID }

// SanityCheck validates the variables in the action
func (a *Aggregate) SanityCheck() error { return nil }

func checkSubmitters(submitters []address.Address) error {
	for i, s := range submitters {
		if s == nil {
			return errors.Wrapf(ErrAddress, "submitter %d is nil", i)
		}
	}
	return nil
}
