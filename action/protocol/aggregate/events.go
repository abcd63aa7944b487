// Copyright (c) 2024 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package aggregate

import (
	"fmt"

	"github.com/iotexproject/go-pkgs/hash"

	"github.com/iotexproject/iotex-aggregate/action"
)

// CauseKind tags why a statement could not be aggregated
type CauseKind uint8

const (
	// CauseNoAccount means the statement has no submitter account
	CauseNoAccount CauseKind = iota
	// CauseDomainNotRegistered means the domain does not exist
	CauseDomainNotRegistered
	// CauseDomainStorageFull means the domain cannot absorb another statement
	CauseDomainStorageFull
	// CauseInsufficientFunds means the reserve could not be held
	CauseInsufficientFunds
	// CauseInvalidDomainState means the domain is not Ready
	CauseInvalidDomainState
	// CauseUnauthorizedUser means the submitter is rejected by the proof security rules
	CauseUnauthorizedUser
)

// Event names
const (
	NewDomainEventName             = "NewDomain"
	DomainStateChangedEventName    = "DomainStateChanged"
	NewProofEventName              = "NewProof"
	AggregationCompleteEventName   = "AggregationComplete"
	NewAggregationReceiptEventName = "NewAggregationReceipt"
	CannotAggregateEventName       = "CannotAggregate"
	DomainFullEventName            = "DomainFull"
)

type (
	// CannotAggregateCause describes a rejected statement
	CannotAggregateCause struct {
		Kind     CauseKind
		DomainID uint32
		// State is set for CauseInvalidDomainState
		State DomainState
	}

	// NewDomainEvent is emitted when a domain is registered
	NewDomainEvent struct {
		ID uint32
	}

	// DomainStateChangedEvent is emitted on every domain state change
	DomainStateChangedEvent struct {
		ID    uint32
		State DomainState
	}

	// NewProofEvent is emitted when a statement is admitted
	NewProofEvent struct {
		Statement     hash.Hash256
		DomainID      uint32
		AggregationID uint64
	}

	// AggregationCompleteEvent is emitted when an aggregation reaches its size
	AggregationCompleteEvent struct {
		DomainID      uint32
		AggregationID uint64
	}

	// NewAggregationReceiptEvent is emitted when an aggregation is published
	NewAggregationReceiptEvent struct {
		DomainID      uint32
		AggregationID uint64
		Receipt       hash.Hash256
	}

	// CannotAggregateEvent is emitted when a verified statement cannot be admitted
	CannotAggregateEvent struct {
		Statement hash.Hash256
		Cause     CannotAggregateCause
	}

	// DomainFullEvent warns that the publish queue of a domain is full
	DomainFullEvent struct {
		DomainID uint32
	}

	// events buffers the events of a unit of work until it succeeds
	events []action.Event
)

// EventName implements action.Event
func (NewDomainEvent) EventName() string { return NewDomainEventName }

// EventName implements action.Event
func (DomainStateChangedEvent) EventName() string { return DomainStateChangedEventName }

// EventName implements action.Event
func (NewProofEvent) EventName() string { return NewProofEventName }

// EventName implements action.Event
func (AggregationCompleteEvent) EventName() string { return AggregationCompleteEventName }

// EventName implements action.Event
func (NewAggregationReceiptEvent) EventName() string { return NewAggregationReceiptEventName }

// EventName implements action.Event
func (CannotAggregateEvent) EventName() string { return CannotAggregateEventName }

// EventName implements action.Event
func (DomainFullEvent) EventName() string { return DomainFullEventName }

func (c CannotAggregateCause) String() string {
	switch c.Kind {
	case CauseNoAccount:
		return "NoAccount"
	case CauseDomainNotRegistered:
		return fmt.Sprintf("DomainNotRegistered{%d}", c.DomainID)
	case CauseDomainStorageFull:
		return fmt.Sprintf("DomainStorageFull{%d}", c.DomainID)
	case CauseInsufficientFunds:
		return "InsufficientFunds"
	case CauseInvalidDomainState:
		return fmt.Sprintf("InvalidDomainState{%d, %s}", c.DomainID, c.State)
	case CauseUnauthorizedUser:
		return "UnauthorizedUser"
	default:
		return fmt.Sprintf("CannotAggregateCause(%d)", c.Kind)
	}
}

func (evts *events) add(evt action.Event) {
	*evts = append(*evts, evt)
}
