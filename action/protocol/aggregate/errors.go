// Copyright (c) 2024 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package aggregate

import (
	"fmt"

	"github.com/iotexproject/go-pkgs/hash"
	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-aggregate/action"
)

var (
	// ErrUnknownDomainID indicates the domain does not exist
	ErrUnknownDomainID = errors.New("unknown domain id")
	// ErrInvalidAggregationID indicates the aggregation is neither filling nor queued
	ErrInvalidAggregationID = errors.New("invalid aggregation id")
	// ErrInvalidDomainParams indicates invalid domain parameters or counters
	ErrInvalidDomainParams = errors.New("invalid domain params")
	// ErrInvalidDomainState indicates the requested operation is not allowed in the current domain state
	ErrInvalidDomainState = errors.New("invalid domain state")
	// ErrMissedDeliveryOwnership indicates no delivery owner could be resolved
	ErrMissedDeliveryOwnership = errors.New("missed delivery ownership")
	// ErrNextAggregationIDUnavailable indicates the aggregation id space is exhausted
	ErrNextAggregationIDUnavailable = errors.New("next aggregation id unavailable")
	// ErrBadOrigin indicates the caller is not allowed to perform the operation
	ErrBadOrigin = errors.New("bad origin")
	// ErrStatementNotFound indicates the statement is not part of the aggregation
	ErrStatementNotFound = errors.New("statement not found")
)

type (
	// DispatchError is an error that carries the actual weight consumed before failing
	DispatchError struct {
		Err    error
		Weight action.Weight
	}

	// PathRequestKind tags a PathRequestError
	PathRequestKind uint8

	// PathRequestError is returned by statement path queries
	PathRequestError struct {
		Kind          PathRequestKind
		DomainID      uint32
		AggregationID uint64
		Statement     hash.Hash256
	}
)

const (
	// PathNotFound means the statement is not in the published aggregation
	PathNotFound PathRequestKind = iota
	// PathReceiptNotPublished means the aggregation was not published in the current block
	PathReceiptNotPublished
	// PathIndexOutOfBounds means the merkle proof could not be built for the statement index
	PathIndexOutOfBounds
)

func newDispatchError(err error, w action.Weight) *DispatchError {
	return &DispatchError{Err: err, Weight: w}
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("%v (weight %s)", e.Err, e.Weight)
}

// Cause returns the underlying error
func (e *DispatchError) Cause() error { return e.Err }

// Unwrap returns the underlying error
func (e *DispatchError) Unwrap() error { return e.Err }

// ActualWeight returns the weight carried by err, if any
func ActualWeight(err error) (action.Weight, bool) {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Weight, true
	}
	return action.Weight{}, false
}

func (e *PathRequestError) Error() string {
	switch e.Kind {
	case PathNotFound:
		return fmt.Sprintf("statement %x not found in aggregation %d of domain %d", e.Statement, e.AggregationID, e.DomainID)
	case PathReceiptNotPublished:
		return fmt.Sprintf("receipt of aggregation %d of domain %d not published", e.AggregationID, e.DomainID)
	case PathIndexOutOfBounds:
		return fmt.Sprintf("statement %x index out of bounds in aggregation %d of domain %d", e.Statement, e.AggregationID, e.DomainID)
	default:
		return "unknown path request error"
	}
}
