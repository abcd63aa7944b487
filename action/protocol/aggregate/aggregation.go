// Copyright (c) 2024 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package aggregate

import (
	"math"
	"math/big"

	"github.com/iotexproject/go-pkgs/hash"
	"github.com/iotexproject/iotex-address/address"

	"github.com/iotexproject/iotex-aggregate/crypto"
	"github.com/iotexproject/iotex-aggregate/pkg/log"
)

type (
	// Reserve is the funds held against a submitter for one statement
	Reserve struct {
		Aggregate *big.Int
		Delivery  *big.Int
	}

	// StatementEntry is an admitted statement with the submitter and its reserve
	StatementEntry struct {
		Account   address.Address
		Reserve   Reserve
		Statement hash.Hash256
	}

	// AggregationEntry is a bounded batch of statements
	AggregationEntry struct {
		ID         uint64
		Size       uint32
		Statements []StatementEntry
	}
)

// NewReserve returns a reserve
func NewReserve(aggregate, delivery *big.Int) Reserve {
	return Reserve{Aggregate: aggregate, Delivery: delivery}
}

// NewAggregationEntry creates an empty aggregation
func NewAggregationEntry(id uint64, size uint32) *AggregationEntry {
	return &AggregationEntry{
		ID:         id,
		Size:       size,
		Statements: make([]StatementEntry, 0, size),
	}
}

// AddStatement appends a statement. The caller must have checked that there is space left.
func (a *AggregationEntry) AddStatement(account address.Address, reserve Reserve, statement hash.Hash256) {
	if a.SpaceLeft() == 0 {
		log.L().Panic("cannot add a statement to a complete aggregation")
	}
	a.Statements = append(a.Statements, StatementEntry{
		Account:   account,
		Reserve:   reserve,
		Statement: statement,
	})
}

// SpaceLeft returns how many statements can still be added
func (a *AggregationEntry) SpaceLeft() uint32 {
	if uint32(len(a.Statements)) >= a.Size {
		return 0
	}
	return a.Size - uint32(len(a.Statements))
}

// Completed returns true when the aggregation reached its size
func (a *AggregationEntry) Completed() bool {
	return a.SpaceLeft() == 0
}

// IsEmpty returns true if the aggregation has no statement
func (a *AggregationEntry) IsEmpty() bool {
	return len(a.Statements) == 0
}

func (a *AggregationEntry) leaves() []hash.Hash256 {
	leaves := make([]hash.Hash256, len(a.Statements))
	for i, s := range a.Statements {
		leaves[i] = s.Statement
	}
	return leaves
}

// ComputeReceipt returns the merkle root of the statements in insertion order
func (a *AggregationEntry) ComputeReceipt() hash.Hash256 {
	return crypto.NewMerkleTree(a.leaves()).HashTree()
}

// StatementPath returns the inclusion proof of target
func (a *AggregationEntry) StatementPath(target hash.Hash256) (*crypto.MerkleProof, error) {
	index := -1
	for i, s := range a.Statements {
		if s.Statement == target {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, ErrStatementNotFound
	}
	return crypto.NewMerkleTree(a.leaves()).Proof(index)
}

// createNext returns an empty aggregation with the following id, or false if the id space is exhausted
func (a *AggregationEntry) createNext(size uint32) (*AggregationEntry, bool) {
	if a.ID == math.MaxUint64 {
		return nil, false
	}
	return NewAggregationEntry(a.ID+1, size), true
}
