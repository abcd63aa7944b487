// Copyright (c) 2024 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package action

import (
	"fmt"
	"math"
)

// Weight is the two dimensional cost of an operation: execution time and proof size
type Weight struct {
	RefTime   uint64
	ProofSize uint64
}

// NewWeight returns a weight
func NewWeight(refTime, proofSize uint64) Weight {
	return Weight{RefTime: refTime, ProofSize: proofSize}
}

// Add returns the saturating sum of both components
func (w Weight) Add(o Weight) Weight {
	return Weight{
		RefTime:   saturatingAdd(w.RefTime, o.RefTime),
		ProofSize: saturatingAdd(w.ProofSize, o.ProofSize),
	}
}

// Mul returns the saturating product of both components by n
func (w Weight) Mul(n uint64) Weight {
	return Weight{
		RefTime:   saturatingMul(w.RefTime, n),
		ProofSize: saturatingMul(w.ProofSize, n),
	}
}

// IsZero returns true if both components are zero
func (w Weight) IsZero() bool {
	return w.RefTime == 0 && w.ProofSize == 0
}

func (w Weight) String() string {
	return fmt.Sprintf("{ref_time: %d, proof_size: %d}", w.RefTime, w.ProofSize)
}

func saturatingAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

func saturatingMul(a, b uint64) uint64 {
	if a != 0 && b > math.MaxUint64/a {
		return math.MaxUint64
	}
	return a * b
}
