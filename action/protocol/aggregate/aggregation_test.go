// Copyright (c) 2024 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package aggregate

import (
	"math"
	"math/big"
	"testing"

	"github.com/iotexproject/go-pkgs/hash"
	"github.com/stretchr/testify/require"

	"github.com/iotexproject/iotex-aggregate/crypto"
	"github.com/iotexproject/iotex-aggregate/test/identityset"
)

func statement(i int) hash.Hash256 {
	return hash.Hash256b([]byte{byte(i), byte(i >> 8), 0xa9})
}

func fill(agg *AggregationEntry, n int) {
	for i := 0; i < n; i++ {
		agg.AddStatement(identityset.Address(i%identityset.Size()), NewReserve(big.NewInt(1), big.NewInt(2)), statement(i))
	}
}

func TestAggregationEntry(t *testing.T) {
	require := require.New(t)

	agg := NewAggregationEntry(7, 3)
	require.True(agg.IsEmpty())
	require.False(agg.Completed())
	require.Equal(uint32(3), agg.SpaceLeft())
	require.Equal(hash.ZeroHash256, agg.ComputeReceipt())

	fill(agg, 3)
	require.False(agg.IsEmpty())
	require.True(agg.Completed())
	require.Zero(agg.SpaceLeft())
	require.Panics(func() {
		agg.AddStatement(identityset.Address(0), NewReserve(big.NewInt(0), big.NewInt(0)), statement(99))
	})

	next, ok := agg.createNext(5)
	require.True(ok)
	require.Equal(uint64(8), next.ID)
	require.Equal(uint32(5), next.Size)
	require.True(next.IsEmpty())

	_, ok = NewAggregationEntry(math.MaxUint64, 1).createNext(1)
	require.False(ok)
}

func TestAggregationReceipt(t *testing.T) {
	require := require.New(t)

	agg := NewAggregationEntry(1, 4)
	fill(agg, 4)
	leaves := []hash.Hash256{statement(0), statement(1), statement(2), statement(3)}
	require.Equal(crypto.NewMerkleTree(leaves).HashTree(), agg.ComputeReceipt())

	// insertion order is part of the receipt
	swapped := NewAggregationEntry(1, 4)
	for _, i := range []int{1, 0, 2, 3} {
		swapped.AddStatement(identityset.Address(i), NewReserve(big.NewInt(1), big.NewInt(2)), statement(i))
	}
	require.NotEqual(agg.ComputeReceipt(), swapped.ComputeReceipt())
}

func TestStatementPath(t *testing.T) {
	require := require.New(t)

	for _, n := range []int{1, 2, 5, 16} {
		agg := NewAggregationEntry(1, uint32(n))
		fill(agg, n)
		root := agg.ComputeReceipt()
		for i := 0; i < n; i++ {
			proof, err := agg.StatementPath(statement(i))
			require.NoError(err)
			require.Equal(root, proof.Root)
			require.Equal(uint64(i), proof.LeafIndex)
			require.Equal(uint64(n), proof.NumberOfLeaves)
			require.True(crypto.VerifyProof(root, proof.Proof, proof.NumberOfLeaves, proof.LeafIndex, statement(i)))
		}
		_, err := agg.StatementPath(statement(1000))
		require.Equal(ErrStatementNotFound, err)
	}
}
