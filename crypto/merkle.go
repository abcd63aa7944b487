// Copyright (c) 2018 IoTeX
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package crypto

import (
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/iotexproject/go-pkgs/hash"
	"github.com/pkg/errors"
)

// ErrLeafIndexOutOfBounds is returned when a proof is requested for a leaf that does not exist
var ErrLeafIndexOutOfBounds = errors.New("leaf index out of bounds")

type (
	// Merkle is a binary Keccak merkle tree. Every leaf is hashed before being paired; when a layer has an odd
	// number of nodes the last one is promoted to the next layer unchanged.
	Merkle struct {
		leaves []hash.Hash256
		layers [][]hash.Hash256
	}

	// MerkleProof proves that Leaf is the LeafIndex-th of NumberOfLeaves leaves under Root
	MerkleProof struct {
		Root           hash.Hash256
		Proof          []hash.Hash256
		NumberOfLeaves uint64
		LeafIndex      uint64
		Leaf           hash.Hash256
	}
)

// Keccak256 hashes the concatenation of the given hashes
func Keccak256(h ...hash.Hash256) hash.Hash256 {
	data := make([][]byte, len(h))
	for i := range h {
		data[i] = h[i][:]
	}
	return hash.BytesToHash256(crypto.Keccak256(data...))
}

// NewMerkleTree creates a merkle tree given leaves
func NewMerkleTree(leaves []hash.Hash256) *Merkle {
	mk := &Merkle{
		leaves: make([]hash.Hash256, len(leaves)),
	}
	copy(mk.leaves, leaves)
	if len(leaves) == 0 {
		return mk
	}
	layer := make([]hash.Hash256, len(leaves))
	for i := range leaves {
		layer[i] = Keccak256(leaves[i])
	}
	mk.layers = append(mk.layers, layer)
	for len(layer) > 1 {
		next := make([]hash.Hash256, 0, (len(layer)+1)/2)
		for i := 0; i+1 < len(layer); i += 2 {
			next = append(next, Keccak256(layer[i], layer[i+1]))
		}
		if len(layer)&1 == 1 {
			next = append(next, layer[len(layer)-1])
		}
		mk.layers = append(mk.layers, next)
		layer = next
	}
	return mk
}

// HashTree returns the root hash of the tree, ZeroHash256 for an empty tree
func (mk *Merkle) HashTree() hash.Hash256 {
	if len(mk.layers) == 0 {
		return hash.ZeroHash256
	}
	return mk.layers[len(mk.layers)-1][0]
}

// Size returns the number of leaves
func (mk *Merkle) Size() int {
	return len(mk.leaves)
}

// Proof returns the inclusion proof of the index-th leaf
func (mk *Merkle) Proof(index int) (*MerkleProof, error) {
	if index < 0 || index >= len(mk.leaves) {
		return nil, errors.Wrapf(ErrLeafIndexOutOfBounds, "index %d, leaves %d", index, len(mk.leaves))
	}
	var path []hash.Hash256
	pos := index
	for _, layer := range mk.layers[:len(mk.layers)-1] {
		sibling := pos ^ 1
		if sibling < len(layer) {
			path = append(path, layer[sibling])
		}
		pos >>= 1
	}
	return &MerkleProof{
		Root:           mk.HashTree(),
		Proof:          path,
		NumberOfLeaves: uint64(len(mk.leaves)),
		LeafIndex:      uint64(index),
		Leaf:           mk.leaves[index],
	}, nil
}

// Verify checks the proof against its own root
func (p *MerkleProof) Verify() bool {
	return VerifyProof(p.Root, p.Proof, p.NumberOfLeaves, p.LeafIndex, p.Leaf)
}

// VerifyProof checks that leaf sits at leafIndex of a tree of numberOfLeaves leaves with the given root
func VerifyProof(root hash.Hash256, proof []hash.Hash256, numberOfLeaves, leafIndex uint64, leaf hash.Hash256) bool {
	if leafIndex >= numberOfLeaves {
		return false
	}
	var (
		computed = Keccak256(leaf)
		width    = numberOfLeaves
		pos      = leafIndex
		used     = 0
	)
	for width > 1 {
		promoted := width&1 == 1 && pos == width-1
		if !promoted {
			if used >= len(proof) {
				return false
			}
			if pos&1 == 0 {
				computed = Keccak256(computed, proof[used])
			} else {
				computed = Keccak256(proof[used], computed)
			}
			used++
		}
		pos >>= 1
		width = (width + 1) >> 1
	}
	return used == len(proof) && computed == root
}
