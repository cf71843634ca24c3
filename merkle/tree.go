// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package merkle implements the merkle tree engine: tree construction,
// merkle-block flag/hash-stream verification, and inclusion-proof
// construction/verification. Grounded on the teacher's
// blockchain/merkle.go linear-array tree shape, which §9's design note
// singles out as the answer to the Rust original's cyclic parent-owned
// node graph: an arena with numeric indices needs no heap cycles.
package merkle

import (
	"github.com/btcspv/spvnode/hashkit"
	"github.com/btcspv/spvnode/wire"
)

// HashBranches returns the merkle parent of left and right, both given and
// returned in display order. The double-SHA256 itself is computed over
// the children's raw wire-order bytes, per the protocol's actual merkle
// algorithm; this function's display-order contract just means every
// caller never has to track which representation a given wire.Hash is in.
func HashBranches(left, right wire.Hash) wire.Hash {
	buf := make([]byte, 0, 64)
	buf = wire.PutHashReversed(buf, left)
	buf = wire.PutHashReversed(buf, right)
	return wire.Reverse32(wire.Hash(hashkit.DoubleSHA256(buf)))
}

// Height returns the merkle tree height for n leaves: ceil(log2(n)), or 0
// for n <= 1.
func Height(n int) int {
	if n <= 1 {
		return 0
	}
	h := 0
	for (1 << h) < n {
		h++
	}
	return h
}

// BuildTree computes the full merkle tree over leaves as a linear array
// indexed level-order, leaves first: [leaf0 leaf1 ... level1_0 level1_1
// ... root]. Odd-count levels duplicate their last node before pairing,
// matching the teacher's BuildMerkleTreeStore.
func BuildTree(leaves []wire.Hash) []wire.Hash {
	if len(leaves) == 0 {
		return nil
	}
	level := append([]wire.Hash(nil), leaves...)
	tree := append([]wire.Hash(nil), level...)

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]wire.Hash, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, HashBranches(level[i], level[i+1]))
		}
		tree = append(tree, next...)
		level = next
	}
	return tree
}

// Root returns the merkle root over leaves. A single leaf is its own
// root.
func Root(leaves []wire.Hash) wire.Hash {
	if len(leaves) == 0 {
		return wire.Hash{}
	}
	tree := BuildTree(leaves)
	return tree[len(tree)-1]
}
