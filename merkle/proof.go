// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package merkle

import (
	"github.com/btcspv/spvnode/spverr"
	"github.com/btcspv/spvnode/wire"
)

// ProofStep is one sibling hash on the path from a leaf to the root,
// together with which side it sits on relative to the accumulator.
type ProofStep struct {
	Sibling      wire.Hash
	SiblingLeft  bool
}

// BuildProof constructs an inclusion proof for the transaction at index
// within the full ordered set of txids, by replaying BuildTree's level
// construction and recording the sibling visited at each level.
func BuildProof(txids []wire.Hash, index int) ([]ProofStep, error) {
	if index < 0 || index >= len(txids) {
		return nil, spverr.ErrMerkleInvalid
	}
	if len(txids) == 1 {
		return nil, nil
	}

	level := append([]wire.Hash(nil), txids...)
	pos := index
	var steps []ProofStep

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		var sibPos int
		var step ProofStep
		if pos%2 == 0 {
			sibPos = pos + 1
			step = ProofStep{Sibling: level[sibPos], SiblingLeft: false}
		} else {
			sibPos = pos - 1
			step = ProofStep{Sibling: level[sibPos], SiblingLeft: true}
		}
		steps = append(steps, step)

		next := make([]wire.Hash, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, HashBranches(level[i], level[i+1]))
		}
		level = next
		pos /= 2
	}
	return steps, nil
}

// VerifyProof recomputes the root by folding steps over leaf and reports
// whether it matches root. A txid is its own root in the single
// transaction case, so steps must be empty then.
func VerifyProof(leaf wire.Hash, steps []ProofStep, root wire.Hash) bool {
	h := leaf
	for _, s := range steps {
		if s.SiblingLeft {
			h = HashBranches(s.Sibling, h)
		} else {
			h = HashBranches(h, s.Sibling)
		}
	}
	return h == root
}
