// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package merkle

import (
	"github.com/btcspv/spvnode/spverr"
	"github.com/btcspv/spvnode/wire"
)

// bitReader walks a flag-byte slice one bit at a time, LSB-first within
// each byte, matching the bitcoind partial merkle tree encoding the Rust
// original's merkle_tree.rs flag walk is built on.
type bitReader struct {
	flags []byte
	pos   int
}

func (r *bitReader) next() (bool, bool) {
	byteIdx := r.pos / 8
	if byteIdx >= len(r.flags) {
		return false, false
	}
	bit := (r.flags[byteIdx] >> uint(r.pos%8)) & 1
	r.pos++
	return bit == 1, true
}

// walker threads the shared traversal state through the recursive
// descent: the flag bit stream, the hash stream, which leaves matched,
// and how many hashes were actually consumed.
type walker struct {
	bits          *bitReader
	hashes        []wire.Hash
	hashPos       int
	numTx         int
	matched       []int
	matchedHashes []wire.Hash
}

// verify runs the walk shared by VerifyMerkleBlock and MatchedTxids,
// returning the walker holding both the matched leaf positions and their
// hash values once the stream has checked out against mb's header.
func verify(mb *wire.MerkleBlock) (*walker, error) {
	if mb.TotalTx == 0 {
		return nil, spverr.ErrMerkleInvalid
	}
	w := &walker{
		bits:   &bitReader{flags: mb.FlagBytes},
		hashes: mb.Hashes,
		numTx:  int(mb.TotalTx),
	}

	height := Height(w.numTx)
	root, err := w.walk(height, 0)
	if err != nil {
		return nil, err
	}
	if w.hashPos != len(w.hashes) {
		return nil, spverr.ErrMerkleInvalid
	}
	if !allPaddingZero(mb.FlagBytes, w.bits.pos) {
		return nil, spverr.ErrMerkleInvalid
	}
	if root != mb.Header.MerkleRoot {
		return nil, spverr.ErrMerkleInvalid
	}
	return w, nil
}

// VerifyMerkleBlock walks mb's flag/hash stream against its header's
// merkle root, returning the indices of matched transactions. Any
// malformed stream — leftover hashes, leftover non-padding flag bits, or
// a recomputed root that disagrees with the header — is reported as
// spverr.ErrMerkleInvalid.
func VerifyMerkleBlock(mb *wire.MerkleBlock) ([]int, error) {
	w, err := verify(mb)
	if err != nil {
		return nil, err
	}
	return w.matched, nil
}

// MatchedTxids verifies mb the same way VerifyMerkleBlock does, but
// returns the matched transactions' hash values rather than their
// positions. The node uses this to validate an incoming merkleblock and
// to answer inclusion requests against a stored one.
func MatchedTxids(mb *wire.MerkleBlock) ([]wire.Hash, error) {
	w, err := verify(mb)
	if err != nil {
		return nil, err
	}
	return w.matchedHashes, nil
}

// walk descends the canonical tree shape for numTx leaves, consuming one
// flag bit per node visited. A 0 bit at any node consumes exactly one
// hash and prunes the subtree. A 1 bit at a leaf consumes one hash and
// marks that transaction matched. A 1 bit at an internal node recurses
// left then right (duplicating the left child's hash for a missing right
// child, per the standard odd-width rule) and combines the results.
func (w *walker) walk(height, pos int) (wire.Hash, error) {
	bit, ok := w.bits.next()
	if !ok {
		return wire.Hash{}, spverr.ErrMerkleInvalid
	}

	if height == 0 {
		h, err := w.nextHash()
		if err != nil {
			return wire.Hash{}, err
		}
		if bit {
			w.matched = append(w.matched, pos)
			w.matchedHashes = append(w.matchedHashes, h)
		}
		return h, nil
	}

	if !bit {
		return w.nextHash()
	}

	left, err := w.walk(height-1, pos*2)
	if err != nil {
		return wire.Hash{}, err
	}

	if pos*2+1 < calcTreeWidth(height-1, w.numTx) {
		right, err := w.walk(height-1, pos*2+1)
		if err != nil {
			return wire.Hash{}, err
		}
		return HashBranches(left, right), nil
	}
	return HashBranches(left, left), nil
}

// calcTreeWidth returns the number of nodes at height in the canonical
// tree shape for numTx leaves, i.e. ceil(numTx / 2^height).
func calcTreeWidth(height, numTx int) int {
	return (numTx + (1 << uint(height)) - 1) >> uint(height)
}

func (w *walker) nextHash() (wire.Hash, error) {
	if w.hashPos >= len(w.hashes) {
		return wire.Hash{}, spverr.ErrMerkleInvalid
	}
	h := w.hashes[w.hashPos]
	w.hashPos++
	return h, nil
}

// allPaddingZero checks that any bits remaining in the final partially
// used flag byte are zero, as the encoder is required to emit.
func allPaddingZero(flags []byte, usedBits int) bool {
	total := len(flags) * 8
	for i := usedBits; i < total; i++ {
		byteIdx := i / 8
		bit := (flags[byteIdx] >> uint(i%8)) & 1
		if bit != 0 {
			return false
		}
	}
	return true
}

// builder is the mirror of walker: it descends the same canonical tree
// shape and emits exactly the flag bits and hashes VerifyMerkleBlock
// expects to consume.
type builder struct {
	levels  [][]wire.Hash // levels[0] is the leaves
	matched map[int]bool
	numTx   int
	bits    []bool
	hashes  []wire.Hash
}

// BuildMerkleBlock constructs the flag/hash stream for a merkle block
// proving inclusion of the transactions at matchedIndexes within txids,
// paired with header. Matching no transactions still proves header's
// merkle root commits to the given txid set.
func BuildMerkleBlock(header wire.BlockHeader, txids []wire.Hash, matchedIndexes []int) *wire.MerkleBlock {
	b := &builder{matched: make(map[int]bool), numTx: len(txids)}
	for _, i := range matchedIndexes {
		b.matched[i] = true
	}
	b.levels = append(b.levels, append([]wire.Hash(nil), txids...))
	level := b.levels[0]
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]wire.Hash, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, HashBranches(level[i], level[i+1]))
		}
		b.levels = append(b.levels, next)
		level = next
	}

	height := Height(b.numTx)
	b.build(height, 0)

	return &wire.MerkleBlock{
		Header:    header,
		TotalTx:   uint32(b.numTx),
		Hashes:    b.hashes,
		FlagBytes: packBits(b.bits),
	}
}

func (b *builder) build(height, pos int) {
	parentOfMatch := b.subtreeHasMatch(height, pos)
	b.bits = append(b.bits, parentOfMatch)

	if height == 0 || !parentOfMatch {
		b.hashes = append(b.hashes, b.levels[height][pos])
		return
	}

	b.build(height-1, pos*2)
	if pos*2+1 < calcTreeWidth(height-1, b.numTx) {
		b.build(height-1, pos*2+1)
	}
}

func (b *builder) subtreeHasMatch(height, pos int) bool {
	width := 1 << uint(height)
	start := pos * width
	end := start + width
	if end > b.numTx {
		end = b.numTx
	}
	for i := start; i < end; i++ {
		if b.matched[i] {
			return true
		}
	}
	return false
}

func packBits(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, bit := range bits {
		if bit {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}
