// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package merkle

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/btcspv/spvnode/wire"
)

func headerFor(root wire.Hash) wire.BlockHeader {
	return wire.BlockHeader{
		Version:    1,
		MerkleRoot: root,
		Timestamp:  1,
		Bits:       0x1d00ffff,
	}
}

func TestBuildVerifyMerkleBlockSingleMatch(t *testing.T) {
	leaves := []wire.Hash{leafAt(1), leafAt(2), leafAt(3), leafAt(4), leafAt(5)}
	root := Root(leaves)
	header := headerFor(root)

	mb := BuildMerkleBlock(header, leaves, []int{2})
	matched, err := VerifyMerkleBlock(mb)
	require.NoError(t, err)
	require.Equal(t, []int{2}, matched)
}

func TestBuildVerifyMerkleBlockNoMatches(t *testing.T) {
	leaves := []wire.Hash{leafAt(1), leafAt(2), leafAt(3), leafAt(4)}
	root := Root(leaves)
	header := headerFor(root)

	mb := BuildMerkleBlock(header, leaves, nil)
	matched, err := VerifyMerkleBlock(mb)
	require.NoError(t, err)
	require.Empty(t, matched)
}

func TestBuildVerifyMerkleBlockMultipleMatches(t *testing.T) {
	leaves := []wire.Hash{leafAt(1), leafAt(2), leafAt(3), leafAt(4), leafAt(5), leafAt(6), leafAt(7)}
	root := Root(leaves)
	header := headerFor(root)

	mb := BuildMerkleBlock(header, leaves, []int{0, 3, 6})
	matched, err := VerifyMerkleBlock(mb)
	require.NoError(t, err)
	require.Equal(t, []int{0, 3, 6}, matched)
}

func TestBuildVerifyMerkleBlockSingleTransaction(t *testing.T) {
	leaves := []wire.Hash{leafAt(9)}
	root := Root(leaves)
	header := headerFor(root)

	mb := BuildMerkleBlock(header, leaves, []int{0})
	matched, err := VerifyMerkleBlock(mb)
	require.NoError(t, err)
	require.Equal(t, []int{0}, matched)
}

func TestVerifyMerkleBlockRejectsTamperedRoot(t *testing.T) {
	leaves := []wire.Hash{leafAt(1), leafAt(2), leafAt(3)}
	root := Root(leaves)
	header := headerFor(root)
	header.MerkleRoot = leafAt(0xff)

	mb := BuildMerkleBlock(header, leaves, []int{1})
	_, err := VerifyMerkleBlock(mb)
	require.Error(t, err)
}

func TestVerifyMerkleBlockRejectsTruncatedHashes(t *testing.T) {
	leaves := []wire.Hash{leafAt(1), leafAt(2), leafAt(3), leafAt(4)}
	root := Root(leaves)
	header := headerFor(root)

	mb := BuildMerkleBlock(header, leaves, []int{0, 2})
	mb.Hashes = mb.Hashes[:len(mb.Hashes)-1]
	_, err := VerifyMerkleBlock(mb)
	require.Error(t, err)
}

func TestVerifyMerkleBlockRejectsZeroTotalTx(t *testing.T) {
	_, err := VerifyMerkleBlock(&wire.MerkleBlock{TotalTx: 0})
	require.Error(t, err)
}

func TestMatchedTxidsReturnsMatchedLeafHashes(t *testing.T) {
	leaves := []wire.Hash{leafAt(1), leafAt(2), leafAt(3), leafAt(4), leafAt(5)}
	root := Root(leaves)
	header := headerFor(root)

	mb := BuildMerkleBlock(header, leaves, []int{1, 4})
	txids, err := MatchedTxids(mb)
	require.NoError(t, err)
	require.Equal(t, []wire.Hash{leaves[1], leaves[4]}, txids)
}
