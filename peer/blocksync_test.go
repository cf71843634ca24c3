// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/btcspv/spvnode/wire"
)

func TestBlockSyncFetchesQueuedBlocksAndMerkles(t *testing.T) {
	clientConn, remote := net.Pipe()
	defer clientConn.Close()
	defer remote.Close()

	blockHdr := testHeader(1)
	merkleHdr := testHeader(2)
	blk := &wire.Block{Header: blockHdr}
	mb := &wire.MerkleBlock{Header: merkleHdr, TotalTx: 1}

	h := &fakeHandler{
		queueBlocks:  []wire.Hash{blk.BlockHash()},
		queueMerkles: []wire.Hash{merkleHdr.BlockHash()},
	}
	s := newTestSession(t, clientConn, h)

	inbound := make(chan wire.Message, 8)
	writerErr := make(chan error, 1)
	readerErr := make(chan error, 1)
	go s.writeLoop(writerErr)
	go s.readLoop(inbound, readerErr)

	done := make(chan error, 1)
	go func() { done <- s.blockSync(inbound, readerErr) }()

	filterMsg := remoteReadMessage(t, remote)
	require.Equal(t, wire.CmdFilterLoad, filterMsg.Command())

	getdata := remoteReadMessage(t, remote)
	gd, ok := getdata.(*wire.MsgGetData)
	require.True(t, ok)
	require.Len(t, gd.Items, 2)

	remoteWriteMessage(t, remote, &wire.MsgMerkleBlock{MerkleBlock: mb})
	remoteWriteMessage(t, remote, &wire.MsgBlock{Block: blk})

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("blockSync did not complete")
	}
	require.Len(t, h.blocks, 1)
	require.Len(t, h.merkles, 1)
}

func TestBlockSyncClearsOutstandingOnNotFound(t *testing.T) {
	clientConn, remote := net.Pipe()
	defer clientConn.Close()
	defer remote.Close()

	blockHdr := testHeader(1)
	blk := &wire.Block{Header: blockHdr}

	h := &fakeHandler{queueBlocks: []wire.Hash{blk.BlockHash()}}
	s := newTestSession(t, clientConn, h)

	inbound := make(chan wire.Message, 8)
	writerErr := make(chan error, 1)
	readerErr := make(chan error, 1)
	go s.writeLoop(writerErr)
	go s.readLoop(inbound, readerErr)

	done := make(chan error, 1)
	go func() { done <- s.blockSync(inbound, readerErr) }()

	_ = remoteReadMessage(t, remote) // filterload
	gd := remoteReadMessage(t, remote).(*wire.MsgGetData)

	remoteWriteMessage(t, remote, &wire.MsgNotFound{Items: gd.Items})

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("blockSync did not complete")
	}
	require.Empty(t, h.blocks)
}
