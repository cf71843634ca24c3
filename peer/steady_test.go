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

func TestSteadyRespondsToPingAndAnnouncesMempool(t *testing.T) {
	clientConn, remote := net.Pipe()
	defer clientConn.Close()
	defer remote.Close()

	h := &fakeHandler{}
	s := newTestSession(t, clientConn, h)

	inbound := make(chan wire.Message, 8)
	writerErr := make(chan error, 1)
	readerErr := make(chan error, 1)
	go s.writeLoop(writerErr)
	go s.readLoop(inbound, readerErr)

	done := make(chan error, 1)
	go func() { done <- s.steady(inbound, readerErr) }()

	mempool := remoteReadMessage(t, remote)
	require.Equal(t, wire.CmdMempool, mempool.Command())

	remoteWriteMessage(t, remote, &wire.MsgPing{Nonce: 42})
	pong := remoteReadMessage(t, remote)
	p, ok := pong.(*wire.MsgPong)
	require.True(t, ok)
	require.Equal(t, uint64(42), p.Nonce)

	s.Cancel()
	remote.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("steady did not exit after cancellation")
	}
}

func TestSteadyFetchesUnseenTxInv(t *testing.T) {
	clientConn, remote := net.Pipe()
	defer clientConn.Close()
	defer remote.Close()

	h := &fakeHandler{}
	s := newTestSession(t, clientConn, h)

	inbound := make(chan wire.Message, 8)
	writerErr := make(chan error, 1)
	readerErr := make(chan error, 1)
	go s.writeLoop(writerErr)
	go s.readLoop(inbound, readerErr)

	done := make(chan error, 1)
	go func() { done <- s.steady(inbound, readerErr) }()

	_ = remoteReadMessage(t, remote) // mempool

	txHash := wire.Hash{0x01}
	remoteWriteMessage(t, remote, &wire.MsgInv{Items: []wire.InvItem{{Type: wire.InvTx, Hash: txHash}}})

	req := remoteReadMessage(t, remote)
	gd, ok := req.(*wire.MsgGetData)
	require.True(t, ok)
	require.Len(t, gd.Items, 1)
	require.Equal(t, txHash, gd.Items[0].Hash)

	// A repeat announcement of the same hash must not trigger a second
	// getdata since it is now in the session's seen-inventory cache.
	remoteWriteMessage(t, remote, &wire.MsgInv{Items: []wire.InvItem{{Type: wire.InvTx, Hash: txHash}}})
	remoteWriteMessage(t, remote, &wire.MsgPing{Nonce: 7})
	pong := remoteReadMessage(t, remote)
	_, ok = pong.(*wire.MsgPong)
	require.True(t, ok)

	s.Cancel()
	remote.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("steady did not exit after cancellation")
	}
}
