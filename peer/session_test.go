// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/btcspv/spvnode/chaincfg"
	"github.com/btcspv/spvnode/wire"
)

// fakeHandler is a minimal peer.Handler for driving a Session in tests.
type fakeHandler struct {
	tip          wire.Hash
	headers      []*wire.BlockHeader
	blocks       []*wire.Block
	merkles      []*wire.MerkleBlock
	txs          []*wire.Transaction
	queueBlocks  []wire.Hash
	queueMerkles []wire.Hash
}

func (h *fakeHandler) Tip() wire.Hash { return h.tip }

func (h *fakeHandler) AcceptHeaders(headers []*wire.BlockHeader) error {
	h.headers = append(h.headers, headers...)
	return nil
}

func (h *fakeHandler) QueueBlocks() (blocks, merkles []wire.Hash) {
	return h.queueBlocks, h.queueMerkles
}

func (h *fakeHandler) AcceptBlock(blk *wire.Block) error {
	h.blocks = append(h.blocks, blk)
	return nil
}

func (h *fakeHandler) AcceptMerkleBlock(mb *wire.MerkleBlock) error {
	h.merkles = append(h.merkles, mb)
	return nil
}

func (h *fakeHandler) AcceptTx(tx *wire.Transaction) {
	h.txs = append(h.txs, tx)
}

func (h *fakeHandler) KnownTxInv() []wire.InvItem { return nil }

func (h *fakeHandler) ServeGetHeaders(locators []wire.Hash, hashStop wire.Hash) []*wire.BlockHeader {
	return nil
}

func (h *fakeHandler) ServeGetData(items []wire.InvItem) (found []wire.Message, notFound []wire.InvItem) {
	return nil, items
}

func (h *fakeHandler) ServeGetBlockTxn(blockHash wire.Hash, indexes []uint64) *wire.MsgBlockTxn {
	return nil
}

// remoteWriteMessage and remoteReadMessage let a test act as the peer on
// the other end of a net.Pipe, scripting a conversation one message at a
// time without running a second Session state machine.
func remoteWriteMessage(t *testing.T, conn net.Conn, msg wire.Message) {
	t.Helper()
	b, err := wire.EncodeMessage(msg)
	require.NoError(t, err)
	_, err = conn.Write(b)
	require.NoError(t, err)
}

func remoteReadMessage(t *testing.T, conn net.Conn) wire.Message {
	t.Helper()
	env, err := readEnvelope(conn)
	require.NoError(t, err)
	msg, err := wire.DecodeMessage(env.Command, env.Payload)
	require.NoError(t, err)
	return msg
}

func newTestSession(t *testing.T, conn net.Conn, handler Handler) *Session {
	t.Helper()
	return newSession(conn, "127.0.0.1:18333", &chaincfg.TestNet3Params, handler)
}

func TestHandshakeSendsVersionVerackSendheadersThenCompletes(t *testing.T) {
	clientConn, remote := net.Pipe()
	defer clientConn.Close()
	defer remote.Close()

	s := newTestSession(t, clientConn, &fakeHandler{})

	inbound := make(chan wire.Message, 8)
	writerErr := make(chan error, 1)
	readerErr := make(chan error, 1)
	go s.writeLoop(writerErr)
	go s.readLoop(inbound, readerErr)

	done := make(chan error, 1)
	go func() { done <- s.handshake(inbound, readerErr) }()

	require.Equal(t, wire.CmdVersion, remoteReadMessage(t, remote).Command())
	require.Equal(t, wire.CmdVerAck, remoteReadMessage(t, remote).Command())
	require.Equal(t, wire.CmdSendHeaders, remoteReadMessage(t, remote).Command())

	remoteWriteMessage(t, remote, &wire.MsgVersion{
		ProtocolVersion: 70015,
		Nonce:           99,
		AddrRecv:        wire.NetAddress{IP: net.IPv4zero},
		AddrFrom:        wire.NetAddress{IP: net.IPv4zero},
		UserAgent:       "/test:0.0.1/",
	})
	remoteWriteMessage(t, remote, &wire.MsgVerAck{})

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("handshake did not complete")
	}
	require.True(t, s.gotVersion)
	require.True(t, s.gotVerAck)
}

func TestStateStringCoversAllValues(t *testing.T) {
	require.Equal(t, "Connecting", Connecting.String())
	require.Equal(t, "Handshaking", Handshaking.String())
	require.Equal(t, "HeaderSync", HeaderSync.String())
	require.Equal(t, "BlockSync", BlockSync.String())
	require.Equal(t, "Steady", Steady.String())
	require.Equal(t, "Closing", Closing.String())
	require.Equal(t, "Unknown", State(99).String())
}

func TestBlockSyncSkipsWhenQueuesEmpty(t *testing.T) {
	clientConn, remote := net.Pipe()
	defer clientConn.Close()
	defer remote.Close()

	s := newTestSession(t, clientConn, &fakeHandler{})

	inbound := make(chan wire.Message, 1)
	readerErr := make(chan error, 1)
	require.NoError(t, s.blockSync(inbound, readerErr))
}

func TestCancelStopsReadLoop(t *testing.T) {
	clientConn, remote := net.Pipe()
	defer clientConn.Close()
	defer remote.Close()

	s := newTestSession(t, clientConn, &fakeHandler{})
	s.Cancel()

	inbound := make(chan wire.Message, 1)
	errc := make(chan error, 1)
	go s.readLoop(inbound, errc)

	select {
	case err := <-errc:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("readLoop did not observe cancellation")
	}
}
