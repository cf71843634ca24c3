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

func testHeader(nonce uint32) wire.BlockHeader {
	return wire.BlockHeader{
		Version:   1,
		Timestamp: 1,
		Bits:      0x1d00ffff,
		Nonce:     nonce,
	}
}

func TestHeaderSyncRequestsFromTipAndExitsOnShortBatch(t *testing.T) {
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
	go func() { done <- s.headerSync(inbound, readerErr) }()

	req := remoteReadMessage(t, remote)
	getheaders, ok := req.(*wire.MsgGetHeaders)
	require.True(t, ok)
	require.Len(t, getheaders.BlockLocators, 1)
	require.Equal(t, h.tip, getheaders.BlockLocators[0])
	require.Equal(t, h.tip, getheaders.HashStop)

	hdr := testHeader(1)
	remoteWriteMessage(t, remote, &wire.MsgHeaders{Headers: []*wire.BlockHeader{&hdr}})

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("headerSync did not complete")
	}
	require.Len(t, h.headers, 1)
}

func TestHeaderSyncReissuesGetheadersOnFullBatch(t *testing.T) {
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
	go func() { done <- s.headerSync(inbound, readerErr) }()

	_ = remoteReadMessage(t, remote)

	full := make([]*wire.BlockHeader, headersPerGetheaders)
	for i := range full {
		hdr := testHeader(uint32(i))
		full[i] = &hdr
	}
	remoteWriteMessage(t, remote, &wire.MsgHeaders{Headers: full})

	second := remoteReadMessage(t, remote)
	getheaders, ok := second.(*wire.MsgGetHeaders)
	require.True(t, ok)
	require.Equal(t, full[len(full)-1].BlockHash(), getheaders.BlockLocators[0])

	short := testHeader(9999)
	remoteWriteMessage(t, remote, &wire.MsgHeaders{Headers: []*wire.BlockHeader{&short}})

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("headerSync did not complete")
	}
	require.Len(t, h.headers, headersPerGetheaders+1)
}
