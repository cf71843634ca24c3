// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"net"
	"strconv"
	"time"

	"github.com/btcspv/spvnode/wire"
)

// localNonce is fixed per session; the spec does not require detecting
// self-connects, so a constant is sufficient (one session per Session
// value, never reused).
const localNonce = 0x5350560001020304

// handshake implements spec §4.9's lenient ordering: this node always
// sends version then verack immediately, without waiting for the
// peer's version first, and only then waits for the peer's version and
// verack to arrive in either order. sendheaders follows verack.
func (s *Session) handshake(inbound <-chan wire.Message, readerErr <-chan error) error {
	s.send(s.versionMessage())
	s.send(&wire.MsgVerAck{})
	s.send(&wire.MsgSendHeaders{})

	return s.waitFor(inbound, readerErr, func(msg wire.Message) (bool, error) {
		switch msg.(type) {
		case *wire.MsgVersion:
			s.gotVersion = true
		case *wire.MsgVerAck:
			s.gotVerAck = true
		}
		return s.gotVersion && s.gotVerAck, nil
	})
}

func (s *Session) versionMessage() *wire.MsgVersion {
	host, portStr, _ := net.SplitHostPort(s.addr)
	var port uint16
	if n, err := strconv.ParseUint(portStr, 10, 16); err == nil {
		port = uint16(n)
	}
	return &wire.MsgVersion{
		ProtocolVersion: int32(s.params.ProtocolVersion),
		Services:        0,
		Timestamp:       time.Now().Unix(),
		AddrRecv:        wire.NetAddress{IP: net.ParseIP(host), Port: port},
		AddrFrom:        wire.NetAddress{IP: net.IPv4zero, Port: 0},
		Nonce:           localNonce,
		UserAgent:       "/spvnode:0.1.0/",
		StartHeight:     0,
		Relay:           false,
	}
}
