// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package spvlog

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
)

// PeerTrace is the per-peer trace sink a session attaches to its
// reader/writer goroutines: every inbound and outbound message gets a
// spew.Sdump of its decoded payload at trace level, tagged with the
// peer's address. Matches the teacher's own use of spew.Sdump in
// mempool/mempool.go for verbose diagnostic dumps.
type PeerTrace struct {
	addr string
}

// NewPeerTrace returns a trace sink for the peer at addr.
func NewPeerTrace(addr string) *PeerTrace {
	return &PeerTrace{addr: addr}
}

// Inbound logs a received message's command and a spew dump of its
// decoded payload at trace level. The spew.Sdump dump is built on every
// call; btclog discards the line when trace-level output isn't enabled.
func (t *PeerTrace) Inbound(command string, msg interface{}) {
	PeerLog.Tracef("%s <- %s\n%s", t.addr, command, spew.Sdump(msg))
}

// Outbound logs a sent message's command and a spew dump of its decoded
// payload at trace level.
func (t *PeerTrace) Outbound(command string, msg interface{}) {
	PeerLog.Tracef("%s -> %s\n%s", t.addr, command, spew.Sdump(msg))
}

// Errorf is a convenience passthrough tagging the peer's address onto a
// node-level error log line.
func (t *PeerTrace) Errorf(format string, args ...interface{}) {
	PeerLog.Errorf("%s: %s", t.addr, fmt.Sprintf(format, args...))
}
