// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node

import (
	"github.com/btcspv/spvnode/peer"
	"github.com/btcspv/spvnode/spverr"
	"github.com/btcspv/spvnode/spvlog"
)

// Run discovers seed peers, dials up to cfg.MaxOutboundPeers of them,
// starts the inbound listener if configured, and then blocks draining
// the bridge's command channel until a Close command arrives. It
// returns spverr.ErrPeerExhaustion if not a single outbound dial
// succeeds and no inbound listener is configured.
func (n *Node) Run() error {
	ln, err := n.listen()
	if err != nil {
		return err
	}
	if ln != nil {
		defer ln.Close()
	}

	connected := n.dialOutbound()
	if connected == 0 && ln == nil {
		return spverr.ErrPeerExhaustion
	}

	n.runCommands()

	n.shutdown()
	return nil
}

// maxOutbound returns the configured outbound peer cap, or
// defaultMaxOutboundPeers if unset.
func (n *Node) maxOutbound() int {
	if n.cfg.MaxOutboundPeers > 0 {
		return n.cfg.MaxOutboundPeers
	}
	return defaultMaxOutboundPeers
}

// dialOutbound dials seeds discovered via discoverPeers up to
// maxOutbound, running each successfully connected session in its own
// goroutine, and returns the number of sessions established.
func (n *Node) dialOutbound() int {
	seeds, err := n.discoverPeers()
	if err != nil {
		spvlog.NodeLog.Errorf("peer discovery: %v", err)
		return 0
	}

	connected := 0
	for _, addr := range seeds {
		if connected >= n.maxOutbound() {
			break
		}
		sess, err := peer.Dial(addr, n.cfg.Params, n)
		if err != nil {
			spvlog.NodeLog.Debugf("dial %s: %v", addr, err)
			continue
		}
		n.trackSession(sess)
		go n.runSession(sess)
		connected++
	}
	return connected
}

// shutdown cancels every tracked session.
func (n *Node) shutdown() {
	n.sessMu.Lock()
	defer n.sessMu.Unlock()
	for _, sess := range n.sessions {
		sess.Cancel()
	}
}
