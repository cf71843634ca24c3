// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node

import (
	"net"

	"github.com/btcspv/spvnode/peer"
	"github.com/btcspv/spvnode/spvlog"
	"github.com/btcspv/spvnode/wire"
)

// listen accepts inbound connections on cfg.ListenAddr for as long as
// the listener stays open, handing each one to a new Session running
// the same state machine an outbound session uses. A no-op if
// ListenAddr is empty.
func (n *Node) listen() (net.Listener, error) {
	if n.cfg.ListenAddr == "" {
		return nil, nil
	}

	ln, err := net.Listen("tcp", n.cfg.ListenAddr)
	if err != nil {
		return nil, err
	}

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				spvlog.NodeLog.Debugf("listener closed: %v", err)
				return
			}
			sess := peer.Accept(conn, n.cfg.Params, n)
			n.trackSession(sess)
			go n.runSession(sess)
		}
	}()

	return ln, nil
}

// runSession drives sess to completion and removes it from the
// session table once it exits.
func (n *Node) runSession(sess *peer.Session) {
	if err := sess.Run(); err != nil {
		spvlog.NodeLog.Infof("peer %s disconnected: %v", sess.Addr(), err)
	}
	n.untrackSession(sess)
}

func (n *Node) trackSession(sess *peer.Session) {
	n.sessMu.Lock()
	defer n.sessMu.Unlock()
	n.sessions[sess.Addr()] = sess
}

func (n *Node) untrackSession(sess *peer.Session) {
	n.sessMu.Lock()
	defer n.sessMu.Unlock()
	if n.sessions[sess.Addr()] == sess {
		delete(n.sessions, sess.Addr())
	}
}

// broadcastTx records tx as known to this node and announces it to
// every active session via inv, per spec §4.6: a peer that wants the
// full transaction will follow up with getdata, answered out of the
// node's tx map by ServeGetData.
func (n *Node) broadcastTx(tx *wire.Transaction) {
	n.mtx.Lock()
	n.txs[tx.TxID()] = tx
	n.mtx.Unlock()

	inv := &wire.MsgInv{Items: []wire.InvItem{{Type: wire.InvTx, Hash: tx.TxID()}}}

	n.sessMu.Lock()
	defer n.sessMu.Unlock()
	for _, sess := range n.sessions {
		sess.Send(inv)
	}
}
