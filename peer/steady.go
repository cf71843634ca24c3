// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"github.com/btcspv/spvnode/wire"
)

// steady implements spec §4.9's Steady state: the session sits in this
// state for the remainder of its life, answering the peer's requests
// and relaying transaction announcements to the handler. It returns
// only on a reader/writer error, cancellation, or a headers batch the
// handler rejects.
func (s *Session) steady(inbound <-chan wire.Message, readerErr <-chan error) error {
	s.send(&wire.MsgMempool{})

	return s.waitFor(inbound, readerErr, func(msg wire.Message) (bool, error) {
		switch m := msg.(type) {
		case *wire.MsgPing:
			s.send(&wire.MsgPong{Nonce: m.Nonce})

		case *wire.MsgGetHeaders:
			headers := s.handler.ServeGetHeaders(m.BlockLocators, m.HashStop)
			s.send(&wire.MsgHeaders{Headers: headers})

		case *wire.MsgGetData:
			found, notFound := s.handler.ServeGetData(m.Items)
			for _, f := range found {
				s.send(f)
			}
			if len(notFound) > 0 {
				s.send(&wire.MsgNotFound{Items: notFound})
			}

		case *wire.MsgInv:
			var want []wire.InvItem
			for _, it := range m.Items {
				if it.Type != wire.InvTx {
					continue
				}
				if s.seenInv.Contains(it.Hash) {
					continue
				}
				s.seenInv.Put(it.Hash)
				want = append(want, it)
			}
			if len(want) > 0 {
				s.send(&wire.MsgGetData{Items: want})
			}

		case *wire.MsgTx:
			s.handler.AcceptTx(m.Tx)

		case *wire.MsgHeaders:
			if err := s.handler.AcceptHeaders(m.Headers); err != nil {
				return false, err
			}

		case *wire.MsgGetBlockTxn:
			if resp := s.handler.ServeGetBlockTxn(m.BlockHash, m.Indexes); resp != nil {
				s.send(resp)
			}

		case *wire.MsgGetAddr:
			s.send(&wire.MsgAddr{})
		}

		return false, nil
	})
}
