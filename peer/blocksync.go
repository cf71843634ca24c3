// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"github.com/btcspv/spvnode/wire"
)

// getDataBatch bounds how many outstanding items this session requests
// at a time, mirroring the cap a real peer enforces on getdata.
const getDataBatch = 50

// blockSync implements spec §4.9's BlockSync phase: load a zero filter
// so merkle blocks carry every transaction, then pump getdata for the
// handler's queued blocks and merkle-blocks until both drain.
func (s *Session) blockSync(inbound <-chan wire.Message, readerErr <-chan error) error {
	if len(s.blockQueue) == 0 && len(s.merkleQueue) == 0 {
		return nil
	}

	s.send(wire.ZeroFilterLoad())

	outstanding := make(map[wire.Hash]wire.InvType)
	for len(s.blockQueue) > 0 || len(s.merkleQueue) > 0 || len(outstanding) > 0 {
		var items []wire.InvItem
		for len(outstanding) < getDataBatch && len(s.merkleQueue) > 0 {
			h := s.merkleQueue[0]
			s.merkleQueue = s.merkleQueue[1:]
			items = append(items, wire.InvItem{Type: wire.InvFilteredBlock, Hash: h})
			outstanding[h] = wire.InvFilteredBlock
		}
		for len(outstanding) < getDataBatch && len(s.blockQueue) > 0 {
			h := s.blockQueue[0]
			s.blockQueue = s.blockQueue[1:]
			items = append(items, wire.InvItem{Type: wire.InvBlock, Hash: h})
			outstanding[h] = wire.InvBlock
		}
		if len(items) > 0 {
			s.send(&wire.MsgGetData{Items: items})
		}

		if len(outstanding) == 0 {
			return nil
		}

		// Drain outstanding requests one message at a time; the
		// predicate reports done once every item in this batch has
		// been satisfied, handing control back to refill the batch.
		err := s.waitFor(inbound, readerErr, func(msg wire.Message) (bool, error) {
			switch m := msg.(type) {
			case *wire.MsgBlock:
				hash := m.Block.BlockHash()
				if _, ok := outstanding[hash]; ok {
					if err := s.handler.AcceptBlock(m.Block); err != nil {
						return false, err
					}
					delete(outstanding, hash)
				}
			case *wire.MsgMerkleBlock:
				hash := m.MerkleBlock.Header.BlockHash()
				if _, ok := outstanding[hash]; ok {
					if err := s.handler.AcceptMerkleBlock(m.MerkleBlock); err != nil {
						return false, err
					}
					delete(outstanding, hash)
				}
			case *wire.MsgNotFound:
				for _, it := range m.Items {
					delete(outstanding, it.Hash)
				}
			case *wire.MsgTx:
				s.handler.AcceptTx(m.Tx)
			}
			return len(outstanding) == 0, nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}
