// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"github.com/btcspv/spvnode/wire"
)

// headerSync implements spec §4.9's HeaderSync phase: request headers
// from the current tip, validate and append each batch, and keep
// requesting while a batch comes back full (>= 2000 headers).
func (s *Session) headerSync(inbound <-chan wire.Message, readerErr <-chan error) error {
	tip := s.handler.Tip()
	for {
		s.send(&wire.MsgGetHeaders{
			ProtocolVersion: s.params.ProtocolVersion,
			BlockLocators:   []wire.Hash{tip},
			HashStop:        tip,
		})

		var headers []*wire.BlockHeader
		done := false
		err := s.waitFor(inbound, readerErr, func(msg wire.Message) (bool, error) {
			h, ok := msg.(*wire.MsgHeaders)
			if !ok {
				return false, nil
			}
			headers = h.Headers
			done = true
			return true, nil
		})
		if err != nil {
			return err
		}
		if !done {
			continue
		}

		if err := s.handler.AcceptHeaders(headers); err != nil {
			return err
		}
		if len(headers) > 0 {
			tip = headers[len(headers)-1].BlockHash()
		}
		if len(headers) < headersPerGetheaders {
			return nil
		}
	}
}
