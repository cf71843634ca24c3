// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"fmt"
	"io"
	"net"

	"github.com/btcspv/spvnode/spverr"
	"github.com/btcspv/spvnode/wire"
)

// envelopeHeaderLen is magic(4) + command(12) + length(4) + checksum(4).
const envelopeHeaderLen = 24

// readEnvelope reads exactly one framed message off conn: the fixed
// 24-byte header, then its declared payload length.
func readEnvelope(conn net.Conn) (wire.Envelope, error) {
	header := make([]byte, envelopeHeaderLen)
	if _, err := io.ReadFull(conn, header); err != nil {
		return wire.Envelope{}, fmt.Errorf("%w: reading envelope header: %v", spverr.ErrTransportClosed, err)
	}

	length := uint32(header[16]) | uint32(header[17])<<8 | uint32(header[18])<<16 | uint32(header[19])<<24
	full := make([]byte, envelopeHeaderLen+int(length))
	copy(full, header)
	if length > 0 {
		if _, err := io.ReadFull(conn, full[envelopeHeaderLen:]); err != nil {
			return wire.Envelope{}, fmt.Errorf("%w: reading envelope payload: %v", spverr.ErrTransportClosed, err)
		}
	}

	return wire.DecodeEnvelope(wire.NewCursor(full))
}
