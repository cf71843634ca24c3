// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "net"

// NetAddress is the services/address/port triple embedded in version and
// addr messages. Port is big-endian on the wire, unlike every other
// integer field in this protocol.
type NetAddress struct {
	Timestamp uint32 // absent from the version message's embedded addresses
	Services  uint64
	IP        net.IP
	Port      uint16
}

func (na *NetAddress) serializeNoTime(buf []byte) []byte {
	buf = PutUint64LE(buf, na.Services)
	var ip16 [16]byte
	ip4 := na.IP.To4()
	if ip4 != nil {
		copy(ip16[:], []byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0xff, 0xff})
		copy(ip16[12:], ip4)
	} else if ip6 := na.IP.To16(); ip6 != nil {
		copy(ip16[:], ip6)
	}
	buf = append(buf, ip16[:]...)
	return PutUint16BE(buf, na.Port)
}

func decodeNetAddressNoTime(c *Cursor) (*NetAddress, error) {
	na := &NetAddress{}
	var err error
	if na.Services, err = c.ReadUint64LE(); err != nil {
		return nil, err
	}
	ipBytes, err := c.Next(16)
	if err != nil {
		return nil, err
	}
	na.IP = net.IP(append([]byte(nil), ipBytes...))
	if na.Port, err = c.ReadUint16BE(); err != nil {
		return nil, err
	}
	return na, nil
}

func (na *NetAddress) serializeWithTime(buf []byte) []byte {
	buf = PutUint32LE(buf, na.Timestamp)
	return na.serializeNoTime(buf)
}

func decodeNetAddressWithTime(c *Cursor) (*NetAddress, error) {
	ts, err := c.ReadUint32LE()
	if err != nil {
		return nil, err
	}
	na, err := decodeNetAddressNoTime(c)
	if err != nil {
		return nil, err
	}
	na.Timestamp = ts
	return na, nil
}
