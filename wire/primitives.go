// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wire implements byte-exact serialization and deserialization of
// the Bitcoin testnet P2P messages this node speaks: the envelope
// (magic/command/length/checksum) and the ~25 message bodies listed in the
// specification. Decoding is destructive on a mutable Cursor: every
// primitive advances the cursor by exactly the bytes it consumed, with no
// backtracking.
package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/btcspv/spvnode/spverr"
)

// Cursor is an immutable byte slice with a read position. It is the
// decode-side counterpart of the append-only encode helpers below.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor returns a Cursor over buf starting at position 0.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.pos
}

// Pos returns the current read offset.
func (c *Cursor) Pos() int {
	return c.pos
}

// Next consumes and returns the next n bytes, advancing the cursor. It
// returns spverr.ErrShortBuffer if fewer than n bytes remain.
func (c *Cursor) Next(n int) ([]byte, error) {
	if n < 0 || c.Remaining() < n {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", spverr.ErrShortBuffer, n, c.Remaining())
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// ReadUint8 consumes one byte.
func (c *Cursor) ReadUint8() (uint8, error) {
	b, err := c.Next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadUint16LE consumes a little-endian uint16.
func (c *Cursor) ReadUint16LE() (uint16, error) {
	b, err := c.Next(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadUint32LE consumes a little-endian uint32.
func (c *Cursor) ReadUint32LE() (uint32, error) {
	b, err := c.Next(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadUint64LE consumes a little-endian uint64.
func (c *Cursor) ReadUint64LE() (uint64, error) {
	b, err := c.Next(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadInt32LE consumes a little-endian signed int32.
func (c *Cursor) ReadInt32LE() (int32, error) {
	v, err := c.ReadUint32LE()
	return int32(v), err
}

// ReadInt64LE consumes a little-endian signed int64.
func (c *Cursor) ReadInt64LE() (int64, error) {
	v, err := c.ReadUint64LE()
	return int64(v), err
}

// ReadUint16BE consumes a big-endian uint16, used for the port field inside
// a NetAddress.
func (c *Cursor) ReadUint16BE() (uint16, error) {
	b, err := c.Next(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// ReadHash consumes 32 bytes verbatim, in wire (little-endian) order.
func (c *Cursor) ReadHash() (Hash, error) {
	var h Hash
	b, err := c.Next(32)
	if err != nil {
		return h, err
	}
	copy(h[:], b)
	return h, nil
}

// ReadHashReversed consumes 32 bytes in wire order and returns them flipped
// to display (big-endian) order, per spec §3's storage convention for
// txids and block hashes.
func (c *Cursor) ReadHashReversed() (Hash, error) {
	h, err := c.ReadHash()
	if err != nil {
		return h, err
	}
	return Reverse32(h), nil
}

// ReadCompactSize decodes Bitcoin's variable-length unsigned integer. A
// non-minimal encoding (a multi-byte tag used where the single-byte form
// would have sufficed) is rejected as spverr.ErrMalformedField.
func (c *Cursor) ReadCompactSize() (CompactSize, error) {
	tag, err := c.ReadUint8()
	if err != nil {
		return CompactSize{}, err
	}
	switch {
	case tag < 0xfd:
		return CompactSize{Value: uint64(tag), raw: []byte{tag}}, nil
	case tag == 0xfd:
		v, err := c.ReadUint16LE()
		if err != nil {
			return CompactSize{}, err
		}
		if v < 0xfd {
			return CompactSize{}, fmt.Errorf("%w: non-minimal CompactSize", spverr.ErrMalformedField)
		}
		return CompactSize{Value: uint64(v), raw: encodeTag(0xfd, uint64(v), 2)}, nil
	case tag == 0xfe:
		v, err := c.ReadUint32LE()
		if err != nil {
			return CompactSize{}, err
		}
		if v <= 0xffff {
			return CompactSize{}, fmt.Errorf("%w: non-minimal CompactSize", spverr.ErrMalformedField)
		}
		return CompactSize{Value: uint64(v), raw: encodeTag(0xfe, uint64(v), 4)}, nil
	default: // 0xff
		v, err := c.ReadUint64LE()
		if err != nil {
			return CompactSize{}, err
		}
		if v <= 0xffffffff {
			return CompactSize{}, fmt.Errorf("%w: non-minimal CompactSize", spverr.ErrMalformedField)
		}
		return CompactSize{Value: v, raw: encodeTag(0xff, v, 8)}, nil
	}
}

// ReadVarBytes reads a CompactSize-prefixed byte string.
func (c *Cursor) ReadVarBytes() ([]byte, error) {
	cs, err := c.ReadCompactSize()
	if err != nil {
		return nil, err
	}
	return c.Next(int(cs.Value))
}

// ReadVarString reads a CompactSize-prefixed ASCII/UTF-8 string, used for
// the version message's user-agent field.
func (c *Cursor) ReadVarString() (string, error) {
	b, err := c.ReadVarBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CompactSize carries both the numeric value and its canonical on-wire byte
// form, so re-encoding a decoded value reproduces the original bytes.
type CompactSize struct {
	Value uint64
	raw   []byte
}

// NewCompactSize builds a CompactSize from a value, selecting the minimal
// on-wire width.
func NewCompactSize(v uint64) CompactSize {
	switch {
	case v < 0xfd:
		return CompactSize{Value: v, raw: []byte{byte(v)}}
	case v <= 0xffff:
		return CompactSize{Value: v, raw: encodeTag(0xfd, v, 2)}
	case v <= 0xffffffff:
		return CompactSize{Value: v, raw: encodeTag(0xfe, v, 4)}
	default:
		return CompactSize{Value: v, raw: encodeTag(0xff, v, 8)}
	}
}

func encodeTag(tag byte, v uint64, width int) []byte {
	buf := make([]byte, 1+width)
	buf[0] = tag
	switch width {
	case 2:
		binary.LittleEndian.PutUint16(buf[1:], uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(buf[1:], uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(buf[1:], v)
	}
	return buf
}

// Bytes returns the canonical on-wire encoding.
func (cs CompactSize) Bytes() []byte {
	if cs.raw == nil {
		return NewCompactSize(cs.Value).raw
	}
	return cs.raw
}

// Reverse32 flips a 32-byte hash's byte orientation, used both to convert a
// wire-order hash into display order and back.
func Reverse32(h Hash) Hash {
	var out Hash
	for i := 0; i < 32; i++ {
		out[i] = h[31-i]
	}
	return out
}

// --- Encoding helpers: these append to a growing byte slice. ---

// PutUint8 appends a single byte.
func PutUint8(buf []byte, v uint8) []byte {
	return append(buf, v)
}

// PutUint16LE appends a little-endian uint16.
func PutUint16LE(buf []byte, v uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return append(buf, b[:]...)
}

// PutUint32LE appends a little-endian uint32.
func PutUint32LE(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

// PutUint64LE appends a little-endian uint64.
func PutUint64LE(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

// PutInt32LE appends a little-endian signed int32.
func PutInt32LE(buf []byte, v int32) []byte {
	return PutUint32LE(buf, uint32(v))
}

// PutInt64LE appends a little-endian signed int64.
func PutInt64LE(buf []byte, v int64) []byte {
	return PutUint64LE(buf, uint64(v))
}

// PutUint16BE appends a big-endian uint16, used for NetAddress ports.
func PutUint16BE(buf []byte, v uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return append(buf, b[:]...)
}

// PutHash appends a 32-byte hash verbatim (wire order).
func PutHash(buf []byte, h Hash) []byte {
	return append(buf, h[:]...)
}

// PutHashReversed appends a display-order hash flipped to wire order.
func PutHashReversed(buf []byte, h Hash) []byte {
	return PutHash(buf, Reverse32(h))
}

// PutCompactSize appends cs's canonical bytes.
func PutCompactSize(buf []byte, cs CompactSize) []byte {
	return append(buf, cs.Bytes()...)
}

// PutVarBytes appends a CompactSize-prefixed byte string.
func PutVarBytes(buf []byte, b []byte) []byte {
	buf = PutCompactSize(buf, NewCompactSize(uint64(len(b))))
	return append(buf, b...)
}

// PutVarString appends a CompactSize-prefixed string.
func PutVarString(buf []byte, s string) []byte {
	return PutVarBytes(buf, []byte(s))
}
