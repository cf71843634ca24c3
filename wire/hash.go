// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "encoding/hex"

// Hash is a 32-byte digest stored in display (big-endian) byte order, per
// spec §3. Serializing a Hash onto the wire reverses it to little-endian;
// reading one back reverses it again.
type Hash [32]byte

// String returns the hex-encoded display-order hash, matching the
// convention used by block explorers and this package's own hex literals.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether every byte of h is zero.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// HashFromStr parses a hex string in display order into a Hash.
func HashFromStr(s string) (Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, err
	}
	var h Hash
	if len(b) != 32 {
		return h, errShortHash
	}
	copy(h[:], b)
	return h, nil
}

var errShortHash = hexLenError{}

type hexLenError struct{}

func (hexLenError) Error() string { return "hash must be exactly 32 bytes" }
