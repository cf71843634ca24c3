// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package hashkit gathers the hash primitives this node needs: SHA-256,
// double-SHA-256, RIPEMD-160, Base58Check, and SipHash-2-4. Grounded on the
// teacher's addresses/shell_addresses.go use of chainhash.DoubleHashB and
// base58.Encode/Decode.
package hashkit

import (
	"crypto/sha256"
	"fmt"

	"github.com/aead/siphash"
	"github.com/btcsuite/btcd/btcutil/base58"
	"golang.org/x/crypto/ripemd160"
)

// SHA256 returns the SHA-256 digest of b.
func SHA256(b []byte) [32]byte {
	return sha256.Sum256(b)
}

// DoubleSHA256 returns SHA-256(SHA-256(b)), Bitcoin's standard digest for
// txids, block hashes, and envelope checksums.
func DoubleSHA256(b []byte) [32]byte {
	first := sha256.Sum256(b)
	return sha256.Sum256(first[:])
}

// RIPEMD160 returns the RIPEMD-160 digest of b.
func RIPEMD160(b []byte) [20]byte {
	h := ripemd160.New()
	h.Write(b)
	var out [20]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Hash160 returns RIPEMD-160(SHA-256(b)), the digest used for P2PKH
// public-key hashes.
func Hash160(b []byte) [20]byte {
	sum := sha256.Sum256(b)
	return RIPEMD160(sum[:])
}

// Base58CheckEncode encodes version||payload with an appended 4-byte
// checksum (the first four bytes of double-SHA256(version||payload)).
func Base58CheckEncode(version byte, payload []byte) string {
	buf := make([]byte, 0, 1+len(payload)+4)
	buf = append(buf, version)
	buf = append(buf, payload...)
	checksum := DoubleSHA256(buf)
	buf = append(buf, checksum[:4]...)
	return base58.Encode(buf)
}

// Base58CheckDecode reverses Base58CheckEncode, verifying the checksum.
func Base58CheckDecode(s string) (version byte, payload []byte, err error) {
	decoded := base58.Decode(s)
	if len(decoded) < 5 {
		return 0, nil, fmt.Errorf("base58check: input too short")
	}
	body := decoded[:len(decoded)-4]
	checksum := decoded[len(decoded)-4:]
	expected := DoubleSHA256(body)
	for i := 0; i < 4; i++ {
		if checksum[i] != expected[i] {
			return 0, nil, fmt.Errorf("base58check: checksum mismatch")
		}
	}
	return body[0], body[1:], nil
}

// SipHash24 computes SipHash-2-4 over data using the two 64-bit keys,
// required for compact-block shortid derivation (§4.3, §9).
func SipHash24(k0, k1 uint64, data []byte) uint64 {
	return siphash.Sum64(data, &[16]byte{
		byte(k0), byte(k0 >> 8), byte(k0 >> 16), byte(k0 >> 24),
		byte(k0 >> 32), byte(k0 >> 40), byte(k0 >> 48), byte(k0 >> 56),
		byte(k1), byte(k1 >> 8), byte(k1 >> 16), byte(k1 >> 24),
		byte(k1 >> 32), byte(k1 >> 40), byte(k1 >> 48), byte(k1 >> 56),
	})
}

// ShortTxID derives a compact-block shortid for txid given the block
// header hash and the block-specific nonce, per §9: SHA256(header_hash ‖
// nonce), first 16 bytes split into two little-endian u64 SipHash keys,
// then the low 48 bits of SipHash24(txid) left-padded into 8 bytes.
func ShortTxID(headerHash [32]byte, nonce uint64, txid [32]byte) [8]byte {
	preimage := make([]byte, 0, 40)
	preimage = append(preimage, headerHash[:]...)
	for i := 0; i < 8; i++ {
		preimage = append(preimage, byte(nonce>>(8*i)))
	}
	keyMaterial := SHA256(preimage)

	k0 := leUint64(keyMaterial[0:8])
	k1 := leUint64(keyMaterial[8:16])

	full := SipHash24(k0, k1, txid[:])
	var out [8]byte
	masked := full & 0x0000ffffffffffff
	for i := 0; i < 8; i++ {
		out[i] = byte(masked >> (8 * i))
	}
	return out
}

func leUint64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}
