// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"github.com/btcspv/spvnode/chaincfg"
	"github.com/btcspv/spvnode/hashkit"
	"github.com/btcspv/spvnode/spverr"
)

// Address is a testnet P2PKH address: a Base58Check encoding of the
// network's PubKeyHashAddrID version byte followed by a 20-byte
// hash160. This node never composes or recovers any other address
// shape.
type Address struct {
	hash   [20]byte
	params *chaincfg.Params
}

// NewAddressFromHash160 builds an Address directly from a 20-byte
// public key hash.
func NewAddressFromHash160(hash [20]byte, params *chaincfg.Params) (*Address, error) {
	return &Address{hash: hash, params: params}, nil
}

// NewAddressFromPubKey derives an Address from a serialized public key
// (compressed or uncompressed) by hash160-ing it.
func NewAddressFromPubKey(pubKey []byte, params *chaincfg.Params) (*Address, error) {
	return NewAddressFromHash160(hashkit.Hash160(pubKey), params)
}

// DecodeAddress parses a Base58Check testnet P2PKH address string.
func DecodeAddress(s string, params *chaincfg.Params) (*Address, error) {
	version, payload, err := hashkit.Base58CheckDecode(s)
	if err != nil {
		return nil, err
	}
	if version != params.PubKeyHashAddrID {
		return nil, spverr.ErrMalformedField
	}
	if len(payload) != 20 {
		return nil, spverr.ErrMalformedField
	}
	var hash [20]byte
	copy(hash[:], payload)
	return NewAddressFromHash160(hash, params)
}

// String returns the Base58Check encoded address.
func (a *Address) String() string {
	return hashkit.Base58CheckEncode(a.params.PubKeyHashAddrID, a.hash[:])
}

// ScriptAddress returns the raw 20-byte public key hash.
func (a *Address) ScriptAddress() []byte {
	return a.hash[:]
}

// Hash160 returns the raw 20-byte public key hash as a fixed array.
func (a *Address) Hash160() [20]byte {
	return a.hash
}

// Equal reports whether two addresses carry the same hash160, ignoring
// which *chaincfg.Params pointer each was built with.
func (a *Address) Equal(other *Address) bool {
	if other == nil {
		return false
	}
	return a.hash == other.hash
}
