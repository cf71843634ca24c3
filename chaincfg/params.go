// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chaincfg defines the network parameters this SPV node operates
// against: the testnet3 defaults plus the fields required to validate
// proof-of-work and derive addresses.
package chaincfg

import (
	"math/big"
	"time"

	"github.com/btcspv/spvnode/wire"
)

// bigOne is 1 represented as a big.Int, defined once to avoid the overhead
// of creating it on every proof-of-work comparison.
var bigOne = big.NewInt(1)

// testNet3PowLimit is the highest proof-of-work value a testnet3 block can
// have. It is the value 2^224 - 1.
var testNet3PowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 224), bigOne)

// DNSSeed identifies a DNS seed.
type DNSSeed struct {
	Host string
}

// Params holds the network parameters this node needs: the magic used to
// frame P2P messages, the default port, the address version bytes, and the
// proof-of-work limit used to validate headers.
type Params struct {
	// Name is a human-readable identifier for the network.
	Name string

	// Net is the magic value placed in every message envelope.
	Net uint32

	// DefaultPort is the default peer-to-peer TCP port.
	DefaultPort string

	// ProtocolVersion is the version number advertised in the version
	// message.
	ProtocolVersion uint32

	// DNSSeeds lists the DNS seed hosts used for peer discovery.
	DNSSeeds []DNSSeed

	// GenesisHash is the hash of the first block of the chain, used to
	// seed a fresh header store.
	GenesisHash wire.Hash

	// PowLimit is the highest allowed proof-of-work value, as a uint256.
	PowLimit *big.Int

	// PowLimitBits is PowLimit in compact ("nBits") form.
	PowLimitBits uint32

	// PubKeyHashAddrID is the version byte prepended to a P2PKH address's
	// hash160 before Base58Check-encoding it.
	PubKeyHashAddrID byte

	// PrivateKeyID is the version byte used for WIF-encoded private keys.
	PrivateKeyID byte

	// ProjectStartDate is the UNIX time below which header bodies
	// (blocks, merkle-blocks) are not fetched. See spec §6
	// "Block-download cutoff".
	ProjectStartDate int64
}

// TestNet3Params are the parameters for the Bitcoin test network (version
// 3), the only network this node connects to.
var TestNet3Params = Params{
	Name:            "testnet3",
	Net:             0x0709110b,
	DefaultPort:     "18333",
	ProtocolVersion: 70015,
	DNSSeeds: []DNSSeed{
		{"testnet-seed.bitcoin.jonasschnelli.ch"},
		{"seed.tbtc.petertodd.org"},
		{"seed.testnet.bitcoin.sprovoost.nl"},
		{"testnet-seed.bluematt.me"},
	},
	GenesisHash:      mustHash("000000000933ea01ad0ee984209779baaec3ced90fa3f408719526f8d77f4943"),
	PowLimit:         testNet3PowLimit,
	PowLimitBits:     0x1d00ffff,
	PubKeyHashAddrID: 0x6f,
	PrivateKeyID:     0xef,
	ProjectStartDate: 1681117200, // 2023-04-10 09:00:00 UTC, per spec §6.
}

func mustHash(s string) wire.Hash {
	h, err := wire.HashFromStr(s)
	if err != nil {
		panic(err)
	}
	return h
}

// ProjectStartTime returns ProjectStartDate as a time.Time for convenience
// at call sites that compare against a header's timestamp.
func (p *Params) ProjectStartTime() time.Time {
	return time.Unix(p.ProjectStartDate, 0).UTC()
}
