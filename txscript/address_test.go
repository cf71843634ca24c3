// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"

	"github.com/btcspv/spvnode/chaincfg"
)

// TestAddressDerivation exercises spec §8 scenario 2: a known private
// key derives a known compressed public key and testnet address.
func TestAddressDerivation(t *testing.T) {
	privBytes, err := hex.DecodeString("5032554e9d661af4e3fe58ef485231358925d39996830dac9eace8cadfbea9cd")
	require.NoError(t, err)

	priv, pub := btcec.PrivKeyFromBytes(privBytes)
	require.NotNil(t, priv)

	wantPub, err := hex.DecodeString("03da2b61a2d639eac016bc256d5dafcd5e5bdb78b7cf87f0c459e865025254bb5a")
	require.NoError(t, err)
	require.Equal(t, wantPub, pub.SerializeCompressed())

	addr, err := NewAddressFromPubKey(pub.SerializeCompressed(), &chaincfg.TestNet3Params)
	require.NoError(t, err)
	require.Equal(t, "mw2DzXinK8KaqunpYgjnGyCYcgHVb3SJWc", addr.String())
}

func TestDecodeAddressRoundTrip(t *testing.T) {
	hash := [20]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20}
	addr, err := NewAddressFromHash160(hash, &chaincfg.TestNet3Params)
	require.NoError(t, err)

	decoded, err := DecodeAddress(addr.String(), &chaincfg.TestNet3Params)
	require.NoError(t, err)
	require.True(t, addr.Equal(decoded))
}

func TestDecodeAddressRejectsWrongVersion(t *testing.T) {
	mainnet := chaincfg.TestNet3Params
	mainnet.PubKeyHashAddrID = 0x00
	hash := [20]byte{}
	addr, err := NewAddressFromHash160(hash, &mainnet)
	require.NoError(t, err)

	_, err = DecodeAddress(addr.String(), &chaincfg.TestNet3Params)
	require.Error(t, err)
}
