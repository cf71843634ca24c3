// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package walletdb

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/btcspv/spvnode/chaincfg"
	"github.com/btcspv/spvnode/txscript"
	"github.com/btcspv/spvnode/wire"
)

func scriptFor(t *testing.T, hash [20]byte) []byte {
	addr, err := txscript.NewAddressFromHash160(hash, &chaincfg.TestNet3Params)
	require.NoError(t, err)
	script, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)
	return script
}

func TestIndexAdmitAndLookup(t *testing.T) {
	idx := NewIndex(&chaincfg.TestNet3Params)
	hash := [20]byte{1}
	tx := &wire.Transaction{
		TxOut: []*wire.TxOut{{Value: 5000, PkScript: scriptFor(t, hash)}},
	}
	idx.AdmitTransaction(tx)

	op := wire.Outpoint{Hash: tx.TxID(), Index: 0}
	out, ok := idx.Lookup(op)
	require.True(t, ok)
	require.Equal(t, int64(5000), out.Value)
}

func TestIndexAdmitIsIdempotent(t *testing.T) {
	idx := NewIndex(&chaincfg.TestNet3Params)
	tx := &wire.Transaction{TxOut: []*wire.TxOut{{Value: 100, PkScript: scriptFor(t, [20]byte{2})}}}
	idx.AdmitTransaction(tx)
	idx.AdmitTransaction(tx)

	addr, err := txscript.NewAddressFromHash160([20]byte{2}, &chaincfg.TestNet3Params)
	require.NoError(t, err)
	require.Len(t, idx.ByAddress(addr.String()), 1)
}

func TestIndexSpendReplacesWithSentinelAtSamePosition(t *testing.T) {
	idx := NewIndex(&chaincfg.TestNet3Params)
	hash := [20]byte{3}
	tx := &wire.Transaction{
		TxOut: []*wire.TxOut{
			{Value: 100, PkScript: scriptFor(t, hash)},
			{Value: 200, PkScript: scriptFor(t, hash)},
		},
	}
	idx.AdmitTransaction(tx)
	op0 := wire.Outpoint{Hash: tx.TxID(), Index: 0}
	idx.Spend(op0)

	_, ok := idx.Lookup(op0)
	require.False(t, ok)

	op1 := wire.Outpoint{Hash: tx.TxID(), Index: 1}
	out1, ok := idx.Lookup(op1)
	require.True(t, ok)
	require.Equal(t, int64(200), out1.Value)
}

func TestIndexByAddressExcludesSpent(t *testing.T) {
	idx := NewIndex(&chaincfg.TestNet3Params)
	hash := [20]byte{4}
	tx := &wire.Transaction{
		TxOut: []*wire.TxOut{
			{Value: 100, PkScript: scriptFor(t, hash)},
			{Value: 200, PkScript: scriptFor(t, hash)},
		},
	}
	idx.AdmitTransaction(tx)
	idx.Spend(wire.Outpoint{Hash: tx.TxID(), Index: 0})

	addr, err := txscript.NewAddressFromHash160(hash, &chaincfg.TestNet3Params)
	require.NoError(t, err)
	entries := idx.ByAddress(addr.String())
	require.Len(t, entries, 1)
	require.Equal(t, int64(200), entries[0].Output.Value)
}

func TestIndexPartitionsTwoAddresses(t *testing.T) {
	idx := NewIndex(&chaincfg.TestNet3Params)
	hashA, hashB := [20]byte{5}, [20]byte{6}
	tx := &wire.Transaction{
		TxOut: []*wire.TxOut{
			{Value: 100, PkScript: scriptFor(t, hashA)},
			{Value: 200, PkScript: scriptFor(t, hashB)},
		},
	}
	idx.AdmitTransaction(tx)

	addrA, err := txscript.NewAddressFromHash160(hashA, &chaincfg.TestNet3Params)
	require.NoError(t, err)
	addrB, err := txscript.NewAddressFromHash160(hashB, &chaincfg.TestNet3Params)
	require.NoError(t, err)

	require.Len(t, idx.ByAddress(addrA.String()), 1)
	require.Len(t, idx.ByAddress(addrB.String()), 1)
	require.NotEqual(t, idx.ByAddress(addrA.String())[0].Output.Value, idx.ByAddress(addrB.String())[0].Output.Value)
}
