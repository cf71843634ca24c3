// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txbuilder

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/btcspv/spvnode/chaincfg"
	"github.com/btcspv/spvnode/txscript"
	"github.com/btcspv/spvnode/walletdb"
	"github.com/btcspv/spvnode/wire"
)

func newTestWallet(t *testing.T, seed byte) *walletdb.Wallet {
	sum := sha256.Sum256([]byte{seed})
	w, err := walletdb.NewWallet(uint64(seed), "w", sum[:], &chaincfg.TestNet3Params)
	require.NoError(t, err)
	return w
}

func fundWallet(t *testing.T, w *walletdb.Wallet, values ...int64) *walletdb.Index {
	idx := walletdb.NewIndex(&chaincfg.TestNet3Params)
	script, err := txscript.PayToAddrScript(w.Address())
	require.NoError(t, err)
	for _, v := range values {
		tx := &wire.Transaction{TxOut: []*wire.TxOut{{Value: v, PkScript: script}}}
		idx.AdmitTransaction(tx)
	}
	w.Refresh(idx)
	return idx
}

func TestBuildProducesChangeOutput(t *testing.T) {
	w := newTestWallet(t, 1)
	fundWallet(t, w, 10000)

	recipient := newTestWallet(t, 2).Address()
	result, err := Build(w, recipient, 3000, 100)
	require.NoError(t, err)

	require.Len(t, result.Transaction.TxOut, 2)
	require.Equal(t, int64(3000), result.Transaction.TxOut[0].Value)
	require.Equal(t, int64(6900), result.Transaction.TxOut[1].Value)
	require.Equal(t, uint32(0), result.Transaction.LockTime)
}

func TestBuildEmitsZeroValueChangeWhenExact(t *testing.T) {
	w := newTestWallet(t, 3)
	fundWallet(t, w, 5000)

	recipient := newTestWallet(t, 4).Address()
	result, err := Build(w, recipient, 4900, 100)
	require.NoError(t, err)
	require.Len(t, result.Transaction.TxOut, 2)
	require.Equal(t, int64(0), result.Transaction.TxOut[1].Value)
}

func TestBuildSelectsAscendingUntilCovered(t *testing.T) {
	w := newTestWallet(t, 5)
	fundWallet(t, w, 1000, 2000, 5000)

	recipient := newTestWallet(t, 6).Address()
	result, err := Build(w, recipient, 2500, 0)
	require.NoError(t, err)
	require.Len(t, result.Spent, 2)
	require.Equal(t, int64(1000), result.Spent[0].Output.Value)
	require.Equal(t, int64(2000), result.Spent[1].Output.Value)
}

func TestBuildSignsEveryInput(t *testing.T) {
	w := newTestWallet(t, 7)
	fundWallet(t, w, 1000, 2000)

	recipient := newTestWallet(t, 8).Address()
	result, err := Build(w, recipient, 2900, 0)
	require.NoError(t, err)
	for _, in := range result.Transaction.TxIn {
		require.NotEmpty(t, in.SignatureScript)
		require.Equal(t, uint32(0xffffffff), in.Sequence)
	}
}

func TestBuildRejectsInsufficientFunds(t *testing.T) {
	w := newTestWallet(t, 9)
	fundWallet(t, w, 100)

	recipient := newTestWallet(t, 10).Address()
	_, err := Build(w, recipient, 10000, 0)
	require.Error(t, err)
}

func TestBuildSignatureRecoversSignerAddress(t *testing.T) {
	w := newTestWallet(t, 11)
	fundWallet(t, w, 5000)

	recipient := newTestWallet(t, 12).Address()
	result, err := Build(w, recipient, 1000, 0)
	require.NoError(t, err)

	addr, err := txscript.AddressFromScriptSig(result.Transaction.TxIn[0].SignatureScript, &chaincfg.TestNet3Params)
	require.NoError(t, err)
	require.True(t, w.Address().Equal(addr))
}
