// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/btcspv/spvnode/bridge"
	"github.com/btcspv/spvnode/txscript"
	"github.com/btcspv/spvnode/walletdb"
	"github.com/btcspv/spvnode/wire"
)

func testWallet(t *testing.T, n *Node, seed byte) *walletdb.Wallet {
	t.Helper()
	sum := sha256.Sum256([]byte{seed})
	w, err := walletdb.NewWallet(n.cfg.Wallets.NextID(), "w", sum[:], n.cfg.Params)
	require.NoError(t, err)
	n.cfg.Wallets.Add(w)
	return w
}

func fundWallet(t *testing.T, n *Node, w *walletdb.Wallet, values ...int64) {
	t.Helper()
	script, err := txscript.PayToAddrScript(w.Address())
	require.NoError(t, err)
	for _, v := range values {
		tx := &wire.Transaction{TxOut: []*wire.TxOut{{Value: v, PkScript: script}}}
		n.cfg.UTXO.AdmitTransaction(tx)
	}
	w.Refresh(n.cfg.UTXO)
}

func TestHandleSendTransactionDebitsPendingAndBroadcasts(t *testing.T) {
	n := testNode(t)
	w := testWallet(t, n, 1)
	fundWallet(t, n, w, 10000)

	recipient := testWallet(t, n, 2)

	n.handleSendTransaction(bridge.SendTransaction{
		Address: recipient.Address().String(),
		Amount:  3000,
		Fee:     100,
	})

	_, pending := w.Balances()
	require.Equal(t, int64(-3100), pending)
	require.Len(t, w.Owned(), 0)
}

func TestHandleSendTransactionCancelsPendingOnBuildFailure(t *testing.T) {
	n := testNode(t)
	w := testWallet(t, n, 3)
	fundWallet(t, n, w, 100)

	recipient := testWallet(t, n, 4)

	n.handleSendTransaction(bridge.SendTransaction{
		Address: recipient.Address().String(),
		Amount:  10000,
		Fee:     0,
	})

	_, pending := w.Balances()
	require.Equal(t, int64(0), pending)
}
