// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package walletdb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/btcspv/spvnode/chaincfg"
)

func TestLoadWalletsMissingFileReturnsEmptySet(t *testing.T) {
	set, err := LoadWallets(filepath.Join(t.TempDir(), "missing.txt"), &chaincfg.TestNet3Params)
	require.NoError(t, err)
	require.Empty(t, set.All())
}

func TestSaveThenLoadWalletsRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.txt")

	orig := NewSet()
	priv := testPrivKey(1)
	w, err := NewWallet(1, "primary", priv, &chaincfg.TestNet3Params)
	require.NoError(t, err)
	orig.Add(w)

	require.NoError(t, SaveWallets(path, orig))

	loaded, err := LoadWallets(path, &chaincfg.TestNet3Params)
	require.NoError(t, err)

	got, ok := loaded.Get(1)
	require.True(t, ok)
	require.Equal(t, "primary", got.Name)
	require.Equal(t, w.Address().String(), got.Address().String())
}

func TestLoadWalletsRejectsMalformedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.txt")
	require.NoError(t, os.WriteFile(path, []byte("not-enough-fields\n"), 0600))

	_, err := LoadWallets(path, &chaincfg.TestNet3Params)
	require.Error(t, err)
}
