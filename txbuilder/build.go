// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package txbuilder implements the transaction builder and signer:
// coin selection, unsigned-input assembly, per-input SIGHASH_ALL
// signing, and P2PKH scriptSig assembly. Grounded on the Rust
// original's src/node/wallets/transactions_handler.rs step order
// (select, build unsigned, sign per-input, assemble scriptSig).
package txbuilder

import (
	"sort"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/btcspv/spvnode/spverr"
	"github.com/btcspv/spvnode/txscript"
	"github.com/btcspv/spvnode/walletdb"
	"github.com/btcspv/spvnode/wire"
)

// maxSequence marks an input as final, non-RBF, per spec §4.6.
const maxSequence = 0xffffffff

// Result is a signed transaction together with the UTXO entries it
// consumed, so the caller can remove them from the wallet's owned list
// before broadcast.
type Result struct {
	Transaction *wire.Transaction
	Spent       []walletdb.UTXOEntry
}

// selectCoins sorts entries by ascending value and greedily accumulates
// until the sum covers amount+fee, per spec §4.6 step 1.
func selectCoins(entries []walletdb.UTXOEntry, amount, fee int64) ([]walletdb.UTXOEntry, int64, error) {
	sorted := append([]walletdb.UTXOEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Output.Value < sorted[j].Output.Value
	})

	need := amount + fee
	var sum int64
	var selected []walletdb.UTXOEntry
	for _, e := range sorted {
		selected = append(selected, e)
		sum += e.Output.Value
		if sum >= need {
			return selected, sum - need, nil
		}
	}
	return nil, 0, spverr.ErrInsufficientFunds
}

// Build assembles and signs a P2PKH transaction paying amount to
// recipient from wallet's owned UTXOs, with fee satoshis going to
// miners and the remainder returned to wallet's own address as a
// second, unconditional change output, per spec §4.6 step 3. Locktime
// is always 0.
func Build(w *walletdb.Wallet, recipient *txscript.Address, amount, fee int64) (*Result, error) {
	if amount <= 0 || fee < 0 {
		return nil, spverr.ErrMalformedField
	}

	selected, change, err := selectCoins(w.Owned(), amount, fee)
	if err != nil {
		return nil, err
	}

	tx := &wire.Transaction{Version: 1, LockTime: 0}
	for _, e := range selected {
		tx.TxIn = append(tx.TxIn, &wire.TxIn{
			PreviousOutpoint: e.Outpoint,
			Sequence:         maxSequence,
		})
	}

	recipientScript, err := txscript.PayToAddrScript(recipient)
	if err != nil {
		return nil, err
	}
	tx.TxOut = append(tx.TxOut, &wire.TxOut{Value: amount, PkScript: recipientScript})

	changeScript, err := txscript.PayToAddrScript(w.Address())
	if err != nil {
		return nil, err
	}
	tx.TxOut = append(tx.TxOut, &wire.TxOut{Value: change, PkScript: changeScript})

	for i, e := range selected {
		if err := signInput(tx, i, e.Output.PkScript, w); err != nil {
			return nil, err
		}
	}

	return &Result{Transaction: tx, Spent: selected}, nil
}

// signInput computes the SIGHASH_ALL preimage for input i, signs it
// with w's private key, and assembles the scriptSig, per spec §4.6
// step 4.
func signInput(tx *wire.Transaction, i int, prevScript []byte, w *walletdb.Wallet) error {
	hash, err := txscript.CalcSignatureHash(tx, i, prevScript)
	if err != nil {
		return err
	}

	sig := ecdsa.Sign(w.PrivateKey(), hash[:])
	scriptSig, err := txscript.SignatureScript(sig.Serialize(), w.PublicKey())
	if err != nil {
		return spverr.ErrSigningFailure
	}
	tx.TxIn[i].SignatureScript = scriptSig
	return nil
}
