// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package walletdb implements the UTXO index and wallet set: the
// canonical txid-indexed unspent-output map, its derived
// address-indexed projection, and the wallets that partition it.
// Grounded on the Rust original's src/node/utxo_collector.rs
// (sentinel-replace spent outputs, stable index positions) and
// src/node/wallets/wallet.rs (owned-UTXO partition, confirmed/pending
// balance).
package walletdb

import (
	"sync"

	"github.com/btcspv/spvnode/chaincfg"
	"github.com/btcspv/spvnode/txscript"
	"github.com/btcspv/spvnode/wire"
)

// UTXOEntry pairs an outpoint with its output, the unit the address
// index and a wallet's owned list both deal in.
type UTXOEntry struct {
	Outpoint wire.Outpoint
	Output   *wire.TxOut
}

// Index is the canonical txid -> []TxOut unspent-output map, with its
// derived address -> []UTXOEntry projection. One lock guards both; the
// projection is never mutated independently of the canonical map, per
// the single-lock-per-structure discipline this node uses everywhere.
type Index struct {
	mu      sync.RWMutex
	byTxID  map[wire.Hash][]*wire.TxOut
	byAddr  map[string][]UTXOEntry
	params  *chaincfg.Params
}

// NewIndex returns an empty UTXO index for the given network.
func NewIndex(params *chaincfg.Params) *Index {
	return &Index{
		byTxID: make(map[wire.Hash][]*wire.TxOut),
		byAddr: make(map[string][]UTXOEntry),
		params: params,
	}
}

// AdmitTransaction records tx's outputs in the canonical map under its
// txid, unless an entry already exists for that txid (admission is
// idempotent: a transaction observed in two blocks or re-announced by
// two peers is only admitted once).
func (idx *Index) AdmitTransaction(tx *wire.Transaction) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	txid := tx.TxID()
	if _, exists := idx.byTxID[txid]; exists {
		return
	}
	outs := make([]*wire.TxOut, len(tx.TxOut))
	copy(outs, tx.TxOut)
	idx.byTxID[txid] = outs
	idx.rebuildAddressIndexLocked()
}

// Spend sentinel-replaces the output at op with a zero-value
// empty-script TxOut, preserving its index position. A no-op if the
// txid is unknown or the position is already spent.
func (idx *Index) Spend(op wire.Outpoint) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	outs, ok := idx.byTxID[op.Hash]
	if !ok || int(op.Index) >= len(outs) {
		return
	}
	outs[op.Index] = wire.SentinelTxOut()
	idx.rebuildAddressIndexLocked()
}

// Lookup returns the TxOut at op and whether it is present and unspent.
func (idx *Index) Lookup(op wire.Outpoint) (*wire.TxOut, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	outs, ok := idx.byTxID[op.Hash]
	if !ok || int(op.Index) >= len(outs) {
		return nil, false
	}
	out := outs[op.Index]
	if out.IsSentinel() {
		return nil, false
	}
	return out, true
}

// ByAddress returns the unspent entries currently attributed to addr's
// Base58Check string.
func (idx *Index) ByAddress(addr string) []UTXOEntry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	entries := idx.byAddr[addr]
	out := make([]UTXOEntry, len(entries))
	copy(out, entries)
	return out
}

// rebuildAddressIndexLocked recomputes the address projection from the
// canonical map. Called with idx.mu held. This is a pure, full rebuild
// rather than an incremental patch — the canonical map is the single
// source of truth and the projection is cheap to regenerate at node
// scale.
func (idx *Index) rebuildAddressIndexLocked() {
	byAddr := make(map[string][]UTXOEntry)
	seen := make(map[string]map[wire.Outpoint]bool)

	for txid, outs := range idx.byTxID {
		for i, out := range outs {
			if out.IsSentinel() {
				continue
			}
			addr, err := txscript.AddressFromScriptPubKey(out.PkScript, idx.params)
			if err != nil {
				continue
			}
			key := addr.String()
			op := wire.Outpoint{Hash: txid, Index: uint32(i)}
			if seen[key] == nil {
				seen[key] = make(map[wire.Outpoint]bool)
			}
			if seen[key][op] {
				continue
			}
			seen[key][op] = true
			byAddr[key] = append(byAddr[key], UTXOEntry{Outpoint: op, Output: out})
		}
	}
	idx.byAddr = byAddr
}
