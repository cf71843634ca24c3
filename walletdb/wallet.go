// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package walletdb

import (
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/btcspv/spvnode/chaincfg"
	"github.com/btcspv/spvnode/txscript"
	"github.com/btcspv/spvnode/wire"
)

// Wallet holds one keypair's derived address and the balances and
// owned outputs currently attributed to it. Ownership is determined
// purely by address match against the UTXO index's projection.
type Wallet struct {
	mu sync.RWMutex

	ID      uint64
	Name    string
	privKey *btcec.PrivateKey
	pubKey  *btcec.PublicKey
	address *txscript.Address

	confirmed int64
	pending   int64
	owned     []UTXOEntry
}

// NewWallet derives a wallet's public key and P2PKH address from a raw
// 32-byte private key.
func NewWallet(id uint64, name string, privKeyBytes []byte, params *chaincfg.Params) (*Wallet, error) {
	priv, pub := btcec.PrivKeyFromBytes(privKeyBytes)
	addr, err := txscript.NewAddressFromPubKey(pub.SerializeCompressed(), params)
	if err != nil {
		return nil, err
	}
	return &Wallet{
		ID:      id,
		Name:    name,
		privKey: priv,
		pubKey:  pub,
		address: addr,
	}, nil
}

// PrivateKey returns the wallet's signing key.
func (w *Wallet) PrivateKey() *btcec.PrivateKey {
	return w.privKey
}

// PublicKey returns the wallet's 33-byte compressed public key.
func (w *Wallet) PublicKey() []byte {
	return w.pubKey.SerializeCompressed()
}

// Address returns the wallet's derived P2PKH address.
func (w *Wallet) Address() *txscript.Address {
	return w.address
}

// Balances returns the confirmed and pending balances, in satoshis.
func (w *Wallet) Balances() (confirmed, pending int64) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.confirmed, w.pending
}

// Owned returns a snapshot of the wallet's currently owned UTXO
// entries.
func (w *Wallet) Owned() []UTXOEntry {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]UTXOEntry, len(w.owned))
	copy(out, w.owned)
	return out
}

// Refresh replaces the wallet's owned list with the UTXO index's
// current address bucket for this wallet and recomputes the confirmed
// balance as the sum of owned values.
func (w *Wallet) Refresh(idx *Index) {
	entries := idx.ByAddress(w.address.String())

	w.mu.Lock()
	defer w.mu.Unlock()
	w.owned = entries
	var sum int64
	for _, e := range entries {
		sum += e.Output.Value
	}
	w.confirmed = sum
}

// ReservePending debits amount from the pending balance ahead of a send,
// per spec §4.6: the debit happens immediately, before broadcast, and
// is exactly amount, so CancelPending(amount) undoes it.
func (w *Wallet) ReservePending(amount int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending -= amount
}

// CancelPending reverses a ReservePending debit, restoring the pending
// balance when a send is aborted before broadcast. Supplements the
// spec: original_source's wallet_handler.rs exposes a cancel path for a
// reservation that never reaches the wire.
func (w *Wallet) CancelPending(amount int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending += amount
}

// SettlePendingIncome reduces the pending balance to reflect newly
// confirmed income, never taking it below zero in absolute terms, per
// spec §4.7.
func (w *Wallet) SettlePendingIncome(amount int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending += amount
	if w.pending > 0 {
		w.pending = 0
	}
}

// RemoveOwned drops entries matching the given outpoints from the
// wallet's owned list immediately after their selection for spending,
// per spec §4.6, ahead of the next index-driven Refresh.
func (w *Wallet) RemoveOwned(spent []wire.Outpoint) {
	spentSet := make(map[wire.Outpoint]bool, len(spent))
	for _, op := range spent {
		spentSet[op] = true
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	kept := w.owned[:0:0]
	for _, e := range w.owned {
		if !spentSet[e.Outpoint] {
			kept = append(kept, e)
		}
	}
	w.owned = kept
}

// Set owns a collection of wallets and tracks which one is active for
// commands that operate on "the" wallet without naming one.
type Set struct {
	mu      sync.RWMutex
	wallets map[uint64]*Wallet
	active  uint64
	nextID  uint64
}

// NewSet returns an empty wallet set.
func NewSet() *Set {
	return &Set{wallets: make(map[uint64]*Wallet)}
}

// Add inserts w and, if it is the first wallet added, makes it active.
func (s *Set) Add(w *Wallet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallets[w.ID] = w
	if len(s.wallets) == 1 {
		s.active = w.ID
	}
	if w.ID >= s.nextID {
		s.nextID = w.ID + 1
	}
}

// NextID returns an unused wallet ID for a newly created wallet.
func (s *Set) NextID() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextID
}

// Get returns the wallet with the given ID.
func (s *Set) Get(id uint64) (*Wallet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wallets[id]
	return w, ok
}

// Active returns the currently selected wallet, if any.
func (s *Set) Active() (*Wallet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wallets[s.active]
	return w, ok
}

// Select makes the wallet with the given ID active.
func (s *Set) Select(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.wallets[id]; !ok {
		return false
	}
	s.active = id
	return true
}

// All returns a snapshot of every wallet in the set.
func (s *Set) All() []*Wallet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Wallet, 0, len(s.wallets))
	for _, w := range s.wallets {
		out = append(out, w)
	}
	return out
}
