// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package node implements the orchestrator: the central struct owning
// chain state, the canonical UTXO index, the wallet set, the
// block/merkle-block fetch queues, and the peer pool. It implements
// peer.Handler so peer sessions can drive it without node importing
// peer's internals beyond that interface. Grounded on the Rust
// original's src/node/bitnode.rs for the set of responsibilities a
// single node-level struct owns, and on the teacher's mempool.TxPool
// (cfg struct plus a guarded map) for the manager shape.
package node

import (
	"sync"

	"github.com/btcspv/spvnode/bridge"
	"github.com/btcspv/spvnode/chaincfg"
	"github.com/btcspv/spvnode/merkle"
	"github.com/btcspv/spvnode/peer"
	"github.com/btcspv/spvnode/spvlog"
	"github.com/btcspv/spvnode/store"
	"github.com/btcspv/spvnode/txscript"
	"github.com/btcspv/spvnode/walletdb"
	"github.com/btcspv/spvnode/wire"
)

// defaultMaxOutboundPeers bounds how many of the discovered seeds this
// node dials concurrently, per spec §5's peer pool.
const defaultMaxOutboundPeers = 8

// Config holds everything the orchestrator needs at construction time.
type Config struct {
	Params  *chaincfg.Params
	Store   *store.Store
	UTXO    *walletdb.Index
	Wallets *walletdb.Set
	Bridge  *bridge.Bridge

	// ListenAddr is the inbound TCP address to accept connections on,
	// e.g. ":18333". Leave empty to disable inbound listening.
	ListenAddr string

	// ClientPeer, if set, is dialed first and ahead of any DNS-
	// discovered seed, per spec §5's "client peer" startup argument.
	ClientPeer string

	// DNS is the seed hostname passed to the discovery resolver.
	DNS string

	// MaxOutboundPeers caps concurrently dialed outbound sessions.
	// Zero means defaultMaxOutboundPeers.
	MaxOutboundPeers int
}

// Node is the orchestrator. One lock per guarded structure: txs/queued
// share a lock since queuing is a side effect of tx/header acceptance,
// and sessions has its own, following the single-lock-per-structure
// discipline used throughout walletdb and store.
type Node struct {
	cfg Config

	mtx        sync.Mutex
	txs        map[wire.Hash]*wire.Transaction
	queued     map[wire.Hash]bool
	blocks     []wire.Hash
	merkles    []wire.Hash
	batchTotal uint64
	batchSeq   uint64

	sessMu   sync.Mutex
	sessions map[string]*peer.Session
}

// New returns an orchestrator ready to Run.
func New(cfg Config) *Node {
	return &Node{
		cfg:      cfg,
		txs:      make(map[wire.Hash]*wire.Transaction),
		queued:   make(map[wire.Hash]bool),
		sessions: make(map[string]*peer.Session),
	}
}

// Tip implements peer.Handler.
func (n *Node) Tip() wire.Hash {
	_, hash, ok := n.cfg.Store.Tip()
	if !ok {
		return n.cfg.Params.GenesisHash
	}
	return hash
}

// AcceptHeaders implements peer.Handler. Each header's proof of work is
// validated (in parallel, via validateHeaders) before any are
// persisted; headers are then appended to the store in order and, for
// those timestamped after the network's project start date, queued for
// merkle-block download per spec §6's block-download cutoff.
func (n *Node) AcceptHeaders(headers []*wire.BlockHeader) error {
	if err := validateHeaders(headers, n.cfg.Params); err != nil {
		return err
	}
	for _, h := range headers {
		if err := n.cfg.Store.PutHeader(*h); err != nil {
			return err
		}
		n.cfg.Bridge.Emit(bridge.HeaderObserved{Header: *h})
		if int64(h.Timestamp) > n.cfg.Params.ProjectStartDate {
			n.enqueueMerkle(h.BlockHash())
		}
	}
	return nil
}

func (n *Node) enqueueMerkle(hash wire.Hash) {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	if n.queued[hash] {
		return
	}
	n.queued[hash] = true
	n.merkles = append(n.merkles, hash)
}

// QueueBlocks implements peer.Handler, draining the current fetch
// queues for whichever session reaches BlockSync first.
func (n *Node) QueueBlocks() (blocks, merkles []wire.Hash) {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	blocks, merkles = n.blocks, n.merkles
	n.blocks = nil
	n.merkles = nil
	n.batchTotal = uint64(len(blocks) + len(merkles))
	n.batchSeq = 0
	return blocks, merkles
}

// AcceptBlock implements peer.Handler: persists the block and applies
// every contained transaction to the UTXO index and wallet set.
func (n *Node) AcceptBlock(blk *wire.Block) error {
	if err := n.cfg.Store.PutBlock(blk); err != nil {
		return err
	}
	for _, tx := range blk.Transactions {
		n.applyTx(tx, true)
	}

	n.mtx.Lock()
	n.batchSeq++
	seq, total := n.batchSeq, n.batchTotal
	n.mtx.Unlock()

	n.cfg.Bridge.Emit(bridge.BlockObserved{SeqID: seq, Block: blk, TotalExpected: total})
	spvlog.NodeLog.Debugf("accepted block %s (%d tx)", blk.BlockHash(), len(blk.Transactions))
	return nil
}

// AcceptMerkleBlock implements peer.Handler: verifies the flag/hash
// walk and persists the merkle-block. The matched txids the walk yields
// are only counted for a debug log line; the tx messages that follow
// on the wire are what actually populate the UTXO index, via AcceptTx.
func (n *Node) AcceptMerkleBlock(mb *wire.MerkleBlock) error {
	matched, err := merkle.MatchedTxids(mb)
	if err != nil {
		return err
	}
	if err := n.cfg.Store.PutMerkleBlock(mb); err != nil {
		return err
	}
	spvlog.NodeLog.Debugf("accepted merkle block %s (%d of %d tx matched)",
		mb.Header.BlockHash(), len(matched), mb.TotalTx)
	return nil
}

// AcceptTx implements peer.Handler: applies an announced or delivered
// transaction to the UTXO index without marking it confirmed.
func (n *Node) AcceptTx(tx *wire.Transaction) {
	n.applyTx(tx, false)
}

// applyTx admits tx's outputs into the UTXO index, marks its inputs'
// previous outputs spent, records it in the node's tx map, refreshes
// every wallet, and reports the observation over the bridge. Per §9's
// decision, the event's displayed timestamp decision is left to the
// bridge consumer; confirmed distinguishes a block-delivered tx from an
// inv-announced one.
func (n *Node) applyTx(tx *wire.Transaction, confirmed bool) {
	n.mtx.Lock()
	n.txs[tx.TxID()] = tx
	n.mtx.Unlock()

	n.cfg.UTXO.AdmitTransaction(tx)
	for _, in := range tx.TxIn {
		n.cfg.UTXO.Spend(in.PreviousOutpoint)
	}

	belongsToUser := false
	for _, w := range n.cfg.Wallets.All() {
		if txTouchesWallet(tx, w, n.cfg.Params) {
			belongsToUser = true
		}
		w.Refresh(n.cfg.UTXO)
	}

	n.cfg.Bridge.Emit(bridge.TransactionObserved{
		Confirmed:     confirmed,
		Transaction:   tx,
		BelongsToUser: belongsToUser,
	})
}

// txTouchesWallet reports whether tx pays to w's address or spends one
// of w's currently owned outputs, checked before w.Refresh runs so the
// spent-outpoint comparison still sees the pre-spend owned list.
func txTouchesWallet(tx *wire.Transaction, w *walletdb.Wallet, params *chaincfg.Params) bool {
	for _, out := range tx.TxOut {
		addr, err := txscript.AddressFromScriptPubKey(out.PkScript, params)
		if err == nil && addr.Equal(w.Address()) {
			return true
		}
	}
	owned := w.Owned()
	for _, in := range tx.TxIn {
		for _, e := range owned {
			if e.Outpoint == in.PreviousOutpoint {
				return true
			}
		}
	}
	return false
}

// KnownTxInv implements peer.Handler, for the Steady-state mempool
// response.
func (n *Node) KnownTxInv() []wire.InvItem {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	items := make([]wire.InvItem, 0, len(n.txs))
	for txid := range n.txs {
		items = append(items, wire.InvItem{Type: wire.InvTx, Hash: txid})
	}
	return items
}

// maxHeadersPerMsg mirrors the protocol limit a headers reply carries,
// per spec §4.2.
const maxHeadersPerMsg = 2000

// ServeGetHeaders implements peer.Handler.
func (n *Node) ServeGetHeaders(locators []wire.Hash, hashStop wire.Hash) []*wire.BlockHeader {
	headers := n.cfg.Store.HeadersAfterAny(locators, maxHeadersPerMsg)
	var zero wire.Hash
	if hashStop == zero {
		return headers
	}
	for i, h := range headers {
		if h.BlockHash() == hashStop {
			return headers[:i+1]
		}
	}
	return headers
}

// ServeGetData implements peer.Handler, resolving inv items against the
// block/merkle-block store and the node's tx map.
func (n *Node) ServeGetData(items []wire.InvItem) (found []wire.Message, notFound []wire.InvItem) {
	for _, it := range items {
		switch it.Type {
		case wire.InvTx:
			n.mtx.Lock()
			tx, ok := n.txs[it.Hash]
			n.mtx.Unlock()
			if !ok {
				notFound = append(notFound, it)
				continue
			}
			found = append(found, &wire.MsgTx{Tx: tx})

		case wire.InvBlock:
			blk, ok := n.cfg.Store.Block(it.Hash)
			if !ok {
				notFound = append(notFound, it)
				continue
			}
			found = append(found, &wire.MsgBlock{Block: blk})

		case wire.InvFilteredBlock:
			mb, ok := n.cfg.Store.MerkleBlock(it.Hash)
			if !ok {
				notFound = append(notFound, it)
				continue
			}
			found = append(found, &wire.MsgMerkleBlock{MerkleBlock: mb})

		default:
			notFound = append(notFound, it)
		}
	}
	return found, notFound
}

// ServeGetBlockTxn implements peer.Handler, answering a compact-block
// follow-up request with the block's transactions at the requested
// indexes. Returns nil if the block is unknown or any index is out of
// range, per spec §4.10.
func (n *Node) ServeGetBlockTxn(blockHash wire.Hash, indexes []uint64) *wire.MsgBlockTxn {
	blk, ok := n.cfg.Store.Block(blockHash)
	if !ok {
		return nil
	}
	txs := make([]*wire.Transaction, 0, len(indexes))
	for _, idx := range indexes {
		if idx >= uint64(len(blk.Transactions)) {
			return nil
		}
		txs = append(txs, blk.Transactions[idx])
	}
	return &wire.MsgBlockTxn{BlockHash: blockHash, Transactions: txs}
}
