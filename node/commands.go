// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node

import (
	"encoding/hex"
	"fmt"

	"github.com/btcspv/spvnode/bridge"
	"github.com/btcspv/spvnode/merkle"
	"github.com/btcspv/spvnode/spvlog"
	"github.com/btcspv/spvnode/txbuilder"
	"github.com/btcspv/spvnode/txscript"
	"github.com/btcspv/spvnode/walletdb"
	"github.com/btcspv/spvnode/wire"
)

// runCommands drains cfg.Bridge.Commands until a Close command arrives
// or the channel closes, dispatching each to its handler. Grounded on
// the Rust original's src/node/interface/interface_communicator.rs
// command loop.
func (n *Node) runCommands() {
	for cmd := range n.cfg.Bridge.Commands {
		switch c := cmd.(type) {
		case bridge.SendTransaction:
			n.handleSendTransaction(c)
		case bridge.AddWallet:
			n.handleAddWallet(c)
		case bridge.SelectWallet:
			n.handleSelectWallet(c)
		case bridge.RequestInclusion:
			n.handleRequestInclusion(c)
		case bridge.Close:
			return
		}
	}
}

// handleSendTransaction builds, signs, and broadcasts a payment from
// the active wallet, per spec §4.6. The pending balance is debited
// before the transaction is built so a signature failure inside Build
// has a reservation to cancel, per spec §7's "signature failures cancel
// the transaction." The spent UTXOs are removed from the wallet's local
// owned list immediately once Build succeeds, ahead of confirmation;
// the canonical UTXO index is only updated once the transaction comes
// back over the wire via AcceptTx.
func (n *Node) handleSendTransaction(c bridge.SendTransaction) {
	w, ok := n.cfg.Wallets.Active()
	if !ok {
		spvlog.NodeLog.Errorf("send transaction: no active wallet")
		return
	}

	addr, err := txscript.DecodeAddress(c.Address, n.cfg.Params)
	if err != nil {
		spvlog.NodeLog.Errorf("send transaction: %v", err)
		return
	}

	reserved := c.Amount + c.Fee
	w.ReservePending(reserved)

	result, err := txbuilder.Build(w, addr, c.Amount, c.Fee)
	if err != nil {
		w.CancelPending(reserved)
		spvlog.NodeLog.Errorf("send transaction: %v", err)
		return
	}

	spent := make([]wire.Outpoint, len(result.Spent))
	for i, e := range result.Spent {
		spent[i] = e.Outpoint
	}
	w.RemoveOwned(spent)

	n.broadcastTx(result.Transaction)
	n.cfg.Bridge.Emit(bridge.MyTransactionSent{Transaction: result.Transaction})
}

// handleAddWallet derives a wallet from a raw hex-encoded private key
// and adds it to the wallet set, per spec §4.5.
func (n *Node) handleAddWallet(c bridge.AddWallet) {
	raw, err := hex.DecodeString(c.PrivKeyHex)
	if err != nil {
		spvlog.NodeLog.Errorf("add wallet: %v", err)
		return
	}

	w, err := walletdb.NewWallet(n.cfg.Wallets.NextID(), c.Name, raw, n.cfg.Params)
	if err != nil {
		spvlog.NodeLog.Errorf("add wallet: %v", err)
		return
	}
	w.Refresh(n.cfg.UTXO)
	n.cfg.Wallets.Add(w)

	n.cfg.Bridge.Emit(bridge.WalletCreated{Name: c.Name})
}

// handleSelectWallet makes the named wallet active, per spec §4.5.
func (n *Node) handleSelectWallet(c bridge.SelectWallet) {
	for _, w := range n.cfg.Wallets.All() {
		if w.Name != c.Name {
			continue
		}
		n.cfg.Wallets.Select(w.ID)
		confirmed, pending := w.Balances()
		n.cfg.Bridge.Emit(bridge.WalletSelected{Fields: map[string]string{
			"name":      w.Name,
			"address":   w.Address().String(),
			"confirmed": fmt.Sprintf("%d", confirmed),
			"pending":   fmt.Sprintf("%d", pending),
		}})
		return
	}
	spvlog.NodeLog.Errorf("select wallet: unknown wallet %q", c.Name)
}

// handleRequestInclusion answers whether a transaction is included in
// a block, checked against the merkle-block on file for that block
// hash if one exists, falling back to the full block's transaction
// list, per spec §4.4.
func (n *Node) handleRequestInclusion(c bridge.RequestInclusion) {
	included := false

	if mb, ok := n.cfg.Store.MerkleBlock(c.BlockSelector); ok {
		matched, err := merkle.MatchedTxids(mb)
		if err != nil {
			spvlog.NodeLog.Errorf("request inclusion: %v", err)
		}
		for _, h := range matched {
			if h == c.TxSelector {
				included = true
				break
			}
		}
	} else if blk, ok := n.cfg.Store.Block(c.BlockSelector); ok {
		for _, tx := range blk.Transactions {
			if tx.TxID() == c.TxSelector {
				included = true
				break
			}
		}
	} else {
		spvlog.NodeLog.Errorf("request inclusion: unknown block %s", c.BlockSelector)
	}

	n.cfg.Bridge.Emit(bridge.InclusionResult{Included: included})
}
