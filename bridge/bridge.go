// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package bridge implements the interface bridge: a bidirectional
// tagged event/command channel between the node orchestrator and a
// user interface. Grounded on the Rust original's
// src/node/interface/interface_communicator.rs (bidirectional typed
// channel) and src/interface/interface_handler.rs. Pure Go channels;
// the GUI toolkit itself is out of scope.
package bridge

import (
	"github.com/btcspv/spvnode/wire"
)

// Event is something the orchestrator reports to the UI.
type Event interface {
	eventMarker()
}

// Command is something the UI asks the orchestrator to do.
type Command interface {
	commandMarker()
}

// HeaderObserved reports a newly accepted header.
type HeaderObserved struct {
	Header wire.BlockHeader
}

// BlockObserved reports a downloaded block, its sequence number within
// the current batch, and how many blocks that batch expects in total.
type BlockObserved struct {
	SeqID         uint64
	Block         *wire.Block
	TotalExpected uint64
}

// TransactionObserved reports a transaction the node has seen, whether
// it is confirmed, and whether it belongs to one of the node's own
// wallets.
type TransactionObserved struct {
	Confirmed    bool
	Transaction  *wire.Transaction
	BelongsToUser bool
}

// MyTransactionSent reports a transaction this node itself built,
// signed, and broadcast.
type MyTransactionSent struct {
	Transaction *wire.Transaction
}

// WalletCreated reports a new wallet's display name.
type WalletCreated struct {
	Name string
}

// WalletSelected reports the newly active wallet's display fields.
type WalletSelected struct {
	Fields map[string]string
}

// InclusionResult reports the outcome of a RequestInclusion command.
type InclusionResult struct {
	Included bool
}

// Opened reports the wallet set available right after startup.
type Opened struct {
	WalletNames []string
	Fields      map[string]string
}

func (HeaderObserved) eventMarker()      {}
func (BlockObserved) eventMarker()       {}
func (TransactionObserved) eventMarker() {}
func (MyTransactionSent) eventMarker()   {}
func (WalletCreated) eventMarker()       {}
func (WalletSelected) eventMarker()      {}
func (InclusionResult) eventMarker()     {}
func (Opened) eventMarker()              {}

// SendTransaction asks the orchestrator to build, sign, and broadcast a
// payment from the active wallet.
type SendTransaction struct {
	Address string
	Label   string
	Amount  int64
	Fee     int64
}

// AddWallet asks the orchestrator to create a wallet from a raw private
// key.
type AddWallet struct {
	Name          string
	PrivKeyHex    string
}

// SelectWallet asks the orchestrator to make the named wallet active.
type SelectWallet struct {
	Name string
}

// RequestInclusion asks the orchestrator to verify a transaction's
// inclusion in a block via a merkle proof.
type RequestInclusion struct {
	BlockSelector wire.Hash
	TxSelector    wire.Hash
}

// Close asks the orchestrator to shut down.
type Close struct{}

func (SendTransaction) commandMarker()  {}
func (AddWallet) commandMarker()        {}
func (SelectWallet) commandMarker()     {}
func (RequestInclusion) commandMarker() {}
func (Close) commandMarker()            {}

// Bridge is the bidirectional channel pair linking the orchestrator and
// a UI. Events and Commands are buffered with the capacities given to
// New; the orchestrator is expected to drain Commands promptly so that every
// UI-initiated action completes with an Event, per spec §7's
// never-silently-hang requirement.
type Bridge struct {
	Events   chan Event
	Commands chan Command
}

// New returns a Bridge with the given channel capacities.
func New(eventBuf, commandBuf int) *Bridge {
	return &Bridge{
		Events:   make(chan Event, eventBuf),
		Commands: make(chan Command, commandBuf),
	}
}

// Emit sends an event to the UI side. Safe to call from any goroutine;
// if the UI is not draining events this blocks once the buffer is full,
// which is intentional —
// the orchestrator must not silently drop a user-visible outcome.
func (b *Bridge) Emit(e Event) {
	b.Events <- e
}

// Send delivers a command from the UI side to the orchestrator.
func (b *Bridge) Send(c Command) {
	b.Commands <- c
}

// Close closes both channels. Callers must ensure no further Emit/Send
// calls occur afterward.
func (b *Bridge) Close() {
	close(b.Events)
	close(b.Commands)
}
