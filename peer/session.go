// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package peer implements the peer session state machine: Connecting,
// Handshaking, HeaderSync, BlockSync, Steady, Closing. Grounded on the
// Rust original's src/node/connection_manager/peers_connection.rs for
// the state-transition shape and the teacher's goroutine-per-role
// pattern.
package peer

import (
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/decred/dcrd/container/lru"

	"github.com/btcspv/spvnode/chaincfg"
	"github.com/btcspv/spvnode/spverr"
	"github.com/btcspv/spvnode/spvlog"
	"github.com/btcspv/spvnode/wire"
)

// State is one stage of a peer session's lifecycle.
type State int

const (
	Connecting State = iota
	Handshaking
	HeaderSync
	BlockSync
	Steady
	Closing
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "Connecting"
	case Handshaking:
		return "Handshaking"
	case HeaderSync:
		return "HeaderSync"
	case BlockSync:
		return "BlockSync"
	case Steady:
		return "Steady"
	case Closing:
		return "Closing"
	default:
		return "Unknown"
	}
}

// headersPerGetheaders is the protocol maximum a headers reply carries;
// receiving fewer than this marks the end of header sync.
const headersPerGetheaders = 2000

// Handler is the set of callbacks a Session needs from the node
// orchestrator to make progress without importing it directly (node
// imports peer, not the other way around).
type Handler interface {
	// Tip returns the current best known header hash to locate from.
	Tip() wire.Hash
	// AcceptHeaders validates and appends a batch of headers, returning
	// an error if any fails PoW.
	AcceptHeaders(headers []*wire.BlockHeader) error
	// QueueBlocks returns the hashes of blocks and merkle-blocks this
	// session should fetch once it reaches BlockSync, in order.
	QueueBlocks() (blocks, merkles []wire.Hash)
	// AcceptBlock records a downloaded block.
	AcceptBlock(blk *wire.Block) error
	// AcceptMerkleBlock records a downloaded merkle block.
	AcceptMerkleBlock(mb *wire.MerkleBlock) error
	// AcceptTx records an announced or delivered transaction.
	AcceptTx(tx *wire.Transaction)
	// KnownTxInv returns inv items for transactions this node already
	// holds, for the Steady-state mempool response.
	KnownTxInv() []wire.InvItem
	// ServeGetHeaders returns up to 2000 headers starting after the
	// matching locator hash furthest along the chain.
	ServeGetHeaders(locators []wire.Hash, hashStop wire.Hash) []*wire.BlockHeader
	// ServeGetData resolves a batch of inventory requests to wire
	// messages, plus the subset not found.
	ServeGetData(items []wire.InvItem) (found []wire.Message, notFound []wire.InvItem)
	// ServeGetBlockTxn returns the subset of a known block's
	// transactions at the requested indexes.
	ServeGetBlockTxn(blockHash wire.Hash, indexes []uint64) *wire.MsgBlockTxn
}

// Session is one peer connection and its state machine.
type Session struct {
	conn    net.Conn
	addr    string
	state   State
	params  *chaincfg.Params
	handler Handler
	trace   *spvlog.PeerTrace

	cancel int32 // atomic bool

	outbound chan wire.Message

	blockQueue  []wire.Hash
	merkleQueue []wire.Hash

	seenInv *lru.Set[wire.Hash]

	gotVersion bool
	gotVerAck  bool
}

// Dial opens an outbound TCP connection to addr and returns a Session
// in the Connecting state.
func Dial(addr string, params *chaincfg.Params, handler Handler) (*Session, error) {
	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("%w: dialing %s: %v", spverr.ErrTransportClosed, addr, err)
	}
	return newSession(conn, addr, params, handler), nil
}

// Accept wraps an already-accepted inbound connection in a Session.
func Accept(conn net.Conn, params *chaincfg.Params, handler Handler) *Session {
	return newSession(conn, conn.RemoteAddr().String(), params, handler)
}

func newSession(conn net.Conn, addr string, params *chaincfg.Params, handler Handler) *Session {
	return &Session{
		conn:     conn,
		addr:     addr,
		state:    Connecting,
		params:   params,
		handler:  handler,
		trace:    spvlog.NewPeerTrace(addr),
		outbound: make(chan wire.Message, 64),
		seenInv:  lru.NewSet[wire.Hash](5000),
	}
}

// Cancel sets the cooperative cancellation flag, checked at the top of
// every suspension point in the reader and writer loops.
func (s *Session) Cancel() {
	atomic.StoreInt32(&s.cancel, 1)
}

func (s *Session) cancelled() bool {
	return atomic.LoadInt32(&s.cancel) != 0
}

// Addr returns the remote peer's address.
func (s *Session) Addr() string {
	return s.addr
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Run drives the session through its full lifecycle: handshake, header
// sync, block sync, and steady state, until cancelled or an
// unrecoverable error occurs. The reader and writer each own one
// goroutine communicating over outbound and an internal inbound
// channel; Run itself is the state-machine goroutine.
func (s *Session) Run() error {
	inbound := make(chan wire.Message, 64)
	readerErr := make(chan error, 1)
	writerErr := make(chan error, 1)

	go s.readLoop(inbound, readerErr)
	go s.writeLoop(writerErr)

	// A writer failure closes the connection, which fails the reader and
	// so ends whichever phase is waiting on readerErr.
	go func() {
		if err := <-writerErr; err != nil {
			s.conn.Close()
		}
	}()

	defer func() {
		s.state = Closing
		s.conn.Close()
	}()

	s.state = Handshaking
	if err := s.handshake(inbound, readerErr); err != nil {
		return err
	}

	s.state = HeaderSync
	if err := s.headerSync(inbound, readerErr); err != nil {
		return err
	}

	s.state = BlockSync
	s.blockQueue, s.merkleQueue = s.handler.QueueBlocks()
	if err := s.blockSync(inbound, readerErr); err != nil {
		return err
	}

	s.state = Steady
	return s.steady(inbound, readerErr)
}

// Send queues msg for delivery to the peer. Exported for the node
// orchestrator to announce locally originated data (e.g. a freshly
// broadcast transaction) on an already-Steady session.
func (s *Session) Send(msg wire.Message) {
	s.send(msg)
}

func (s *Session) send(msg wire.Message) {
	s.trace.Outbound(msg.Command(), msg)
	s.outbound <- msg
}

func (s *Session) readLoop(inbound chan<- wire.Message, errc chan<- error) {
	for {
		if s.cancelled() {
			errc <- spverr.ErrTransportClosed
			return
		}
		env, err := readEnvelope(s.conn)
		if err != nil {
			errc <- err
			return
		}
		msg, err := wire.DecodeMessage(env.Command, env.Payload)
		if err != nil {
			s.trace.Errorf("decoding %s: %v", env.Command, err)
			continue
		}
		s.trace.Inbound(env.Command, msg)
		inbound <- msg
	}
}

func (s *Session) writeLoop(errc chan<- error) {
	for msg := range s.outbound {
		if s.cancelled() {
			errc <- spverr.ErrTransportClosed
			return
		}
		b, err := wire.EncodeMessage(msg)
		if err != nil {
			errc <- err
			return
		}
		if _, err := s.conn.Write(b); err != nil {
			errc <- fmt.Errorf("%w: %v", spverr.ErrTransportClosed, err)
			return
		}
	}
}

// waitFor blocks until predicate(msg) returns true for some message
// taken from inbound, or an error/cancellation occurs.
func (s *Session) waitFor(inbound <-chan wire.Message, readerErr <-chan error, predicate func(wire.Message) (bool, error)) error {
	for {
		if s.cancelled() {
			return spverr.ErrTransportClosed
		}
		select {
		case msg := <-inbound:
			done, err := predicate(msg)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		case err := <-readerErr:
			return err
		}
	}
}
