// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package spverr defines the sentinel error taxonomy this node uses end to
// end: wire decoding, header validation, merkle verification, transaction
// building, storage and peer management all wrap one of these with
// fmt.Errorf's %w so callers can test with errors.Is.
package spverr

import "errors"

var (
	// ErrShortBuffer is returned when a decode asked for more bytes than
	// the cursor holds.
	ErrShortBuffer = errors.New("short buffer")

	// ErrMalformedField is returned when a field fails a semantic check,
	// such as a bad envelope magic or a non-minimal CompactSize.
	ErrMalformedField = errors.New("malformed field")

	// ErrUnknownCommand is returned when an envelope's command string is
	// not among the supported set.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrChecksumMismatch is returned when a payload's checksum does not
	// match the envelope header.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrPoWInsufficient is returned when a header's hash exceeds its own
	// declared target.
	ErrPoWInsufficient = errors.New("insufficient proof of work")

	// ErrHeaderDiscontinuity is returned when a header's previous-hash
	// does not match the current tip. Advisory: the chain is still
	// best-effort extended by the caller.
	ErrHeaderDiscontinuity = errors.New("header discontinuity")

	// ErrMerkleInvalid is returned when a merkle-block fails the
	// flag/hash walk, or an inclusion proof fails to reproduce the root.
	ErrMerkleInvalid = errors.New("invalid merkle proof")

	// ErrInsufficientFunds is returned when coin selection cannot cover
	// the requested amount plus fee.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrSigningFailure is returned when ECDSA signing is rejected.
	ErrSigningFailure = errors.New("signing failure")

	// ErrTransportClosed is returned when a peer socket reaches EOF or
	// refuses further bytes.
	ErrTransportClosed = errors.New("transport closed")

	// ErrStorageIO is returned when an underlying file operation fails.
	ErrStorageIO = errors.New("storage I/O error")

	// ErrPeerExhaustion is returned when the seed list is exhausted
	// without a successful session.
	ErrPeerExhaustion = errors.New("peer exhaustion")
)
