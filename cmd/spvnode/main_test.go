// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/btcspv/spvnode/bridge"
)

func TestRunConsoleDispatchesAddWallet(t *testing.T) {
	br := bridge.New(4, 4)
	runConsole(strings.NewReader("addwallet primary deadbeef\n"), br)

	cmd := <-br.Commands
	require.Equal(t, bridge.AddWallet{Name: "primary", PrivKeyHex: "deadbeef"}, cmd)
}

func TestRunConsoleDispatchesSend(t *testing.T) {
	br := bridge.New(4, 4)
	runConsole(strings.NewReader("send mtAddr label 5000 500\n"), br)

	cmd := <-br.Commands
	require.Equal(t, bridge.SendTransaction{Address: "mtAddr", Label: "label", Amount: 5000, Fee: 500}, cmd)
}

func TestRunConsoleIgnoresMalformedSend(t *testing.T) {
	br := bridge.New(4, 4)
	runConsole(strings.NewReader("send onlyonearg\nquit\n"), br)

	cmd := <-br.Commands
	require.Equal(t, bridge.Close{}, cmd)
}

func TestRunConsoleQuitSendsClose(t *testing.T) {
	br := bridge.New(4, 4)
	runConsole(strings.NewReader("quit\n"), br)

	cmd := <-br.Commands
	require.Equal(t, bridge.Close{}, cmd)
}

func TestRunConsoleIgnoresUnknownCommand(t *testing.T) {
	br := bridge.New(4, 4)
	runConsole(strings.NewReader("frobnicate\nquit\n"), br)

	cmd := <-br.Commands
	require.Equal(t, bridge.Close{}, cmd)
}
