// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command spvnode runs the testnet3 SPV node standalone: it wires
// config, storage, the orchestrator, and an interface bridge together,
// and drives the bridge's command side from a stdin REPL console in
// place of the GUI the original project paired it with. Grounded on
// the Rust original's src/node/bitnode.rs startup sequence (CLI args,
// config, server/client roles) and src/utils/commands.rs (console
// command set).
package main

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/btcspv/spvnode/bridge"
	"github.com/btcspv/spvnode/chaincfg"
	"github.com/btcspv/spvnode/config"
	"github.com/btcspv/spvnode/node"
	"github.com/btcspv/spvnode/spvlog"
	"github.com/btcspv/spvnode/store"
	"github.com/btcspv/spvnode/walletdb"
	"github.com/btcspv/spvnode/wire"
)

// configPath is where Load looks for the node's key/value config file,
// matching the fixed path the original resolves from ConfigVars::CONFIG_PATH.
const configPath = "node.conf"

func main() {
	if len(os.Args) != 2 && len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: spvnode <listen-port> [client-peer-port]")
		os.Exit(1)
	}

	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "spvnode:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := spvlog.InitLogRotator(cfg.LoggerFileLocation); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer spvlog.Close()

	role := "server"
	var clientPeer string
	if len(args) == 2 {
		role = "client"
		clientPeer = net.JoinHostPort(cfg.ServerSeed, args[1])
	}

	s, err := store.Open(".", role)
	if err != nil {
		return err
	}
	defer s.Close()

	params := chaincfg.TestNet3Params
	params.DefaultPort = strconv.FormatUint(uint64(cfg.TestnetPort), 10)
	params.ProtocolVersion = cfg.ProtocolVersion
	params.ProjectStartDate = cfg.ProjectStartDate

	walletPath := role + "_wallets.txt"
	wallets, err := walletdb.LoadWallets(walletPath, &params)
	if err != nil {
		return fmt.Errorf("loading wallets: %w", err)
	}
	defer func() {
		if err := walletdb.SaveWallets(walletPath, wallets); err != nil {
			spvlog.NodeLog.Errorf("saving wallets: %v", err)
		}
	}()

	utxo := walletdb.NewIndex(&params)
	for _, w := range wallets.All() {
		w.Refresh(utxo)
	}

	br := bridge.New(32, 32)

	n := node.New(node.Config{
		Params:     &params,
		Store:      s,
		UTXO:       utxo,
		Wallets:    wallets,
		Bridge:     br,
		ListenAddr: net.JoinHostPort(cfg.ServerSeed, args[0]),
		ClientPeer: clientPeer,
		DNS:        cfg.DNS,
	})

	go runConsole(os.Stdin, br)
	go logEvents(br)

	return n.Run()
}

// logEvents drains the bridge's event stream and logs every event at
// info level, standing in for the GUI's event sink when none is
// attached.
func logEvents(br *bridge.Bridge) {
	for ev := range br.Events {
		spvlog.NodeLog.Infof("event: %#v", ev)
	}
}

// runConsole reads commands from stdin and translates them into
// bridge.Command values, per src/utils/commands.rs's console:
//
//	addwallet <name> <privkey-hex>
//	select <name>
//	send <address> <label> <amount> <fee>
//	include <block-hash-hex> <tx-hash-hex>
//	quit
func runConsole(r io.Reader, br *bridge.Bridge) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "addwallet":
			if len(fields) != 3 {
				fmt.Println("usage: addwallet <name> <privkey-hex>")
				continue
			}
			br.Send(bridge.AddWallet{Name: fields[1], PrivKeyHex: fields[2]})

		case "select":
			if len(fields) != 2 {
				fmt.Println("usage: select <name>")
				continue
			}
			br.Send(bridge.SelectWallet{Name: fields[1]})

		case "send":
			if len(fields) != 5 {
				fmt.Println("usage: send <address> <label> <amount> <fee>")
				continue
			}
			amount, err := strconv.ParseInt(fields[3], 10, 64)
			if err != nil {
				fmt.Println("invalid amount:", err)
				continue
			}
			fee, err := strconv.ParseInt(fields[4], 10, 64)
			if err != nil {
				fmt.Println("invalid fee:", err)
				continue
			}
			br.Send(bridge.SendTransaction{Address: fields[1], Label: fields[2], Amount: amount, Fee: fee})

		case "include":
			if len(fields) != 3 {
				fmt.Println("usage: include <block-hash-hex> <tx-hash-hex>")
				continue
			}
			blockHash, err := wire.HashFromStr(fields[1])
			if err != nil {
				fmt.Println("invalid block hash:", err)
				continue
			}
			txHash, err := wire.HashFromStr(fields[2])
			if err != nil {
				fmt.Println("invalid tx hash:", err)
				continue
			}
			br.Send(bridge.RequestInclusion{BlockSelector: blockHash, TxSelector: txHash})

		case "quit":
			br.Send(bridge.Close{})
			return

		default:
			fmt.Println("unknown command:", fields[0])
		}
	}
}

