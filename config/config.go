// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package config reads the node's key/value configuration file:
// dns, testnet_port, protocol_version, server_seed,
// logger_file_location, project_start_date. No pack library targets
// this bare key=value line format (viper, go-flags, ini.v1 all expect
// flags or structured formats), so this is read directly with
// bufio.Scanner.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the node's required configuration values.
type Config struct {
	DNS             string
	TestnetPort     uint16
	ProtocolVersion uint32

	// ServerSeed is the local bind host (e.g. "127.0.0.1") combined
	// with the CLI's listen/client-peer port to form this node's and
	// its client peer's full "host:port" addresses.
	ServerSeed string

	LoggerFileLocation string
	ProjectStartDate   int64
}

var requiredKeys = []string{
	"dns", "testnet_port", "protocol_version", "server_seed",
	"logger_file_location", "project_start_date",
}

// Load reads path as a key=value text file, one assignment per line,
// blank lines and lines starting with '#' ignored. Every key in
// requiredKeys must be present or Load fails.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("malformed config line %q", line)
		}
		values[strings.TrimSpace(key)] = strings.TrimSpace(val)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	for _, key := range requiredKeys {
		if _, ok := values[key]; !ok {
			return nil, fmt.Errorf("missing required config key %q", key)
		}
	}

	port, err := strconv.ParseUint(values["testnet_port"], 10, 16)
	if err != nil {
		return nil, fmt.Errorf("parsing testnet_port: %w", err)
	}
	protoVersion, err := strconv.ParseUint(values["protocol_version"], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("parsing protocol_version: %w", err)
	}
	startDate, err := strconv.ParseInt(values["project_start_date"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing project_start_date: %w", err)
	}

	return &Config{
		DNS:                values["dns"],
		TestnetPort:        uint16(port),
		ProtocolVersion:    uint32(protoVersion),
		ServerSeed:         values["server_seed"],
		LoggerFileLocation: values["logger_file_location"],
		ProjectStartDate:   startDate,
	}, nil
}
