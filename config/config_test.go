// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	dir := t.TempDir()
	path := filepath.Join(dir, "node.conf")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadParsesAllKeys(t *testing.T) {
	path := writeConfig(t, `
# comment
dns=seed.testnet.bitcoin.sprovoost.nl
testnet_port=18333
protocol_version=70015
server_seed=127.0.0.1
logger_file_location=/tmp/node.log
project_start_date=1681120800
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "seed.testnet.bitcoin.sprovoost.nl", cfg.DNS)
	require.Equal(t, uint16(18333), cfg.TestnetPort)
	require.Equal(t, uint32(70015), cfg.ProtocolVersion)
	require.Equal(t, "127.0.0.1", cfg.ServerSeed)
	require.Equal(t, "/tmp/node.log", cfg.LoggerFileLocation)
	require.Equal(t, int64(1681120800), cfg.ProjectStartDate)
}

func TestLoadFailsOnMissingKey(t *testing.T) {
	path := writeConfig(t, "dns=example.com\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadFailsOnMalformedLine(t *testing.T) {
	path := writeConfig(t, "dns example.com\n")
	_, err := Load(path)
	require.Error(t, err)
}
