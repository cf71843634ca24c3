// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package walletdb

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/btcspv/spvnode/chaincfg"
	"github.com/btcspv/spvnode/spverr"
)

// LoadWallets reads path as one wallet per line, "id,name,privkey_hex,
// balance", per spec §6's persisted wallet file, and returns a Set
// populated from it. A missing file yields an empty Set, matching
// store.Open's first-run behavior. The on-disk balance is advisory only
// -- SaveWallets writes the wallet's confirmed balance at the time of
// the call, but the authoritative figure after a restart comes from
// Wallet.Refresh against the replayed UTXO index, not this file.
func LoadWallets(path string, params *chaincfg.Params) (*Set, error) {
	set := NewSet()

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return set, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: opening wallet file: %v", spverr.ErrStorageIO, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		w, err := decodeWalletLine(line, params)
		if err != nil {
			return nil, err
		}
		set.Add(w)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading wallet file: %v", spverr.ErrStorageIO, err)
	}
	return set, nil
}

// SaveWallets overwrites path with one line per wallet in set, in the
// same "id,name,privkey_hex,balance" format LoadWallets reads.
func SaveWallets(path string, set *Set) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("%w: opening wallet file: %v", spverr.ErrStorageIO, err)
	}
	defer f.Close()

	for _, w := range set.All() {
		confirmed, _ := w.Balances()
		line := fmt.Sprintf("%d,%s,%s,%d\n",
			w.ID, w.Name, hex.EncodeToString(w.privKey.Serialize()), confirmed)
		if _, err := f.WriteString(line); err != nil {
			return fmt.Errorf("%w: writing wallet line: %v", spverr.ErrStorageIO, err)
		}
	}
	return nil
}

func decodeWalletLine(line string, params *chaincfg.Params) (*Wallet, error) {
	fields := strings.SplitN(line, ",", 4)
	if len(fields) != 4 {
		return nil, fmt.Errorf("%w: malformed wallet line %q", spverr.ErrStorageIO, line)
	}

	id, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing wallet id in %q: %v", spverr.ErrStorageIO, line, err)
	}
	raw, err := hex.DecodeString(fields[2])
	if err != nil {
		return nil, fmt.Errorf("%w: parsing wallet privkey in %q: %v", spverr.ErrStorageIO, line, err)
	}

	w, err := NewWallet(id, fields[1], raw, params)
	if err != nil {
		return nil, fmt.Errorf("%w: deriving wallet from %q: %v", spverr.ErrStorageIO, line, err)
	}
	return w, nil
}
