// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package store implements append-only text-file persistence for
// headers, blocks, and merkle-blocks, with a rebuildable LevelDB
// secondary index mapping txid to block hash. Grounded on the Rust
// original's src/node/storage_engine/storage_manager.rs and
// file_lines.rs for the append-only, one-record-per-line byte-list
// format.
package store

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/btcspv/spvnode/spverr"
	"github.com/btcspv/spvnode/wire"
)

// Store persists headers, blocks, and merkle-blocks to three append-only
// text files, plus an in-memory reconstruction of chain state and a
// goleveldb secondary index over it.
type Store struct {
	mu sync.Mutex

	headersPath string
	blocksPath  string
	merklePath  string

	headersFile *os.File
	blocksFile  *os.File
	merkleFile  *os.File

	db *leveldb.DB

	headers      []wire.BlockHeader
	headerByHash map[wire.Hash]int
	blocks       map[wire.Hash]*wire.Block
	merkles      map[wire.Hash]*wire.MerkleBlock
}

// Open opens or creates the three append-only files under dir (named
// headers.txt, blocks.txt, merkleblocks.txt, prefixed by role) and the
// LevelDB index alongside them, replaying any existing records to
// rebuild in-memory chain state.
func Open(dir, role string) (*Store, error) {
	s := &Store{
		headersPath:  fmt.Sprintf("%s/%s_headers.txt", dir, role),
		blocksPath:   fmt.Sprintf("%s/%s_blocks.txt", dir, role),
		merklePath:   fmt.Sprintf("%s/%s_merkleblocks.txt", dir, role),
		headerByHash: make(map[wire.Hash]int),
		blocks:       make(map[wire.Hash]*wire.Block),
		merkles:      make(map[wire.Hash]*wire.MerkleBlock),
	}

	db, err := leveldb.OpenFile(fmt.Sprintf("%s/%s_index.ldb", dir, role), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: opening index: %v", spverr.ErrStorageIO, err)
	}
	s.db = db

	if err := s.replay(); err != nil {
		db.Close()
		return nil, err
	}

	if err := s.openAppendFiles(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) openAppendFiles() error {
	var err error
	s.headersFile, err = os.OpenFile(s.headersPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("%w: opening headers file: %v", spverr.ErrStorageIO, err)
	}
	s.blocksFile, err = os.OpenFile(s.blocksPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("%w: opening blocks file: %v", spverr.ErrStorageIO, err)
	}
	s.merkleFile, err = os.OpenFile(s.merklePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("%w: opening merkleblocks file: %v", spverr.ErrStorageIO, err)
	}
	return nil
}

// replay re-deserializes every existing record on startup, rebuilding
// headers, blocks, and merkle-blocks and the tip hash, per spec §4.8.
func (s *Store) replay() error {
	if err := s.replayHeaders(); err != nil {
		return err
	}
	if err := s.replayBlocks(); err != nil {
		return err
	}
	return s.replayMerkleBlocks()
}

func (s *Store) replayHeaders() error {
	lines, err := readLines(s.headersPath)
	if err != nil {
		return err
	}
	for _, line := range lines {
		b, err := decodeLine(line)
		if err != nil {
			return err
		}
		h, err := wire.DecodeBlockHeader(wire.NewCursor(b))
		if err != nil {
			return fmt.Errorf("%w: replaying header: %v", spverr.ErrStorageIO, err)
		}
		s.headerByHash[h.BlockHash()] = len(s.headers)
		s.headers = append(s.headers, *h)
	}
	return nil
}

func (s *Store) replayBlocks() error {
	lines, err := readLines(s.blocksPath)
	if err != nil {
		return err
	}
	batch := new(leveldb.Batch)
	for _, line := range lines {
		b, err := decodeLine(line)
		if err != nil {
			return err
		}
		blk, err := wire.DecodeBlock(wire.NewCursor(b))
		if err != nil {
			return fmt.Errorf("%w: replaying block: %v", spverr.ErrStorageIO, err)
		}
		hash := blk.BlockHash()
		s.blocks[hash] = blk
		for _, tx := range blk.Transactions {
			batch.Put(txidKey(tx.TxID()), hash[:])
		}
	}
	if err := s.db.Write(batch, nil); err != nil {
		return fmt.Errorf("%w: rebuilding txid index: %v", spverr.ErrStorageIO, err)
	}
	return nil
}

func (s *Store) replayMerkleBlocks() error {
	lines, err := readLines(s.merklePath)
	if err != nil {
		return err
	}
	for _, line := range lines {
		b, err := decodeLine(line)
		if err != nil {
			return err
		}
		mb, err := wire.DecodeMerkleBlock(wire.NewCursor(b))
		if err != nil {
			return fmt.Errorf("%w: replaying merkle block: %v", spverr.ErrStorageIO, err)
		}
		s.merkles[mb.Header.BlockHash()] = mb
	}
	return nil
}

// PutHeader appends h to the header file and indexes it by hash.
func (s *Store) PutHeader(h wire.BlockHeader) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := appendLine(s.headersFile, h.Serialize()); err != nil {
		return err
	}
	s.headerByHash[h.BlockHash()] = len(s.headers)
	s.headers = append(s.headers, h)
	return nil
}

// PutBlock appends blk to the block file, indexes it by hash, and
// indexes each of its transactions' txids to the block hash in LevelDB.
func (s *Store) PutBlock(blk *wire.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := appendLine(s.blocksFile, blk.Serialize()); err != nil {
		return err
	}
	hash := blk.BlockHash()
	s.blocks[hash] = blk

	batch := new(leveldb.Batch)
	for _, tx := range blk.Transactions {
		batch.Put(txidKey(tx.TxID()), hash[:])
	}
	if err := s.db.Write(batch, nil); err != nil {
		return fmt.Errorf("%w: indexing block txids: %v", spverr.ErrStorageIO, err)
	}
	return nil
}

// PutMerkleBlock appends mb to the merkle-block file and indexes it by
// header hash.
func (s *Store) PutMerkleBlock(mb *wire.MerkleBlock) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := appendLine(s.merkleFile, mb.Serialize()); err != nil {
		return err
	}
	s.merkles[mb.Header.BlockHash()] = mb
	return nil
}

// Tip returns the most recently appended header and its hash, and
// whether any header has been stored at all.
func (s *Store) Tip() (wire.BlockHeader, wire.Hash, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.headers) == 0 {
		return wire.BlockHeader{}, wire.Hash{}, false
	}
	h := s.headers[len(s.headers)-1]
	return h, h.BlockHash(), true
}

// Header returns the header with the given hash.
func (s *Store) Header(hash wire.Hash) (wire.BlockHeader, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.headerByHash[hash]
	if !ok {
		return wire.BlockHeader{}, false
	}
	return s.headers[i], true
}

// Block returns the block with the given hash.
func (s *Store) Block(hash wire.Hash) (*wire.Block, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blocks[hash]
	return b, ok
}

// MerkleBlock returns the merkle block keyed by header hash.
func (s *Store) MerkleBlock(hash wire.Hash) (*wire.MerkleBlock, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mb, ok := s.merkles[hash]
	return mb, ok
}

// BlockHashForTx looks up the block hash containing txid via the
// LevelDB secondary index.
func (s *Store) BlockHashForTx(txid wire.Hash) (wire.Hash, bool) {
	v, err := s.db.Get(txidKey(txid), nil)
	if err != nil {
		return wire.Hash{}, false
	}
	var hash wire.Hash
	copy(hash[:], v)
	return hash, true
}

// HeadersAfterAny finds, among locators present in the header list, the
// one furthest along the chain and returns up to limit headers
// immediately following it, in chain order. If none of locators match,
// it returns nil. Used to serve inbound getheaders per spec §4.10.
func (s *Store) HeadersAfterAny(locators []wire.Hash, limit int) []*wire.BlockHeader {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := -1
	for _, loc := range locators {
		if i, ok := s.headerByHash[loc]; ok && i > start {
			start = i
		}
	}
	if start == -1 {
		return nil
	}

	out := make([]*wire.BlockHeader, 0, limit)
	for i := start + 1; i < len(s.headers) && len(out) < limit; i++ {
		h := s.headers[i]
		out = append(out, &h)
	}
	return out
}

// Close flushes and closes the underlying files and index.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.headersFile.Close()
	s.blocksFile.Close()
	s.merkleFile.Close()
	return s.db.Close()
}

func txidKey(txid wire.Hash) []byte {
	return append([]byte("txid:"), txid[:]...)
}

// appendLine writes b as one comma-separated decimal-byte record
// terminated by a newline, per spec §4.8.
func appendLine(f *os.File, b []byte) error {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = strconv.Itoa(int(v))
	}
	line := strings.Join(parts, ",") + "\n"
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("%w: appending record: %v", spverr.ErrStorageIO, err)
	}
	return nil
}

// decodeLine parses a comma-separated decimal-byte record back to
// bytes.
func decodeLine(line string) ([]byte, error) {
	if line == "" {
		return nil, nil
	}
	parts := strings.Split(line, ",")
	out := make([]byte, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 255 {
			return nil, fmt.Errorf("%w: malformed record byte %q", spverr.ErrStorageIO, p)
		}
		out[i] = byte(n)
	}
	return out, nil
}

// readLines returns the non-empty lines of path, or nil if the file
// does not exist yet.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", spverr.ErrStorageIO, path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanning %s: %v", spverr.ErrStorageIO, path, err)
	}
	return lines, nil
}
