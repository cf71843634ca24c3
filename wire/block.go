// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

// Block is a full block: header plus its transactions. Its block_hash is
// double-SHA256 of the 80-byte header alone (BlockHeader.BlockHash).
type Block struct {
	Header       BlockHeader
	Transactions []*Transaction
}

// Serialize returns the full wire encoding: header, CompactSize tx_count,
// then each transaction.
func (b *Block) Serialize() []byte {
	buf := make([]byte, 0, HeaderSize+len(b.Transactions)*256)
	buf = append(buf, b.Header.Serialize()...)
	buf = PutCompactSize(buf, NewCompactSize(uint64(len(b.Transactions))))
	for _, tx := range b.Transactions {
		buf = append(buf, tx.Serialize()...)
	}
	return buf
}

// SerializeForHashing returns the 80-byte header alone, per spec §4.2.
func (b *Block) SerializeForHashing() []byte {
	return b.Header.Serialize()
}

// DecodeBlock decodes a full block message body.
func DecodeBlock(c *Cursor) (*Block, error) {
	hdr, err := DecodeBlockHeader(c)
	if err != nil {
		return nil, err
	}
	count, err := c.ReadCompactSize()
	if err != nil {
		return nil, err
	}
	b := &Block{Header: *hdr, Transactions: make([]*Transaction, count.Value)}
	for i := range b.Transactions {
		if b.Transactions[i], err = DecodeTransaction(c); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// BlockHash returns the block's hash: double-SHA256 of its header alone.
func (b *Block) BlockHash() Hash {
	return b.Header.BlockHash()
}

// MerkleBlock is a header plus the minimal data needed to prove
// inclusion of a subset of its transactions (spec §3, §4.2).
type MerkleBlock struct {
	Header     BlockHeader
	TotalTx    uint32
	Hashes     []Hash
	FlagBytes  []byte
}

// Serialize returns the wire encoding: header, total_tx, hash count,
// hashes, flag-byte count, flag bytes.
func (mb *MerkleBlock) Serialize() []byte {
	buf := make([]byte, 0, HeaderSize+4+len(mb.Hashes)*32+len(mb.FlagBytes)+8)
	buf = append(buf, mb.Header.Serialize()...)
	buf = PutUint32LE(buf, mb.TotalTx)
	buf = PutCompactSize(buf, NewCompactSize(uint64(len(mb.Hashes))))
	for _, h := range mb.Hashes {
		buf = PutHashReversed(buf, h)
	}
	buf = PutVarBytes(buf, mb.FlagBytes)
	return buf
}

// DecodeMerkleBlock decodes a merkleblock message body.
func DecodeMerkleBlock(c *Cursor) (*MerkleBlock, error) {
	hdr, err := DecodeBlockHeader(c)
	if err != nil {
		return nil, err
	}
	mb := &MerkleBlock{Header: *hdr}
	if mb.TotalTx, err = c.ReadUint32LE(); err != nil {
		return nil, err
	}
	hashCount, err := c.ReadCompactSize()
	if err != nil {
		return nil, err
	}
	mb.Hashes = make([]Hash, hashCount.Value)
	for i := range mb.Hashes {
		if mb.Hashes[i], err = c.ReadHashReversed(); err != nil {
			return nil, err
		}
	}
	if mb.FlagBytes, err = c.ReadVarBytes(); err != nil {
		return nil, err
	}
	return mb, nil
}
