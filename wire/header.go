// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
	"math/big"

	"github.com/btcspv/spvnode/hashkit"
	"github.com/btcspv/spvnode/spverr"
)

// HeaderSize is the fixed 80-byte size of a serialized BlockHeader.
const HeaderSize = 80

// BlockHeader is the 80-byte block header described in spec §3: version,
// previous-hash, merkle-root, time, compact target (nBits), and nonce.
// PrevBlock and MerkleRoot are held in display (big-endian) order;
// Serialize reverses them to wire order.
type BlockHeader struct {
	Version    int32
	PrevBlock  Hash
	MerkleRoot Hash
	Timestamp  uint32
	Bits       uint32
	Nonce      uint32
}

// Serialize returns the 80-byte wire encoding of h.
func (h *BlockHeader) Serialize() []byte {
	buf := make([]byte, 0, HeaderSize)
	buf = PutInt32LE(buf, h.Version)
	buf = PutHashReversed(buf, h.PrevBlock)
	buf = PutHashReversed(buf, h.MerkleRoot)
	buf = PutUint32LE(buf, h.Timestamp)
	buf = PutUint32LE(buf, h.Bits)
	buf = PutUint32LE(buf, h.Nonce)
	return buf
}

// DecodeBlockHeader reads the fixed 80-byte header form.
func DecodeBlockHeader(c *Cursor) (*BlockHeader, error) {
	h := &BlockHeader{}
	var err error
	if h.Version, err = c.ReadInt32LE(); err != nil {
		return nil, err
	}
	if h.PrevBlock, err = c.ReadHashReversed(); err != nil {
		return nil, err
	}
	if h.MerkleRoot, err = c.ReadHashReversed(); err != nil {
		return nil, err
	}
	if h.Timestamp, err = c.ReadUint32LE(); err != nil {
		return nil, err
	}
	if h.Bits, err = c.ReadUint32LE(); err != nil {
		return nil, err
	}
	if h.Nonce, err = c.ReadUint32LE(); err != nil {
		return nil, err
	}
	return h, nil
}

// BlockHash returns double-SHA256 of the 80-byte serialization, in display
// order.
func (h *BlockHeader) BlockHash() Hash {
	sum := hashkit.DoubleSHA256(h.Serialize())
	return Reverse32(Hash(sum))
}

// CompactToBig expands a compact ("nBits") target into a big.Int, using
// Bitcoin's 1-exponent-byte + 3-mantissa-byte encoding.
func CompactToBig(compact uint32) *big.Int {
	mantissa := compact & 0x007fffff
	exponent := compact >> 24

	var bn *big.Int
	if exponent <= 3 {
		mantissa >>= 8 * (3 - exponent)
		bn = big.NewInt(int64(mantissa))
	} else {
		bn = big.NewInt(int64(mantissa))
		bn.Lsh(bn, uint(8*(exponent-3)))
	}

	if compact&0x00800000 != 0 {
		bn = bn.Neg(bn)
	}
	return bn
}

// BigToCompact packs n into Bitcoin's compact ("nBits") target encoding,
// the inverse of CompactToBig.
func BigToCompact(n *big.Int) uint32 {
	if n.Sign() == 0 {
		return 0
	}

	var mantissa uint32
	exponent := uint(len(n.Bytes()))
	if exponent <= 3 {
		mantissa = uint32(n.Bits()[0])
		mantissa <<= 8 * (3 - exponent)
	} else {
		tn := new(big.Int).Set(n)
		mantissa = uint32(tn.Rsh(tn, 8*(exponent-3)).Bits()[0])
	}

	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		exponent++
	}

	compact := uint32(exponent<<24) | mantissa
	if n.Sign() < 0 {
		compact |= 0x00800000
	}
	return compact
}

// CheckProofOfWork validates h's hash against its own declared target,
// capped at powLimit. Returns spverr.ErrPoWInsufficient if the hash
// exceeds the target.
func (h *BlockHeader) CheckProofOfWork(powLimit *big.Int) error {
	target := CompactToBig(h.Bits)
	if target.Sign() <= 0 {
		return fmt.Errorf("%w: target is non-positive", spverr.ErrMalformedField)
	}
	if target.Cmp(powLimit) > 0 {
		return fmt.Errorf("%w: target exceeds network limit", spverr.ErrMalformedField)
	}

	hash := h.BlockHash()
	hashNum := new(big.Int).SetBytes(hash[:])
	if hashNum.Cmp(target) > 0 {
		return spverr.ErrPoWInsufficient
	}
	return nil
}

// CheckTimestamp rejects headers timestamped more than two hours into the
// future of now, per the original implementation's validation pass
// (SPEC_FULL.md §3, supplemented feature).
func (h *BlockHeader) CheckTimestamp(now uint32) error {
	const maxFutureSecs = 2 * 60 * 60
	if uint64(h.Timestamp) > uint64(now)+maxFutureSecs {
		return fmt.Errorf("%w: header timestamp too far in the future", spverr.ErrMalformedField)
	}
	return nil
}

func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}
