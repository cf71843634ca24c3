// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "github.com/btcspv/spvnode/hashkit"

// Outpoint identifies a previous transaction output: (txid, index). Txid
// is held in display order; serialization reverses it.
type Outpoint struct {
	Hash  Hash
	Index uint32
}

func (o Outpoint) serialize(buf []byte) []byte {
	buf = PutHashReversed(buf, o.Hash)
	return PutUint32LE(buf, o.Index)
}

func decodeOutpoint(c *Cursor) (Outpoint, error) {
	var o Outpoint
	var err error
	if o.Hash, err = c.ReadHashReversed(); err != nil {
		return o, err
	}
	if o.Index, err = c.ReadUint32LE(); err != nil {
		return o, err
	}
	return o, nil
}

// TxIn is a transaction input: the outpoint it spends, its unlocking
// script, and its sequence number.
type TxIn struct {
	PreviousOutpoint Outpoint
	SignatureScript  []byte
	Sequence         uint32
}

func (in *TxIn) serialize(buf []byte) []byte {
	buf = in.PreviousOutpoint.serialize(buf)
	buf = PutVarBytes(buf, in.SignatureScript)
	return PutUint32LE(buf, in.Sequence)
}

func decodeTxIn(c *Cursor) (*TxIn, error) {
	in := &TxIn{}
	var err error
	if in.PreviousOutpoint, err = decodeOutpoint(c); err != nil {
		return nil, err
	}
	if in.SignatureScript, err = c.ReadVarBytes(); err != nil {
		return nil, err
	}
	if in.Sequence, err = c.ReadUint32LE(); err != nil {
		return nil, err
	}
	return in, nil
}

// TxOut is a transaction output: a satoshi value and a locking script.
type TxOut struct {
	Value    int64
	PkScript []byte
}

func (out *TxOut) serialize(buf []byte) []byte {
	buf = PutInt64LE(buf, out.Value)
	return PutVarBytes(buf, out.PkScript)
}

func decodeTxOut(c *Cursor) (*TxOut, error) {
	out := &TxOut{}
	var err error
	if out.Value, err = c.ReadInt64LE(); err != nil {
		return nil, err
	}
	if out.PkScript, err = c.ReadVarBytes(); err != nil {
		return nil, err
	}
	return out, nil
}

// IsSentinel reports whether out is the zero-value, empty-script tombstone
// used to mark a spent UTXO index position (spec §3 "Sentinel TxOut").
func (out *TxOut) IsSentinel() bool {
	return out.Value == 0 && len(out.PkScript) == 0
}

// SentinelTxOut returns the tombstone value used to replace a spent
// output while preserving its index position.
func SentinelTxOut() *TxOut {
	return &TxOut{Value: 0, PkScript: nil}
}

// Transaction is a Bitcoin transaction: version, inputs, outputs, and
// locktime. Its txid is double-SHA256 of its serialization.
type Transaction struct {
	Version  int32
	TxIn     []*TxIn
	TxOut    []*TxOut
	LockTime uint32
}

// Serialize returns the full wire encoding of tx.
func (tx *Transaction) Serialize() []byte {
	buf := make([]byte, 0, 256)
	buf = PutInt32LE(buf, tx.Version)
	buf = PutCompactSize(buf, NewCompactSize(uint64(len(tx.TxIn))))
	for _, in := range tx.TxIn {
		buf = in.serialize(buf)
	}
	buf = PutCompactSize(buf, NewCompactSize(uint64(len(tx.TxOut))))
	for _, out := range tx.TxOut {
		buf = out.serialize(buf)
	}
	return PutUint32LE(buf, tx.LockTime)
}

// DecodeTransaction decodes a Transaction.
func DecodeTransaction(c *Cursor) (*Transaction, error) {
	tx := &Transaction{}
	var err error
	if tx.Version, err = c.ReadInt32LE(); err != nil {
		return nil, err
	}
	inCount, err := c.ReadCompactSize()
	if err != nil {
		return nil, err
	}
	tx.TxIn = make([]*TxIn, inCount.Value)
	for i := range tx.TxIn {
		if tx.TxIn[i], err = decodeTxIn(c); err != nil {
			return nil, err
		}
	}
	outCount, err := c.ReadCompactSize()
	if err != nil {
		return nil, err
	}
	tx.TxOut = make([]*TxOut, outCount.Value)
	for i := range tx.TxOut {
		if tx.TxOut[i], err = decodeTxOut(c); err != nil {
			return nil, err
		}
	}
	if tx.LockTime, err = c.ReadUint32LE(); err != nil {
		return nil, err
	}
	return tx, nil
}

// TxID returns double-SHA256 of tx's serialization, in display order.
func (tx *Transaction) TxID() Hash {
	sum := hashkit.DoubleSHA256(tx.Serialize())
	return Reverse32(Hash(sum))
}

// Copy returns a deep copy of tx, used by the SIGHASH_ALL preimage builder
// which must zero out scriptSigs without mutating the caller's transaction.
func (tx *Transaction) Copy() *Transaction {
	out := &Transaction{Version: tx.Version, LockTime: tx.LockTime}
	for _, in := range tx.TxIn {
		script := append([]byte(nil), in.SignatureScript...)
		out.TxIn = append(out.TxIn, &TxIn{
			PreviousOutpoint: in.PreviousOutpoint,
			SignatureScript:  script,
			Sequence:         in.Sequence,
		})
	}
	for _, o := range tx.TxOut {
		script := append([]byte(nil), o.PkScript...)
		out.TxOut = append(out.TxOut, &TxOut{Value: o.Value, PkScript: script})
	}
	return out
}
