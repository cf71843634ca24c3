// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package txscript implements the P2PKH-only script kit this node
// composes and spends: output/input script construction, address
// recovery from a scriptPubKey or scriptSig, and the SIGHASH_ALL
// preimage used for signing. It is a minimal builder in the style of
// the teacher's txscript.NewScriptBuilder chaining, not the full Script
// virtual machine — arbitrary opcode execution is out of scope.
package txscript

import (
	"github.com/btcspv/spvnode/chaincfg"
	"github.com/btcspv/spvnode/hashkit"
	"github.com/btcspv/spvnode/spverr"
	"github.com/btcspv/spvnode/wire"
)

// Opcodes used by the P2PKH script pattern this node composes and
// spends.
const (
	OpDup         = 0x76
	OpEqualVerify = 0x88
	OpHash160     = 0xa9
	OpCheckSig    = 0xac

	// OpPushData1 prefixes a single length byte for a push between 76
	// and 255 bytes, emitted by AddData when the payload exceeds the
	// direct single-byte push range and recognized by allPushes.
	OpPushData1 = 0x4c

	maxDirectPush = 75
)

// SigHashAll is the sighash type appended to a SIGHASH_ALL preimage and
// to a finished DER signature.
const SigHashAll = 0x01

// Builder assembles a script by chained method calls, mirroring the
// teacher's txscript.NewScriptBuilder()....Script() idiom.
type Builder struct {
	buf []byte
	err error
}

// NewBuilder returns an empty script builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddOp appends a single opcode byte.
func (b *Builder) AddOp(op byte) *Builder {
	if b.err != nil {
		return b
	}
	b.buf = append(b.buf, op)
	return b
}

// AddData appends a length-prefixed data push. Pushes up to 75 bytes use
// a direct single length byte; longer pushes (DER signatures can run a
// couple of bytes past that on rare high-S encodings) use OP_PUSHDATA1.
func (b *Builder) AddData(data []byte) *Builder {
	if b.err != nil {
		return b
	}
	switch {
	case len(data) <= maxDirectPush:
		b.buf = append(b.buf, byte(len(data)))
	case len(data) <= 255:
		b.buf = append(b.buf, OpPushData1, byte(len(data)))
	default:
		b.err = spverr.ErrMalformedField
		return b
	}
	b.buf = append(b.buf, data...)
	return b
}

// Script returns the assembled script, or the first error encountered
// while building it.
func (b *Builder) Script() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.buf, nil
}

// PayToAddrScript builds the P2PKH scriptPubKey for addr: OP_DUP
// OP_HASH160 PUSH(20) <hash160> OP_EQUALVERIFY OP_CHECKSIG.
func PayToAddrScript(addr *Address) ([]byte, error) {
	return NewBuilder().
		AddOp(OpDup).
		AddOp(OpHash160).
		AddData(addr.hash[:]).
		AddOp(OpEqualVerify).
		AddOp(OpCheckSig).
		Script()
}

// SignatureScript builds the P2PKH scriptSig for a signed input:
// PUSH(sig‖hashtype) PUSH(compressed pubkey). sig must already exclude
// the trailing hash type byte; pubKey must be the 33-byte compressed
// encoding.
func SignatureScript(sig, pubKey []byte) ([]byte, error) {
	sigWithType := make([]byte, 0, len(sig)+1)
	sigWithType = append(sigWithType, sig...)
	sigWithType = append(sigWithType, SigHashAll)
	return NewBuilder().
		AddData(sigWithType).
		AddData(pubKey).
		Script()
}

// AddressFromScriptPubKey recovers a P2PKH address by linear-scanning
// the script for its single 20-byte data push, per the spec's address
// recovery rule: walk opcode bytes, treat any byte in [1,75] as a push
// length, and take the one 20-byte push as the hash160.
func AddressFromScriptPubKey(script []byte, params *chaincfg.Params) (*Address, error) {
	hash, err := extractHash160Push(script)
	if err != nil {
		return nil, err
	}
	return NewAddressFromHash160(hash, params)
}

// AddressFromScriptSig recovers the signer's address from a P2PKH
// scriptSig by taking its last data push (the compressed public key)
// and hash160-ing it.
func AddressFromScriptSig(script []byte, params *chaincfg.Params) (*Address, error) {
	pushes, err := allPushes(script)
	if err != nil {
		return nil, err
	}
	if len(pushes) == 0 {
		return nil, spverr.ErrMalformedField
	}
	pubKey := pushes[len(pushes)-1]
	return NewAddressFromPubKey(pubKey, params)
}

// extractHash160Push scans script for its single 20-byte push.
func extractHash160Push(script []byte) ([20]byte, error) {
	var hash [20]byte
	pushes, err := allPushes(script)
	if err != nil {
		return hash, err
	}
	for _, p := range pushes {
		if len(p) == 20 {
			copy(hash[:], p)
			return hash, nil
		}
	}
	return hash, spverr.ErrMalformedField
}

// allPushes linear-scans script, returning every data push encountered.
// Non-push opcode bytes are skipped.
func allPushes(script []byte) ([][]byte, error) {
	var pushes [][]byte
	i := 0
	for i < len(script) {
		op := script[i]
		switch {
		case op >= 1 && op <= maxDirectPush:
			i++
			if i+int(op) > len(script) {
				return nil, spverr.ErrMalformedField
			}
			pushes = append(pushes, script[i:i+int(op)])
			i += int(op)
		case op == OpPushData1:
			i++
			if i >= len(script) {
				return nil, spverr.ErrMalformedField
			}
			n := int(script[i])
			i++
			if i+n > len(script) {
				return nil, spverr.ErrMalformedField
			}
			pushes = append(pushes, script[i:i+n])
			i += n
		default:
			i++
		}
	}
	return pushes, nil
}

// CalcSignatureHash computes the SIGHASH_ALL digest for input index of
// tx: every input's scriptSig is blanked, input index's scriptSig is
// replaced by prevOutScript (the referenced output's scriptPubKey), the
// result is serialized, the sighash type is appended as a 4-byte
// little-endian trailer, and the whole thing is double-SHA256'd.
func CalcSignatureHash(tx *wire.Transaction, index int, prevOutScript []byte) ([32]byte, error) {
	if index < 0 || index >= len(tx.TxIn) {
		return [32]byte{}, spverr.ErrSigningFailure
	}
	txCopy := tx.Copy()
	for i, in := range txCopy.TxIn {
		if i == index {
			in.SignatureScript = prevOutScript
		} else {
			in.SignatureScript = nil
		}
	}
	buf := txCopy.Serialize()
	buf = append(buf, 0x01, 0x00, 0x00, 0x00)
	return hashkit.DoubleSHA256(buf), nil
}
