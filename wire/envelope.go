// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"fmt"

	"github.com/btcspv/spvnode/hashkit"
	"github.com/btcspv/spvnode/spverr"
)

// TestNet3Magic is the magic value prefixing every envelope on the Bitcoin
// test network (version 3): bytes 0b 11 09 07, i.e. uint32 0x0709110b
// little-endian on the wire.
const TestNet3Magic uint32 = 0x0709110b

// DefaultPort is the default testnet3 peer-to-peer TCP port.
const DefaultPort = "18333"

// CommandLen is the fixed width of the command field in an envelope,
// ASCII, NUL-padded.
const CommandLen = 12

// zeroPayloadChecksum is the checksum of an empty payload, i.e. the first
// four bytes of double-SHA256(""). Spelled out as a constant because it is
// used on the fast path for zero-payload messages (verack, getaddr,
// mempool, sendheaders).
var zeroPayloadChecksum = [4]byte{0x5d, 0xf6, 0xe0, 0xe2}

// Commands supported by this node. The list is exhaustive for this
// implementation; an envelope naming anything else is rejected with
// spverr.ErrUnknownCommand.
const (
	CmdVersion     = "version"
	CmdVerAck      = "verack"
	CmdPing        = "ping"
	CmdPong        = "pong"
	CmdAddr        = "addr"
	CmdAddr2       = "addr2"
	CmdGetAddr     = "getaddr"
	CmdHeaders     = "headers"
	CmdGetHeaders  = "getheaders"
	CmdBlock       = "block"
	CmdBlockHdrs   = "blockheaders"
	CmdInv         = "inv"
	CmdGetData     = "getdata"
	CmdNotFound    = "notfound"
	CmdMerkleBlock = "merkleblock"
	CmdTx          = "tx"
	CmdMempool     = "mempool"
	CmdFilterLoad  = "filterload"
	CmdFilterClear = "filterclear"
	CmdSendHeaders = "sendheaders"
	CmdReject      = "reject"
	CmdCmpctBlock  = "cmpctblock"
	CmdGetBlockTxn = "getblocktxn"
	CmdBlockTxn    = "blocktxn"
)

var supportedCommands = map[string]bool{
	CmdVersion: true, CmdVerAck: true, CmdPing: true, CmdPong: true,
	CmdAddr: true, CmdAddr2: true, CmdGetAddr: true, CmdHeaders: true,
	CmdGetHeaders: true, CmdBlock: true, CmdBlockHdrs: true, CmdInv: true,
	CmdGetData: true, CmdNotFound: true, CmdMerkleBlock: true, CmdTx: true,
	CmdMempool: true, CmdFilterLoad: true, CmdFilterClear: true,
	CmdSendHeaders: true, CmdReject: true, CmdCmpctBlock: true,
	CmdGetBlockTxn: true, CmdBlockTxn: true,
}

// IsSupportedCommand reports whether cmd is one of the ~25 commands this
// node's dispatcher recognizes.
func IsSupportedCommand(cmd string) bool {
	return supportedCommands[cmd]
}

// Envelope is the magic/command/length/checksum frame wrapping every P2P
// message: magic(4) | command(12) | payload_len(u32 LE) | checksum(4) |
// payload.
type Envelope struct {
	Magic   uint32
	Command string
	Payload []byte
}

// NewEnvelope builds an envelope for command with the given raw payload
// bytes, using the testnet3 magic.
func NewEnvelope(command string, payload []byte) Envelope {
	return Envelope{Magic: TestNet3Magic, Command: command, Payload: payload}
}

// EncodeMessage wraps msg in an envelope and returns its wire bytes, the
// single call site a session writer needs per outbound message.
func EncodeMessage(msg Message) ([]byte, error) {
	return NewEnvelope(msg.Command(), msg.Encode()).Encode()
}

// Checksum returns the first four bytes of double-SHA256(payload), or the
// fixed zero-payload constant when Payload is empty.
func (e Envelope) Checksum() [4]byte {
	if len(e.Payload) == 0 {
		return zeroPayloadChecksum
	}
	sum := hashkit.DoubleSHA256(e.Payload)
	var c [4]byte
	copy(c[:], sum[:4])
	return c
}

// Encode serializes the envelope to its wire form.
func (e Envelope) Encode() ([]byte, error) {
	if len(e.Command) > CommandLen {
		return nil, fmt.Errorf("%w: command %q exceeds %d bytes", spverr.ErrMalformedField, e.Command, CommandLen)
	}
	buf := make([]byte, 0, 24+len(e.Payload))
	buf = PutUint32LE(buf, e.Magic)

	var cmd [CommandLen]byte
	copy(cmd[:], e.Command)
	buf = append(buf, cmd[:]...)

	buf = PutUint32LE(buf, uint32(len(e.Payload)))
	checksum := e.Checksum()
	buf = append(buf, checksum[:]...)
	buf = append(buf, e.Payload...)
	return buf, nil
}

// DecodeEnvelope parses a single envelope from c, validating magic and
// checksum. The command string is trimmed of its NUL padding; a non-ASCII
// or otherwise malformed command is rejected.
func DecodeEnvelope(c *Cursor) (Envelope, error) {
	magic, err := c.ReadUint32LE()
	if err != nil {
		return Envelope{}, err
	}
	if magic != TestNet3Magic {
		return Envelope{}, fmt.Errorf("%w: bad magic 0x%x", spverr.ErrMalformedField, magic)
	}

	cmdBytes, err := c.Next(CommandLen)
	if err != nil {
		return Envelope{}, err
	}
	cmd, err := parseCommand(cmdBytes)
	if err != nil {
		return Envelope{}, err
	}

	length, err := c.ReadUint32LE()
	if err != nil {
		return Envelope{}, err
	}
	checksumBytes, err := c.Next(4)
	if err != nil {
		return Envelope{}, err
	}
	payload, err := c.Next(int(length))
	if err != nil {
		return Envelope{}, err
	}

	e := Envelope{Magic: magic, Command: cmd, Payload: append([]byte(nil), payload...)}
	got := e.Checksum()
	if !bytes.Equal(got[:], checksumBytes) {
		return Envelope{}, spverr.ErrChecksumMismatch
	}
	if !IsSupportedCommand(cmd) {
		return Envelope{}, fmt.Errorf("%w: %q", spverr.ErrUnknownCommand, cmd)
	}
	return e, nil
}

// parseCommand trims the NUL padding from a 12-byte command field and
// validates it is printable ASCII.
func parseCommand(b []byte) (string, error) {
	n := bytes.IndexByte(b, 0)
	if n == -1 {
		n = len(b)
	}
	for _, c := range b[n:] {
		if c != 0 {
			return "", fmt.Errorf("%w: command field has data after NUL", spverr.ErrMalformedField)
		}
	}
	for _, c := range b[:n] {
		if c < 0x20 || c > 0x7e {
			return "", fmt.Errorf("%w: non-ASCII command byte", spverr.ErrMalformedField)
		}
	}
	return string(b[:n]), nil
}
