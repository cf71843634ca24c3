// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "fmt"

// Message is implemented by every decoded P2P message body. Command
// identifies the envelope command string it travels under; Encode returns
// its payload bytes (the envelope itself is built separately).
type Message interface {
	Command() string
	Encode() []byte
}

// DecodeMessage decodes payload according to cmd, the envelope's command
// string. It is the single dispatch point the session reader calls after
// DecodeEnvelope has validated magic and checksum.
func DecodeMessage(cmd string, payload []byte) (Message, error) {
	c := NewCursor(payload)
	switch cmd {
	case CmdVersion:
		return decodeMsgVersion(c)
	case CmdVerAck:
		return &MsgVerAck{}, nil
	case CmdPing:
		return decodeMsgPing(c)
	case CmdPong:
		return decodeMsgPong(c)
	case CmdAddr:
		return decodeMsgAddr(c)
	case CmdAddr2:
		return decodeMsgAddr2(c)
	case CmdGetAddr:
		return &MsgGetAddr{}, nil
	case CmdHeaders:
		return decodeMsgHeaders(c)
	case CmdGetHeaders:
		return decodeMsgGetHeaders(c)
	case CmdBlock:
		return decodeMsgBlock(c)
	case CmdBlockHdrs:
		return decodeMsgBlockHeaders(c)
	case CmdInv:
		return decodeMsgInv(c)
	case CmdGetData:
		return decodeMsgGetData(c)
	case CmdNotFound:
		return decodeMsgNotFound(c)
	case CmdMerkleBlock:
		return decodeMsgMerkleBlock(c)
	case CmdTx:
		return decodeMsgTx(c)
	case CmdMempool:
		return &MsgMempool{}, nil
	case CmdFilterLoad:
		return decodeMsgFilterLoad(c)
	case CmdFilterClear:
		return &MsgFilterClear{}, nil
	case CmdSendHeaders:
		return &MsgSendHeaders{}, nil
	case CmdReject:
		return decodeMsgReject(c)
	case CmdCmpctBlock:
		return decodeMsgCmpctBlock(c)
	case CmdGetBlockTxn:
		return decodeMsgGetBlockTxn(c)
	case CmdBlockTxn:
		return decodeMsgBlockTxn(c)
	default:
		return nil, fmt.Errorf("decode: %s", cmd)
	}
}

// --- version ---

// MsgVersion is the handshake's first message: protocol parameters and
// identity. Relay indicates whether the peer wants unsolicited inv
// messages for new transactions (BIP0037Version and later).
type MsgVersion struct {
	ProtocolVersion int32
	Services        uint64
	Timestamp       int64
	AddrRecv        NetAddress
	AddrFrom        NetAddress
	Nonce           uint64
	UserAgent       string
	StartHeight     int32
	Relay           bool
}

func (m *MsgVersion) Command() string { return CmdVersion }

func (m *MsgVersion) Encode() []byte {
	buf := make([]byte, 0, 128)
	buf = PutInt32LE(buf, m.ProtocolVersion)
	buf = PutUint64LE(buf, m.Services)
	buf = PutInt64LE(buf, m.Timestamp)
	buf = m.AddrRecv.serializeNoTime(buf)
	buf = m.AddrFrom.serializeNoTime(buf)
	buf = PutUint64LE(buf, m.Nonce)
	buf = PutVarString(buf, m.UserAgent)
	buf = PutInt32LE(buf, m.StartHeight)
	relay := byte(0)
	if m.Relay {
		relay = 1
	}
	return PutUint8(buf, relay)
}

func decodeMsgVersion(c *Cursor) (*MsgVersion, error) {
	m := &MsgVersion{}
	var err error
	if m.ProtocolVersion, err = c.ReadInt32LE(); err != nil {
		return nil, err
	}
	if m.Services, err = c.ReadUint64LE(); err != nil {
		return nil, err
	}
	if m.Timestamp, err = c.ReadInt64LE(); err != nil {
		return nil, err
	}
	recv, err := decodeNetAddressNoTime(c)
	if err != nil {
		return nil, err
	}
	m.AddrRecv = *recv
	from, err := decodeNetAddressNoTime(c)
	if err != nil {
		return nil, err
	}
	m.AddrFrom = *from
	if m.Nonce, err = c.ReadUint64LE(); err != nil {
		return nil, err
	}
	if m.UserAgent, err = c.ReadVarString(); err != nil {
		return nil, err
	}
	if m.StartHeight, err = c.ReadInt32LE(); err != nil {
		return nil, err
	}
	relay, err := c.ReadUint8()
	if err != nil {
		return nil, err
	}
	m.Relay = relay != 0
	return m, nil
}

// --- verack ---

// MsgVerAck has an empty body; it acknowledges a received version.
type MsgVerAck struct{}

func (m *MsgVerAck) Command() string { return CmdVerAck }
func (m *MsgVerAck) Encode() []byte  { return nil }

// --- ping / pong ---

// MsgPing carries a nonce the peer must echo back in a pong.
type MsgPing struct{ Nonce uint64 }

func (m *MsgPing) Command() string { return CmdPing }
func (m *MsgPing) Encode() []byte  { return PutUint64LE(nil, m.Nonce) }

func decodeMsgPing(c *Cursor) (*MsgPing, error) {
	n, err := c.ReadUint64LE()
	return &MsgPing{Nonce: n}, err
}

// MsgPong echoes the nonce from a ping.
type MsgPong struct{ Nonce uint64 }

func (m *MsgPong) Command() string { return CmdPong }
func (m *MsgPong) Encode() []byte  { return PutUint64LE(nil, m.Nonce) }

func decodeMsgPong(c *Cursor) (*MsgPong, error) {
	n, err := c.ReadUint64LE()
	return &MsgPong{Nonce: n}, err
}

// --- addr / addr2 / getaddr ---

// MsgAddr advertises known peer addresses, each timestamped.
type MsgAddr struct{ AddrList []NetAddress }

func (m *MsgAddr) Command() string { return CmdAddr }
func (m *MsgAddr) Encode() []byte  { return encodeAddrList(m.AddrList) }

func encodeAddrList(addrs []NetAddress) []byte {
	buf := PutCompactSize(nil, NewCompactSize(uint64(len(addrs))))
	for i := range addrs {
		buf = addrs[i].serializeWithTime(buf)
	}
	return buf
}

func decodeMsgAddr(c *Cursor) (*MsgAddr, error) {
	addrs, err := decodeAddrList(c)
	return &MsgAddr{AddrList: addrs}, err
}

func decodeAddrList(c *Cursor) ([]NetAddress, error) {
	count, err := c.ReadCompactSize()
	if err != nil {
		return nil, err
	}
	out := make([]NetAddress, count.Value)
	for i := range out {
		na, err := decodeNetAddressWithTime(c)
		if err != nil {
			return nil, err
		}
		out[i] = *na
	}
	return out, nil
}

// MsgAddr2 is this node's addrv2-style variant. The retrieved spec leaves
// its wire body unspecified beyond the command name; this implementation
// mirrors addr's body (CompactSize count of timestamped NetAddresses) so
// the round-trip property in spec §8 still holds for locally produced
// messages, even though it is not a byte-for-byte rendition of BIP155.
type MsgAddr2 struct{ AddrList []NetAddress }

func (m *MsgAddr2) Command() string { return CmdAddr2 }
func (m *MsgAddr2) Encode() []byte  { return encodeAddrList(m.AddrList) }

func decodeMsgAddr2(c *Cursor) (*MsgAddr2, error) {
	addrs, err := decodeAddrList(c)
	return &MsgAddr2{AddrList: addrs}, err
}

// MsgGetAddr has an empty body; it requests known peer addresses.
type MsgGetAddr struct{}

func (m *MsgGetAddr) Command() string { return CmdGetAddr }
func (m *MsgGetAddr) Encode() []byte  { return nil }

// --- headers / getheaders / blockheaders ---

// MsgHeaders carries a batch of headers. Each is followed by a trailing
// zero byte standing in for the (always empty) tx_count, per spec §4.2.
type MsgHeaders struct{ Headers []*BlockHeader }

func (m *MsgHeaders) Command() string { return CmdHeaders }

func (m *MsgHeaders) Encode() []byte {
	buf := PutCompactSize(nil, NewCompactSize(uint64(len(m.Headers))))
	for _, h := range m.Headers {
		buf = append(buf, h.Serialize()...)
		buf = PutUint8(buf, 0)
	}
	return buf
}

func decodeMsgHeaders(c *Cursor) (*MsgHeaders, error) {
	count, err := c.ReadCompactSize()
	if err != nil {
		return nil, err
	}
	m := &MsgHeaders{Headers: make([]*BlockHeader, count.Value)}
	for i := range m.Headers {
		h, err := DecodeBlockHeader(c)
		if err != nil {
			return nil, err
		}
		if _, err := c.ReadUint8(); err != nil { // trailing tx_count byte
			return nil, err
		}
		m.Headers[i] = h
	}
	return m, nil
}

// MsgGetHeaders requests headers starting after any of BlockLocators,
// stopping at HashStop (or the peer's tip if HashStop is the zero hash).
// Spec §4.9 uses exactly one locator hash: the current known tip.
type MsgGetHeaders struct {
	ProtocolVersion uint32
	BlockLocators    []Hash
	HashStop         Hash
}

func (m *MsgGetHeaders) Command() string { return CmdGetHeaders }

func (m *MsgGetHeaders) Encode() []byte {
	buf := PutUint32LE(nil, m.ProtocolVersion)
	buf = PutCompactSize(buf, NewCompactSize(uint64(len(m.BlockLocators))))
	for _, h := range m.BlockLocators {
		buf = PutHashReversed(buf, h)
	}
	return PutHashReversed(buf, m.HashStop)
}

func decodeMsgGetHeaders(c *Cursor) (*MsgGetHeaders, error) {
	m := &MsgGetHeaders{}
	var err error
	if m.ProtocolVersion, err = c.ReadUint32LE(); err != nil {
		return nil, err
	}
	count, err := c.ReadCompactSize()
	if err != nil {
		return nil, err
	}
	m.BlockLocators = make([]Hash, count.Value)
	for i := range m.BlockLocators {
		if m.BlockLocators[i], err = c.ReadHashReversed(); err != nil {
			return nil, err
		}
	}
	if m.HashStop, err = c.ReadHashReversed(); err != nil {
		return nil, err
	}
	return m, nil
}

// MsgBlockHeaders is this node's internal bulk-header transfer command,
// identical in shape to headers but without the per-header trailing byte
// (the original implementation's block_headers.rs keeps them distinct
// from the public "headers" command; preserved here for fidelity, unused
// by the session state machine which relies on the standard "headers").
type MsgBlockHeaders struct{ Headers []*BlockHeader }

func (m *MsgBlockHeaders) Command() string { return CmdBlockHdrs }

func (m *MsgBlockHeaders) Encode() []byte {
	buf := PutCompactSize(nil, NewCompactSize(uint64(len(m.Headers))))
	for _, h := range m.Headers {
		buf = append(buf, h.Serialize()...)
	}
	return buf
}

func decodeMsgBlockHeaders(c *Cursor) (*MsgBlockHeaders, error) {
	count, err := c.ReadCompactSize()
	if err != nil {
		return nil, err
	}
	m := &MsgBlockHeaders{Headers: make([]*BlockHeader, count.Value)}
	for i := range m.Headers {
		if m.Headers[i], err = DecodeBlockHeader(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// --- inv / getdata / notfound ---

// InvType identifies the kind of object an InvItem names.
type InvType uint32

const (
	InvTx             InvType = 1
	InvBlock          InvType = 2
	InvFilteredBlock  InvType = 3
	InvCompactBlock   InvType = 4
)

// InvItem pairs an object type with its hash, the unit exchanged by inv,
// getdata, and notfound.
type InvItem struct {
	Type InvType
	Hash Hash
}

func encodeInvItems(items []InvItem) []byte {
	buf := PutCompactSize(nil, NewCompactSize(uint64(len(items))))
	for _, it := range items {
		buf = PutUint32LE(buf, uint32(it.Type))
		buf = PutHashReversed(buf, it.Hash)
	}
	return buf
}

func decodeInvItems(c *Cursor) ([]InvItem, error) {
	count, err := c.ReadCompactSize()
	if err != nil {
		return nil, err
	}
	out := make([]InvItem, count.Value)
	for i := range out {
		t, err := c.ReadUint32LE()
		if err != nil {
			return nil, err
		}
		h, err := c.ReadHashReversed()
		if err != nil {
			return nil, err
		}
		out[i] = InvItem{Type: InvType(t), Hash: h}
	}
	return out, nil
}

// MsgInv advertises known objects.
type MsgInv struct{ Items []InvItem }

func (m *MsgInv) Command() string { return CmdInv }
func (m *MsgInv) Encode() []byte  { return encodeInvItems(m.Items) }

func decodeMsgInv(c *Cursor) (*MsgInv, error) {
	items, err := decodeInvItems(c)
	return &MsgInv{Items: items}, err
}

// MsgGetData requests the full objects named by Items.
type MsgGetData struct{ Items []InvItem }

func (m *MsgGetData) Command() string { return CmdGetData }
func (m *MsgGetData) Encode() []byte  { return encodeInvItems(m.Items) }

func decodeMsgGetData(c *Cursor) (*MsgGetData, error) {
	items, err := decodeInvItems(c)
	return &MsgGetData{Items: items}, err
}

// MsgNotFound reports objects from a getdata request the peer does not
// have.
type MsgNotFound struct{ Items []InvItem }

func (m *MsgNotFound) Command() string { return CmdNotFound }
func (m *MsgNotFound) Encode() []byte  { return encodeInvItems(m.Items) }

func decodeMsgNotFound(c *Cursor) (*MsgNotFound, error) {
	items, err := decodeInvItems(c)
	return &MsgNotFound{Items: items}, err
}

// --- block / merkleblock / tx ---

// MsgBlock wraps a full block body.
type MsgBlock struct{ Block *Block }

func (m *MsgBlock) Command() string { return CmdBlock }
func (m *MsgBlock) Encode() []byte  { return m.Block.Serialize() }

func decodeMsgBlock(c *Cursor) (*MsgBlock, error) {
	b, err := DecodeBlock(c)
	return &MsgBlock{Block: b}, err
}

// MsgMerkleBlock wraps a merkle-block body.
type MsgMerkleBlock struct{ MerkleBlock *MerkleBlock }

func (m *MsgMerkleBlock) Command() string { return CmdMerkleBlock }
func (m *MsgMerkleBlock) Encode() []byte  { return m.MerkleBlock.Serialize() }

func decodeMsgMerkleBlock(c *Cursor) (*MsgMerkleBlock, error) {
	mb, err := DecodeMerkleBlock(c)
	return &MsgMerkleBlock{MerkleBlock: mb}, err
}

// MsgTx wraps a single transaction.
type MsgTx struct{ Tx *Transaction }

func (m *MsgTx) Command() string { return CmdTx }
func (m *MsgTx) Encode() []byte  { return m.Tx.Serialize() }

func decodeMsgTx(c *Cursor) (*MsgTx, error) {
	tx, err := DecodeTransaction(c)
	return &MsgTx{Tx: tx}, err
}

// --- mempool / filterload / filterclear / sendheaders ---

// MsgMempool has an empty body; it requests the peer's current
// inventory.
type MsgMempool struct{}

func (m *MsgMempool) Command() string { return CmdMempool }
func (m *MsgMempool) Encode() []byte  { return nil }

// MsgFilterLoad installs a bloom filter on the connection. This node only
// ever sends the zero-filter form (an empty Filter, which a BIP37 peer
// treats as matching every transaction), per spec §4.9 BlockSync.
type MsgFilterLoad struct {
	Filter    []byte
	HashFuncs uint32
	Tweak     uint32
	Flags     uint8
}

func (m *MsgFilterLoad) Command() string { return CmdFilterLoad }

func (m *MsgFilterLoad) Encode() []byte {
	buf := PutVarBytes(nil, m.Filter)
	buf = PutUint32LE(buf, m.HashFuncs)
	buf = PutUint32LE(buf, m.Tweak)
	return PutUint8(buf, m.Flags)
}

func decodeMsgFilterLoad(c *Cursor) (*MsgFilterLoad, error) {
	m := &MsgFilterLoad{}
	var err error
	if m.Filter, err = c.ReadVarBytes(); err != nil {
		return nil, err
	}
	if m.HashFuncs, err = c.ReadUint32LE(); err != nil {
		return nil, err
	}
	if m.Tweak, err = c.ReadUint32LE(); err != nil {
		return nil, err
	}
	if m.Flags, err = c.ReadUint8(); err != nil {
		return nil, err
	}
	return m, nil
}

// ZeroFilterLoad returns the zero-filter MsgFilterLoad this node sends
// once at the start of BlockSync.
func ZeroFilterLoad() *MsgFilterLoad {
	return &MsgFilterLoad{Filter: []byte{}, HashFuncs: 0, Tweak: 0, Flags: 0}
}

// MsgFilterClear has an empty body; it removes any installed bloom
// filter. Spec §9 notes the original implementation misspelled this
// command "filterccean" — this implementation always emits the correct
// "filterclear".
type MsgFilterClear struct{}

func (m *MsgFilterClear) Command() string { return CmdFilterClear }
func (m *MsgFilterClear) Encode() []byte  { return nil }

// MsgSendHeaders has an empty body; it asks the peer to announce new
// blocks with a headers message rather than inv.
type MsgSendHeaders struct{}

func (m *MsgSendHeaders) Command() string { return CmdSendHeaders }
func (m *MsgSendHeaders) Encode() []byte  { return nil }

// --- reject ---

// MsgReject reports that a previously sent message was rejected.
type MsgReject struct {
	Message string
	Code    uint8
	Reason  string
	Data    Hash
}

func (m *MsgReject) Command() string { return CmdReject }

func (m *MsgReject) Encode() []byte {
	buf := PutVarString(nil, m.Message)
	buf = PutUint8(buf, m.Code)
	buf = PutVarString(buf, m.Reason)
	return PutHashReversed(buf, m.Data)
}

func decodeMsgReject(c *Cursor) (*MsgReject, error) {
	m := &MsgReject{}
	var err error
	if m.Message, err = c.ReadVarString(); err != nil {
		return nil, err
	}
	if m.Code, err = c.ReadUint8(); err != nil {
		return nil, err
	}
	if m.Reason, err = c.ReadVarString(); err != nil {
		return nil, err
	}
	if m.Data, err = c.ReadHashReversed(); err != nil {
		return nil, err
	}
	return m, nil
}

// --- cmpctblock / getblocktxn / blocktxn ---

// PrefilledTx is a transaction a compact-block sender chose to include in
// full rather than as a shortid (always the coinbase, at minimum).
type PrefilledTx struct {
	Index uint64
	Tx    *Transaction
}

// MsgCmpctBlock announces a block via header, nonce, a list of 8-byte
// shortids, and any prefilled (full) transactions, per spec §4.2/§9.
type MsgCmpctBlock struct {
	Header       BlockHeader
	Nonce        uint64
	ShortIDs     [][8]byte
	PrefilledTxs []PrefilledTx
}

func (m *MsgCmpctBlock) Command() string { return CmdCmpctBlock }

func (m *MsgCmpctBlock) Encode() []byte {
	buf := append([]byte(nil), m.Header.Serialize()...)
	buf = PutUint64LE(buf, m.Nonce)
	buf = PutCompactSize(buf, NewCompactSize(uint64(len(m.ShortIDs))))
	for _, s := range m.ShortIDs {
		buf = append(buf, s[:]...)
	}
	buf = PutCompactSize(buf, NewCompactSize(uint64(len(m.PrefilledTxs))))
	for _, p := range m.PrefilledTxs {
		buf = PutCompactSize(buf, NewCompactSize(p.Index))
		buf = append(buf, p.Tx.Serialize()...)
	}
	return buf
}

func decodeMsgCmpctBlock(c *Cursor) (*MsgCmpctBlock, error) {
	hdr, err := DecodeBlockHeader(c)
	if err != nil {
		return nil, err
	}
	m := &MsgCmpctBlock{Header: *hdr}
	if m.Nonce, err = c.ReadUint64LE(); err != nil {
		return nil, err
	}
	sidCount, err := c.ReadCompactSize()
	if err != nil {
		return nil, err
	}
	m.ShortIDs = make([][8]byte, sidCount.Value)
	for i := range m.ShortIDs {
		b, err := c.Next(8)
		if err != nil {
			return nil, err
		}
		copy(m.ShortIDs[i][:], b)
	}
	pCount, err := c.ReadCompactSize()
	if err != nil {
		return nil, err
	}
	m.PrefilledTxs = make([]PrefilledTx, pCount.Value)
	for i := range m.PrefilledTxs {
		idx, err := c.ReadCompactSize()
		if err != nil {
			return nil, err
		}
		tx, err := DecodeTransaction(c)
		if err != nil {
			return nil, err
		}
		m.PrefilledTxs[i] = PrefilledTx{Index: idx.Value, Tx: tx}
	}
	return m, nil
}

// MsgGetBlockTxn requests specific transactions, by index, from a
// previously announced compact block.
type MsgGetBlockTxn struct {
	BlockHash Hash
	Indexes   []uint64
}

func (m *MsgGetBlockTxn) Command() string { return CmdGetBlockTxn }

func (m *MsgGetBlockTxn) Encode() []byte {
	buf := PutHashReversed(nil, m.BlockHash)
	buf = PutCompactSize(buf, NewCompactSize(uint64(len(m.Indexes))))
	for _, idx := range m.Indexes {
		buf = PutCompactSize(buf, NewCompactSize(idx))
	}
	return buf
}

func decodeMsgGetBlockTxn(c *Cursor) (*MsgGetBlockTxn, error) {
	m := &MsgGetBlockTxn{}
	var err error
	if m.BlockHash, err = c.ReadHashReversed(); err != nil {
		return nil, err
	}
	count, err := c.ReadCompactSize()
	if err != nil {
		return nil, err
	}
	m.Indexes = make([]uint64, count.Value)
	for i := range m.Indexes {
		cs, err := c.ReadCompactSize()
		if err != nil {
			return nil, err
		}
		m.Indexes[i] = cs.Value
	}
	return m, nil
}

// MsgBlockTxn answers a getblocktxn with the requested full transactions.
type MsgBlockTxn struct {
	BlockHash    Hash
	Transactions []*Transaction
}

func (m *MsgBlockTxn) Command() string { return CmdBlockTxn }

func (m *MsgBlockTxn) Encode() []byte {
	buf := PutHashReversed(nil, m.BlockHash)
	buf = PutCompactSize(buf, NewCompactSize(uint64(len(m.Transactions))))
	for _, tx := range m.Transactions {
		buf = append(buf, tx.Serialize()...)
	}
	return buf
}

func decodeMsgBlockTxn(c *Cursor) (*MsgBlockTxn, error) {
	m := &MsgBlockTxn{}
	var err error
	if m.BlockHash, err = c.ReadHashReversed(); err != nil {
		return nil, err
	}
	count, err := c.ReadCompactSize()
	if err != nil {
		return nil, err
	}
	m.Transactions = make([]*Transaction, count.Value)
	for i := range m.Transactions {
		if m.Transactions[i], err = DecodeTransaction(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
