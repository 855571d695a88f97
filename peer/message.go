// Package peer implements peer discovery, the bounded learned-peer set, and
// the framed P2P connection: version handshake, ping/pong keep-alive, and
// the getheaders/headers and getproof/proof exchanges (spec.md §4.3, §4.4).
package peer

import (
	"github.com/Acktarius/hnsgo/chain"
	"github.com/Acktarius/hnsgo/wire"
)

// Command is the one-byte P2P message type (§4.4, §6).
type Command uint8

const (
	CmdVersion     Command = 0
	CmdVerack      Command = 1
	CmdPing        Command = 2
	CmdPong        Command = 3
	CmdGetAddr     Command = 4
	CmdAddr        Command = 5
	CmdGetHeaders  Command = 10
	CmdHeaders     Command = 11
	CmdSendHeaders Command = 12
	CmdNotFound    Command = 22
	CmdGetProof    Command = 26
	CmdProof       Command = 27
)

// VersionMessage is the payload of the version command: enough for both
// sides to record an advisory network tip and a random nonce for
// self-connection detection.
type VersionMessage struct {
	ProtocolVersion uint32
	Services        uint64
	Time            uint64
	Height          uint32
	Nonce           uint64
}

// Encode serializes a VersionMessage.
func (v *VersionMessage) Encode() []byte {
	w := wire.NewWriter(24)
	w.PutU32(v.ProtocolVersion)
	w.PutU64(v.Services)
	w.PutU64(v.Time)
	w.PutU32(v.Height)
	w.PutU64(v.Nonce)
	return w.Bytes()
}

// DecodeVersionMessage parses a VersionMessage.
func DecodeVersionMessage(buf []byte) (*VersionMessage, error) {
	r := wire.NewReader(buf)
	v := &VersionMessage{}
	var err error
	if v.ProtocolVersion, err = r.U32(); err != nil {
		return nil, err
	}
	if v.Services, err = r.U64(); err != nil {
		return nil, err
	}
	if v.Time, err = r.U64(); err != nil {
		return nil, err
	}
	if v.Height, err = r.U32(); err != nil {
		return nil, err
	}
	if v.Nonce, err = r.U64(); err != nil {
		return nil, err
	}
	return v, nil
}

// GetHeadersMessage is the payload of the getheaders command (§4.5).
type GetHeadersMessage struct {
	Locator []chain.Hash
	Stop    chain.Hash
}

// Encode serializes a GetHeadersMessage.
func (g *GetHeadersMessage) Encode() []byte {
	w := wire.NewWriter(4 + len(g.Locator)*chain.HashSize + chain.HashSize)
	w.PutU32(uint32(len(g.Locator)))
	for _, h := range g.Locator {
		w.PutBytes(h[:])
	}
	w.PutBytes(g.Stop[:])
	return w.Bytes()
}

// DecodeGetHeadersMessage parses a GetHeadersMessage.
func DecodeGetHeadersMessage(buf []byte) (*GetHeadersMessage, error) {
	r := wire.NewReader(buf)
	n, err := r.U32()
	if err != nil {
		return nil, err
	}
	g := &GetHeadersMessage{Locator: make([]chain.Hash, 0, n)}
	for i := uint32(0); i < n; i++ {
		b, err := r.Bytes(chain.HashSize)
		if err != nil {
			return nil, err
		}
		var h chain.Hash
		copy(h[:], b)
		g.Locator = append(g.Locator, h)
	}
	stop, err := r.Bytes(chain.HashSize)
	if err != nil {
		return nil, err
	}
	copy(g.Stop[:], stop)
	return g, nil
}

// HeadersMessage is the payload of the headers command: a batch of
// 236-byte headers in wire order (§4.5).
type HeadersMessage struct {
	Headers []*chain.Header
}

// Encode serializes a HeadersMessage.
func (h *HeadersMessage) Encode() []byte {
	w := wire.NewWriter(4 + len(h.Headers)*chain.HeaderSize)
	w.PutU32(uint32(len(h.Headers)))
	for _, hdr := range h.Headers {
		w.PutBytes(hdr.Encode())
	}
	return w.Bytes()
}

// DecodeHeadersMessage parses a HeadersMessage.
func DecodeHeadersMessage(buf []byte) (*HeadersMessage, error) {
	r := wire.NewReader(buf)
	n, err := r.U32()
	if err != nil {
		return nil, err
	}
	out := &HeadersMessage{Headers: make([]*chain.Header, 0, n)}
	for i := uint32(0); i < n; i++ {
		b, err := r.Bytes(chain.HeaderSize)
		if err != nil {
			return nil, err
		}
		hdr, err := chain.Decode(b)
		if err != nil {
			return nil, err
		}
		out.Headers = append(out.Headers, hdr)
	}
	return out, nil
}

// GetProofMessage is the payload of the getproof command (§4.6, §6):
// root(32) || key(32).
type GetProofMessage struct {
	Root chain.Hash
	Key  [32]byte
}

// Encode serializes a GetProofMessage.
func (g *GetProofMessage) Encode() []byte {
	w := wire.NewWriter(64)
	w.PutBytes(g.Root[:])
	w.PutBytes(g.Key[:])
	return w.Bytes()
}

// DecodeGetProofMessage parses a GetProofMessage.
func DecodeGetProofMessage(buf []byte) (*GetProofMessage, error) {
	r := wire.NewReader(buf)
	root, err := r.Bytes(32)
	if err != nil {
		return nil, err
	}
	key, err := r.Bytes(32)
	if err != nil {
		return nil, err
	}
	g := &GetProofMessage{}
	copy(g.Root[:], root)
	copy(g.Key[:], key)
	return g, nil
}

// ProofMessage is the payload of the proof command: root(32) || key(32) ||
// encoded_proof(...) (§4.6, §6).
type ProofMessage struct {
	Root    chain.Hash
	Key     [32]byte
	Encoded []byte
}

// Encode serializes a ProofMessage.
func (p *ProofMessage) Encode() []byte {
	w := wire.NewWriter(64 + len(p.Encoded))
	w.PutBytes(p.Root[:])
	w.PutBytes(p.Key[:])
	w.PutBytes(p.Encoded)
	return w.Bytes()
}

// DecodeProofMessage parses a ProofMessage.
func DecodeProofMessage(buf []byte) (*ProofMessage, error) {
	r := wire.NewReader(buf)
	root, err := r.Bytes(32)
	if err != nil {
		return nil, err
	}
	key, err := r.Bytes(32)
	if err != nil {
		return nil, err
	}
	rest, err := r.Bytes(r.Len())
	if err != nil {
		return nil, err
	}
	p := &ProofMessage{Encoded: append([]byte(nil), rest...)}
	copy(p.Root[:], root)
	copy(p.Key[:], key)
	return p, nil
}
