// Package proof decodes and verifies the radix-tree Merkle proofs a peer
// returns for a getproof request, and drives the request itself over an
// established P2P connection (§4.6).
package proof

import (
	"errors"

	"github.com/Acktarius/hnsgo/wire"
)

// Kind discriminates the four proof shapes (§3 Proof (radix-tree)).
type Kind uint8

const (
	Deadend Kind = iota
	Short
	Collision
	Exists
)

// MaxDepth bounds both the proof depth and the ancestor node count (§4.6).
const MaxDepth = 256

// MaxDataSize bounds an EXISTS tail's value length (§4.6, §9 GLOSSARY MAX_DATA).
const MaxDataSize = 512

var (
	ErrBadArgs    = errors.New("proof: bad arguments")
	ErrEncoding   = errors.New("proof: malformed encoding")
	ErrTooDeep    = errors.New("proof: depth exceeds maximum")
	ErrOversizeValue = errors.New("proof: EXISTS value exceeds MAX_DATA")
)

// Node is one ancestor entry in a proof (§3, §4.6): an optional prefix plus
// the 32-byte sibling hash.
type Node struct {
	HasPrefix  bool
	PrefixSize uint16
	Prefix     []byte
	Hash       [32]byte
}

// Proof is the decoded wire form of a getproof response payload, before
// verification (§4.6).
type Proof struct {
	Type  Kind
	Depth uint16
	Nodes []Node

	// SHORT tail.
	ShortPrefixSize uint16
	ShortPrefix     []byte
	ShortLeft       [32]byte
	ShortRight      [32]byte

	// COLLISION tail.
	NxKey  [32]byte
	NxHash [32]byte

	// EXISTS tail.
	Value []byte
}

// Decode parses a getproof response payload per the §4.6 wire layout.
func Decode(buf []byte) (*Proof, error) {
	r := wire.NewReader(buf)

	field, err := r.U16()
	if err != nil {
		return nil, ErrEncoding
	}
	typ := Kind(field >> 14)
	depth := field & 0x3fff
	if typ > Exists {
		return nil, ErrEncoding
	}
	if depth > MaxDepth {
		return nil, ErrTooDeep
	}

	count, err := r.U16()
	if err != nil {
		return nil, ErrEncoding
	}
	if count > MaxDepth {
		return nil, ErrTooDeep
	}

	var bitmap []byte
	if count > 0 {
		bitmap, err = r.Bytes(int((count + 7) / 8))
		if err != nil {
			return nil, ErrEncoding
		}
	}

	nodes := make([]Node, count)
	for i := uint16(0); i < count; i++ {
		hasPrefix := bitmap[i/8]&(1<<(i%8)) != 0
		n := Node{HasPrefix: hasPrefix}
		if hasPrefix {
			psz, err := r.VarShort()
			if err != nil {
				return nil, ErrEncoding
			}
			if psz < 1 || psz > MaxDepth {
				return nil, ErrEncoding
			}
			pbytes := int((psz + 7) / 8)
			prefix, err := r.Bytes(pbytes)
			if err != nil {
				return nil, ErrEncoding
			}
			n.PrefixSize = psz
			n.Prefix = append([]byte(nil), prefix...)
		}
		hash, err := r.Bytes(32)
		if err != nil {
			return nil, ErrEncoding
		}
		copy(n.Hash[:], hash)
		nodes[i] = n
	}

	p := &Proof{Type: typ, Depth: depth, Nodes: nodes}

	switch typ {
	case Deadend:
		// No tail.
	case Short:
		psz, err := r.VarShort()
		if err != nil {
			return nil, ErrEncoding
		}
		if psz < 1 || psz > MaxDepth {
			return nil, ErrEncoding
		}
		prefix, err := r.Bytes(int((psz + 7) / 8))
		if err != nil {
			return nil, ErrEncoding
		}
		left, err := r.Bytes(32)
		if err != nil {
			return nil, ErrEncoding
		}
		right, err := r.Bytes(32)
		if err != nil {
			return nil, ErrEncoding
		}
		p.ShortPrefixSize = psz
		p.ShortPrefix = append([]byte(nil), prefix...)
		copy(p.ShortLeft[:], left)
		copy(p.ShortRight[:], right)
	case Collision:
		nxKey, err := r.Bytes(32)
		if err != nil {
			return nil, ErrEncoding
		}
		nxHash, err := r.Bytes(32)
		if err != nil {
			return nil, ErrEncoding
		}
		copy(p.NxKey[:], nxKey)
		copy(p.NxHash[:], nxHash)
	case Exists:
		valueSize, err := r.U16()
		if err != nil {
			return nil, ErrEncoding
		}
		if valueSize > MaxDataSize {
			return nil, ErrOversizeValue
		}
		value, err := r.Bytes(int(valueSize))
		if err != nil {
			return nil, ErrEncoding
		}
		p.Value = append([]byte(nil), value...)
	}

	if r.Len() != 0 {
		return nil, ErrEncoding
	}
	return p, nil
}
