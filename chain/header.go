// Package chain implements the 236-byte header codec, the composite header
// hash, the bounded header chain, its on-disk store, locator construction,
// and the single-threaded header sync engine (spec.md §3, §4.1, §4.2, §4.5).
package chain

import (
	"encoding/binary"
	"errors"

	"github.com/Acktarius/hnsgo/wire"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// HeaderSize is the fixed wire length of a Header (§3).
const HeaderSize = 236

// HashSize is the width of every hash used in this package.
const HashSize = 32

// Hash is a composite header hash, the only identity used elsewhere.
type Hash [HashSize]byte

// IsZero reports whether h is the all-zero genesis sentinel.
func (h Hash) IsZero() bool { return h == Hash{} }

// ErrTruncatedHeader is returned by Decode when fewer than HeaderSize bytes
// are available.
var ErrTruncatedHeader = errors.New("chain: truncated header")

// Header is the 236-byte block header, fields in exact wire order (§3).
type Header struct {
	Nonce        uint32
	Time         uint64
	PrevBlock    Hash
	NameRoot     Hash
	ExtraNonce   [24]byte
	ReservedRoot Hash
	WitnessRoot  Hash
	MerkleRoot   Hash
	Version      uint32
	Bits         uint32
	Mask         Hash
}

// Encode writes h in its canonical 236-byte little-endian layout.
func (h *Header) Encode() []byte {
	w := wire.NewWriter(HeaderSize)
	w.PutU32(h.Nonce)
	w.PutU64(h.Time)
	w.PutBytes(h.PrevBlock[:])
	w.PutBytes(h.NameRoot[:])
	w.PutBytes(h.ExtraNonce[:])
	w.PutBytes(h.ReservedRoot[:])
	w.PutBytes(h.WitnessRoot[:])
	w.PutBytes(h.MerkleRoot[:])
	w.PutU32(h.Version)
	w.PutU32(h.Bits)
	w.PutBytes(h.Mask[:])
	return w.Bytes()
}

// Decode parses a 236-byte buffer into a Header.
func Decode(buf []byte) (*Header, error) {
	if len(buf) < HeaderSize {
		return nil, ErrTruncatedHeader
	}
	r := wire.NewReader(buf[:HeaderSize])
	h := &Header{}
	var err error
	if h.Nonce, err = r.U32(); err != nil {
		return nil, err
	}
	if h.Time, err = r.U64(); err != nil {
		return nil, err
	}
	if h.PrevBlock, err = readHash(r); err != nil {
		return nil, err
	}
	if h.NameRoot, err = readHash(r); err != nil {
		return nil, err
	}
	en, err := r.Bytes(24)
	if err != nil {
		return nil, err
	}
	copy(h.ExtraNonce[:], en)
	if h.ReservedRoot, err = readHash(r); err != nil {
		return nil, err
	}
	if h.WitnessRoot, err = readHash(r); err != nil {
		return nil, err
	}
	if h.MerkleRoot, err = readHash(r); err != nil {
		return nil, err
	}
	if h.Version, err = r.U32(); err != nil {
		return nil, err
	}
	if h.Bits, err = r.U32(); err != nil {
		return nil, err
	}
	if h.Mask, err = readHash(r); err != nil {
		return nil, err
	}
	return h, nil
}

func readHash(r *wire.Reader) (Hash, error) {
	b, err := r.Bytes(HashSize)
	if err != nil {
		return Hash{}, err
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}

// CompositeHash computes the composite Blake2b+SHA3 digest with mask
// defined in §4.1. It never allocates beyond the fixed-size scratch buffers
// below and panics only if golang.org/x/crypto's hash constructors
// themselves fail, which they do not for the fixed sizes used here.
func CompositeHash(h *Header) Hash {
	pad32 := xor32(h.PrevBlock, h.NameRoot)
	pad20 := pad32[:20]
	pad8 := pad32[:8]

	subInput := make([]byte, 0, 128)
	subInput = append(subInput, h.ExtraNonce[:]...)
	subInput = append(subInput, h.ReservedRoot[:]...)
	subInput = append(subInput, h.WitnessRoot[:]...)
	subInput = append(subInput, h.MerkleRoot[:]...)
	subInput = append(subInput, le32(h.Version)...)
	subInput = append(subInput, le32(h.Bits)...)
	subHash := blake2b.Sum256(subInput)

	maskInput := make([]byte, 0, 64)
	maskInput = append(maskInput, h.PrevBlock[:]...)
	maskInput = append(maskInput, h.Mask[:]...)
	maskHash := blake2b.Sum256(maskInput)

	commitInput := make([]byte, 0, 64)
	commitInput = append(commitInput, subHash[:]...)
	commitInput = append(commitInput, maskHash[:]...)
	commitHash := blake2b.Sum256(commitInput)

	pre := make([]byte, 0, 128)
	pre = append(pre, le32(h.Nonce)...)
	pre = append(pre, le64(h.Time)...)
	pre = append(pre, pad20...)
	pre = append(pre, h.PrevBlock[:]...)
	pre = append(pre, h.NameRoot[:]...)
	pre = append(pre, commitHash[:]...)

	left := blake2b.Sum512(pre)

	rightInput := make([]byte, 0, len(pre)+8)
	rightInput = append(rightInput, pre...)
	rightInput = append(rightInput, pad8...)
	right := sha3.Sum256(rightInput)

	finalInput := make([]byte, 0, 64+32+32)
	finalInput = append(finalInput, left[:]...)
	finalInput = append(finalInput, pad32[:]...)
	finalInput = append(finalInput, right[:]...)
	hh := blake2b.Sum256(finalInput)

	return Hash(xor32(Hash(hh), h.Mask))
}

func xor32(a, b Hash) Hash {
	var out Hash
	for i := range out {
		out[i] = a[i] ^ b[i]
	}
	return out
}

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func le64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}
