package proof

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/blake2b"

	"github.com/Acktarius/hnsgo/wire"
)

func nameStateBlob(name string, resourceBytes []byte) []byte {
	w := wire.NewWriter(1 + len(name) + 2 + len(resourceBytes))
	w.PutU8(uint8(len(name)))
	w.PutBytes([]byte(name))
	w.PutU16(uint16(len(resourceBytes)))
	w.PutBytes(resourceBytes)
	return w.Bytes()
}

func TestVerifyDepthZeroExists(t *testing.T) {
	key := NameHash("example")
	resourceBytes := []byte{0x06, 0x03, 'v', '=', '1'} // arbitrary opaque payload
	value := nameStateBlob("example", resourceBytes)

	valueHash := blake2b.Sum256(value)
	root := hashLeaf(key, valueHash)

	p := &Proof{Type: Exists, Depth: 0, Value: value}
	got, err := verifyProof(p, root, key)
	assert.NoError(t, err)
	assert.Equal(t, resourceBytes, got)
}

func TestVerifyShortSamePathRejected(t *testing.T) {
	var key [32]byte
	key[0] = 0xff // top bit set

	p := &Proof{
		Type:            Short,
		Depth:           0,
		ShortPrefixSize: 1,
		ShortPrefix:     []byte{0x80}, // matches key's first bit (1)
	}
	_, err := verifyProof(p, [32]byte{}, key)
	ve, ok := err.(*VerifyError)
	assert.True(t, ok)
	assert.Equal(t, ErrKindSamePath, ve.Kind)
}

func TestVerifyCollisionSameKeyRejected(t *testing.T) {
	var key [32]byte
	key[0] = 1
	p := &Proof{Type: Collision, Depth: 0, NxKey: key}
	_, err := verifyProof(p, [32]byte{}, key)
	ve, ok := err.(*VerifyError)
	assert.True(t, ok)
	assert.Equal(t, ErrKindSameKey, ve.Kind)
}

func TestVerifyHashMismatch(t *testing.T) {
	var key [32]byte
	p := &Proof{Type: Deadend, Depth: 0}
	bogusRoot := [32]byte{1, 2, 3}
	_, err := verifyProof(p, bogusRoot, key)
	ve, ok := err.(*VerifyError)
	assert.True(t, ok)
	assert.Equal(t, ErrKindHashMismatch, ve.Kind)
}

func TestVerifyWalksOneAncestor(t *testing.T) {
	var key [32]byte // all-zero key: every bit is 0
	nodeHash := [32]byte{7}

	// At depth 0 the zero leaf combines with nodeHash on the right, since
	// key bit 0 is 0.
	root := hashInternal(nil, 0, [32]byte{}, nodeHash)

	p := &Proof{
		Type:  Deadend,
		Depth: 1,
		Nodes: []Node{{HasPrefix: false, Hash: nodeHash}},
	}
	got, err := verifyProof(p, root, key)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestVerifyNegativeDepthRejected(t *testing.T) {
	var key [32]byte
	nodeHash := [32]byte{7}
	p := &Proof{
		Type:  Deadend,
		Depth: 0, // too shallow for one ancestor node
		Nodes: []Node{{HasPrefix: false, Hash: nodeHash}},
	}
	_, err := verifyProof(p, [32]byte{}, key)
	ve, ok := err.(*VerifyError)
	assert.True(t, ok)
	assert.Equal(t, ErrKindNegativeDepth, ve.Kind)
}

func TestVerifyPathMismatchOnPrefixNode(t *testing.T) {
	var key [32]byte // all-zero key
	nodeHash := [32]byte{7}
	// Ancestor claims a 1-bit prefix of "1", which cannot match an all-zero
	// key at any depth.
	p := &Proof{
		Type:  Deadend,
		Depth: 2,
		Nodes: []Node{{HasPrefix: true, PrefixSize: 1, Prefix: []byte{0x80}, Hash: nodeHash}},
	}
	_, err := verifyProof(p, [32]byte{}, key)
	ve, ok := err.(*VerifyError)
	assert.True(t, ok)
	assert.Equal(t, ErrKindPathMismatch, ve.Kind)
}
