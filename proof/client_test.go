package proof

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/blake2b"

	"github.com/Acktarius/hnsgo/chain"
)

type fakeRequester struct {
	calls   int32
	encoded []byte
	err     error
}

func (f *fakeRequester) RequestProof(ctx context.Context, root chain.Hash, key [32]byte) ([]byte, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return f.encoded, nil
}

func buildExistsProofWire(t *testing.T, name string, resourceBytes []byte) ([]byte, chain.Hash) {
	t.Helper()
	key := NameHash(name)
	value := nameStateBlob(name, resourceBytes)
	valueHash := blake2b.Sum256(value)
	root := hashLeaf(key, valueHash)

	p := &Proof{Type: Exists, Depth: 0, Value: value}
	encoded := encodeProofForTest(p)
	return encoded, chain.Hash(root)
}

func TestClientGetProofExists(t *testing.T) {
	resourceBytes := []byte{0x06, 0x03, 'v', '=', '1'}
	encoded, root := buildExistsProofWire(t, "example", resourceBytes)
	fr := &fakeRequester{encoded: encoded}

	c := NewClient(2)
	rec, err := c.GetProof(context.Background(), fr, root, "example")
	assert.NoError(t, err)
	assert.True(t, rec.Exists)
	assert.Equal(t, resourceBytes, rec.ResourceBytes)
}

func TestClientGetProofNoPeer(t *testing.T) {
	c := NewClient(2)
	_, err := c.GetProof(context.Background(), nil, chain.Hash{}, "example")
	assert.ErrorIs(t, err, ErrNoPeer)
}

func TestClientGetProofRepeatLookupsNormalizeName(t *testing.T) {
	resourceBytes := []byte{0x06, 0x03, 'v', '=', '1'}
	encoded, root := buildExistsProofWire(t, "example", resourceBytes)
	fr := &fakeRequester{encoded: encoded}

	c := NewClient(2)
	// "Example." and "example" normalize to the same name, so both lookups
	// hash to the key the root was built for and verify. The calls are
	// sequential: concurrent collapsing of in-flight lookups is not checked.
	_, err1 := c.GetProof(context.Background(), fr, root, "Example.")
	_, err2 := c.GetProof(context.Background(), fr, root, "example")
	assert.NoError(t, err1)
	assert.NoError(t, err2)
}
