package peer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Acktarius/hnsgo/chain"
)

func TestVersionMessageRoundTrip(t *testing.T) {
	v := &VersionMessage{ProtocolVersion: 1, Services: 3, Time: 123456, Height: 136149, Nonce: 0xdeadbeefcafef00d}
	got, err := DecodeVersionMessage(v.Encode())
	assert.NoError(t, err)
	assert.Equal(t, v, got)
}

func TestGetHeadersMessageRoundTrip(t *testing.T) {
	g := &GetHeadersMessage{Locator: []chain.Hash{{1}, {2}, {3}}, Stop: chain.Hash{}}
	got, err := DecodeGetHeadersMessage(g.Encode())
	assert.NoError(t, err)
	assert.Equal(t, g, got)
}

func TestHeadersMessageRoundTrip(t *testing.T) {
	h1 := &chain.Header{Nonce: 1}
	h2 := &chain.Header{Nonce: 2}
	hm := &HeadersMessage{Headers: []*chain.Header{h1, h2}}
	got, err := DecodeHeadersMessage(hm.Encode())
	assert.NoError(t, err)
	assert.Equal(t, hm.Headers, got.Headers)
}

func TestGetProofMessageRoundTrip(t *testing.T) {
	g := &GetProofMessage{Root: chain.Hash{9}, Key: [32]byte{8}}
	got, err := DecodeGetProofMessage(g.Encode())
	assert.NoError(t, err)
	assert.Equal(t, g, got)
}

func TestProofMessageRoundTrip(t *testing.T) {
	p := &ProofMessage{Root: chain.Hash{1}, Key: [32]byte{2}, Encoded: []byte{0xaa, 0xbb, 0xcc}}
	got, err := DecodeProofMessage(p.Encode())
	assert.NoError(t, err)
	assert.Equal(t, p, got)
}
