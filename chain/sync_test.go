package chain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeSource answers RequestHeaders with a fixed batch once, then empty.
type fakeSource struct {
	batches       [][]*Header
	idx           int
	networkHeight uint64
	haveHeight    bool
}

func (f *fakeSource) RequestHeaders(ctx context.Context, locator []Hash) ([]*Header, error) {
	if f.idx >= len(f.batches) {
		return nil, nil
	}
	b := f.batches[f.idx]
	f.idx++
	return b, nil
}

func (f *fakeSource) NetworkHeight() (uint64, bool) { return f.networkHeight, f.haveHeight }

type fakePool struct {
	src HeaderSource
	hit bool
}

func (p *fakePool) NewRound()          { p.hit = false }
func (p *fakePool) Demote(HeaderSource) {}
func (p *fakePool) Next() HeaderSource {
	if p.hit {
		return nil
	}
	p.hit = true
	return p.src
}

func successorOf(h *Header, prevHash Hash, nonce uint32) *Header {
	return &Header{Nonce: nonce, Time: h.Time + 1, PrevBlock: prevHash, NameRoot: h.NameRoot}
}

func TestSyncerAppendsValidSuccessorsOnce(t *testing.T) {
	base := buildTestChain(1, 150)
	tipHeader, _ := base.Tip()
	tipHash, _ := base.TipHash()

	h1 := successorOf(tipHeader, tipHash, 1)
	h1Hash := CompositeHash(h1)
	h2 := successorOf(h1, h1Hash, 2)

	src := &fakeSource{batches: [][]*Header{{h1, h2}}}
	pool := &fakePool{src: src}

	syncer := NewSyncer(base, pool, nil, nil)
	n, _, _, err := syncer.round(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, uint64(2), base.TipHeight())
	assert.True(t, base.HasHash(h1Hash))
	assert.True(t, base.HasHash(CompositeHash(h2)))

	// Repeating the same batch must append nothing further: h1 no longer
	// links to the tip (stale), and h2 is the tip itself (duplicate tip).
	src2 := &fakeSource{batches: [][]*Header{{h1, h2}}}
	pool2 := &fakePool{src: src2}
	syncer2 := NewSyncer(base, pool2, nil, nil)
	n2, _, _, err := syncer2.round(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, n2)
	assert.Equal(t, uint64(2), base.TipHeight())
}

func TestSyncerRejectsHeaderAheadOfNetworkHeight(t *testing.T) {
	base := buildTestChain(1, 150)
	tipHeader, _ := base.Tip()
	tipHash, _ := base.TipHash()
	h1 := successorOf(tipHeader, tipHash, 1)

	src := &fakeSource{batches: [][]*Header{{h1}}, networkHeight: base.TipHeight(), haveHeight: true}
	pool := &fakePool{src: src}
	syncer := NewSyncer(base, pool, nil, nil)

	n, _, _, err := syncer.round(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, uint64(0), base.TipHeight())
}

func TestSyncerNoPeersReturnsErrNoPeers(t *testing.T) {
	base := buildTestChain(1, 150)
	pool := &fakePool{src: nil, hit: true} // Next() returns nil immediately
	syncer := NewSyncer(base, pool, nil, nil)
	_, _, _, err := syncer.round(context.Background())
	assert.Equal(t, ErrNoPeers, err)
}
