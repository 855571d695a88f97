package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func buildTestChain(n int, window int) *Chain {
	var headers []*Header
	prev := Hash{}
	for i := 0; i < n; i++ {
		h := &Header{Time: uint64(i), PrevBlock: prev}
		h.NameRoot[0] = byte(i)
		prev = CompositeHash(h)
		headers = append(headers, h)
	}
	return NewChain(0, headers, window)
}

func TestLocatorSingleHeaderChain(t *testing.T) {
	c := buildTestChain(1, 150)
	loc := c.BuildLocator()
	assert.Len(t, loc, 1)
	tipHash, _ := c.TipHash()
	assert.Equal(t, tipHash, loc[0])
}

func TestLocatorDeterministic(t *testing.T) {
	c := buildTestChain(200, 150)
	l1 := c.BuildLocator()
	l2 := c.BuildLocator()
	assert.Equal(t, l1, l2)
}

func TestLocatorBounded(t *testing.T) {
	c := buildTestChain(200, 150)
	loc := c.BuildLocator()
	assert.LessOrEqual(t, len(loc), MaxLocatorEntries)
	assert.NotEmpty(t, loc)
}

func TestLocatorStrictlyDecreasingHeights(t *testing.T) {
	c := buildTestChain(200, 150)
	loc := c.BuildLocator()

	heightOf := make(map[Hash]uint64, len(c.hashes))
	for i, h := range c.hashes {
		heightOf[h] = c.firstHeight + uint64(i)
	}

	var lastHeight uint64
	first := true
	for _, h := range loc {
		if h.IsZero() {
			continue // genesis sentinel carries no height
		}
		ht, ok := heightOf[h]
		if !ok {
			continue // entries below the in-memory floor aren't addressable
		}
		if !first {
			assert.Less(t, ht, lastHeight, "locator heights must strictly decrease")
		}
		lastHeight = ht
		first = false
	}
}
