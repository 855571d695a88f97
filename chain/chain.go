package chain

import (
	"errors"
	"sync"
)

// ErrEmptyChain is returned by accessors that require at least one header.
var ErrEmptyChain = errors.New("chain: empty chain")

// Chain is the bounded, duplicate-free, append-only header window (§3).
// Only the Syncer mutates it; other callers read it through its
// lock-guarded accessors or a Snapshot.
type Chain struct {
	mu          sync.RWMutex
	headers     []*Header
	hashes      []Hash
	firstHeight uint64
	window      int
	index       map[Hash]struct{}
}

// NewChain builds a chain seeded with headers starting at firstHeight,
// bounded to window entries (the W from §3).
func NewChain(firstHeight uint64, headers []*Header, window int) *Chain {
	c := &Chain{
		firstHeight: firstHeight,
		window:      window,
		index:       make(map[Hash]struct{}, len(headers)),
	}
	for _, h := range headers {
		hash := CompositeHash(h)
		c.headers = append(c.headers, h)
		c.hashes = append(c.hashes, hash)
		c.index[hash] = struct{}{}
	}
	c.trimLocked()
	return c
}

// Window returns the configured bounded-window size W.
func (c *Chain) Window() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.window
}

// Len reports how many headers are currently in memory.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.headers)
}

// FirstHeight returns the height of the oldest in-memory header.
func (c *Chain) FirstHeight() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.firstHeight
}

// TipHeight returns first_height + len - 1.
func (c *Chain) TipHeight() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tipHeightLocked()
}

func (c *Chain) tipHeightLocked() uint64 {
	if len(c.headers) == 0 {
		return 0
	}
	return c.firstHeight + uint64(len(c.headers)) - 1
}

// TipHash returns the composite hash of the current tip header.
func (c *Chain) TipHash() (Hash, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.hashes) == 0 {
		return Hash{}, ErrEmptyChain
	}
	return c.hashes[len(c.hashes)-1], nil
}

// Tip returns the current tip header.
func (c *Chain) Tip() (*Header, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.headers) == 0 {
		return nil, ErrEmptyChain
	}
	return c.headers[len(c.headers)-1], nil
}

// HasHash reports whether hash is already present in the duplicate index.
func (c *Chain) HasHash(hash Hash) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.index[hash]
	return ok
}

// HashAt returns the composite hash at height, if still in memory.
func (c *Chain) HashAt(height uint64) (Hash, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if height < c.firstHeight {
		return Hash{}, false
	}
	i := height - c.firstHeight
	if i >= uint64(len(c.hashes)) {
		return Hash{}, false
	}
	return c.hashes[i], true
}

// Append adds a header already validated by the caller (the Syncer), trims
// the head of the window if it now exceeds W, and updates the duplicate
// index accordingly (§3, §4.5 step 6).
func (c *Chain) Append(h *Header, hash Hash) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers = append(c.headers, h)
	c.hashes = append(c.hashes, hash)
	c.index[hash] = struct{}{}
	c.trimLocked()
}

func (c *Chain) trimLocked() {
	if c.window <= 0 {
		return
	}
	for len(c.headers) > c.window {
		evicted := c.hashes[0]
		delete(c.index, evicted)
		c.headers = c.headers[1:]
		c.hashes = c.hashes[1:]
		c.firstHeight++
	}
}

// Snapshot returns a point-in-time, independently readable copy of the
// chain, for readers that need a consistent view across several calls
// while the Syncer keeps mutating the live Chain (§3 Lifecycle &
// ownership, §5).
func (c *Chain) Snapshot() *Chain {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cp := &Chain{
		firstHeight: c.firstHeight,
		window:      c.window,
		headers:     append([]*Header(nil), c.headers...),
		hashes:      append([]Hash(nil), c.hashes...),
		index:       make(map[Hash]struct{}, len(c.index)),
	}
	for k := range c.index {
		cp.index[k] = struct{}{}
	}
	return cp
}

// NameRootOfTip returns the name_root committed by the current tip header,
// the value the proof client verifies every getproof response against.
func (c *Chain) NameRootOfTip() (Hash, error) {
	h, err := c.Tip()
	if err != nil {
		return Hash{}, err
	}
	return h.NameRoot, nil
}
