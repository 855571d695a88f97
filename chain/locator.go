package chain

// MaxLocatorEntries bounds the locator list built for getheaders (§4.5).
const MaxLocatorEntries = 64

// denseLocatorEntries is how many initial candidate heights are visited at
// step 1 before the step starts doubling (§4.5).
const denseLocatorEntries = 11

// BuildLocator constructs the exponentially-spaced ancestor-hash list used
// to request headers from a peer (§4.5). Candidate heights are visited
// strictly decreasing from the chain's tip; a candidate below the chain's
// in-memory floor is skipped (its hash isn't known) but still consumes a
// step in the 1-then-doubling schedule, so the walk still terminates in
// O(log height) passes even against an arbitrarily deep tip. If the next
// step would carry the walk past height 0 before height 0 itself was ever
// a visitable candidate, the genesis sentinel (32 zero bytes) is appended
// in its place.
func (c *Chain) BuildLocator() []Hash {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.headers) == 0 {
		return nil
	}

	height := c.tipHeightLocked()
	firstInMemory := c.firstHeight
	step := uint64(1)
	visited := 0

	var out []Hash
	for len(out) < MaxLocatorEntries {
		if height >= firstInMemory {
			idx := height - firstInMemory
			out = append(out, c.hashes[idx])
		}
		if height == 0 {
			break
		}
		visited++
		if visited >= denseLocatorEntries {
			step *= 2
		}
		if height < step {
			out = append(out, Hash{})
			break
		}
		height -= step
	}
	return out
}
