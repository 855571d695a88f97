package peer

import (
	"sync"

	"github.com/Acktarius/hnsgo/chain"
)

// ConnPool adapts a set of live connections to chain.PeerPool: each round
// tries connections in order, skipping ones already demoted this round
// (§4.5 Error policy).
type ConnPool struct {
	mu      sync.Mutex
	conns   []*Conn
	tried   map[*Conn]bool
	demoted map[*Conn]bool
}

// NewConnPool wraps an initial set of established connections.
func NewConnPool(conns ...*Conn) *ConnPool {
	return &ConnPool{conns: conns, tried: map[*Conn]bool{}, demoted: map[*Conn]bool{}}
}

// Add registers a newly established connection with the pool.
func (p *ConnPool) Add(c *Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conns = append(p.conns, c)
}

// Remove drops a connection permanently, e.g. after a framing/protocol
// error that should not just demote it for one round (§7).
func (p *ConnPool) Remove(c *Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, cc := range p.conns {
		if cc == c {
			p.conns = append(p.conns[:i], p.conns[i+1:]...)
			break
		}
	}
	delete(p.demoted, c)
	delete(p.tried, c)
}

// NewRound resets the per-round tried and demoted sets, satisfying
// chain.PeerPool: a demotion only drops a peer from rotation for the round
// in which it failed (§4.5 Error policy), not permanently — use Remove for
// that.
func (p *ConnPool) NewRound() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tried = map[*Conn]bool{}
	p.demoted = map[*Conn]bool{}
}

// Next returns an untried, non-demoted connection for this round, or nil if
// none remain, satisfying chain.PeerPool.
func (p *ConnPool) Next() chain.HeaderSource {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.conns {
		if p.tried[c] || p.demoted[c] {
			continue
		}
		p.tried[c] = true
		return c
	}
	return nil
}

// Demote marks src as unusable for the remainder of this round, satisfying
// chain.PeerPool.
func (p *ConnPool) Demote(src chain.HeaderSource) {
	c, ok := src.(*Conn)
	if !ok {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.demoted[c] = true
}

// Len reports how many connections the pool currently holds.
func (p *ConnPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}

// Any returns an arbitrary live connection, useful for one-off requests
// like getproof that don't need round-robin rotation.
func (p *ConnPool) Any() *Conn {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.conns {
		if !p.demoted[c] {
			return c
		}
	}
	return nil
}
