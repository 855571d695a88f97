package chain

import (
	"context"
	"errors"
	"time"

	"github.com/Acktarius/hnsgo/hlog"
)

// HeaderSource is the capability the Syncer needs from a peer connection:
// send a getheaders request built from a locator and wait for the headers
// response, or report the error taxonomy of §7 (Transport/Framing/Protocol).
// Implemented by *peer.Conn; declared here so this package never imports
// peer, breaking the would-be cycle peer -> chain -> peer (§9 inward-only
// references).
type HeaderSource interface {
	RequestHeaders(ctx context.Context, locator []Hash) ([]*Header, error)
	NetworkHeight() (uint64, bool)
}

// PeerPool selects candidate peers for a sync round and demotes ones that
// fail mid-round, without letting a single bad peer stall the round.
type PeerPool interface {
	NewRound()
	Next() HeaderSource
	Demote(HeaderSource)
}

// ErrNoPeers is returned by a round that exhausts the pool without a
// usable peer.
var ErrNoPeers = errors.New("chain: no usable peers this round")

const (
	// delayAfterProgress is how long the Syncer waits before the next round
	// when new headers were accepted (§4.5).
	delayAfterProgress = 500 * time.Millisecond
	// delayEmptyRecent is the wait after an empty-but-recent round.
	delayEmptyRecent = 2 * time.Second
	// delaySteadyState is the wait once the chain has caught up to the
	// advisory network tip.
	delaySteadyState = 5 * time.Minute

	// caughtUpLowerBound / caughtUpUpperBound bound network_height - tip for
	// the catch-up loop's termination window, allowing slight overshoot
	// (§4.5).
	caughtUpLowerBound = -2
	caughtUpUpperBound = 10
)

// Syncer is the single-threaded dispatcher that owns all chain mutation
// (§4.5, §5 Header-sync lane). It must run on one goroutine; the package
// does not protect against concurrent calls to Run.
type Syncer struct {
	chain *Chain
	pool  PeerPool
	store *Store
	log   hlog.Logger

	checkpointFlushEvery uint64
}

// NewSyncer builds a Syncer over an already-initialized chain.
func NewSyncer(c *Chain, pool PeerPool, store *Store, log hlog.Logger) *Syncer {
	if log == nil {
		log = hlog.Discard
	}
	return &Syncer{chain: c, pool: pool, store: store, log: log, checkpointFlushEvery: 2000}
}

// Chain exposes the chain this syncer owns, for constructing a Snapshot.
func (s *Syncer) Chain() *Chain { return s.chain }

// Run drives the catch-up loop forever until ctx is cancelled (§4.5, §5).
func (s *Syncer) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		n, netHeight, known, err := s.round(ctx)
		if err != nil && !errors.Is(err, ErrNoPeers) {
			s.log.Warn("sync round failed", "err", err)
		}

		tip := s.chain.TipHeight()
		caughtUp := known && withinCatchUpWindow(netHeight, tip)

		delay := s.nextDelay(n, caughtUp)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}

func (s *Syncer) nextDelay(newHeaders int, caughtUp bool) time.Duration {
	switch {
	case newHeaders > 0:
		return delayAfterProgress
	case caughtUp:
		return delaySteadyState
	default:
		return delayEmptyRecent
	}
}

func withinCatchUpWindow(networkHeight, tip uint64) bool {
	diff := int64(networkHeight) - int64(tip)
	return diff >= caughtUpLowerBound && diff <= caughtUpUpperBound
}

// round runs one getheaders/headers exchange, trying peers in the pool
// until one succeeds or the pool is exhausted (§4.5 Error policy: per-peer
// failures drop the peer from rotation for the round; the engine continues
// with the next candidate).
func (s *Syncer) round(ctx context.Context) (accepted int, netHeight uint64, haveNetHeight bool, err error) {
	s.pool.NewRound()
	for {
		p := s.pool.Next()
		if p == nil {
			return 0, 0, false, ErrNoPeers
		}
		locator := s.chain.BuildLocator()
		headers, reqErr := p.RequestHeaders(ctx, locator)
		if reqErr != nil {
			s.log.Debug("getheaders failed, trying next peer", "err", reqErr)
			s.pool.Demote(p)
			continue
		}
		netHeight, haveNetHeight = p.NetworkHeight()
		return s.applyBatch(headers, netHeight, haveNetHeight), netHeight, haveNetHeight, nil
	}
}

// applyBatch implements the per-header acceptance rules of §4.5 step 2-6.
func (s *Syncer) applyBatch(headers []*Header, netHeight uint64, haveNetHeight bool) int {
	accepted := 0

	for _, h := range headers {
		hash := CompositeHash(h)

		tipHash, err := s.chain.TipHash()
		if err == nil && hash == tipHash {
			continue // duplicate of our tip (§4.5 step 2)
		}
		if err == nil && h.PrevBlock != tipHash {
			continue // stale or off-chain (§4.5 step 3)
		}
		if haveNetHeight && s.chain.TipHeight()+1 > netHeight {
			continue // never get ahead of the advisory network tip (step 4)
		}
		if s.chain.HasHash(hash) {
			continue // already indexed (step 5)
		}

		s.chain.Append(h, hash)
		accepted++

		if newTip := s.chain.TipHeight(); s.store != nil && newTip%s.checkpointFlushEvery == 0 {
			if err := s.store.Save(s.chain); err != nil {
				s.log.Warn("header store flush failed", "err", err)
			}
		}
	}
	return accepted
}
