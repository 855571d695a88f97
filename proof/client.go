package proof

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/sha3"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/Acktarius/hnsgo/chain"
)

// DefaultConcurrency is the Name-query lane width (§5): 2-4 concurrent
// getproof calls.
const DefaultConcurrency = 4

// ErrNoPeer is returned when the requester function has no peer to use.
var ErrNoPeer = errors.New("proof: no peer available")

// Requester issues a getproof request over an established connection and
// returns the raw encoded proof bytes (§4.6). peer.Conn satisfies this.
type Requester interface {
	RequestProof(ctx context.Context, root chain.Hash, key [32]byte) ([]byte, error)
}

// Record is the outcome of a verified getproof round for one name: either
// the name exists (ResourceBytes holds the verified resource payload for
// the decoder, §4.7) or it provably does not (Exists is false and the
// DEADEND/SHORT/COLLISION proof verified against root).
type Record struct {
	Exists        bool
	ResourceBytes []byte
}

// Client drives getproof requests against a selected peer, bounding
// concurrency and collapsing duplicate in-flight lookups for the same name
// (§5).
type Client struct {
	sem    *semaphore.Weighted
	single singleflight.Group
}

// NewClient builds a Client with the given Name-query lane width. A width
// <= 0 falls back to DefaultConcurrency.
func NewClient(width int) *Client {
	if width <= 0 {
		width = DefaultConcurrency
	}
	return &Client{sem: semaphore.NewWeighted(int64(width))}
}

// NameHash computes key = sha3-256(lowercase(trim_trailing_dot(name))) per
// §4.6.
func NameHash(name string) [32]byte {
	n := strings.TrimSuffix(strings.ToLower(name), ".")
	return sha3.Sum256([]byte(n))
}

// GetProof requests and verifies a proof of name from peer against root
// (§4.6). Concurrent calls for the same lowercased name share a single
// in-flight request (§5).
func (c *Client) GetProof(ctx context.Context, peer Requester, root chain.Hash, name string) (Record, error) {
	if peer == nil {
		return Record{}, ErrNoPeer
	}
	key := NameHash(name)
	sfKey := strings.ToLower(strings.TrimSuffix(name, "."))

	v, err, _ := c.single.Do(sfKey, func() (interface{}, error) {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer c.sem.Release(1)

		encoded, err := peer.RequestProof(ctx, root, key)
		if err != nil {
			return nil, err
		}
		resBytes, verr := Verify(encoded, [32]byte(root), key)
		if verr != nil {
			return nil, verr
		}
		return Record{Exists: resBytes != nil, ResourceBytes: resBytes}, nil
	})
	if err != nil {
		return Record{}, err
	}
	return v.(Record), nil
}
