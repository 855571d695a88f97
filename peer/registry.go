package peer

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/Acktarius/hnsgo/hlog"
	"github.com/Acktarius/hnsgo/wire"
)

// Endpoint is a "ip:port" peer address (§3, §6).
type Endpoint string

// MaxLearnedPeers bounds the persisted learned-peer set (§3, §4.3, §6).
const MaxLearnedPeers = 10

// VerifyTimeout bounds how long a TCP connect may take to consider a peer
// verified (§4.3, §5).
const VerifyTimeout = 3 * time.Second

// LearnedPeersFile is the on-disk name of the learned-peer map (§6).
const LearnedPeersFile = "peers.dat"

// Registry maintains the three concentric peer sources (§3, §4.3): DNS-seed
// discovered, a static bootstrap list, and a bounded learned set persisted
// in a tagged binary map. It is shared by the sync engine and proof client;
// mutation is serialized behind mu (§3 Lifecycle & ownership, §5).
type Registry struct {
	mu       sync.Mutex
	dnsSeeds []string
	static   []Endpoint
	learned  *lru.Cache
	dir      string
	log      hlog.Logger
}

// NewRegistry builds a Registry over the given DNS seeds and static
// bootstrap list, loading any previously learned peers from dir/peers.dat.
func NewRegistry(dnsSeeds []string, static []Endpoint, dir string, log hlog.Logger) *Registry {
	if log == nil {
		log = hlog.Discard
	}
	cache, _ := lru.New(MaxLearnedPeers)
	r := &Registry{dnsSeeds: dnsSeeds, static: static, learned: cache, dir: dir, log: log}
	if err := r.load(); err != nil {
		r.log.Debug("no learned-peer file to load", "err", err)
	}
	return r
}

func (r *Registry) path() string { return filepath.Join(r.dir, LearnedPeersFile) }

// DiscoverDNS resolves each configured seed hostname, treating A, AAAA, and
// TXT records as ip:port candidates (§4.3). TXT records are expected to
// already carry a ":port" suffix; bare A/AAAA results are paired with
// p2pPort.
func (r *Registry) DiscoverDNS(ctx context.Context, p2pPort int) []Endpoint {
	var out []Endpoint
	resolver := &net.Resolver{}
	for _, seed := range r.dnsSeeds {
		ips, err := resolver.LookupIPAddr(ctx, seed)
		if err != nil {
			r.log.Debug("dns seed lookup failed", "seed", seed, "err", err)
		}
		for _, ip := range ips {
			out = append(out, Endpoint(fmt.Sprintf("%s:%d", ip.IP.String(), p2pPort)))
		}
		txts, err := resolver.LookupTXT(ctx, seed)
		if err != nil {
			r.log.Debug("dns seed TXT lookup failed", "seed", seed, "err", err)
		}
		for _, t := range txts {
			if _, _, err := net.SplitHostPort(t); err == nil {
				out = append(out, Endpoint(t))
			}
		}
	}
	return out
}

// VerifyAndLearn attempts a bounded TCP connect to each candidate in
// parallel; successes are retained in the learned set (and persisted),
// failures are dropped (§4.3).
func (r *Registry) VerifyAndLearn(ctx context.Context, candidates []Endpoint) {
	var wg sync.WaitGroup
	verified := make(chan Endpoint, len(candidates))
	for _, ep := range candidates {
		wg.Add(1)
		go func(ep Endpoint) {
			defer wg.Done()
			vctx, cancel := context.WithTimeout(ctx, VerifyTimeout)
			defer cancel()
			d := net.Dialer{}
			conn, err := d.DialContext(vctx, "tcp", string(ep))
			if err != nil {
				return
			}
			conn.Close()
			verified <- ep
		}(ep)
	}
	wg.Wait()
	close(verified)

	r.mu.Lock()
	defer r.mu.Unlock()
	changed := false
	for ep := range verified {
		r.learned.Add(ep, time.Now().Unix())
		changed = true
	}
	if changed {
		if err := r.saveLocked(); err != nil {
			r.log.Warn("failed to persist learned peers", "err", err)
		}
	}
}

// GetFallback returns static ∪ learned, deduplicated, static-first (§4.3).
func (r *Registry) GetFallback() []Endpoint {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[Endpoint]struct{}, len(r.static)+r.learned.Len())
	out := make([]Endpoint, 0, len(r.static)+r.learned.Len())
	for _, ep := range r.static {
		if _, ok := seen[ep]; ok {
			continue
		}
		seen[ep] = struct{}{}
		out = append(out, ep)
	}
	for _, key := range r.learned.Keys() {
		ep := key.(Endpoint)
		if _, ok := seen[ep]; ok {
			continue
		}
		seen[ep] = struct{}{}
		out = append(out, ep)
	}
	return out
}

func (r *Registry) saveLocked() error {
	m := wire.NewTagMap()
	keys := r.learned.Keys()
	arr := make([][]byte, 0, len(keys))
	for _, k := range keys {
		arr = append(arr, []byte(k.(Endpoint)))
	}
	m.Arrays["peers"] = arr
	m.Ints["count"] = uint64(len(arr))
	m.Ints["timestamp"] = uint64(time.Now().Unix())

	payload := m.Encode()
	tmp := r.path() + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, r.path())
}

func (r *Registry) load() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	payload, err := os.ReadFile(r.path())
	if err != nil {
		return err
	}
	m, err := wire.DecodeTagMap(payload)
	if err != nil {
		return err
	}
	for _, raw := range m.Arrays["peers"] {
		r.learned.Add(Endpoint(raw), time.Now().Unix())
	}
	return nil
}
