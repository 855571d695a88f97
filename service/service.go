// Package service owns the process lifecycle: it wires the chain syncer,
// peer registry, proof client, and DNS front ends into one explicit,
// stoppable unit instead of package-level global state (§9 Design Notes).
package service

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/Acktarius/hnsgo/chain"
	"github.com/Acktarius/hnsgo/config"
	"github.com/Acktarius/hnsgo/dnsserver"
	"github.com/Acktarius/hnsgo/hlog"
	"github.com/Acktarius/hnsgo/peer"
	"github.com/Acktarius/hnsgo/proof"
	"github.com/Acktarius/hnsgo/resolver"
)

// Service is the single owner of every long-lived component (§3 Lifecycle &
// ownership, §9). Nothing outside Service reaches for package-level state;
// everything a goroutine needs is passed in at construction.
type Service struct {
	cfg *config.Config
	log hlog.Logger

	store    *chain.Store
	registry *peer.Registry
	pool     *peer.ConnPool
	syncer   *chain.Syncer
	proofCli *proof.Client

	cache *resolver.Cache
	doh   *dnsserver.DoHServer
	dot   *dnsserver.DoTServer

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a Service from cfg without starting anything.
func New(cfg *config.Config, log hlog.Logger) (*Service, error) {
	if log == nil {
		log = hlog.Discard
	}

	store := chain.NewStore(cfg.DataDir, log)
	c, err := store.Load(cfg.WindowSize)
	if err != nil {
		log.Info("no persisted chain, bootstrapping from checkpoint", "err", err)
		c = chain.NewChainFromCheckpoint(cfg.WindowSize)
	}

	var static []peer.Endpoint
	for _, e := range peer.StaticBootstrap {
		static = append(static, e)
	}
	registry := peer.NewRegistry(cfg.DNSSeeds, static, cfg.DataDir, log)
	pool := peer.NewConnPool()
	syncer := chain.NewSyncer(c, pool, store, log)

	s := &Service{
		cfg:      cfg,
		log:      log,
		store:    store,
		registry: registry,
		pool:     pool,
		syncer:   syncer,
		proofCli: proof.NewClient(cfg.NameQueryConcurrency),
	}

	identity, err := dnsserver.NewLocalCA(365 * 24 * time.Hour)
	if err != nil {
		return nil, err
	}
	id := &dnsserver.Identity{Source: identity}

	cache, err := resolver.NewPersistentCache(resolver.DefaultCacheSize, cfg.DataDir+"/dnscache")
	if err != nil {
		log.Warn("disk cache unavailable, falling back to in-memory only", "err", err)
		cache = resolver.NewCache(resolver.DefaultCacheSize)
	}

	pipeline := &resolver.Pipeline{
		Cache:       cache,
		Blocklist:   blocklistFromConfig(cfg),
		ICANNTLDs:   resolver.NewTLDSet(cfg.ICANNTLDSet),
		Upstream:    resolver.NewUpstream(cfg.UpstreamDNS),
		ProofClient: s.proofCli,
		PickPeer:    s.pickPeer,
		Tip:         s.syncer.Chain(),
		Log:         log,
	}

	s.cache = cache
	s.doh = dnsserver.NewDoHServer(portAddr(cfg.DoHPort), pipeline, id, log)
	s.dot = dnsserver.NewDoTServer(portAddr(cfg.DoTPort), pipeline, id, log)
	return s, nil
}

func blocklistFromConfig(cfg *config.Config) resolver.BlocklistProvider {
	if len(cfg.BlacklistedTLDSet) == 0 {
		return resolver.AllowAllProvider{}
	}
	return resolver.NewTLDBlocklist(cfg.BlacklistedTLDSet)
}

func portAddr(port int) string {
	return ":" + strconv.Itoa(port)
}

// pickPeer adapts the connection pool to proof.Requester, returning nil
// when no peer is currently connected (§4.6, §7 no-peer-available case).
func (s *Service) pickPeer() proof.Requester {
	s.pool.NewRound()
	hs := s.pool.Next()
	if hs == nil {
		return nil
	}
	c, ok := hs.(*peer.Conn)
	if !ok {
		return nil
	}
	return c
}

// Start runs peer discovery, then launches the header syncer and both DNS
// front ends on their own goroutines, and returns nil once they are
// launched; callers use ctx to stop it. A front end that cannot bind its
// port logs the error and exits; Start does not report it, and the other
// components keep running.
func (s *Service) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	s.connectInitialPeers(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.syncer.Run(ctx); err != nil && ctx.Err() == nil {
			s.log.Error("syncer exited", "err", err)
		}
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.dot.ListenAndServe(ctx); err != nil && ctx.Err() == nil {
			s.log.Error("dot server exited", "err", err)
		}
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.doh.ListenAndServe(ctx); err != nil && ctx.Err() == nil {
			s.log.Error("doh server exited", "err", err)
		}
	}()

	return nil
}

// connectInitialPeers discovers and verifies a fallback peer set, then
// dials up to MaxFallbackPeers of them one after another (§4.3).
func (s *Service) connectInitialPeers(ctx context.Context) {
	candidates := s.registry.DiscoverDNS(ctx, s.cfg.P2PPort)
	s.registry.VerifyAndLearn(ctx, candidates)

	fallback := s.registry.GetFallback()
	rand.Shuffle(len(fallback), func(i, j int) { fallback[i], fallback[j] = fallback[j], fallback[i] })

	max := s.cfg.MaxFallbackPeers
	if max <= 0 || max > len(fallback) {
		max = len(fallback)
	}
	for _, ep := range fallback[:max] {
		conn, err := peer.Dial(ctx, string(ep), s.cfg.Magic, s.log)
		if err != nil {
			s.log.Debug("dial failed", "addr", ep, "err", err)
			continue
		}
		if err := conn.Handshake(uint32(s.syncer.Chain().TipHeight())); err != nil {
			s.log.Debug("handshake failed", "addr", ep, "err", err)
			conn.Close()
			continue
		}
		s.pool.Add(conn)
	}
}

// Stop cancels all running goroutines and waits for them to exit.
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.log.Warn("closing disk cache", "err", err)
		}
	}
}
