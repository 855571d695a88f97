package resolver

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/Acktarius/hnsgo/chain"
	"github.com/Acktarius/hnsgo/hlog"
	"github.com/Acktarius/hnsgo/proof"
	"github.com/Acktarius/hnsgo/resource"
)

// HandshakeResolutionTimeout bounds a Handshake-TLD proof lookup (§4.8, §5).
const HandshakeResolutionTimeout = 15 * time.Second

// BlockedTTL is the cache TTL for a synthesized blocklist NXDOMAIN (§4.8).
const BlockedTTL = 60 * time.Second

// DefaultUpstreamTTL bounds cached ICANN-forwarded answers absent a shorter
// answer TTL (§4.8).
const DefaultUpstreamTTL = time.Hour

// DefaultHandshakeTTL is the cache TTL for a verified Handshake-TLD answer.
// The proof payload carries no independent TTL, so the pipeline applies one
// uniform default; see DESIGN.md for the rationale.
const DefaultHandshakeTTL = 10 * time.Minute

// ErrNoPeer is returned when no peer connection is available to serve a
// Handshake-TLD proof request.
var ErrNoPeer = errors.New("resolver: no peer available")

// TipSource supplies the current authenticated name_root against which
// proofs are verified (§3, §4.6).
type TipSource interface {
	NameRootOfTip() (chain.Hash, error)
}

// PeerPicker returns a connection to issue a getproof request over, or nil
// if none is currently available.
type PeerPicker func() proof.Requester

// Pipeline implements the query-resolution steps of §4.8: cache, blocklist,
// ICANN-TLD forward, Handshake-TLD proof verification.
type Pipeline struct {
	Cache       *Cache
	Blocklist   BlocklistProvider
	ICANNTLDs   *TLDSet
	Upstream    UpstreamResolver
	ProofClient *proof.Client
	PickPeer    PeerPicker
	Tip         TipSource
	Log         hlog.Logger
}

// Resolve runs the full pipeline for one query and returns packed wire
// response bytes (§4.8).
func (p *Pipeline) Resolve(ctx context.Context, q *dns.Msg) ([]byte, error) {
	log := p.Log
	if log == nil {
		log = hlog.Discard
	}
	if len(q.Question) != 1 {
		return p.packError(q, dns.RcodeFormatError)
	}
	question := q.Question[0]
	name := question.Name
	qtype := question.Qtype
	qclass := question.Qclass

	if wire, ok := p.Cache.Get(name, qtype, qclass); ok {
		return rewriteID(wire, q.Id)
	}

	if p.Blocklist != nil && blocks(p.Blocklist.IsBlocked(name)) {
		m := new(dns.Msg)
		m.SetRcode(q, dns.RcodeNameError)
		wire, err := m.Pack()
		if err != nil {
			return nil, err
		}
		p.Cache.Set(name, qtype, qclass, m, wire, BlockedTTL)
		return wire, nil
	}

	if p.ICANNTLDs != nil && p.ICANNTLDs.Contains(name) {
		return p.resolveICANN(q, name, qtype, qclass)
	}

	return p.resolveHandshake(ctx, q, name, qtype, qclass, log)
}

func (p *Pipeline) resolveICANN(q *dns.Msg, name string, qtype, qclass uint16) ([]byte, error) {
	resp, err := p.Upstream.Forward(q)
	if err != nil {
		return p.packError(q, dns.RcodeServerFailure)
	}
	wire, err := resp.Pack()
	if err != nil {
		return nil, err
	}
	ttl := minTTL(resp, DefaultUpstreamTTL)
	if ttl > DefaultUpstreamTTL {
		ttl = DefaultUpstreamTTL
	}
	p.Cache.Set(name, qtype, qclass, resp, wire, ttl)
	return wire, nil
}

func (p *Pipeline) resolveHandshake(ctx context.Context, q *dns.Msg, name string, qtype, qclass uint16, log hlog.Logger) ([]byte, error) {
	if p.PickPeer == nil || p.Tip == nil || p.ProofClient == nil {
		return p.packError(q, dns.RcodeServerFailure)
	}
	hctx, cancel := context.WithTimeout(ctx, HandshakeResolutionTimeout)
	defer cancel()

	peer := p.PickPeer()
	if peer == nil {
		return p.packError(q, dns.RcodeServerFailure)
	}
	root, err := p.Tip.NameRootOfTip()
	if err != nil {
		return p.packError(q, dns.RcodeServerFailure)
	}

	tld := tldLabel(name)
	rec, err := p.ProofClient.GetProof(hctx, peer, root, tld)
	if err != nil {
		log.Warn("proof verification failed", "name", tld, "err", err)
		return p.packError(q, dns.RcodeServerFailure)
	}

	if !rec.Exists {
		m := new(dns.Msg)
		m.SetRcode(q, dns.RcodeNameError)
		wire, perr := m.Pack()
		if perr != nil {
			return nil, perr
		}
		p.Cache.Set(name, qtype, qclass, m, wire, DefaultHandshakeTTL)
		return wire, nil
	}

	records, err := resource.Decode(rec.ResourceBytes)
	if err != nil {
		return p.packError(q, dns.RcodeServerFailure)
	}

	m := new(dns.Msg)
	m.SetReply(q)
	m.Rcode = dns.RcodeSuccess
	m.Answer = toAnswers(name, qtype, uint32(DefaultHandshakeTTL/time.Second), records)
	wire, err := m.Pack()
	if err != nil {
		return nil, err
	}
	p.Cache.Set(name, qtype, qclass, m, wire, DefaultHandshakeTTL)
	return wire, nil
}

// tldLabel returns the rightmost label of name (the Handshake TLD itself
// registered on-chain), lowercased and without the trailing root dot.
func tldLabel(name string) string {
	n := strings.TrimSuffix(name, ".")
	if i := strings.LastIndexByte(n, '.'); i >= 0 {
		n = n[i+1:]
	}
	return strings.ToLower(n)
}

func (p *Pipeline) packError(q *dns.Msg, rcode int) ([]byte, error) {
	m := new(dns.Msg)
	m.SetRcode(q, rcode)
	return m.Pack()
}

// rewriteID rewrites a cached wire response's header id to match a new
// query's id without a full unpack/repack (§4.8 step 1).
func rewriteID(wireBytes []byte, id uint16) ([]byte, error) {
	if len(wireBytes) < 2 {
		return nil, dns.ErrShortRead
	}
	out := append([]byte(nil), wireBytes...)
	out[0] = byte(id >> 8)
	out[1] = byte(id)
	return out, nil
}
