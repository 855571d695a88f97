package dnsserver

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/miekg/dns"

	"github.com/Acktarius/hnsgo/hlog"
)

// MaxDoHBodySize bounds a POST body, matching the P2P max message size so a
// single oversize client can't exhaust memory (§6).
const MaxDoHBodySize = 8_000_000

// Resolver is the minimal surface DoHServer and DoTServer need from
// resolver.Pipeline, kept local to avoid an import cycle with resolver's
// test helpers.
type Resolver interface {
	Resolve(ctx context.Context, q *dns.Msg) ([]byte, error)
}

// DoHServer implements RFC 8484 DNS-over-HTTPS on top of the resolver
// pipeline (§4.9).
type DoHServer struct {
	resolver Resolver
	identity *Identity
	addr     string
	log      hlog.Logger

	srv *http.Server
}

// NewDoHServer builds a DoH server bound to addr (e.g. ":8443").
func NewDoHServer(addr string, resolver Resolver, identity *Identity, log hlog.Logger) *DoHServer {
	if log == nil {
		log = hlog.Discard
	}
	return &DoHServer{resolver: resolver, identity: identity, addr: addr, log: log}
}

func (s *DoHServer) router() http.Handler {
	r := httprouter.New()
	r.GET("/dns-query", s.handleGet)
	r.POST("/dns-query", s.handlePost)
	r.GET("/health", s.handleHealth)
	r.GET("/", s.handleHealth)
	return r
}

// ListenAndServe starts the HTTPS listener; it blocks until ctx is
// cancelled or an unrecoverable error occurs (§5, §7 fatal-startup-only).
func (s *DoHServer) ListenAndServe(ctx context.Context) error {
	tlsCfg, err := s.identity.TLSConfig()
	if err != nil {
		return err
	}
	s.srv = &http.Server{Addr: s.addr, Handler: s.router(), TLSConfig: tlsCfg}

	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.ListenAndServeTLS("", "") }()

	select {
	case <-ctx.Done():
		return s.srv.Close()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *DoHServer) handleGet(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	raw := r.URL.Query().Get("dns")
	if raw == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	msgBytes, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	s.serve(w, r, msgBytes)
}

func (s *DoHServer) handlePost(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if r.Header.Get("Content-Type") != "application/dns-message" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxDoHBodySize))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	s.serve(w, r, body)
}

func (s *DoHServer) handleHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// serve parses msgBytes as a DNS query and writes the pipeline's response.
// Errors from the pipeline itself are still encoded as valid DNS responses
// with HTTP 200 (§4.9); only a malformed request is a transport-level 4xx.
func (s *DoHServer) serve(w http.ResponseWriter, r *http.Request, msgBytes []byte) {
	q := new(dns.Msg)
	if err := q.Unpack(msgBytes); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	wireResp, err := s.resolver.Resolve(r.Context(), q)
	if err != nil {
		s.log.Warn("resolve failed", "err", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/dns-message")
	w.WriteHeader(http.StatusOK)
	w.Write(wireResp)
}
