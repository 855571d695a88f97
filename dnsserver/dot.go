package dnsserver

import (
	"context"
	"crypto/tls"
	"encoding/binary"
	"io"
	"net"

	"github.com/miekg/dns"

	"github.com/Acktarius/hnsgo/hlog"
)

// MaxDoTMessageSize bounds a single length-prefixed DNS-over-TLS frame
// (§6).
const MaxDoTMessageSize = 65535

// DoTServer implements DNS-over-TLS: two-byte big-endian length-prefixed
// messages over a long-lived bidirectional TLS stream, one query-response
// per frame pair (§4.9).
type DoTServer struct {
	resolver Resolver
	identity *Identity
	addr     string
	log      hlog.Logger

	ln net.Listener
}

// NewDoTServer builds a DoT server bound to addr (e.g. ":1853").
func NewDoTServer(addr string, resolver Resolver, identity *Identity, log hlog.Logger) *DoTServer {
	if log == nil {
		log = hlog.Discard
	}
	return &DoTServer{resolver: resolver, identity: identity, addr: addr, log: log}
}

// ListenAndServe starts the TLS listener and accepts connections until ctx
// is cancelled (§5, §7 fatal-startup-only).
func (s *DoTServer) ListenAndServe(ctx context.Context) error {
	tlsCfg, err := s.identity.TLSConfig()
	if err != nil {
		return err
	}
	ln, err := tls.Listen("tcp", s.addr, tlsCfg)
	if err != nil {
		return err
	}
	s.ln = ln

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go s.serveConn(ctx, conn)
	}
}

func (s *DoTServer) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	for {
		var lenBuf [2]byte
		if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
			return
		}
		n := binary.BigEndian.Uint16(lenBuf[:])
		if n == 0 || int(n) > MaxDoTMessageSize {
			return
		}
		msgBytes := make([]byte, n)
		if _, err := io.ReadFull(conn, msgBytes); err != nil {
			return
		}

		q := new(dns.Msg)
		if err := q.Unpack(msgBytes); err != nil {
			return
		}
		wireResp, err := s.resolver.Resolve(ctx, q)
		if err != nil {
			s.log.Warn("resolve failed", "err", err)
			return
		}
		if len(wireResp) > MaxDoTMessageSize {
			return
		}
		var respLen [2]byte
		binary.BigEndian.PutUint16(respLen[:], uint16(len(wireResp)))
		if _, err := conn.Write(respLen[:]); err != nil {
			return
		}
		if _, err := conn.Write(wireResp); err != nil {
			return
		}
	}
}
