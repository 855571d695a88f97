package dnsserver

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
)

type fakeResolver struct {
	wire []byte
	err  error
}

func (f *fakeResolver) Resolve(ctx context.Context, q *dns.Msg) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.wire, nil
}

func sampleQuery(t *testing.T) []byte {
	t.Helper()
	q := new(dns.Msg)
	q.SetQuestion("example.", dns.TypeA)
	b, err := q.Pack()
	assert.NoError(t, err)
	return b
}

func sampleResponse(t *testing.T) []byte {
	t.Helper()
	m := new(dns.Msg)
	m.SetQuestion("example.", dns.TypeA)
	m.Rcode = dns.RcodeSuccess
	b, err := m.Pack()
	assert.NoError(t, err)
	return b
}

func TestDoHGetServesQuery(t *testing.T) {
	s := NewDoHServer(":0", &fakeResolver{wire: sampleResponse(t)}, nil, nil)
	rtr := s.router()

	raw := base64.RawURLEncoding.EncodeToString(sampleQuery(t))
	req := httptest.NewRequest(http.MethodGet, "/dns-query?dns="+raw, nil)
	w := httptest.NewRecorder()
	rtr.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/dns-message", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Body.Bytes())
}

func TestDoHGetMissingParamIsBadRequest(t *testing.T) {
	s := NewDoHServer(":0", &fakeResolver{}, nil, nil)
	rtr := s.router()

	req := httptest.NewRequest(http.MethodGet, "/dns-query", nil)
	w := httptest.NewRecorder()
	rtr.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDoHHealthEndpoint(t *testing.T) {
	s := NewDoHServer(":0", &fakeResolver{}, nil, nil)
	rtr := s.router()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	rtr.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDoHPostRequiresContentType(t *testing.T) {
	s := NewDoHServer(":0", &fakeResolver{wire: sampleResponse(t)}, nil, nil)
	rtr := s.router()

	req := httptest.NewRequest(http.MethodPost, "/dns-query", nil)
	w := httptest.NewRecorder()
	rtr.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
