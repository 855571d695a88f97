package resolver

import (
	"time"

	"github.com/miekg/dns"
)

// UpstreamTimeout bounds an ICANN-TLD upstream forward (§5).
const UpstreamTimeout = 5 * time.Second

// UpstreamResolver is the external upstream-DNS collaborator contract (§6):
// any RFC 1035 resolver reachable by UDP/TCP on port 53.
type UpstreamResolver interface {
	Forward(q *dns.Msg) (*dns.Msg, error)
}

// Upstream forwards an ICANN-rooted query to a recursive resolver, falling
// back to the OS default resolver if the primary answers REFUSED (§4.8).
type Upstream struct {
	client  *dns.Client
	primary string
}

// NewUpstream builds an Upstream that forwards to primaryAddr (e.g.
// "9.9.9.9:53").
func NewUpstream(primaryAddr string) *Upstream {
	return &Upstream{
		client:  &dns.Client{Timeout: UpstreamTimeout},
		primary: primaryAddr,
	}
}

// Forward exchanges q with the primary resolver, retrying via the system
// default resolver on REFUSED (§4.8).
func (u *Upstream) Forward(q *dns.Msg) (*dns.Msg, error) {
	resp, _, err := u.client.Exchange(q, u.primary)
	if err == nil && resp.Rcode != dns.RcodeRefused {
		return resp, nil
	}

	cfg, cfgErr := dns.ClientConfigFromFile("/etc/resolv.conf")
	if cfgErr != nil || len(cfg.Servers) == 0 {
		if err != nil {
			return nil, err
		}
		return resp, nil
	}
	addr := cfg.Servers[0] + ":" + cfg.Port
	resp, _, err = u.client.Exchange(q, addr)
	return resp, err
}
