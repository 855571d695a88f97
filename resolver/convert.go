package resolver

import (
	"encoding/hex"

	"github.com/miekg/dns"

	"github.com/Acktarius/hnsgo/resource"
)

func rrHeader(name string, rrtype uint16, ttl uint32) dns.RR_Header {
	return dns.RR_Header{Name: dns.Fqdn(name), Rrtype: rrtype, Class: dns.ClassINET, Ttl: ttl}
}

// toAnswers converts the resource records decoded for a Handshake TLD into
// DNS answer RRs matching qtype (§4.7, §4.8). Unmatched qtypes return a nil
// slice (NOERROR with zero answers, since the name itself is proven to
// exist even if it carries no record of the requested type).
func toAnswers(name string, qtype uint16, ttl uint32, records []resource.Record) []dns.RR {
	var out []dns.RR
	for _, r := range records {
		switch qtype {
		case dns.TypeA:
			if (r.Type == resource.TypeGLUE4 || r.Type == resource.TypeSYNTH4) && r.IP != nil {
				out = append(out, &dns.A{Hdr: rrHeader(name, dns.TypeA, ttl), A: r.IP})
			}
		case dns.TypeAAAA:
			if (r.Type == resource.TypeGLUE6 || r.Type == resource.TypeSYNTH6) && r.IP != nil {
				out = append(out, &dns.AAAA{Hdr: rrHeader(name, dns.TypeAAAA, ttl), AAAA: r.IP})
			}
		case dns.TypeNS:
			if r.Type == resource.TypeNS {
				out = append(out, &dns.NS{Hdr: rrHeader(name, dns.TypeNS, ttl), Ns: dns.Fqdn(r.Name)})
			}
		case dns.TypeTXT:
			if r.Type == resource.TypeTEXT {
				out = append(out, &dns.TXT{Hdr: rrHeader(name, dns.TypeTXT, ttl), Txt: r.Strings})
			}
		case dns.TypeDS:
			if r.Type == resource.TypeDS {
				out = append(out, &dns.DS{
					Hdr:        rrHeader(name, dns.TypeDS, ttl),
					KeyTag:     r.KeyTag,
					Algorithm:  r.Algorithm,
					DigestType: r.DigestType,
					Digest:     hex.EncodeToString(r.Digest),
				})
			}
		}
	}
	return out
}
