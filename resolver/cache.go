// Package resolver implements the DNS resolution pipeline: cache lookup,
// blocklist enforcement, ICANN-TLD forwarding, and Handshake-TLD proof
// verification (§4.8).
package resolver

import (
	"encoding/binary"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/miekg/dns"
	"github.com/syndtr/goleveldb/leveldb"
)

// DefaultCacheSize bounds the number of cached responses held in memory.
const DefaultCacheSize = 4096

// cacheKey identifies one cached response (§3 DNS cache entry).
type cacheKey struct {
	name   string
	qtype  uint16
	qclass uint16
}

type cacheEntry struct {
	wire   []byte
	expiry time.Time
}

// Cache is a bounded, concurrent-safe DNS response cache keyed by
// (normalized name, qtype, qclass). Only NOERROR-with-answers and NXDOMAIN
// responses are admitted; Set drops anything else, and expired entries are
// evicted on read (§3). An
// optional goleveldb-backed disk tier survives process restarts, sparing a
// freshly started resolver a round of cold proof lookups for names it had
// already resolved (§2b, §4.8).
type Cache struct {
	lru  *lru.Cache
	disk *leveldb.DB
}

// NewCache builds an in-memory-only Cache with the given capacity; size <=
// 0 falls back to DefaultCacheSize.
func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, _ := lru.New(size)
	return &Cache{lru: c}
}

// NewPersistentCache builds a Cache backed additionally by a goleveldb
// store rooted at dir, so cache entries survive a restart.
func NewPersistentCache(size int, dir string) (*Cache, error) {
	c := NewCache(size)
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, err
	}
	c.disk = db
	return c, nil
}

// Close releases the disk tier, if any.
func (c *Cache) Close() error {
	if c.disk == nil {
		return nil
	}
	return c.disk.Close()
}

func key(name string, qtype, qclass uint16) cacheKey {
	return cacheKey{name: dns.CanonicalName(name), qtype: qtype, qclass: qclass}
}

// Get returns the cached wire bytes for (name, qtype, qclass) if present and
// unexpired, checking the in-memory tier first and the disk tier on a miss.
func (c *Cache) Get(name string, qtype, qclass uint16) ([]byte, bool) {
	k := key(name, qtype, qclass)
	if v, ok := c.lru.Get(k); ok {
		e := v.(cacheEntry)
		if time.Now().After(e.expiry) {
			c.lru.Remove(k)
			return nil, false
		}
		return e.wire, true
	}
	if c.disk == nil {
		return nil, false
	}
	raw, err := c.disk.Get(diskKey(k), nil)
	if err != nil {
		return nil, false
	}
	e, ok := decodeDiskEntry(raw)
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiry) {
		c.disk.Delete(diskKey(k), nil)
		return nil, false
	}
	c.lru.Add(k, e)
	return e.wire, true
}

// Set admits a response into the cache only if rcode is NOERROR-with-answers
// or NXDOMAIN (§3, §4.8), writing through to the disk tier when configured.
func (c *Cache) Set(name string, qtype, qclass uint16, m *dns.Msg, wire []byte, ttl time.Duration) {
	if !cacheable(m) {
		return
	}
	k := key(name, qtype, qclass)
	e := cacheEntry{wire: wire, expiry: time.Now().Add(ttl)}
	c.lru.Add(k, e)
	if c.disk != nil {
		c.disk.Put(diskKey(k), encodeDiskEntry(e), nil)
	}
}

// diskKey flattens a cacheKey into a goleveldb key.
func diskKey(k cacheKey) []byte {
	buf := make([]byte, 0, len(k.name)+5)
	buf = append(buf, byte(k.qtype>>8), byte(k.qtype), byte(k.qclass>>8), byte(k.qclass), 0)
	buf = append(buf, k.name...)
	return buf
}

// encodeDiskEntry packs an expiry (unix nanos, 8 bytes BE) followed by the
// raw wire response.
func encodeDiskEntry(e cacheEntry) []byte {
	buf := make([]byte, 8+len(e.wire))
	binary.BigEndian.PutUint64(buf[:8], uint64(e.expiry.UnixNano()))
	copy(buf[8:], e.wire)
	return buf
}

func decodeDiskEntry(raw []byte) (cacheEntry, bool) {
	if len(raw) < 8 {
		return cacheEntry{}, false
	}
	nanos := binary.BigEndian.Uint64(raw[:8])
	return cacheEntry{wire: raw[8:], expiry: time.Unix(0, int64(nanos))}, true
}

func cacheable(m *dns.Msg) bool {
	if m.Rcode == dns.RcodeNameError {
		return true
	}
	return m.Rcode == dns.RcodeSuccess && len(m.Answer) > 0
}

// minTTL returns the minimum resource-record TTL among m's answers, or
// def if there are none.
func minTTL(m *dns.Msg, def time.Duration) time.Duration {
	if len(m.Answer) == 0 {
		return def
	}
	min := m.Answer[0].Header().Ttl
	for _, rr := range m.Answer[1:] {
		if rr.Header().Ttl < min {
			min = rr.Header().Ttl
		}
	}
	return time.Duration(min) * time.Second
}
