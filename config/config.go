// Package config defines hnsgod's TOML-loaded configuration surface (§6).
package config

import (
	"os"

	"github.com/naoina/toml"
)

// Config is the full set of environment/configuration keys enumerated in
// spec.md §6. Every field loads from TOML; cmd/hnsgod additionally
// overrides data_dir, doh_port and dot_port from CLI flags.
type Config struct {
	DataDir string `toml:"data_dir"`

	DoHPort int `toml:"doh_port"`
	DoTPort int `toml:"dot_port"`

	CheckpointHeight uint64 `toml:"checkpoint_height"`
	WindowSize       int    `toml:"window_size"`

	DNSCacheTTLDefault           int `toml:"dns_cache_ttl_default"`
	HandshakeResolutionTimeoutMs int `toml:"handshake_resolution_timeout_ms"`

	MaxMessageSize   int `toml:"max_message_size"`
	MaxFallbackPeers int `toml:"max_fallback_peers"`
	P2PPort          int `toml:"p2p_port"`
	Magic            uint32 `toml:"magic"`

	DNSSeeds           []string `toml:"dns_seeds"`
	ICANNTLDSet        []string `toml:"icann_tld_set"`
	BlacklistedTLDSet  []string `toml:"blacklisted_tld_set"`

	NameQueryConcurrency int    `toml:"name_query_concurrency"`
	UpstreamDNS          string `toml:"upstream_dns"`
}

// DefaultConfig matches spec.md §6's defaults verbatim.
var DefaultConfig = Config{
	DataDir: "./data",

	DoHPort: 8443,
	DoTPort: 1853,

	CheckpointHeight: 136000,
	WindowSize:       150,

	DNSCacheTTLDefault:           3600,
	HandshakeResolutionTimeoutMs: 15000,

	MaxMessageSize:   8_000_000,
	MaxFallbackPeers: 10,
	P2PPort:          12038,
	Magic:            0x8e03fd02,

	DNSSeeds:          []string{"seed.hnsnetwork.com", "seed.easyhandshake.com"},
	ICANNTLDSet:       defaultICANNTLDs,
	BlacklistedTLDSet: nil,

	NameQueryConcurrency: 4,
	UpstreamDNS:          "9.9.9.9:53",
}

// defaultICANNTLDs is a small embedded default; operators are expected to
// supply a complete IANA root-zone list via the icann_tld_set TOML key for
// production use.
var defaultICANNTLDs = []string{
	"com", "net", "org", "io", "dev", "app", "co", "info", "biz",
}

// Load reads and merges a TOML file over DefaultConfig.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := toml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
