package peer

// DefaultP2PPort is the Handshake mainnet P2P port (§6).
const DefaultP2PPort = 12038

// DefaultMagic is the mainnet P2P frame magic (§6). This is a
// protocol-identifying constant, not a secret.
const DefaultMagic uint32 = 0x8e03fd02

// StaticBootstrap is the embedded static bootstrap list (§3, §4.3). These
// are placeholder seed addresses in the documented ip:port shape; operators
// should replace them with real, currently-reachable mainnet nodes before
// running against the live network — this module has no way to fetch a
// live node list at build time.
var StaticBootstrap = []Endpoint{
	"103.102.133.34:12038",
	"172.104.19.88:12038",
	"45.79.134.225:12038",
	"139.162.53.222:12038",
}

// DefaultDNSSeeds are the seed hostnames queried for A/AAAA/TXT candidates
// (§4.3, §6).
var DefaultDNSSeeds = []string{
	"seed.hnsnetwork.com",
	"seed.easyhandshake.com",
}
