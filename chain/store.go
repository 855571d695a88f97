package chain

import (
	"crypto/sha256"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Acktarius/hnsgo/hlog"
	"github.com/Acktarius/hnsgo/wire"
)

// DefaultStoreFile is the on-disk name of the header store (§6).
const DefaultStoreFile = "headers.dat"

// ChecksumSuffix names the sidecar checksum file alongside the store file.
const ChecksumSuffix = ".checksum"

// ErrChecksumMismatch indicates the sidecar SHA-256 does not match the
// store payload.
var ErrChecksumMismatch = errors.New("chain: checksum mismatch")

// Store persists the bounded header window to a single file plus a SHA-256
// sidecar checksum (§4.2, §6). Writes are atomic: write tmp, rename over the
// live file, then rewrite the checksum.
type Store struct {
	mu   sync.Mutex
	path string
	log  hlog.Logger
}

// NewStore opens a store rooted at dir/DefaultStoreFile.
func NewStore(dir string, log hlog.Logger) *Store {
	if log == nil {
		log = hlog.Discard
	}
	return &Store{path: filepath.Join(dir, DefaultStoreFile), log: log}
}

func (s *Store) checksumPath() string { return s.path + ChecksumSuffix }

// Save writes the chain's in-memory window, tip height, and save timestamp
// atomically, then rewrites the checksum sidecar.
func (s *Store) Save(c *Chain) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := c.Snapshot()
	m := wire.NewTagMap()
	headers := make([][]byte, 0, len(snap.headers))
	for _, h := range snap.headers {
		headers = append(headers, h.Encode())
	}
	m.Arrays["headers"] = headers
	m.Ints["height"] = snap.tipHeightLocked()
	m.Ints["first_height"] = snap.firstHeight
	m.Ints["timestamp"] = uint64(time.Now().Unix())

	payload := m.Encode()
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return err
	}
	sum := sha256.Sum256(payload)
	return os.WriteFile(s.checksumPath(), sum[:], 0o600)
}

// Load reconstructs a Chain from disk. On checksum or structural failure it
// returns an error; the caller is expected to fall back to the embedded
// checkpoint (§4.2, §7).
func (s *Store) Load(window int) (*Chain, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	wantSum, err := os.ReadFile(s.checksumPath())
	if err != nil {
		return nil, err
	}
	gotSum := sha256.Sum256(payload)
	if len(wantSum) != len(gotSum) || string(wantSum) != string(gotSum[:]) {
		s.log.Warn("header store checksum mismatch", "path", s.path)
		return nil, ErrChecksumMismatch
	}

	m, err := wire.DecodeTagMap(payload)
	if err != nil {
		return nil, err
	}
	rawHeaders := m.Arrays["headers"]
	firstHeight := m.Ints["first_height"]
	headers := make([]*Header, 0, len(rawHeaders))
	for _, raw := range rawHeaders {
		h, err := Decode(raw)
		if err != nil {
			return nil, err
		}
		headers = append(headers, h)
	}
	c := NewChain(firstHeight, headers, window)
	if c.Len() > window {
		return nil, errors.New("chain: loaded window exceeds W")
	}
	return c, nil
}
