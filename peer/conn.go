package peer

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/Acktarius/hnsgo/chain"
	"github.com/Acktarius/hnsgo/hlog"
	"github.com/Acktarius/hnsgo/wire"
)

// Timeouts from §4.4 and §5.
const (
	HeaderReadTimeout  = 30 * time.Second
	PayloadReadTimeout = 60 * time.Second
	ConnectTimeout     = 10 * time.Second
	PingInterval       = 30 * time.Second
)

// ErrHandshakeFailed is returned when the version/verack exchange does not
// complete as expected.
var ErrHandshakeFailed = errors.New("peer: handshake failed")

// ErrUnexpectedCommand is returned when a response frame's command does not
// match what the caller awaited.
var ErrUnexpectedCommand = errors.New("peer: unexpected command")

// Conn is one framed bidirectional P2P stream to a peer (§4.4). All request
// methods are synchronous: write one frame, then read the next non-ping
// frame (pings are answered transparently); a frame of any other command
// than the expected response fails with ErrUnexpectedCommand, and a read
// timeout fails with the read error.
type Conn struct {
	nc    net.Conn
	magic uint32
	log   hlog.Logger

	mu            sync.Mutex
	advisoryTip   uint32
	haveAdvisory  bool
}

// Dial opens a TCP connection to addr and wraps it in a Conn.
func Dial(ctx context.Context, addr string, magic uint32, log hlog.Logger) (*Conn, error) {
	if log == nil {
		log = hlog.Discard
	}
	d := net.Dialer{Timeout: ConnectTimeout}
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Conn{nc: nc, magic: magic, log: log}, nil
}

// NewConn wraps an already-established net.Conn (e.g. accepted inbound).
func NewConn(nc net.Conn, magic uint32, log hlog.Logger) *Conn {
	if log == nil {
		log = hlog.Discard
	}
	return &Conn{nc: nc, magic: magic, log: log}
}

// Close closes the underlying connection.
func (c *Conn) Close() error { return c.nc.Close() }

func (c *Conn) writeFrame(cmd Command, payload []byte) error {
	c.nc.SetWriteDeadline(time.Now().Add(PayloadReadTimeout))
	return wire.WriteFrame(c.nc, &wire.Frame{Magic: c.magic, Cmd: uint8(cmd), Payload: payload})
}

// readFrame reads one frame, transparently answering ping with pong so
// callers blocked waiting for a specific response don't need to special
// case the keep-alive traffic (§4.4).
func (c *Conn) readFrame() (*wire.Frame, error) {
	for {
		c.nc.SetReadDeadline(time.Now().Add(HeaderReadTimeout))
		f, err := wire.ReadFrame(c.nc, c.magic)
		if err != nil {
			return nil, err
		}
		if Command(f.Cmd) == CmdPing {
			if err := c.writeFrame(CmdPong, f.Payload); err != nil {
				return nil, err
			}
			continue
		}
		return f, nil
	}
}

func (c *Conn) readCommand(want Command) (*wire.Frame, error) {
	f, err := c.readFrame()
	if err != nil {
		return nil, err
	}
	if Command(f.Cmd) != want {
		return nil, ErrUnexpectedCommand
	}
	return f, nil
}

// Handshake performs the version/verack exchange in both directions and
// records the peer's self-reported height as an advisory network tip
// (§4.4).
func (c *Conn) Handshake(ourHeight uint32) error {
	v := &VersionMessage{
		ProtocolVersion: 1,
		Services:        0,
		Time:            uint64(time.Now().Unix()),
		Height:          ourHeight,
		Nonce:           rand.Uint64(),
	}
	if err := c.writeFrame(CmdVersion, v.Encode()); err != nil {
		return err
	}
	f, err := c.readCommand(CmdVersion)
	if err != nil {
		return ErrHandshakeFailed
	}
	theirs, err := DecodeVersionMessage(f.Payload)
	if err != nil {
		return ErrHandshakeFailed
	}
	if err := c.writeFrame(CmdVerack, nil); err != nil {
		return err
	}
	if _, err := c.readCommand(CmdVerack); err != nil {
		return ErrHandshakeFailed
	}

	c.mu.Lock()
	c.advisoryTip = theirs.Height
	c.haveAdvisory = true
	c.mu.Unlock()
	return nil
}

// NetworkHeight returns the peer's self-reported height recorded during the
// handshake, satisfying chain.HeaderSource.
func (c *Conn) NetworkHeight() (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return uint64(c.advisoryTip), c.haveAdvisory
}

// Ping sends a keep-alive and waits for the matching pong.
func (c *Conn) Ping() error {
	nonce := rand.Uint64()
	w := wire.NewWriter(8)
	w.PutU64(nonce)
	if err := c.writeFrame(CmdPing, w.Bytes()); err != nil {
		return err
	}
	f, err := c.readCommand(CmdPong)
	if err != nil {
		return err
	}
	r := wire.NewReader(f.Payload)
	got, err := r.U64()
	if err != nil || got != nonce {
		return ErrUnexpectedCommand
	}
	return nil
}

// RequestHeaders sends getheaders and waits for the headers response,
// satisfying chain.HeaderSource for the Syncer (§4.5).
func (c *Conn) RequestHeaders(ctx context.Context, locator []chain.Hash) ([]*chain.Header, error) {
	msg := &GetHeadersMessage{Locator: locator}
	if err := c.writeFrame(CmdGetHeaders, msg.Encode()); err != nil {
		return nil, err
	}
	f, err := c.readCommand(CmdHeaders)
	if err != nil {
		return nil, err
	}
	hm, err := DecodeHeadersMessage(f.Payload)
	if err != nil {
		return nil, err
	}
	return hm.Headers, nil
}

// RequestProof sends getproof and waits for the proof response, used by the
// proof client (§4.6).
func (c *Conn) RequestProof(ctx context.Context, root chain.Hash, key [32]byte) ([]byte, error) {
	msg := &GetProofMessage{Root: root, Key: key}
	if err := c.writeFrame(CmdGetProof, msg.Encode()); err != nil {
		return nil, err
	}
	f, err := c.readCommand(CmdProof)
	if err != nil {
		return nil, err
	}
	pm, err := DecodeProofMessage(f.Payload)
	if err != nil {
		return nil, err
	}
	return pm.Encoded, nil
}
