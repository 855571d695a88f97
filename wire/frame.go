package wire

import (
	"encoding/binary"
	"errors"
	"io"
)

// MaxFrameLength is the hard cap on a single P2P payload (§4.4, §6): frames
// above this size abort the connection rather than being buffered.
const MaxFrameLength = 8_000_000

// FrameHeaderSize is magic(4) + cmd(1) + length(4).
const FrameHeaderSize = 4 + 1 + 4

// ErrOversizeFrame is returned when a frame's declared length exceeds
// MaxFrameLength.
var ErrOversizeFrame = errors.New("wire: oversize frame")

// ErrBadMagic is returned when a frame's magic does not match the expected
// network constant.
var ErrBadMagic = errors.New("wire: bad magic")

// Frame is one P2P message: magic(4 LE) || cmd(1) || length(4 LE) || payload.
type Frame struct {
	Magic   uint32
	Cmd     uint8
	Payload []byte
}

// ReadFrame reads one frame from r, rejecting any whose magic does not match
// wantMagic or whose length exceeds MaxFrameLength.
func ReadFrame(r io.Reader, wantMagic uint32) (*Frame, error) {
	hdr, err := ReadFull(r, FrameHeaderSize)
	if err != nil {
		return nil, err
	}
	magic := binary.LittleEndian.Uint32(hdr[0:4])
	if magic != wantMagic {
		return nil, ErrBadMagic
	}
	cmd := hdr[4]
	length := binary.LittleEndian.Uint32(hdr[5:9])
	if length > MaxFrameLength {
		return nil, ErrOversizeFrame
	}
	payload, err := ReadFull(r, int(length))
	if err != nil {
		return nil, err
	}
	return &Frame{Magic: magic, Cmd: cmd, Payload: payload}, nil
}

// WriteFrame writes f to w in wire order.
func WriteFrame(w io.Writer, f *Frame) error {
	if len(f.Payload) > MaxFrameLength {
		return ErrOversizeFrame
	}
	hdr := make([]byte, FrameHeaderSize)
	binary.LittleEndian.PutUint32(hdr[0:4], f.Magic)
	hdr[4] = f.Cmd
	binary.LittleEndian.PutUint32(hdr[5:9], uint32(len(f.Payload)))
	if _, err := w.Write(hdr); err != nil {
		return err
	}
	_, err := w.Write(f.Payload)
	return err
}
