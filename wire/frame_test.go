package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

const testMagic = 0x48534e31 // "1NSH"

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	want := &Frame{Magic: testMagic, Cmd: 11, Payload: []byte("headers-payload")}
	assert.NoError(t, WriteFrame(&buf, want))

	got, err := ReadFrame(&buf, testMagic)
	assert.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFrameBadMagic(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, WriteFrame(&buf, &Frame{Magic: 0x11111111, Cmd: 0, Payload: nil}))
	_, err := ReadFrame(&buf, testMagic)
	assert.Equal(t, ErrBadMagic, err)
}

func TestFrameOversize(t *testing.T) {
	f := &Frame{Magic: testMagic, Cmd: 1, Payload: make([]byte, MaxFrameLength+1)}
	var buf bytes.Buffer
	assert.Equal(t, ErrOversizeFrame, WriteFrame(&buf, f))
}
