package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReaderWriterRoundTrip(t *testing.T) {
	w := NewWriter(0)
	w.PutU8(0xAB)
	w.PutU16(0x1234)
	w.PutU32(0xDEADBEEF)
	w.PutU64(0x0102030405060708)
	w.PutBytes([]byte{1, 2, 3})

	r := NewReader(w.Bytes())
	u8, err := r.U8()
	assert.NoError(t, err)
	assert.Equal(t, uint8(0xAB), u8)

	u16, err := r.U16()
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x1234), u16)

	u32, err := r.U32()
	assert.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), u32)

	u64, err := r.U64()
	assert.NoError(t, err)
	assert.Equal(t, uint64(0x0102030405060708), u64)

	tail, err := r.Bytes(3)
	assert.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, tail)
	assert.Equal(t, 0, r.Len())
}

func TestReaderShortBuffer(t *testing.T) {
	r := NewReader([]byte{1, 2})
	_, err := r.U32()
	assert.Equal(t, ErrShortBuffer, err)
}

func TestVarShortRoundTrip(t *testing.T) {
	cases := []uint16{0, 1, 0x7f, 0x80, 256, 32767}
	for _, v := range cases {
		w := NewWriter(0)
		w.PutVarShort(v)
		r := NewReader(w.Bytes())
		got, err := r.VarShort()
		assert.NoError(t, err)
		assert.Equal(t, v, got, "round-trip of %d", v)
	}
}

func TestVarShortOneByteForm(t *testing.T) {
	// Values <= 0x7f must encode as exactly one byte.
	w := NewWriter(0)
	w.PutVarShort(127)
	assert.Len(t, w.Bytes(), 1)
}

func TestVarShortTwoByteForm(t *testing.T) {
	w := NewWriter(0)
	w.PutVarShort(128)
	assert.Len(t, w.Bytes(), 2)
	assert.Equal(t, uint8(0x80), w.Bytes()[0]&0x80)
}
