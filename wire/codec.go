// Package wire implements the little-endian binary codec shared by every
// on-disk and on-wire format in hnsgo: fixed-width integers, length-prefixed
// byte strings, and the compact varint used by proof encoding.
package wire

import (
	"encoding/binary"
	"errors"
	"io"
)

// ErrShortBuffer is returned when a Read call does not have enough bytes
// left to satisfy the requested field.
var ErrShortBuffer = errors.New("wire: short buffer")

// Reader consumes a byte slice left to right, little-endian.
type Reader struct {
	buf []byte
	off int
}

// NewReader wraps buf for sequential little-endian reads.
func NewReader(buf []byte) *Reader { return &Reader{buf: buf} }

// Len reports how many bytes remain unread.
func (r *Reader) Len() int { return len(r.buf) - r.off }

// Bytes returns the next n bytes without copying. The returned slice aliases
// the reader's backing array and must not be retained past its lifetime if
// the caller mutates buf.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if n < 0 || r.Len() < n {
		return nil, ErrShortBuffer
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

// U8 reads one byte.
func (r *Reader) U8() (uint8, error) {
	b, err := r.Bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// U16 reads a little-endian uint16.
func (r *Reader) U16() (uint16, error) {
	b, err := r.Bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// U16BE reads a big-endian uint16.
func (r *Reader) U16BE() (uint16, error) {
	b, err := r.Bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// U32 reads a little-endian uint32.
func (r *Reader) U32() (uint32, error) {
	b, err := r.Bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// U64 reads a little-endian uint64.
func (r *Reader) U64() (uint64, error) {
	b, err := r.Bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// VarShort reads the 1-or-2-byte compact integer used by the radix-tree
// proof encoding for prefix_size (§4.6): a byte with the high bit clear is
// the value itself (0..127); a byte with the high bit set combines with the
// following byte into a 15-bit value via ((b0&0x7f)<<8)|b1.
func (r *Reader) VarShort() (uint16, error) {
	b0, err := r.U8()
	if err != nil {
		return 0, err
	}
	if b0&0x80 == 0 {
		return uint16(b0), nil
	}
	b1, err := r.U8()
	if err != nil {
		return 0, err
	}
	return (uint16(b0&0x7f) << 8) | uint16(b1), nil
}

// Writer accumulates little-endian bytes.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer, optionally pre-sized.
func NewWriter(sizeHint int) *Writer {
	return &Writer{buf: make([]byte, 0, sizeHint)}
}

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// PutBytes appends b verbatim.
func (w *Writer) PutBytes(b []byte) { w.buf = append(w.buf, b...) }

// PutU8 appends one byte.
func (w *Writer) PutU8(v uint8) { w.buf = append(w.buf, v) }

// PutU16 appends a little-endian uint16.
func (w *Writer) PutU16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// PutU16BE appends a big-endian uint16.
func (w *Writer) PutU16BE(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// PutU32 appends a little-endian uint32.
func (w *Writer) PutU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// PutU64 appends a little-endian uint64.
func (w *Writer) PutU64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// PutVarShort appends prefix_size in the same 1-or-2-byte encoding VarShort
// reads back.
func (w *Writer) PutVarShort(v uint16) {
	if v <= 0x7f {
		w.PutU8(uint8(v))
		return
	}
	w.PutU8(uint8(0x80 | (v >> 8)))
	w.PutU8(uint8(v))
}

// ReadFull reads exactly n bytes from an io.Reader; ReadFrame uses it to
// read frames straight off a connection instead of an in-memory buffer.
func ReadFull(r io.Reader, n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}
