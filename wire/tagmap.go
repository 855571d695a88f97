package wire

import (
	"errors"
	"sort"
)

// TagMap is the small self-describing binary container format used for the
// header store and learned-peer files (§6): a flat map of byte-array
// entries and integer entries, each addressed by a short ASCII tag.
type TagMap struct {
	Arrays map[string][][]byte
	Ints   map[string]uint64
}

// NewTagMap returns an empty, ready-to-populate TagMap.
func NewTagMap() *TagMap {
	return &TagMap{Arrays: map[string][][]byte{}, Ints: map[string]uint64{}}
}

var tagMapMagic = [4]byte{'T', 'M', 'A', 'P'}

const (
	tagKindArray = 0
	tagKindInt   = 1
)

// ErrBadTagMap is returned when the magic or structure of a tagged map
// buffer does not parse.
var ErrBadTagMap = errors.New("wire: malformed tagged map")

// Encode serializes m deterministically (keys sorted) so identical content
// always produces identical bytes, which matters for the store's checksum.
func (m *TagMap) Encode() []byte {
	keys := make([]string, 0, len(m.Arrays)+len(m.Ints))
	for k := range m.Arrays {
		keys = append(keys, k)
	}
	for k := range m.Ints {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w := NewWriter(0)
	w.PutBytes(tagMapMagic[:])
	w.PutU16(uint16(len(keys)))
	for _, k := range keys {
		w.PutU8(uint8(len(k)))
		w.PutBytes([]byte(k))
		if arr, ok := m.Arrays[k]; ok {
			w.PutU8(tagKindArray)
			w.PutU32(uint32(len(arr)))
			for _, e := range arr {
				w.PutU32(uint32(len(e)))
				w.PutBytes(e)
			}
			continue
		}
		w.PutU8(tagKindInt)
		w.PutU64(m.Ints[k])
	}
	return w.Bytes()
}

// DecodeTagMap parses the format Encode produces.
func DecodeTagMap(buf []byte) (*TagMap, error) {
	r := NewReader(buf)
	magic, err := r.Bytes(4)
	if err != nil || string(magic) != string(tagMapMagic[:]) {
		return nil, ErrBadTagMap
	}
	count, err := r.U16()
	if err != nil {
		return nil, ErrBadTagMap
	}
	m := NewTagMap()
	for i := uint16(0); i < count; i++ {
		klen, err := r.U8()
		if err != nil {
			return nil, ErrBadTagMap
		}
		kb, err := r.Bytes(int(klen))
		if err != nil {
			return nil, ErrBadTagMap
		}
		key := string(kb)
		kind, err := r.U8()
		if err != nil {
			return nil, ErrBadTagMap
		}
		switch kind {
		case tagKindArray:
			n, err := r.U32()
			if err != nil {
				return nil, ErrBadTagMap
			}
			arr := make([][]byte, 0, n)
			for j := uint32(0); j < n; j++ {
				elen, err := r.U32()
				if err != nil {
					return nil, ErrBadTagMap
				}
				e, err := r.Bytes(int(elen))
				if err != nil {
					return nil, ErrBadTagMap
				}
				arr = append(arr, append([]byte(nil), e...))
			}
			m.Arrays[key] = arr
		case tagKindInt:
			v, err := r.U64()
			if err != nil {
				return nil, ErrBadTagMap
			}
			m.Ints[key] = v
		default:
			return nil, ErrBadTagMap
		}
	}
	return m, nil
}
