package resource

import (
	"encoding/base32"
	"encoding/binary"
	"net"
	"strings"
)

// resyncWindow bounds how far the unknown-type-byte recovery heuristic
// scans before giving up (§4.7).
const resyncWindow = 256

// Decode parses a verified resource payload (§4.7). Malformed individual
// records are skipped via a resync heuristic rather than failing the whole
// decode; only an empty payload or a bad version byte is a hard error. A
// payload with no recoverable records yields an empty result and a nil
// error.
func Decode(payload []byte) ([]Record, error) {
	if len(payload) < 1 {
		return nil, ErrEncoding
	}
	if payload[0] != 0 {
		return nil, ErrUnsupportedVersion
	}

	var records []Record
	off := 1
	for off < len(payload) {
		typ := Type(payload[off])
		rec, next, err := decodeOne(payload, off+1, typ)
		if err != nil {
			resyncOff, ok := resync(payload, off+1)
			if !ok {
				break
			}
			off = resyncOff
			continue
		}
		records = append(records, rec)
		off = next
	}

	return synthesizeMissingNS(records), nil
}

// decodeOne decodes the type-specific body for typ starting at bodyOff,
// returning the record and the offset just past it.
func decodeOne(payload []byte, bodyOff int, typ Type) (Record, int, error) {
	switch typ {
	case TypeNS:
		name, n, err := decodeName(payload, bodyOff)
		if err != nil {
			return Record{}, 0, err
		}
		return Record{Type: TypeNS, Name: name}, bodyOff + n, nil

	case TypeGLUE4:
		name, n, err := decodeName(payload, bodyOff)
		if err != nil {
			return Record{}, 0, err
		}
		end := bodyOff + n
		if end+4 > len(payload) {
			return Record{}, 0, ErrEncoding
		}
		ip := net.IPv4(payload[end], payload[end+1], payload[end+2], payload[end+3])
		return Record{Type: TypeGLUE4, Name: name, IP: ip}, end + 4, nil

	case TypeGLUE6:
		name, n, err := decodeName(payload, bodyOff)
		if err != nil {
			return Record{}, 0, err
		}
		end := bodyOff + n
		if end+16 > len(payload) {
			return Record{}, 0, ErrEncoding
		}
		ip := make(net.IP, 16)
		copy(ip, payload[end:end+16])
		return Record{Type: TypeGLUE6, Name: name, IP: ip}, end + 16, nil

	case TypeSYNTH4:
		name, n, err := decodeName(payload, bodyOff)
		if err != nil {
			return Record{}, 0, err
		}
		rec := Record{Type: TypeSYNTH4, Name: name}
		if ip := decodeSynthIP(name, net.IPv4len); ip != nil {
			rec.IP = ip
		}
		return rec, bodyOff + n, nil

	case TypeSYNTH6:
		name, n, err := decodeName(payload, bodyOff)
		if err != nil {
			return Record{}, 0, err
		}
		rec := Record{Type: TypeSYNTH6, Name: name}
		if ip := decodeSynthIP(name, net.IPv6len); ip != nil {
			rec.IP = ip
		}
		return rec, bodyOff + n, nil

	case TypeDS:
		if bodyOff+5 > len(payload) {
			return Record{}, 0, ErrEncoding
		}
		keyTag := binary.BigEndian.Uint16(payload[bodyOff : bodyOff+2])
		algorithm := payload[bodyOff+2]
		digestType := payload[bodyOff+3]
		digestLen := int(payload[bodyOff+4])
		if digestLen > MaxDigestLength {
			return Record{}, 0, ErrEncoding
		}
		end := bodyOff + 5
		if end+digestLen > len(payload) {
			return Record{}, 0, ErrEncoding
		}
		digest := append([]byte(nil), payload[end:end+digestLen]...)
		return Record{
			Type:       TypeDS,
			KeyTag:     keyTag,
			Algorithm:  algorithm,
			DigestType: digestType,
			Digest:     digest,
		}, end + digestLen, nil

	case TypeTEXT:
		if bodyOff+1 > len(payload) {
			return Record{}, 0, ErrEncoding
		}
		arrayLen := int(payload[bodyOff])
		pos := bodyOff + 1
		strs := make([]string, 0, arrayLen)
		for i := 0; i < arrayLen; i++ {
			if pos+1 > len(payload) {
				return Record{}, 0, ErrEncoding
			}
			l := int(payload[pos])
			pos++
			if pos+l > len(payload) {
				return Record{}, 0, ErrEncoding
			}
			strs = append(strs, string(payload[pos:pos+l]))
			pos += l
		}
		return Record{Type: TypeTEXT, Strings: strs}, pos, nil

	default:
		return Record{}, 0, ErrEncoding
	}
}

// decodeSynthIP best-effort base32-decodes a SYNTH4/SYNTH6 name's first
// label into an IP of the given byte length (§4.7).
func decodeSynthIP(name string, wantLen int) net.IP {
	label := name
	if i := strings.IndexByte(name, '.'); i >= 0 {
		label = name[:i]
	}
	dec, err := base32.HexEncoding.WithPadding(base32.NoPadding).DecodeString(label)
	if err != nil || len(dec) != wantLen {
		return nil
	}
	return net.IP(dec)
}

// resync scans up to resyncWindow bytes from start looking for a byte that
// is both a known type tag and structurally decodable as that type's body,
// recovering from a malformed or unknown record (§4.7).
func resync(payload []byte, start int) (int, bool) {
	limit := start + resyncWindow
	if limit > len(payload) {
		limit = len(payload)
	}
	for p := start; p < limit; p++ {
		typ := Type(payload[p])
		if !typ.known() {
			continue
		}
		if p+1 > len(payload) {
			continue
		}
		if _, _, err := decodeOne(payload, p+1, typ); err == nil {
			return p, true
		}
	}
	return 0, false
}

// synthesizeMissingNS adds NS records derived from any GLUE* records when
// no NS record is present, preserving downstream DNS semantics (§4.7).
func synthesizeMissingNS(records []Record) []Record {
	hasNS := false
	for _, r := range records {
		if r.Type == TypeNS {
			hasNS = true
			break
		}
	}
	if hasNS {
		return records
	}
	seen := map[string]bool{}
	out := append([]Record(nil), records...)
	for _, r := range records {
		if r.Type != TypeGLUE4 && r.Type != TypeGLUE6 {
			continue
		}
		if r.Name == "" || seen[r.Name] {
			continue
		}
		seen[r.Name] = true
		out = append(out, Record{Type: TypeNS, Name: r.Name})
	}
	return out
}
