package resource

import (
	"strings"
)

// maxPointerHops bounds DNS-name compression pointer chains within a
// resource payload (§4.7).
const maxPointerHops = 10

// maxLabelLength is the per-label length ceiling (§4.7).
const maxLabelLength = 63

// decodeName parses a compressed DNS name starting at start within payload,
// honoring RFC 1035 §4.1.4 compression pointers scoped to the resource
// payload buffer itself (the payload is the only addressable "message" a
// pointer can target; there is no outer DNS message envelope here). It
// returns the dotted name and the number of bytes consumed from start in
// the non-pointer-followed stream (i.e. up through the terminating pointer
// or root label, not through any bytes read after following a pointer).
func decodeName(payload []byte, start int) (name string, consumed int, err error) {
	var labels []string
	pos := start
	hops := 0
	jumped := false
	linearEnd := start

	for {
		if pos >= len(payload) {
			return "", 0, ErrEncoding
		}
		b := payload[pos]
		switch {
		case b == 0:
			pos++
			if !jumped {
				linearEnd = pos
			}
			if labels == nil {
				return "", linearEnd - start, nil
			}
			return strings.Join(labels, "."), linearEnd - start, nil
		case b&0xc0 == 0xc0:
			if pos+1 >= len(payload) {
				return "", 0, ErrEncoding
			}
			hops++
			if hops > maxPointerHops {
				return "", 0, ErrEncoding
			}
			offset := int(b&0x3f)<<8 | int(payload[pos+1])
			if !jumped {
				linearEnd = pos + 2
			}
			jumped = true
			if offset >= len(payload) {
				return "", 0, ErrEncoding
			}
			pos = offset
		case b&0xc0 != 0:
			return "", 0, ErrEncoding
		default:
			length := int(b)
			if length > maxLabelLength {
				return "", 0, ErrEncoding
			}
			pos++
			if pos+length > len(payload) {
				return "", 0, ErrEncoding
			}
			labels = append(labels, string(payload[pos:pos+length]))
			pos += length
		}
	}
}
