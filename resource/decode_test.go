package resource

import (
	"net"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
)

// assertRecordEqual compares a decoded record against an expectation
// field-by-field, dumping both sides on mismatch so a failure shows the
// full record shape instead of just the one differing field.
func assertRecordEqual(t *testing.T, want, got Record) {
	t.Helper()
	if !assert.Equal(t, want, got) {
		t.Logf("want:\n%s\ngot:\n%s", spew.Sdump(want), spew.Sdump(got))
	}
}

func encodeName(labels ...string) []byte {
	var out []byte
	for _, l := range labels {
		out = append(out, byte(len(l)))
		out = append(out, []byte(l)...)
	}
	out = append(out, 0)
	return out
}

func TestDecodeNSRecord(t *testing.T) {
	payload := []byte{0, byte(TypeNS)}
	payload = append(payload, encodeName("ns1", "example")...)
	recs, err := Decode(payload)
	assert.NoError(t, err)
	assert.Len(t, recs, 1)
	assert.Equal(t, TypeNS, recs[0].Type)
	assert.Equal(t, "ns1.example", recs[0].Name)
}

func TestDecodeGlue4Record(t *testing.T) {
	payload := []byte{0, byte(TypeGLUE4)}
	payload = append(payload, encodeName("ns1", "example")...)
	payload = append(payload, 1, 2, 3, 4)
	recs, err := Decode(payload)
	assert.NoError(t, err)
	assert.Len(t, recs, 1)
	assert.True(t, recs[0].IP.Equal(net.IPv4(1, 2, 3, 4)))
}

func TestDecodeDSRecord(t *testing.T) {
	payload := []byte{0, byte(TypeDS), 0x12, 0x34, 8, 2, 3}
	payload = append(payload, []byte{1, 2, 3}...)
	recs, err := Decode(payload)
	assert.NoError(t, err)
	assert.Len(t, recs, 1)

	want := Record{
		Type:       TypeDS,
		KeyTag:     0x1234,
		Algorithm:  8,
		DigestType: 2,
		Digest:     []byte{1, 2, 3},
	}
	assertRecordEqual(t, want, recs[0])
}

func TestDecodeDSRejectsOversizeDigest(t *testing.T) {
	payload := []byte{0, byte(TypeDS), 0xaa, 0xbb, 0xcc, 0xdd, MaxDigestLength + 1}
	recs, err := Decode(payload)
	assert.NoError(t, err) // malformed record is skipped, not a hard decode error
	for _, r := range recs {
		assert.NotEqual(t, TypeDS, r.Type)
	}
}

func TestDecodeTextRecord(t *testing.T) {
	payload := []byte{0, byte(TypeTEXT), 2}
	payload = append(payload, 3, 'v', '=', '1')
	payload = append(payload, 5, 'h', 'e', 'l', 'l', 'o')
	recs, err := Decode(payload)
	assert.NoError(t, err)
	assert.Len(t, recs, 1)
	assert.Equal(t, []string{"v=1", "hello"}, recs[0].Strings)
}

func TestDecodeBadVersionRejected(t *testing.T) {
	_, err := Decode([]byte{1})
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestDecodeNamePointerCompression(t *testing.T) {
	// First record spells "example" out in full; examplePos marks where its
	// name body starts. The second record's name is a pointer back to it.
	payload := []byte{0, byte(TypeNS)}
	examplePos := len(payload)
	payload = append(payload, encodeName("example")...)
	payload = append(payload, byte(TypeNS))
	payload = append(payload, 0xc0|byte(examplePos>>8), byte(examplePos))

	recs, err := Decode(payload)
	assert.NoError(t, err)
	assert.Len(t, recs, 2)
	assert.Equal(t, "example", recs[0].Name)
	assert.Equal(t, "example", recs[1].Name)
}

func TestDecodeRecoversFromUnknownTypeByte(t *testing.T) {
	payload := []byte{0, 0xfe} // unknown type byte
	payload = append(payload, byte(TypeNS))
	payload = append(payload, encodeName("ns1", "example")...)
	recs, err := Decode(payload)
	assert.NoError(t, err)
	assert.Len(t, recs, 1)
	assert.Equal(t, "ns1.example", recs[0].Name)
}

func TestSynthesizesNSFromGlueWhenMissing(t *testing.T) {
	payload := []byte{0, byte(TypeGLUE4)}
	payload = append(payload, encodeName("ns1", "example")...)
	payload = append(payload, 9, 9, 9, 9)
	recs, err := Decode(payload)
	assert.NoError(t, err)
	assert.Len(t, recs, 2)
	assert.Equal(t, TypeGLUE4, recs[0].Type)
	assert.Equal(t, TypeNS, recs[1].Type)
	assert.Equal(t, "ns1.example", recs[1].Name)
}

func TestDecodePointerCycleRejected(t *testing.T) {
	payload := []byte{0, byte(TypeNS), 0xc0, 0x02} // points to itself
	recs, err := Decode(payload)
	assert.NoError(t, err) // recovered via resync (finds nothing), not a hard error
	assert.Empty(t, recs)
}
