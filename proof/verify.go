package proof

import (
	"golang.org/x/crypto/blake2b"

	"github.com/Acktarius/hnsgo/wire"
)

// VerifyErrorKind enumerates the proof-verification failure taxonomy (§4.6,
// §7). It is a distinct type from the package-level decode sentinels so
// callers can switch on Kind() without string matching.
type VerifyErrorKind int

const (
	ErrKindBadArgs VerifyErrorKind = iota
	ErrKindEncoding
	ErrKindSameKey
	ErrKindSamePath
	ErrKindNegativeDepth
	ErrKindPathMismatch
	ErrKindTooDeep
	ErrKindHashMismatch
)

func (k VerifyErrorKind) String() string {
	switch k {
	case ErrKindBadArgs:
		return "bad-args"
	case ErrKindEncoding:
		return "encoding"
	case ErrKindSameKey:
		return "same-key"
	case ErrKindSamePath:
		return "same-path"
	case ErrKindNegativeDepth:
		return "negative-depth"
	case ErrKindPathMismatch:
		return "path-mismatch"
	case ErrKindTooDeep:
		return "too-deep"
	case ErrKindHashMismatch:
		return "hash-mismatch"
	default:
		return "unknown"
	}
}

// VerifyError is the error type Verify returns on failure; it carries one of
// the eight taxonomy kinds so callers (the resolver pipeline) can decide
// whether to mark the peer suspect without parsing error strings (§7).
type VerifyError struct {
	Kind VerifyErrorKind
}

func (e *VerifyError) Error() string { return "proof: verification failed: " + e.Kind.String() }

func verifyErr(k VerifyErrorKind) error { return &VerifyError{Kind: k} }

// Verify checks an encoded getproof response against root and key (§4.6).
//
// On success, it returns (resourceBytes, nil) if the proof is of type
// EXISTS, or (nil, nil) if the proof establishes non-existence (DEADEND,
// SHORT, or COLLISION). Any non-nil error is a *VerifyError.
func Verify(encoded []byte, root [32]byte, key [32]byte) ([]byte, error) {
	p, err := Decode(encoded)
	if err != nil {
		return nil, verifyErr(ErrKindEncoding)
	}
	return verifyProof(p, root, key)
}

func verifyProof(p *Proof, root [32]byte, key [32]byte) ([]byte, error) {
	if p.Depth > MaxDepth || len(p.Nodes) > MaxDepth {
		return nil, verifyErr(ErrKindTooDeep)
	}

	var leaf [32]byte
	switch p.Type {
	case Deadend:
		leaf = [32]byte{}
	case Short:
		if prefixMatches(p.ShortPrefix, p.ShortPrefixSize, key, int(p.Depth)) {
			return nil, verifyErr(ErrKindSamePath)
		}
		leaf = hashInternal(p.ShortPrefix, p.ShortPrefixSize, p.ShortLeft, p.ShortRight)
	case Collision:
		if p.NxKey == key {
			return nil, verifyErr(ErrKindSameKey)
		}
		leaf = hashLeaf(p.NxKey, p.NxHash)
	case Exists:
		valueHash := blake2b.Sum256(p.Value)
		leaf = hashLeaf(key, valueHash)
	default:
		return nil, verifyErr(ErrKindBadArgs)
	}

	d := int(p.Depth)
	next := leaf
	for i := len(p.Nodes) - 1; i >= 0; i-- {
		node := p.Nodes[i]
		d--
		if d < 0 {
			return nil, verifyErr(ErrKindNegativeDepth)
		}
		bit := keyBit(key, d)
		var left, right [32]byte
		if bit == 0 {
			left, right = next, node.Hash
		} else {
			left, right = node.Hash, next
		}
		next = hashInternal(node.Prefix, node.PrefixSize, left, right)

		d -= int(node.PrefixSize)
		if d < 0 {
			return nil, verifyErr(ErrKindNegativeDepth)
		}
		if !prefixMatches(node.Prefix, node.PrefixSize, key, d) {
			return nil, verifyErr(ErrKindPathMismatch)
		}
	}

	if d != 0 {
		return nil, verifyErr(ErrKindPathMismatch)
	}
	if next != root {
		return nil, verifyErr(ErrKindHashMismatch)
	}

	if p.Type != Exists {
		return nil, nil
	}
	return decodeNameState(p.Value)
}

// decodeNameState unwraps the EXISTS value's name-state envelope
// (name_len(u8) || name(name_len) || res_len(u16 LE) || resource_bytes) and
// returns resource_bytes (§4.6).
func decodeNameState(value []byte) ([]byte, error) {
	r := wire.NewReader(value)
	nameLen, err := r.U8()
	if err != nil {
		return nil, verifyErr(ErrKindEncoding)
	}
	if _, err := r.Bytes(int(nameLen)); err != nil {
		return nil, verifyErr(ErrKindEncoding)
	}
	resLen, err := r.U16()
	if err != nil {
		return nil, verifyErr(ErrKindEncoding)
	}
	resBytes, err := r.Bytes(int(resLen))
	if err != nil {
		return nil, verifyErr(ErrKindEncoding)
	}
	// Always non-nil, even for an empty resource, so callers can tell an
	// EXISTS proof apart from a non-existence proof's (nil, nil).
	out := make([]byte, len(resBytes))
	copy(out, resBytes)
	return out, nil
}
