package proof

import "github.com/Acktarius/hnsgo/wire"

// encodeProofForTest is the inverse of Decode, used only by tests to build
// wire-format proof bytes from a hand-constructed Proof.
func encodeProofForTest(p *Proof) []byte {
	w := wire.NewWriter(64)
	w.PutU16((uint16(p.Type) << 14) | p.Depth)
	w.PutU16(uint16(len(p.Nodes)))

	if len(p.Nodes) > 0 {
		bitmap := make([]byte, (len(p.Nodes)+7)/8)
		for i, n := range p.Nodes {
			if n.HasPrefix {
				bitmap[i/8] |= 1 << (uint(i) % 8)
			}
		}
		w.PutBytes(bitmap)
		for _, n := range p.Nodes {
			if n.HasPrefix {
				w.PutVarShort(n.PrefixSize)
				w.PutBytes(n.Prefix)
			}
			w.PutBytes(n.Hash[:])
		}
	}

	switch p.Type {
	case Deadend:
	case Short:
		w.PutVarShort(p.ShortPrefixSize)
		w.PutBytes(p.ShortPrefix)
		w.PutBytes(p.ShortLeft[:])
		w.PutBytes(p.ShortRight[:])
	case Collision:
		w.PutBytes(p.NxKey[:])
		w.PutBytes(p.NxHash[:])
	case Exists:
		w.PutU16(uint16(len(p.Value)))
		w.PutBytes(p.Value)
	}
	return w.Bytes()
}
