package proof

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// hashLeaf implements hash_leaf(key, h) = blake2b-256(0x00 || key || h) (§4.6).
func hashLeaf(key [32]byte, h [32]byte) [32]byte {
	buf := make([]byte, 0, 1+32+32)
	buf = append(buf, 0x00)
	buf = append(buf, key[:]...)
	buf = append(buf, h[:]...)
	return blake2b.Sum256(buf)
}

// hashInternal implements hash_internal(prefix, psz, L, R) (§4.6).
func hashInternal(prefix []byte, psz uint16, left, right [32]byte) [32]byte {
	if psz == 0 {
		buf := make([]byte, 0, 1+32+32)
		buf = append(buf, 0x01)
		buf = append(buf, left[:]...)
		buf = append(buf, right[:]...)
		return blake2b.Sum256(buf)
	}
	buf := make([]byte, 0, 1+2+len(prefix)+32+32)
	buf = append(buf, 0x02)
	var szBuf [2]byte
	binary.LittleEndian.PutUint16(szBuf[:], psz)
	buf = append(buf, szBuf[:]...)
	buf = append(buf, prefix...)
	buf = append(buf, left[:]...)
	buf = append(buf, right[:]...)
	return blake2b.Sum256(buf)
}

// keyBit returns the bit of key at depth d (0-indexed from the MSB of
// key[0]), MSB-first (§4.6).
func keyBit(key [32]byte, d int) int {
	return int((key[d/8] >> (7 - uint(d%8))) & 1)
}

// prefixMatches reports whether the psz bits of prefix equal the psz bits of
// key starting at depth, MSB-first. It reports false (rather than panicking)
// if the comparison would run past the 256-bit key.
func prefixMatches(prefix []byte, psz uint16, key [32]byte, depth int) bool {
	for i := 0; i < int(psz); i++ {
		kd := depth + i
		if kd < 0 || kd >= 256 {
			return false
		}
		kb := keyBit(key, kd)
		pb := int((prefix[i/8] >> (7 - uint(i%8))) & 1)
		if kb != pb {
			return false
		}
	}
	return true
}
