package wal

import "encoding/binary"

// checksum implements the WAL's cumulative checksum: a Fletcher-style
// running pair (sum1, sum2) folded into a single uint32 via XOR. The
// algorithm and its seeding rules are fixed by the on-disk format and
// must match byte-for-byte across writer and reader.
func checksum(words []uint32, s1, s2 uint32) uint32 {
	sum1, sum2 := s1, s2
	for _, w := range words {
		sum1 += w + sum2
		sum2 += w + sum1
	}
	return sum1 ^ sum2
}

// bytesToWords reinterprets a little-endian byte slice as uint32 words.
func bytesToWords(b []byte) []uint32 {
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[i*4 : i*4+4])
	}
	return words
}
