//go:build !goexperiment.simd || !amd64

// Scalar fallback for batch bitboard operations when SIMD is not available.
// Must be value-identical to the SIMD build for every input: tables built
// with one build flavor are consumed by the other.

package shogi

// BatchAnd computes dst[i] = a[i] & b[i] (scalar fallback).
func BatchAnd(dst, a, b []Bitboard) {
	if len(a) != len(b) || len(dst) != len(a) {
		panic("BatchAnd: slice length mismatch")
	}
	for i := range a {
		dst[i] = a[i].And(b[i])
	}
}

// BatchOr computes dst[i] = a[i] | b[i] (scalar fallback).
func BatchOr(dst, a, b []Bitboard) {
	if len(a) != len(b) || len(dst) != len(a) {
		panic("BatchOr: slice length mismatch")
	}
	for i := range a {
		dst[i] = a[i].Or(b[i])
	}
}

// BatchXor computes dst[i] = a[i] ^ b[i] (scalar fallback).
func BatchXor(dst, a, b []Bitboard) {
	if len(a) != len(b) || len(dst) != len(a) {
		panic("BatchXor: slice length mismatch")
	}
	for i := range a {
		dst[i] = a[i].Xor(b[i])
	}
}

// BatchAndNot computes dst[i] = a[i] &^ b[i] (scalar fallback).
func BatchAndNot(dst, a, b []Bitboard) {
	if len(a) != len(b) || len(dst) != len(a) {
		panic("BatchAndNot: slice length mismatch")
	}
	for i := range a {
		dst[i] = a[i].AndNot(b[i])
	}
}

// BatchEqual reports whether a[i] == b[i] for every i (scalar fallback).
func BatchEqual(a, b []Bitboard) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// BatchPopCount returns the total number of set bits across all bitboards.
func BatchPopCount(bbs []Bitboard) int {
	total := 0
	for i := range bbs {
		total += bbs[i].PopCount()
	}
	return total
}
