//go:build goexperiment.simd && amd64
// +build goexperiment.simd,amd64

// SIMD-accelerated batch bitboard operations.
// Requires Go 1.26+ with GOEXPERIMENT=simd on AMD64 architecture.

package shogi

import (
	"simd/archsimd"
	"unsafe"
)

// Number of uint64 words processed per SIMD iteration (256-bit AVX2).
const simdUint64Width = 4

// words views a bitboard slice as its flat uint64 word array (lo, hi per
// element). Bitboard is two contiguous uint64 fields, so the layouts match.
func words(b []Bitboard) []uint64 {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*uint64)(unsafe.Pointer(&b[0])), 2*len(b))
}

// BatchAnd computes dst[i] = a[i] & b[i] using SIMD.
func BatchAnd(dst, a, b []Bitboard) {
	if len(a) != len(b) || len(dst) != len(a) {
		panic("BatchAnd: slice length mismatch")
	}
	dw, aw, bw := words(dst), words(a), words(b)
	n := len(aw)

	i := 0
	for ; i+simdUint64Width <= n; i += simdUint64Width {
		x := archsimd.LoadUint64x4(aw[i:])
		y := archsimd.LoadUint64x4(bw[i:])
		archsimd.StoreUint64x4(dw[i:], x.And(y))
	}
	for ; i < n; i++ {
		dw[i] = aw[i] & bw[i]
	}
}

// BatchOr computes dst[i] = a[i] | b[i] using SIMD.
func BatchOr(dst, a, b []Bitboard) {
	if len(a) != len(b) || len(dst) != len(a) {
		panic("BatchOr: slice length mismatch")
	}
	dw, aw, bw := words(dst), words(a), words(b)
	n := len(aw)

	i := 0
	for ; i+simdUint64Width <= n; i += simdUint64Width {
		x := archsimd.LoadUint64x4(aw[i:])
		y := archsimd.LoadUint64x4(bw[i:])
		archsimd.StoreUint64x4(dw[i:], x.Or(y))
	}
	for ; i < n; i++ {
		dw[i] = aw[i] | bw[i]
	}
}

// BatchXor computes dst[i] = a[i] ^ b[i] using SIMD.
func BatchXor(dst, a, b []Bitboard) {
	if len(a) != len(b) || len(dst) != len(a) {
		panic("BatchXor: slice length mismatch")
	}
	dw, aw, bw := words(dst), words(a), words(b)
	n := len(aw)

	i := 0
	for ; i+simdUint64Width <= n; i += simdUint64Width {
		x := archsimd.LoadUint64x4(aw[i:])
		y := archsimd.LoadUint64x4(bw[i:])
		archsimd.StoreUint64x4(dw[i:], x.Xor(y))
	}
	for ; i < n; i++ {
		dw[i] = aw[i] ^ bw[i]
	}
}

// BatchAndNot computes dst[i] = a[i] &^ b[i] using SIMD.
func BatchAndNot(dst, a, b []Bitboard) {
	if len(a) != len(b) || len(dst) != len(a) {
		panic("BatchAndNot: slice length mismatch")
	}
	dw, aw, bw := words(dst), words(a), words(b)
	n := len(aw)

	i := 0
	for ; i+simdUint64Width <= n; i += simdUint64Width {
		x := archsimd.LoadUint64x4(aw[i:])
		y := archsimd.LoadUint64x4(bw[i:])
		archsimd.StoreUint64x4(dw[i:], x.AndNot(y))
	}
	for ; i < n; i++ {
		dw[i] = aw[i] &^ bw[i]
	}
}

// BatchEqual reports whether a[i] == b[i] for every i.
func BatchEqual(a, b []Bitboard) bool {
	if len(a) != len(b) {
		return false
	}
	aw, bw := words(a), words(b)
	n := len(aw)

	var acc [simdUint64Width]uint64
	i := 0
	if i+simdUint64Width <= n {
		diff := archsimd.LoadUint64x4(aw[i:]).Xor(archsimd.LoadUint64x4(bw[i:]))
		i += simdUint64Width
		for ; i+simdUint64Width <= n; i += simdUint64Width {
			x := archsimd.LoadUint64x4(aw[i:])
			y := archsimd.LoadUint64x4(bw[i:])
			diff = diff.Or(x.Xor(y))
		}
		archsimd.StoreUint64x4(acc[:], diff)
	}
	rest := uint64(0)
	for ; i < n; i++ {
		rest |= aw[i] ^ bw[i]
	}
	return acc[0]|acc[1]|acc[2]|acc[3]|rest == 0
}

// BatchPopCount returns the total number of set bits across all bitboards.
// Note: Go 1.26 simd has no vector population count, so this stays scalar.
func BatchPopCount(bbs []Bitboard) int {
	total := 0
	for i := range bbs {
		total += bbs[i].PopCount()
	}
	return total
}
