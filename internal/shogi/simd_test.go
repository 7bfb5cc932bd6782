package shogi

import (
	"math/rand/v2"
	"testing"
)

// randomBoards fills n bitboards with pseudo-random valid values.
func randomBoards(rng *rand.Rand, n int) []Bitboard {
	bbs := make([]Bitboard, n)
	for i := range bbs {
		bbs[i] = FromUint128(rng.Uint64(), rng.Uint64())
	}
	return bbs
}

// The batch operations must be bit-for-bit identical to the per-element
// scalar methods regardless of build flavor: tables generated by a SIMD
// build are consumed by scalar builds and vice versa.
func TestBatchOpsMatchScalar(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 13))

	// Lengths chosen to exercise both the vector body and the remainder loop.
	for _, n := range []int{0, 1, 3, 4, 7, 64, 81, 1000} {
		a := randomBoards(rng, n)
		b := randomBoards(rng, n)
		dst := make([]Bitboard, n)

		ops := []struct {
			name   string
			batch  func(dst, a, b []Bitboard)
			scalar func(a, b Bitboard) Bitboard
		}{
			{"And", BatchAnd, Bitboard.And},
			{"Or", BatchOr, Bitboard.Or},
			{"Xor", BatchXor, Bitboard.Xor},
			{"AndNot", BatchAndNot, Bitboard.AndNot},
		}

		for _, op := range ops {
			op.batch(dst, a, b)
			for i := range dst {
				if want := op.scalar(a[i], b[i]); !dst[i].Equal(want) {
					t.Fatalf("Batch%s n=%d index %d: got %v, want %v", op.name, n, i, dst[i], want)
				}
			}
		}
	}
}

func TestBatchEqual(t *testing.T) {
	rng := rand.New(rand.NewPCG(21, 2))

	for _, n := range []int{0, 1, 5, 81, 256} {
		a := randomBoards(rng, n)
		b := make([]Bitboard, n)
		copy(b, a)

		if !BatchEqual(a, b) {
			t.Fatalf("BatchEqual false for identical slices, n=%d", n)
		}
		if n > 0 {
			// Flip one bit anywhere; equality must fail.
			idx := rng.IntN(n)
			b[idx] = b[idx].Toggle(Square(rng.IntN(NumSquares)))
			if BatchEqual(a, b) {
				t.Fatalf("BatchEqual true after corrupting index %d, n=%d", idx, n)
			}
		}
	}

	if BatchEqual(make([]Bitboard, 2), make([]Bitboard, 3)) {
		t.Error("BatchEqual true for mismatched lengths")
	}
}

func TestBatchPopCount(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 99))
	bbs := randomBoards(rng, 137)

	want := 0
	for i := range bbs {
		want += bbs[i].PopCount()
	}
	if got := BatchPopCount(bbs); got != want {
		t.Errorf("BatchPopCount = %d, want %d", got, want)
	}
	if BatchPopCount(nil) != 0 {
		t.Errorf("BatchPopCount(nil) != 0")
	}
}

func BenchmarkBatchAnd(b *testing.B) {
	rng := rand.New(rand.NewPCG(1, 1))
	x := randomBoards(rng, 4096)
	y := randomBoards(rng, 4096)
	dst := make([]Bitboard, 4096)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		BatchAnd(dst, x, y)
	}
}
