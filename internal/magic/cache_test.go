package magic

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/fgantt/yse/internal/shogi"
)

// countingSource wraps the ray-cast oracle and counts how often the
// cache reaches through to it.
type countingSource struct {
	calls int
	fail  error
}

func (s *countingSource) Attacks(sq shogi.Square, pt shogi.PieceType, occ shogi.Bitboard) (shogi.Bitboard, error) {
	s.calls++
	if s.fail != nil {
		return shogi.EmptyBB, s.fail
	}
	return slowAttacks(sq, pt, occ), nil
}

func TestCacheHitsAndMisses(t *testing.T) {
	src := &countingSource{}
	cache := NewAttackCache(src, 16)

	occ := shogi.SquareBB(shogi.SQ5C)

	first, err := cache.GenerateAttackPattern(shogi.SQ5E, shogi.Rook, occ)
	if err != nil {
		t.Fatal(err)
	}
	second, err := cache.GenerateAttackPattern(shogi.SQ5E, shogi.Rook, occ)
	if err != nil {
		t.Fatal(err)
	}

	if !first.Equal(second) || !first.Equal(RookAttacksSlow(shogi.SQ5E, occ)) {
		t.Error("cached pattern differs from source pattern")
	}
	if src.calls != 1 {
		t.Errorf("source called %d times, want 1", src.calls)
	}

	stats := cache.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Size != 1 {
		t.Errorf("stats = %+v, want 1 hit, 1 miss, size 1", stats)
	}

	// A different occupancy is a different pattern.
	if _, err := cache.GenerateAttackPattern(shogi.SQ5E, shogi.Rook, shogi.EmptyBB); err != nil {
		t.Fatal(err)
	}
	if cache.Stats().Misses != 2 {
		t.Errorf("misses = %d, want 2", cache.Stats().Misses)
	}
}

func TestCacheSizeBound(t *testing.T) {
	const capacity = 32
	src := &countingSource{}
	cache := NewAttackCache(src, capacity)
	rng := rand.New(rand.NewPCG(1, 9))

	// Far more distinct patterns than the cache can hold; the bound
	// must hold after every single call.
	for i := 0; i < 10*capacity; i++ {
		sq := shogi.Square(rng.IntN(shogi.NumSquares))
		occ := shogi.FromUint128(rng.Uint64(), rng.Uint64())
		if _, err := cache.GenerateAttackPattern(sq, shogi.Bishop, occ); err != nil {
			t.Fatal(err)
		}
		if size := cache.Stats().Size; size > capacity {
			t.Fatalf("cache size %d exceeds capacity %d after %d calls", size, capacity, i+1)
		}
	}
	if cache.Stats().Size != capacity {
		t.Errorf("cache size = %d, want full at %d", cache.Stats().Size, capacity)
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	src := &countingSource{}
	cache := NewAttackCache(src, 2)

	occA := shogi.SquareBB(shogi.SQ1A)
	occB := shogi.SquareBB(shogi.SQ2B)
	occC := shogi.SquareBB(shogi.SQ3C)

	mustGen := func(occ shogi.Bitboard) {
		t.Helper()
		if _, err := cache.GenerateAttackPattern(shogi.SQ5E, shogi.Rook, occ); err != nil {
			t.Fatal(err)
		}
	}

	mustGen(occA) // miss: {A}
	mustGen(occB) // miss: {A B}
	mustGen(occA) // hit, A becomes most recent
	mustGen(occC) // miss, evicts B: {A C}

	calls := src.calls
	mustGen(occA) // still cached
	if src.calls != calls {
		t.Error("most recently used entry was evicted")
	}
	mustGen(occB) // evicted, must recompute
	if src.calls != calls+1 {
		t.Error("least recently used entry was not evicted")
	}
}

func TestCacheErrorNotCached(t *testing.T) {
	boom := errors.New("boom")
	src := &countingSource{fail: boom}
	cache := NewAttackCache(src, 4)

	if _, err := cache.GenerateAttackPattern(shogi.SQ5E, shogi.Rook, shogi.EmptyBB); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want propagated source error", err)
	}
	if cache.Stats().Size != 0 {
		t.Error("failed lookup was cached")
	}

	// Invalid inputs surface through the cache the same way they do
	// from the table.
	cache = NewAttackCache(NewEmpty(), 4)
	if _, err := cache.GenerateAttackPattern(shogi.NoSquare, shogi.Rook, shogi.EmptyBB); !errors.Is(err, ErrSquareOutOfRange) {
		t.Errorf("err = %v, want ErrSquareOutOfRange", err)
	}
	if _, err := cache.GenerateAttackPattern(shogi.SQ5E, shogi.Pawn, shogi.EmptyBB); !errors.Is(err, ErrNotSlider) {
		t.Errorf("err = %v, want ErrNotSlider", err)
	}
}

func TestCacheClear(t *testing.T) {
	cache := NewAttackCache(NewEmpty(), 8)
	for i := 0; i < 5; i++ {
		occ := shogi.SquareBB(shogi.Square(i * 7))
		if _, err := cache.GenerateAttackPattern(shogi.SQ5E, shogi.Rook, occ); err != nil {
			t.Fatal(err)
		}
	}
	if cache.Stats().Size == 0 {
		t.Fatal("expected populated cache")
	}

	cache.Clear()
	stats := cache.Stats()
	if stats.Size != 0 || stats.Hits != 0 || stats.Misses != 0 {
		t.Errorf("stats after Clear = %+v, want zeros", stats)
	}
}

func TestCacheDefaultSize(t *testing.T) {
	cache := NewAttackCache(NewEmpty(), 0)
	if cache.Stats().Capacity != DefaultCacheSize {
		t.Errorf("capacity = %d, want DefaultCacheSize", cache.Stats().Capacity)
	}
}

func TestCacheHitRate(t *testing.T) {
	cache := NewAttackCache(NewEmpty(), 8)
	if cache.HitRate() != 0 {
		t.Error("hit rate of untouched cache should be 0")
	}
	occ := shogi.EmptyBB
	for i := 0; i < 4; i++ {
		if _, err := cache.GenerateAttackPattern(shogi.SQ5E, shogi.Rook, occ); err != nil {
			t.Fatal(err)
		}
	}
	if got := cache.HitRate(); got != 75 {
		t.Errorf("hit rate = %f, want 75", got)
	}
}
