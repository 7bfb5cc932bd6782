package magic

import (
	"errors"
	"fmt"
	"math/bits"
	"math/rand/v2"

	"github.com/fgantt/yse/internal/shogi"
)

// ErrNoMagicFound is returned when the randomized search exhausts its
// iteration cap without finding a collision-free multiplier. Does not
// happen in practice for the 81x2 slider entries, but the path exists
// and is exercised by tests with a tiny cap.
var ErrNoMagicFound = errors.New("no magic number found")

// ErrNotSlider is returned when a magic is requested for a piece type
// that the hashing scheme does not serve.
var ErrNotSlider = errors.New("piece type is not a magic-hashed slider")

// GenerationResult is the finder's output for one (square, piece) pair,
// persisted independently of the full table so builds are reproducible.
type GenerationResult struct {
	MagicLo   uint64 `json:"magic_lo"`
	MagicHi   uint64 `json:"magic_hi"`
	Shift     uint8  `json:"shift"`
	TableSize uint32 `json:"table_size"`
}

// DefaultMaxTries caps the candidate search per square.
const DefaultMaxTries = 100_000_000

// Finder performs the randomized magic-number search. A zero-seeded
// Finder draws fresh entropy per search; a seeded one is reproducible,
// including across the parallel generation path (each square derives its
// own stream from the base seed).
type Finder struct {
	MaxTries int

	seed   uint64
	seeded bool

	// candidates overrides the sparse random draw; tests use it to
	// force the exhaustion path.
	candidates func(rng *rand.Rand) (lo, hi uint64)
}

// DefaultFinder returns a finder with the default iteration cap and
// non-deterministic candidates.
func DefaultFinder() *Finder {
	return &Finder{MaxTries: DefaultMaxTries}
}

// SeededFinder returns a reproducible finder.
func SeededFinder(seed uint64) *Finder {
	return &Finder{MaxTries: DefaultMaxTries, seed: seed, seeded: true}
}

// rng returns an independent random stream for one (square, piece)
// search, so parallel searches never share state.
func (f *Finder) rng(sq shogi.Square, pt shogi.PieceType) *rand.Rand {
	if f.seeded {
		return rand.New(rand.NewPCG(f.seed, uint64(pt)<<8|uint64(sq)))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// sparseUint64 draws a candidate word biased toward few set bits; sparse
// multipliers spread the relevant bits into the hash's top bits far more
// often than dense ones.
func sparseUint64(rng *rand.Rand) uint64 {
	return rng.Uint64() & rng.Uint64() & rng.Uint64()
}

// magicIndex hashes a masked occupancy into [0, 2^(128-shift)):
// the top bits of (occ * magic) mod 2^128. The relevant masks never
// exceed 14 bits, so shift is always >= 114 and the index fits the high
// product word.
func magicIndex(occ shogi.Bitboard, magicLo, magicHi uint64, shift uint8) uint32 {
	oLo, oHi := occ.Uint128()
	hi, _ := bits.Mul64(oLo, magicLo)
	hi += oLo*magicHi + oHi*magicLo
	return uint32(hi >> (shift - 64))
}

// FindMagic searches for a multiplier/shift pair that hashes every
// occupancy subset of the relevant mask for (sq, pt) into a table of
// size 2^popcount(mask) without destructive collisions. Two subsets may
// share an index only when their true attack sets are identical; that
// aliasing is what keeps the table small.
func (f *Finder) FindMagic(sq shogi.Square, pt shogi.PieceType) (GenerationResult, error) {
	if !sq.IsValid() {
		return GenerationResult{}, fmt.Errorf("find magic: square %d: %w", sq, ErrSquareOutOfRange)
	}
	if !pt.IsSlider() {
		return GenerationResult{}, fmt.Errorf("find magic %v %v: %w", pt, sq, ErrNotSlider)
	}

	mask := RelevantMask(sq, pt)
	nbits := mask.PopCount()
	size := uint32(1) << nbits
	shift := uint8(128 - nbits)

	// Enumerate every subset once up front and precompute its true
	// attack set via the oracle.
	occs := make([]shogi.Bitboard, 0, size)
	refs := make([]shogi.Bitboard, 0, size)
	sub := shogi.EmptyBB
	for {
		occs = append(occs, sub)
		refs = append(refs, slowAttacks(sq, pt, sub))
		sub = SubsetNext(sub, mask)
		if sub.IsEmpty() {
			break
		}
	}

	rng := f.rng(sq, pt)
	maxTries := f.MaxTries
	if maxTries <= 0 {
		maxTries = DefaultMaxTries
	}

	// Epoch-stamped scratch table avoids clearing 2^bits slots per
	// candidate. The stamp is 64-bit so it cannot wrap within any
	// representable MaxTries.
	seen := make([]shogi.Bitboard, size)
	epoch := make([]uint64, size)

	draw := f.candidates
	if draw == nil {
		draw = func(rng *rand.Rand) (uint64, uint64) {
			return sparseUint64(rng), sparseUint64(rng)
		}
	}

	for try := 1; try <= maxTries; try++ {
		magicLo, magicHi := draw(rng)

		ok := true
		for i := range occs {
			idx := magicIndex(occs[i], magicLo, magicHi, shift)
			if epoch[idx] != uint64(try) {
				epoch[idx] = uint64(try)
				seen[idx] = refs[i]
				continue
			}
			if !seen[idx].Equal(refs[i]) {
				ok = false
				break
			}
		}
		if ok {
			return GenerationResult{
				MagicLo:   magicLo,
				MagicHi:   magicHi,
				Shift:     shift,
				TableSize: size,
			}, nil
		}
	}

	return GenerationResult{}, fmt.Errorf("find magic %v %v after %d tries: %w", pt, sq, maxTries, ErrNoMagicFound)
}
