// Package magic implements magic-bitboard attack generation for the
// sliding pieces: relevant occupancy masks, a ray-casting oracle, a
// randomized magic-number finder, and the O(1) lookup table with binary
// persistence.
package magic

import (
	"math/bits"

	"github.com/fgantt/yse/internal/shogi"
)

var (
	rookMasks   [shogi.NumSquares]shogi.Bitboard
	bishopMasks [shogi.NumSquares]shogi.Bitboard
)

func init() {
	for sq := shogi.SQ1A; sq <= shogi.SQ9I; sq++ {
		rookMasks[sq] = rookMask(sq)
		bishopMasks[sq] = bishopMask(sq)
	}
}

// RelevantMask returns the occupancy mask whose squares can change the
// attack set of the given slider on the given square. The outermost
// square of each ray is excluded: a blocker there cannot shorten the ray
// any further. Returns the empty bitboard for non-sliding piece types.
func RelevantMask(sq shogi.Square, pt shogi.PieceType) shogi.Bitboard {
	if !sq.IsValid() {
		return shogi.EmptyBB
	}
	switch pt {
	case shogi.Rook:
		return rookMasks[sq]
	case shogi.Bishop:
		return bishopMasks[sq]
	default:
		return shogi.EmptyBB
	}
}

// rookMask returns the relevant occupancy mask for a rook: the inner
// squares of its file and rank, excluding its own square.
func rookMask(sq shogi.Square) shogi.Bitboard {
	file := sq.File()
	rank := sq.Rank()

	var mask shogi.Bitboard

	for f := 1; f < 8; f++ {
		if f != file {
			mask = mask.Set(shogi.NewSquare(f, rank))
		}
	}
	for r := 1; r < 8; r++ {
		if r != rank {
			mask = mask.Set(shogi.NewSquare(file, r))
		}
	}

	return mask
}

// bishopMask returns the relevant occupancy mask for a bishop: its open
// diagonals with the board rim stripped off.
func bishopMask(sq shogi.Square) shogi.Bitboard {
	rim := shogi.RankMask[0].Or(shogi.RankMask[8]).Or(shogi.FileMask[0]).Or(shogi.FileMask[8])
	return BishopAttacksSlow(sq, shogi.EmptyBB).AndNot(rim)
}

// RookAttacksSlow computes rook attacks by ray casting. Each orthogonal
// ray extends until the board edge or the first occupied square, which is
// included since the rook can capture onto it. This is the ground-truth
// oracle used to populate tables and to service squares with no magic
// entry.
func RookAttacksSlow(sq shogi.Square, occupied shogi.Bitboard) shogi.Bitboard {
	var attacks shogi.Bitboard
	file, rank := sq.File(), sq.Rank()

	for r := rank + 1; r <= 8; r++ {
		s := shogi.NewSquare(file, r)
		attacks = attacks.Set(s)
		if occupied.IsSet(s) {
			break
		}
	}
	for r := rank - 1; r >= 0; r-- {
		s := shogi.NewSquare(file, r)
		attacks = attacks.Set(s)
		if occupied.IsSet(s) {
			break
		}
	}
	for f := file + 1; f <= 8; f++ {
		s := shogi.NewSquare(f, rank)
		attacks = attacks.Set(s)
		if occupied.IsSet(s) {
			break
		}
	}
	for f := file - 1; f >= 0; f-- {
		s := shogi.NewSquare(f, rank)
		attacks = attacks.Set(s)
		if occupied.IsSet(s) {
			break
		}
	}

	return attacks
}

// BishopAttacksSlow computes bishop attacks by ray casting along the four
// diagonals, stopping at and including the first blocker.
func BishopAttacksSlow(sq shogi.Square, occupied shogi.Bitboard) shogi.Bitboard {
	var attacks shogi.Bitboard
	file, rank := sq.File(), sq.Rank()

	for f, r := file+1, rank+1; f <= 8 && r <= 8; f, r = f+1, r+1 {
		s := shogi.NewSquare(f, r)
		attacks = attacks.Set(s)
		if occupied.IsSet(s) {
			break
		}
	}
	for f, r := file-1, rank+1; f >= 0 && r <= 8; f, r = f-1, r+1 {
		s := shogi.NewSquare(f, r)
		attacks = attacks.Set(s)
		if occupied.IsSet(s) {
			break
		}
	}
	for f, r := file+1, rank-1; f <= 8 && r >= 0; f, r = f+1, r-1 {
		s := shogi.NewSquare(f, r)
		attacks = attacks.Set(s)
		if occupied.IsSet(s) {
			break
		}
	}
	for f, r := file-1, rank-1; f >= 0 && r >= 0; f, r = f-1, r-1 {
		s := shogi.NewSquare(f, r)
		attacks = attacks.Set(s)
		if occupied.IsSet(s) {
			break
		}
	}

	return attacks
}

// LanceAttacksSlow computes lance attacks: the rook's forward file ray
// for the given color, blocker inclusive.
func LanceAttacksSlow(c shogi.Color, sq shogi.Square, occupied shogi.Bitboard) shogi.Bitboard {
	forward := shogi.ForwardRanksMask(c, sq.Rank())
	return RookAttacksSlow(sq, occupied).And(shogi.FileMask[sq.File()]).And(forward)
}

// slowAttacks dispatches to the ray-casting oracle for a slider type.
func slowAttacks(sq shogi.Square, pt shogi.PieceType, occupied shogi.Bitboard) shogi.Bitboard {
	if pt == shogi.Rook {
		return RookAttacksSlow(sq, occupied)
	}
	return BishopAttacksSlow(sq, occupied)
}

// SubsetNext returns the next occupancy subset of mask after sub using
// the Carry-Rippler trick: (sub - mask) & mask. Starting from the empty
// set it visits every subset exactly once and wraps back to empty after
// mask itself.
func SubsetNext(sub, mask shogi.Bitboard) shogi.Bitboard {
	sLo, sHi := sub.Uint128()
	mLo, mHi := mask.Uint128()
	lo, borrow := bits.Sub64(sLo, mLo, 0)
	hi, _ := bits.Sub64(sHi, mHi, borrow)
	return shogi.FromUint128(lo, hi).And(mask)
}
