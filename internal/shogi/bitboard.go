package shogi

import (
	"fmt"
	"math/bits"
)

// Bitboard represents a 128-bit board set where each bit corresponds to a
// square. Bit 0 = SQ1A, bit 80 = SQ9I; squares 0-63 live in the low word,
// squares 64-80 in the high word. Bits 81-127 are reserved and always zero
// in values produced by this package.
type Bitboard struct {
	lo, hi uint64
}

const hiMask = (uint64(1) << (NumSquares - 64)) - 1 // valid bits of the high word

// EmptyBB is the empty bitboard.
var EmptyBB = Bitboard{}

// AllSquares has every playable square set.
var AllSquares = Bitboard{^uint64(0), hiMask}

var (
	// FileMask holds one mask per file (index 0 = shogi file 1).
	FileMask [9]Bitboard

	// RankMask holds one mask per rank (index 0 = rank a).
	RankMask [9]Bitboard

	// forwardRanks[c][r] is the union of ranks in front of rank r for color c.
	forwardRanks [2][9]Bitboard
)

func init() {
	for sq := SQ1A; sq <= SQ9I; sq++ {
		FileMask[sq.File()] = FileMask[sq.File()].Set(sq)
		RankMask[sq.Rank()] = RankMask[sq.Rank()].Set(sq)
	}
	for r := 0; r < 9; r++ {
		for fr := 0; fr < r; fr++ {
			forwardRanks[Black][r] = forwardRanks[Black][r].Or(RankMask[fr])
		}
		for fr := r + 1; fr < 9; fr++ {
			forwardRanks[White][r] = forwardRanks[White][r].Or(RankMask[fr])
		}
	}
}

// ForwardRanksMask returns the union of all ranks ahead of the given rank
// for the given color. Black advances toward rank a, White toward rank i.
func ForwardRanksMask(c Color, rank int) Bitboard {
	return forwardRanks[c][rank]
}

// FromUint128 constructs a bitboard from a raw 128-bit value, masking off
// the reserved high bits.
func FromUint128(lo, hi uint64) Bitboard {
	return Bitboard{lo, hi & hiMask}
}

// Uint128 returns the raw 128-bit value as (lo, hi) words.
func (b Bitboard) Uint128() (lo, hi uint64) {
	return b.lo, b.hi
}

// SquareBB returns a bitboard with only the given square set.
func SquareBB(sq Square) Bitboard {
	if sq >= 64 {
		return Bitboard{0, 1 << (sq - 64)}
	}
	return Bitboard{1 << sq, 0}
}

// Set sets the bit at the given square.
func (b Bitboard) Set(sq Square) Bitboard {
	return b.Or(SquareBB(sq))
}

// Clear clears the bit at the given square.
func (b Bitboard) Clear(sq Square) Bitboard {
	return b.AndNot(SquareBB(sq))
}

// IsSet returns true if the bit at the given square is set.
func (b Bitboard) IsSet(sq Square) bool {
	return !b.And(SquareBB(sq)).IsEmpty()
}

// Toggle flips the bit at the given square.
func (b Bitboard) Toggle(sq Square) Bitboard {
	return b.Xor(SquareBB(sq))
}

// And returns the intersection of two bitboards.
func (b Bitboard) And(o Bitboard) Bitboard {
	return Bitboard{b.lo & o.lo, b.hi & o.hi}
}

// Or returns the union of two bitboards.
func (b Bitboard) Or(o Bitboard) Bitboard {
	return Bitboard{b.lo | o.lo, b.hi | o.hi}
}

// Xor returns the symmetric difference of two bitboards.
func (b Bitboard) Xor(o Bitboard) Bitboard {
	return Bitboard{b.lo ^ o.lo, b.hi ^ o.hi}
}

// AndNot returns the squares of b not in o.
func (b Bitboard) AndNot(o Bitboard) Bitboard {
	return Bitboard{b.lo &^ o.lo, b.hi &^ o.hi}
}

// Not returns the complement over the 81 playable squares.
func (b Bitboard) Not() Bitboard {
	return Bitboard{^b.lo, ^b.hi & hiMask}
}

// ShiftLeft shifts all bits toward higher square indices. Bits shifted
// past square 80 are discarded.
func (b Bitboard) ShiftLeft(n uint) Bitboard {
	var r Bitboard
	switch {
	case n == 0:
		r = b
	case n >= 128:
		return Bitboard{}
	case n >= 64:
		r = Bitboard{0, b.lo << (n - 64)}
	default:
		r = Bitboard{b.lo << n, b.hi<<n | b.lo>>(64-n)}
	}
	r.hi &= hiMask
	return r
}

// ShiftRight shifts all bits toward lower square indices.
func (b Bitboard) ShiftRight(n uint) Bitboard {
	switch {
	case n == 0:
		return b
	case n >= 128:
		return Bitboard{}
	case n >= 64:
		return Bitboard{b.hi >> (n - 64), 0}
	default:
		return Bitboard{b.lo>>n | b.hi<<(64-n), b.hi >> n}
	}
}

// Equal returns true if both bitboards hold the same squares.
func (b Bitboard) Equal(o Bitboard) bool {
	return b.lo == o.lo && b.hi == o.hi
}

// IsEmpty returns true if no bits are set.
func (b Bitboard) IsEmpty() bool {
	return b.lo == 0 && b.hi == 0
}

// More returns true if there are any bits set.
func (b Bitboard) More() bool {
	return b.lo != 0 || b.hi != 0
}

// PopCount returns the number of set bits (population count).
func (b Bitboard) PopCount() int {
	return bits.OnesCount64(b.lo) + bits.OnesCount64(b.hi)
}

// TrailingZeros returns the index of the lowest set bit, or 128 if the
// bitboard is empty.
func (b Bitboard) TrailingZeros() int {
	if b.lo != 0 {
		return bits.TrailingZeros64(b.lo)
	}
	if b.hi != 0 {
		return 64 + bits.TrailingZeros64(b.hi)
	}
	return 128
}

// LSB returns the lowest set square, or NoSquare if empty.
func (b Bitboard) LSB() Square {
	if b.IsEmpty() {
		return NoSquare
	}
	return Square(b.TrailingZeros())
}

// PopLSB removes and returns the lowest set square.
func (b *Bitboard) PopLSB() Square {
	sq := b.LSB()
	if b.lo != 0 {
		b.lo &= b.lo - 1
	} else {
		b.hi &= b.hi - 1
	}
	return sq
}

// ForEach calls the function for each set square.
func (b Bitboard) ForEach(f func(Square)) {
	for b.More() {
		f(b.PopLSB())
	}
}

// Squares returns a slice of all squares that are set.
func (b Bitboard) Squares() []Square {
	squares := make([]Square, 0, b.PopCount())
	for b.More() {
		squares = append(squares, b.PopLSB())
	}
	return squares
}

// String returns a visual representation of the bitboard with rank a at
// the top and file 9 on the left, matching shogi diagram convention.
func (b Bitboard) String() string {
	s := "  9 8 7 6 5 4 3 2 1\n"
	for rank := 0; rank < 9; rank++ {
		s += fmt.Sprintf("%c ", 'a'+rank)
		for file := 8; file >= 0; file-- {
			if b.IsSet(NewSquare(file, rank)) {
				s += "1 "
			} else {
				s += ". "
			}
		}
		s += "\n"
	}
	return s
}
