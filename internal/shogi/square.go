// Package shogi implements 9x9 board geometry and the 128-bit bitboard
// primitive used by the attack-generation subsystem.
package shogi

import "fmt"

// Square represents a square on the shogi board (0-80).
// Index = rank*9 + file, where file 0-8 maps to shogi files 1-9 and
// rank 0-8 maps to shogi ranks a-i. SQ1A=0, SQ9A=8, SQ1I=72, SQ9I=80.
type Square uint8

// Square constants for all 81 squares.
const (
	SQ1A Square = iota
	SQ2A
	SQ3A
	SQ4A
	SQ5A
	SQ6A
	SQ7A
	SQ8A
	SQ9A
	SQ1B
	SQ2B
	SQ3B
	SQ4B
	SQ5B
	SQ6B
	SQ7B
	SQ8B
	SQ9B
	SQ1C
	SQ2C
	SQ3C
	SQ4C
	SQ5C
	SQ6C
	SQ7C
	SQ8C
	SQ9C
	SQ1D
	SQ2D
	SQ3D
	SQ4D
	SQ5D
	SQ6D
	SQ7D
	SQ8D
	SQ9D
	SQ1E
	SQ2E
	SQ3E
	SQ4E
	SQ5E
	SQ6E
	SQ7E
	SQ8E
	SQ9E
	SQ1F
	SQ2F
	SQ3F
	SQ4F
	SQ5F
	SQ6F
	SQ7F
	SQ8F
	SQ9F
	SQ1G
	SQ2G
	SQ3G
	SQ4G
	SQ5G
	SQ6G
	SQ7G
	SQ8G
	SQ9G
	SQ1H
	SQ2H
	SQ3H
	SQ4H
	SQ5H
	SQ6H
	SQ7H
	SQ8H
	SQ9H
	SQ1I
	SQ2I
	SQ3I
	SQ4I
	SQ5I
	SQ6I
	SQ7I
	SQ8I
	SQ9I
	NoSquare Square = 81
)

// NumSquares is the number of playable squares on the board.
const NumSquares = 81

// BoardSize is the board width and height.
const BoardSize = 9

// File returns the file (column) index of the square (0-8, where 0 is
// shogi file 1 and 8 is shogi file 9).
func (sq Square) File() int {
	return int(sq) % 9
}

// Rank returns the rank (row) index of the square (0-8, where 0 is rank a).
func (sq Square) Rank() int {
	return int(sq) / 9
}

// String returns the shogi notation for the square (e.g., "7g").
func (sq Square) String() string {
	if sq >= NoSquare {
		return "-"
	}
	return fmt.Sprintf("%c%c", '1'+sq.File(), 'a'+sq.Rank())
}

// NewSquare creates a square from file and rank (0-indexed).
func NewSquare(file, rank int) Square {
	return Square(rank*9 + file)
}

// ParseSquare parses shogi notation (e.g., "7g") into a Square.
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return NoSquare, fmt.Errorf("invalid square: %s", s)
	}

	file := int(s[0] - '1')
	rank := int(s[1] - 'a')

	if file < 0 || file > 8 || rank < 0 || rank > 8 {
		return NoSquare, fmt.Errorf("invalid square: %s", s)
	}

	return NewSquare(file, rank), nil
}

// IsValid returns true if the square is a valid board square (0-80).
func (sq Square) IsValid() bool {
	return sq < NoSquare
}
