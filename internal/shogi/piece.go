package shogi

// Color represents the color of a piece or player. Black (sente) moves
// toward rank a, White (gote) toward rank i.
type Color uint8

const (
	Black Color = iota
	White
	NoColor Color = 2
)

// Other returns the opposite color.
func (c Color) Other() Color {
	return c ^ 1
}

// String returns the color name.
func (c Color) String() string {
	switch c {
	case Black:
		return "Black"
	case White:
		return "White"
	default:
		return "NoColor"
	}
}

// PieceType represents the type of a shogi piece.
type PieceType uint8

const (
	Pawn PieceType = iota
	Lance
	Knight
	Silver
	Gold
	Bishop
	Rook
	King
	NoPieceType PieceType = 8
)

// String returns the piece type name.
func (pt PieceType) String() string {
	switch pt {
	case Pawn:
		return "Pawn"
	case Lance:
		return "Lance"
	case Knight:
		return "Knight"
	case Silver:
		return "Silver"
	case Gold:
		return "Gold"
	case Bishop:
		return "Bishop"
	case Rook:
		return "Rook"
	case King:
		return "King"
	default:
		return "None"
	}
}

// Char returns the SFEN character for the piece type (lowercase).
func (pt PieceType) Char() byte {
	chars := []byte{'p', 'l', 'n', 's', 'g', 'b', 'r', 'k', ' '}
	if pt > NoPieceType {
		return ' '
	}
	return chars[pt]
}

// IsSlider returns true for the piece types served by the magic lookup
// tables. Lance attacks are derived from rook attacks by the caller.
func (pt PieceType) IsSlider() bool {
	return pt == Rook || pt == Bishop
}
