// Package viz renders bitboards as SVG board diagrams for human
// inspection of attack sets and masks.
package viz

import (
	"io"

	svg "github.com/ajstarks/svgo"

	"github.com/fgantt/yse/internal/shogi"
)

const (
	cellSize = 40
	margin   = 24
)

// BoardDiagram describes one diagram: the highlighted square set plus an
// optional origin square drawn as the piece's position.
type BoardDiagram struct {
	Bits   shogi.Bitboard
	Origin shogi.Square // NoSquare for none
	Title  string
}

// WriteBoard renders the diagram as an SVG document. Rank a is at the
// top and file 9 on the left, matching shogi diagram convention.
func WriteBoard(w io.Writer, d BoardDiagram) {
	boardPx := 9 * cellSize
	width := boardPx + 2*margin
	height := boardPx + 2*margin

	canvas := svg.New(w)
	canvas.Start(width, height)

	if d.Title != "" {
		canvas.Text(margin, margin-8, d.Title, "font-family:sans-serif;font-size:12px;fill:#333")
	}

	for rank := 0; rank < 9; rank++ {
		for file := 0; file < 9; file++ {
			sq := shogi.NewSquare(file, rank)
			x := margin + (8-file)*cellSize
			y := margin + rank*cellSize

			style := "fill:#f5ead0;stroke:#555;stroke-width:1"
			switch {
			case sq == d.Origin:
				style = "fill:#4a78c2;stroke:#555;stroke-width:1"
			case d.Bits.IsSet(sq):
				style = "fill:#c5e08a;stroke:#555;stroke-width:1"
			}
			canvas.Rect(x, y, cellSize, cellSize, style)
		}
	}

	// Coordinate labels.
	for file := 0; file < 9; file++ {
		x := margin + (8-file)*cellSize + cellSize/2 - 3
		canvas.Text(x, margin+boardPx+16, string(rune('1'+file)), "font-family:sans-serif;font-size:11px;fill:#333")
	}
	for rank := 0; rank < 9; rank++ {
		y := margin + rank*cellSize + cellSize/2 + 4
		canvas.Text(margin+boardPx+6, y, string(rune('a'+rank)), "font-family:sans-serif;font-size:11px;fill:#333")
	}

	canvas.End()
}
