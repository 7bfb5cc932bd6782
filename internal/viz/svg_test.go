package viz

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fgantt/yse/internal/magic"
	"github.com/fgantt/yse/internal/shogi"
)

func TestWriteBoard(t *testing.T) {
	var buf bytes.Buffer
	WriteBoard(&buf, BoardDiagram{
		Bits:   magic.RookAttacksSlow(shogi.SQ5E, shogi.EmptyBB),
		Origin: shogi.SQ5E,
		Title:  "rook 5e",
	})

	out := buf.String()
	if !strings.Contains(out, "<svg") || !strings.Contains(out, "</svg>") {
		t.Fatal("output is not an SVG document")
	}
	if !strings.Contains(out, "rook 5e") {
		t.Error("title missing from output")
	}
	// 16 attacked squares plus the origin get highlight fills.
	if n := strings.Count(out, "fill:#c5e08a"); n != 16 {
		t.Errorf("highlighted squares = %d, want 16", n)
	}
	if n := strings.Count(out, "fill:#4a78c2"); n != 1 {
		t.Errorf("origin squares = %d, want 1", n)
	}
}

func TestWriteBoardEmpty(t *testing.T) {
	var buf bytes.Buffer
	WriteBoard(&buf, BoardDiagram{Origin: shogi.NoSquare})
	if !strings.Contains(buf.String(), "</svg>") {
		t.Fatal("empty diagram must still be a complete document")
	}
}
