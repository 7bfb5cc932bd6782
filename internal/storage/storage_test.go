package storage

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/fgantt/yse/internal/magic"
	"github.com/fgantt/yse/internal/shogi"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return s
}

func TestPutGetResult(t *testing.T) {
	s := openTestStore(t)

	res := magic.GenerationResult{MagicLo: 0x40100401, MagicHi: 0x8020, Shift: 116, TableSize: 1 << 12}
	if err := s.PutResult(shogi.SQ5E, shogi.Rook, res); err != nil {
		t.Fatalf("PutResult: %v", err)
	}

	got, found, err := s.GetResult(shogi.SQ5E, shogi.Rook)
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if !found {
		t.Fatal("stored result not found")
	}
	if got != res {
		t.Errorf("got %+v, want %+v", got, res)
	}

	// Rook and bishop results for the same square are distinct keys.
	_, found, err = s.GetResult(shogi.SQ5E, shogi.Bishop)
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Error("bishop result found for a square with only a rook entry")
	}
}

func TestPutResultRejectsBadInput(t *testing.T) {
	s := openTestStore(t)
	res := magic.GenerationResult{TableSize: 1}

	if err := s.PutResult(shogi.NoSquare, shogi.Rook, res); err == nil {
		t.Error("invalid square accepted")
	}
	if err := s.PutResult(shogi.SQ5E, shogi.Gold, res); err == nil {
		t.Error("non-slider accepted")
	}
}

func TestRecords(t *testing.T) {
	s := openTestStore(t)

	want := map[string]magic.GenerationResult{
		"rook/1a":   {MagicLo: 1, Shift: 114, TableSize: 1 << 14},
		"rook/9i":   {MagicLo: 2, Shift: 114, TableSize: 1 << 14},
		"bishop/5e": {MagicLo: 3, Shift: 116, TableSize: 1 << 12},
	}
	if err := s.PutResult(shogi.SQ1A, shogi.Rook, want["rook/1a"]); err != nil {
		t.Fatal(err)
	}
	if err := s.PutResult(shogi.SQ9I, shogi.Rook, want["rook/9i"]); err != nil {
		t.Fatal(err)
	}
	if err := s.PutResult(shogi.SQ5E, shogi.Bishop, want["bishop/5e"]); err != nil {
		t.Fatal(err)
	}

	recs, err := s.Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(recs) != len(want) {
		t.Fatalf("got %d records, want %d", len(recs), len(want))
	}
	for _, rec := range recs {
		key := rec.Piece + "/" + rec.Square
		res, ok := want[key]
		if !ok {
			t.Errorf("unexpected record %q", key)
			continue
		}
		if rec.Result != res {
			t.Errorf("record %q = %+v, want %+v", key, rec.Result, res)
		}
	}
}

func TestBuildTableFromStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping store-driven table generation in short mode")
	}

	s := openTestStore(t)
	f := magic.SeededFinder(0xbead)

	// Pre-store one result; BuildTable finds the rest and records them.
	res, err := f.FindMagic(shogi.SQ1A, shogi.Rook)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.PutResult(shogi.SQ1A, shogi.Rook, res); err != nil {
		t.Fatal(err)
	}

	tbl, err := s.BuildTable(f)
	if err != nil {
		t.Fatalf("BuildTable: %v", err)
	}
	if err := tbl.ValidateIntegrity(); err != nil {
		t.Fatalf("ValidateIntegrity: %v", err)
	}

	// Every pair is now stored; a second build needs no finder work.
	recs, err := s.Records()
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2*shogi.NumSquares {
		t.Errorf("stored %d records, want %d", len(recs), 2*shogi.NumSquares)
	}
}

func TestExportJSON(t *testing.T) {
	s := openTestStore(t)

	if err := s.PutResult(shogi.SQ7G, shogi.Bishop, magic.GenerationResult{MagicLo: 9, Shift: 120, TableSize: 256}); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := s.ExportJSON(&buf); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}

	var recs []Record
	if err := json.Unmarshal(buf.Bytes(), &recs); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if len(recs) != 1 || recs[0].Square != "7g" || recs[0].Piece != "bishop" {
		t.Errorf("export = %+v", recs)
	}
}

func TestDataPaths(t *testing.T) {
	dataDir, err := GetDataDir()
	if err != nil {
		t.Fatalf("GetDataDir: %v", err)
	}
	if dataDir == "" {
		t.Fatal("empty data dir")
	}

	tablePath, err := GetTablePath()
	if err != nil {
		t.Fatalf("GetTablePath: %v", err)
	}
	if tablePath == "" {
		t.Fatal("empty table path")
	}

	dbDir, err := GetDatabaseDir()
	if err != nil {
		t.Fatalf("GetDatabaseDir: %v", err)
	}
	if dbDir == "" {
		t.Fatal("empty db dir")
	}
}
