// Package storage implements the persistent magic-number database: one
// finder result per (square, piece) pair, keyed for reproducible table
// regeneration without repeating the randomized search.
package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/fgantt/yse/internal/magic"
	"github.com/fgantt/yse/internal/shogi"
)

const keyPrefix = "magic/"

// Record pairs a finder result with the square and piece it belongs to.
type Record struct {
	Square string                 `json:"square"`
	Piece  string                 `json:"piece"`
	Result magic.GenerationResult `json:"result"`
}

// Store wraps BadgerDB for persistent magic-number storage.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the database in the given directory.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// OpenDefault opens the database in the platform data directory.
func OpenDefault() (*Store, error) {
	dir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(dir)
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// resultKey builds the human-readable key, e.g. "magic/rook/5e".
func resultKey(sq shogi.Square, pt shogi.PieceType) []byte {
	return []byte(keyPrefix + strings.ToLower(pt.String()) + "/" + sq.String())
}

// PutResult stores the finder result for one (square, piece) pair,
// overwriting any previous one.
func (s *Store) PutResult(sq shogi.Square, pt shogi.PieceType, res magic.GenerationResult) error {
	if !sq.IsValid() {
		return fmt.Errorf("put result: %w", magic.ErrSquareOutOfRange)
	}
	if !pt.IsSlider() {
		return fmt.Errorf("put result %v: %w", pt, magic.ErrNotSlider)
	}

	rec := Record{
		Square: sq.String(),
		Piece:  strings.ToLower(pt.String()),
		Result: res,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(resultKey(sq, pt), data)
	})
}

// GetResult loads the stored result for one (square, piece) pair. The
// second return value is false when no result is stored.
func (s *Store) GetResult(sq shogi.Square, pt shogi.PieceType) (magic.GenerationResult, bool, error) {
	var rec Record
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(resultKey(sq, pt))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})

	return rec.Result, found, err
}

// Records returns every stored result.
func (s *Store) Records() ([]Record, error) {
	var recs []Record

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var rec Record
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			recs = append(recs, rec)
		}
		return nil
	})

	return recs, err
}

// BuildTable assembles a magic table from the stored results, falling
// back to the finder for any pair without a stored magic. A stored
// result that no longer passes the collision check is rejected by the
// install path, so a stale database can never produce a wrong table.
func (s *Store) BuildTable(f *magic.Finder) (*magic.Table, error) {
	t := magic.NewEmpty()
	for _, pt := range []shogi.PieceType{shogi.Rook, shogi.Bishop} {
		for sq := shogi.SQ1A; sq <= shogi.SQ9I; sq++ {
			res, found, err := s.GetResult(sq, pt)
			if err != nil {
				return nil, err
			}
			if !found {
				res, err = f.FindMagic(sq, pt)
				if err != nil {
					return nil, err
				}
				if err := s.PutResult(sq, pt, res); err != nil {
					return nil, err
				}
			}
			if err := t.Install(sq, pt, res); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}

// ExportJSON writes every stored record as an indented JSON array, the
// human-inspectable view of the database.
func (s *Store) ExportJSON(w io.Writer) error {
	recs, err := s.Records()
	if err != nil {
		return err
	}
	if recs == nil {
		recs = []Record{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(recs)
}
