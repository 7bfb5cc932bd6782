package magic

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/fgantt/yse/internal/shogi"
)

// Binary table format, little-endian:
//
//	8   header "YSEMAGIC"
//	4   version
//	2*81 entry records: flags(1) maskLo(8) maskHi(8) magicLo(8) magicHi(8)
//	     shift(1) offset(4) size(4), rook squares first
//	8   arena bitboard count
//	n*16 arena bitboards (lo, hi)
//	8   xxhash64 of everything above
var fileHeader = [8]byte{'Y', 'S', 'E', 'M', 'A', 'G', 'I', 'C'}

const (
	fileVersion = 1

	entryRecordSize = 1 + 8 + 8 + 8 + 8 + 1 + 4 + 4
	headerSize      = 8 + 4
	fixedSize       = headerSize + 2*shogi.NumSquares*entryRecordSize + 8 // up to the arena
)

// ErrCorruptTable reports a serialized table that failed integrity
// checks; the caller must regenerate rather than trust any part of it.
var ErrCorruptTable = errors.New("corrupt attack table data")

// Serialize encodes the table, checksum included, in the binary format
// read back by Deserialize.
func (t *Table) Serialize() []byte {
	buf := make([]byte, 0, fixedSize+len(t.attacks)*16+8)

	buf = append(buf, fileHeader[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, fileVersion)

	appendEntries := func(entries *[shogi.NumSquares]entry) {
		for sq := range entries {
			e := &entries[sq]
			var flags byte
			if e.present {
				flags = 1
			}
			buf = append(buf, flags)
			mLo, mHi := e.mask.Uint128()
			buf = binary.LittleEndian.AppendUint64(buf, mLo)
			buf = binary.LittleEndian.AppendUint64(buf, mHi)
			buf = binary.LittleEndian.AppendUint64(buf, e.magicLo)
			buf = binary.LittleEndian.AppendUint64(buf, e.magicHi)
			buf = append(buf, e.shift)
			buf = binary.LittleEndian.AppendUint32(buf, e.offset)
			buf = binary.LittleEndian.AppendUint32(buf, e.size)
		}
	}
	appendEntries(&t.rook)
	appendEntries(&t.bishop)

	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(t.attacks)))
	for i := range t.attacks {
		lo, hi := t.attacks[i].Uint128()
		buf = binary.LittleEndian.AppendUint64(buf, lo)
		buf = binary.LittleEndian.AppendUint64(buf, hi)
	}

	buf = binary.LittleEndian.AppendUint64(buf, xxhash.Sum64(buf))
	return buf
}

// Deserialize decodes a table from its binary form. The header, length,
// checksum, and the structural invariants of every entry are verified
// before the table is returned; a table that would mis-hash is never
// handed to the caller.
func Deserialize(data []byte) (*Table, error) {
	if len(data) < fixedSize+8 {
		return nil, fmt.Errorf("deserialize: %d bytes is shorter than any valid table: %w", len(data), ErrCorruptTable)
	}
	if !bytes.Equal(data[:8], fileHeader[:]) {
		return nil, fmt.Errorf("deserialize: bad header: %w", ErrCorruptTable)
	}
	if v := binary.LittleEndian.Uint32(data[8:12]); v != fileVersion {
		return nil, fmt.Errorf("deserialize: unsupported version %d: %w", v, ErrCorruptTable)
	}

	payload, sum := data[:len(data)-8], binary.LittleEndian.Uint64(data[len(data)-8:])
	if xxhash.Sum64(payload) != sum {
		return nil, fmt.Errorf("deserialize: checksum mismatch: %w", ErrCorruptTable)
	}

	// Bound count by the bytes actually present before allocating; a
	// crafted count must not be able to overflow the length check or
	// oversize the arena.
	count := binary.LittleEndian.Uint64(data[fixedSize-8 : fixedSize])
	arenaBytes := uint64(len(data) - fixedSize - 8)
	if arenaBytes%16 != 0 || count != arenaBytes/16 {
		return nil, fmt.Errorf("deserialize: length %d inconsistent with %d arena entries: %w", len(data), count, ErrCorruptTable)
	}

	t := NewEmpty()
	off := headerSize
	readEntries := func(entries *[shogi.NumSquares]entry) {
		for sq := range entries {
			rec := data[off : off+entryRecordSize]
			off += entryRecordSize
			e := &entries[sq]
			e.present = rec[0] != 0
			e.mask = shogi.FromUint128(
				binary.LittleEndian.Uint64(rec[1:9]),
				binary.LittleEndian.Uint64(rec[9:17]),
			)
			e.magicLo = binary.LittleEndian.Uint64(rec[17:25])
			e.magicHi = binary.LittleEndian.Uint64(rec[25:33])
			e.shift = rec[33]
			e.offset = binary.LittleEndian.Uint32(rec[34:38])
			e.size = binary.LittleEndian.Uint32(rec[38:42])
		}
	}
	readEntries(&t.rook)
	readEntries(&t.bishop)

	t.attacks = make([]shogi.Bitboard, count)
	off = fixedSize
	for i := range t.attacks {
		t.attacks[i] = shogi.FromUint128(
			binary.LittleEndian.Uint64(data[off:off+8]),
			binary.LittleEndian.Uint64(data[off+8:off+16]),
		)
		off += 16
	}

	if err := t.validateStructure(); err != nil {
		return nil, fmt.Errorf("deserialize: %w: %w", ErrCorruptTable, err)
	}
	return t, nil
}

// LoadOrGenerate implements the engine startup contract: use the table
// file when it loads and validates, regenerate from scratch when it is
// missing or corrupt. Other I/O failures are returned as-is.
func LoadOrGenerate(path string) (*Table, error) {
	t, err := LoadFile(path)
	if err == nil {
		return t, nil
	}
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, ErrCorruptTable) {
		return New()
	}
	return nil, err
}

// SaveFile writes the serialized table to path.
func (t *Table) SaveFile(path string) error {
	return os.WriteFile(path, t.Serialize(), 0644)
}

// LoadFile reads and validates a table file. A missing file surfaces as
// the os not-exist error so engine startup can fall back to generation.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := Deserialize(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return t, nil
}
