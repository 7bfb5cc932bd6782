package magic

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/fgantt/yse/internal/shogi"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrSquareOutOfRange reports an invalid square at a lookup boundary.
	ErrSquareOutOfRange = errors.New("square out of range")

	// ErrInvalidMagic reports a magic entry whose hash destructively
	// collides, i.e. would alias two different attack sets.
	ErrInvalidMagic = errors.New("magic entry has destructive collisions")

	// ErrValidationFailed reports a stored attack set that disagrees
	// with the ray-casting oracle.
	ErrValidationFailed = errors.New("table validation failed")
)

// entry holds the magic data for one (square, piece) pair plus its
// region of the shared attack arena.
type entry struct {
	mask    shogi.Bitboard
	magicLo uint64
	magicHi uint64
	shift   uint8
	present bool
	offset  uint32
	size    uint32
}

// Table answers sliding-attack lookups in O(1) via magic hashing. One
// entry per (square, slider) pair indexes a single flat arena of attack
// bitboards. A table is built once, then immutable; sharing it read-only
// across search goroutines needs no locking. Partially initialized
// tables are valid: squares without an entry fall back to ray casting.
type Table struct {
	rook    [shogi.NumSquares]entry
	bishop  [shogi.NumSquares]entry
	attacks []shogi.Bitboard

	lookups   atomic.Uint64
	fallbacks atomic.Uint64
}

// NewEmpty returns a table with no magic entries. Every lookup is
// serviced by the ray-cast fallback. Used for partial construction and
// in tests.
func NewEmpty() *Table {
	return &Table{}
}

// New generates magic entries for every square and slider type and
// assembles the full table. Search-dominated and expensive; prefer
// LoadFile when a previously generated table is available.
func New() (*Table, error) {
	return NewWithFinder(DefaultFinder())
}

// NewWithFinder is New with a caller-supplied finder (custom cap or
// fixed seed). The per-square searches are independent and run in
// parallel; arena assembly stays single-threaded so the offset
// bookkeeping lives in one place.
func NewWithFinder(f *Finder) (*Table, error) {
	type task struct {
		sq shogi.Square
		pt shogi.PieceType
	}

	var tasks []task
	for _, pt := range []shogi.PieceType{shogi.Rook, shogi.Bishop} {
		for sq := shogi.SQ1A; sq <= shogi.SQ9I; sq++ {
			tasks = append(tasks, task{sq, pt})
		}
	}

	results := make([]GenerationResult, len(tasks))
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i := range tasks {
		g.Go(func() error {
			res, err := f.FindMagic(tasks[i].sq, tasks[i].pt)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	t := NewEmpty()
	for i, tk := range tasks {
		if err := t.Install(tk.sq, tk.pt, results[i]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Install generates the attack region for one (square, piece) pair from
// a finder result and installs the entry. The region is populated from
// the ray-casting oracle subset by subset; a destructive collision in
// the supplied magic is detected here and rejected, so results loaded
// from an external magic database cannot corrupt the table.
func (t *Table) Install(sq shogi.Square, pt shogi.PieceType, res GenerationResult) error {
	if !sq.IsValid() {
		return fmt.Errorf("install %v %d: %w", pt, sq, ErrSquareOutOfRange)
	}
	e, err := t.entryFor(sq, pt)
	if err != nil {
		return err
	}
	if e.present {
		return fmt.Errorf("install %v %v: entry already present", pt, sq)
	}

	mask := RelevantMask(sq, pt)
	nbits := mask.PopCount()
	if res.TableSize != uint32(1)<<nbits || res.Shift != uint8(128-nbits) {
		return fmt.Errorf("install %v %v: size %d shift %d inconsistent with %d mask bits: %w",
			pt, sq, res.TableSize, res.Shift, nbits, ErrInvalidMagic)
	}

	offset := uint32(len(t.attacks))
	region := make([]shogi.Bitboard, res.TableSize)
	written := make([]bool, res.TableSize)

	sub := shogi.EmptyBB
	for {
		idx := magicIndex(sub, res.MagicLo, res.MagicHi, res.Shift)
		ref := slowAttacks(sq, pt, sub)
		if written[idx] && !region[idx].Equal(ref) {
			return fmt.Errorf("install %v %v: subsets alias at index %d: %w", pt, sq, idx, ErrInvalidMagic)
		}
		region[idx] = ref
		written[idx] = true
		sub = SubsetNext(sub, mask)
		if sub.IsEmpty() {
			break
		}
	}

	t.attacks = append(t.attacks, region...)
	*e = entry{
		mask:    mask,
		magicLo: res.MagicLo,
		magicHi: res.MagicHi,
		shift:   res.Shift,
		present: true,
		offset:  offset,
		size:    res.TableSize,
	}
	return nil
}

// InitRookSquare generates and installs the rook entry for one square,
// leaving the rest of the table untouched.
func (t *Table) InitRookSquare(sq shogi.Square) error {
	res, err := DefaultFinder().FindMagic(sq, shogi.Rook)
	if err != nil {
		return err
	}
	return t.Install(sq, shogi.Rook, res)
}

// InitBishopSquare generates and installs the bishop entry for one square.
func (t *Table) InitBishopSquare(sq shogi.Square) error {
	res, err := DefaultFinder().FindMagic(sq, shogi.Bishop)
	if err != nil {
		return err
	}
	return t.Install(sq, shogi.Bishop, res)
}

func (t *Table) entryFor(sq shogi.Square, pt shogi.PieceType) (*entry, error) {
	switch pt {
	case shogi.Rook:
		return &t.rook[sq], nil
	case shogi.Bishop:
		return &t.bishop[sq], nil
	default:
		return nil, fmt.Errorf("attacks for %v: %w", pt, ErrNotSlider)
	}
}

// Attacks returns the attack set of the slider on sq over the given
// occupancy. O(1) when a magic entry exists; otherwise serviced by the
// ray-cast oracle, slower but identical in result. Never panics and
// never returns a wrong attack set, whatever the table's completeness.
func (t *Table) Attacks(sq shogi.Square, pt shogi.PieceType, occupied shogi.Bitboard) (shogi.Bitboard, error) {
	if !sq.IsValid() {
		return shogi.EmptyBB, ErrSquareOutOfRange
	}
	e, err := t.entryFor(sq, pt)
	if err != nil {
		return shogi.EmptyBB, err
	}

	t.lookups.Add(1)
	if !e.present {
		t.fallbacks.Add(1)
		return slowAttacks(sq, pt, occupied), nil
	}

	idx := magicIndex(occupied.And(e.mask), e.magicLo, e.magicHi, e.shift)
	if idx >= e.size {
		// Unreachable for an entry that passed Install, kept as the
		// last line of defense before arena indexing.
		t.fallbacks.Add(1)
		return slowAttacks(sq, pt, occupied), nil
	}
	return t.attacks[e.offset+idx], nil
}

// LanceAttacks returns lance attacks for the given color: the rook
// lookup restricted to the forward file ray.
func (t *Table) LanceAttacks(c shogi.Color, sq shogi.Square, occupied shogi.Bitboard) (shogi.Bitboard, error) {
	rook, err := t.Attacks(sq, shogi.Rook, occupied)
	if err != nil {
		return shogi.EmptyBB, err
	}
	forward := shogi.ForwardRanksMask(c, sq.Rank())
	return rook.And(shogi.FileMask[sq.File()]).And(forward), nil
}

// validateChunk is the bulk-compare width used by Validate.
const validateChunk = 256

// Validate sweeps every occupancy subset of every present entry and
// compares the table's answer against the ray-casting oracle. Any
// mismatch is an error; silence means the table is exact.
func (t *Table) Validate() error {
	gots := make([]shogi.Bitboard, 0, validateChunk)
	wants := make([]shogi.Bitboard, 0, validateChunk)

	for _, pt := range []shogi.PieceType{shogi.Rook, shogi.Bishop} {
		for sq := shogi.SQ1A; sq <= shogi.SQ9I; sq++ {
			e, _ := t.entryFor(sq, pt)
			if !e.present {
				continue
			}

			gots = gots[:0]
			wants = wants[:0]
			sub := shogi.EmptyBB
			for {
				idx := magicIndex(sub, e.magicLo, e.magicHi, e.shift)
				gots = append(gots, t.attacks[e.offset+idx])
				wants = append(wants, slowAttacks(sq, pt, sub))

				sub = SubsetNext(sub, e.mask)
				done := sub.IsEmpty()
				if len(gots) == validateChunk || done {
					if !shogi.BatchEqual(gots, wants) {
						return fmt.Errorf("%v %v: stored attacks diverge from oracle: %w", pt, sq, ErrValidationFailed)
					}
					gots = gots[:0]
					wants = wants[:0]
				}
				if done {
					break
				}
			}
		}
	}
	return nil
}

// ValidateIntegrity checks the structural invariants (offsets and sizes
// inside the arena, sizes consistent with mask bits) and then runs the
// full ground-truth sweep.
func (t *Table) ValidateIntegrity() error {
	if err := t.validateStructure(); err != nil {
		return err
	}
	return t.Validate()
}

func (t *Table) validateStructure() error {
	arena := uint32(len(t.attacks))
	check := func(pt shogi.PieceType, sq shogi.Square, e *entry) error {
		if !e.present {
			return nil
		}
		nbits := e.mask.PopCount()
		if e.size != uint32(1)<<nbits || e.shift != uint8(128-nbits) {
			return fmt.Errorf("%v %v: size %d shift %d vs %d mask bits: %w", pt, sq, e.size, e.shift, nbits, ErrValidationFailed)
		}
		if e.offset > arena || arena-e.offset < e.size {
			return fmt.Errorf("%v %v: region [%d,+%d) outside arena of %d: %w", pt, sq, e.offset, e.size, arena, ErrValidationFailed)
		}
		if !e.mask.Equal(RelevantMask(sq, pt)) {
			return fmt.Errorf("%v %v: stored mask differs from relevant mask: %w", pt, sq, ErrValidationFailed)
		}
		return nil
	}

	for sq := shogi.SQ1A; sq <= shogi.SQ9I; sq++ {
		if err := check(shogi.Rook, sq, &t.rook[sq]); err != nil {
			return err
		}
		if err := check(shogi.Bishop, sq, &t.bishop[sq]); err != nil {
			return err
		}
	}
	return nil
}

// MemoryStats describes the table's memory footprint.
type MemoryStats struct {
	RookEntries   int
	BishopEntries int
	AttackCount   int     // bitboards in the shared arena
	Bytes         uint64  // approximate footprint of entries plus arena
	Occupancy     float64 // fraction of arena slots holding a real attack set
}

// MemoryStats reports entry counts and footprint. Constructive hash
// collisions leave some arena slots unwritten; Occupancy exposes how
// densely the magics fill their regions.
func (t *Table) MemoryStats() MemoryStats {
	var s MemoryStats
	for sq := shogi.SQ1A; sq <= shogi.SQ9I; sq++ {
		if t.rook[sq].present {
			s.RookEntries++
		}
		if t.bishop[sq].present {
			s.BishopEntries++
		}
	}
	s.AttackCount = len(t.attacks)

	used := 0
	for i := range t.attacks {
		// Sliders always attack at least one square, so an empty slot
		// was never written.
		if t.attacks[i].More() {
			used++
		}
	}
	if s.AttackCount > 0 {
		s.Occupancy = float64(used) / float64(s.AttackCount)
	}

	const entryBytes = 48 // two words of mask, magic, and bookkeeping
	s.Bytes = uint64(len(t.attacks))*16 + uint64(2*shogi.NumSquares)*entryBytes
	return s
}

// PerformanceStats counts lookups since construction. Counters are
// atomic; reading them is safe alongside concurrent Attacks calls.
type PerformanceStats struct {
	Lookups   uint64
	Fallbacks uint64
}

// PerformanceStats returns the lookup and fallback counters.
func (t *Table) PerformanceStats() PerformanceStats {
	return PerformanceStats{
		Lookups:   t.lookups.Load(),
		Fallbacks: t.fallbacks.Load(),
	}
}
