package magic

import (
	"container/list"

	"github.com/fgantt/yse/internal/shogi"
)

// PatternSource produces attack patterns; *Table satisfies it.
type PatternSource interface {
	Attacks(sq shogi.Square, pt shogi.PieceType, occupied shogi.Bitboard) (shogi.Bitboard, error)
}

// DefaultCacheSize is the bound used when no explicit size is given.
const DefaultCacheSize = 1 << 16

type cacheKey struct {
	sq    shogi.Square
	pt    shogi.PieceType
	occLo uint64
	occHi uint64
}

type cacheEntry struct {
	key     cacheKey
	attacks shogi.Bitboard
}

// AttackCache is a bounded, recency-evicting cache in front of a
// PatternSource, for workloads that regenerate patterns outside the
// magic hash path. It is not a replacement for the table's native O(1)
// lookups. The cache mutates on every access and is not internally
// synchronized: hold one per goroutine or guard it externally.
type AttackCache struct {
	src      PatternSource
	capacity int
	entries  map[cacheKey]*list.Element
	order    *list.List // front = most recently used

	hits   uint64
	misses uint64
}

// NewAttackCache creates a cache holding at most cacheSize patterns.
func NewAttackCache(src PatternSource, cacheSize int) *AttackCache {
	if cacheSize < 1 {
		cacheSize = DefaultCacheSize
	}
	return &AttackCache{
		src:      src,
		capacity: cacheSize,
		entries:  make(map[cacheKey]*list.Element, cacheSize),
		order:    list.New(),
	}
}

// GenerateAttackPattern returns the attack set for (sq, pt, occupied),
// from the cache when present, otherwise from the wrapped source. The
// least recently used entry is evicted once the cache is full; failed
// source lookups are never cached.
func (c *AttackCache) GenerateAttackPattern(sq shogi.Square, pt shogi.PieceType, occupied shogi.Bitboard) (shogi.Bitboard, error) {
	lo, hi := occupied.Uint128()
	key := cacheKey{sq: sq, pt: pt, occLo: lo, occHi: hi}

	if el, ok := c.entries[key]; ok {
		c.hits++
		c.order.MoveToFront(el)
		return el.Value.(*cacheEntry).attacks, nil
	}

	attacks, err := c.src.Attacks(sq, pt, occupied)
	if err != nil {
		return shogi.EmptyBB, err
	}
	c.misses++

	if len(c.entries) >= c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, attacks: attacks})
	return attacks, nil
}

// CacheStats is a point-in-time snapshot of cache behavior.
type CacheStats struct {
	Hits     uint64
	Misses   uint64
	Size     int
	Capacity int
}

// Stats returns hit/miss counters and the current occupancy, which never
// exceeds the configured capacity.
func (c *AttackCache) Stats() CacheStats {
	return CacheStats{
		Hits:     c.hits,
		Misses:   c.misses,
		Size:     len(c.entries),
		Capacity: c.capacity,
	}
}

// HitRate returns the cache hit rate as a percentage.
func (c *AttackCache) HitRate() float64 {
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total) * 100
}

// Clear drops all entries and resets the counters.
func (c *AttackCache) Clear() {
	c.entries = make(map[cacheKey]*list.Element, c.capacity)
	c.order.Init()
	c.hits = 0
	c.misses = 0
}
