package twiddle

import (
	"container/list"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"

	"github.com/agbru/nttgpu/internal/field"
)

var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nttgpu_twiddle_cache_hits_total",
		Help: "Twiddle table lookups served from the cache.",
	}, []string{"field"})
	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nttgpu_twiddle_cache_misses_total",
		Help: "Twiddle table lookups that generated a table.",
	}, []string{"field"})
)

// CacheConfig holds configuration for the twiddle cache.
type CacheConfig struct {
	// MaxEntries bounds the number of cached tables; the least recently
	// used table is evicted first. 0 means unbounded.
	MaxEntries int
}

// DefaultCacheConfig returns the configuration of the process-wide cache.
// Two fields, two directions and every log size up to 32 fit.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{MaxEntries: 132}
}

// cacheKey identifies a table. The generator is part of the key: two
// descriptors over the same modulus may pick different roots of unity.
type cacheKey struct {
	modulus   uint64
	generator field.Element
	logN      int
	dir       Direction
}

func (k cacheKey) String() string {
	return fmt.Sprintf("%x/%x/%d/%d", k.modulus, uint64(k.generator), k.logN, k.dir)
}

type cacheEntry struct {
	key   cacheKey
	table *Table
}

// Cache maps (field, size, direction) to a twiddle table. Concurrent
// lookups of a missing key share one generation; the winner publishes the
// table and every caller receives the same read-only value.
type Cache struct {
	mu      sync.RWMutex
	config  CacheConfig
	entries map[cacheKey]*list.Element
	lru     *list.List
	group   singleflight.Group

	hits        atomic.Uint64
	misses      atomic.Uint64
	evictions   atomic.Uint64
	generations atomic.Uint64
}

// NewCache creates an empty cache.
func NewCache(config CacheConfig) *Cache {
	return &Cache{
		config:  config,
		entries: make(map[cacheKey]*list.Element),
		lru:     list.New(),
	}
}

var (
	globalCache     *Cache
	globalCacheOnce sync.Once
)

// Global returns the process-wide cache shared by all engines.
func Global() *Cache {
	globalCacheOnce.Do(func() {
		globalCache = NewCache(DefaultCacheConfig())
	})
	return globalCache
}

// Get returns the table for (f, logN, dir), generating it on first request.
//
// Returns:
//   - *Table: A shared, read-only table.
//   - error: ErrInvalidDomainSize when the field has no such domain.
func (c *Cache) Get(f *field.Field, logN int, dir Direction) (*Table, error) {
	key := cacheKey{modulus: f.Modulus(), generator: f.Generator(), logN: logN, dir: dir}

	if t, ok := c.lookup(key); ok {
		c.hits.Add(1)
		cacheHits.WithLabelValues(f.Name()).Inc()
		return t, nil
	}

	c.misses.Add(1)
	cacheMisses.WithLabelValues(f.Name()).Inc()
	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		// A concurrent flight may have published the table between the
		// lookup above and this call.
		c.mu.RLock()
		elem, found := c.entries[key]
		c.mu.RUnlock()
		if found {
			return elem.Value.(*cacheEntry).table, nil
		}

		t, err := Generate(f, logN, dir)
		if err != nil {
			return nil, err
		}
		c.generations.Add(1)
		c.put(key, t)
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Table), nil
}

// lookup returns the table for key and marks it most recently used. The
// recency update holds the write lock across the map read, so an entry
// dropped by Clear or eviction is never spliced back into the list.
func (c *Cache) lookup(key cacheKey) (*Table, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, found := c.entries[key]
	if !found {
		return nil, false
	}
	c.lru.MoveToFront(elem)
	return elem.Value.(*cacheEntry).table, true
}

func (c *Cache) put(key cacheKey, t *Table) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, found := c.entries[key]; found {
		return
	}
	for c.config.MaxEntries > 0 && c.lru.Len() >= c.config.MaxEntries {
		oldest := c.lru.Back()
		c.lru.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
		c.evictions.Add(1)
	}
	c.entries[key] = c.lru.PushFront(&cacheEntry{key: key, table: t})
}

// CacheStats holds statistics about cache performance.
type CacheStats struct {
	Hits        uint64
	Misses      uint64
	Evictions   uint64
	Generations uint64
	Size        int
	HitRate     float64
}

// Stats returns current cache statistics.
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	size := c.lru.Len()
	c.mu.RUnlock()

	hits := c.hits.Load()
	misses := c.misses.Load()
	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return CacheStats{
		Hits:        hits,
		Misses:      misses,
		Evictions:   c.evictions.Load(),
		Generations: c.generations.Load(),
		Size:        size,
		HitRate:     hitRate,
	}
}

// Clear removes all entries and resets statistics. Tables already handed
// out remain valid.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]*list.Element)
	c.lru.Init()
	c.hits.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)
	c.generations.Store(0)
}
