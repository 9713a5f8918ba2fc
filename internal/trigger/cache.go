package trigger

import (
	"context"
	"log"
	"sync"
	"time"
)

const (
	DefaultCacheTTL      = 5 * time.Minute
	DefaultCacheCapacity = 100
)

// Store is the authoritative source of a guild's record list.
// Implementations may block; the cache never holds its lock across a call.
type Store interface {
	FetchTriggers(ctx context.Context, guildID string) ([]Record, error)
	SaveTriggers(ctx context.Context, guildID string, records []Record) error
}

type cacheEntry struct {
	data      *Compiled
	createdAt time.Time
}

// CacheStats is a point-in-time snapshot of cache counters.
type CacheStats struct {
	Entries     int   `json:"entries"`
	Capacity    int   `json:"capacity"`
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	FetchErrors int64 `json:"fetch_errors"`
	Evictions   int64 `json:"evictions"`
}

// Cache keeps compiled guild data for a bounded time with a bounded number of
// guilds. Eviction picks the oldest creation time; reads do not refresh it.
//
// While a fetch for a guild is in flight, every Update or Invalidate bumps a
// per-guild version. A Get whose fetch started before the bump does not
// overwrite the newer entry, so the most recent Update always wins. Versions
// exist only while fetches are in flight, so both maps stay bounded by the
// number of concurrent refreshes.
type Cache struct {
	store    Store
	ttl      time.Duration
	capacity int
	now      func() time.Time

	mu       sync.Mutex
	entries  map[string]*cacheEntry
	versions map[string]uint64
	inflight map[string]int
	stats    CacheStats
}

// CacheOption customizes a Cache.
type CacheOption func(*Cache)

func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithCapacity(n int) CacheOption {
	return func(c *Cache) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

func NewCache(store Store, opts ...CacheOption) *Cache {
	c := &Cache{
		store:    store,
		ttl:      DefaultCacheTTL,
		capacity: DefaultCacheCapacity,
		now:      time.Now,
		entries:  make(map[string]*cacheEntry),
		versions: make(map[string]uint64),
		inflight: make(map[string]int),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns compiled data for guildID, refreshing from the store when the
// entry is missing or older than the TTL. Store failures are logged and
// reported as nil; they never reach the caller.
func (c *Cache) Get(ctx context.Context, guildID string) *Compiled {
	c.mu.Lock()
	if e, ok := c.entries[guildID]; ok && c.now().Sub(e.createdAt) < c.ttl {
		c.stats.Hits++
		c.mu.Unlock()
		return e.data
	}
	c.stats.Misses++
	version := c.versions[guildID]
	c.inflight[guildID]++
	c.mu.Unlock()

	records, err := c.store.FetchTriggers(ctx, guildID)
	var data *Compiled
	if err == nil {
		data = Compile(records)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	stale := c.versions[guildID] != version
	c.endFetch(guildID)

	if err != nil {
		c.stats.FetchErrors++
		log.Printf("[ERR] Failed to fetch triggers for guild %s: %v", guildID, err)
		return nil
	}
	if stale {
		// An Update or Invalidate landed while we were fetching.
		if e, ok := c.entries[guildID]; ok {
			return e.data
		}
		return data
	}
	c.insert(guildID, data)
	return data
}

// Update compiles records and replaces the guild's entry regardless of its age.
// Call it only after the store write succeeded.
func (c *Cache) Update(guildID string, records []Record) {
	data := Compile(records)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.bump(guildID)
	c.insert(guildID, data)
}

// Invalidate drops the guild's entry so the next Get refetches.
func (c *Cache) Invalidate(guildID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bump(guildID)
	_, ok := c.entries[guildID]
	delete(c.entries, guildID)
	return ok
}

// Purge drops every entry and returns how many were held.
func (c *Cache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	for guildID := range c.inflight {
		c.bump(guildID)
	}
	c.entries = make(map[string]*cacheEntry)
	return n
}

// Sweep removes expired entries. It is idempotent and safe to run on a timer.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for guildID, e := range c.entries {
		if now.Sub(e.createdAt) >= c.ttl {
			delete(c.entries, guildID)
			removed++
		}
	}
	return removed
}

// bump and endFetch must be called with mu held.
func (c *Cache) bump(guildID string) {
	if c.inflight[guildID] > 0 {
		c.versions[guildID]++
	}
}

func (c *Cache) endFetch(guildID string) {
	c.inflight[guildID]--
	if c.inflight[guildID] > 0 {
		return
	}
	delete(c.inflight, guildID)
	delete(c.versions, guildID)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = len(c.entries)
	s.Capacity = c.capacity
	return s
}

// insert must be called with mu held.
func (c *Cache) insert(guildID string, data *Compiled) {
	if _, exists := c.entries[guildID]; !exists && len(c.entries) >= c.capacity {
		c.evictOldest()
	}
	c.entries[guildID] = &cacheEntry{data: data, createdAt: c.now()}
}

func (c *Cache) evictOldest() {
	var (
		oldestID string
		oldestAt time.Time
		found    bool
	)
	for guildID, e := range c.entries {
		if !found || e.createdAt.Before(oldestAt) {
			oldestID, oldestAt, found = guildID, e.createdAt, true
		}
	}
	if found {
		delete(c.entries, oldestID)
		c.stats.Evictions++
	}
}
