// Package resultcache memoizes pairwise period comparisons.
//
// An entry is keyed by (period1, period2, statusFilter) and holds the two
// per-group aggregations plus access bookkeeping. As long as a valid entry
// exists for a key, the underlying aggregation is never re-run. Capacity
// overflow evicts the least-recently-accessed entry; idle entries are removed
// by host-triggered TTL sweeps.
package resultcache

import (
	"sort"
	"sync"
	"time"

	"github.com/plazalytics/plazacache/internal/dataset"
)

// Key identifies one memoized comparison. A negative Filter means the
// aggregation was unfiltered.
type Key struct {
	Key1   uint32
	Key2   uint32
	Filter int64
}

// Pair holds the two per-group aggregations of a comparison.
type Pair struct {
	Period1 dataset.GroupMap
	Period2 dataset.GroupMap
}

type entry struct {
	pair         Pair
	computedAt   int64
	lastAccessed int64
	accessCount  uint64
}

// EntryInfo is the introspection record for one cached comparison.
type EntryInfo struct {
	Key1        uint32 `json:"key1"`
	Key2        uint32 `json:"key2"`
	Filter      int64  `json:"filter"`
	AccessCount uint64 `json:"access_count"`
	AgeSeconds  int64  `json:"age_s"`
	IdleSeconds int64  `json:"idle_s"`
}

// Cache is a bounded LRU+TTL store of comparison results.
type Cache struct {
	mu         sync.RWMutex
	maxResults int
	entries    map[Key]*entry

	// now is swappable for tests.
	now func() int64
}

// New creates a cache holding at most maxResults entries.
func New(maxResults int) *Cache {
	return &Cache{
		maxResults: maxResults,
		entries:    make(map[Key]*entry),
		now:        func() int64 { return time.Now().Unix() },
	}
}

// GetOrCompute returns the memoized pair for key, computing and storing it on
// a miss. The bool result reports whether the call was a cache hit.
//
// The probe runs under the shared lock; hit bookkeeping runs under the
// exclusive lock; compute runs outside any lock. Two concurrent misses for
// the same key may both compute; whichever insert lands last wins and the
// other result is discarded. Each caller still receives a complete,
// internally consistent pair.
func (c *Cache) GetOrCompute(key Key, compute func() (Pair, error)) (Pair, bool, error) {
	c.mu.RLock()
	_, ok := c.entries[key]
	c.mu.RUnlock()

	if ok {
		c.mu.Lock()
		// Re-check: the entry may have been evicted between the locks.
		if e, still := c.entries[key]; still {
			e.lastAccessed = c.now()
			e.accessCount++
			pair := e.pair
			c.mu.Unlock()
			return pair, true, nil
		}
		c.mu.Unlock()
	}

	pair, err := compute()
	if err != nil {
		return Pair{}, false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxResults {
		if _, exists := c.entries[key]; !exists {
			c.evictOldestLocked()
		}
	}

	now := c.now()
	c.entries[key] = &entry{
		pair:         pair,
		computedAt:   now,
		lastAccessed: now,
		accessCount:  1,
	}
	return pair, false, nil
}

// evictOldestLocked removes the entry with the smallest last-access time.
// Caller holds the write lock.
func (c *Cache) evictOldestLocked() {
	var (
		oldestKey Key
		oldestTs  int64
		found     bool
	)
	for k, e := range c.entries {
		if !found || e.lastAccessed < oldestTs {
			oldestKey, oldestTs, found = k, e.lastAccessed, true
		}
	}
	if found {
		delete(c.entries, oldestKey)
	}
}

// Contains reports whether a comparison is memoized without touching its
// access bookkeeping.
func (c *Cache) Contains(key Key) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[key]
	return ok
}

// Evict removes one comparison, reporting whether it was present.
func (c *Cache) Evict(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		return false
	}
	delete(c.entries, key)
	return true
}

// ExpireOlderThan removes every entry whose idle time (now - last access) is
// at least ttl, returning the number removed. Entries below the threshold
// keep their state unchanged.
func (c *Cache) ExpireOlderThan(ttl time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	ttlSecs := int64(ttl / time.Second)

	removed := 0
	for k, e := range c.entries {
		if now-e.lastAccessed >= ttlSecs {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Entries returns introspection records for every cached comparison, sorted
// by access count descending.
func (c *Cache) Entries() []EntryInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	infos := make([]EntryInfo, 0, len(c.entries))
	for k, e := range c.entries {
		infos = append(infos, EntryInfo{
			Key1:        k.Key1,
			Key2:        k.Key2,
			Filter:      k.Filter,
			AccessCount: e.accessCount,
			AgeSeconds:  now - e.computedAt,
			IdleSeconds: now - e.lastAccessed,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].AccessCount > infos[j].AccessCount
	})
	return infos
}

// Len returns the number of memoized comparisons.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// TotalHits returns the summed access count across all entries. The first
// access of each entry (the miss that computed it) counts as one.
func (c *Cache) TotalHits() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var total uint64
	for _, e := range c.entries {
		total += e.accessCount
	}
	return total
}
