// Package periodstore owns the raw period datasets, one per period key.
//
// The store is bounded: inserting a new key at capacity first evicts the
// entry with the globally smallest last-access time. Datasets are immutable
// after publication, so readers only need the shared lock; the last-access
// timestamp inside each dataset is atomic and safe to bump during reads.
package periodstore

import (
	"sort"
	"sync"
	"time"

	"github.com/plazalytics/plazacache/internal/dataset"
	"github.com/plazalytics/plazacache/internal/errors"
)

// Store is a bounded map of period key to dataset with LRU overflow eviction.
type Store struct {
	mu         sync.RWMutex
	maxPeriods int
	periods    map[uint32]*dataset.Period

	// now is swappable for tests.
	now func() int64
}

// New creates a store holding at most maxPeriods datasets.
func New(maxPeriods int) *Store {
	return &Store{
		maxPeriods: maxPeriods,
		periods:    make(map[uint32]*dataset.Period),
		now:        func() int64 { return time.Now().Unix() },
	}
}

// Load inserts or replaces the dataset for key and returns its row count.
// When the store is full and key is new, the least-recently-accessed period
// is evicted first, so the store never exceeds its capacity.
func (s *Store) Load(key uint32, ds *dataset.Period) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.periods) >= s.maxPeriods {
		if _, exists := s.periods[key]; !exists {
			s.evictOldestLocked()
		}
	}

	s.periods[key] = ds
	return ds.N
}

// evictOldestLocked removes the entry with the smallest last-access time.
// Ties are broken arbitrarily. Caller holds the write lock.
func (s *Store) evictOldestLocked() {
	var (
		oldestKey uint32
		oldestTs  int64
		found     bool
	)
	for k, p := range s.periods {
		ts := p.LastAccessed()
		if !found || ts < oldestTs {
			oldestKey, oldestTs, found = k, ts, true
		}
	}
	if found {
		delete(s.periods, oldestKey)
	}
}

// Contains reports whether key is loaded.
func (s *Store) Contains(key uint32) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.periods[key]
	return ok
}

// Get returns the dataset for key, bumping its last-access time.
// Returns ErrNotLoaded when the key is absent.
func (s *Store) Get(key uint32) (*dataset.Period, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.periods[key]
	if !ok {
		return nil, errors.NewNotLoaded(key)
	}
	p.Touch(s.now())
	return p, nil
}

// GetPair returns the datasets for both keys atomically with respect to
// eviction: either both are observed under one shared-lock acquisition or the
// call fails.
func (s *Store) GetPair(key1, key2 uint32) (*dataset.Period, *dataset.Period, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p1, ok := s.periods[key1]
	if !ok {
		return nil, nil, errors.NewNotLoaded(key1)
	}
	p2, ok := s.periods[key2]
	if !ok {
		return nil, nil, errors.NewNotLoaded(key2)
	}

	now := s.now()
	p1.Touch(now)
	p2.Touch(now)
	return p1, p2, nil
}

// Evict removes key, reporting whether it was present.
func (s *Store) Evict(key uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.periods[key]; !ok {
		return false
	}
	delete(s.periods, key)
	return true
}

// SweepRetainRecent removes historic periods, keeping the keepN most recently
// accessed among those whose year component differs from currentYear.
// Current-year periods are never touched regardless of count. Returns the
// number of periods removed.
func (s *Store) SweepRetainRecent(keepN int, currentYear uint32) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	type candidate struct {
		key uint32
		ts  int64
	}
	var historic []candidate
	for k, p := range s.periods {
		if k/100 == currentYear {
			continue
		}
		historic = append(historic, candidate{k, p.LastAccessed()})
	}

	remove := len(historic) - keepN
	if remove <= 0 {
		return 0
	}

	sort.Slice(historic, func(i, j int) bool { return historic[i].ts < historic[j].ts })
	for _, c := range historic[:remove] {
		delete(s.periods, c.key)
	}
	return remove
}

// Len returns the number of loaded periods.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.periods)
}

// TotalRows returns the summed row count across all loaded periods.
func (s *Store) TotalRows() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, p := range s.periods {
		total += p.N
	}
	return total
}
