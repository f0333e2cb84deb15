package resultcache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/plazalytics/plazacache/internal/dataset"
)

func pairFor(v int64) Pair {
	return Pair{
		Period1: dataset.GroupMap{9: {Plazas: v, IncTotal: v * 10}},
		Period2: dataset.GroupMap{9: {Plazas: v, IncTotal: v * 20}},
	}
}

func mustCompute(v int64) func() (Pair, error) {
	return func() (Pair, error) { return pairFor(v), nil }
}

func TestGetOrCompute_MissThenHit(t *testing.T) {
	c := New(10)
	key := Key{Key1: 202401, Key2: 202402, Filter: 1}

	computes := 0
	compute := func() (Pair, error) {
		computes++
		return pairFor(1), nil
	}

	pair, hit, err := c.GetOrCompute(key, compute)
	if err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}
	if hit {
		t.Error("first call should be a miss")
	}
	if pair.Period1[9].Plazas != 1 {
		t.Error("miss should return the computed pair")
	}

	pair, hit, err = c.GetOrCompute(key, compute)
	if err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}
	if !hit {
		t.Error("second call should be a hit")
	}
	if computes != 1 {
		t.Errorf("memoized entry must never recompute, computed %d times", computes)
	}
	if pair.Period1[9].IncTotal != 10 {
		t.Error("hit should return the original pair")
	}

	infos := c.Entries()
	if len(infos) != 1 || infos[0].AccessCount != 2 {
		t.Errorf("expected access count 2, got %+v", infos)
	}
}

func TestGetOrCompute_ErrorNotStored(t *testing.T) {
	c := New(10)
	key := Key{Key1: 1, Key2: 2, Filter: -1}

	wantErr := fmt.Errorf("boom")
	_, _, err := c.GetOrCompute(key, func() (Pair, error) { return Pair{}, wantErr })
	if err != wantErr {
		t.Fatalf("expected compute error, got %v", err)
	}
	if c.Contains(key) {
		t.Error("failed compute must leave no cache side effect")
	}
	if c.Len() != 0 {
		t.Errorf("cache should be empty, got %d", c.Len())
	}
}

func TestCapacityLRU(t *testing.T) {
	c := New(2)
	ts := int64(100)
	c.now = func() int64 { return ts }

	k1 := Key{Key1: 1, Key2: 2, Filter: -1}
	k2 := Key{Key1: 3, Key2: 4, Filter: -1}
	k3 := Key{Key1: 5, Key2: 6, Filter: -1}

	c.GetOrCompute(k1, mustCompute(1))
	ts = 200
	c.GetOrCompute(k2, mustCompute(2))

	// Touch k1 so k2 becomes the LRU entry.
	ts = 300
	c.GetOrCompute(k1, mustCompute(99))

	ts = 400
	c.GetOrCompute(k3, mustCompute(3))

	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
	if c.Contains(k2) {
		t.Error("LRU entry should have been evicted")
	}
	if !c.Contains(k1) || !c.Contains(k3) {
		t.Error("recently accessed entries should survive")
	}
}

func TestCapacity_SameKeyDoesNotEvict(t *testing.T) {
	c := New(1)
	k := Key{Key1: 1, Key2: 2, Filter: 0}

	c.GetOrCompute(k, mustCompute(1))
	c.Evict(k)
	c.GetOrCompute(k, mustCompute(2))
	c.GetOrCompute(k, mustCompute(3))

	if c.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", c.Len())
	}
}

func TestExpireOlderThan(t *testing.T) {
	c := New(10)
	ts := int64(1000)
	c.now = func() int64 { return ts }

	kOld := Key{Key1: 1, Key2: 2, Filter: -1}
	kFresh := Key{Key1: 3, Key2: 4, Filter: -1}

	c.GetOrCompute(kOld, mustCompute(1))
	ts = 4000
	c.GetOrCompute(kFresh, mustCompute(2))
	c.GetOrCompute(kFresh, mustCompute(2)) // hit, access count 2

	// Idle times at ts=4600: kOld 3600s, kFresh 600s.
	ts = 4600
	removed := c.ExpireOlderThan(3600 * time.Second)
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if c.Contains(kOld) {
		t.Error("idle entry at exactly ttl should be removed")
	}
	if !c.Contains(kFresh) {
		t.Error("fresh entry should survive")
	}

	// Survivor state must be unchanged.
	infos := c.Entries()
	if len(infos) != 1 || infos[0].AccessCount != 2 {
		t.Errorf("survivor state changed: %+v", infos)
	}
}

func TestEvictAndContains(t *testing.T) {
	c := New(10)
	k := Key{Key1: 202401, Key2: 202402, Filter: 1}

	if c.Evict(k) {
		t.Error("evicting an absent key should return false")
	}

	c.GetOrCompute(k, mustCompute(1))
	if !c.Contains(k) {
		t.Error("entry should be present")
	}
	if !c.Evict(k) {
		t.Error("evicting a present key should return true")
	}
	if c.Contains(k) {
		t.Error("entry should be gone")
	}
}

func TestEntries_SortedByAccessCount(t *testing.T) {
	c := New(10)
	kCold := Key{Key1: 1, Key2: 2, Filter: -1}
	kHot := Key{Key1: 3, Key2: 4, Filter: -1}

	c.GetOrCompute(kCold, mustCompute(1))
	for i := 0; i < 5; i++ {
		c.GetOrCompute(kHot, mustCompute(2))
	}

	infos := c.Entries()
	if len(infos) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(infos))
	}
	if infos[0].Key1 != kHot.Key1 || infos[0].AccessCount != 5 {
		t.Errorf("hottest entry should sort first, got %+v", infos[0])
	}
	if infos[1].AccessCount != 1 {
		t.Errorf("cold entry should sort last, got %+v", infos[1])
	}
}

func TestTotalHits(t *testing.T) {
	c := New(10)
	k1 := Key{Key1: 1, Key2: 2, Filter: -1}
	k2 := Key{Key1: 3, Key2: 4, Filter: -1}

	c.GetOrCompute(k1, mustCompute(1))
	c.GetOrCompute(k1, mustCompute(1))
	c.GetOrCompute(k2, mustCompute(2))

	if got := c.TotalHits(); got != 3 {
		t.Errorf("expected 3 total accesses, got %d", got)
	}
}

func TestGetOrCompute_ConcurrentMisses(t *testing.T) {
	// Concurrent misses for the same key may each compute; the stored entry
	// must still be one complete, consistent pair.
	c := New(10)
	key := Key{Key1: 202401, Key2: 202402, Filter: 1}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pair, _, err := c.GetOrCompute(key, mustCompute(7))
			if err != nil {
				t.Errorf("GetOrCompute: %v", err)
				return
			}
			if pair.Period1[9].Plazas != 7 || pair.Period2[9].IncTotal != 140 {
				t.Error("caller observed a partial pair")
			}
		}()
	}
	wg.Wait()

	if !c.Contains(key) {
		t.Fatal("entry should be cached after the race")
	}
	pair, hit, _ := c.GetOrCompute(key, mustCompute(7))
	if !hit {
		t.Error("entry should now be a hit")
	}
	if pair.Period1[9].Plazas != 7 {
		t.Error("stored pair is inconsistent")
	}
}
