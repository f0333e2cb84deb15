package periodstore

import (
	"testing"

	"github.com/plazalytics/plazacache/internal/dataset"
	"github.com/plazalytics/plazacache/internal/errors"
)

func newPeriod(n int, lastAccessed int64) *dataset.Period {
	p := dataset.NewPeriod(n)
	p.Touch(lastAccessed)
	return p
}

func TestLoadAndContains(t *testing.T) {
	s := New(4)

	if s.Contains(202401) {
		t.Error("empty store should not contain anything")
	}

	if rows := s.Load(202401, newPeriod(10, 100)); rows != 10 {
		t.Errorf("Load should return row count 10, got %d", rows)
	}
	if !s.Contains(202401) {
		t.Error("store should contain 202401 after load")
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 period, got %d", s.Len())
	}
}

func TestLoadReplacesExisting(t *testing.T) {
	s := New(2)
	s.Load(202401, newPeriod(10, 100))
	s.Load(202401, newPeriod(25, 200))

	if s.Len() != 1 {
		t.Errorf("replace should not grow the store, got %d", s.Len())
	}
	if s.TotalRows() != 25 {
		t.Errorf("expected 25 rows after replace, got %d", s.TotalRows())
	}
}

func TestGet_NotLoaded(t *testing.T) {
	s := New(2)
	if _, err := s.Get(202401); !errors.IsNotLoaded(err) {
		t.Errorf("expected not-loaded error, got %v", err)
	}
	if _, _, err := s.GetPair(202401, 202402); !errors.IsNotLoaded(err) {
		t.Errorf("expected not-loaded error, got %v", err)
	}
}

func TestGet_BumpsLastAccessed(t *testing.T) {
	s := New(2)
	s.now = func() int64 { return 500 }

	s.Load(202401, newPeriod(1, 100))
	p, err := s.Get(202401)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.LastAccessed() != 500 {
		t.Errorf("Get should bump last access to 500, got %d", p.LastAccessed())
	}
}

func TestCapacityLRU(t *testing.T) {
	// Loading MAX+1 distinct keys leaves exactly MAX entries, with the
	// least-recently-accessed evicted.
	s := New(3)

	s.Load(202401, newPeriod(1, 100))
	s.Load(202402, newPeriod(1, 50)) // oldest access
	s.Load(202403, newPeriod(1, 200))
	s.Load(202404, newPeriod(1, 300))

	if s.Len() != 3 {
		t.Fatalf("expected 3 periods, got %d", s.Len())
	}
	if s.Contains(202402) {
		t.Error("LRU entry 202402 should have been evicted")
	}
	for _, k := range []uint32{202401, 202403, 202404} {
		if !s.Contains(k) {
			t.Errorf("period %d should survive", k)
		}
	}
}

func TestCapacity_ReplaceDoesNotEvict(t *testing.T) {
	s := New(2)
	s.Load(202401, newPeriod(1, 100))
	s.Load(202402, newPeriod(1, 200))

	// Reloading an existing key at capacity must not evict anything.
	s.Load(202401, newPeriod(2, 300))

	if !s.Contains(202401) || !s.Contains(202402) {
		t.Error("replacing an existing key should keep both entries")
	}
}

func TestEvict(t *testing.T) {
	s := New(2)
	s.Load(202401, newPeriod(1, 100))

	if !s.Evict(202401) {
		t.Error("evicting a present key should return true")
	}
	if s.Evict(202401) {
		t.Error("evicting an absent key should return false")
	}
	if s.Contains(202401) {
		t.Error("evicted key should be gone")
	}
}

func TestSweepRetainRecent(t *testing.T) {
	s := New(10)

	// Historic periods with increasing last-access times.
	s.Load(202301, newPeriod(1, 10))
	s.Load(202302, newPeriod(1, 20))
	s.Load(202303, newPeriod(1, 30))
	s.Load(202304, newPeriod(1, 40))
	// Current-year periods, old access times; must never be swept.
	s.Load(202401, newPeriod(1, 1))
	s.Load(202402, newPeriod(1, 2))

	removed := s.SweepRetainRecent(2, 2024)
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	for _, k := range []uint32{202301, 202302} {
		if s.Contains(k) {
			t.Errorf("oldest historic %d should be swept", k)
		}
	}
	for _, k := range []uint32{202303, 202304, 202401, 202402} {
		if !s.Contains(k) {
			t.Errorf("period %d should survive the sweep", k)
		}
	}
}

func TestSweepRetainRecent_UnderLimit(t *testing.T) {
	s := New(10)
	s.Load(202301, newPeriod(1, 10))

	if removed := s.SweepRetainRecent(5, 2024); removed != 0 {
		t.Errorf("sweep below keepN should remove nothing, got %d", removed)
	}
	if !s.Contains(202301) {
		t.Error("period should survive")
	}
}

func TestTotalRows(t *testing.T) {
	s := New(4)
	s.Load(202401, newPeriod(10, 100))
	s.Load(202402, newPeriod(32, 100))

	if got := s.TotalRows(); got != 42 {
		t.Errorf("expected 42 total rows, got %d", got)
	}
}
