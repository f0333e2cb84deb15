// Package geo implements the legacy single-dataset query engine.
//
// It predates the two-level period cache: one dataset is loaded from parallel
// arrays and queried in place. The nearest-point query computes great-circle
// distances from the query point to every row with both coordinates present.
package geo

import (
	"math"
	"sort"
	"sync"

	"github.com/plazalytics/plazacache/internal/aggregate"
	"github.com/plazalytics/plazacache/internal/dataset"
	"github.com/plazalytics/plazacache/internal/errors"
)

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// Match is one row within range of a nearest-point query.
type Match struct {
	Index      int     `json:"index"`
	DistanceKm float64 `json:"distance_km"`
}

// Engine holds the single legacy dataset behind a reader/writer lock.
type Engine struct {
	mu      sync.RWMutex
	data    *dataset.Period
	workers int
}

// New creates an empty legacy engine. workers is passed through to the
// aggregation reduction; zero means one per CPU.
func New(workers int) *Engine {
	return &Engine{workers: workers}
}

// Init loads the engine from parallel column arrays and returns the row
// count. All arrays must share the latitude array's length; ragged input
// fails with ErrValidation and leaves prior state untouched. The three
// cumulative-count columns the legacy path never carried are sentinel-filled.
func (e *Engine) Init(lats, lngs []float64, groupIDs, statuses, incTotals, atenTotals, cnTotals []int64) (int, error) {
	n := len(lats)
	for _, l := range []int{len(lngs), len(groupIDs), len(statuses), len(incTotals), len(atenTotals), len(cnTotals)} {
		if l != n {
			return 0, errors.NewValidation("arrays", "columns must all match the latitude length")
		}
	}

	p := dataset.NewPeriod(n)
	p.Lats = lats
	p.Lngs = lngs
	p.GroupIDs = groupIDs
	p.Statuses = statuses
	p.IncTotals = incTotals
	p.AtenTotals = atenTotals
	p.CNTotals = cnTotals
	p.CNInitial = sentinelInts(n)
	p.CNPrimary = sentinelInts(n)
	p.CNSecondary = sentinelInts(n)

	e.mu.Lock()
	e.data = p
	e.mu.Unlock()
	return n, nil
}

func sentinelInts(n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = dataset.MissingInt
	}
	return out
}

// FindWithin returns the rows within maxKm of the query point, sorted by
// (distance, row index) ascending and truncated to limit. Rows with a missing
// coordinate are skipped; NaN query coordinates fail with ErrValidation.
func (e *Engine) FindWithin(lat, lng, maxKm float64, limit int) ([]Match, error) {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return nil, errors.NewValidation("coordinates", "lat/lng must not be NaN")
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.data == nil {
		return nil, errors.ErrNotInitialized
	}

	matches := make([]Match, 0)
	for i := 0; i < e.data.N; i++ {
		rlat, rlng := e.data.Lats[i], e.data.Lngs[i]
		if math.IsNaN(rlat) || math.IsNaN(rlng) {
			continue
		}
		d := haversine(lat, lng, rlat, rlng)
		if d <= maxKm {
			matches = append(matches, Match{Index: i, DistanceKm: math.Round(d*100) / 100})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].DistanceKm != matches[j].DistanceKm {
			return matches[i].DistanceKm < matches[j].DistanceKm
		}
		return matches[i].Index < matches[j].Index
	})
	if limit >= 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// AggregateByGroup runs the standard per-group reduction over the legacy
// dataset. A negative filter aggregates all rows.
func (e *Engine) AggregateByGroup(statusFilter int64) (dataset.GroupMap, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.data == nil {
		return nil, errors.ErrNotInitialized
	}
	return aggregate.Reduce(e.data, statusFilter, e.workers), nil
}

// FilterIndices returns the sorted row indices matching the group and status
// filters. Negative filter values match everything; missing values never
// match a non-negative filter.
func (e *Engine) FilterIndices(groupID, status int64) ([]int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.data == nil {
		return nil, errors.ErrNotInitialized
	}

	indices := make([]int, 0)
	for i := 0; i < e.data.N; i++ {
		if groupID >= 0 {
			g := e.data.GroupIDs[i]
			if g == dataset.MissingInt || g != groupID {
				continue
			}
		}
		if status >= 0 {
			s := e.data.Statuses[i]
			if s == dataset.MissingInt || s != status {
				continue
			}
		}
		indices = append(indices, i)
	}
	return indices, nil
}

// Stats reports whether the engine is initialized and its row count.
func (e *Engine) Stats() (initialized bool, rows int) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.data == nil {
		return false, 0
	}
	return true, e.data.N
}

// haversine returns the great-circle distance in kilometers.
func haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dlat := radians(lat2 - lat1)
	dlng := radians(lng2 - lng1)
	a := math.Pow(math.Sin(dlat/2), 2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Pow(math.Sin(dlng/2), 2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
