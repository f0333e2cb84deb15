// Package engine wires the ingestion adapter, the period store, the
// aggregator and the result cache into the surface the orchestrator calls.
//
// The engine owns no ambient state: both caches are constructed once in New
// and passed by handle into whatever host drives them.
package engine

import (
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/plazalytics/plazacache/config"
	"github.com/plazalytics/plazacache/internal/aggregate"
	"github.com/plazalytics/plazacache/internal/dataset"
	"github.com/plazalytics/plazacache/internal/ingest"
	"github.com/plazalytics/plazacache/internal/logging"
	"github.com/plazalytics/plazacache/internal/periodstore"
	"github.com/plazalytics/plazacache/internal/resultcache"
)

// Options configures a new engine.
type Options struct {
	// MaxPeriods bounds the raw period store. Zero selects the default.
	MaxPeriods int

	// MaxResults bounds the memoized comparison cache. Zero selects the default.
	MaxResults int

	// AggregateWorkers is the reduction parallelism. Zero means one per CPU.
	AggregateWorkers int
}

// Comparison is the response of a Compare call: one group map per period.
type Comparison struct {
	Period1 dataset.GroupMap `json:"periodo1"`
	Period2 dataset.GroupMap `json:"periodo2"`
}

// Engine is the two-level caching and aggregation core.
type Engine struct {
	periods *periodstore.Store
	results *resultcache.Cache
	workers int
	metrics *metrics
}

// New constructs an engine with its two stores.
func New(opts Options) *Engine {
	if opts.MaxPeriods <= 0 {
		opts.MaxPeriods = config.DefaultMaxPeriods
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = config.DefaultMaxResults
	}

	return &Engine{
		periods: periodstore.New(opts.MaxPeriods),
		results: resultcache.New(opts.MaxResults),
		workers: opts.AggregateWorkers,
		metrics: newMetrics(opts.MaxPeriods, opts.MaxResults),
	}
}

// Load decompresses and parses a period payload, publishes it under key, and
// returns the row count. A parse failure leaves the store untouched.
func (e *Engine) Load(key uint32, compressed []byte) (int, error) {
	raw, err := ingest.Decompress(compressed)
	if err != nil {
		return 0, err
	}
	ds, err := ingest.ParseParquet(raw)
	if err != nil {
		return 0, err
	}

	rows := e.periods.Load(key, ds)
	logging.Component("engine").Info("period loaded", "key", key, "rows", rows)
	return rows, nil
}

// IsPeriodCached reports whether a period is loaded.
func (e *Engine) IsPeriodCached(key uint32) bool {
	return e.periods.Contains(key)
}

// Compare returns the per-group aggregations of two periods under one status
// filter. The result cache is probed first; on a miss the two reductions run
// concurrently, since the periods are independent, and the pair is memoized.
func (e *Engine) Compare(key1, key2 uint32, filter int64) (*Comparison, error) {
	rkey := resultcache.Key{Key1: key1, Key2: key2, Filter: filter}
	start := time.Now()

	pair, hit, err := e.results.GetOrCompute(rkey, func() (resultcache.Pair, error) {
		d1, d2, err := e.periods.GetPair(key1, key2)
		if err != nil {
			return resultcache.Pair{}, err
		}

		var a1, a2 dataset.GroupMap
		var g errgroup.Group
		g.Go(func() error {
			a1 = aggregate.Reduce(d1, filter, e.workers)
			return nil
		})
		g.Go(func() error {
			a2 = aggregate.Reduce(d2, filter, e.workers)
			return nil
		})
		g.Wait() // reductions cannot fail

		return resultcache.Pair{Period1: a1, Period2: a2}, nil
	})
	if err != nil {
		return nil, err
	}

	if !hit {
		e.metrics.observeCompare(time.Since(start))
	}
	return &Comparison{Period1: pair.Period1, Period2: pair.Period2}, nil
}

// IsResultCached reports whether a comparison is memoized, without touching
// its access bookkeeping.
func (e *Engine) IsResultCached(key1, key2 uint32, filter int64) bool {
	return e.results.Contains(resultcache.Key{Key1: key1, Key2: key2, Filter: filter})
}

// ExpireResults removes memoized comparisons idle for at least ttl.
func (e *Engine) ExpireResults(ttl time.Duration) int {
	return e.results.ExpireOlderThan(ttl)
}

// SweepPeriods removes historic periods beyond the keepN most recently
// accessed. Current-year periods are never swept.
func (e *Engine) SweepPeriods(keepN int, currentYear uint32) int {
	return e.periods.SweepRetainRecent(keepN, currentYear)
}

// EvictPeriod removes one period, reporting whether it was present.
func (e *Engine) EvictPeriod(key uint32) bool {
	return e.periods.Evict(key)
}

// EvictResult removes one memoized comparison, reporting whether it was
// present.
func (e *Engine) EvictResult(key1, key2 uint32, filter int64) bool {
	return e.results.Evict(resultcache.Key{Key1: key1, Key2: key2, Filter: filter})
}

// CacheInfo returns introspection records for the result cache, ordered by
// access count descending.
func (e *Engine) CacheInfo() []resultcache.EntryInfo {
	return e.results.Entries()
}
