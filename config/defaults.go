// Package config provides configuration defaults and utilities
// for the plazacache daemon.
//
// This package defines all configurable constants with documented defaults.
// Users can override these values via config.yaml or environment variables.
package config

import "time"

// =============================================================================
// Cache Defaults
// =============================================================================

const (
	// DefaultMaxPeriods is the capacity of the raw period store.
	// When a new key is inserted at capacity, the least-recently-accessed
	// period is evicted first.
	// Override via config: cache.max_periods
	DefaultMaxPeriods = 24

	// DefaultMaxResults is the capacity of the memoized comparison cache.
	// Override via config: cache.max_results
	DefaultMaxResults = 200

	// DefaultResultTTL is the idle time after which a memoized comparison is
	// eligible for expiry. Entries are only removed when the host triggers an
	// expiry sweep; the cache itself never runs timers.
	// Override via config: cache.result_ttl_sec
	DefaultResultTTL = 4 * time.Hour

	// DefaultSweepKeepHistoric is how many non-current-year periods the
	// retention sweep keeps. Current-year periods are never swept.
	// Override via config: cache.sweep_keep_historic
	DefaultSweepKeepHistoric = 6

	// BytesPerRow is the flat per-row memory estimate used by resource stats
	// (seven int64 measures plus two float64 coordinates).
	BytesPerRow = 96
)

// =============================================================================
// Aggregation Defaults
// =============================================================================

const (
	// DefaultAggregateWorkers is the number of goroutines used for the
	// chunked per-group reduction. Zero means one worker per CPU.
	// Override via config: cache.aggregate_workers
	DefaultAggregateWorkers = 0

	// MinChunkRows is the smallest row range worth handing to a worker.
	// Datasets below workers*MinChunkRows are reduced in fewer chunks.
	MinChunkRows = 2048
)

// =============================================================================
// Server Defaults
// =============================================================================

const (
	// DefaultListenAddress is the default HTTP listen address.
	// Override via config: listen
	DefaultListenAddress = "0.0.0.0:8460"

	// DefaultMaxBodyBytes limits the size of an uploaded period payload to
	// prevent OOM. 64 MiB covers a full month of rows compressed or not.
	// Override via config: max_body_bytes
	DefaultMaxBodyBytes = 64 * 1024 * 1024
)

// =============================================================================
// Watchdog Defaults
// =============================================================================

const (
	// DefaultWatchdogInterval is how often the daemon runs cache maintenance
	// (result TTL expiry plus the historic period sweep).
	// Override via config: watchdog.interval_sec
	DefaultWatchdogInterval = 30 * time.Second
)
