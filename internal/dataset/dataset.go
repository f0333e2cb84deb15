// Package dataset defines the columnar period snapshot consumed by the
// aggregation engine, together with the sentinel contract for missing values.
//
// Missing values are always represented in-band: NaN for float columns and
// MissingInt for integer columns. Columns are never ragged; every slice in a
// Period has length exactly N.
package dataset

import (
	"math"
	"sync/atomic"
	"time"
)

// MissingInt is the sentinel stored in integer columns for absent values.
// Consumers must compare against it before using a value; it never enters an
// arithmetic accumulation.
const MissingInt = math.MinInt64

// MissingFloat returns the sentinel for absent float values.
func MissingFloat() float64 { return math.NaN() }

// IsMissingFloat reports whether a float column value is the missing sentinel.
func IsMissingFloat(v float64) bool { return math.IsNaN(v) }

// Period is one immutable columnar snapshot, keyed externally by
// year*100+month. All column slices have length N. After publication into the
// period store the slices are never mutated; only the last-access timestamp
// changes, which is why it is atomic.
type Period struct {
	N int

	Lats     []float64
	Lngs     []float64
	GroupIDs []int64
	Statuses []int64

	IncTotals   []int64
	AtenTotals  []int64
	CNTotals    []int64
	CNInitial   []int64
	CNPrimary   []int64
	CNSecondary []int64

	LoadedAt int64

	lastAccessed atomic.Int64
}

// NewPeriod stamps a freshly parsed period with load and access times.
func NewPeriod(n int) *Period {
	now := time.Now().Unix()
	p := &Period{N: n, LoadedAt: now}
	p.lastAccessed.Store(now)
	return p
}

// Touch records an aggregation read. Safe under the store's shared lock.
func (p *Period) Touch(now int64) {
	p.lastAccessed.Store(now)
}

// LastAccessed returns the unix time of the most recent read or load.
func (p *Period) LastAccessed() int64 {
	return p.lastAccessed.Load()
}

// Accumulator is the per-group running-sum record. Plazas counts included
// rows; the six measure fields accumulate non-negative clamped contributions.
// Field order matches the engine's wire shape.
type Accumulator struct {
	Plazas      int64 `json:"plazas"`
	IncTotal    int64 `json:"inc_total"`
	AtenTotal   int64 `json:"aten_total"`
	CNTotal     int64 `json:"cn_total"`
	CNInitial   int64 `json:"cn_ini"`
	CNPrimary   int64 `json:"cn_prim"`
	CNSecondary int64 `json:"cn_sec"`
}

// Add sums another accumulator into this one field by field. Summation is
// commutative and associative, which is what makes the chunked parallel
// reduction order-independent.
func (a *Accumulator) Add(b Accumulator) {
	a.Plazas += b.Plazas
	a.IncTotal += b.IncTotal
	a.AtenTotal += b.AtenTotal
	a.CNTotal += b.CNTotal
	a.CNInitial += b.CNInitial
	a.CNPrimary += b.CNPrimary
	a.CNSecondary += b.CNSecondary
}

// GroupMap maps a group id to its accumulator.
type GroupMap = map[int64]Accumulator
