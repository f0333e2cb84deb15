package engine

import (
	"sync"
	"time"

	"github.com/DataDog/sketches-go/ddsketch"

	"github.com/plazalytics/plazacache/config"
)

// ResourceStats is the engine's resource and cache usage snapshot.
type ResourceStats struct {
	PeriodsLoaded int    `json:"periodos_cargados"`
	TotalRows     int    `json:"filas_totales"`
	ApproxRAMKB   int    `json:"ram_datos_kb"`
	ResultsCached int    `json:"resultados_cacheados"`
	TotalHits     uint64 `json:"cache_hits_total"`
	MaxPeriods    int    `json:"max_periodos"`
	MaxResults    int    `json:"max_resultados"`

	// Compare-miss latency percentiles in milliseconds. Zero until the
	// first miss has been observed.
	CompareP50Ms float64 `json:"compare_p50_ms"`
	CompareP90Ms float64 `json:"compare_p90_ms"`
	CompareP99Ms float64 `json:"compare_p99_ms"`
}

// metrics tracks compare-miss latency with a DDSketch.
type metrics struct {
	mu         sync.Mutex
	sketch     *ddsketch.DDSketch
	maxPeriods int
	maxResults int
}

func newMetrics(maxPeriods, maxResults int) *metrics {
	m := &metrics{maxPeriods: maxPeriods, maxResults: maxResults}

	// Default relative accuracy of 1%, same as the percentile aggregates.
	sketch, err := ddsketch.NewDefaultDDSketch(0.01)
	if err == nil {
		m.sketch = sketch
	}
	return m
}

func (m *metrics) observeCompare(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sketch != nil {
		m.sketch.Add(float64(d) / float64(time.Millisecond))
	}
}

func (m *metrics) percentiles() (p50, p90, p99 float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sketch == nil || m.sketch.GetCount() == 0 {
		return 0, 0, 0
	}
	p50, _ = m.sketch.GetValueAtQuantile(0.50)
	p90, _ = m.sketch.GetValueAtQuantile(0.90)
	p99, _ = m.sketch.GetValueAtQuantile(0.99)
	return p50, p90, p99
}

// ResourceStats snapshots both caches. The RAM figure is a flat per-row
// estimate, not a measurement.
func (e *Engine) ResourceStats() ResourceStats {
	rows := e.periods.TotalRows()
	p50, p90, p99 := e.metrics.percentiles()

	return ResourceStats{
		PeriodsLoaded: e.periods.Len(),
		TotalRows:     rows,
		ApproxRAMKB:   rows * config.BytesPerRow / 1024,
		ResultsCached: e.results.Len(),
		TotalHits:     e.results.TotalHits(),
		MaxPeriods:    e.metrics.maxPeriods,
		MaxResults:    e.metrics.maxResults,
		CompareP50Ms:  p50,
		CompareP90Ms:  p90,
		CompareP99Ms:  p99,
	}
}
