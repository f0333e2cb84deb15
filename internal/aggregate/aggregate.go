// Package aggregate reduces a period dataset to per-group accumulators.
//
// The reduction is commutative and associative: the row range is partitioned
// into chunks, each chunk folds into a local group map, and the locals are
// merged field-wise. The result is identical for any partition scheme, so the
// chunk count only affects speed, never output.
package aggregate

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/plazalytics/plazacache/config"
	"github.com/plazalytics/plazacache/internal/dataset"
)

// Reduce aggregates a dataset into a group map, filtered by status.
//
// A row is skipped when statusFilter >= 0 and the row's status is missing or
// differs from the filter, and when the row's group id is missing. Included
// rows increment the group's row count; each measure contributes max(v, 0) so
// sentinel and negative values add exactly zero.
//
// workers <= 0 selects one worker per CPU. The dataset is never mutated.
func Reduce(ds *dataset.Period, statusFilter int64, workers int) dataset.GroupMap {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	chunks := partition(ds.N, workers)
	if len(chunks) == 1 {
		return reduceRange(ds, statusFilter, 0, ds.N)
	}

	locals := make([]dataset.GroupMap, len(chunks))
	var g errgroup.Group
	for i, c := range chunks {
		i, c := i, c
		g.Go(func() error {
			locals[i] = reduceRange(ds, statusFilter, c.lo, c.hi)
			return nil
		})
	}
	g.Wait() // reduceRange cannot fail

	out := locals[0]
	for _, local := range locals[1:] {
		merge(out, local)
	}
	return out
}

type span struct{ lo, hi int }

// partition splits [0, n) into at most workers contiguous spans, keeping each
// span at least MinChunkRows wide so tiny datasets stay single-chunk.
func partition(n, workers int) []span {
	if n == 0 {
		return []span{{0, 0}}
	}
	size := (n + workers - 1) / workers
	if size < config.MinChunkRows {
		size = config.MinChunkRows
	}

	var spans []span
	for lo := 0; lo < n; lo += size {
		hi := lo + size
		if hi > n {
			hi = n
		}
		spans = append(spans, span{lo, hi})
	}
	return spans
}

// reduceRange folds rows [lo, hi) into a fresh group map.
func reduceRange(ds *dataset.Period, statusFilter int64, lo, hi int) dataset.GroupMap {
	acc := make(dataset.GroupMap)
	for i := lo; i < hi; i++ {
		if statusFilter >= 0 {
			sit := ds.Statuses[i]
			if sit == dataset.MissingInt || sit != statusFilter {
				continue
			}
		}
		gid := ds.GroupIDs[i]
		if gid == dataset.MissingInt {
			continue
		}

		e := acc[gid]
		e.Plazas++
		e.IncTotal += clamp(ds.IncTotals[i])
		e.AtenTotal += clamp(ds.AtenTotals[i])
		e.CNTotal += clamp(ds.CNTotals[i])
		e.CNInitial += clamp(ds.CNInitial[i])
		e.CNPrimary += clamp(ds.CNPrimary[i])
		e.CNSecondary += clamp(ds.CNSecondary[i])
		acc[gid] = e
	}
	return acc
}

// merge sums src into dst per group. Sentinel values never reach this point;
// they contribute zero at clamp time.
func merge(dst, src dataset.GroupMap) {
	for gid, v := range src {
		e := dst[gid]
		e.Add(v)
		dst[gid] = e
	}
}

// clamp returns max(v, 0). MissingInt is negative, so sentinels fall out here
// without a separate missing check.
func clamp(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
