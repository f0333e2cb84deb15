// Package ingest turns uploaded byte payloads into columnar period datasets.
//
// Ingestion is a pure projection: decompress, then extract a fixed allow-list
// of numeric columns from the Parquet schema. Two naming conventions are
// accepted per logical field (canonical lowercase and legacy mixed-case); the
// first alias present wins. Absent optional columns degrade to sentinel-filled
// columns rather than failing. Only the latitude anchor column is mandatory,
// because it alone determines the row count.
package ingest

import (
	"bytes"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/plazalytics/plazacache/internal/dataset"
	"github.com/plazalytics/plazacache/internal/errors"
)

// Column aliases per logical field. Index 0 is the canonical lowercase name;
// the rest are the legacy mixed-case export names.
var (
	aliasLat    = []string{"lat", "Latitud"}
	aliasLng    = []string{"lng", "Longitud"}
	aliasGroup  = []string{"estado_id", "Clave_Edo"}
	aliasStatus = []string{"situacion", "Situación", "Situacion"}
	aliasInc    = []string{"inc_total", "Inc_Total"}
	aliasAten   = []string{"aten_total", "Aten_Total"}
	aliasCNTot  = []string{"cn_total", "CN_Tot_Acum"}
	aliasCNIni  = []string{"cn_inicial", "CN_Inicial_Acum"}
	aliasCNPrim = []string{"cn_prim", "CN_Prim_Acum"}
	aliasCNSec  = []string{"cn_sec", "CN_Sec_Acum"}
)

// interesting is the union of all aliases; columns outside it are never read.
var interesting = func() map[string]struct{} {
	m := make(map[string]struct{})
	for _, aliases := range [][]string{
		aliasLat, aliasLng, aliasGroup, aliasStatus,
		aliasInc, aliasAten, aliasCNTot, aliasCNIni, aliasCNPrim, aliasCNSec,
	} {
		for _, a := range aliases {
			m[a] = struct{}{}
		}
	}
	return m
}()

// ParseParquet projects the allow-listed columns of a Parquet payload into a
// Period. Row count is taken from the latitude anchor column; if no alias of
// the anchor is present the payload is rejected with ErrSchema.
func ParseParquet(data []byte) (*dataset.Period, error) {
	f, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.NewDecode("parquet", err)
	}

	floatCols := make(map[string][]float64)
	intCols := make(map[string][]int64)

	fields := f.Schema().Fields()
	for _, rg := range f.RowGroups() {
		chunks := rg.ColumnChunks()
		for i, chunk := range chunks {
			if i >= len(fields) {
				break
			}
			name := fields[i].Name()
			if _, ok := interesting[name]; !ok {
				continue
			}
			if err := readChunk(chunk, name, floatCols, intCols); err != nil {
				return nil, errors.NewDecode("parquet", err)
			}
		}
	}

	lats, ok := firstFloat(floatCols, aliasLat)
	if !ok {
		return nil, errors.NewSchema("latitude anchor column missing")
	}
	n := len(lats)

	p := dataset.NewPeriod(n)
	p.Lats = lats
	p.Lngs = fitFloat(floatCols, aliasLng, n)
	p.GroupIDs = fitInt(intCols, aliasGroup, n)
	p.Statuses = fitInt(intCols, aliasStatus, n)
	p.IncTotals = fitInt(intCols, aliasInc, n)
	p.AtenTotals = fitInt(intCols, aliasAten, n)
	p.CNTotals = fitInt(intCols, aliasCNTot, n)
	p.CNInitial = fitInt(intCols, aliasCNIni, n)
	p.CNPrimary = fitInt(intCols, aliasCNPrim, n)
	p.CNSecondary = fitInt(intCols, aliasCNSec, n)
	return p, nil
}

// readChunk appends a column chunk's values to the float or int map depending
// on the column's physical type. Nulls become the sentinel for the type.
// Non-numeric columns are ignored; a later length check sentinel-fills them.
func readChunk(chunk parquet.ColumnChunk, name string, floatCols map[string][]float64, intCols map[string][]int64) error {
	pages := chunk.Pages()
	defer pages.Close()

	buf := make([]parquet.Value, 1024)
	for {
		page, err := pages.ReadPage()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		values := page.Values()
		for {
			n, err := values.ReadValues(buf)
			for _, v := range buf[:n] {
				appendValue(v, name, floatCols, intCols)
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
			if n == 0 {
				break
			}
		}
	}
}

func appendValue(v parquet.Value, name string, floatCols map[string][]float64, intCols map[string][]int64) {
	switch v.Kind() {
	case parquet.Float:
		out := dataset.MissingFloat()
		if !v.IsNull() {
			out = float64(v.Float())
		}
		floatCols[name] = append(floatCols[name], out)
	case parquet.Double:
		out := dataset.MissingFloat()
		if !v.IsNull() {
			out = v.Double()
		}
		floatCols[name] = append(floatCols[name], out)
	case parquet.Int32:
		out := int64(dataset.MissingInt)
		if !v.IsNull() {
			out = int64(v.Int32())
		}
		intCols[name] = append(intCols[name], out)
	case parquet.Int64:
		out := int64(dataset.MissingInt)
		if !v.IsNull() {
			out = v.Int64()
		}
		intCols[name] = append(intCols[name], out)
	}
}

// firstFloat returns the first alias present in the float column map.
func firstFloat(cols map[string][]float64, aliases []string) ([]float64, bool) {
	for _, a := range aliases {
		if v, ok := cols[a]; ok {
			return v, true
		}
	}
	return nil, false
}

func firstInt(cols map[string][]int64, aliases []string) ([]int64, bool) {
	for _, a := range aliases {
		if v, ok := cols[a]; ok {
			return v, true
		}
	}
	return nil, false
}

// fitFloat resolves a float field against the anchor length n. A column that
// is absent, or whose length disagrees with the anchor, is replaced by a
// sentinel-filled column so the dataset is never ragged.
func fitFloat(cols map[string][]float64, aliases []string, n int) []float64 {
	if v, ok := firstFloat(cols, aliases); ok && len(v) == n {
		return v
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = dataset.MissingFloat()
	}
	return out
}

func fitInt(cols map[string][]int64, aliases []string, n int) []int64 {
	if v, ok := firstInt(cols, aliases); ok && len(v) == n {
		return v
	}
	out := make([]int64, n)
	for i := range out {
		out[i] = dataset.MissingInt
	}
	return out
}
