// Package testutil provides shared fixtures for the plazacache tests,
// chiefly in-memory Parquet payloads in both column naming conventions.
package testutil

import (
	"bytes"
	"compress/gzip"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/parquet-go/parquet-go"
)

// Row is one fixture record using the canonical lowercase column names.
type Row struct {
	Lat       float64 `parquet:"lat"`
	Lng       float64 `parquet:"lng"`
	EstadoID  int64   `parquet:"estado_id"`
	Situacion int64   `parquet:"situacion"`
	IncTotal  int64   `parquet:"inc_total"`
	AtenTotal int64   `parquet:"aten_total"`
	CNTotal   int64   `parquet:"cn_total"`
	CNInicial int64   `parquet:"cn_inicial"`
	CNPrim    int64   `parquet:"cn_prim"`
	CNSec     int64   `parquet:"cn_sec"`
}

// LegacyRow mirrors Row using the legacy mixed-case export names.
type LegacyRow struct {
	Latitud   float64 `parquet:"Latitud"`
	Longitud  float64 `parquet:"Longitud"`
	ClaveEdo  int64   `parquet:"Clave_Edo"`
	Situacion int64   `parquet:"Situación"`
	IncTotal  int64   `parquet:"Inc_Total"`
	AtenTotal int64   `parquet:"Aten_Total"`
	CNTot     int64   `parquet:"CN_Tot_Acum"`
	CNIni     int64   `parquet:"CN_Inicial_Acum"`
	CNPrim    int64   `parquet:"CN_Prim_Acum"`
	CNSec     int64   `parquet:"CN_Sec_Acum"`
}

// ParquetBytes serializes rows into an in-memory Parquet payload.
func ParquetBytes[T any](t *testing.T, rows []T) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := parquet.NewGenericWriter[T](&buf)
	if _, err := w.Write(rows); err != nil {
		t.Fatalf("write parquet rows: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close parquet writer: %v", err)
	}
	return buf.Bytes()
}

// Gzip compresses data with gzip.
func Gzip(t *testing.T, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

// Zstd compresses data with zstd.
func Zstd(t *testing.T, data []byte) []byte {
	t.Helper()

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("zstd writer: %v", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}
