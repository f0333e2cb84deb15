package ingest

import (
	"bytes"
	"compress/gzip"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/plazalytics/plazacache/internal/errors"
)

// Magic byte signatures for the supported codecs.
var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Decompress sniffs the leading magic bytes of raw and decompresses gzip or
// zstd payloads. Unrecognized signatures pass through unchanged, treated as
// already-uncompressed data. A recognized signature with a malformed payload
// fails with ErrDecode.
func Decompress(raw []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(raw, gzipMagic):
		return gunzip(raw)
	case bytes.HasPrefix(raw, zstdMagic):
		return unzstd(raw)
	default:
		return raw, nil
	}
}

func gunzip(raw []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.NewDecode("gzip", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewDecode("gzip", err)
	}
	return out, nil
}

func unzstd(raw []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, errors.NewDecode("zstd", err)
	}
	defer dec.Close()

	out, err := dec.DecodeAll(raw, nil)
	if err != nil {
		return nil, errors.NewDecode("zstd", err)
	}
	return out, nil
}
