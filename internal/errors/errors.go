// Package errors defines the error taxonomy shared by the engine and its
// callers.
//
// This package provides:
// - Sentinel errors for every failure class the engine can surface
// - Category checking functions
// - Error wrapping utilities and contextual constructors
package errors

import (
	"errors"
	"fmt"
)

// ============================================================================
// Sentinel errors
// ============================================================================

var (
	// ErrDecode indicates a recognized compressed payload that could not be
	// decompressed (corrupt gzip or zstd stream).
	ErrDecode = errors.New("decode failed")

	// ErrSchema indicates that no alias of the anchor column was present in
	// the ingested file, so the row count cannot be established.
	ErrSchema = errors.New("unrecognized schema")

	// ErrNotLoaded indicates a comparison referenced a period key that is not
	// in the period store.
	ErrNotLoaded = errors.New("period not loaded")

	// ErrValidation indicates malformed caller input (NaN query coordinates,
	// ragged column arrays on the bulk-load path).
	ErrValidation = errors.New("invalid input")

	// ErrLock indicates a shared-state region could not be accessed. It is
	// surfaced per-request rather than crashing the process; retry is left to
	// the caller.
	ErrLock = errors.New("lock unavailable")

	// ErrNotInitialized indicates the legacy single-dataset engine was
	// queried before any data was loaded into it.
	ErrNotInitialized = errors.New("engine not initialized")
)

// ============================================================================
// Helper functions for error checking
// ============================================================================

// Is is a convenience wrapper for errors.Is
var Is = errors.Is

// As is a convenience wrapper for errors.As
var As = errors.As

// IsDecode returns true if err is a decompression error.
func IsDecode(err error) bool {
	return errors.Is(err, ErrDecode)
}

// IsSchema returns true if err is a schema error.
func IsSchema(err error) bool {
	return errors.Is(err, ErrSchema)
}

// IsNotLoaded returns true if err refers to a missing period or an
// uninitialized legacy engine.
func IsNotLoaded(err error) bool {
	return errors.Is(err, ErrNotLoaded) || errors.Is(err, ErrNotInitialized)
}

// IsValidation returns true if err is a caller-input validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// ============================================================================
// Error wrapping utilities
// ============================================================================

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// ============================================================================
// Error constructors with context
// ============================================================================

// NewDecode creates a decode error naming the codec that failed.
func NewDecode(codec string, cause error) error {
	return fmt.Errorf("%s: %v: %w", codec, cause, ErrDecode)
}

// NewSchema creates a schema error with a reason.
func NewSchema(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrSchema)
}

// NewNotLoaded creates a not-loaded error for a period key.
func NewNotLoaded(key uint32) error {
	return fmt.Errorf("period %d: %w", key, ErrNotLoaded)
}

// NewValidation creates a validation error with context.
func NewValidation(field, reason string) error {
	return fmt.Errorf("invalid %s: %s: %w", field, reason, ErrValidation)
}
