package domain

import (
	"errors"
	"fmt"
)

// Common domain errors that can occur during annotation operations.
var (
	// ErrConfigMissing indicates that config.json is absent from the data
	// directory, so the project cannot be served.
	ErrConfigMissing = errors.New("project config missing")

	// ErrDataMissing indicates that input_data.json is absent, so there is
	// nothing to annotate.
	ErrDataMissing = errors.New("input data missing")

	// ErrPlanMissing indicates that no split plan has been persisted yet.
	// Callers treat this as a signal to generate one, not as a failure.
	ErrPlanMissing = errors.New("split plan missing")

	// ErrInvalidSplitState indicates that a persisted or generated plan
	// violates the assignment partition invariant.
	ErrInvalidSplitState = errors.New("invalid split state")

	// ErrUndefinedMetric indicates that an agreement metric has no defined
	// value for the collected annotations (too few common items or
	// categories). This is an expected early-project condition.
	ErrUndefinedMetric = errors.New("metric undefined for collected data")

	// ErrMalformedAnnotation indicates that a submitted annotation payload
	// failed validation and nothing was written.
	ErrMalformedAnnotation = errors.New("malformed annotation")

	// ErrUnknownAnnotator indicates an annotator ID outside the configured
	// range.
	ErrUnknownAnnotator = errors.New("unknown annotator")
)

// StoreError represents a failure while reading or writing a data file.
// It provides context about which file and operation caused the error.
type StoreError struct {
	// Op describes what operation was being performed, e.g. "read" or
	// "write".
	Op string

	// Path is the file involved in the failed operation.
	Path string

	// Err is the underlying error that caused the operation to fail.
	Err error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	return fmt.Sprintf("store error: op=%s, path=%s, err=%v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error, supporting Go 1.13+ error unwrapping.
func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError creates a new StoreError with the given details.
func NewStoreError(op, path string, err error) *StoreError {
	return &StoreError{
		Op:   op,
		Path: path,
		Err:  err,
	}
}
