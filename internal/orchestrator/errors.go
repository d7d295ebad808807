package orchestrator

import (
	"errors"
	"fmt"
)

// insufficientMemoryError signals that no eviction sequence could free
// enough budget for a load. Maps to 507 at the HTTP layer.
type insufficientMemoryError struct {
	required  uint64
	available uint64
}

func (e insufficientMemoryError) Error() string {
	return fmt.Sprintf("insufficient memory: required %d bytes, available %d bytes", e.required, e.available)
}

// ErrInsufficientMemory constructs an insufficientMemoryError.
func ErrInsufficientMemory(required, available uint64) error {
	return insufficientMemoryError{required: required, available: available}
}

// IsInsufficientMemory reports whether err indicates the memory budget could
// not be satisfied.
func IsInsufficientMemory(err error) bool {
	var e insufficientMemoryError
	return errors.As(err, &e)
}

// modelNotLoadedError signals infer/unload against an absent model id.
type modelNotLoadedError struct{ id string }

func (e modelNotLoadedError) Error() string { return "model not loaded: " + e.id }

// ErrModelNotLoaded constructs a modelNotLoadedError.
func ErrModelNotLoaded(id string) error { return modelNotLoadedError{id: id} }

// IsModelNotLoaded reports whether the error indicates a missing model id.
func IsModelNotLoaded(err error) bool {
	var e modelNotLoadedError
	return errors.As(err, &e)
}

// backendLoadError wraps an underlying loader failure with model context.
type backendLoadError struct {
	id   string
	path string
	err  error
}

func (e backendLoadError) Error() string {
	return fmt.Sprintf("backend load failed for %s (%s): %v", e.id, e.path, e.err)
}

func (e backendLoadError) Unwrap() error { return e.err }

// ErrBackendLoad wraps err as a backend load failure.
func ErrBackendLoad(id, path string, err error) error {
	return backendLoadError{id: id, path: path, err: err}
}

// IsBackendLoadFailure reports whether err originated in the loader backend.
func IsBackendLoadFailure(err error) bool {
	var e backendLoadError
	return errors.As(err, &e)
}
