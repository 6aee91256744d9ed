package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupportedType indicates an unknown vectorizer or store backend.
	ErrUnsupportedType = errors.New("unsupported type")

	// Index Errors.

	// ErrIndexNotFound indicates the bundle of a named index is missing or incomplete.
	ErrIndexNotFound = errors.New("index not found")

	// ErrIndexExists indicates an index with the same name already has a bundle.
	ErrIndexExists = errors.New("index already exists")

	// ErrModelNotFitted indicates transform was requested before the model was trained or loaded.
	ErrModelNotFitted = errors.New("model not fitted")

	// ErrEmptyCorpus indicates a training corpus with no usable records.
	ErrEmptyCorpus = errors.New("empty corpus")

	// ErrDimensionMismatch indicates a vector or model whose size differs from the collection.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrPartialWrite indicates some records of a multi-record write failed.
	ErrPartialWrite = errors.New("partial write")

	// Store Errors.

	// ErrCollectionNotFound indicates the collection does not exist in the vector store.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrStoreUnavailable indicates the vector store could not be reached.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrRateLimited indicates the vector store rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

// DimensionMismatchError reports a collection whose dimension differs from the model.
type DimensionMismatchError struct {
	Collection string
	Want       int
	Got        int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch on %q: want %d, got %d", e.Collection, e.Want, e.Got)
}

// Is matches ErrDimensionMismatch.
func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

// PartialWriteError reports per-record failures of a write.
// Diverged lists ids written to some collections of a dual-collection index
// but not all of them; replaying the same write heals them.
type PartialWriteError struct {
	Operation string
	Failures  []ItemFailure
	Diverged  []int64
}

func (e *PartialWriteError) Error() string {
	msg := fmt.Sprintf("%s: %d record(s) failed", e.Operation, len(e.Failures))
	if len(e.Diverged) > 0 {
		msg += fmt.Sprintf(", %d diverged across collections", len(e.Diverged))
	}
	if len(e.Failures) > 0 {
		msg += fmt.Sprintf(": first error: id %d: %v", e.Failures[0].ID, e.Failures[0].Err)
	}
	return msg
}

// Unwrap returns ErrPartialWrite.
func (e *PartialWriteError) Unwrap() error {
	return ErrPartialWrite
}
