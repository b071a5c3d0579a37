package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced memory does not exist, or
	// when an embedding is requested for a memory that has none.
	ErrNotFound = errors.New("memory not found")
)

// RetrievalError wraps a store-layer failure so callers can tell which
// collaborator failed. The engine never masks one behind an empty result:
// an empty slice always means zero qualifying rows.
type RetrievalError struct {
	Op  string // store operation that failed, e.g. "vector search"
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("memory retrieval failed (%s): %v", e.Op, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// NewRetrievalError wraps err with the failing store operation name.
func NewRetrievalError(op string, err error) *RetrievalError {
	return &RetrievalError{Op: op, Err: err}
}
