package index

import (
	"errors"
	"fmt"
)

// ErrEmptyIndex indicates a query against a run with no indexed chunks.
var ErrEmptyIndex = errors.New("index is empty")

// ErrIndexNotReady indicates the run's index has not finished building.
var ErrIndexNotReady = errors.New("index not ready")

// RetrievalError: a question could not be answered (empty index or failed
// question embedding). Surfaced to the caller, never retried automatically.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval: %v", e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// BuildError: embedding failed for one batch of chunks. The affected chunks
// are dropped (reduced recall); the build continues.
type BuildError struct {
	FilePath string
	Chunks   int
	Err      error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("embed %d chunk(s) of %s: %v", e.Chunks, e.FilePath, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }
