package engine

import (
	"errors"
	"fmt"

	"alcyxob/program-engine/internal/store"
)

// --- Error Definitions ---
var (
	// ErrNotFound means the subtree root does not exist. Fatal; no writes
	// were attempted.
	ErrNotFound = errors.New("subtree root not found")

	// ErrPermissionDenied means the root's ownerId does not match the
	// caller. Fatal; no writes were attempted.
	ErrPermissionDenied = errors.New("caller does not own subtree root")

	// ErrBadContext means a cascade operation was requested at a level it
	// does not support.
	ErrBadContext = errors.New("unsupported cascade context level")
)

// BatchResult describes one submitted batch commit.
type BatchResult struct {
	Index int   `json:"index"` // 0-based submission order
	Ops   int   `json:"ops"`   // operations carried by the batch
	Err   error `json:"-"`     // nil when the batch committed
}

// Committed reports whether the batch is known to have committed.
func (b BatchResult) Committed() bool { return b.Err == nil }

// PartialFailureError reports a multi-batch write that could not complete
// as a whole. Batches commit atomically one by one, but there is no
// atomicity across them: everything in Committed is durable, everything
// in Failed is not, and AbandonedOps were never submitted (validation
// failure or caller cancellation mid-operation). Callers must treat the
// touched subtree as incomplete and retry or clean up.
type PartialFailureError struct {
	Committed    []BatchResult
	Failed       []BatchResult
	AbandonedOps int
	// Cause is the non-commit error that stopped the operation early,
	// if any (a *ValidationError or the caller's context error).
	Cause error
}

func (e *PartialFailureError) Error() string {
	msg := fmt.Sprintf("partial failure: %d batches committed, %d failed, %d ops abandoned",
		len(e.Committed), len(e.Failed), e.AbandonedOps)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *PartialFailureError) Unwrap() error { return e.Cause }

// CommittedOps returns the total number of operations known durable.
func (e *PartialFailureError) CommittedOps() int {
	n := 0
	for _, b := range e.Committed {
		n += b.Ops
	}
	return n
}

// ValidationError marks a malformed source document encountered mid-walk.
// It aborts further writes for the subtree; committed batches stand.
type ValidationError struct {
	Path   store.Path
	Reason error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("malformed source document %s: %v", e.Path.ID(), e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Reason }
