package engine

import (
	"context"
	"sort"
	"sync"

	"alcyxob/program-engine/internal/store"
)

// DefaultBatchLimit leaves headroom under the usual 500-operation hard
// cap of bounded-batch document stores.
const DefaultBatchLimit = 450

// batchWriter chunks write operations into bounded batches. When the
// current batch reaches the limit it is submitted for commit in the
// background and a fresh batch opens, so commits pipeline while the
// caller keeps enqueuing. flushAll awaits everything.
//
// Batches are atomic individually; there is no atomicity across them.
type batchWriter struct {
	st    store.Store
	limit int

	pending   []store.WriteOp
	next      int // index the pending batch will get on submission
	submitted int // ops shipped in submitted batches, committed or not

	wg      sync.WaitGroup
	mu      sync.Mutex
	results []BatchResult
}

func newBatchWriter(st store.Store, limit int) *batchWriter {
	if limit <= 0 {
		limit = DefaultBatchLimit
	}
	return &batchWriter{st: st, limit: limit}
}

// enqueue adds one operation and returns the index of the batch that will
// carry it. Rolls over to a new batch when the limit is reached.
func (b *batchWriter) enqueue(ctx context.Context, op store.WriteOp) int {
	index := b.next
	b.pending = append(b.pending, op)
	if len(b.pending) >= b.limit {
		b.submit(ctx)
	}
	return index
}

// submit ships the pending batch without awaiting its commit.
func (b *batchWriter) submit(ctx context.Context) {
	ops := b.pending
	b.pending = nil
	index := b.next
	b.next++
	b.submitted += len(ops)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		err := b.st.BatchCommit(ctx, ops)
		b.mu.Lock()
		b.results = append(b.results, BatchResult{Index: index, Ops: len(ops), Err: err})
		b.mu.Unlock()
	}()
}

// discardPending drops operations that have not been submitted yet,
// returning how many were dropped. Used when an operation aborts
// mid-enqueue.
func (b *batchWriter) discardPending() int {
	n := len(b.pending)
	b.pending = nil
	return n
}

// enqueued counts operations handed to the writer so far, pending ones
// included.
func (b *batchWriter) enqueued() int {
	return b.submitted + len(b.pending)
}

// flushAll submits any trailing batch and awaits every retained commit.
// The returned results are in submission order. err is a
// *PartialFailureError when one or more batches failed.
func (b *batchWriter) flushAll(ctx context.Context) ([]BatchResult, error) {
	if len(b.pending) > 0 {
		b.submit(ctx)
	}
	b.wg.Wait()

	b.mu.Lock()
	results := b.results
	b.mu.Unlock()
	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })

	failure := partialFailure(results, 0, nil)
	if failure != nil {
		return results, failure
	}
	return results, nil
}

// partialFailure builds a *PartialFailureError from commit results, or
// nil when every batch committed and nothing was abandoned.
func partialFailure(results []BatchResult, abandonedOps int, cause error) *PartialFailureError {
	var committed, failed []BatchResult
	for _, r := range results {
		if r.Committed() {
			committed = append(committed, r)
		} else {
			failed = append(failed, r)
		}
	}
	if len(failed) == 0 && abandonedOps == 0 && cause == nil {
		return nil
	}
	return &PartialFailureError{
		Committed:    committed,
		Failed:       failed,
		AbandonedOps: abandonedOps,
		Cause:        cause,
	}
}
