package engine

import (
	"context"

	"alcyxob/program-engine/internal/domain"
	"alcyxob/program-engine/internal/store"
)

// DeleteResult reports what a cascade delete removed.
type DeleteResult struct {
	// Removed is the number of delete operations carried by committed
	// batches, the root included when its batch committed.
	Removed int           `json:"removed"`
	Batches []BatchResult `json:"batches"`
}

// CascadeDelete removes the root document and every descendant through
// the batch writer. Delete order within the subtree is irrelevant for a
// document store; descendants and root travel in enqueue order.
//
// On partial failure some descendants may survive orphaned; the returned
// *PartialFailureError says which batches committed so the caller can
// retry the remainder. The engine never retries on its own.
func (e *engine) CascadeDelete(ctx context.Context, callerID string, root store.Path) (*DeleteResult, error) {
	sub, err := walker{st: e.st}.read(ctx, callerID, root)
	if err != nil {
		return nil, err
	}

	if e.archiver != nil {
		// Snapshot before destroying anything. A failed snapshot aborts
		// the delete; nothing has been written yet.
		if err := e.archiver.ArchiveSubtree(ctx, callerID, sub.root, sub.levels); err != nil {
			return nil, err
		}
	}

	bw := newBatchWriter(e.st, e.opts.BatchLimit)
	planned := sub.size() + 1 // descendants plus the root
	var cause error

enqueue:
	for kind := sub.root.NodeKind() + 1; kind <= domain.KindSet; kind++ {
		for _, doc := range sub.levels[kind] {
			if ctx.Err() != nil {
				cause = ctx.Err()
				break enqueue
			}
			bw.enqueue(ctx, store.WriteOp{Op: store.OpDelete, Path: store.PathFor(doc)})
		}
	}
	if cause == nil {
		bw.enqueue(ctx, store.WriteOp{Op: store.OpDelete, Path: root})
	}

	abandoned := 0
	if cause != nil {
		bw.discardPending()
		abandoned = planned - bw.enqueued()
	}

	results, flushErr := bw.flushAll(ctx)
	removed := 0
	for _, r := range results {
		if r.Committed() {
			removed += r.Ops
		}
	}
	res := &DeleteResult{Removed: removed, Batches: results}

	if cause != nil || flushErr != nil {
		return res, partialFailure(results, abandoned, cause)
	}
	return res, nil
}
