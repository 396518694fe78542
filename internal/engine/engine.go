package engine

import (
	"context"
	"fmt"

	"alcyxob/program-engine/internal/domain"
	"alcyxob/program-engine/internal/store"
)

// Engine is the hierarchical replication and cascade-mutation engine. It
// deep-copies or deep-deletes a subtree of the Program → Week → Workout
// → Exercise → Set hierarchy and computes exact descendant counts before
// destructive operations. It is a library; authentication, UI and
// request deduplication live with the caller.
type Engine interface {
	// Duplicate deep-copies the subtree rooted at root on behalf of
	// callerID and returns the id-mapping tree of the copy.
	Duplicate(ctx context.Context, callerID string, root store.Path) (*DuplicateResult, error)

	// CascadeCount returns the exact descendant census of the subtree,
	// without writing anything.
	CascadeCount(ctx context.Context, callerID string, root store.Path, level domain.Kind) (CascadeCounts, error)

	// CascadeDelete removes the root and every descendant.
	CascadeDelete(ctx context.Context, callerID string, root store.Path) (*DeleteResult, error)
}

// SubtreeArchiver snapshots a subtree before it is destroyed. Optional;
// a nil archiver skips snapshotting.
type SubtreeArchiver interface {
	ArchiveSubtree(ctx context.Context, callerID string, root domain.Node, levels map[domain.Kind][]domain.Node) error
}

// Options tune engine behavior. The zero value is production-ready.
type Options struct {
	// BatchLimit caps operations per batch commit; 0 means
	// DefaultBatchLimit. Tests shrink it to exercise chunking.
	BatchLimit int

	// KeepStrengthWeight preserves set weight on strength exercises when
	// duplicating, instead of the default reset-to-null.
	KeepStrengthWeight bool
}

type engine struct {
	st       store.Store
	archiver SubtreeArchiver
	opts     Options
}

// New creates an engine over the given document store. archiver may be
// nil.
func New(st store.Store, archiver SubtreeArchiver, opts Options) Engine {
	return &engine{st: st, archiver: archiver, opts: opts}
}

// Duplicate deep-copies the subtree rooted at root. Program, Week,
// Workout and Exercise roots are supported; a Set is a leaf and has
// nothing to replicate.
//
// The source subtree is never mutated. The copy gets fresh ids, a
// rewritten ancestor chain, reset completion and timestamp fields, and
// the root display name suffixed with " (Copy)". On partial failure the
// returned mapping still mirrors the source shape; only nodes with
// Committed true are durable.
func (e *engine) Duplicate(ctx context.Context, callerID string, root store.Path) (*DuplicateResult, error) {
	rootKind, ok := root.Kind()
	if !ok {
		return nil, fmt.Errorf("%w: malformed root path", ErrBadContext)
	}
	if rootKind == domain.KindSet {
		return nil, fmt.Errorf("%w: a set has no subtree to duplicate", ErrBadContext)
	}

	sub, err := walker{st: e.st}.read(ctx, callerID, root)
	if err != nil {
		return nil, err
	}
	tree := sub.assemble()
	planned := treeSize(tree)

	bw := newBatchWriter(e.st, e.opts.BatchLimit)
	t := &transformer{
		st:                 e.st,
		callerID:           callerID,
		now:                e.st.Now(),
		keepStrengthWeight: e.opts.KeepStrengthWeight,
	}

	mapping, cause := t.duplicateSubtree(ctx, bw, tree, root.Parent(), true)

	abandoned := 0
	if cause != nil {
		// Stop writing: drop ops not yet shipped, let in-flight batches
		// land. Committed work is not undone.
		bw.discardPending()
		abandoned = planned - bw.enqueued()
	}

	results, flushErr := bw.flushAll(ctx)
	markCommitted(mapping, results)

	var res *DuplicateResult
	if mapping != nil {
		res = &DuplicateResult{RootID: mapping.NewID, Mapping: mapping, Batches: results}
	}

	if cause == nil && flushErr == nil {
		return res, nil
	}
	if len(results) == 0 {
		// Nothing was ever submitted, so no writes were attempted;
		// surface the cause directly rather than as a partial failure.
		return res, cause
	}
	return res, partialFailure(results, abandoned, cause)
}

// treeSize counts the nodes of an assembled subtree, root included.
func treeSize(n *treeNode) int {
	total := 1
	for _, child := range n.children {
		total += treeSize(child)
	}
	return total
}
