package engine

import (
	"context"
	"fmt"

	"alcyxob/program-engine/internal/domain"
	"alcyxob/program-engine/internal/store"
)

// CascadeCounts is the exact descendant census of a subtree, used to
// power destructive-operation confirmations. TotalItems is what a
// CascadeDelete on the same root would remove, the root excluded.
type CascadeCounts struct {
	Workouts   int  `json:"workouts"`
	Exercises  int  `json:"exercises"`
	Sets       int  `json:"sets"`
	TotalItems int  `json:"totalItems"`
	HasItems   bool `json:"hasItems"`
}

// CascadeCount walks the subtree read-only and aggregates descendant
// counts. level names the kind being considered for deletion and must
// match the root path; Week, Workout and Exercise contexts are supported.
//
// No isolation is guaranteed between this call and a later
// CascadeDelete; the counts are exact only absent concurrent mutation.
func (e *engine) CascadeCount(ctx context.Context, callerID string, root store.Path, level domain.Kind) (CascadeCounts, error) {
	if level != domain.KindWeek && level != domain.KindWorkout && level != domain.KindExercise {
		return CascadeCounts{}, fmt.Errorf("%w: %s", ErrBadContext, level)
	}
	rootKind, ok := root.Kind()
	if !ok {
		return CascadeCounts{}, fmt.Errorf("%w: malformed root path", ErrBadContext)
	}
	if rootKind != level {
		return CascadeCounts{}, fmt.Errorf("%w: path addresses a %s, context is %s", ErrBadContext, rootKind, level)
	}

	sub, err := walker{st: e.st}.read(ctx, callerID, root)
	if err != nil {
		return CascadeCounts{}, err
	}

	counts := CascadeCounts{
		Workouts:  len(sub.levels[domain.KindWorkout]),
		Exercises: len(sub.levels[domain.KindExercise]),
		Sets:      len(sub.levels[domain.KindSet]),
	}
	counts.TotalItems = counts.Workouts + counts.Exercises + counts.Sets
	counts.HasItems = counts.TotalItems > 0
	return counts, nil
}
