package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"alcyxob/program-engine/internal/domain"
	"alcyxob/program-engine/internal/store"
	"alcyxob/program-engine/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchWriterChunking(t *testing.T) {
	tests := []struct {
		name        string
		ops         int
		limit       int
		wantCommits int
	}{
		{name: "under the limit", ops: 2, limit: 3, wantCommits: 1},
		{name: "exactly the limit", ops: 3, limit: 3, wantCommits: 1},
		{name: "one over the limit", ops: 4, limit: 3, wantCommits: 2},
		{name: "several batches", ops: 10, limit: 3, wantCommits: 4},
		{name: "zero ops", ops: 0, limit: 3, wantCommits: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := memory.New()
			bw := newBatchWriter(st, tt.limit)
			for i := 0; i < tt.ops; i++ {
				doc := &domain.Week{ID: fmt.Sprintf("w-%d", i), OwnerID: ownerID, ProgramID: programID, Name: "W", Order: i + 1}
				bw.enqueue(context.Background(), store.WriteOp{Op: store.OpUpsert, Path: store.PathFor(doc), Doc: doc})
			}
			results, err := bw.flushAll(context.Background())
			require.NoError(t, err)
			assert.Len(t, results, tt.wantCommits)
			assert.Equal(t, tt.wantCommits, st.CommitCount())
			assert.Equal(t, tt.ops, st.Len(domain.KindWeek))
		})
	}
}

func TestDuplicateBatchChunking(t *testing.T) {
	st := seedWeekFixture(t)
	eng := New(st, nil, Options{BatchLimit: 3})

	// 1 week + 2 workouts + 3 exercises + 7 sets = 13 ops, ceil(13/3) = 5.
	_, err := eng.Duplicate(context.Background(), ownerID, weekPath())
	require.NoError(t, err)
	assert.Equal(t, 5, st.CommitCount())
}

func TestDuplicatePartialFailure(t *testing.T) {
	st := seedWeekFixture(t)
	// Batches commit concurrently, so the victim is picked by content:
	// the second batch carries exactly the three strength-set copies.
	st.FailCommit = func(_ int, ops []store.WriteOp) error {
		if set, ok := ops[0].Doc.(*domain.Set); ok && set.Notes == "felt heavy" {
			return errors.New("store unavailable")
		}
		return nil
	}
	eng := New(st, nil, Options{BatchLimit: 3})

	res, err := eng.Duplicate(context.Background(), ownerID, weekPath())

	var pf *PartialFailureError
	require.ErrorAs(t, err, &pf)
	assert.Len(t, pf.Committed, 4)
	assert.Len(t, pf.Failed, 1)
	assert.Equal(t, 1, pf.Failed[0].Index)
	assert.Equal(t, 10, pf.CommittedOps())
	assert.Zero(t, pf.AbandonedOps)

	// The mapping mirrors the full source shape, but only nodes whose
	// batch committed are flagged durable.
	require.NotNil(t, res)
	require.NotNil(t, res.Mapping)
	committed, uncommitted := 0, 0
	var walk func(m *Mapping)
	walk = func(m *Mapping) {
		if m.Committed {
			committed++
		} else {
			uncommitted++
		}
		for _, c := range m.Children {
			walk(c)
		}
	}
	walk(res.Mapping)
	assert.Equal(t, 10, committed)
	assert.Equal(t, 3, uncommitted, "three ops travelled in the failed batch")
}

func TestCascadeDeletePartialFailure(t *testing.T) {
	st := seedWeekFixture(t)
	// Fail the batch carrying workout A's delete, wherever it lands.
	st.FailCommit = func(_ int, ops []store.WriteOp) error {
		for _, op := range ops {
			if op.Path.ID() == "wo-a" {
				return errors.New("store unavailable")
			}
		}
		return nil
	}
	eng := New(st, nil, Options{BatchLimit: 4})

	res, err := eng.CascadeDelete(context.Background(), ownerID, weekPath())

	var pf *PartialFailureError
	require.ErrorAs(t, err, &pf)
	assert.Len(t, pf.Failed, 1)
	assert.Len(t, pf.Committed, 3) // 13 ops at limit 4 = 4 batches

	// Ops in the failed batch survive; the rest are gone.
	require.NotNil(t, res)
	assert.Equal(t, 9, res.Removed)
	assert.Equal(t, 13-9, totalDocs(st)-1, "program doc plus the failed batch's docs remain")
}

func TestDuplicateValidationFailure(t *testing.T) {
	st := seedWeekFixture(t)
	// A malformed set: none of reps/duration/distance present.
	st.Put(&domain.Set{
		ID: "set-bad", OwnerID: ownerID, ProgramID: programID,
		WeekID: weekID, WorkoutID: "wo-a", ExerciseID: "ex-str",
		SetNumber: 4,
	})
	eng := New(st, nil, Options{})

	_, err := eng.Duplicate(context.Background(), ownerID, weekPath())

	// With the default batch limit nothing was submitted before the walk
	// hit the malformed set, so no writes were attempted and the
	// validation error surfaces directly.
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.ErrorIs(t, ve, domain.ErrSetNoTarget)
	assert.Equal(t, 0, st.CommitCount())
}

func TestDuplicateValidationFailureAfterCommits(t *testing.T) {
	st := seedWeekFixture(t)
	st.Put(&domain.Set{
		ID: "set-bad", OwnerID: ownerID, ProgramID: programID,
		WeekID: weekID, WorkoutID: "wo-b", ExerciseID: "ex-car",
		SetNumber: 3,
	})
	eng := New(st, nil, Options{BatchLimit: 2})

	_, err := eng.Duplicate(context.Background(), ownerID, weekPath())

	// Batches submitted before the malformed set stand; the validation
	// failure is reported as a partial failure carrying them.
	var pf *PartialFailureError
	require.ErrorAs(t, err, &pf)
	var ve *ValidationError
	require.ErrorAs(t, pf.Cause, &ve)
	assert.NotEmpty(t, pf.Committed)
	assert.Greater(t, pf.AbandonedOps, 0)
}

func TestDuplicateUnknownExerciseType(t *testing.T) {
	st := seedWeekFixture(t)
	st.Put(&domain.Exercise{
		ID: "ex-odd", OwnerID: ownerID, ProgramID: programID,
		WeekID: weekID, WorkoutID: "wo-b", Name: "Mystery", Type: "yoga", OrderIndex: 1,
	})
	eng := New(st, nil, Options{})

	_, err := eng.Duplicate(context.Background(), ownerID, weekPath())

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, err.Error(), "yoga")
}
