package engine

import (
	"context"
	"testing"
	"time"

	"alcyxob/program-engine/internal/domain"
	"alcyxob/program-engine/internal/store"
	"alcyxob/program-engine/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ownerID   = "user-1"
	programID = "prog-1"
	weekID    = "week-1"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

// seedWeekFixture builds the canonical test subtree: Week "W1" with two
// workouts. Workout A has a strength exercise with 3 sets (reps 9/10/11,
// weight 125/135/145) and a custom exercise with 2 sets. Workout B has
// one cardio exercise with 2 sets of duration 300.
func seedWeekFixture(t *testing.T) *memory.Store {
	t.Helper()
	st := memory.New()

	st.Put(&domain.Program{ID: programID, OwnerID: ownerID, Name: "Base Program"})
	st.Put(&domain.Week{ID: weekID, OwnerID: ownerID, ProgramID: programID, Name: "W1", Order: 1})

	st.Put(&domain.Workout{ID: "wo-a", OwnerID: ownerID, ProgramID: programID, WeekID: weekID, Name: "Workout A", OrderIndex: 0})
	st.Put(&domain.Workout{ID: "wo-b", OwnerID: ownerID, ProgramID: programID, WeekID: weekID, Name: "Workout B", OrderIndex: 1})

	st.Put(&domain.Exercise{ID: "ex-str", OwnerID: ownerID, ProgramID: programID, WeekID: weekID, WorkoutID: "wo-a", Name: "Back Squat", Type: domain.ExerciseStrength, OrderIndex: 0})
	st.Put(&domain.Exercise{ID: "ex-cus", OwnerID: ownerID, ProgramID: programID, WeekID: weekID, WorkoutID: "wo-a", Name: "Sled Push", Type: domain.ExerciseCustom, OrderIndex: 1})
	st.Put(&domain.Exercise{ID: "ex-car", OwnerID: ownerID, ProgramID: programID, WeekID: weekID, WorkoutID: "wo-b", Name: "Row Erg", Type: domain.ExerciseCardio, OrderIndex: 0})

	reps := []int{9, 10, 11}
	weights := []float64{125, 135, 145}
	for i := 0; i < 3; i++ {
		st.Put(&domain.Set{
			ID: "set-str-" + string(rune('1'+i)), OwnerID: ownerID, ProgramID: programID,
			WeekID: weekID, WorkoutID: "wo-a", ExerciseID: "ex-str",
			SetNumber: i + 1, Reps: intPtr(reps[i]), Weight: floatPtr(weights[i]),
			RestTime: intPtr(90), Completed: true, Notes: "felt heavy",
		})
	}
	for i := 0; i < 2; i++ {
		st.Put(&domain.Set{
			ID: "set-cus-" + string(rune('1'+i)), OwnerID: ownerID, ProgramID: programID,
			WeekID: weekID, WorkoutID: "wo-a", ExerciseID: "ex-cus",
			SetNumber: i + 1, Reps: intPtr(10), Weight: floatPtr(50), Distance: floatPtr(20),
			Completed: true,
		})
	}
	for i := 0; i < 2; i++ {
		st.Put(&domain.Set{
			ID: "set-car-" + string(rune('1'+i)), OwnerID: ownerID, ProgramID: programID,
			WeekID: weekID, WorkoutID: "wo-b", ExerciseID: "ex-car",
			SetNumber: i + 1, Duration: intPtr(300), Completed: true,
		})
	}
	return st
}

func weekPath() store.Path {
	return store.Path{OwnerID: ownerID, ProgramID: programID, WeekID: weekID}
}

func workoutPath(id string) store.Path {
	return store.Path{OwnerID: ownerID, ProgramID: programID, WeekID: weekID, WorkoutID: id}
}

// collectSets fetches all duplicated sets under the subtree root path,
// grouped by exercise id.
func setsByExercise(t *testing.T, st *memory.Store, root store.Path) map[string][]*domain.Set {
	t.Helper()
	nodes, err := st.ListDescendants(context.Background(), root, domain.KindSet)
	require.NoError(t, err)
	grouped := make(map[string][]*domain.Set)
	for _, n := range nodes {
		set := n.(*domain.Set)
		grouped[set.ExerciseID] = append(grouped[set.ExerciseID], set)
	}
	return grouped
}

func TestDuplicateWeekShape(t *testing.T) {
	st := seedWeekFixture(t)
	eng := New(st, nil, Options{})

	res, err := eng.Duplicate(context.Background(), ownerID, weekPath())
	require.NoError(t, err)
	require.NotNil(t, res)
	require.NotEmpty(t, res.RootID)
	assert.NotEqual(t, weekID, res.RootID)

	// Mapping mirrors the source shape: 2 workouts, 2+1 exercises, 3+2+2 sets.
	require.NotNil(t, res.Mapping)
	assert.Equal(t, domain.KindWeek, res.Mapping.Kind)
	assert.Equal(t, weekID, res.Mapping.OldID)
	assert.Equal(t, res.RootID, res.Mapping.NewID)
	require.Len(t, res.Mapping.Children, 2)

	workoutA := res.Mapping.Children[0]
	workoutB := res.Mapping.Children[1]
	assert.Equal(t, "wo-a", workoutA.OldID)
	assert.Equal(t, "wo-b", workoutB.OldID)
	require.Len(t, workoutA.Children, 2)
	require.Len(t, workoutB.Children, 1)
	assert.Len(t, workoutA.Children[0].Children, 3)
	assert.Len(t, workoutA.Children[1].Children, 2)
	assert.Len(t, workoutB.Children[0].Children, 2)

	// Every mapping node committed on success.
	var walk func(m *Mapping)
	walk = func(m *Mapping) {
		assert.True(t, m.Committed, "node %s should be committed", m.NewID)
		for _, c := range m.Children {
			walk(c)
		}
	}
	walk(res.Mapping)

	// Store now holds source and copy side by side.
	assert.Equal(t, 2, st.Len(domain.KindWeek))
	assert.Equal(t, 4, st.Len(domain.KindWorkout))
	assert.Equal(t, 6, st.Len(domain.KindExercise))
	assert.Equal(t, 14, st.Len(domain.KindSet))
}

func TestDuplicateWeekNameSuffix(t *testing.T) {
	st := seedWeekFixture(t)
	eng := New(st, nil, Options{})

	res, err := eng.Duplicate(context.Background(), ownerID, weekPath())
	require.NoError(t, err)

	newPath := store.Path{OwnerID: ownerID, ProgramID: programID, WeekID: res.RootID}
	node, err := st.Get(context.Background(), newPath)
	require.NoError(t, err)
	week := node.(*domain.Week)

	assert.Equal(t, "W1 (Copy)", week.Name)
	assert.Equal(t, 1, week.Order, "ordering values are preserved, not renumbered")
	assert.Equal(t, ownerID, week.OwnerID)
	assert.Equal(t, programID, week.ProgramID)

	// Descendant names are copied unchanged.
	workouts, err := st.ListDescendants(context.Background(), newPath, domain.KindWorkout)
	require.NoError(t, err)
	require.Len(t, workouts, 2)
	assert.Equal(t, "Workout A", workouts[0].(*domain.Workout).Name)
	assert.Equal(t, "Workout B", workouts[1].(*domain.Workout).Name)
}

func TestDuplicateBlankNameFallback(t *testing.T) {
	st := memory.New()
	st.Put(&domain.Week{ID: "w-blank", OwnerID: ownerID, ProgramID: programID, Name: "", Order: 3})
	eng := New(st, nil, Options{})

	res, err := eng.Duplicate(context.Background(), ownerID,
		store.Path{OwnerID: ownerID, ProgramID: programID, WeekID: "w-blank"})
	require.NoError(t, err)

	node, err := st.Get(context.Background(), store.Path{OwnerID: ownerID, ProgramID: programID, WeekID: res.RootID})
	require.NoError(t, err)
	assert.Equal(t, "Week (Copy)", node.(*domain.Week).Name)
}

func TestDuplicateStrengthSetPolicy(t *testing.T) {
	st := seedWeekFixture(t)
	eng := New(st, nil, Options{})

	res, err := eng.Duplicate(context.Background(), ownerID, weekPath())
	require.NoError(t, err)

	newRoot := store.Path{OwnerID: ownerID, ProgramID: programID, WeekID: res.RootID}
	strengthMapping := res.Mapping.Children[0].Children[0]
	grouped := setsByExercise(t, st, newRoot)
	sets := grouped[strengthMapping.NewID]
	require.Len(t, sets, 3)

	wantReps := []int{9, 10, 11}
	for i, set := range sets {
		assert.Equal(t, i+1, set.SetNumber)
		require.NotNil(t, set.Reps)
		assert.Equal(t, wantReps[i], *set.Reps)
		assert.Nil(t, set.Weight, "strength weight resets to null on copy")
		assert.False(t, set.Completed)
		require.NotNil(t, set.RestTime)
		assert.Equal(t, 90, *set.RestTime)
		assert.Equal(t, "felt heavy", set.Notes)
	}
}

func TestDuplicateCardioSetPolicy(t *testing.T) {
	st := seedWeekFixture(t)
	eng := New(st, nil, Options{})

	res, err := eng.Duplicate(context.Background(), ownerID, weekPath())
	require.NoError(t, err)

	newRoot := store.Path{OwnerID: ownerID, ProgramID: programID, WeekID: res.RootID}
	cardioMapping := res.Mapping.Children[1].Children[0]
	sets := setsByExercise(t, st, newRoot)[cardioMapping.NewID]
	require.Len(t, sets, 2)

	for _, set := range sets {
		require.NotNil(t, set.Duration)
		assert.Equal(t, 300, *set.Duration)
		assert.Nil(t, set.Reps, "cardio rule does not copy reps")
		assert.False(t, set.Completed)
	}
}

func TestDuplicateCustomSetPolicy(t *testing.T) {
	st := seedWeekFixture(t)
	eng := New(st, nil, Options{})

	res, err := eng.Duplicate(context.Background(), ownerID, weekPath())
	require.NoError(t, err)

	newRoot := store.Path{OwnerID: ownerID, ProgramID: programID, WeekID: res.RootID}
	customMapping := res.Mapping.Children[0].Children[1]
	sets := setsByExercise(t, st, newRoot)[customMapping.NewID]
	require.Len(t, sets, 2)

	for _, set := range sets {
		require.NotNil(t, set.Reps)
		assert.Equal(t, 10, *set.Reps)
		require.NotNil(t, set.Weight)
		assert.Equal(t, float64(50), *set.Weight)
		require.NotNil(t, set.Distance)
		assert.Equal(t, float64(20), *set.Distance)
		assert.False(t, set.Completed)
	}
}

func TestDuplicateKeepStrengthWeight(t *testing.T) {
	st := seedWeekFixture(t)
	eng := New(st, nil, Options{KeepStrengthWeight: true})

	res, err := eng.Duplicate(context.Background(), ownerID, weekPath())
	require.NoError(t, err)

	newRoot := store.Path{OwnerID: ownerID, ProgramID: programID, WeekID: res.RootID}
	strengthMapping := res.Mapping.Children[0].Children[0]
	sets := setsByExercise(t, st, newRoot)[strengthMapping.NewID]
	require.Len(t, sets, 3)

	wantWeights := []float64{125, 135, 145}
	for i, set := range sets {
		require.NotNil(t, set.Weight)
		assert.Equal(t, wantWeights[i], *set.Weight)
		assert.False(t, set.Completed, "completed still resets under the keep-weight policy")
	}
}

func TestDuplicateTwiceDistinct(t *testing.T) {
	st := seedWeekFixture(t)
	eng := New(st, nil, Options{})

	first, err := eng.Duplicate(context.Background(), ownerID, weekPath())
	require.NoError(t, err)
	second, err := eng.Duplicate(context.Background(), ownerID, weekPath())
	require.NoError(t, err)

	assert.NotEqual(t, first.RootID, second.RootID)
	assert.Equal(t, 3, st.Len(domain.KindWeek))
	assert.Equal(t, 6, st.Len(domain.KindWorkout))
	assert.Equal(t, 21, st.Len(domain.KindSet))

	// The two copies share no ids.
	ids := map[string]bool{}
	var collect func(m *Mapping)
	collect = func(m *Mapping) {
		assert.False(t, ids[m.NewID], "id %s reused across duplicates", m.NewID)
		ids[m.NewID] = true
		for _, c := range m.Children {
			collect(c)
		}
	}
	collect(first.Mapping)
	collect(second.Mapping)
}

func TestDuplicateSourceUntouched(t *testing.T) {
	st := seedWeekFixture(t)
	eng := New(st, nil, Options{})

	_, err := eng.Duplicate(context.Background(), ownerID, weekPath())
	require.NoError(t, err)

	node, err := st.Get(context.Background(), weekPath())
	require.NoError(t, err)
	assert.Equal(t, "W1", node.(*domain.Week).Name)

	sets := setsByExercise(t, st, weekPath())["ex-str"]
	require.Len(t, sets, 3)
	for _, set := range sets {
		require.NotNil(t, set.Weight)
		assert.True(t, set.Completed, "source completion flags survive duplication")
	}
}

func TestDuplicateNotFound(t *testing.T) {
	st := seedWeekFixture(t)
	eng := New(st, nil, Options{})

	_, err := eng.Duplicate(context.Background(), ownerID,
		store.Path{OwnerID: ownerID, ProgramID: programID, WeekID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, st.CommitCount(), "no writes attempted on a missing root")
}

func TestDuplicatePermissionDenied(t *testing.T) {
	st := seedWeekFixture(t)
	eng := New(st, nil, Options{})

	_, err := eng.Duplicate(context.Background(), "user-2",
		store.Path{OwnerID: "user-2", ProgramID: programID, WeekID: weekID})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, 0, st.CommitCount())
}

func TestDuplicateSetRootRejected(t *testing.T) {
	st := seedWeekFixture(t)
	eng := New(st, nil, Options{})

	p := weekPath()
	p.WorkoutID = "wo-a"
	p.ExerciseID = "ex-str"
	p.SetID = "set-str-1"
	_, err := eng.Duplicate(context.Background(), ownerID, p)
	assert.ErrorIs(t, err, ErrBadContext)
}

func TestDuplicateTimestampsReset(t *testing.T) {
	st := seedWeekFixture(t)
	frozen := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	st.NowFunc = func() time.Time { return frozen }
	eng := New(st, nil, Options{})

	res, err := eng.Duplicate(context.Background(), ownerID, weekPath())
	require.NoError(t, err)

	node, err := st.Get(context.Background(), store.Path{OwnerID: ownerID, ProgramID: programID, WeekID: res.RootID})
	require.NoError(t, err)
	week := node.(*domain.Week)
	assert.Equal(t, frozen, week.CreatedAt)
	assert.Equal(t, frozen, week.UpdatedAt)
}
