package domain

import "time"

// ExerciseType tags an exercise with the tracking style of its sets. The
// set of tags is closed; the duplication copy rules in SetCopyRuleFor must
// stay exhaustive over it.
type ExerciseType string

const (
	ExerciseStrength   ExerciseType = "strength"
	ExerciseCardio     ExerciseType = "cardio"
	ExerciseBodyweight ExerciseType = "bodyweight"
	ExerciseTimeBased  ExerciseType = "time-based"
	ExerciseCustom     ExerciseType = "custom"
)

// Exercise is one movement inside a Workout. Its type tag decides which
// set fields survive duplication.
type Exercise struct {
	ID         string       `bson:"_id,omitempty" json:"id"`
	OwnerID    string       `bson:"ownerId" json:"ownerId"`
	ProgramID  string       `bson:"programId" json:"programId"`
	WeekID     string       `bson:"weekId" json:"weekId"`
	WorkoutID  string       `bson:"workoutId" json:"workoutId"`
	Name       string       `bson:"name" json:"name"`
	Type       ExerciseType `bson:"type" json:"type"`
	Notes      string       `bson:"notes,omitempty" json:"notes,omitempty"`
	OrderIndex int          `bson:"orderIndex" json:"orderIndex"` // 0-based order within the workout
	CreatedAt  time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time    `bson:"updatedAt" json:"updatedAt"`
}

func (e *Exercise) NodeID() string     { return e.ID }
func (e *Exercise) NodeOwner() string  { return e.OwnerID }
func (e *Exercise) NodeParent() string { return e.WorkoutID }
func (e *Exercise) NodeKind() Kind     { return KindExercise }

// SetCopyRule says which set fields are copied verbatim when a set is
// duplicated. Fields not selected are reset to null on the copy.
// Completed is always reset regardless of rule.
type SetCopyRule struct {
	Reps     bool
	Weight   bool
	Duration bool
	Distance bool
	RestTime bool
}

// SetCopyRuleFor returns the copy rule for sets owned by an exercise of
// type t. ok is false for an unrecognized tag, which the engine treats as
// a malformed source document.
//
// Weight is dropped for strength sets so the copy invites a fresh entry;
// every other numeric field is a fixed training target and is kept.
func SetCopyRuleFor(t ExerciseType) (rule SetCopyRule, ok bool) {
	switch t {
	case ExerciseStrength:
		return SetCopyRule{Reps: true, RestTime: true}, true
	case ExerciseCardio, ExerciseTimeBased:
		return SetCopyRule{Duration: true, Distance: true}, true
	case ExerciseBodyweight:
		return SetCopyRule{Reps: true, RestTime: true}, true
	case ExerciseCustom:
		return SetCopyRule{Reps: true, Weight: true, Duration: true, Distance: true, RestTime: true}, true
	}
	return SetCopyRule{}, false
}

func (e *Exercise) NodeOrder() int { return e.OrderIndex }
