package domain

import (
	"errors"
	"fmt"
	"time"
)

// Set is the leaf of the hierarchy: one set of one exercise. Pointer
// fields are nullable; which ones are populated depends on the owning
// exercise's type.
type Set struct {
	ID         string     `bson:"_id,omitempty" json:"id"`
	OwnerID    string     `bson:"ownerId" json:"ownerId"`
	ProgramID  string     `bson:"programId" json:"programId"`
	WeekID     string     `bson:"weekId" json:"weekId"`
	WorkoutID  string     `bson:"workoutId" json:"workoutId"`
	ExerciseID string     `bson:"exerciseId" json:"exerciseId"`
	SetNumber  int        `bson:"setNumber" json:"setNumber"` // 1-based order within the exercise
	Reps       *int       `bson:"reps,omitempty" json:"reps,omitempty"`
	Weight     *float64   `bson:"weight,omitempty" json:"weight,omitempty"`
	Duration   *int       `bson:"duration,omitempty" json:"duration,omitempty"` // seconds
	Distance   *float64   `bson:"distance,omitempty" json:"distance,omitempty"` // meters
	RestTime   *int       `bson:"restTime,omitempty" json:"restTime,omitempty"` // seconds
	Completed  bool       `bson:"completed" json:"completed"`
	Notes      string     `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt  time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time  `bson:"updatedAt" json:"updatedAt"`
}

func (s *Set) NodeID() string     { return s.ID }
func (s *Set) NodeOwner() string  { return s.OwnerID }
func (s *Set) NodeParent() string { return s.ExerciseID }
func (s *Set) NodeKind() Kind     { return KindSet }

// ErrSetNoTarget is returned by Validate when a set carries none of the
// three target fields.
var ErrSetNoTarget = errors.New("set requires at least one of reps, duration, distance")

// Validate checks the structural invariants of a set document: at least
// one of reps/duration/distance present, all numeric fields non-negative.
func (s *Set) Validate() error {
	if s.Reps == nil && s.Duration == nil && s.Distance == nil {
		return ErrSetNoTarget
	}
	if s.SetNumber < 1 {
		return fmt.Errorf("set number %d must be 1-based", s.SetNumber)
	}
	if s.Reps != nil && *s.Reps < 0 {
		return fmt.Errorf("negative reps %d", *s.Reps)
	}
	if s.Weight != nil && *s.Weight < 0 {
		return fmt.Errorf("negative weight %g", *s.Weight)
	}
	if s.Duration != nil && *s.Duration < 0 {
		return fmt.Errorf("negative duration %d", *s.Duration)
	}
	if s.Distance != nil && *s.Distance < 0 {
		return fmt.Errorf("negative distance %g", *s.Distance)
	}
	if s.RestTime != nil && *s.RestTime < 0 {
		return fmt.Errorf("negative rest time %d", *s.RestTime)
	}
	return nil
}

func (s *Set) NodeOrder() int { return s.SetNumber }
