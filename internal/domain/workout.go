package domain

import "time"

// Workout is a single session within a Week. The full ancestor chain is
// denormalized onto the document so the store can address and authorize
// it without traversal.
type Workout struct {
	ID         string    `bson:"_id,omitempty" json:"id"`
	OwnerID    string    `bson:"ownerId" json:"ownerId"`
	ProgramID  string    `bson:"programId" json:"programId"`
	WeekID     string    `bson:"weekId" json:"weekId"`
	Name       string    `bson:"name" json:"name"`
	DayOfWeek  *int      `bson:"dayOfWeek,omitempty" json:"dayOfWeek,omitempty"` // 1 (Mon) - 7 (Sun)
	Notes      string    `bson:"notes,omitempty" json:"notes,omitempty"`
	OrderIndex int       `bson:"orderIndex" json:"orderIndex"` // 0-based order within the week
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (w *Workout) NodeID() string     { return w.ID }
func (w *Workout) NodeOwner() string  { return w.OwnerID }
func (w *Workout) NodeParent() string { return w.WeekID }
func (w *Workout) NodeKind() Kind     { return KindWorkout }

func (w *Workout) NodeOrder() int { return w.OrderIndex }
