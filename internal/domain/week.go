package domain

import "time"

// Week is a named block of a Program. Order is 1-based and unique within
// the owning program.
type Week struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	OwnerID   string    `bson:"ownerId" json:"ownerId"`
	ProgramID string    `bson:"programId" json:"programId"`
	Name      string    `bson:"name" json:"name"`
	Notes     string    `bson:"notes,omitempty" json:"notes,omitempty"`
	Order     int       `bson:"order" json:"order"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (w *Week) NodeID() string     { return w.ID }
func (w *Week) NodeOwner() string  { return w.OwnerID }
func (w *Week) NodeParent() string { return w.ProgramID }
func (w *Week) NodeKind() Kind     { return KindWeek }

func (w *Week) NodeOrder() int { return w.Order }
