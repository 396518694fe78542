package domain

import "time"

// Program is the root of the hierarchy: a training program owned by a
// single user.
type Program struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	OwnerID     string    `bson:"ownerId" json:"ownerId"`
	Name        string    `bson:"name" json:"name"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Archived    bool      `bson:"archived" json:"archived"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (p *Program) NodeID() string     { return p.ID }
func (p *Program) NodeOwner() string  { return p.OwnerID }
func (p *Program) NodeParent() string { return "" }
func (p *Program) NodeKind() Kind     { return KindProgram }

func (p *Program) NodeOrder() int { return 0 }
