package store

import (
	"context"
	"time"

	"alcyxob/program-engine/internal/domain"
)

// Error constants for the store layer.
var (
	ErrNotFound     = StoreError("document not found")
	ErrCommitFailed = StoreError("batch commit failed")
)

// StoreError helps distinguish store errors from engine errors.
type StoreError string

func (e StoreError) Error() string {
	return string(e)
}

// Path addresses one document in the hierarchy by its full denormalized
// ancestor chain, owner first. Ids are filled top-down; the deepest
// non-empty id is the document the path points at.
type Path struct {
	OwnerID    string
	ProgramID  string
	WeekID     string
	WorkoutID  string
	ExerciseID string
	SetID      string
}

// Kind returns the kind of the document the path addresses.
// ok is false when the path is empty or the chain has a gap.
func (p Path) Kind() (kind domain.Kind, ok bool) {
	ids := p.chain()
	if p.OwnerID == "" {
		return 0, false
	}
	deepest := -1
	for i, id := range ids {
		if id == "" {
			// Everything below a gap must be empty too.
			for _, rest := range ids[i:] {
				if rest != "" {
					return 0, false
				}
			}
			break
		}
		deepest = i
	}
	if deepest < 0 {
		return 0, false
	}
	return domain.Kind(deepest), true
}

// ID returns the id of the addressed document ("" for an empty path).
func (p Path) ID() string {
	ids := p.chain()
	for i := len(ids) - 1; i >= 0; i-- {
		if ids[i] != "" {
			return ids[i]
		}
	}
	return ""
}

// Child returns the path of a child document one level below p.
func (p Path) Child(kind domain.Kind, id string) Path {
	switch kind {
	case domain.KindProgram:
		p.ProgramID = id
	case domain.KindWeek:
		p.WeekID = id
	case domain.KindWorkout:
		p.WorkoutID = id
	case domain.KindExercise:
		p.ExerciseID = id
	case domain.KindSet:
		p.SetID = id
	}
	return p
}

// Parent returns the path of the addressed document's parent (the owner
// for a Program path).
func (p Path) Parent() Path {
	kind, ok := p.Kind()
	if !ok {
		return p
	}
	switch kind {
	case domain.KindProgram:
		p.ProgramID = ""
	case domain.KindWeek:
		p.WeekID = ""
	case domain.KindWorkout:
		p.WorkoutID = ""
	case domain.KindExercise:
		p.ExerciseID = ""
	case domain.KindSet:
		p.SetID = ""
	}
	return p
}

func (p Path) chain() [5]string {
	return [5]string{p.ProgramID, p.WeekID, p.WorkoutID, p.ExerciseID, p.SetID}
}

// PathFor rebuilds the full path of a document from its denormalized
// ancestor chain.
func PathFor(n domain.Node) Path {
	p := Path{OwnerID: n.NodeOwner()}
	switch doc := n.(type) {
	case *domain.Program:
		p.ProgramID = doc.ID
	case *domain.Week:
		p.ProgramID = doc.ProgramID
		p.WeekID = doc.ID
	case *domain.Workout:
		p.ProgramID = doc.ProgramID
		p.WeekID = doc.WeekID
		p.WorkoutID = doc.ID
	case *domain.Exercise:
		p.ProgramID = doc.ProgramID
		p.WeekID = doc.WeekID
		p.WorkoutID = doc.WorkoutID
		p.ExerciseID = doc.ID
	case *domain.Set:
		p.ProgramID = doc.ProgramID
		p.WeekID = doc.WeekID
		p.WorkoutID = doc.WorkoutID
		p.ExerciseID = doc.ExerciseID
		p.SetID = doc.ID
	}
	return p
}

// OpKind distinguishes the two write operations a batch may carry.
type OpKind int

const (
	OpUpsert OpKind = iota
	OpDelete
)

// WriteOp is one write in a batch: an upsert of Doc at Path, or a delete
// of the document at Path (Doc nil).
type WriteOp struct {
	Op   OpKind
	Path Path
	Doc  domain.Node
}

// Store is the document-store client the engine consumes. Implementations
// must make BatchCommit atomic within one call; no atomicity is promised
// across calls.
type Store interface {
	// Get reads the document addressed by p. Returns ErrNotFound if it
	// does not exist.
	Get(ctx context.Context, p Path) (domain.Node, error)

	// ListDescendants returns every document of the given kind in the
	// subtree rooted at root, sorted by (parent id, ordering field asc).
	// One call per collection level bounds read amplification.
	ListDescendants(ctx context.Context, root Path, kind domain.Kind) ([]domain.Node, error)

	// BatchCommit applies all ops as one atomic unit.
	BatchCommit(ctx context.Context, ops []WriteOp) error

	// NewID generates a fresh document identifier.
	NewID() string

	// Now returns the store's notion of current time.
	Now() time.Time
}
