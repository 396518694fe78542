package domain

// Kind identifies one of the five node kinds in the program hierarchy.
// The hierarchy is strict: Program → Week → Workout → Exercise → Set.
type Kind int

const (
	KindProgram Kind = iota
	KindWeek
	KindWorkout
	KindExercise
	KindSet
)

func (k Kind) String() string {
	switch k {
	case KindProgram:
		return "program"
	case KindWeek:
		return "week"
	case KindWorkout:
		return "workout"
	case KindExercise:
		return "exercise"
	case KindSet:
		return "set"
	}
	return "unknown"
}

// Child returns the kind one level below k. ok is false for KindSet,
// which is a leaf.
func (k Kind) Child() (child Kind, ok bool) {
	if k >= KindProgram && k < KindSet {
		return k + 1, true
	}
	return 0, false
}

// Node is the read-side view the engine needs of any document in the
// hierarchy, regardless of kind.
type Node interface {
	NodeID() string
	NodeOwner() string
	// NodeParent returns the id of the immediate parent document.
	// Programs return "" (the owner is an identity, not a document).
	NodeParent() string
	NodeKind() Kind
	// NodeOrder returns the sibling-ordering value for this kind:
	// Week.Order, Workout/Exercise.OrderIndex, Set.SetNumber, 0 for
	// Programs.
	NodeOrder() int
}
