package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"alcyxob/program-engine/internal/domain"
	"alcyxob/program-engine/internal/store"

	"github.com/google/uuid"
)

// Store is an in-memory store.Store. It backs the engine tests and local
// development; semantics mirror the MongoDB store, including atomic
// batches (a failing commit applies nothing).
type Store struct {
	mu      sync.Mutex
	docs    map[domain.Kind]map[string]domain.Node
	commits int

	// FailCommit, when non-nil, is consulted before a batch is applied.
	// Returning an error fails that whole batch. commitIndex is 0-based in
	// commit-submission order.
	FailCommit func(commitIndex int, ops []store.WriteOp) error

	// NowFunc overrides the clock when set.
	NowFunc func() time.Time
}

// New creates an empty in-memory store.
func New() *Store {
	docs := make(map[domain.Kind]map[string]domain.Node)
	for k := domain.KindProgram; k <= domain.KindSet; k++ {
		docs[k] = make(map[string]domain.Node)
	}
	return &Store{docs: docs}
}

// Put seeds a document directly, bypassing batches. Test fixture helper.
func (s *Store) Put(n domain.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[n.NodeKind()][n.NodeID()] = shallowCopy(n)
}

// Len reports how many documents of the given kind exist.
func (s *Store) Len(kind domain.Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs[kind])
}

// Has reports whether a document of the given kind and id exists.
func (s *Store) Has(kind domain.Kind, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.docs[kind][id]
	return ok
}

// CommitCount reports how many batch commits were submitted, failed ones
// included.
func (s *Store) CommitCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

// Get retrieves the document addressed by p.
func (s *Store) Get(ctx context.Context, p store.Path) (domain.Node, error) {
	kind, ok := p.Kind()
	if !ok {
		return nil, fmt.Errorf("malformed document path %+v", p)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.docs[kind][p.ID()]
	if !ok {
		return nil, store.ErrNotFound
	}
	return shallowCopy(n), nil
}

// ListDescendants returns every document of the given kind under root,
// sorted by (parent id, ordering field).
func (s *Store) ListDescendants(ctx context.Context, root store.Path, kind domain.Kind) ([]domain.Node, error) {
	rootKind, ok := root.Kind()
	if !ok {
		return nil, fmt.Errorf("malformed document path %+v", root)
	}
	if kind <= rootKind {
		return nil, fmt.Errorf("%s is not below %s", kind, rootKind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var nodes []domain.Node
	for _, n := range s.docs[kind] {
		if n.NodeOwner() != root.OwnerID {
			continue
		}
		if ancestorID(n, rootKind) != root.ID() {
			continue
		}
		nodes = append(nodes, shallowCopy(n))
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].NodeParent() != nodes[j].NodeParent() {
			return nodes[i].NodeParent() < nodes[j].NodeParent()
		}
		return nodes[i].NodeOrder() < nodes[j].NodeOrder()
	})
	return nodes, nil
}

// BatchCommit applies all ops atomically: FailCommit is consulted first,
// and a failing batch leaves the store untouched.
func (s *Store) BatchCommit(ctx context.Context, ops []store.WriteOp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.commits
	s.commits++

	if s.FailCommit != nil {
		if err := s.FailCommit(index, ops); err != nil {
			return fmt.Errorf("%w: %v", store.ErrCommitFailed, err)
		}
	}

	for _, op := range ops {
		kind, ok := op.Path.Kind()
		if !ok {
			return fmt.Errorf("malformed write path %+v", op.Path)
		}
		switch op.Op {
		case store.OpUpsert:
			s.docs[kind][op.Path.ID()] = shallowCopy(op.Doc)
		case store.OpDelete:
			delete(s.docs[kind], op.Path.ID())
		}
	}
	return nil
}

// NewID generates a fresh document identifier.
func (s *Store) NewID() string {
	return uuid.NewString()
}

// Now returns the current time, or the override when set.
func (s *Store) Now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc()
	}
	return time.Now().UTC()
}

// ancestorID reads the denormalized ancestor id of the given kind off a
// document, "" when the document has no such ancestor.
func ancestorID(n domain.Node, kind domain.Kind) string {
	switch doc := n.(type) {
	case *domain.Week:
		if kind == domain.KindProgram {
			return doc.ProgramID
		}
	case *domain.Workout:
		switch kind {
		case domain.KindProgram:
			return doc.ProgramID
		case domain.KindWeek:
			return doc.WeekID
		}
	case *domain.Exercise:
		switch kind {
		case domain.KindProgram:
			return doc.ProgramID
		case domain.KindWeek:
			return doc.WeekID
		case domain.KindWorkout:
			return doc.WorkoutID
		}
	case *domain.Set:
		switch kind {
		case domain.KindProgram:
			return doc.ProgramID
		case domain.KindWeek:
			return doc.WeekID
		case domain.KindWorkout:
			return doc.WorkoutID
		case domain.KindExercise:
			return doc.ExerciseID
		}
	}
	return ""
}

func shallowCopy(n domain.Node) domain.Node {
	switch doc := n.(type) {
	case *domain.Program:
		c := *doc
		return &c
	case *domain.Week:
		c := *doc
		return &c
	case *domain.Workout:
		c := *doc
		return &c
	case *domain.Exercise:
		c := *doc
		return &c
	case *domain.Set:
		c := *doc
		return &c
	}
	return n
}
