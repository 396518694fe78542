package engine

import (
	"context"
	"fmt"
	"time"

	"alcyxob/program-engine/internal/domain"
	"alcyxob/program-engine/internal/store"
)

// Mapping pairs one source document with its duplicated counterpart,
// mirroring the shape of the source subtree.
type Mapping struct {
	Kind      domain.Kind `json:"kind"`
	OldID     string      `json:"oldId"`
	NewID     string      `json:"newId"`
	Committed bool        `json:"committed"`
	Children  []*Mapping  `json:"children,omitempty"`

	batch int // index of the batch carrying this document's upsert
}

// DuplicateResult is what Duplicate hands back: the id of the new root
// plus the full id-mapping tree. On partial failure, only mapping nodes
// with Committed true are known durable.
type DuplicateResult struct {
	RootID  string        `json:"rootId"`
	Mapping *Mapping      `json:"mapping"`
	Batches []BatchResult `json:"batches"`
}

// transformer produces the new document payload for each visited source
// node: fresh id, rewritten ancestor chain, reset completion and
// timestamp fields, owner forced to the caller. now is captured once so
// the whole duplicated subtree shares the operation's timestamp.
type transformer struct {
	st                 store.Store
	callerID           string
	now                time.Time
	keepStrengthWeight bool
}

// cloneNode builds the duplicate of src placed under newParent. suffix
// controls the " (Copy)" display-name treatment, applied to the subtree
// root only.
func (t *transformer) cloneNode(src *treeNode, newParent store.Path, suffix bool) (domain.Node, store.Path, error) {
	now := t.now
	newID := t.st.NewID()
	newPath := newParent.Child(src.doc.NodeKind(), newID)

	switch doc := src.doc.(type) {
	case *domain.Program:
		clone := &domain.Program{
			ID:          newID,
			OwnerID:     t.callerID,
			Name:        copyName(doc.Name, domain.KindProgram, suffix),
			Description: doc.Description,
			Archived:    false,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return clone, newPath, nil

	case *domain.Week:
		clone := &domain.Week{
			ID:        newID,
			OwnerID:   t.callerID,
			ProgramID: newPath.ProgramID,
			Name:      copyName(doc.Name, domain.KindWeek, suffix),
			Notes:     doc.Notes,
			Order:     doc.Order,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return clone, newPath, nil

	case *domain.Workout:
		clone := &domain.Workout{
			ID:         newID,
			OwnerID:    t.callerID,
			ProgramID:  newPath.ProgramID,
			WeekID:     newPath.WeekID,
			Name:       copyName(doc.Name, domain.KindWorkout, suffix),
			DayOfWeek:  copyIntPtr(doc.DayOfWeek),
			Notes:      doc.Notes,
			OrderIndex: doc.OrderIndex,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		return clone, newPath, nil

	case *domain.Exercise:
		if _, ok := domain.SetCopyRuleFor(doc.Type); !ok {
			return nil, store.Path{}, &ValidationError{
				Path:   src.path,
				Reason: fmt.Errorf("unknown exercise type %q", doc.Type),
			}
		}
		clone := &domain.Exercise{
			ID:         newID,
			OwnerID:    t.callerID,
			ProgramID:  newPath.ProgramID,
			WeekID:     newPath.WeekID,
			WorkoutID:  newPath.WorkoutID,
			Name:       copyName(doc.Name, domain.KindExercise, suffix),
			Type:       doc.Type,
			Notes:      doc.Notes,
			OrderIndex: doc.OrderIndex,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		return clone, newPath, nil

	case *domain.Set:
		return nil, store.Path{}, fmt.Errorf("set clone requires owning exercise type")
	}
	return nil, store.Path{}, fmt.Errorf("unknown node kind %s", src.doc.NodeKind())
}

// cloneSet duplicates a set under its new exercise, applying the field
// copy rule of the owning exercise's type. completed is always reset: a
// duplicated set has not been performed.
func (t *transformer) cloneSet(src *treeNode, newParent store.Path, exType domain.ExerciseType) (domain.Node, store.Path, error) {
	now := t.now
	doc, ok := src.doc.(*domain.Set)
	if !ok {
		return nil, store.Path{}, fmt.Errorf("expected set, got %s", src.doc.NodeKind())
	}
	if err := doc.Validate(); err != nil {
		return nil, store.Path{}, &ValidationError{Path: src.path, Reason: err}
	}
	rule, ok := domain.SetCopyRuleFor(exType)
	if !ok {
		return nil, store.Path{}, &ValidationError{
			Path:   src.path,
			Reason: fmt.Errorf("unknown exercise type %q", exType),
		}
	}
	if exType == domain.ExerciseStrength && t.keepStrengthWeight {
		rule.Weight = true
	}

	newID := t.st.NewID()
	newPath := newParent.Child(domain.KindSet, newID)

	clone := &domain.Set{
		ID:         newID,
		OwnerID:    t.callerID,
		ProgramID:  newPath.ProgramID,
		WeekID:     newPath.WeekID,
		WorkoutID:  newPath.WorkoutID,
		ExerciseID: newPath.ExerciseID,
		SetNumber:  doc.SetNumber,
		Completed:  false,
		Notes:      doc.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if rule.Reps {
		clone.Reps = copyIntPtr(doc.Reps)
	}
	if rule.Weight {
		clone.Weight = copyFloatPtr(doc.Weight)
	}
	if rule.Duration {
		clone.Duration = copyIntPtr(doc.Duration)
	}
	if rule.Distance {
		clone.Distance = copyFloatPtr(doc.Distance)
	}
	if rule.RestTime {
		clone.RestTime = copyIntPtr(doc.RestTime)
	}
	return clone, newPath, nil
}

// duplicateSubtree walks the source tree depth-first, enqueuing the
// upsert for every clone and recording the id mapping. It stops at the
// first validation failure or caller cancellation; already-enqueued
// writes are left to commit.
func (t *transformer) duplicateSubtree(ctx context.Context, bw *batchWriter, src *treeNode, newParent store.Path, isRoot bool) (*Mapping, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	clone, newPath, err := t.cloneNode(src, newParent, isRoot)
	if err != nil {
		return nil, err
	}

	batch := bw.enqueue(ctx, store.WriteOp{Op: store.OpUpsert, Path: newPath, Doc: clone})
	m := &Mapping{
		Kind:  src.doc.NodeKind(),
		OldID: src.doc.NodeID(),
		NewID: clone.NodeID(),
		batch: batch,
	}

	if ex, ok := src.doc.(*domain.Exercise); ok {
		// One rule lookup per exercise, applied to all its sets.
		for _, child := range src.children {
			if err := ctx.Err(); err != nil {
				return m, err
			}
			setClone, setPath, err := t.cloneSet(child, newPath, ex.Type)
			if err != nil {
				return m, err
			}
			setBatch := bw.enqueue(ctx, store.WriteOp{Op: store.OpUpsert, Path: setPath, Doc: setClone})
			m.Children = append(m.Children, &Mapping{
				Kind:  domain.KindSet,
				OldID: child.doc.NodeID(),
				NewID: setClone.NodeID(),
				batch: setBatch,
			})
		}
		return m, nil
	}

	for _, child := range src.children {
		childMapping, err := t.duplicateSubtree(ctx, bw, child, newPath, false)
		if childMapping != nil {
			m.Children = append(m.Children, childMapping)
		}
		if err != nil {
			return m, err
		}
	}
	return m, nil
}

// copyName applies the root-only " (Copy)" suffix rule.
func copyName(name string, kind domain.Kind, suffix bool) string {
	if !suffix {
		return name
	}
	if name == "" {
		return kindTitle(kind) + " (Copy)"
	}
	return name + " (Copy)"
}

func kindTitle(kind domain.Kind) string {
	switch kind {
	case domain.KindProgram:
		return "Program"
	case domain.KindWeek:
		return "Week"
	case domain.KindWorkout:
		return "Workout"
	case domain.KindExercise:
		return "Exercise"
	case domain.KindSet:
		return "Set"
	}
	return "Item"
}

func copyIntPtr(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyFloatPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// markCommitted flips Committed on every mapping node whose batch is
// known to have committed.
func markCommitted(m *Mapping, results []BatchResult) {
	if m == nil {
		return
	}
	byIndex := make(map[int]bool, len(results))
	for _, r := range results {
		byIndex[r.Index] = r.Committed()
	}
	var mark func(node *Mapping)
	mark = func(node *Mapping) {
		node.Committed = byIndex[node.batch]
		for _, child := range node.Children {
			mark(child)
		}
	}
	mark(m)
}
