package archive

import (
	"time"

	"alcyxob/program-engine/internal/domain"
)

// Snapshot is the JSON document written to object storage before a
// subtree is cascade-deleted. It carries the root and every descendant
// level verbatim, grouped by kind, so a deleted subtree can be inspected
// or restored by hand.
type Snapshot struct {
	TakenAt  time.Time                `json:"takenAt"`
	OwnerID  string                   `json:"ownerId"`
	RootKind string                   `json:"rootKind"`
	RootID   string                   `json:"rootId"`
	Root     domain.Node              `json:"root"`
	Levels   map[string][]domain.Node `json:"levels,omitempty"`
}

// NewSnapshot assembles a snapshot from a walked subtree.
func NewSnapshot(takenAt time.Time, ownerID string, root domain.Node, levels map[domain.Kind][]domain.Node) Snapshot {
	snap := Snapshot{
		TakenAt:  takenAt,
		OwnerID:  ownerID,
		RootKind: root.NodeKind().String(),
		RootID:   root.NodeID(),
		Root:     root,
	}
	if len(levels) > 0 {
		snap.Levels = make(map[string][]domain.Node, len(levels))
		for kind, nodes := range levels {
			if len(nodes) > 0 {
				snap.Levels[kind.String()] = nodes
			}
		}
	}
	return snap
}
