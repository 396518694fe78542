package engine

import (
	"context"
	"errors"
	"sync"

	"alcyxob/program-engine/internal/domain"
	"alcyxob/program-engine/internal/store"
)

// treeNode is one source document with its ordered children.
type treeNode struct {
	doc      domain.Node
	path     store.Path
	children []*treeNode
}

// subtree is the raw result of a walk: the root document plus every
// descendant level as a flat, (parent, order)-sorted slice. levels is
// keyed by kind; kinds above the root are absent.
type subtree struct {
	root   domain.Node
	path   store.Path
	levels map[domain.Kind][]domain.Node
}

// size returns the number of descendants (the root excluded).
func (s *subtree) size() int {
	n := 0
	for _, nodes := range s.levels {
		n += len(nodes)
	}
	return n
}

// walker performs the ordered, depth-bounded read traversal. It issues
// one ListDescendants query per collection level below the root; the
// level queries are independent and run concurrently.
type walker struct {
	st store.Store
}

// read fetches the root, enforces existence and ownership, then fans out
// the per-level descendant queries. Both failures are fatal and occur
// before any write.
func (w walker) read(ctx context.Context, callerID string, root store.Path) (*subtree, error) {
	rootKind, ok := root.Kind()
	if !ok {
		return nil, errors.New("malformed subtree root path")
	}
	if root.OwnerID != callerID {
		return nil, ErrPermissionDenied
	}

	rootDoc, err := w.st.Get(ctx, root)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if rootDoc.NodeOwner() != callerID {
		return nil, ErrPermissionDenied
	}

	result := &subtree{
		root:   rootDoc,
		path:   root,
		levels: make(map[domain.Kind][]domain.Node),
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for kind := rootKind + 1; kind <= domain.KindSet; kind++ {
		wg.Add(1)
		go func(kind domain.Kind) {
			defer wg.Done()
			nodes, err := w.st.ListDescendants(ctx, root, kind)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			result.levels[kind] = nodes
		}(kind)
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return result, nil
}

// assemble turns the flat level slices into a parent→children tree.
// Sibling order is preserved because each level arrives sorted by
// (parent id, ordering field). Descendants whose parent is missing from
// the tree (inconsistent denormalization) are left out.
func (s *subtree) assemble() *treeNode {
	rootNode := &treeNode{doc: s.root, path: s.path}
	byID := map[string]*treeNode{s.root.NodeID(): rootNode}

	rootKind := s.root.NodeKind()
	for kind := rootKind + 1; kind <= domain.KindSet; kind++ {
		for _, doc := range s.levels[kind] {
			parent, ok := byID[doc.NodeParent()]
			if !ok {
				continue
			}
			node := &treeNode{doc: doc, path: parent.path.Child(kind, doc.NodeID())}
			parent.children = append(parent.children, node)
			byID[doc.NodeID()] = node
		}
	}
	return rootNode
}
