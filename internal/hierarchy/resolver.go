// Package hierarchy turns flat, parent-referenced node sets into ordered
// nested trees.
package hierarchy

import (
	"cmp"
	"slices"
)

// Node is a self-referential tree entry.
type Node interface {
	NodeID() int64
	// ParentNodeID is nil for roots.
	ParentNodeID() *int64
	SortOrder() int
	Active() bool
}

// Tree is a node with its ordered, active descendants.
type Tree[T Node] struct {
	Node     T
	Children []*Tree[T]
}

// Resolver indexes a node snapshot by id and by parent id.
type Resolver[T Node] struct {
	byID     map[int64]T
	children map[int64][]T
	roots    []T
	cycles   map[int64]struct{}
}

// NewResolver indexes nodes. The input slice is not retained.
func NewResolver[T Node](nodes []T) *Resolver[T] {
	r := &Resolver[T]{
		byID:     make(map[int64]T, len(nodes)),
		children: make(map[int64][]T),
		cycles:   make(map[int64]struct{}),
	}
	for _, n := range nodes {
		r.byID[n.NodeID()] = n
	}
	for _, n := range r.byID {
		if !n.Active() {
			continue
		}
		if p := n.ParentNodeID(); p != nil {
			r.children[*p] = append(r.children[*p], n)
		} else {
			r.roots = append(r.roots, n)
		}
	}
	sortNodes(r.roots)
	for id := range r.children {
		sortNodes(r.children[id])
	}
	return r
}

func sortNodes[T Node](nodes []T) {
	slices.SortFunc(nodes, func(a, b T) int {
		if c := cmp.Compare(a.SortOrder(), b.SortOrder()); c != 0 {
			return c
		}
		return cmp.Compare(a.NodeID(), b.NodeID())
	})
}

// Get returns the node with id, active or not.
func (r *Resolver[T]) Get(id int64) (T, bool) {
	n, ok := r.byID[id]
	return n, ok
}

// Roots returns active nodes without a parent, ordered by sort order.
func (r *Resolver[T]) Roots() []T {
	out := make([]T, len(r.roots))
	copy(out, r.roots)
	return out
}

// Children returns the ordered active children of id. It is never nil.
func (r *Resolver[T]) Children(id int64) []T {
	kids := r.children[id]
	out := make([]T, len(kids))
	copy(out, kids)
	return out
}

// Subtree builds the tree rooted at id. The root itself is included even
// when inactive; descendants are active only.
func (r *Resolver[T]) Subtree(id int64) (*Tree[T], bool) {
	n, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return r.build(n, map[int64]struct{}{}), true
}

// Forest builds one tree per root.
func (r *Resolver[T]) Forest() []*Tree[T] {
	out := make([]*Tree[T], 0, len(r.roots))
	visited := map[int64]struct{}{}
	for _, n := range r.roots {
		out = append(out, r.build(n, visited))
	}
	return out
}

// build expands n depth-first. A node already placed in this build is not
// expanded again and is recorded as a cycle point.
func (r *Resolver[T]) build(n T, visited map[int64]struct{}) *Tree[T] {
	visited[n.NodeID()] = struct{}{}
	t := &Tree[T]{Node: n, Children: []*Tree[T]{}}
	for _, c := range r.children[n.NodeID()] {
		if _, seen := visited[c.NodeID()]; seen {
			r.cycles[n.NodeID()] = struct{}{}
			continue
		}
		t.Children = append(t.Children, r.build(c, visited))
	}
	return t
}

// Cycles returns the ids at which a build truncated a repeated edge,
// ascending.
func (r *Resolver[T]) Cycles() []int64 {
	out := make([]int64, 0, len(r.cycles))
	for id := range r.cycles {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// WouldCycle reports whether giving node id the parent newParent creates a
// cycle. parentOf returns the current parent of a node and whether the node
// exists. Walking stops at a root, at an unknown node, or after visiting
// every reachable ancestor once.
func WouldCycle(id int64, newParent *int64, parentOf func(int64) (*int64, bool)) bool {
	if newParent == nil {
		return false
	}
	seen := map[int64]struct{}{}
	cur := *newParent
	for {
		if cur == id {
			return true
		}
		if _, ok := seen[cur]; ok {
			// pre-existing loop above id
			return false
		}
		seen[cur] = struct{}{}
		p, ok := parentOf(cur)
		if !ok || p == nil {
			return false
		}
		cur = *p
	}
}

// ParentLookup adapts a node slice to the parentOf argument of WouldCycle.
func ParentLookup[T Node](nodes []T) func(int64) (*int64, bool) {
	idx := make(map[int64]*int64, len(nodes))
	for _, n := range nodes {
		idx[n.NodeID()] = n.ParentNodeID()
	}
	return func(id int64) (*int64, bool) {
		p, ok := idx[id]
		return p, ok
	}
}
