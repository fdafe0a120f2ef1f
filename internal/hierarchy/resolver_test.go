package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type node struct {
	id     int64
	parent *int64
	order  int
	active bool
}

func (n node) NodeID() int64        { return n.id }
func (n node) ParentNodeID() *int64 { return n.parent }
func (n node) SortOrder() int       { return n.order }
func (n node) Active() bool         { return n.active }

func ptr(v int64) *int64 { return &v }

func ids[T Node](nodes []T) []int64 {
	out := make([]int64, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.NodeID())
	}
	return out
}

func shape(t *Tree[node]) any {
	kids := make([]any, 0, len(t.Children))
	for _, c := range t.Children {
		kids = append(kids, shape(c))
	}
	return map[int64][]any{t.Node.id: kids}
}

func TestRoots_FilterAndOrder(t *testing.T) {
	r := NewResolver([]node{
		{id: 1, order: 3, active: true},
		{id: 2, order: 1, active: true},
		{id: 3, order: 2, active: false},
		{id: 4, order: 1, active: true},
		{id: 5, parent: ptr(1), order: 0, active: true},
	})
	assert.Equal(t, []int64{2, 4, 1}, ids(r.Roots()))
}

func TestChildren_OrderedAndNeverNil(t *testing.T) {
	r := NewResolver([]node{
		{id: 1, active: true},
		{id: 2, parent: ptr(1), order: 2, active: true},
		{id: 3, parent: ptr(1), order: 1, active: true},
		{id: 4, parent: ptr(1), order: 0, active: false},
	})
	assert.Equal(t, []int64{3, 2}, ids(r.Children(1)))

	leaf := r.Children(2)
	require.NotNil(t, leaf)
	assert.Empty(t, leaf)
	assert.NotNil(t, r.Children(999))
}

func TestSubtree_Nesting(t *testing.T) {
	r := NewResolver([]node{
		{id: 1, active: true},
		{id: 2, parent: ptr(1), active: true},
		{id: 3, parent: ptr(2), active: true},
	})
	tree, ok := r.Subtree(1)
	require.True(t, ok)
	assert.Equal(t,
		map[int64][]any{1: {map[int64][]any{2: {map[int64][]any{3: {}}}}}},
		shape(tree))
	assert.Empty(t, r.Cycles())

	_, ok = r.Subtree(42)
	assert.False(t, ok)
}

func TestSubtree_CycleTerminates(t *testing.T) {
	r := NewResolver([]node{
		{id: 1, parent: ptr(2), active: true},
		{id: 2, parent: ptr(1), active: true},
	})
	assert.Empty(t, r.Roots())

	tree, ok := r.Subtree(1)
	require.True(t, ok)
	assert.Equal(t, map[int64][]any{1: {map[int64][]any{2: {}}}}, shape(tree))
	assert.Equal(t, []int64{2}, r.Cycles())
}

func TestSubtree_SelfParent(t *testing.T) {
	r := NewResolver([]node{{id: 7, parent: ptr(7), active: true}})
	tree, ok := r.Subtree(7)
	require.True(t, ok)
	assert.Empty(t, tree.Children)
	assert.Equal(t, []int64{7}, r.Cycles())
}

func TestForest(t *testing.T) {
	r := NewResolver([]node{
		{id: 1, order: 2, active: true},
		{id: 2, order: 1, active: true},
		{id: 3, parent: ptr(1), active: true},
		{id: 4, parent: ptr(2), active: true},
		{id: 5, parent: ptr(4), active: false},
		{id: 6, parent: ptr(99), active: true},
	})
	forest := r.Forest()
	require.Len(t, forest, 2)
	assert.Equal(t, map[int64][]any{2: {map[int64][]any{4: {}}}}, shape(forest[0]))
	assert.Equal(t, map[int64][]any{1: {map[int64][]any{3: {}}}}, shape(forest[1]))
}

func TestWouldCycle(t *testing.T) {
	nodes := []node{
		{id: 1},
		{id: 2, parent: ptr(1)},
		{id: 3, parent: ptr(2)},
		{id: 8, parent: ptr(9)},
		{id: 9, parent: ptr(8)},
	}
	parentOf := ParentLookup(nodes)

	cases := []struct {
		name      string
		id        int64
		newParent *int64
		want      bool
	}{
		{"to root", 3, nil, false},
		{"self", 2, ptr(2), true},
		{"under own descendant", 1, ptr(3), true},
		{"under sibling branch", 3, ptr(1), false},
		{"unknown parent", 3, ptr(404), false},
		{"existing loop elsewhere", 3, ptr(8), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, WouldCycle(tc.id, tc.newParent, parentOf))
		})
	}
}
