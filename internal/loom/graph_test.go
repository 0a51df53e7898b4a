package loom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildForest creates the shape used across graph tests:
//
//	0 ── 1 ── 3
//	     └─ 4
//	0 ── 2
//	5 (second root)
func buildForest(t *testing.T) *Index {
	t.Helper()
	ix := NewIndex()

	_, err := ix.Extend("root", "")
	require.NoError(t, err)
	_, err = ix.Extend("left", "")
	require.NoError(t, err)

	require.NoError(t, ix.Checkout(0))
	_, err = ix.Extend("right", "")
	require.NoError(t, err)

	require.NoError(t, ix.Checkout(1))
	_, err = ix.Extend("left-a", "")
	require.NoError(t, err)
	require.NoError(t, ix.Checkout(1))
	_, err = ix.Extend("left-b", "")
	require.NoError(t, err)

	ix.NewBranch()
	_, err = ix.Extend("island", "")
	require.NoError(t, err)

	return ix
}

func TestGraphChildrenOrderedByID(t *testing.T) {
	ix := buildForest(t)

	children, err := ix.Graph().Children(0)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, 1, children[0].ID)
	assert.Equal(t, 2, children[1].ID)

	leafChildren, err := ix.Graph().Children(3)
	require.NoError(t, err)
	assert.Empty(t, leafChildren)

	_, err = ix.Graph().Children(99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGraphParent(t *testing.T) {
	ix := buildForest(t)

	parent, err := ix.Graph().Parent(3)
	require.NoError(t, err)
	require.NotNil(t, parent)
	assert.Equal(t, 1, parent.ID)

	root, err := ix.Graph().Parent(0)
	require.NoError(t, err)
	assert.Nil(t, root)
}

func TestGraphSiblings(t *testing.T) {
	ix := buildForest(t)

	sibs, err := ix.Graph().Siblings(3, false)
	require.NoError(t, err)
	require.Len(t, sibs, 1)
	assert.Equal(t, 4, sibs[0].ID)

	sibs, err = ix.Graph().Siblings(3, true)
	require.NoError(t, err)
	require.Len(t, sibs, 2)

	// Roots are siblings of one another.
	rootSibs, err := ix.Graph().Siblings(0, true)
	require.NoError(t, err)
	require.Len(t, rootSibs, 2)
	assert.Equal(t, 0, rootSibs[0].ID)
	assert.Equal(t, 5, rootSibs[1].ID)
}

func TestGraphLeaves(t *testing.T) {
	ix := buildForest(t)

	leaves, err := ix.Graph().Leaves(0)
	require.NoError(t, err)
	var ids []int
	for _, leaf := range leaves {
		ids = append(ids, leaf.ID)
	}
	assert.ElementsMatch(t, []int{2, 3, 4}, ids)
}

func TestGraphAncestorsToRoot(t *testing.T) {
	ix := buildForest(t)

	chain, err := ix.Graph().AncestorsToRoot(4)
	require.NoError(t, err)
	require.Len(t, chain, 3)
	assert.Equal(t, 4, chain[0].ID)
	assert.Equal(t, 1, chain[1].ID)
	assert.Equal(t, 0, chain[2].ID)
}

func TestGraphDeleteWithoutCascadeFailsOnChildren(t *testing.T) {
	ix := buildForest(t)

	_, err := ix.Graph().Delete([]int{1}, false)
	assert.ErrorIs(t, err, ErrConflict)

	// Failure leaves the graph untouched.
	node, err := ix.Store().Get(1)
	require.NoError(t, err)
	assert.Len(t, node.Children, 2)
}

func TestGraphDeleteCascadeRemovesSubtree(t *testing.T) {
	ix := buildForest(t)

	removed, err := ix.Graph().Delete([]int{1}, true)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 3, 4}, removed)

	_, err = ix.Store().Get(3)
	assert.ErrorIs(t, err, ErrNotFound)

	root, err := ix.Store().Get(0)
	require.NoError(t, err)
	_, stillChild := root.Children[1]
	assert.False(t, stillChild)
}

func TestGraphDeleteLeaf(t *testing.T) {
	ix := buildForest(t)

	removed, err := ix.Graph().Delete([]int{3}, false)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, removed)

	parent, err := ix.Store().Get(1)
	require.NoError(t, err)
	_, ok := parent.Children[3]
	assert.False(t, ok)
}

func TestGraphDeleteRoot(t *testing.T) {
	ix := buildForest(t)

	_, err := ix.Graph().Delete([]int{5}, false)
	require.NoError(t, err)
	assert.Len(t, ix.Graph().Roots(), 1)
}

func TestGraphDeleteMissingNode(t *testing.T) {
	ix := buildForest(t)

	_, err := ix.Graph().Delete([]int{42}, true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGraphDistance(t *testing.T) {
	ix := buildForest(t)
	g := ix.Graph()

	cases := []struct {
		a, b, want int
	}{
		{0, 0, 0},
		{0, 1, 1},
		{0, 3, 2},
		{3, 4, 2},
		{2, 3, 3},
	}
	for _, tc := range cases {
		d, err := g.Distance(tc.a, tc.b)
		require.NoError(t, err)
		assert.Equal(t, tc.want, d, "distance(%d,%d)", tc.a, tc.b)
	}

	// Different trees are unreachable from each other.
	d, err := g.Distance(0, 5)
	require.NoError(t, err)
	assert.Equal(t, -1, d)

	_, err = g.Distance(0, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGraphDistanceCacheInvalidation(t *testing.T) {
	ix := buildForest(t)
	g := ix.Graph()

	d, err := g.Distance(0, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, d)

	// Insert a node between measurements; cached distances must not leak.
	require.NoError(t, ix.Checkout(3))
	node, err := ix.Extend("deeper", "")
	require.NoError(t, err)

	d, err = g.Distance(0, node.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, d)
}
