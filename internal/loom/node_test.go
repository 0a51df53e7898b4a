package loom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreCreateAssignsSequentialIDs(t *testing.T) {
	s := NewStore()

	for want := 0; want < 3; want++ {
		node, err := s.Create("msg", "")
		require.NoError(t, err)
		assert.Equal(t, want, node.ID)
	}
	assert.Equal(t, 3, s.Size())
}

func TestStoreCreateRejectsEmptyText(t *testing.T) {
	s := NewStore()

	_, err := s.Create("", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestStoreIDsNeverReusedAfterRemove(t *testing.T) {
	s := NewStore()

	for i := 0; i < 3; i++ {
		_, err := s.Create("msg", "")
		require.NoError(t, err)
	}
	s.Remove(1)

	node, err := s.Create("msg", "")
	require.NoError(t, err)
	assert.Equal(t, 3, node.ID)

	_, err = s.Get(1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreGet(t *testing.T) {
	s := NewStore()

	created, err := s.Create("hello", "\nHuman: ")
	require.NoError(t, err)

	node, err := s.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", node.Text)
	assert.Equal(t, "\nHuman: hello", node.String())

	_, err = s.Get(17)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNodeChildIDsSorted(t *testing.T) {
	node := &Node{Children: map[int]struct{}{9: {}, 2: {}, 5: {}}}
	assert.Equal(t, []int{2, 5, 9}, node.ChildIDs())
}
