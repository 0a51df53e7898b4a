// Package loom provides the branching-conversation index: node storage,
// forest topology, checkout navigation, and the JSON persistence codec.
package loom

import (
	"fmt"
	"sort"
)

// Node is a single message in a conversation forest.
type Node struct {
	ID         int
	Text       string
	Prefix     string
	Children   map[int]struct{}
	CheckedOut bool
}

// String returns the node's display text, prefix included.
func (n *Node) String() string {
	return n.Prefix + n.Text
}

// ChildIDs returns the node's child ids in ascending order.
func (n *Node) ChildIDs() []int {
	ids := make([]int, 0, len(n.Children))
	for id := range n.Children {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Store owns node records and allocates stable identities.
// Ids are assigned monotonically and never reused, even after deletion.
type Store struct {
	nodes  map[int]*Node
	nextID int
}

// NewStore creates an empty node store.
func NewStore() *Store {
	return &Store{nodes: make(map[int]*Node)}
}

// Size returns the number of live nodes.
func (s *Store) Size() int {
	return len(s.nodes)
}

// Create allocates a new node with the given text and optional prefix.
func (s *Store) Create(text, prefix string) (*Node, error) {
	if text == "" {
		return nil, fmt.Errorf("creating node: text must not be empty: %w", ErrInvalidInput)
	}
	node := &Node{
		ID:       s.nextID,
		Text:     text,
		Prefix:   prefix,
		Children: make(map[int]struct{}),
	}
	s.nodes[node.ID] = node
	s.nextID++
	return node, nil
}

// Get retrieves a node by id.
func (s *Store) Get(id int) (*Node, error) {
	node, ok := s.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %d: %w", id, ErrNotFound)
	}
	return node, nil
}

// Remove deletes a node record. It does not cascade; removing a subtree is
// the graph's responsibility.
func (s *Store) Remove(id int) {
	delete(s.nodes, id)
}

// IDs returns all live node ids in ascending order.
func (s *Store) IDs() []int {
	ids := make([]int, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// adopt installs an existing node record, used when loading a document.
// The id counter advances past the adopted id so it is never reallocated.
func (s *Store) adopt(node *Node) error {
	if _, ok := s.nodes[node.ID]; ok {
		return fmt.Errorf("node %d already exists: %w", node.ID, ErrConflict)
	}
	if node.Children == nil {
		node.Children = make(map[int]struct{})
	}
	s.nodes[node.ID] = node
	if node.ID >= s.nextID {
		s.nextID = node.ID + 1
	}
	return nil
}
