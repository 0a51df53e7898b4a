package loom

import (
	"fmt"
	"strconv"
	"strings"
)

// Direction is a navigation move relative to the active tip.
type Direction int

const (
	StepParent Direction = iota
	StepChild
	StepPrevSibling
	StepNextSibling
)

// ParseDirection maps user navigation input to a direction. Both vim-style
// (h/j/k/l, wasd) and arrow names are accepted.
func ParseDirection(input string) (Direction, error) {
	switch strings.ToLower(input) {
	case "k", "w", "up", "parent":
		return StepParent, nil
	case "j", "s", "down", "child":
		return StepChild, nil
	case "h", "a", "left", "prev", "previous-sibling":
		return StepPrevSibling, nil
	case "l", "d", "right", "next", "next-sibling":
		return StepNextSibling, nil
	}
	return 0, fmt.Errorf("direction %q: %w", input, ErrInvalidInput)
}

// Index is the checkout and navigation engine over a conversation forest.
// It owns the node store, the graph, and the tag table exclusively; callers
// never mutate checkout state directly.
type Index struct {
	store *Store
	graph *Graph
	tags  map[string]int
	name  string
	docID string
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	store := NewStore()
	return &Index{
		store: store,
		graph: NewGraph(store),
		tags:  make(map[string]int),
	}
}

// Graph returns the underlying branch graph.
func (ix *Index) Graph() *Graph {
	return ix.graph
}

// Store returns the underlying node store.
func (ix *Index) Store() *Store {
	return ix.store
}

// Name returns the conversation label.
func (ix *Index) Name() string {
	return ix.name
}

// SetName sets the conversation label.
func (ix *Index) SetName(name string) {
	ix.name = name
}

// Path returns the active path, root first.
func (ix *Index) Path() []*Node {
	return ix.graph.Path()
}

// Tip returns the last node of the active path, or nil if nothing is
// checked out.
func (ix *Index) Tip() *Node {
	path := ix.graph.Path()
	if len(path) == 0 {
		return nil
	}
	return path[len(path)-1]
}

// Prompt flattens the active path into a prompt string by concatenating
// each node's prefix and text in path order.
func (ix *Index) Prompt() string {
	var b strings.Builder
	for _, node := range ix.graph.Path() {
		b.WriteString(node.Prefix)
		b.WriteString(node.Text)
	}
	return b.String()
}

// ClearCheckout clears the checked-out flag on every node.
func (ix *Index) ClearCheckout() {
	for _, id := range ix.store.IDs() {
		if node, err := ix.store.Get(id); err == nil {
			node.CheckedOut = false
		}
	}
}

// Checkout makes the path from the target node's root down to the target
// the active path.
func (ix *Index) Checkout(id int) error {
	chain, err := ix.graph.AncestorsToRoot(id)
	if err != nil {
		return fmt.Errorf("checking out %d: %w", id, err)
	}
	ix.ClearCheckout()
	for _, node := range chain {
		node.CheckedOut = true
	}
	return nil
}

// CheckoutTag checks out the node a tag points at.
func (ix *Index) CheckoutTag(name string) error {
	node, err := ix.resolveTag(name)
	if err != nil {
		return err
	}
	return ix.Checkout(node.ID)
}

// CheckoutRef checks out a node by numeric id or tag name.
func (ix *Index) CheckoutRef(ref string) error {
	node, err := ix.Resolve(ref)
	if err != nil {
		return err
	}
	return ix.Checkout(node.ID)
}

// Resolve maps an identifier to a node. Digits resolve as a node id first,
// anything else as a tag name.
func (ix *Index) Resolve(ref string) (*Node, error) {
	if id, err := strconv.Atoi(ref); err == nil {
		return ix.store.Get(id)
	}
	return ix.resolveTag(ref)
}

// resolveTag looks up a tag. A tag pointing at a deleted node is dropped on
// resolution rather than eagerly on delete.
func (ix *Index) resolveTag(name string) (*Node, error) {
	id, ok := ix.tags[name]
	if !ok {
		return nil, fmt.Errorf("tag %q: %w", name, ErrNotFound)
	}
	node, err := ix.store.Get(id)
	if err != nil {
		delete(ix.tags, name)
		return nil, fmt.Errorf("tag %q points at deleted node %d: %w", name, id, ErrNotFound)
	}
	return node, nil
}

// Step moves the active tip one position. Moves that fall off the tree are
// no-ops; sibling moves wrap around.
func (ix *Index) Step(dir Direction) error {
	tip := ix.Tip()
	if tip == nil {
		return nil
	}

	switch dir {
	case StepParent:
		parent, err := ix.graph.Parent(tip.ID)
		if err != nil {
			return err
		}
		if parent == nil {
			return nil
		}
		return ix.Checkout(parent.ID)

	case StepChild:
		children, err := ix.graph.Children(tip.ID)
		if err != nil {
			return err
		}
		if len(children) == 0 {
			return nil
		}
		return ix.Checkout(children[0].ID)

	case StepPrevSibling, StepNextSibling:
		siblings, err := ix.graph.Siblings(tip.ID, true)
		if err != nil {
			return err
		}
		if len(siblings) < 2 {
			return nil
		}
		pos := 0
		for i, sib := range siblings {
			if sib.ID == tip.ID {
				pos = i
				break
			}
		}
		delta := 1
		if dir == StepPrevSibling {
			delta = len(siblings) - 1
		}
		next := siblings[(pos+delta)%len(siblings)]
		return ix.Checkout(next.ID)
	}
	return fmt.Errorf("step: unknown direction %d: %w", dir, ErrInvalidInput)
}

// Insert creates a node under the current tip, or as a new root when no
// path is active. Checkout is unchanged, so multiple candidate
// continuations can be inserted as siblings before one is chosen.
func (ix *Index) Insert(text, prefix string) (*Node, error) {
	tip := ix.Tip()
	node, err := ix.store.Create(text, prefix)
	if err != nil {
		return nil, err
	}
	if tip == nil {
		if err := ix.graph.AddRoot(node); err != nil {
			ix.store.Remove(node.ID)
			return nil, err
		}
		return node, nil
	}
	if err := ix.graph.InsertUnder(node, tip.ID); err != nil {
		ix.store.Remove(node.ID)
		return nil, err
	}
	return node, nil
}

// Extend inserts a node and immediately checks it out, moving the active
// path forward.
func (ix *Index) Extend(text, prefix string) (*Node, error) {
	node, err := ix.Insert(text, prefix)
	if err != nil {
		return nil, err
	}
	if err := ix.Checkout(node.ID); err != nil {
		return nil, err
	}
	return node, nil
}

// NewBranch clears all checkout state; the next Extend starts a fresh root.
func (ix *Index) NewBranch() {
	ix.ClearCheckout()
}

// Tag bookmarks the active tip under the given name, overwriting any
// previous target silently.
func (ix *Index) Tag(name string) error {
	tip := ix.Tip()
	if tip == nil {
		return fmt.Errorf("tagging: no active path: %w", ErrInvalidState)
	}
	ix.tags[name] = tip.ID
	return nil
}

// Tags returns a copy of the tag table.
func (ix *Index) Tags() map[string]int {
	tags := make(map[string]int, len(ix.tags))
	for name, id := range ix.tags {
		tags[name] = id
	}
	return tags
}

// CherryPick copies the text of each referenced node onto the active path,
// in order. Sources keep their ids and subtrees; the copies get fresh ids
// and no children. All references resolve before anything is inserted.
func (ix *Index) CherryPick(refs []string) ([]*Node, error) {
	sources := make([]*Node, 0, len(refs))
	for _, ref := range refs {
		node, err := ix.Resolve(ref)
		if err != nil {
			return nil, fmt.Errorf("cherry-picking %q: %w", ref, err)
		}
		sources = append(sources, node)
	}

	picked := make([]*Node, 0, len(sources))
	for _, src := range sources {
		node, err := ix.Extend(src.Text, src.Prefix)
		if err != nil {
			return nil, err
		}
		picked = append(picked, node)
	}
	return picked, nil
}

// Hoist detaches the subtree rooted at id and reattaches it as a new root,
// or under the node named by targetTag. Ids and internal structure are
// preserved. If the subtree carried part of the active path, the previous
// tip is checked out again so the single-path invariant holds.
func (ix *Index) Hoist(id int, targetTag string) error {
	if _, err := ix.store.Get(id); err != nil {
		return fmt.Errorf("hoisting %d: %w", id, err)
	}

	var target *Node
	if targetTag != "" {
		var err error
		target, err = ix.resolveTag(targetTag)
		if err != nil {
			return fmt.Errorf("hoisting %d: %w", id, err)
		}
		if target.ID == id || ix.inSubtree(id, target.ID) {
			return fmt.Errorf("hoisting %d under %d: target is inside the subtree: %w", id, target.ID, ErrConflict)
		}
	}

	tip := ix.Tip()
	if err := ix.graph.detach(id); err != nil {
		return err
	}

	node, _ := ix.store.Get(id)
	if target == nil {
		if err := ix.graph.AddRoot(node); err != nil {
			return err
		}
	} else {
		if err := ix.graph.InsertUnder(node, target.ID); err != nil {
			return err
		}
	}

	if tip != nil {
		return ix.Checkout(tip.ID)
	}
	return nil
}

// inSubtree reports whether candidate lies in the subtree rooted at rootID.
func (ix *Index) inSubtree(rootID, candidate int) bool {
	root, err := ix.store.Get(rootID)
	if err != nil {
		return false
	}
	for childID := range root.Children {
		if childID == candidate || ix.inSubtree(childID, candidate) {
			return true
		}
	}
	return false
}

// Delete removes the listed nodes, delegating structure to the graph. If
// the deletion takes out the active tip, the whole checkout is cleared and
// the caller decides what to check out next.
func (ix *Index) Delete(ids []int, cascade bool) error {
	tip := ix.Tip()
	removed, err := ix.graph.Delete(ids, cascade)
	if err != nil {
		return err
	}
	if tip == nil {
		return nil
	}
	for _, id := range removed {
		if id == tip.ID {
			ix.ClearCheckout()
			return nil
		}
	}
	return nil
}
