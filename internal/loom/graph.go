package loom

import (
	"fmt"
	"sort"
)

// Graph is a forest of nodes with an incrementally maintained parent index
// and a per-source distance cache invalidated on every structural mutation.
type Graph struct {
	store   *Store
	roots   []int
	parents map[int]int

	// distFrom caches BFS distances keyed by source id. Any structural
	// mutation drops the whole cache.
	distFrom map[int]map[int]int
}

// NewGraph creates an empty graph over the given store.
func NewGraph(store *Store) *Graph {
	return &Graph{
		store:    store,
		parents:  make(map[int]int),
		distFrom: make(map[int]map[int]int),
	}
}

// Store returns the underlying node store.
func (g *Graph) Store() *Store {
	return g.store
}

// mutated invalidates derived state after a structural change.
func (g *Graph) mutated() {
	if len(g.distFrom) > 0 {
		g.distFrom = make(map[int]map[int]int)
	}
}

// AddRoot registers a node as a new root, in creation order.
func (g *Graph) AddRoot(node *Node) error {
	for _, id := range g.roots {
		if id == node.ID {
			return fmt.Errorf("adding root %d: already a root: %w", node.ID, ErrConflict)
		}
	}
	g.roots = append(g.roots, node.ID)
	g.mutated()
	return nil
}

// InsertUnder attaches a node beneath the given parent.
func (g *Graph) InsertUnder(node *Node, parentID int) error {
	parent, err := g.store.Get(parentID)
	if err != nil {
		return fmt.Errorf("inserting under %d: %w", parentID, err)
	}
	if _, attached := g.parents[node.ID]; attached {
		return fmt.Errorf("inserting node %d: already attached: %w", node.ID, ErrConflict)
	}
	parent.Children[node.ID] = struct{}{}
	g.parents[node.ID] = parentID
	g.mutated()
	return nil
}

// Roots returns the root nodes in creation order.
func (g *Graph) Roots() []*Node {
	nodes := make([]*Node, 0, len(g.roots))
	for _, id := range g.roots {
		if node, err := g.store.Get(id); err == nil {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

// Children returns a node's direct children ordered by id.
func (g *Graph) Children(id int) ([]*Node, error) {
	node, err := g.store.Get(id)
	if err != nil {
		return nil, err
	}
	children := make([]*Node, 0, len(node.Children))
	for _, childID := range node.ChildIDs() {
		child, err := g.store.Get(childID)
		if err != nil {
			return nil, fmt.Errorf("child %d of %d: %w", childID, id, err)
		}
		children = append(children, child)
	}
	return children, nil
}

// Parent returns a node's parent, or nil for a root.
func (g *Graph) Parent(id int) (*Node, error) {
	if _, err := g.store.Get(id); err != nil {
		return nil, err
	}
	parentID, ok := g.parents[id]
	if !ok {
		return nil, nil
	}
	return g.store.Get(parentID)
}

// Siblings returns the nodes sharing a parent with the given node. Roots are
// siblings of one another. Results are ordered by id.
func (g *Graph) Siblings(id int, includeSelf bool) ([]*Node, error) {
	parent, err := g.Parent(id)
	if err != nil {
		return nil, err
	}

	var candidates []*Node
	if parent == nil {
		candidates = g.Roots()
	} else {
		candidates, err = g.Children(parent.ID)
		if err != nil {
			return nil, err
		}
	}

	siblings := make([]*Node, 0, len(candidates))
	for _, node := range candidates {
		if node.ID == id && !includeSelf {
			continue
		}
		siblings = append(siblings, node)
	}
	sort.Slice(siblings, func(i, j int) bool { return siblings[i].ID < siblings[j].ID })
	return siblings, nil
}

// Leaves returns every childless node in the subtree rooted at id.
func (g *Graph) Leaves(id int) ([]*Node, error) {
	node, err := g.store.Get(id)
	if err != nil {
		return nil, err
	}
	var leaves []*Node
	var walk func(*Node) error
	walk = func(n *Node) error {
		if len(n.Children) == 0 {
			leaves = append(leaves, n)
			return nil
		}
		children, err := g.Children(n.ID)
		if err != nil {
			return err
		}
		for _, child := range children {
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(node); err != nil {
		return nil, err
	}
	return leaves, nil
}

// AncestorsToRoot returns the chain from the given node up to its root,
// both inclusive, starting at the node itself.
func (g *Graph) AncestorsToRoot(id int) ([]*Node, error) {
	node, err := g.store.Get(id)
	if err != nil {
		return nil, err
	}
	chain := []*Node{node}
	for {
		parent, err := g.Parent(chain[len(chain)-1].ID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return chain, nil
		}
		chain = append(chain, parent)
	}
}

// Path returns the active path from its root down to the tip, root first.
// An empty slice means no node is checked out.
func (g *Graph) Path() []*Node {
	var path []*Node
	for _, root := range g.Roots() {
		if !root.CheckedOut {
			continue
		}
		node := root
		for {
			path = append(path, node)
			next := (*Node)(nil)
			for _, childID := range node.ChildIDs() {
				child, err := g.store.Get(childID)
				if err == nil && child.CheckedOut {
					next = child
					break
				}
			}
			if next == nil {
				return path
			}
			node = next
		}
	}
	return path
}

// Delete removes the listed nodes. With cascade, each node's whole subtree
// goes with it; without, a node that still has children is a conflict.
// The graph is unchanged if any validation fails. The removed ids are
// returned so callers can react to losing checked-out nodes.
func (g *Graph) Delete(ids []int, cascade bool) ([]int, error) {
	for _, id := range ids {
		node, err := g.store.Get(id)
		if err != nil {
			return nil, fmt.Errorf("deleting node %d: %w", id, err)
		}
		if !cascade && len(node.Children) > 0 {
			return nil, fmt.Errorf("deleting node %d: has children (use cascade): %w", id, ErrConflict)
		}
	}

	// Collect the full removal set before touching anything.
	doomed := make(map[int]struct{})
	var collect func(id int)
	collect = func(id int) {
		if _, done := doomed[id]; done {
			return
		}
		doomed[id] = struct{}{}
		if node, err := g.store.Get(id); err == nil {
			for childID := range node.Children {
				collect(childID)
			}
		}
	}
	for _, id := range ids {
		if cascade {
			collect(id)
		} else {
			doomed[id] = struct{}{}
		}
	}

	removed := make([]int, 0, len(doomed))
	for id := range doomed {
		removed = append(removed, id)
	}
	sort.Ints(removed)

	for _, id := range removed {
		if parentID, ok := g.parents[id]; ok {
			if _, alsoDoomed := doomed[parentID]; !alsoDoomed {
				if parent, err := g.store.Get(parentID); err == nil {
					delete(parent.Children, id)
				}
			}
			delete(g.parents, id)
		} else {
			g.removeRoot(id)
		}
		g.store.Remove(id)
	}
	g.mutated()
	return removed, nil
}

// removeRoot drops an id from the root list, preserving order.
func (g *Graph) removeRoot(id int) {
	for i, rootID := range g.roots {
		if rootID == id {
			g.roots = append(g.roots[:i], g.roots[i+1:]...)
			return
		}
	}
}

// detach removes a node from its parent's children, or from the root list.
// The node and its subtree stay in the store.
func (g *Graph) detach(id int) error {
	if _, err := g.store.Get(id); err != nil {
		return err
	}
	if parentID, ok := g.parents[id]; ok {
		parent, err := g.store.Get(parentID)
		if err != nil {
			return err
		}
		delete(parent.Children, id)
		delete(g.parents, id)
	} else {
		g.removeRoot(id)
	}
	g.mutated()
	return nil
}

// Distance returns the unweighted shortest-path length between two nodes,
// treating parent/child edges as undirected. Unreachable pairs yield -1.
func (g *Graph) Distance(a, b int) (int, error) {
	if _, err := g.store.Get(a); err != nil {
		return 0, err
	}
	if _, err := g.store.Get(b); err != nil {
		return 0, err
	}
	dist, ok := g.distFrom[a]
	if !ok {
		dist = g.bfs(a)
		g.distFrom[a] = dist
	}
	d, ok := dist[b]
	if !ok {
		return -1, nil
	}
	return d, nil
}

// bfs computes distances from a source over undirected parent/child edges.
func (g *Graph) bfs(source int) map[int]int {
	dist := map[int]int{source: 0}
	queue := []int{source}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		node, err := g.store.Get(id)
		if err != nil {
			continue
		}
		neighbors := node.ChildIDs()
		if parentID, ok := g.parents[id]; ok {
			neighbors = append(neighbors, parentID)
		}
		for _, next := range neighbors {
			if _, seen := dist[next]; seen {
				continue
			}
			dist[next] = dist[id] + 1
			queue = append(queue, next)
		}
	}
	return dist
}
