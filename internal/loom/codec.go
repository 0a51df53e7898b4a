package loom

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/google/uuid"

	"github.com/FergusFettes/command-line-loom/internal/util"
)

// document is the on-disk JSON shape of a conversation.
type document struct {
	ID          string         `json:"id,omitempty"`
	Name        string         `json:"name,omitempty"`
	IndexStruct indexStruct    `json:"index_struct"`
	Tags        map[string]int `json:"tags"`
	Digest      string         `json:"digest,omitempty"`
}

type indexStruct struct {
	Nodes map[string]nodeRecord `json:"nodes"`
	Roots []int                 `json:"roots"`
}

type nodeRecord struct {
	Text       string `json:"text"`
	Children   []int  `json:"children"`
	Prefix     string `json:"prefix,omitempty"`
	CheckedOut bool   `json:"checked_out,omitempty"`
}

// DocID returns the conversation's document id, assigning one on first use.
func (ix *Index) DocID() string {
	if ix.docID == "" {
		ix.docID = uuid.NewString()
	}
	return ix.docID
}

// Marshal serializes the whole index, tags included, to its JSON document.
// The index_struct digest lets a later load detect a damaged file.
func Marshal(ix *Index) ([]byte, error) {
	structRecord := indexStruct{
		Nodes: make(map[string]nodeRecord),
		Roots: append([]int(nil), ix.graph.roots...),
	}
	if structRecord.Roots == nil {
		structRecord.Roots = []int{}
	}
	for _, id := range ix.store.IDs() {
		node, err := ix.store.Get(id)
		if err != nil {
			return nil, err
		}
		structRecord.Nodes[strconv.Itoa(id)] = nodeRecord{
			Text:       node.Text,
			Children:   node.ChildIDs(),
			Prefix:     node.Prefix,
			CheckedOut: node.CheckedOut,
		}
	}

	canonical, err := util.CanonicalJSON(structRecord)
	if err != nil {
		return nil, fmt.Errorf("hashing index struct: %w", err)
	}

	doc := document{
		ID:          ix.DocID(),
		Name:        ix.name,
		IndexStruct: structRecord,
		Tags:        ix.Tags(),
		Digest:      util.Blake3HashHex(canonical),
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Unmarshal reconstructs an index from its JSON document, validating the
// structure. A damaged document fails with ErrCorrupt rather than being
// silently repaired.
func Unmarshal(data []byte) (*Index, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing document: %v: %w", err, ErrCorrupt)
	}

	if doc.Digest != "" {
		canonical, err := util.CanonicalJSON(doc.IndexStruct)
		if err != nil {
			return nil, fmt.Errorf("hashing index struct: %w", err)
		}
		if util.Blake3HashHex(canonical) != doc.Digest {
			return nil, fmt.Errorf("digest mismatch: %w", ErrCorrupt)
		}
	}

	ix := NewIndex()
	ix.docID = doc.ID
	ix.name = doc.Name
	if doc.Tags != nil {
		ix.tags = doc.Tags
	}

	// First pass: materialize every node record.
	ids := make([]int, 0, len(doc.IndexStruct.Nodes))
	records := make(map[int]nodeRecord, len(doc.IndexStruct.Nodes))
	for key, record := range doc.IndexStruct.Nodes {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("node key %q: %w", key, ErrCorrupt)
		}
		ids = append(ids, id)
		records[id] = record
	}
	sort.Ints(ids)
	for _, id := range ids {
		record := records[id]
		node := &Node{
			ID:         id,
			Text:       record.Text,
			Prefix:     record.Prefix,
			CheckedOut: record.CheckedOut,
			Children:   make(map[int]struct{}, len(record.Children)),
		}
		if err := ix.store.adopt(node); err != nil {
			return nil, fmt.Errorf("loading node %d: %v: %w", id, err, ErrCorrupt)
		}
	}

	// Second pass: wire children and the parent index.
	for _, id := range ids {
		node, _ := ix.store.Get(id)
		for _, childID := range records[id].Children {
			if _, ok := records[childID]; !ok {
				return nil, fmt.Errorf("node %d references missing child %d: %w", id, childID, ErrCorrupt)
			}
			if existing, ok := ix.graph.parents[childID]; ok {
				return nil, fmt.Errorf("node %d has two parents (%d, %d): %w", childID, existing, id, ErrCorrupt)
			}
			node.Children[childID] = struct{}{}
			ix.graph.parents[childID] = id
		}
	}

	for _, rootID := range doc.IndexStruct.Roots {
		if _, ok := records[rootID]; !ok {
			return nil, fmt.Errorf("root %d missing from nodes: %w", rootID, ErrCorrupt)
		}
		if _, hasParent := ix.graph.parents[rootID]; hasParent {
			return nil, fmt.Errorf("root %d also has a parent: %w", rootID, ErrCorrupt)
		}
		ix.graph.roots = append(ix.graph.roots, rootID)
	}

	if err := validate(ix, ids); err != nil {
		return nil, err
	}
	return ix, nil
}

// validate checks reachability and the single-active-path invariant.
func validate(ix *Index, ids []int) error {
	// Every node must be reachable from a root; anything else is either an
	// unlisted root or part of a cycle.
	reached := make(map[int]struct{})
	var walk func(id int)
	walk = func(id int) {
		if _, seen := reached[id]; seen {
			return
		}
		reached[id] = struct{}{}
		if node, err := ix.store.Get(id); err == nil {
			for childID := range node.Children {
				walk(childID)
			}
		}
	}
	for _, rootID := range ix.graph.roots {
		walk(rootID)
	}
	for _, id := range ids {
		if _, ok := reached[id]; !ok {
			return fmt.Errorf("node %d unreachable from any root: %w", id, ErrCorrupt)
		}
	}

	// The checked-out set must be a single simple path from a root.
	checked := 0
	for _, id := range ids {
		node, _ := ix.store.Get(id)
		if node.CheckedOut {
			checked++
		}
	}
	if checked == 0 {
		return nil
	}

	checkedRoots := 0
	for _, root := range ix.graph.Roots() {
		if root.CheckedOut {
			checkedRoots++
		}
	}
	if checkedRoots != 1 {
		return fmt.Errorf("%d checked-out roots: %w", checkedRoots, ErrCorrupt)
	}

	onPath := 0
	for _, root := range ix.graph.Roots() {
		if !root.CheckedOut {
			continue
		}
		node := root
		for node != nil {
			onPath++
			var next *Node
			for childID := range node.Children {
				child, err := ix.store.Get(childID)
				if err != nil || !child.CheckedOut {
					continue
				}
				if next != nil {
					return fmt.Errorf("node %d has two checked-out children: %w", node.ID, ErrCorrupt)
				}
				next = child
			}
			node = next
		}
	}
	if onPath != checked {
		return fmt.Errorf("checked-out nodes do not form a single path: %w", ErrCorrupt)
	}
	return nil
}
