package tree

import (
	"encoding/json"
	"fmt"
)

// snapshot is the JSON form of a Tree, nodes in enumeration order.
type snapshot struct {
	Root  string         `json:"root"`
	Nodes []snapshotNode `json:"nodes"`
}

type snapshotNode struct {
	Name       string `json:"name"`
	Path       string `json:"path"`
	Parent     string `json:"parent,omitempty"`
	Depth      int    `json:"depth"`
	IsDir      bool   `json:"is_dir,omitempty"`
	Unreadable bool   `json:"unreadable,omitempty"`
}

// Marshal serializes the tree to canonical JSON. The encoding is
// deterministic, so it doubles as the tree's content fingerprint
// input for cache keys.
func Marshal(t *Tree) ([]byte, error) {
	s := snapshot{Root: t.root, Nodes: make([]snapshotNode, 0, len(t.order))}
	for _, p := range t.order {
		n := t.nodes[p]
		s.Nodes = append(s.Nodes, snapshotNode{
			Name:       n.Name,
			Path:       n.Path,
			Parent:     n.Parent,
			Depth:      n.Depth,
			IsDir:      n.IsDir,
			Unreadable: n.Unreadable,
		})
	}
	return json.Marshal(s)
}

// Unmarshal rebuilds a Tree from its JSON form. Child lists are
// reconstructed from parent references in node order.
func Unmarshal(data []byte) (*Tree, error) {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal tree: %w", err)
	}
	if s.Root == "" || len(s.Nodes) == 0 {
		return nil, fmt.Errorf("tree snapshot is empty")
	}

	t := &Tree{
		root:  s.Root,
		nodes: make(map[string]*Node, len(s.Nodes)),
		order: make([]string, 0, len(s.Nodes)),
	}
	for _, sn := range s.Nodes {
		if _, dup := t.nodes[sn.Path]; dup {
			return nil, fmt.Errorf("duplicate path in tree snapshot: %s", sn.Path)
		}
		t.nodes[sn.Path] = &Node{
			Name:       sn.Name,
			Path:       sn.Path,
			Parent:     sn.Parent,
			Depth:      sn.Depth,
			IsDir:      sn.IsDir,
			Unreadable: sn.Unreadable,
		}
		t.order = append(t.order, sn.Path)
	}
	if _, ok := t.nodes[s.Root]; !ok {
		return nil, fmt.Errorf("tree snapshot root %s has no node", s.Root)
	}

	for _, p := range t.order {
		n := t.nodes[p]
		if n.Parent == "" {
			continue
		}
		parent, ok := t.nodes[n.Parent]
		if !ok {
			return nil, fmt.Errorf("node %s references missing parent %s", n.Path, n.Parent)
		}
		parent.Children = append(parent.Children, n.Path)
	}
	return t, nil
}
