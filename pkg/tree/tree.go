package tree

import "slices"

// Node represents a single directory (or file, when files are included) in
// the modeled subtree.
//
// Nodes are owned by their Tree and referenced by Path. The zero value is
// not usable - nodes are created during Build.
type Node struct {
	Name     string   // Display label (base name of the entry)
	Path     string   // Absolute path, unique across the tree
	Parent   string   // Parent path, empty for the root
	Children []string // Ordered child paths (enumeration order)
	Depth    int      // Distance from the root (root = 0)

	// IsDir reports whether the node is a directory. False only when the
	// tree was built with files included.
	IsDir bool

	// Unreadable marks a directory whose children could not be listed.
	// Unreadable nodes are rendered as leaves rather than aborting the build.
	Unreadable bool
}

// IsRoot reports whether the node has no parent.
func (n *Node) IsRoot() bool { return n.Parent == "" }

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// Tree is an arena of nodes keyed by absolute path.
//
// The arena is immutable after Build: filesystem changes are handled by
// building a fresh Tree and swapping it in wholesale. Tree is not safe for
// concurrent mutation, but read access from multiple goroutines is fine.
type Tree struct {
	root  string
	nodes map[string]*Node
	order []string // pre-order enumeration, stable per build
}

// Root returns the root node.
func (t *Tree) Root() *Node { return t.nodes[t.root] }

// RootPath returns the root node's path.
func (t *Tree) RootPath() string { return t.root }

// Node returns the node with the given path and true, or nil and false if
// the path is not part of the tree.
func (t *Tree) Node(path string) (*Node, bool) {
	n, ok := t.nodes[path]
	return n, ok
}

// Contains reports whether a path is part of the tree.
func (t *Tree) Contains(path string) bool {
	_, ok := t.nodes[path]
	return ok
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int { return len(t.nodes) }

// Paths returns all node paths in pre-order enumeration order.
// The returned slice is a copy and safe to modify.
func (t *Tree) Paths() []string { return slices.Clone(t.order) }

// Nodes returns all nodes in pre-order enumeration order.
func (t *Tree) Nodes() []*Node {
	nodes := make([]*Node, len(t.order))
	for i, p := range t.order {
		nodes[i] = t.nodes[p]
	}
	return nodes
}

// Children returns the child nodes of the given path in enumeration order.
// Returns nil if the path has no children or is not part of the tree.
func (t *Tree) Children(path string) []*Node {
	n, ok := t.nodes[path]
	if !ok || len(n.Children) == 0 {
		return nil
	}
	kids := make([]*Node, len(n.Children))
	for i, c := range n.Children {
		kids[i] = t.nodes[c]
	}
	return kids
}

// Parent returns the parent node of the given path, or nil for the root or
// an unknown path.
func (t *Tree) Parent(path string) *Node {
	n, ok := t.nodes[path]
	if !ok || n.Parent == "" {
		return nil
	}
	return t.nodes[n.Parent]
}

// MaxDepth returns the deepest level present in the tree (root = 0).
func (t *Tree) MaxDepth() int {
	max := 0
	for _, n := range t.nodes {
		if n.Depth > max {
			max = n.Depth
		}
	}
	return max
}

// UnreadableCount returns the number of directories whose children
// could not be listed.
func (t *Tree) UnreadableCount() int {
	count := 0
	for _, n := range t.nodes {
		if n.Unreadable {
			count++
		}
	}
	return count
}

// Walk visits every node in pre-order enumeration order. Walking stops early
// if fn returns false.
func (t *Tree) Walk(fn func(*Node) bool) {
	for _, p := range t.order {
		if !fn(t.nodes[p]) {
			return
		}
	}
}

// CarryFocus reconciles a focus path from a previous build against this
// tree. If the path still exists it is kept, otherwise focus resets to the
// root. An empty input also resets to the root.
func (t *Tree) CarryFocus(path string) string {
	if path != "" && t.Contains(path) {
		return path
	}
	return t.root
}
