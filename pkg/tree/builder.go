package tree

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mkoelbl/treescope/pkg/errors"
)

// Entry is a single directory entry as reported by a Lister.
type Entry struct {
	Name  string // Base name of the entry
	Path  string // Absolute path
	IsDir bool
}

// Lister enumerates the immediate children of a directory. It is the
// filesystem collaborator boundary: everything above it is pure.
type Lister interface {
	// ListChildren returns the immediate children of path. The order is
	// not significant - Build sorts entries itself.
	ListChildren(path string) ([]Entry, error)
}

// OSLister reads directories from the local filesystem.
type OSLister struct{}

// ListChildren implements Lister using os.ReadDir.
func (OSLister) ListChildren(path string) ([]Entry, error) {
	dirents, err := os.ReadDir(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnreadableDir, err, "list %s", path)
	}
	entries := make([]Entry, 0, len(dirents))
	for _, de := range dirents {
		entries = append(entries, Entry{
			Name:  de.Name(),
			Path:  filepath.Join(path, de.Name()),
			IsDir: de.IsDir(),
		})
	}
	return entries, nil
}

// Options controls which filesystem entries become tree nodes.
type Options struct {
	// IncludeFiles adds regular files as leaf nodes. Off by default:
	// the diagram models the folder hierarchy.
	IncludeFiles bool

	// ShowHidden includes entries whose name starts with a dot.
	ShowHidden bool

	// MaxDepth stops recursion below the given depth. Zero means no limit.
	MaxDepth int
}

// Build constructs a Tree rooted at rootPath using the given lister.
//
// It fails with errors.ErrCodeUnreadableDir only if the root itself cannot
// be listed. Unreadable subdirectories become leaves with their Unreadable
// flag set, so one inaccessible subtree never blanks the whole diagram.
func Build(lister Lister, rootPath string, opts Options) (*Tree, error) {
	abs, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", rootPath)
	}

	entries, err := lister.ListChildren(abs)
	if err != nil {
		return nil, err
	}

	t := &Tree{
		root:  abs,
		nodes: make(map[string]*Node),
	}
	root := &Node{
		Name:  filepath.Base(abs),
		Path:  abs,
		IsDir: true,
	}
	t.nodes[abs] = root
	t.order = append(t.order, abs)

	buildChildren(t, lister, root, entries, opts)
	return t, nil
}

// buildChildren attaches the given entries as children of parent and recurses
// into subdirectories, depth-first so the enumeration stays pre-order.
func buildChildren(t *Tree, lister Lister, parent *Node, entries []Entry, opts Options) {
	sort.Slice(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})

	for _, e := range entries {
		if !opts.ShowHidden && strings.HasPrefix(e.Name, ".") {
			continue
		}
		if !e.IsDir && !opts.IncludeFiles {
			continue
		}
		if _, exists := t.nodes[e.Path]; exists {
			continue // duplicate path, keep the first occurrence
		}

		child := &Node{
			Name:   e.Name,
			Path:   e.Path,
			Parent: parent.Path,
			Depth:  parent.Depth + 1,
			IsDir:  e.IsDir,
		}
		t.nodes[child.Path] = child
		t.order = append(t.order, child.Path)
		parent.Children = append(parent.Children, child.Path)

		if !e.IsDir {
			continue
		}
		if opts.MaxDepth > 0 && child.Depth >= opts.MaxDepth {
			continue
		}

		sub, err := lister.ListChildren(e.Path)
		if err != nil {
			// Partial success: render the entry as an inaccessible leaf.
			child.Unreadable = true
			continue
		}
		buildChildren(t, lister, child, sub, opts)
	}
}
