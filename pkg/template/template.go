// Package template saves folder structures as reusable text templates
// and stamps them back onto the filesystem.
//
// Templates are plain text files under a .templates directory, one
// folder per line, nesting expressed by two-space indentation:
//
//	# Template: service
//	# Created from: api
//
//	api/
//	  cmd/
//	  internal/
//	    handlers/
//
// Comment lines start with '#'. The first structural line names the
// template root, which is recreated as a new folder under the apply
// target.
package template

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mkoelbl/treescope/pkg/errors"
	"github.com/mkoelbl/treescope/pkg/tree"
)

// Dir is the default template directory name, resolved relative to
// the working directory.
const Dir = ".templates"

const indentWidth = 2

// Item is one folder in a template structure.
type Item struct {
	Name     string
	Children []*Item
}

// Template is a parsed folder-structure template.
type Template struct {
	Name string
	Root *Item
}

// FromTree captures the subtree rooted at path as a template
// structure. Files are excluded; templates describe folders only.
func FromTree(t *tree.Tree, path string) (*Item, error) {
	n, ok := t.Node(path)
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "no such node: %s", path)
	}
	return itemFromNode(t, n), nil
}

func itemFromNode(t *tree.Tree, n *tree.Node) *Item {
	item := &Item{Name: n.Name}
	for _, c := range t.Children(n.Path) {
		if c.IsDir {
			item.Children = append(item.Children, itemFromNode(t, c))
		}
	}
	return item
}

// Save writes the template to <templatesDir>/<name>.txt and returns
// the file path. The templates directory is created on demand.
func Save(templatesDir, name string, root *Item) (string, error) {
	if err := errors.ValidateFolderName(name); err != nil {
		return "", err
	}
	if err := os.MkdirAll(templatesDir, 0755); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "create templates directory")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Template: %s\n", name)
	fmt.Fprintf(&sb, "# Created from: %s\n", root.Name)
	fmt.Fprintf(&sb, "# Date: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))
	writeItem(&sb, root, 0)

	path := filepath.Join(templatesDir, name+".txt")
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "write template %s", name)
	}
	return path, nil
}

func writeItem(sb *strings.Builder, item *Item, level int) {
	sb.WriteString(strings.Repeat(" ", level*indentWidth))
	sb.WriteString(item.Name)
	sb.WriteString("/\n")
	for _, c := range item.Children {
		writeItem(sb, c, level+1)
	}
}

// List returns the template names available in templatesDir, sorted.
// A missing directory is an empty list, not an error.
func List(templatesDir string) ([]string, error) {
	entries, err := os.ReadDir(templatesDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list templates")
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".txt") {
			names = append(names, strings.TrimSuffix(e.Name(), ".txt"))
		}
	}
	sort.Strings(names)
	return names, nil
}

// Load reads and parses the named template from templatesDir.
func Load(templatesDir, name string) (*Template, error) {
	data, err := os.ReadFile(filepath.Join(templatesDir, name+".txt"))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "no such template: %s", name)
	}
	tmpl, err := Parse(string(data))
	if err != nil {
		return nil, err
	}
	tmpl.Name = name
	return tmpl, nil
}

// Parse reads a template structure from its text form. Indentation
// deeper than one level per line is clamped to the deepest open
// level, so hand-edited files degrade gracefully instead of failing.
func Parse(content string) (*Template, error) {
	var (
		root  *Item
		stack []*Item
	)

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		name := strings.TrimSpace(strings.TrimSuffix(trimmed, "/"))
		if err := errors.ValidateFolderName(name); err != nil {
			return nil, err
		}
		level := (len(line) - len(strings.TrimLeft(line, " "))) / indentWidth

		item := &Item{Name: name}
		switch {
		case root == nil:
			root = item
			stack = []*Item{root}
		case level <= 0:
			return nil, errors.New(errors.ErrCodeInvalidName, "template has multiple roots")
		default:
			if level > len(stack) {
				level = len(stack)
			}
			parent := stack[level-1]
			parent.Children = append(parent.Children, item)
			stack = append(stack[:level], item)
		}
	}

	if root == nil {
		return nil, errors.New(errors.ErrCodeInvalidName, "template is empty")
	}
	return &Template{Root: root}, nil
}

// Apply recreates the template's folder structure under parentPath
// and returns the created folder paths in creation order. Folders
// that already exist are kept and descended into.
func Apply(tmpl *Template, parentPath string) ([]string, error) {
	if _, err := os.Stat(parentPath); err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "target does not exist: %s", parentPath)
	}

	var created []string
	var apply func(item *Item, parent string) error
	apply = func(item *Item, parent string) error {
		path := filepath.Join(parent, item.Name)
		if _, err := os.Lstat(path); os.IsNotExist(err) {
			if err := os.Mkdir(path, 0755); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "create folder %s", item.Name)
			}
			created = append(created, path)
		}
		for _, c := range item.Children {
			if err := apply(c, path); err != nil {
				return err
			}
		}
		return nil
	}

	if err := apply(tmpl.Root, parentPath); err != nil {
		return nil, err
	}
	return created, nil
}
