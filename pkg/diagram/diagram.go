// Package diagram defines the canonical serialization format for laid
// out tree diagrams. It is the exchange format between the scan
// pipeline, the renderers, the HTTP API, and snapshot storage.
package diagram

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mkoelbl/treescope/pkg/layout"
	"github.com/mkoelbl/treescope/pkg/tree"
)

// FormatVersion identifies the current serialization format. Readers
// reject newer versions instead of guessing at their semantics.
const FormatVersion = 1

// =============================================================================
// Diagram - Canonical Serialization Format
// =============================================================================

// Diagram is the canonical serialization format for a laid out tree.
// Used for API responses, snapshot storage, caching, and cross-tool
// compatibility. Nodes appear in tree enumeration order (parents
// before children, siblings sorted case-insensitively), which makes
// the output deterministic and byte-comparable.
type Diagram struct {
	Version     int         `json:"version" bson:"version"`
	Root        string      `json:"root" bson:"root"`
	GeneratedAt time.Time   `json:"generated_at,omitempty" bson:"generated_at,omitempty"`
	Width       float64     `json:"width" bson:"width"`
	Height      float64     `json:"height" bson:"height"`
	Focused     string      `json:"focused,omitempty" bson:"focused,omitempty"`
	Nodes       []Node      `json:"nodes" bson:"nodes"`
	Connectors  []Connector `json:"connectors,omitempty" bson:"connectors,omitempty"`

	// Overlaps lists node pairs the layout could not separate. Only
	// populated when the layout ran in debug mode.
	Overlaps []layout.OverlapPair `json:"overlaps,omitempty" bson:"overlaps,omitempty"`
}

// Node is a positioned tree node in serialized form.
type Node struct {
	Path       string  `json:"path" bson:"path"`
	Name       string  `json:"name" bson:"name"`
	Parent     string  `json:"parent,omitempty" bson:"parent,omitempty"`
	Depth      int     `json:"depth" bson:"depth"`
	Dir        bool    `json:"dir,omitempty" bson:"dir,omitempty"`
	Unreadable bool    `json:"unreadable,omitempty" bson:"unreadable,omitempty"`
	X          float64 `json:"x" bson:"x"`
	Y          float64 `json:"y" bson:"y"`
	Width      float64 `json:"width" bson:"width"`
	Height     float64 `json:"height" bson:"height"`
}

// Rect returns the node's bounding rectangle.
func (n Node) Rect() layout.Rect {
	return layout.Rect{X: n.X, Y: n.Y, Width: n.Width, Height: n.Height}
}

// Connector is a routed parent-child polyline in serialized form.
type Connector struct {
	Parent string         `json:"parent" bson:"parent"`
	Child  string         `json:"child" bson:"child"`
	Points []layout.Point `json:"points" bson:"points"`
}

// =============================================================================
// Conversion
// =============================================================================

// FromLayout assembles a Diagram from a tree, its computed layout, and
// its routed connectors. The focused path is recorded verbatim; pass
// the empty string when no node has focus.
func FromLayout(t *tree.Tree, res layout.Result, conns []layout.Connector, focused string) Diagram {
	d := Diagram{
		Version:     FormatVersion,
		Root:        t.RootPath(),
		GeneratedAt: time.Now().UTC(),
		Width:       res.Width,
		Height:      res.Height,
		Focused:     focused,
		Nodes:       make([]Node, 0, t.Len()),
		Connectors:  make([]Connector, 0, len(conns)),
		Overlaps:    res.Overlaps,
	}

	for _, n := range t.Nodes() {
		r := res.Rects[n.Path]
		d.Nodes = append(d.Nodes, Node{
			Path:       n.Path,
			Name:       n.Name,
			Parent:     n.Parent,
			Depth:      n.Depth,
			Dir:        n.IsDir,
			Unreadable: n.Unreadable,
			X:          r.X,
			Y:          r.Y,
			Width:      r.Width,
			Height:     r.Height,
		})
	}

	for _, c := range conns {
		d.Connectors = append(d.Connectors, Connector{
			Parent: c.Parent,
			Child:  c.Child,
			Points: c.Points,
		})
	}

	return d
}

// Rects rebuilds the path → rectangle index, e.g. for hit testing a
// diagram loaded from disk or from a snapshot store.
func (d Diagram) Rects() map[string]layout.Rect {
	rects := make(map[string]layout.Rect, len(d.Nodes))
	for _, n := range d.Nodes {
		rects[n.Path] = n.Rect()
	}
	return rects
}

// =============================================================================
// Serialization API
// =============================================================================

// Marshal serializes a Diagram to pretty-printed JSON bytes.
func Marshal(d Diagram) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Unmarshal deserializes JSON bytes into a Diagram and validates the
// required fields.
func Unmarshal(data []byte) (Diagram, error) {
	var d Diagram
	if err := json.Unmarshal(data, &d); err != nil {
		return Diagram{}, fmt.Errorf("unmarshal diagram: %w", err)
	}
	if d.Version > FormatVersion {
		return Diagram{}, fmt.Errorf("unsupported diagram version %d", d.Version)
	}
	if d.Root == "" {
		return Diagram{}, fmt.Errorf("diagram must record a root path")
	}
	if len(d.Nodes) == 0 {
		return Diagram{}, fmt.Errorf("diagram must contain nodes")
	}
	return d, nil
}

// Write serializes a Diagram to the writer as JSON.
func Write(d Diagram, w io.Writer) error {
	data, err := Marshal(d)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Read parses a Diagram from the reader.
func Read(r io.Reader) (Diagram, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Diagram{}, fmt.Errorf("read diagram: %w", err)
	}
	return Unmarshal(data)
}

// WriteFile writes a Diagram to a JSON file.
func WriteFile(d Diagram, path string) error {
	data, err := Marshal(d)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadFile reads a Diagram from a JSON file.
func ReadFile(path string) (Diagram, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Diagram{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Unmarshal(data)
}
