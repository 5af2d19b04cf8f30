package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/mkoelbl/treescope/pkg/diagram"
)

// ToDOT converts a diagram to Graphviz DOT source. Positioning is
// left to Graphviz; only the tree structure and labels carry over.
// Left-to-right rank direction matches the native layout's
// orientation. Unreadable nodes are drawn dashed and grey.
func ToDOT(d diagram.Diagram) string {
	var buf bytes.Buffer
	buf.WriteString("digraph tree {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"monospace\"];\n")
	buf.WriteString("  edge [arrowhead=none];\n")
	buf.WriteString("\n")

	for _, n := range d.Nodes {
		attrs := fmt.Sprintf("label=%q", n.Name)
		if n.Unreadable {
			attrs += `, style="rounded,filled,dashed", fillcolor=lightgrey`
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.Path, attrs)
	}

	buf.WriteString("\n")
	for _, n := range d.Nodes {
		if n.Parent != "" {
			fmt.Fprintf(&buf, "  %q -> %q;\n", n.Parent, n.Path)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderDOTSVG renders DOT source to SVG using Graphviz.
func RenderDOTSVG(dot string) ([]byte, error) {
	return renderDOT(dot, graphviz.SVG)
}

// RenderDOTPNG renders DOT source to PNG using Graphviz.
func RenderDOTPNG(dot string) ([]byte, error) {
	return renderDOT(dot, graphviz.PNG)
}

func renderDOT(dot string, format graphviz.Format) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
