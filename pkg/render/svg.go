package render

import (
	"bytes"
	"fmt"
	"html"

	"github.com/mkoelbl/treescope/pkg/diagram"
	"github.com/mkoelbl/treescope/pkg/layout"
)

const (
	fillNode       = "#ffffff"
	fillUnreadable = "#f2dede"
	strokeNode     = "#333333"
	strokeFocus    = "#1a73e8"
	strokeConn     = "#888888"
	fillOverlap    = "#ff0000"
	fontFamily     = "monospace"
	fontSize       = 13.0
	cornerRadius   = 4.0
	frameMargin    = 10.0
)

// SVGOption customizes SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	focus    string
	overlaps []layout.OverlapPair
}

// WithFocus draws the node at the given path with a highlighted
// border. An empty or unknown path highlights nothing.
func WithFocus(path string) SVGOption {
	return func(r *svgRenderer) { r.focus = path }
}

// WithOverlapDebug shades the given overlapping pairs in translucent
// red so layout defects are visible in the output.
func WithOverlapDebug(pairs []layout.OverlapPair) SVGOption {
	return func(r *svgRenderer) { r.overlaps = pairs }
}

// RenderSVG renders a diagram to a self-contained SVG document. Node
// order follows the diagram, so output bytes are deterministic for a
// given input.
func RenderSVG(d diagram.Diagram, opts ...SVGOption) []byte {
	r := &svgRenderer{focus: d.Focused, overlaps: d.Overlaps}
	for _, opt := range opts {
		opt(r)
	}

	w := d.Width + 2*frameMargin
	h := d.Height + 2*frameMargin

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n", w, h, w, h)
	fmt.Fprintf(&buf, `  <g transform="translate(%.1f,%.1f)" font-family="%s" font-size="%.0f">`+"\n", frameMargin, frameMargin, fontFamily, fontSize)

	// Connectors go under the boxes.
	for _, c := range d.Connectors {
		renderPolyline(&buf, c.Points)
	}
	for _, n := range d.Nodes {
		r.renderNode(&buf, n)
	}
	r.renderOverlaps(&buf, d)

	buf.WriteString("  </g>\n</svg>\n")
	return buf.Bytes()
}

func renderPolyline(buf *bytes.Buffer, pts []layout.Point) {
	if len(pts) < 2 {
		return
	}
	var points bytes.Buffer
	for i, p := range pts {
		if i > 0 {
			points.WriteByte(' ')
		}
		fmt.Fprintf(&points, "%.1f,%.1f", p.X, p.Y)
	}
	fmt.Fprintf(buf, `    <polyline points="%s" fill="none" stroke="%s" stroke-width="1"/>`+"\n", points.String(), strokeConn)
}

func (r *svgRenderer) renderNode(buf *bytes.Buffer, n diagram.Node) {
	fill := fillNode
	if n.Unreadable {
		fill = fillUnreadable
	}
	stroke, width := strokeNode, 1.0
	if n.Path == r.focus && r.focus != "" {
		stroke, width = strokeFocus, 2.5
	}

	fmt.Fprintf(buf, `    <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%.0f" fill="%s" stroke="%s" stroke-width="%.1f"/>`+"\n",
		n.X, n.Y, n.Width, n.Height, cornerRadius, fill, stroke, width)

	rect := n.Rect()
	fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="central">%s</text>`+"\n",
		rect.CenterX(), rect.CenterY(), html.EscapeString(n.Name))
}

func (r *svgRenderer) renderOverlaps(buf *bytes.Buffer, d diagram.Diagram) {
	if len(r.overlaps) == 0 {
		return
	}
	rects := d.Rects()
	for _, pair := range r.overlaps {
		for _, path := range []string{pair.A, pair.B} {
			rect, ok := rects[path]
			if !ok {
				continue
			}
			fmt.Fprintf(buf, `    <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" fill-opacity="0.3"/>`+"\n",
				rect.X, rect.Y, rect.Width, rect.Height, fillOverlap)
		}
	}
}
