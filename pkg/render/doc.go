// Package render turns serialized diagrams into visual outputs.
//
// # Overview
//
// Three renderers share the [diagram.Diagram] input format:
//
//   - [RenderSVG] emits a self-contained SVG document with boxed
//     nodes, orthogonal connectors, and optional focus and debug
//     highlighting.
//   - [ToDOT] emits Graphviz DOT source for interoperability with
//     external tooling; [RenderDOTSVG] and [RenderDOTPNG] rasterize
//     it in-process via go-graphviz.
//   - [RenderTerm] draws a box-drawing-character approximation of the
//     diagram for plain terminal output.
//
// # Usage
//
//	d := diagram.FromLayout(tr, res, conns, focused)
//	svg := render.RenderSVG(d, render.WithFocus(focused))
//	dot := render.ToDOT(d)
//	png, err := render.RenderDOTPNG(dot)
//
// The SVG renderer preserves the diagram's own coordinates, so output
// is deterministic for a given diagram. The DOT renderer delegates
// positioning to Graphviz and only carries the tree structure.
package render
