package layout

import (
	"sort"
	"unicode/utf8"

	"github.com/mkoelbl/treescope/pkg/tree"
)

// Default geometry in diagram units (pixels in the SVG sink).
const (
	DefaultNodeHeight   = 40.0
	DefaultCharWidth    = 8.0
	DefaultPaddingX     = 12.0
	DefaultMinNodeWidth = 60.0
	DefaultLevelGap     = 60.0
	DefaultSiblingGap   = 20.0
)

// Config holds the geometry knobs for a layout run.
// The zero value is usable: missing fields fall back to the defaults above.
type Config struct {
	NodeHeight   float64 `json:"node_height,omitempty"`    // Height of every node rectangle
	CharWidth    float64 `json:"char_width,omitempty"`     // Approximated glyph advance for label sizing
	PaddingX     float64 `json:"padding_x,omitempty"`      // Horizontal padding inside a node, each side
	MinNodeWidth float64 `json:"min_node_width,omitempty"` // Lower bound on node width
	LevelGap     float64 `json:"level_gap,omitempty"`      // Horizontal gap between a parent and its children
	SiblingGap   float64 `json:"sibling_gap,omitempty"`    // Vertical gap between adjacent sibling subtrees

	// Debug collects residual overlap pairs into Result.Overlaps instead
	// of silently trusting the resolution pass.
	Debug bool `json:"debug,omitempty"`
}

// DefaultConfig returns a Config populated with the default geometry.
func DefaultConfig() Config {
	return Config{
		NodeHeight:   DefaultNodeHeight,
		CharWidth:    DefaultCharWidth,
		PaddingX:     DefaultPaddingX,
		MinNodeWidth: DefaultMinNodeWidth,
		LevelGap:     DefaultLevelGap,
		SiblingGap:   DefaultSiblingGap,
	}
}

// withDefaults fills zero fields without mutating the receiver.
func (c Config) withDefaults() Config {
	if c.NodeHeight == 0 {
		c.NodeHeight = DefaultNodeHeight
	}
	if c.CharWidth == 0 {
		c.CharWidth = DefaultCharWidth
	}
	if c.PaddingX == 0 {
		c.PaddingX = DefaultPaddingX
	}
	if c.MinNodeWidth == 0 {
		c.MinNodeWidth = DefaultMinNodeWidth
	}
	if c.LevelGap == 0 {
		c.LevelGap = DefaultLevelGap
	}
	if c.SiblingGap == 0 {
		c.SiblingGap = DefaultSiblingGap
	}
	return c
}

// OverlapPair identifies two nodes whose rectangles intersect. Pairs are
// only reported in debug mode and should be empty after resolution.
type OverlapPair struct {
	A string `json:"a"`
	B string `json:"b"`
}

// Result is the output of a layout run: one rectangle per node plus the
// overall frame size. Overlaps is populated only when Config.Debug is set.
type Result struct {
	Rects  map[string]Rect
	Width  float64
	Height float64

	Overlaps []OverlapPair
}

// Compute assigns a rectangle to every node of the tree.
//
// The returned rectangles satisfy two contracts: no two rectangles overlap,
// and for every parent/child pair child.X == parent.Right() + LevelGap, so
// x grows strictly with depth.
func Compute(t *tree.Tree, cfg Config) Result {
	cfg = cfg.withDefaults()

	root := t.Root()
	if root == nil {
		return Result{Rects: map[string]Rect{}}
	}

	sizes := make(map[string]Rect, t.Len())
	extents := make(map[string]float64, t.Len())
	measure(t, root, cfg, sizes, extents)

	rects := make(map[string]Rect, t.Len())
	place(t, root, 0, 0, cfg, sizes, extents, rects)

	ResolveOverlaps(t, rects)

	res := Result{Rects: rects}
	for _, r := range rects {
		if r.Right() > res.Width {
			res.Width = r.Right()
		}
		if r.Bottom() > res.Height {
			res.Height = r.Bottom()
		}
	}
	if cfg.Debug {
		res.Overlaps = DetectOverlaps(t, rects)
	}
	return res
}

// measure is the post-order sizing pass. It computes each node's own
// rectangle dimensions and its subtree's required vertical extent.
func measure(t *tree.Tree, n *tree.Node, cfg Config, sizes map[string]Rect, extents map[string]float64) float64 {
	w := cfg.CharWidth*float64(utf8.RuneCountInString(n.Name)) + 2*cfg.PaddingX
	if w < cfg.MinNodeWidth {
		w = cfg.MinNodeWidth
	}
	sizes[n.Path] = Rect{Width: w, Height: cfg.NodeHeight}

	if n.IsLeaf() {
		extents[n.Path] = cfg.NodeHeight
		return cfg.NodeHeight
	}

	var ext float64
	for i, c := range t.Children(n.Path) {
		if i > 0 {
			ext += cfg.SiblingGap
		}
		ext += measure(t, c, cfg, sizes, extents)
	}
	if ext < cfg.NodeHeight {
		ext = cfg.NodeHeight
	}
	extents[n.Path] = ext
	return ext
}

// place is the pre-order positioning pass. Each node is given the vertical
// band [top, top+extent) at horizontal position x; children are stacked
// within that band and the node is centered on their span.
func place(t *tree.Tree, n *tree.Node, x, top float64, cfg Config, sizes map[string]Rect, extents map[string]float64, rects map[string]Rect) {
	size := sizes[n.Path]

	if n.IsLeaf() {
		rects[n.Path] = Rect{X: x, Y: top + (extents[n.Path]-size.Height)/2, Width: size.Width, Height: size.Height}
		return
	}

	childX := x + size.Width + cfg.LevelGap
	cursor := top
	kids := t.Children(n.Path)
	for _, c := range kids {
		place(t, c, childX, cursor, cfg, sizes, extents, rects)
		cursor += extents[c.Path] + cfg.SiblingGap
	}

	// Center the parent on the vertical span of its children.
	first := rects[kids[0].Path]
	last := rects[kids[len(kids)-1].Path]
	mid := (first.CenterY() + last.CenterY()) / 2
	rects[n.Path] = Rect{X: x, Y: mid - size.Height/2, Width: size.Width, Height: size.Height}
}

// ResolveOverlaps sweeps the laid-out rectangles depth by depth in y-order
// and pushes down any rectangle that intersects its predecessor at the same
// depth, by the minimal vertical delta that clears the overlap. It returns
// the number of rectangles moved.
//
// The sweep is deterministic and idempotent: running it on already-resolved
// positions moves nothing. With extent-based stacking it is a safety net;
// it exists so degenerate geometry (zero gaps, huge labels) still honors
// the no-overlap contract.
func ResolveOverlaps(t *tree.Tree, rects map[string]Rect) int {
	enum := make(map[string]int, t.Len())
	byDepth := make(map[int][]string)
	for i, n := range t.Nodes() {
		enum[n.Path] = i
		byDepth[n.Depth] = append(byDepth[n.Depth], n.Path)
	}

	moved := 0
	for depth := 0; depth <= t.MaxDepth(); depth++ {
		paths := byDepth[depth]
		sort.Slice(paths, func(i, j int) bool {
			ri, rj := rects[paths[i]], rects[paths[j]]
			if ri.Y != rj.Y {
				return ri.Y < rj.Y
			}
			return enum[paths[i]] < enum[paths[j]]
		})

		for i := 1; i < len(paths); i++ {
			prev, cur := rects[paths[i-1]], rects[paths[i]]
			if !prev.Intersects(cur) {
				continue
			}
			cur.Y = prev.Bottom()
			rects[paths[i]] = cur
			moved++
		}
	}
	return moved
}

// DetectOverlaps returns every pair of intersecting rectangles, in
// enumeration order. An empty result is the expected state after
// ResolveOverlaps; anything else is surfaced to the debug renderer rather
// than hidden.
func DetectOverlaps(t *tree.Tree, rects map[string]Rect) []OverlapPair {
	paths := t.Paths()
	var pairs []OverlapPair
	for i := 0; i < len(paths); i++ {
		for j := i + 1; j < len(paths); j++ {
			if rects[paths[i]].Intersects(rects[paths[j]]) {
				pairs = append(pairs, OverlapPair{A: paths[i], B: paths[j]})
			}
		}
	}
	return pairs
}
