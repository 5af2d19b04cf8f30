package render

import (
	"math"
	"strings"

	"github.com/mkoelbl/treescope/pkg/diagram"
	"github.com/mkoelbl/treescope/pkg/layout"
)

// TermOptions controls how diagram coordinates map onto character
// cells. XScale and YScale are pixels per column and pixels per row.
type TermOptions struct {
	XScale float64
	YScale float64
	Focus  string
}

// DefaultTermOptions maps the default layout geometry to boxes three
// rows tall with one-column characters.
func DefaultTermOptions() TermOptions {
	return TermOptions{XScale: layout.DefaultCharWidth, YScale: layout.DefaultNodeHeight / 3}
}

func (o TermOptions) withDefaults() TermOptions {
	def := DefaultTermOptions()
	if o.XScale <= 0 {
		o.XScale = def.XScale
	}
	if o.YScale <= 0 {
		o.YScale = def.YScale
	}
	return o
}

// RenderTerm draws the diagram with box-drawing characters for plain
// terminal output. Connectors are drawn first so node boxes overwrite
// them where they meet. Nodes involved in residual overlaps (debug
// layouts only) are painted red.
func RenderTerm(d diagram.Diagram, opts TermOptions) string {
	opts = opts.withDefaults()

	cols := cell(d.Width, opts.XScale) + 1
	rows := cell(d.Height, opts.YScale) + 1
	canvas := make([][]rune, rows)
	for i := range canvas {
		canvas[i] = make([]rune, cols)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	for _, c := range d.Connectors {
		drawPolyline(canvas, c.Points, opts)
	}
	for _, n := range d.Nodes {
		drawBox(canvas, n, opts)
	}

	offenders := overlapPaths(d.Overlaps)
	red := markOffenders(d, offenders, rows, cols, opts)

	var sb strings.Builder
	for r, row := range canvas {
		line := strings.TrimRight(string(row), " ")
		if red == nil {
			sb.WriteString(line)
		} else {
			writeColored(&sb, line, red[r])
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func overlapPaths(pairs []layout.OverlapPair) map[string]bool {
	if len(pairs) == 0 {
		return nil
	}
	paths := make(map[string]bool, len(pairs)*2)
	for _, p := range pairs {
		paths[p.A] = true
		paths[p.B] = true
	}
	return paths
}

// markOffenders returns a per-cell grid flagging the cells covered by
// overlapping nodes, or nil when there is nothing to flag.
func markOffenders(d diagram.Diagram, offenders map[string]bool, rows, cols int, opts TermOptions) [][]bool {
	if len(offenders) == 0 {
		return nil
	}
	red := make([][]bool, rows)
	for i := range red {
		red[i] = make([]bool, cols)
	}
	for _, n := range d.Nodes {
		if !offenders[n.Path] {
			continue
		}
		left, top, right, bottom := boxBounds(n, opts)
		for row := top; row <= bottom; row++ {
			for col := left; col <= right; col++ {
				if row >= 0 && row < rows && col >= 0 && col < cols {
					red[row][col] = true
				}
			}
		}
	}
	return red
}

// writeColored emits line with ANSI red around the flagged cell runs.
func writeColored(sb *strings.Builder, line string, red []bool) {
	const ansiRed, ansiReset = "\x1b[31m", "\x1b[0m"
	inRed := false
	for i, r := range []rune(line) {
		flag := i < len(red) && red[i]
		if flag && !inRed {
			sb.WriteString(ansiRed)
			inRed = true
		} else if !flag && inRed {
			sb.WriteString(ansiReset)
			inRed = false
		}
		sb.WriteRune(r)
	}
	if inRed {
		sb.WriteString(ansiReset)
	}
}

func cell(v, scale float64) int {
	return int(math.Round(v / scale))
}

func set(canvas [][]rune, row, col int, r rune) {
	if row >= 0 && row < len(canvas) && col >= 0 && col < len(canvas[row]) {
		canvas[row][col] = r
	}
}

// boxBounds maps a node onto canvas cells, widening the box when the
// label would not fit.
func boxBounds(n diagram.Node, opts TermOptions) (left, top, right, bottom int) {
	left = cell(n.X, opts.XScale)
	top = cell(n.Y, opts.YScale)
	width := cell(n.Width, opts.XScale)
	height := cell(n.Height, opts.YScale)
	if width < len(n.Name)+2 {
		width = len(n.Name) + 2
	}
	if height < 2 {
		height = 2
	}
	return left, top, left + width - 1, top + height - 1
}

func drawBox(canvas [][]rune, n diagram.Node, opts TermOptions) {
	left, top, right, bottom := boxBounds(n, opts)
	width := right - left + 1

	h, v := '─', '│'
	tl, tr, bl, br := '┌', '┐', '└', '┘'
	if opts.Focus != "" && n.Path == opts.Focus {
		h, v = '═', '║'
		tl, tr, bl, br = '╔', '╗', '╚', '╝'
	}

	for col := left + 1; col < right; col++ {
		set(canvas, top, col, h)
		set(canvas, bottom, col, h)
	}
	for row := top + 1; row < bottom; row++ {
		set(canvas, row, left, v)
		set(canvas, row, right, v)
	}
	set(canvas, top, left, tl)
	set(canvas, top, right, tr)
	set(canvas, bottom, left, bl)
	set(canvas, bottom, right, br)

	// Clear the interior so connectors never show through, then
	// center the label on the middle row.
	for row := top + 1; row < bottom; row++ {
		for col := left + 1; col < right; col++ {
			set(canvas, row, col, ' ')
		}
	}
	labelRow := (top + bottom) / 2
	labelCol := left + (width-len(n.Name))/2
	for i, r := range n.Name {
		set(canvas, labelRow, labelCol+i, r)
	}
}

func drawPolyline(canvas [][]rune, pts []layout.Point, opts TermOptions) {
	if len(pts) < 2 {
		return
	}
	for i := 1; i < len(pts); i++ {
		drawSegment(canvas, pts[i-1], pts[i], opts)
		if i >= 2 {
			drawCorner(canvas, pts[i-2], pts[i-1], pts[i], opts)
		}
	}
}

func drawSegment(canvas [][]rune, a, b layout.Point, opts TermOptions) {
	ac, ar := cell(a.X, opts.XScale), cell(a.Y, opts.YScale)
	bc, br := cell(b.X, opts.XScale), cell(b.Y, opts.YScale)
	switch {
	case ar == br:
		for col := min(ac, bc); col <= max(ac, bc); col++ {
			set(canvas, ar, col, '─')
		}
	case ac == bc:
		for row := min(ar, br); row <= max(ar, br); row++ {
			set(canvas, row, ac, '│')
		}
	}
}

// drawCorner replaces the glyph where two segments meet with the
// matching box-drawing corner.
func drawCorner(canvas [][]rune, a, b, c layout.Point, opts TermOptions) {
	col, row := cell(b.X, opts.XScale), cell(b.Y, opts.YScale)

	fromLeft := a.X < b.X || c.X < b.X
	down := c.Y > b.Y || a.Y > b.Y
	var corner rune
	switch {
	case fromLeft && down:
		corner = '┐'
	case fromLeft && !down:
		corner = '┘'
	case !fromLeft && down:
		corner = '┌'
	default:
		corner = '└'
	}
	set(canvas, row, col, corner)
}
