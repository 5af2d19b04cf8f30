// Package nav implements spatial navigation over a laid-out tree
// diagram. Given the rectangle of a focused node and a direction, it
// picks the best next node by filtering candidates to the strict
// half-plane in that direction (compared center-to-center) and scoring
// the remainder by weighted distance. Lower scores win; ties keep the
// earliest candidate in tree enumeration order, which makes navigation
// fully deterministic for a given layout.
package nav

import (
	"math"

	"github.com/mkoelbl/treescope/pkg/layout"
	"github.com/mkoelbl/treescope/pkg/tree"
)

// Direction is one of the four cardinal movement directions.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

// String returns the lowercase name of the direction.
func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// Weights tunes the distance score used to rank candidates. Lateral
// applies to the off-axis component (how far a candidate drifts
// sideways from the movement direction) and Axial to the on-axis
// component (how far away it is in the movement direction). The
// defaults penalize sideways drift twice as much as forward distance,
// which keeps arrow keys moving along visual rows and columns.
type Weights struct {
	Lateral float64
	Axial   float64
}

// DefaultWeights returns the standard navigation weights.
func DefaultWeights() Weights {
	return Weights{Lateral: 1.0, Axial: 0.5}
}

func (w Weights) withDefaults() Weights {
	if w.Lateral == 0 && w.Axial == 0 {
		return DefaultWeights()
	}
	return w
}

// Navigator answers movement and hit-test queries against one layout.
// It holds no mutable state and is safe for concurrent use.
type Navigator struct {
	tree    *tree.Tree
	rects   map[string]layout.Rect
	weights Weights
}

// New builds a Navigator for the given tree and its computed node
// rectangles. Zero-valued weights fall back to DefaultWeights.
func New(t *tree.Tree, rects map[string]layout.Rect, w Weights) *Navigator {
	return &Navigator{tree: t, rects: rects, weights: w.withDefaults()}
}

// Next returns the path of the best node reachable from the node at
// fromPath in the given direction, and true when such a node exists.
// When no node lies strictly in the direction's half-plane, it returns
// the empty string and false: navigation never wraps around.
func (n *Navigator) Next(fromPath string, dir Direction) (string, bool) {
	from, ok := n.rects[fromPath]
	if !ok {
		return "", false
	}
	fx, fy := from.CenterX(), from.CenterY()

	best := ""
	bestScore := math.Inf(1)
	for _, path := range n.tree.Paths() {
		if path == fromPath {
			continue
		}
		r, ok := n.rects[path]
		if !ok {
			continue
		}
		cx, cy := r.CenterX(), r.CenterY()

		var axial, lateral float64
		switch dir {
		case Up:
			if cy >= fy {
				continue
			}
			axial, lateral = fy-cy, math.Abs(cx-fx)
		case Down:
			if cy <= fy {
				continue
			}
			axial, lateral = cy-fy, math.Abs(cx-fx)
		case Left:
			if cx >= fx {
				continue
			}
			axial, lateral = fx-cx, math.Abs(cy-fy)
		case Right:
			if cx <= fx {
				continue
			}
			axial, lateral = cx-fx, math.Abs(cy-fy)
		default:
			return "", false
		}

		score := n.weights.Lateral*lateral + n.weights.Axial*axial
		if score < bestScore {
			best, bestScore = path, score
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}

// HitTest returns the path of the node whose rectangle contains the
// point, and true when one does. Rectangles never overlap after
// layout, so at most one node can match; candidates are still checked
// in tree enumeration order for determinism.
func (n *Navigator) HitTest(x, y float64) (string, bool) {
	for _, path := range n.tree.Paths() {
		if r, ok := n.rects[path]; ok && r.Contains(x, y) {
			return path, true
		}
	}
	return "", false
}
