package layout

import "github.com/mkoelbl/treescope/pkg/tree"

// Polyline is an orthogonal connector path: consecutive points differ in
// exactly one coordinate, so every segment is horizontal or vertical.
type Polyline []Point

// Connector is a routed parent/child edge.
type Connector struct {
	Parent string   `json:"parent" bson:"parent"`
	Child  string   `json:"child" bson:"child"`
	Points Polyline `json:"points" bson:"points"`
}

// Route computes the orthogonal connector between a parent and child
// rectangle. The path leaves the parent at the midpoint of its right edge,
// runs horizontally to the channel halfway across the level gap, vertically
// to the child's midline, then horizontally into the child's left edge -
// at most one H-V-H elbow, never a diagonal.
//
// Route is stateless and pure; it produces a valid path for any two
// non-degenerate rectangles.
func Route(parent, child Rect) Polyline {
	start := Point{X: parent.Right(), Y: parent.CenterY()}
	end := Point{X: child.X, Y: child.CenterY()}

	if start.Y == end.Y {
		return Polyline{start, end}
	}

	channel := (parent.Right() + child.X) / 2
	return Polyline{
		start,
		{X: channel, Y: start.Y},
		{X: channel, Y: end.Y},
		end,
	}
}

// RouteAll routes every parent/child edge of a laid-out tree, in
// enumeration order of the parents.
func RouteAll(t *tree.Tree, rects map[string]Rect) []Connector {
	var conns []Connector
	for _, n := range t.Nodes() {
		for _, c := range n.Children {
			conns = append(conns, Connector{
				Parent: n.Path,
				Child:  c,
				Points: Route(rects[n.Path], rects[c]),
			})
		}
	}
	return conns
}
