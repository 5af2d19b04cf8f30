package layout

import (
	"path/filepath"
	"testing"
)

func TestRoute_StraightWhenAligned(t *testing.T) {
	parent := Rect{X: 0, Y: 10, Width: 60, Height: 40}
	child := Rect{X: 120, Y: 10, Width: 60, Height: 40}

	pts := Route(parent, child)
	if len(pts) != 2 {
		t.Fatalf("aligned route has %d points, want 2", len(pts))
	}
	if pts[0] != (Point{X: parent.Right(), Y: parent.CenterY()}) {
		t.Errorf("route starts at %v, want parent right-edge midpoint", pts[0])
	}
	if pts[1] != (Point{X: child.X, Y: child.CenterY()}) {
		t.Errorf("route ends at %v, want child left-edge midpoint", pts[1])
	}
}

func TestRoute_ElbowThroughChannel(t *testing.T) {
	parent := Rect{X: 0, Y: 0, Width: 60, Height: 40}
	child := Rect{X: 120, Y: 100, Width: 60, Height: 40}

	pts := Route(parent, child)
	if len(pts) != 4 {
		t.Fatalf("offset route has %d points, want 4", len(pts))
	}

	channel := (parent.Right() + child.X) / 2
	if pts[1].X != channel || pts[2].X != channel {
		t.Errorf("vertical run at x = %v/%v, want mid-gap channel %v", pts[1].X, pts[2].X, channel)
	}
	if pts[0].Y != pts[1].Y || pts[2].Y != pts[3].Y {
		t.Error("horizontal runs are not horizontal")
	}
	if pts[3] != (Point{X: child.X, Y: child.CenterY()}) {
		t.Errorf("route ends at %v, want child left-edge midpoint", pts[3])
	}
}

// Every segment of every routed polyline must be axis-aligned.
func TestRouteAll_Orthogonal(t *testing.T) {
	m, root := randomTree(11, 4, 4)
	tr := buildTree(t, m, root)
	res := Compute(tr, Config{})

	for _, c := range RouteAll(tr, res.Rects) {
		for i := 1; i < len(c.Points); i++ {
			a, b := c.Points[i-1], c.Points[i]
			if a.X != b.X && a.Y != b.Y {
				t.Errorf("connector %s -> %s has diagonal segment %v -> %v", c.Parent, c.Child, a, b)
			}
		}
	}
}

func TestRouteAll_OneConnectorPerEdge(t *testing.T) {
	root := testRoot()
	a := filepath.Join(root, "a")
	m := mapLister{
		root: {"a", "b"},
		a:    {"a1", "a2"},
	}
	tr := buildTree(t, m, root)
	res := Compute(tr, Config{})

	conns := RouteAll(tr, res.Rects)
	if got, want := len(conns), tr.Len()-1; got != want {
		t.Fatalf("RouteAll() returned %d connectors, want %d", got, want)
	}

	seen := map[string]bool{}
	for _, c := range conns {
		key := c.Parent + "->" + c.Child
		if seen[key] {
			t.Errorf("duplicate connector %s", key)
		}
		seen[key] = true
		if len(c.Points) < 2 {
			t.Errorf("connector %s has %d points", key, len(c.Points))
		}
	}
}
