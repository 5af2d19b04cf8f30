package layout

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mkoelbl/treescope/pkg/tree"
)

// mapLister builds trees from a parent path -> child names table.
type mapLister map[string][]string

func (m mapLister) ListChildren(path string) ([]tree.Entry, error) {
	var entries []tree.Entry
	for _, name := range m[path] {
		entries = append(entries, tree.Entry{
			Name:  name,
			Path:  filepath.Join(path, name),
			IsDir: true,
		})
	}
	return entries, nil
}

func buildTree(t *testing.T, m mapLister, root string) *tree.Tree {
	t.Helper()
	tr, err := tree.Build(m, root, tree.Options{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return tr
}

func testRoot() string { return string(filepath.Separator) + "root" }

// randomTree generates a deterministic pseudo-random directory table.
func randomTree(seed int64, maxChildren, depth int) (mapLister, string) {
	rng := rand.New(rand.NewSource(seed))
	root := testRoot()
	m := mapLister{}

	var fill func(path string, level int)
	fill = func(path string, level int) {
		if level >= depth {
			return
		}
		n := rng.Intn(maxChildren + 1)
		for i := 0; i < n; i++ {
			name := fmt.Sprintf("%s%d", strings.Repeat("dir-", rng.Intn(3)+1), i)
			m[path] = append(m[path], name)
			fill(filepath.Join(path, name), level+1)
		}
	}
	fill(root, 0)
	return m, root
}

func TestCompute_NoOverlap(t *testing.T) {
	for seed := int64(1); seed <= 8; seed++ {
		m, root := randomTree(seed, 4, 5)
		tr := buildTree(t, m, root)
		res := Compute(tr, Config{Debug: true})

		if len(res.Overlaps) != 0 {
			t.Errorf("seed %d: %d overlapping pairs after layout, want 0: %v", seed, len(res.Overlaps), res.Overlaps[0])
		}
		if len(res.Rects) != tr.Len() {
			t.Errorf("seed %d: %d rects for %d nodes", seed, len(res.Rects), tr.Len())
		}
	}
}

func TestCompute_DepthMonotonicX(t *testing.T) {
	cfg := DefaultConfig()
	m, root := randomTree(3, 4, 5)
	tr := buildTree(t, m, root)
	res := Compute(tr, cfg)

	tr.Walk(func(n *tree.Node) bool {
		pr := res.Rects[n.Path]
		for _, c := range n.Children {
			cr := res.Rects[c]
			if cr.X <= pr.X {
				t.Errorf("child %s x = %v, not greater than parent x = %v", c, cr.X, pr.X)
			}
			if got, want := cr.X-pr.Right(), cfg.LevelGap; got != want {
				t.Errorf("level gap for %s = %v, want %v", c, got, want)
			}
		}
		return true
	})
}

func TestResolveOverlaps_Idempotent(t *testing.T) {
	m, root := randomTree(7, 4, 5)
	tr := buildTree(t, m, root)
	res := Compute(tr, Config{})

	before := make(map[string]Rect, len(res.Rects))
	for k, v := range res.Rects {
		before[k] = v
	}

	if moved := ResolveOverlaps(tr, res.Rects); moved != 0 {
		t.Errorf("second resolution pass moved %d rects, want 0", moved)
	}
	for k, v := range res.Rects {
		if before[k] != v {
			t.Errorf("rect %s changed on idempotent pass: %v -> %v", k, before[k], v)
		}
	}
}

func TestResolveOverlaps_PushesDownMinimally(t *testing.T) {
	root := testRoot()
	m := mapLister{root: {"a", "b"}}
	tr := buildTree(t, m, root)

	a := filepath.Join(root, "a")
	b := filepath.Join(root, "b")
	rects := map[string]Rect{
		root: {X: 0, Y: 0, Width: 60, Height: 40},
		a:    {X: 120, Y: 0, Width: 60, Height: 40},
		b:    {X: 120, Y: 20, Width: 60, Height: 40}, // collides with a
	}

	moved := ResolveOverlaps(tr, rects)
	if moved != 1 {
		t.Fatalf("moved = %d, want 1", moved)
	}
	if got := rects[b].Y; got != rects[a].Bottom() {
		t.Errorf("pushed rect Y = %v, want %v (minimal clearing delta)", got, rects[a].Bottom())
	}
	if pairs := DetectOverlaps(tr, rects); len(pairs) != 0 {
		t.Errorf("overlaps remain after resolution: %v", pairs)
	}
}

func TestCompute_SiblingOrderPreserved(t *testing.T) {
	root := testRoot()
	m := mapLister{root: {"alpha", "beta", "gamma"}}
	tr := buildTree(t, m, root)
	res := Compute(tr, Config{})

	kids := tr.Children(root)
	for i := 1; i < len(kids); i++ {
		prev := res.Rects[kids[i-1].Path]
		cur := res.Rects[kids[i].Path]
		if cur.Y <= prev.Y {
			t.Errorf("sibling %s placed above its predecessor", kids[i].Name)
		}
	}
}

func TestCompute_ParentCenteredOnChildren(t *testing.T) {
	root := testRoot()
	a := filepath.Join(root, "a")
	m := mapLister{
		root: {"a", "b"},
		a:    {"a1", "a2"},
	}
	tr := buildTree(t, m, root)
	res := Compute(tr, Config{})

	ra := res.Rects[a]
	rb := res.Rects[filepath.Join(root, "b")]
	r1 := res.Rects[filepath.Join(a, "a1")]
	r2 := res.Rects[filepath.Join(a, "a2")]

	if ra.X != rb.X {
		t.Errorf("siblings a and b at x %v and %v, want same depth boundary", ra.X, rb.X)
	}
	if r1.X != r2.X || r1.X <= ra.X {
		t.Errorf("a1/a2 should share an x strictly right of a: %v, %v vs %v", r1.X, r2.X, ra.X)
	}
	if r2.Y <= r1.Y {
		t.Error("a2 should be stacked below a1")
	}
	wantMid := (r1.CenterY() + r2.CenterY()) / 2
	if got := ra.CenterY(); got != wantMid {
		t.Errorf("a center y = %v, want centered between children at %v", got, wantMid)
	}
}

func TestCompute_SingleNode(t *testing.T) {
	root := testRoot()
	tr := buildTree(t, mapLister{}, root)
	res := Compute(tr, Config{Debug: true})

	r, ok := res.Rects[root]
	if !ok {
		t.Fatal("root rect missing")
	}
	if r.Width < DefaultMinNodeWidth || r.Height != DefaultNodeHeight {
		t.Errorf("unexpected root rect %v", r)
	}
	if res.Width != r.Right() || res.Height != r.Bottom() {
		t.Errorf("frame = %vx%v, want %vx%v", res.Width, res.Height, r.Right(), r.Bottom())
	}
}

func TestCompute_WidthFollowsLabel(t *testing.T) {
	root := testRoot()
	m := mapLister{root: {"x", "a-very-long-directory-name"}}
	tr := buildTree(t, m, root)
	res := Compute(tr, Config{})

	short := res.Rects[filepath.Join(root, "x")]
	long := res.Rects[filepath.Join(root, "a-very-long-directory-name")]
	if long.Width <= short.Width {
		t.Errorf("long label width %v not greater than short label width %v", long.Width, short.Width)
	}
	if short.Width != DefaultMinNodeWidth {
		t.Errorf("short label width = %v, want clamped to min %v", short.Width, DefaultMinNodeWidth)
	}
}
