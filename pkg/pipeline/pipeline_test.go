package pipeline

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/mkoelbl/treescope/pkg/cache"
	"github.com/mkoelbl/treescope/pkg/tree"
)

// mapLister serves a fixed directory structure from memory.
type mapLister map[string][]string

func (m mapLister) ListChildren(path string) ([]tree.Entry, error) {
	entries := make([]tree.Entry, 0, len(m[path]))
	for _, name := range m[path] {
		child := path + "/" + name
		_, isDir := m[child]
		entries = append(entries, tree.Entry{Name: name, Path: child, IsDir: isDir})
	}
	return entries, nil
}

func testLister() mapLister {
	return mapLister{
		"/projects":          {"api", "web"},
		"/projects/api":      {"handlers", "store"},
		"/projects/api/handlers": {},
		"/projects/api/store":    {},
		"/projects/web":          {},
	}
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func testOptions(formats ...string) Options {
	return Options{
		Root:    "/projects",
		Formats: formats,
		Lister:  testLister(),
		Logger:  quietLogger(),
	}
}

// ============================================================================
// Options
// ============================================================================

func TestValidateFormat(t *testing.T) {
	for _, f := range []string{"svg", "dot", "png", "json", "term"} {
		if err := ValidateFormat(f); err != nil {
			t.Errorf("ValidateFormat(%q) = %v, want nil", f, err)
		}
	}
	if err := ValidateFormat("pdf"); err == nil {
		t.Error("ValidateFormat(pdf) = nil, want error")
	}
}

func TestOptions_ValidateAndSetDefaults(t *testing.T) {
	opts := Options{Root: "/projects"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() = %v", err)
	}
	if opts.MaxDepth != DefaultMaxDepth {
		t.Errorf("MaxDepth = %d, want %d", opts.MaxDepth, DefaultMaxDepth)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != DefaultFormat {
		t.Errorf("Formats = %v, want [%s]", opts.Formats, DefaultFormat)
	}
	if opts.Lister == nil {
		t.Error("Lister not defaulted")
	}
}

func TestOptions_ValidateRequiresRoot(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateAndSetDefaults(); err == nil {
		t.Error("ValidateAndSetDefaults() = nil, want error for missing root")
	}
}

func TestOptions_ValidateRejectsBadFormat(t *testing.T) {
	opts := Options{Root: "/projects", Formats: []string{"svg", "pdf"}}
	if err := opts.ValidateAndSetDefaults(); err == nil {
		t.Error("ValidateAndSetDefaults() = nil, want error for bad format")
	}
}

// ============================================================================
// Execute
// ============================================================================

func TestExecute_EndToEnd(t *testing.T) {
	runner := NewRunner(nil, nil, quietLogger())
	defer runner.Close()

	res, err := runner.Execute(context.Background(), testOptions("svg", "json", "term"))
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}

	if res.Tree == nil || res.Tree.Len() != 5 {
		t.Fatalf("tree has %d nodes, want 5", res.Tree.Len())
	}
	if res.TreeHash == "" {
		t.Error("TreeHash is empty")
	}
	if res.Stats.NodeCount != 5 {
		t.Errorf("Stats.NodeCount = %d, want 5", res.Stats.NodeCount)
	}
	if res.Stats.MaxDepth != 2 {
		t.Errorf("Stats.MaxDepth = %d, want 2", res.Stats.MaxDepth)
	}
	if len(res.Diagram.Nodes) != 5 {
		t.Errorf("diagram has %d nodes, want 5", len(res.Diagram.Nodes))
	}
	if len(res.Diagram.Connectors) != 4 {
		t.Errorf("diagram has %d connectors, want 4", len(res.Diagram.Connectors))
	}

	for _, format := range []string{"svg", "json", "term"} {
		if len(res.Artifacts[format]) == 0 {
			t.Errorf("artifact %q is empty", format)
		}
	}
	if !strings.Contains(string(res.Artifacts["svg"]), "<svg") {
		t.Error("svg artifact does not look like SVG")
	}
	if !strings.Contains(string(res.Artifacts["term"]), "projects") {
		t.Error("term artifact missing root label")
	}

	ci := res.CacheInfo
	if ci.ScanHit || ci.LayoutHit || ci.RenderHit {
		t.Errorf("CacheInfo = %+v, want all misses with null cache", ci)
	}
}

func TestExecute_CacheHitsOnSecondRun(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() = %v", err)
	}
	runner := NewRunner(c, nil, quietLogger())
	defer runner.Close()

	first, err := runner.Execute(context.Background(), testOptions("svg", "dot"))
	if err != nil {
		t.Fatalf("first Execute() = %v", err)
	}
	if first.CacheInfo.ScanHit || first.CacheInfo.LayoutHit || first.CacheInfo.RenderHit {
		t.Fatalf("first run CacheInfo = %+v, want all misses", first.CacheInfo)
	}

	second, err := runner.Execute(context.Background(), testOptions("svg", "dot"))
	if err != nil {
		t.Fatalf("second Execute() = %v", err)
	}
	ci := second.CacheInfo
	if !ci.ScanHit || !ci.LayoutHit || !ci.RenderHit {
		t.Errorf("second run CacheInfo = %+v, want all hits", ci)
	}

	if string(first.Artifacts["svg"]) != string(second.Artifacts["svg"]) {
		t.Error("cached svg differs from rendered svg")
	}
	if second.TreeHash != first.TreeHash {
		t.Errorf("TreeHash changed across runs: %s vs %s", first.TreeHash, second.TreeHash)
	}
}

func TestExecute_DifferentGeometryMissesLayoutCache(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() = %v", err)
	}
	runner := NewRunner(c, nil, quietLogger())
	defer runner.Close()

	if _, err := runner.Execute(context.Background(), testOptions("svg")); err != nil {
		t.Fatalf("first Execute() = %v", err)
	}

	opts := testOptions("svg")
	opts.Geometry.LevelGap = 200
	res, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("second Execute() = %v", err)
	}
	if !res.CacheInfo.ScanHit {
		t.Error("scan should still hit: geometry does not affect the tree")
	}
	if res.CacheInfo.LayoutHit {
		t.Error("layout hit despite changed geometry")
	}
}

// ============================================================================
// Scan
// ============================================================================

func TestScan_RefreshBypassesCache(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() = %v", err)
	}
	runner := NewRunner(c, nil, quietLogger())
	defer runner.Close()

	lister := testLister()
	opts := Options{Root: "/projects", Lister: lister, Logger: quietLogger()}

	if _, _, err := runner.ScanWithCacheInfo(context.Background(), opts); err != nil {
		t.Fatalf("ScanWithCacheInfo() = %v", err)
	}

	// The filesystem changes underneath the cache.
	lister["/projects/web"] = []string{"assets"}
	lister["/projects/web/assets"] = []string{}

	stale, hit, err := runner.ScanWithCacheInfo(context.Background(), opts)
	if err != nil {
		t.Fatalf("cached scan = %v", err)
	}
	if !hit {
		t.Fatal("second scan missed the cache")
	}
	if stale.Contains("/projects/web/assets") {
		t.Error("cached scan saw the new directory")
	}

	opts.Refresh = true
	fresh, hit, err := runner.ScanWithCacheInfo(context.Background(), opts)
	if err != nil {
		t.Fatalf("refreshed scan = %v", err)
	}
	if hit {
		t.Error("refresh scan reported a cache hit")
	}
	if !fresh.Contains("/projects/web/assets") {
		t.Error("refresh scan missed the new directory")
	}
}

// ============================================================================
// Render
// ============================================================================

func TestRender_JSONMatchesDiagram(t *testing.T) {
	runner := NewRunner(nil, nil, quietLogger())
	defer runner.Close()

	opts := testOptions("json")
	res, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	body := string(res.Artifacts["json"])
	if !strings.Contains(body, `"root": "/projects"`) {
		t.Errorf("json artifact missing root field:\n%s", body)
	}
}

func TestRender_RejectsUnknownFormat(t *testing.T) {
	runner := NewRunner(nil, nil, quietLogger())
	defer runner.Close()

	res, err := runner.Execute(context.Background(), testOptions("svg"))
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}

	opts := testOptions("pdf")
	if _, _, err := runner.RenderWithCacheInfo(context.Background(), res.Diagram, opts); err == nil {
		t.Error("RenderWithCacheInfo accepted an unknown format")
	}
}
