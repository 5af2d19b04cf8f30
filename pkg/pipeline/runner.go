package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mkoelbl/treescope/pkg/cache"
	"github.com/mkoelbl/treescope/pkg/diagram"
	"github.com/mkoelbl/treescope/pkg/layout"
	"github.com/mkoelbl/treescope/pkg/observability"
	"github.com/mkoelbl/treescope/pkg/render"
	"github.com/mkoelbl/treescope/pkg/tree"
)

// Runner executes the pipeline with caching. It is stateless apart
// from the cache and logger, so one Runner can serve concurrent
// requests with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil keyer falls back to the default
// keyer; a nil cache disables caching via the null cache.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs the complete scan → layout → render pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Scan
	scanStart := time.Now()
	observability.Pipeline().OnScanStart(ctx, opts.Root)
	t, scanHit, err := r.ScanWithCacheInfo(ctx, opts)
	if err != nil {
		observability.Pipeline().OnScanComplete(ctx, opts.Root, 0, time.Since(scanStart), err)
		return nil, fmt.Errorf("scan: %w", err)
	}
	observability.Pipeline().OnScanComplete(ctx, opts.Root, t.Len(), time.Since(scanStart), nil)
	result.Tree = t
	result.Stats.ScanTime = time.Since(scanStart)
	result.Stats.NodeCount = t.Len()
	result.Stats.MaxDepth = t.MaxDepth()
	result.CacheInfo.ScanHit = scanHit

	if data, err := tree.Marshal(t); err == nil {
		result.TreeHash = cache.Hash(data)
	}

	r.Logger.Info("scanned tree",
		"root", opts.Root,
		"nodes", t.Len(),
		"depth", t.MaxDepth(),
		"duration", result.Stats.ScanTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	observability.Pipeline().OnLayoutStart(ctx, t.Len())
	d, layoutHit, err := r.ComputeDiagramWithCacheInfo(ctx, t, opts)
	observability.Pipeline().OnLayoutComplete(ctx, time.Since(layoutStart), err)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Diagram = d
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.Overlaps = len(d.Overlaps)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"frame", fmt.Sprintf("%.0fx%.0f", d.Width, d.Height),
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, d, opts)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(renderStart), err)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// ScanWithCacheInfo walks the directory tree, consulting the tree
// cache first, and reports whether the result was a cache hit. The
// cache entry is short-lived; Refresh bypasses it entirely.
func (r *Runner) ScanWithCacheInfo(ctx context.Context, opts Options) (*tree.Tree, bool, error) {
	if err := opts.ValidateForScan(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	cacheKey := r.Keyer.TreeKey(opts.Root, opts.TreeKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if t, err := tree.Unmarshal(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "tree")
				return t, true, nil
			}
		}
	}
	observability.Cache().OnCacheMiss(ctx, "tree")

	t, err := tree.Build(opts.Lister, opts.Root, opts.TreeOptions())
	if err != nil {
		return nil, false, err
	}

	if data, err := tree.Marshal(t); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLTree)
		observability.Cache().OnCacheSet(ctx, "tree", len(data))
	}

	return t, false, nil
}

// Scan is a convenience wrapper that discards the cache hit info.
func (r *Runner) Scan(ctx context.Context, opts Options) (*tree.Tree, error) {
	t, _, err := r.ScanWithCacheInfo(ctx, opts)
	return t, err
}

// ComputeDiagramWithCacheInfo lays out the tree, consulting the
// layout cache first, and reports whether the result was a cache hit.
func (r *Runner) ComputeDiagramWithCacheInfo(ctx context.Context, t *tree.Tree, opts Options) (diagram.Diagram, bool, error) {
	r.applyLogger(&opts)

	treeData, err := tree.Marshal(t)
	if err != nil {
		return diagram.Diagram{}, false, fmt.Errorf("serialize tree for cache key: %w", err)
	}
	cacheKey := r.Keyer.LayoutKey(cache.Hash(treeData), opts.LayoutKeyOpts())

	if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
		if cached, err := diagram.Unmarshal(data); err == nil {
			observability.Cache().OnCacheHit(ctx, "layout")
			cached.Focused = t.CarryFocus(opts.Focus)
			return cached, true, nil
		}
		// Corrupt entry: fall through to recompute.
	}
	observability.Cache().OnCacheMiss(ctx, "layout")

	cfg := opts.Geometry
	cfg.Debug = opts.Debug
	res := layout.Compute(t, cfg)
	conns := layout.RouteAll(t, res.Rects)
	d := diagram.FromLayout(t, res, conns, t.CarryFocus(opts.Focus))

	if opts.Debug && len(res.Overlaps) > 0 {
		r.Logger.Warn("layout left overlapping nodes", "pairs", len(res.Overlaps))
	}

	if data, err := diagram.Marshal(d); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout)
		observability.Cache().OnCacheSet(ctx, "layout", len(data))
	}

	return d, false, nil
}

// ComputeDiagram is a convenience wrapper that discards the cache hit
// info.
func (r *Runner) ComputeDiagram(ctx context.Context, t *tree.Tree, opts Options) (diagram.Diagram, error) {
	d, _, err := r.ComputeDiagramWithCacheInfo(ctx, t, opts)
	return d, err
}

// RenderWithCacheInfo renders the requested formats, consulting the
// artifact cache first, and reports whether every artifact came from
// cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, d diagram.Diagram, opts Options) (map[string][]byte, bool, error) {
	opts.SetRenderDefaults()
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	diagramData, err := diagram.Marshal(d)
	if err != nil {
		return nil, false, fmt.Errorf("serialize diagram for cache key: %w", err)
	}
	diagramHash := cache.Hash(diagramData)

	allCached := true
	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		cacheKey := r.Keyer.ArtifactKey(diagramHash, opts.ArtifactKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			artifacts[format] = data
		} else {
			allCached = false
			break
		}
	}
	if allCached && len(artifacts) == len(opts.Formats) {
		observability.Cache().OnCacheHit(ctx, "artifact")
		return artifacts, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	rendered := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, err := renderFormat(d, format, opts.Focus, diagramData)
		if err != nil {
			return nil, false, fmt.Errorf("render %s: %w", format, err)
		}
		rendered[format] = data
	}

	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(diagramHash, opts.ArtifactKeyOpts(format))
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact)
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}

	return rendered, false, nil
}

// Render is a convenience wrapper that discards the cache hit info.
func (r *Runner) Render(ctx context.Context, d diagram.Diagram, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, d, opts)
	return artifacts, err
}

// renderFormat dispatches one format. diagramData carries the already
// serialized JSON so the JSON format needs no second marshal.
func renderFormat(d diagram.Diagram, format, focus string, diagramData []byte) ([]byte, error) {
	switch format {
	case FormatSVG:
		return render.RenderSVG(d, render.WithFocus(focus)), nil
	case FormatDOT:
		return []byte(render.ToDOT(d)), nil
	case FormatPNG:
		return render.RenderDOTPNG(render.ToDOT(d))
	case FormatJSON:
		return diagramData, nil
	case FormatTerm:
		return []byte(render.RenderTerm(d, render.TermOptions{Focus: focus})), nil
	default:
		return nil, fmt.Errorf("invalid format: %q", format)
	}
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
