// Package pipeline provides the core scan → layout → render pipeline.
//
// The CLI commands and the HTTP server all run diagrams through this
// package, so caching and defaulting behave identically at every
// entry point.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Scan: walk the directory tree into an immutable tree model
//  2. Layout: compute node rectangles and route connectors
//  3. Render: generate output in various formats (SVG, DOT, PNG,
//     JSON, terminal)
//
// Each stage can be run independently or as part of the complete
// pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Root:    "/projects",
//	    Formats: []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"

	"time"

	"github.com/charmbracelet/log"

	"github.com/mkoelbl/treescope/pkg/cache"
	"github.com/mkoelbl/treescope/pkg/diagram"
	"github.com/mkoelbl/treescope/pkg/layout"
	"github.com/mkoelbl/treescope/pkg/tree"
)

// DefaultMaxDepth bounds how deep scans descend. Deep trees produce
// diagrams too wide to be useful; explicit MaxDepth overrides this.
const DefaultMaxDepth = 8

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatDOT  = "dot"
	FormatPNG  = "png"
	FormatJSON = "json"
	FormatTerm = "term"
)

// DefaultFormat is used when no formats are requested.
const DefaultFormat = FormatSVG

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatDOT:  true,
	FormatPNG:  true,
	FormatJSON: true,
	FormatTerm: true,
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: svg, dot, png, json, term)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// Options contains all configuration for the diagram pipeline. The
// struct serializes to JSON so the HTTP server can accept it as a
// request body.
type Options struct {
	// Scan options
	Root         string `json:"root"`
	IncludeFiles bool   `json:"include_files,omitempty"`
	ShowHidden   bool   `json:"show_hidden,omitempty"`
	MaxDepth     int    `json:"max_depth,omitempty"`
	Refresh      bool   `json:"refresh,omitempty"` // bypass the tree cache

	// Layout options
	Geometry layout.Config `json:"geometry,omitempty"`
	Debug    bool          `json:"debug,omitempty"` // report overlapping pairs

	// Render options
	Formats []string `json:"formats,omitempty"`
	Focus   string   `json:"focus,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
	Lister tree.Lister `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Tree is the scanned directory tree.
	Tree *tree.Tree

	// TreeHash is the content hash of the serialized tree.
	TreeHash string

	// Diagram is the laid out, serializable diagram.
	Diagram diagram.Diagram

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	MaxDepth   int
	Overlaps   int
	ScanTime   time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ScanHit   bool // tree came from cache
	LayoutHit bool // diagram came from cache
	RenderHit bool // all artifacts came from cache
}

// ValidateAndSetDefaults checks required fields and applies defaults
// for the full pipeline. Idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForScan(); err != nil {
		return err
	}
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForScan checks required fields for scanning and applies
// scan defaults.
func (o *Options) ValidateForScan() error {
	if o.Root == "" {
		return fmt.Errorf("root is required")
	}
	if o.MaxDepth == 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.Lister == nil {
		o.Lister = tree.OSLister{}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetRenderDefaults applies render defaults.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// TreeOptions returns the scan options in the tree package's form.
func (o *Options) TreeOptions() tree.Options {
	return tree.Options{
		IncludeFiles: o.IncludeFiles,
		ShowHidden:   o.ShowHidden,
		MaxDepth:     o.MaxDepth,
	}
}

// TreeKeyOpts returns cache key options for the scan stage.
func (o *Options) TreeKeyOpts() cache.TreeKeyOpts {
	return cache.TreeKeyOpts{
		IncludeFiles: o.IncludeFiles,
		ShowHidden:   o.ShowHidden,
		MaxDepth:     o.MaxDepth,
	}
}

// LayoutKeyOpts returns cache key options for the layout stage.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	g := o.Geometry
	return cache.LayoutKeyOpts{
		NodeHeight:   g.NodeHeight,
		CharWidth:    g.CharWidth,
		PaddingX:     g.PaddingX,
		MinNodeWidth: g.MinNodeWidth,
		LevelGap:     g.LevelGap,
		SiblingGap:   g.SiblingGap,
		Debug:        o.Debug,
	}
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format: format,
		Focus:  o.Focus,
	}
}
