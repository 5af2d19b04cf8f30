// Package cache provides pluggable byte caches for the scan pipeline.
// Layouts and rendered artifacts are cached keyed by content hashes,
// so an unchanged directory tree renders without recomputation.
//
// Three backends are available: a file cache for CLI usage, a Redis
// cache for server deployments, and a null cache that disables
// caching entirely.
package cache

import (
	"context"
	"time"
)

// Default TTLs per pipeline stage. Trees go stale as soon as the
// filesystem changes, so they get a short TTL; layouts and artifacts
// are pure functions of their key and keep for longer.
const (
	TTLTree     = 5 * time.Minute
	TTLLayout   = 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// Cache stores opaque byte values under string keys. A zero ttl means
// the entry never expires. Get reports a miss with hit == false and a
// nil error; errors are reserved for backend failures.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// TreeKeyOpts are the scan options that change a tree's identity.
type TreeKeyOpts struct {
	IncludeFiles bool `json:"include_files"`
	ShowHidden   bool `json:"show_hidden"`
	MaxDepth     int  `json:"max_depth"`
}

// LayoutKeyOpts are the geometry options that change a layout. Debug
// is part of the key because debug layouts carry overlap annotations.
type LayoutKeyOpts struct {
	NodeHeight   float64 `json:"node_height"`
	CharWidth    float64 `json:"char_width"`
	PaddingX     float64 `json:"padding_x"`
	MinNodeWidth float64 `json:"min_node_width"`
	LevelGap     float64 `json:"level_gap"`
	SiblingGap   float64 `json:"sibling_gap"`
	Debug        bool    `json:"debug,omitempty"`
}

// ArtifactKeyOpts distinguish rendered outputs of one diagram.
type ArtifactKeyOpts struct {
	Format string `json:"format"` // "svg", "dot", "png", "term"
	Focus  string `json:"focus,omitempty"`
}

// Keyer derives cache keys for the pipeline's stages. Implementations
// must be deterministic: equal inputs yield equal keys.
type Keyer interface {
	// TreeKey identifies a scanned tree by root path and scan options.
	TreeKey(root string, opts TreeKeyOpts) string

	// LayoutKey identifies a computed layout by the tree's content
	// hash and the layout geometry.
	LayoutKey(treeHash string, opts LayoutKeyOpts) string

	// ArtifactKey identifies a rendered output by the diagram's
	// content hash and the render options.
	ArtifactKey(diagramHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

func (k *DefaultKeyer) TreeKey(root string, opts TreeKeyOpts) string {
	return hashKey("tree", root, opts)
}

func (k *DefaultKeyer) LayoutKey(treeHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", treeHash, opts)
}

func (k *DefaultKeyer) ArtifactKey(diagramHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", diagramHash, opts)
}
