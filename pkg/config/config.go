// Package config loads the user configuration file. Settings cover
// layout geometry, navigation weights, scan defaults and the cache
// and snapshot-store backends. Everything has a working default, so a
// missing config file is not an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/mkoelbl/treescope/pkg/layout"
	"github.com/mkoelbl/treescope/pkg/nav"
)

// FileName is the config file name inside the config directory.
const FileName = "config.toml"

// Cache backend names accepted in [cache].
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config is the root of the TOML config file.
type Config struct {
	Scan   Scan         `toml:"scan"`
	Layout Layout       `toml:"layout"`
	Nav    Nav          `toml:"nav"`
	Cache  CacheBackend `toml:"cache"`
	Store  Store        `toml:"store"`
}

// Scan holds default scan options; command-line flags override them.
type Scan struct {
	IncludeFiles bool `toml:"include_files"`
	ShowHidden   bool `toml:"show_hidden"`
	MaxDepth     int  `toml:"max_depth"`
}

// Layout holds diagram geometry overrides. Zero values fall back to
// the layout package defaults.
type Layout struct {
	NodeHeight   float64 `toml:"node_height"`
	CharWidth    float64 `toml:"char_width"`
	PaddingX     float64 `toml:"padding_x"`
	MinNodeWidth float64 `toml:"min_node_width"`
	LevelGap     float64 `toml:"level_gap"`
	SiblingGap   float64 `toml:"sibling_gap"`
}

// Nav holds the spatial navigation scoring weights.
type Nav struct {
	Lateral float64 `toml:"lateral"`
	Axial   float64 `toml:"axial"`
}

// CacheBackend selects and configures the pipeline cache.
type CacheBackend struct {
	// Backend is "file", "redis" or "none".
	Backend string `toml:"backend"`

	// Dir is the file cache directory. Empty means
	// <config dir>/cache/.
	Dir string `toml:"dir"`

	// RedisURL is the redis connection URL for the redis backend,
	// e.g. redis://localhost:6379/0.
	RedisURL string `toml:"redis_url"`
}

// Store configures the snapshot store.
type Store struct {
	// MongoURI enables the snapshot commands when set, e.g.
	// mongodb://localhost:27017.
	MongoURI string `toml:"mongo_uri"`
}

// Default returns the configuration used when no config file exists.
func Default() Config {
	return Config{
		Cache: CacheBackend{Backend: BackendFile},
	}
}

// Dir returns the config directory, honoring XDG_CONFIG_HOME.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "treescope"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "treescope"), nil
}

// Path returns the full path of the config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load reads the config file at path. A missing file returns the
// defaults; a present but malformed file is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefaultPath loads the config from the standard location.
func LoadDefaultPath() (Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), err
	}
	return Load(path)
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case "", BackendFile, BackendNone:
	case BackendRedis:
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("cache.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown cache.backend %q (must be file, redis or none)", c.Cache.Backend)
	}
	if c.Scan.MaxDepth < 0 {
		return fmt.Errorf("scan.max_depth must not be negative")
	}
	if c.Nav.Lateral < 0 || c.Nav.Axial < 0 {
		return fmt.Errorf("nav weights must not be negative")
	}
	return nil
}

// LayoutConfig maps the [layout] section to layout geometry. Zero
// fields keep the layout package defaults.
func (c Config) LayoutConfig() layout.Config {
	return layout.Config{
		NodeHeight:   c.Layout.NodeHeight,
		CharWidth:    c.Layout.CharWidth,
		PaddingX:     c.Layout.PaddingX,
		MinNodeWidth: c.Layout.MinNodeWidth,
		LevelGap:     c.Layout.LevelGap,
		SiblingGap:   c.Layout.SiblingGap,
	}
}

// NavWeights maps the [nav] section to navigation weights. Zero
// weights keep the nav package defaults.
func (c Config) NavWeights() nav.Weights {
	return nav.Weights{Lateral: c.Nav.Lateral, Axial: c.Nav.Axial}
}

// CacheDir returns the file cache directory, defaulting under the
// config directory.
func (c Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cache"), nil
}
