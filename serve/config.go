// Package serve configures server-side rendering for fresco
// applications: where the built assets live, which element of the
// index page the application mounts into, and optional incremental
// rendering.
package serve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

const (
	defaultRootID           = "main"
	defaultAssetsPath       = "dist"
	defaultStaticDir        = "static"
	defaultMemoryCacheLimit = 10000
)

// RenderFunc renders the application for one request.
type RenderFunc func(ctx context.Context, w io.Writer) error

// IncrementalConfig enables caching of rendered pages.
type IncrementalConfig struct {
	// StaticDir is where rendered pages are persisted. Defaults to
	// "static".
	StaticDir string
	// MemoryCacheLimit caps the number of pages kept in memory.
	// Defaults to 10000.
	MemoryCacheLimit int
	// InvalidateAfter expires cached pages. Zero keeps them forever.
	InvalidateAfter time.Duration
}

// Config is a built, validated rendering configuration.
type Config struct {
	Render      RenderFunc
	RootID      string
	AssetsPath  string
	IndexPath   string
	Index       IndexHTML
	Incremental *IncrementalConfig
}

// Builder assembles a Config. Every setting is optional; defaults are
// applied by Build.
type Builder struct {
	render      RenderFunc
	rootID      string
	assetsPath  string
	indexPath   string
	incremental *IncrementalConfig
}

// NewBuilder starts a config for the given application renderer.
func NewBuilder(render RenderFunc) *Builder {
	return &Builder{render: render}
}

// RootID sets the id of the element the application mounts into.
func (b *Builder) RootID(id string) *Builder {
	b.rootID = id
	return b
}

// AssetsPath sets the directory holding built client assets.
func (b *Builder) AssetsPath(path string) *Builder {
	b.assetsPath = path
	return b
}

// IndexPath sets the index page location. When unset the index is
// looked up inside the assets path.
func (b *Builder) IndexPath(path string) *Builder {
	b.indexPath = path
	return b
}

// Incremental enables incremental rendering.
func (b *Builder) Incremental(cfg IncrementalConfig) *Builder {
	b.incremental = &cfg
	return b
}

// Build applies defaults, loads the index page and splits it around
// the root element. A missing index file or root element is a
// configuration error, not a degraded mode.
func (b *Builder) Build() (Config, error) {
	if b == nil || b.render == nil {
		return Config{}, errors.New("serve: render function is required")
	}

	rootID := b.rootID
	if rootID == "" {
		rootID = defaultRootID
	}
	assetsPath := b.assetsPath
	if assetsPath == "" {
		assetsPath = defaultAssetsPath
	}
	indexPath := b.indexPath
	if indexPath == "" {
		indexPath = filepath.Join(assetsPath, "index.html")
	}

	contents, err := os.ReadFile(indexPath)
	if err != nil {
		return Config{}, fmt.Errorf("serve: read index: %w", err)
	}
	index, err := SplitIndex(string(contents), rootID)
	if err != nil {
		return Config{}, err
	}

	var incremental *IncrementalConfig
	if b.incremental != nil {
		cfg := *b.incremental
		if cfg.StaticDir == "" {
			cfg.StaticDir = defaultStaticDir
		}
		if cfg.MemoryCacheLimit <= 0 {
			cfg.MemoryCacheLimit = defaultMemoryCacheLimit
		}
		incremental = &cfg
	}

	return Config{
		Render:      b.render,
		RootID:      rootID,
		AssetsPath:  assetsPath,
		IndexPath:   indexPath,
		Index:       index,
		Incremental: incremental,
	}, nil
}
