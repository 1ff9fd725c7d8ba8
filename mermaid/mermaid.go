// Package mermaid renders mermaid diagram definitions to SVG. Engines are loaded lazily, once per
// theme.
package mermaid

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// An Engine renders a diagram definition to an SVG document.
type Engine interface {
	Render(ctx context.Context, definition string) (svg string, err error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, definition string) (string, error)

// Render calls f.
func (f EngineFunc) Render(ctx context.Context, definition string) (string, error) {
	return f(ctx, definition)
}

// A Theme is a mermaid theme name.
type Theme string

const (
	ThemeDefault Theme = "default"
	ThemeDark    Theme = "dark"
)

// ThemeFor returns the theme matching the resolved color scheme.
func ThemeFor(dark bool) Theme {
	if dark {
		return ThemeDark
	}
	return ThemeDefault
}

// A Loader creates the engine for a theme.
type Loader func(ctx context.Context, theme Theme) (Engine, error)

// A Registry hands out one engine per theme. Engines are loaded on first use; concurrent first
// uses of the same theme share a single load. Failed loads are not remembered.
type Registry struct {
	load  Loader
	group singleflight.Group

	m       sync.RWMutex
	engines map[Theme]Engine
}

// NewRegistry creates a Registry that loads engines with load.
func NewRegistry(load Loader) *Registry {
	return &Registry{load: load, engines: map[Theme]Engine{}}
}

func (r *Registry) cached(theme Theme) (Engine, bool) {
	r.m.RLock()
	defer r.m.RUnlock()

	e, ok := r.engines[theme]
	return e, ok
}

// Engine returns the engine for theme, loading it if necessary.
func (r *Registry) Engine(ctx context.Context, theme Theme) (Engine, error) {
	if e, ok := r.cached(theme); ok {
		return e, nil
	}

	v, err, _ := r.group.Do(string(theme), func() (any, error) {
		if e, ok := r.cached(theme); ok {
			return e, nil
		}
		e, err := r.load(ctx, theme)
		if err != nil {
			return nil, err
		}

		r.m.Lock()
		defer r.m.Unlock()
		r.engines[theme] = e
		return e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading mermaid engine for theme %q: %w", theme, err)
	}
	return v.(Engine), nil
}
