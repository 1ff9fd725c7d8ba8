package server

import (
	"context"
	"embed"
	"html/template"
	"time"

	"github.com/ragxuary/docs-kit/enhance"
	"github.com/ragxuary/docs-kit/internal/metrics"
	"github.com/ragxuary/docs-kit/mermaid"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

//go:embed assets
var assetFS embed.FS

var funcs = template.FuncMap{
	"abstime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("January 2, 2006")
	},
}

var pageTmpl = template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.gohtml"))

// renderDocument converts Markdown to the HTML of a document page: the pipeline output with
// enhanced code blocks and, when a diagram registry is configured, rendered diagrams. Results are
// cached unless a diagram failed.
func (s *Server) renderDocument(ctx context.Context, content string, theme mermaid.Theme) string {
	key := s.processor.CacheKey(content)
	if s.diagrams != nil {
		key += ":" + string(theme)
	}
	if s.cache != nil {
		html, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.log.Warn("reading render cache", "error", err)
		case ok:
			metrics.CountCacheHit()
			return html
		}
	}

	start := time.Now()
	out := s.processor.Process(content)
	cacheable := true

	doc, err := enhance.Parse(out)
	if err != nil {
		s.log.Warn("parsing rendered document", "error", err)
	} else {
		doc.CodeBlocks()
		if s.diagrams != nil {
			cacheable = s.renderDiagrams(ctx, doc, theme)
		}
		out = doc.String()
	}
	metrics.ObserveRender(time.Since(start))

	if s.cache != nil && cacheable {
		if err := s.cache.Put(ctx, key, out); err != nil {
			s.log.Warn("writing render cache", "error", err)
		}
	}
	return out
}

// renderDiagrams replaces the diagram sources of doc with SVG. It reports whether every diagram
// rendered.
func (s *Server) renderDiagrams(ctx context.Context, doc *enhance.Document, theme mermaid.Theme) bool {
	engine, err := s.diagrams.Engine(ctx, theme)
	if err != nil {
		s.log.Warn("diagram engine unavailable", "theme", theme, "error", err)
		return false
	}

	var options []enhance.DiagramOption
	if s.concurrency > 0 {
		options = append(options, enhance.WithConcurrency(s.concurrency))
	}

	ok := true
	for _, result := range doc.RenderDiagrams(ctx, engine, options...) {
		metrics.CountDiagram(result.Err)
		if result.Err != nil {
			ok = false
			s.log.Warn("diagram render failed", "error", result.Err)
		}
	}
	return ok
}
