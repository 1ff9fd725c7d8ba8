// Package server serves a project's documents as HTML pages with a document tree sidebar and a
// table of contents, plus a small rendering API.
package server

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ragxuary/docs-kit/internal/cache"
	"github.com/ragxuary/docs-kit/internal/metrics"
	"github.com/ragxuary/docs-kit/internal/source"
	"github.com/ragxuary/docs-kit/markdown"
	"github.com/ragxuary/docs-kit/mermaid"
)

// An Option configures a Server.
type Option func(s *Server)

// WithProject sets the project that is served. The default is "docs".
func WithProject(project string) Option {
	return func(s *Server) {
		s.project = project
	}
}

// WithMarkdown sets the options of the Markdown pipeline.
func WithMarkdown(options ...markdown.Option) Option {
	return func(s *Server) {
		s.markdownOptions = options
	}
}

// WithCache stores rendered documents in c.
func WithCache(c *cache.Cache) Option {
	return func(s *Server) {
		s.cache = c
	}
}

// WithDiagrams renders mermaid diagrams with engines from registry, at most concurrency at a time.
func WithDiagrams(registry *mermaid.Registry, concurrency int) Option {
	return func(s *Server) {
		s.diagrams = registry
		s.concurrency = concurrency
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// Server is the HTTP server for a project's documents.
type Server struct {
	router          chi.Router
	source          source.Source
	project         string
	markdownOptions []markdown.Option
	processor       *markdown.Processor
	plain           *markdown.Processor
	cache           *cache.Cache
	diagrams        *mermaid.Registry
	concurrency     int
	log             *slog.Logger
}

// New creates a Server that reads documents from src.
func New(src source.Source, options ...Option) *Server {
	s := &Server{source: src, project: "docs"}
	for _, o := range options {
		o(s)
	}
	if s.log == nil {
		s.log = slog.Default()
	}

	base := append(s.markdownOptions[:len(s.markdownOptions):len(s.markdownOptions)], markdown.WithLogger(s.log))
	s.processor = markdown.New(base...)
	s.plain = markdown.New(append(base, markdown.WithAnchorLinks(false))...)

	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Get("/assets/highlight.css", s.handleHighlightCSS)
	assets, _ := fs.Sub(assetFS, "assets")
	r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServerFS(assets)))

	r.Post("/api/render", s.handleRender)
	r.Post("/api/headings", s.handleHeadings)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs/", http.StatusFound)
	})
	r.Get("/docs", s.handleDocs)
	r.Get("/docs/*", s.handleDocs)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleHighlightCSS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Write([]byte(s.processor.Highlighter().Stylesheet()))
}
