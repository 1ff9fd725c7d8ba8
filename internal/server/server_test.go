package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/ragxuary/docs-kit/indexer"
	"github.com/ragxuary/docs-kit/internal/cache"
	"github.com/ragxuary/docs-kit/internal/source"
	"github.com/ragxuary/docs-kit/markdown"
	"github.com/ragxuary/docs-kit/mermaid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const introDocument = "# Introduction\n\n## Install\n\n```go\nfmt.Println(\"hi\")\n```\n\n## Configure\n\n```mermaid\ngraph TD\n  A-->B\n```\n"

func testSource() source.Source {
	return source.NewDirFS(fstest.MapFS{
		"docs/guides/intro.md": {Data: []byte(introDocument)},
		"docs/guides/empty.md": {Data: []byte("")},
		"docs/readme.md":       {Data: []byte("plain text\n")},
		"blank/.keep":          {Data: []byte{}},
	})
}

func newTestServer(t *testing.T, options ...Option) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(testSource(), append([]Option{WithLogger(logger)}, options...)...)
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t), "GET", "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRedirects(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, "GET", "/", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/docs/", rec.Header().Get("Location"))

	rec = do(t, s, "GET", "/docs/", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/docs/guides/empty", rec.Header().Get("Location"))
}

func TestDocumentPage(t *testing.T) {
	rec := do(t, newTestServer(t), "GET", "/docs/guides/intro", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()

	assert.Contains(t, body, "<title>Introduction · docs</title>")

	// sidebar: the containing folder is expanded and the document is active
	assert.Contains(t, body, `<li role="treeitem" aria-expanded="true"><details open><summary>guides</summary>`)
	assert.Contains(t, body, `<a href="/docs/guides/intro" class="active" aria-current="page">Introduction</a>`)
	assert.Contains(t, body, `<a href="/docs/readme">readme</a>`)
	assert.Contains(t, body, `<div class="sidebar-project">docs <span class="sidebar-count">3 documents</span></div>`)

	// content
	assert.Contains(t, body, `<h2 id="install">`)
	assert.Contains(t, body, `data-code-header=""`)
	assert.Contains(t, body, `data-mermaid=""`)

	// table of contents
	assert.Contains(t, body, `<aside class="toc"`)
	assert.Contains(t, body, `<li class="toc-level-2"><a href="#install" data-heading="install">Install</a></li>`)
	assert.Contains(t, body, `<a href="#configure" data-heading="configure">Configure</a>`)
}

func TestDocumentPage_NoHeadings(t *testing.T) {
	rec := do(t, newTestServer(t), "GET", "/docs/readme", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `class="toc"`)
	assert.Contains(t, rec.Body.String(), "plain text")
}

func TestDocumentPage_EmptyContent(t *testing.T) {
	rec := do(t, newTestServer(t), "GET", "/docs/guides/empty", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "This document has no content.")
}

func TestDocumentPage_AnchorsDisabled(t *testing.T) {
	s := newTestServer(t, WithMarkdown(markdown.WithAnchorLinks(false)))
	rec := do(t, s, "GET", "/docs/guides/intro", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h2>Install</h2>")
	assert.NotContains(t, rec.Body.String(), `class="toc"`)
}

func TestDocumentPage_NotFound(t *testing.T) {
	rec := do(t, newTestServer(t), "GET", "/docs/guides/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Document not found")
	assert.Contains(t, rec.Body.String(), `<li role="treeitem" aria-expanded="false"><details><summary>guides</summary></details>`)
}

func TestDocumentPage_CollapsedFoldersOmitChildren(t *testing.T) {
	src := source.NewDirFS(fstest.MapFS{
		"docs/guides/quick-start.md": {Data: []byte("# Quick start\n")},
		"docs/api/reference.md":      {Data: []byte("# Reference\n")},
	})
	s := New(src, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	rec := do(t, s, "GET", "/docs/guides/quick-start", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<li role="treeitem" aria-expanded="false"><details><summary>api</summary></details>`)
	assert.NotContains(t, body, `/docs/api/reference`)
	assert.Contains(t, body, `<a href="/docs/guides/quick-start" class="active" aria-current="page">Quick start</a>`)
	assert.Contains(t, body, `<span class="sidebar-count">2 documents</span>`)
}

func TestDocumentPage_TableOfContentsMatchesAnchors(t *testing.T) {
	src := source.NewDirFS(fstest.MapFS{
		"docs/setup.md": {Data: []byte("Setup\n=====\n\n## Setup\n\n> ## Notes\n\n## Notes\n")},
	})
	s := New(src, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	rec := do(t, s, "GET", "/docs/setup", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	for _, id := range []string{"setup-1", "notes", "notes-1"} {
		assert.Contains(t, body, `<h2 id="`+id+`">`)
		assert.Contains(t, body, `<a href="#`+id+`" data-heading="`+id+`">`)
	}
	assert.NotContains(t, body, `data-heading="setup"`)
}

func TestDocumentPage_EmptyTree(t *testing.T) {
	for _, project := range []string{"blank", "missing"} {
		rec := do(t, newTestServer(t, WithProject(project)), "GET", "/docs/", "")
		require.Equal(t, http.StatusOK, rec.Code, project)
		assert.Contains(t, rec.Body.String(), `<p class="sidebar-empty">No documents</p>`)
		assert.NotContains(t, rec.Body.String(), `role="tree"`)
		assert.NotContains(t, rec.Body.String(), `class="toc"`)
	}
}

func TestDocumentPage_Cache(t *testing.T) {
	c, err := cache.Open(":memory:")
	require.NoError(t, err)
	defer c.Close()

	s := newTestServer(t, WithCache(c))
	first := do(t, s, "GET", "/docs/guides/intro", "")
	require.Equal(t, http.StatusOK, first.Code)

	n, err := c.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	second := do(t, s, "GET", "/docs/guides/intro", "")
	assert.Equal(t, first.Body.String(), second.Body.String())
}

func TestDocumentPage_Diagrams(t *testing.T) {
	var themes []mermaid.Theme
	registry := mermaid.NewRegistry(func(ctx context.Context, theme mermaid.Theme) (mermaid.Engine, error) {
		themes = append(themes, theme)
		return mermaid.EngineFunc(func(ctx context.Context, definition string) (string, error) {
			return `<svg data-theme="` + string(theme) + `"></svg>`, nil
		}), nil
	})

	s := newTestServer(t, WithDiagrams(registry, 2))
	rec := do(t, s, "GET", "/docs/guides/intro", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mermaid-rendered")
	assert.Contains(t, rec.Body.String(), `<svg data-theme="default"></svg>`)

	rec = do(t, s, "GET", "/docs/guides/intro?theme=dark", "")
	assert.Contains(t, rec.Body.String(), `<svg data-theme="dark"></svg>`)
	assert.Equal(t, []mermaid.Theme{mermaid.ThemeDefault, mermaid.ThemeDark}, themes)
}

func TestDocumentPage_DiagramFailuresAreNotCached(t *testing.T) {
	c, err := cache.Open(":memory:")
	require.NoError(t, err)
	defer c.Close()

	var calls atomic.Int32
	registry := mermaid.NewRegistry(func(ctx context.Context, theme mermaid.Theme) (mermaid.Engine, error) {
		return mermaid.EngineFunc(func(ctx context.Context, definition string) (string, error) {
			calls.Add(1)
			return "", io.ErrUnexpectedEOF
		}), nil
	})

	s := newTestServer(t, WithCache(c), WithDiagrams(registry, 0))
	rec := do(t, s, "GET", "/docs/guides/intro", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mermaid-error")

	do(t, s, "GET", "/docs/guides/intro", "")
	assert.Equal(t, int32(2), calls.Load())
	n, err := c.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRenderAPI(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, "POST", "/api/render", "## My Heading\n")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `<h2 id="my-heading"><a class="anchor-link" href="#my-heading" aria-hidden="true" tabindex="-1">#</a>My Heading</h2>`+"\n", rec.Body.String())

	rec = do(t, s, "POST", "/api/render?anchors=false", "## My Heading\n")
	assert.Equal(t, "<h2>My Heading</h2>\n", rec.Body.String())

	rec = do(t, s, "POST", "/api/render", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", rec.Body.String())
}

func TestHeadingsAPI(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, "POST", "/api/headings", introDocument)
	require.Equal(t, http.StatusOK, rec.Code)
	var headings []indexer.Heading
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &headings))
	assert.Equal(t, []indexer.Heading{
		{ID: "install", Text: "Install", Level: 2},
		{ID: "configure", Text: "Configure", Level: 2},
	}, headings)

	rec = do(t, s, "POST", "/api/headings", "no headings")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestAssets(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, "GET", "/assets/highlight.css", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/css; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "--shiki-dark")

	rec = do(t, s, "GET", "/assets/docs.css", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, "GET", "/assets/docs.js", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	// With no heading in view every table of contents link is cleared.
	assert.Contains(t, rec.Body.String(), "links.forEach((a, id) => a.classList.toggle('active', id === active));")
	assert.NotContains(t, rec.Body.String(), "if (!active) return;")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	do(t, s, "GET", "/health", "")

	rec := do(t, s, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `mdkit_http_requests_total{route="/health",status="200"}`)
}
