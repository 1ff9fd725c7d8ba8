package server

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/ragxuary/docs-kit/doctree"
	"github.com/ragxuary/docs-kit/indexer"
	"github.com/ragxuary/docs-kit/internal/source"
	"github.com/ragxuary/docs-kit/mermaid"
)

type pageData struct {
	Project      string
	Title        string
	Nav          []*doctree.View
	Documents    int
	EmptyMessage string
	Document     *source.Document
	Content      template.HTML
	Headings     []indexer.Heading
	NotFound     bool
}

// handleDocs serves the document page for the path after /docs/. Without a path it redirects to
// the first document of the tree.
func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docPath := strings.Trim(chi.URLParam(r, "*"), "/")

	tree, err := s.source.Tree(ctx, s.project)
	switch {
	case errors.Is(err, source.ErrNotFound):
		tree = nil
	case err != nil:
		s.log.Error("loading document tree", "project", s.project, "error", err)
		http.Error(w, "failed to load document tree", http.StatusInternalServerError)
		return
	}

	if docPath == "" {
		if first := source.FirstDocument(tree); first != "" {
			http.Redirect(w, r, "/docs/"+first, http.StatusFound)
			return
		}
	}

	data := pageData{Project: s.project, Title: s.project}
	status := http.StatusOK
	if docPath != "" {
		doc, err := s.source.Document(ctx, s.project, docPath)
		switch {
		case errors.Is(err, source.ErrNotFound):
			data.NotFound = true
			status = http.StatusNotFound
		case err != nil:
			s.log.Error("loading document", "project", s.project, "path", docPath, "error", err)
			http.Error(w, "failed to load document", http.StatusInternalServerError)
			return
		default:
			data.Document = doc
			data.Title = doc.Title
			theme := mermaid.ThemeFor(r.URL.Query().Get("theme") == "dark")
			data.Content = template.HTML(s.renderDocument(ctx, doc.Content, theme))
			if s.processor.AnchorLinks() {
				data.Headings = s.processor.Headings(doc.Content)
			}
		}
	}

	sidebar := doctree.NewSidebar(tree, docPath)
	if sidebar.Empty() {
		data.EmptyMessage = doctree.EmptyMessage
	}
	data.Nav = sidebar.Tree()
	_, data.Documents = doctree.Count(tree)

	var buf bytes.Buffer
	if err := pageTmpl.ExecuteTemplate(&buf, "page.gohtml", data); err != nil {
		s.log.Error("rendering page", "path", docPath, "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
