package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/ragxuary/docs-kit/indexer"
	"github.com/ragxuary/docs-kit/internal/metrics"
)

const maxMarkdownBytes = 4 << 20

// handleRender renders the Markdown request body to HTML. ?anchors=false disables heading ids and
// anchor links.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	body, ok := readMarkdown(w, r)
	if !ok {
		return
	}

	p := s.processor
	if r.URL.Query().Get("anchors") == "false" {
		p = s.plain
	}

	start := time.Now()
	out := p.Process(body)
	metrics.ObserveRender(time.Since(start))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, out)
}

// handleHeadings returns the table of contents entries of the Markdown request body.
func (s *Server) handleHeadings(w http.ResponseWriter, r *http.Request) {
	body, ok := readMarkdown(w, r)
	if !ok {
		return
	}

	headings := indexer.ExtractHeadings(body)
	if headings == nil {
		headings = []indexer.Heading{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(headings)
}

func readMarkdown(w http.ResponseWriter, r *http.Request) (string, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMarkdownBytes))
	if err != nil {
		jsonError(w, "failed to read request body: "+err.Error(), http.StatusRequestEntityTooLarge)
		return "", false
	}
	return string(body), true
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
