// Package source loads project document trees and document contents, either from a local
// directory or from the documentation backend's HTTP API.
package source

import (
	"context"
	"errors"
	"time"

	"github.com/ragxuary/docs-kit/doctree"
)

// ErrNotFound is returned when a project or document does not exist.
var ErrNotFound = errors.New("not found")

// A Document is a single Markdown document of a project.
type Document struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

// A Source provides the document tree and documents of projects.
type Source interface {
	// Tree returns the root nodes of the project's document tree.
	Tree(ctx context.Context, project string) ([]*doctree.Node, error)
	// Document returns the document at path in the project.
	Document(ctx context.Context, project, path string) (*Document, error)
}

// FirstDocument returns the path of the first document in tree order, or "" if the tree has no
// documents.
func FirstDocument(tree []*doctree.Node) string {
	for _, n := range tree {
		if !n.IsFolder {
			return n.Path
		}
		if path := FirstDocument(n.Children); path != "" {
			return path
		}
	}
	return ""
}
