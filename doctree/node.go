// Package doctree models a project's hierarchical document tree and the state of a sidebar that
// navigates it.
package doctree

import (
	"errors"
	"fmt"
	"strings"
)

// A Node is a folder or a document in a project's document tree.
type Node struct {
	ID    string `json:"id"`
	Slug  string `json:"slug"`
	Path  string `json:"path"`
	Title string `json:"title"`
	// Index orders siblings.
	Index    int     `json:"index"`
	IsFolder bool    `json:"is_folder"`
	Children []*Node `json:"children,omitempty"`
}

// Validate checks that every path is its parent's path joined with its slug, that paths are
// unique, and that documents have no children.
func Validate(tree []*Node) error {
	seen := map[string]bool{}

	var errs []error
	var validate func(nodes []*Node, parent string)
	validate = func(nodes []*Node, parent string) {
		for _, n := range nodes {
			want := n.Slug
			if parent != "" {
				want = parent + "/" + n.Slug
			}
			switch {
			case n.Slug == "" || strings.Contains(n.Slug, "/"):
				errs = append(errs, fmt.Errorf("node %q: invalid slug %q", n.Path, n.Slug))
			case n.Path != want:
				errs = append(errs, fmt.Errorf("node %q: expected path %q", n.Path, want))
			}
			if seen[n.Path] {
				errs = append(errs, fmt.Errorf("node %q: duplicate path", n.Path))
			}
			seen[n.Path] = true

			if !n.IsFolder && len(n.Children) != 0 {
				errs = append(errs, fmt.Errorf("document %q has children", n.Path))
			}
			validate(n.Children, n.Path)
		}
	}
	validate(tree, "")
	return errors.Join(errs...)
}

// Find returns the node with the given path.
func Find(tree []*Node, path string) (*Node, bool) {
	for _, n := range tree {
		if n.Path == path {
			return n, true
		}
		if n.IsFolder {
			if found, ok := Find(n.Children, path); ok {
				return found, true
			}
		}
	}
	return nil, false
}

// AncestorPaths returns the paths of the folders that contain the node with the given path, from
// the root down. It returns nil if no node has that path.
func AncestorPaths(tree []*Node, path string) []string {
	var find func(nodes []*Node, ancestors []string) ([]string, bool)
	find = func(nodes []*Node, ancestors []string) ([]string, bool) {
		for _, n := range nodes {
			if n.Path == path {
				return ancestors, true
			}
			if n.IsFolder && len(n.Children) != 0 {
				if found, ok := find(n.Children, append(ancestors[:len(ancestors):len(ancestors)], n.Path)); ok {
					return found, true
				}
			}
		}
		return nil, false
	}

	ancestors, ok := find(tree, nil)
	if !ok || len(ancestors) == 0 {
		return nil
	}
	return ancestors
}

// Count returns the number of folders and documents in the tree.
func Count(tree []*Node) (folders, documents int) {
	for _, n := range tree {
		if n.IsFolder {
			folders++
			f, d := Count(n.Children)
			folders, documents = folders+f, documents+d
		} else {
			documents++
		}
	}
	return folders, documents
}
