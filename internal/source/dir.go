package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/ragxuary/docs-kit/doctree"
	"github.com/ragxuary/docs-kit/markdown"
)

const markdownExt = ".md"

// Dir reads projects from a directory tree. Each subdirectory of the root is a project; inside
// a project, directories are folders and .md files are documents.
type Dir struct {
	fsys fs.FS
}

// NewDir returns a Dir rooted at the given directory.
func NewDir(root string) *Dir {
	return &Dir{fsys: os.DirFS(root)}
}

// NewDirFS returns a Dir that reads projects from fsys.
func NewDirFS(fsys fs.FS) *Dir {
	return &Dir{fsys: fsys}
}

// Tree implements Source. Folders sort before documents, and siblings sort by name.
func (d *Dir) Tree(ctx context.Context, project string) ([]*doctree.Node, error) {
	if !validName(project) {
		return nil, fmt.Errorf("project %q: %w", project, ErrNotFound)
	}
	info, err := fs.Stat(d.fsys, project)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("project %q: %w", project, ErrNotFound)
	}
	return d.readFolder(ctx, project, "")
}

func (d *Dir) readFolder(ctx context.Context, project, parent string) ([]*doctree.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := fs.ReadDir(d.fsys, path.Join(project, parent))
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path.Join(project, parent), err)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return entries[i].Name() < entries[j].Name()
	})

	nodes := []*doctree.Node{}
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		var slug string
		switch {
		case e.IsDir():
			slug = name
		case strings.HasSuffix(name, markdownExt) && e.Type().IsRegular():
			slug = strings.TrimSuffix(name, markdownExt)
		default:
			continue
		}
		if slug == "" {
			continue
		}

		p := slug
		if parent != "" {
			p = parent + "/" + slug
		}
		n := &doctree.Node{ID: p, Slug: slug, Path: p, Title: slug, Index: len(nodes), IsFolder: e.IsDir()}
		if n.IsFolder {
			if n.Children, err = d.readFolder(ctx, project, p); err != nil {
				return nil, err
			}
		} else {
			content, err := fs.ReadFile(d.fsys, path.Join(project, p+markdownExt))
			if err != nil {
				return nil, fmt.Errorf("reading %q: %w", p, err)
			}
			n.Title = Title(string(content), slug)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// Document implements Source.
func (d *Dir) Document(ctx context.Context, project, docPath string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validName(project) || docPath == "" || docPath == "." || !fs.ValidPath(docPath) {
		return nil, fmt.Errorf("document %q: %w", docPath, ErrNotFound)
	}
	name := path.Join(project, docPath+markdownExt)

	info, err := fs.Stat(d.fsys, name)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.Mode().IsRegular()) {
		return nil, fmt.Errorf("document %q: %w", docPath, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("document %q: %w", docPath, err)
	}
	content, err := fs.ReadFile(d.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("reading document %q: %w", docPath, err)
	}

	return &Document{
		Path:      docPath,
		Title:     Title(string(content), path.Base(docPath)),
		Content:   string(content),
		UpdatedAt: info.ModTime().UTC(),
	}, nil
}

func validName(name string) bool {
	return name != "" && name != "." && !strings.Contains(name, "/") && fs.ValidPath(name)
}

// Title returns the title of a Markdown document: the front matter title, else the text of the
// first level 1 heading, else fallback.
func Title(content, fallback string) string {
	if title := markdown.Title(content); title != "" {
		return title
	}
	return fallback
}
