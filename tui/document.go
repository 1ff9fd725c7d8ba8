package tui

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	xansi "github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/ragxuary/docs-kit/indexer"
	"github.com/ragxuary/docs-kit/markdown"
	"github.com/ragxuary/docs-kit/scrollspy"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	meta "github.com/yuin/goldmark-meta"
)

// The extensions glamour parses with, plus front matter.
var parser = goldmark.New(goldmark.WithExtensions(extension.GFM, extension.DefinitionList, meta.Meta)).Parser()

// document is a loaded document prepared for display.
type document struct {
	path     string
	title    string
	source   []byte
	root     ast.Node
	index    *indexer.DocumentIndex
	headings []indexer.Heading

	rendered  string
	positions []scrollspy.Position
}

func newDocument(path, title, content string) *document {
	source := []byte(content)
	root := parser.Parse(text.NewReader(source))
	index := indexer.Index(root, source)
	return &document{
		path:     path,
		title:    title,
		source:   source,
		root:     root,
		index:    index,
		headings: index.Headings(),
	}
}

// render lays the document out for the given width with a glamour style and locates its headings
// in the output. The parsed document is rendered as is, so front matter never reaches the screen.
func (d *document) render(style string, width int) error {
	config, ok := styles.DefaultStyles[style]
	if !ok {
		return fmt.Errorf("unknown style %q", style)
	}
	r := renderer.NewRenderer(renderer.WithNodeRenderers(util.Prioritized(ansi.NewRenderer(ansi.Options{
		WordWrap:     width,
		ColorProfile: termenv.TrueColor,
		Styles:       *config,
	}), 1000)))

	var buf bytes.Buffer
	if err := r.Render(&buf, d.source, d.root); err != nil {
		return err
	}
	d.rendered = buf.String()
	d.positions = headingPositions(d.rendered, d.index)
	return nil
}

// headingPositions finds the line of each table of contents heading in rendered output. Headings
// are matched in document order by their text.
func headingPositions(rendered string, index *indexer.DocumentIndex) []scrollspy.Position {
	lines := strings.Split(xansi.Strip(rendered), "\n")

	var positions []scrollspy.Position
	line := 0
	for _, section := range index.Sections() {
		want := strings.TrimSpace(section.Text)
		if want == "" {
			continue
		}
		for i := line; i < len(lines); i++ {
			if strings.Contains(lines[i], want) {
				line = i
				if section.Level >= 2 && section.Level <= 4 && section.Anchor != "" {
					positions = append(positions, scrollspy.Position{ID: section.Anchor, Top: i, Height: 1})
				}
				line++
				break
			}
		}
	}
	return positions
}

// sectionCode returns the first code block of the section with the given anchor, or of the whole
// document if anchor is empty. Diagram blocks are skipped.
func (d *document) sectionCode(anchor string) (string, bool) {
	section := d.index.TableOfContents()
	if anchor != "" {
		s, ok := d.index.Lookup(anchor)
		if !ok {
			return "", false
		}
		section = s
	}

	source := d.source
	var code string
	var found bool
	section.Walk(func(n ast.Node, enter bool) (ast.WalkStatus, error) {
		if !enter || found {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.FencedCodeBlock:
			if markdown.IsMermaid(string(n.Language(source))) {
				return ast.WalkSkipChildren, nil
			}
			code, found = blockText(n, source), true
		case *ast.CodeBlock:
			code, found = blockText(n, source), true
		}
		if found {
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return code, found
}

func blockText(n ast.Node, source []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		b.Write(segment.Value(source))
	}
	return strings.TrimSuffix(b.String(), "\n")
}
