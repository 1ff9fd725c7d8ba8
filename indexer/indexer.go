package indexer

import (
	"github.com/yuin/goldmark/ast"
)

// An IndexOption affects the behavior of the Index function.
type IndexOption func(i *indexer)

// WithAnchors configures the AnchorFunc used by the indexer to convert heading text into base
// anchors. Duplicate anchors are always disambiguated.
func WithAnchors(anchors AnchorFunc) IndexOption {
	return func(i *indexer) {
		i.slugger = NewSlugger(anchors)
	}
}

type indexer struct {
	slugger *Slugger
	source  []byte

	sectionStack []*Section
	sections     []*Section
	anchors      map[string]*Section
}

func (i *indexer) walk(n ast.Node, enter bool) (ast.WalkStatus, error) {
	if !enter {
		return ast.WalkContinue, nil
	}
	heading, ok := n.(*ast.Heading)
	if !ok {
		return ast.WalkContinue, nil
	}

	text := HeadingText(heading, i.source)
	newSection := &Section{
		ID:     len(i.sections) + 1,
		Level:  heading.Level,
		Anchor: i.slugger.Slug(text),
		Text:   text,
		Start:  heading,
	}
	i.sections = append(i.sections, newSection)
	if newSection.Anchor != "" {
		i.anchors[newSection.Anchor] = newSection
	}

	currentSection := i.sectionStack[len(i.sectionStack)-1]
	for heading.Level <= currentSection.Level {
		currentSection.End = heading

		i.sectionStack = i.sectionStack[:len(i.sectionStack)-1]
		currentSection = i.sectionStack[len(i.sectionStack)-1]
	}
	parent := currentSection

	parent.Subsections = append(parent.Subsections, newSection)
	i.sectionStack = append(i.sectionStack, newSection)
	return ast.WalkSkipChildren, nil
}

// Index walks a Document, converts the text of each heading to a unique anchor, and returns a
// DocumentIndex that maps from anchors to sections. Headings are converted to GitHub Flavored
// Markdown anchors by default. Each section begins with its heading and ends at the next heading
// of the same or a shallower level, or at the end of the document.
func Index(document ast.Node, source []byte, options ...IndexOption) *DocumentIndex {
	indexer := &indexer{
		slugger:      NewSlugger(nil),
		source:       source,
		sectionStack: []*Section{{Start: document.FirstChild()}},
		anchors:      map[string]*Section{},
	}
	for _, o := range options {
		o(indexer)
	}

	_ = ast.Walk(document, indexer.walk)

	return &DocumentIndex{
		toc:      indexer.sectionStack[0],
		sections: indexer.sections,
		anchors:  indexer.anchors,
	}
}

// A Section represents a collection of nodes under a Heading (or the start of the document).
type Section struct {
	ID     int
	Level  int
	Anchor string
	Text   string

	Start ast.Node
	End   ast.Node

	Subsections []*Section
}

// Heading returns the section's heading node, or nil for the document root.
func (s *Section) Heading() *ast.Heading {
	if h, ok := s.Start.(*ast.Heading); ok && s.Level > 0 {
		return h
	}
	return nil
}

// Walk calls ast.Walk on each node in the section.
func (s *Section) Walk(walker ast.Walker) error {
	for cursor := s.Start; cursor != nil && cursor != s.End; cursor = cursor.NextSibling() {
		if err := ast.Walk(cursor, walker); err != nil {
			return err
		}
	}
	return nil
}

// A DocumentIndex maps from anchors to Sections.
type DocumentIndex struct {
	toc      *Section
	sections []*Section
	anchors  map[string]*Section
}

// TableOfContents returns the root of the document's section tree.
func (index *DocumentIndex) TableOfContents() *Section {
	return index.toc
}

// Sections returns every heading section in document order.
func (index *DocumentIndex) Sections() []*Section {
	return index.sections
}

// Lookup returns the section with the given anchor.
func (index *DocumentIndex) Lookup(anchor string) (*Section, bool) {
	section, ok := index.anchors[anchor]
	return section, ok
}

// Headings returns the table of contents entries (levels 2 through 4) of the index.
func (index *DocumentIndex) Headings() []Heading {
	var headings []Heading
	for _, s := range index.sections {
		if s.Level < 2 || s.Level > 4 || s.Anchor == "" {
			continue
		}
		headings = append(headings, Heading{ID: s.Anchor, Text: s.Text, Level: s.Level})
	}
	return headings
}
