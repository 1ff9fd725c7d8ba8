package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

func TestGitHubFlavoredMarkdown(t *testing.T) {
	cases := []struct {
		heading string
		anchor  string
	}{
		{"Hello World", "hello-world"},
		{"What's New? (2024)", "whats-new-2024"},
		{"snake_case and kebab-case", "snake_case-and-kebab-case"},
		{"Ünïcödé Héading", "ünïcödé-héading"},
		{"日本語 見出し", "日本語-見出し"},
		{"  padded  ", "--padded--"},
		{"!!!", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.anchor, GitHubFlavoredMarkdown(c.heading), c.heading)
	}
}

func TestSlugger(t *testing.T) {
	s := NewSlugger(nil)
	assert.Equal(t, "section", s.Slug("Section"))
	assert.Equal(t, "section-1", s.Slug("Section"))
	assert.Equal(t, "section-1-1", s.Slug("Section 1"))
	assert.Equal(t, "section-2", s.Slug("Section"))
	assert.Equal(t, "", s.Slug("???"))

	s.Reset()
	assert.Equal(t, "section", s.Slug("Section"))
}

func TestSlugger_CustomAnchors(t *testing.T) {
	s := NewSlugger(func(heading string) string { return "x" })
	assert.Equal(t, "x", s.Slug("a"))
	assert.Equal(t, "x-1", s.Slug("b"))
}

func TestIndex_Sections(t *testing.T) {
	const input = `# Title

Intro.

## Install

Run it.

### Linux

Use apt.

## Usage

Call it.
`
	source := []byte(input)
	document := goldmark.DefaultParser().Parse(text.NewReader(source))
	index := Index(document, source)

	toc := index.TableOfContents()
	require.Len(t, toc.Subsections, 1)
	title := toc.Subsections[0]
	assert.Equal(t, "title", title.Anchor)
	require.Len(t, title.Subsections, 2)
	assert.Equal(t, "install", title.Subsections[0].Anchor)
	assert.Equal(t, "usage", title.Subsections[1].Anchor)
	require.Len(t, title.Subsections[0].Subsections, 1)
	assert.Equal(t, "linux", title.Subsections[0].Subsections[0].Anchor)

	install, ok := index.Lookup("install")
	require.True(t, ok)
	assert.Equal(t, 2, install.Level)
	assert.Equal(t, "Install", install.Text)
	assert.NotNil(t, install.Heading())

	var paragraphs int
	err := install.Walk(func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if _, ok := n.(*ast.Paragraph); ok && entering {
			paragraphs++
		}
		return ast.WalkContinue, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, paragraphs)

	_, ok = index.Lookup("missing")
	assert.False(t, ok)

	assert.Equal(t, []Heading{
		{ID: "install", Text: "Install", Level: 2},
		{ID: "linux", Text: "Linux", Level: 3},
		{ID: "usage", Text: "Usage", Level: 2},
	}, index.Headings())
}
