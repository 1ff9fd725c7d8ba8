// Package markdown converts Markdown documents to HTML. Documents are parsed as GitHub Flavored
// Markdown, mermaid code blocks become diagram containers, headings receive ids and anchor links,
// and code blocks are highlighted with both a light and a dark theme.
package markdown

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"html"
	"log/slog"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/ragxuary/docs-kit/highlight"
	"github.com/ragxuary/docs-kit/indexer"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// An Option configures a Processor.
type Option func(p *Processor)

// WithAnchorLinks controls whether headings receive ids and a leading anchor link. Anchors are
// enabled by default.
func WithAnchorLinks(enabled bool) Option {
	return func(p *Processor) {
		p.anchorLinks = enabled
	}
}

// WithHighlighter sets the highlighter used for code blocks. The default is highlight.Default().
func WithHighlighter(h *highlight.Highlighter) Option {
	return func(p *Processor) {
		p.highlighter = h
	}
}

// WithTransformers sets the transformers applied to every code block.
func WithTransformers(transformers ...highlight.Transformer) Option {
	return func(p *Processor) {
		p.transformers = transformers
	}
}

// WithRawHTML controls the treatment of raw HTML in documents. By default raw HTML is omitted.
// When enabled, raw HTML is sanitized with a policy for user generated content.
func WithRawHTML(enabled bool) Option {
	return func(p *Processor) {
		p.rawHTML = enabled
	}
}

// WithLogger sets the logger that receives render failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// A Processor renders Markdown to HTML. A Processor is safe for concurrent use.
type Processor struct {
	anchorLinks  bool
	rawHTML      bool
	highlighter  *highlight.Highlighter
	transformers []highlight.Transformer
	logger       *slog.Logger

	md goldmark.Markdown
}

// New creates a Processor.
func New(options ...Option) *Processor {
	p := &Processor{anchorLinks: true}
	for _, o := range options {
		o(p)
	}
	if p.highlighter == nil {
		p.highlighter = highlight.Default()
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}

	nodeRenderers := []util.PrioritizedValue{
		util.Prioritized(&headingRenderer{anchorLinks: p.anchorLinks}, 100),
		util.Prioritized(&codeBlockRenderer{highlighter: p.highlighter, transformers: p.transformers}, 100),
		util.Prioritized(mermaidRenderer{}, 100),
	}
	if p.rawHTML {
		nodeRenderers = append(nodeRenderers, util.Prioritized(&rawHTMLRenderer{policy: bluemonday.UGCPolicy()}, 100))
	}

	p.md = goldmark.New(
		goldmark.WithExtensions(extension.GFM, meta.Meta),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(util.Prioritized(mermaidTransformer{}, 100)),
		),
		goldmark.WithRendererOptions(renderer.WithNodeRenderers(nodeRenderers...)),
	)
	return p
}

// AnchorLinks reports whether headings receive ids and anchor links.
func (p *Processor) AnchorLinks() bool {
	return p.anchorLinks
}

// Highlighter returns the highlighter used for code blocks.
func (p *Processor) Highlighter() *highlight.Highlighter {
	return p.highlighter
}

// Process renders src to HTML. Process never fails: if rendering fails, the result is the escaped
// source in a <pre> element.
func (p *Processor) Process(src string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("markdown render panicked", "panic", r)
			out = fallback(src)
		}
	}()

	source := []byte(src)
	document := p.md.Parser().Parse(text.NewReader(source), parser.WithContext(parser.NewContext()))
	if p.anchorLinks {
		assignHeadingIDs(document, source)
	}

	var buf bytes.Buffer
	if err := p.md.Renderer().Render(&buf, source, document); err != nil {
		p.logger.Error("markdown render failed", "error", err)
		return fallback(src)
	}
	return buf.String()
}

// Headings returns the table of contents entries of src, using the same anchors as Process.
func (p *Processor) Headings(src string) []indexer.Heading {
	source := []byte(src)
	document := p.md.Parser().Parse(text.NewReader(source), parser.WithContext(parser.NewContext()))
	return indexer.Index(document, source).Headings()
}

// Process renders src with a Processor configured by options.
func Process(src string, options ...Option) string {
	return New(options...).Process(src)
}

// assignHeadingIDs sets the id attribute of every heading with a non-empty anchor.
func assignHeadingIDs(document ast.Node, source []byte) {
	for _, section := range indexer.Index(document, source).Sections() {
		if heading := section.Heading(); heading != nil && section.Anchor != "" {
			heading.SetAttributeString("id", []byte(section.Anchor))
		}
	}
}

func fallback(src string) string {
	return "<pre>" + html.EscapeString(src) + "</pre>"
}

// Frontmatter returns the YAML front matter of src, or nil if it has none or it is invalid.
func Frontmatter(src string) map[string]any {
	data, _ := parseMeta([]byte(src))
	return data
}

// Title returns the title of src: the front matter title if present, else the text of the first
// level 1 heading. It returns "" if src has neither.
func Title(src string) string {
	data, document := parseMeta([]byte(src))
	if title, ok := data["title"].(string); ok && strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title)
	}

	var title string
	ast.Walk(document, func(n ast.Node, enter bool) (ast.WalkStatus, error) {
		if h, ok := n.(*ast.Heading); ok && enter && h.Level == 1 {
			title = strings.TrimSpace(indexer.HeadingText(h, []byte(src)))
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return title
}

var metaParser = goldmark.New(goldmark.WithExtensions(meta.Meta)).Parser()

func parseMeta(source []byte) (map[string]any, ast.Node) {
	ctx := parser.NewContext()
	document := metaParser.Parse(text.NewReader(source), parser.WithContext(ctx))

	data, err := meta.TryGet(ctx)
	if err != nil || len(data) == 0 {
		return nil, document
	}
	return data, document
}

// CacheKey returns a stable key for the output of Process on src with the given options.
func (p *Processor) CacheKey(src string) string {
	light, dark := p.highlighter.Themes()
	names := make([]string, len(p.transformers))
	for i, t := range p.transformers {
		names[i] = t.Name()
	}
	sort.Strings(names)

	h := sha256.New()
	fmt.Fprintf(h, "anchors=%t\x00raw=%t\x00themes=%s,%s\x00plain=%t\x00transformers=%s\x00",
		p.anchorLinks, p.rawHTML, light, dark, p.highlighter.Err() != nil, strings.Join(names, ","))
	h.Write([]byte(src))
	return hex.EncodeToString(h.Sum(nil))
}
