package markdown

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/ragxuary/docs-kit/highlight"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// headingRenderer writes headings with their assigned ids and, when enabled, a leading anchor
// link.
type headingRenderer struct {
	anchorLinks bool
}

func (r *headingRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindHeading, r.renderHeading)
}

func (r *headingRenderer) renderHeading(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*ast.Heading)
	if !entering {
		_, _ = w.WriteString("</h")
		_ = w.WriteByte("0123456"[n.Level])
		_, _ = w.WriteString(">\n")
		return ast.WalkContinue, nil
	}

	_, _ = w.WriteString("<h")
	_ = w.WriteByte("0123456"[n.Level])
	if n.Attributes() != nil {
		html.RenderAttributes(w, n, html.HeadingAttributeFilter)
	}
	_ = w.WriteByte('>')

	if id, ok := n.AttributeString("id"); ok && r.anchorLinks {
		if id, ok := id.([]byte); ok && len(id) != 0 {
			_, _ = w.WriteString(`<a class="anchor-link" href="#`)
			_, _ = w.Write(util.EscapeHTML(id))
			_, _ = w.WriteString(`" aria-hidden="true" tabindex="-1">#</a>`)
		}
	}
	return ast.WalkContinue, nil
}

// codeBlockRenderer highlights fenced and indented code blocks.
type codeBlockRenderer struct {
	highlighter  *highlight.Highlighter
	transformers []highlight.Transformer
}

func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderCodeBlock)
	reg.Register(ast.KindCodeBlock, r.renderCodeBlock)
}

func (r *codeBlockRenderer) renderCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	var lang string
	if n, ok := node.(*ast.FencedCodeBlock); ok {
		lang = string(n.Language(source))
	}
	_, _ = w.WriteString(r.highlighter.Code(string(codeLines(node, source)), lang, r.transformers...))
	_ = w.WriteByte('\n')
	return ast.WalkSkipChildren, nil
}

// rawHTMLRenderer passes raw HTML blocks and inline tags through a sanitizing policy.
type rawHTMLRenderer struct {
	policy *bluemonday.Policy
}

func (r *rawHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindHTMLBlock, r.renderHTMLBlock)
	reg.Register(ast.KindRawHTML, r.renderRawHTML)
}

func (r *rawHTMLRenderer) renderHTMLBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.HTMLBlock)

	var buf bytes.Buffer
	buf.Write(codeLines(n, source))
	if n.HasClosure() {
		buf.Write(n.ClosureLine.Value(source))
	}
	_, _ = w.Write(r.policy.SanitizeBytes(buf.Bytes()))
	return ast.WalkSkipChildren, nil
}

func (r *rawHTMLRenderer) renderRawHTML(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkSkipChildren, nil
	}
	n := node.(*ast.RawHTML)

	var buf bytes.Buffer
	for i := 0; i < n.Segments.Len(); i++ {
		segment := n.Segments.At(i)
		buf.Write(segment.Value(source))
	}
	_, _ = w.Write(r.policy.SanitizeBytes(buf.Bytes()))
	return ast.WalkSkipChildren, nil
}
