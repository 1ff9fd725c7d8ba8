package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// KindMermaidBlock is the NodeKind of MermaidBlock.
var KindMermaidBlock = ast.NewNodeKind("MermaidBlock")

// A MermaidBlock replaces a fenced code block whose language is "mermaid". It renders as a
// container that is filled in with a diagram after rendering.
type MermaidBlock struct {
	ast.BaseBlock

	// Definition is the verbatim diagram source.
	Definition string
}

// Kind implements ast.Node.Kind.
func (n *MermaidBlock) Kind() ast.NodeKind {
	return KindMermaidBlock
}

// Dump implements ast.Node.Dump.
func (n *MermaidBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Definition": n.Definition}, nil)
}

// IsMermaid reports whether a fenced code block info string names the mermaid language.
func IsMermaid(info string) bool {
	fields := strings.Fields(info)
	return len(fields) > 0 && strings.EqualFold(fields[0], "mermaid")
}

// mermaidTransformer swaps mermaid fenced code blocks for MermaidBlocks before rendering, so the
// code block renderer never sees them.
type mermaidTransformer struct{}

func (mermaidTransformer) Transform(document *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()

	var blocks []*ast.FencedCodeBlock
	_ = ast.Walk(document, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if block, ok := n.(*ast.FencedCodeBlock); ok {
			if block.Info != nil && IsMermaid(string(block.Info.Segment.Value(source))) {
				blocks = append(blocks, block)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	for _, block := range blocks {
		mermaid := &MermaidBlock{Definition: string(codeLines(block, source))}
		mermaid.SetBlankPreviousLines(block.HasBlankPreviousLines())
		block.Parent().ReplaceChild(block.Parent(), block, mermaid)
	}
}

type mermaidRenderer struct{}

func (mermaidRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindMermaidBlock, renderMermaid)
}

func renderMermaid(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*MermaidBlock)
	_, _ = w.WriteString(`<div data-mermaid="" class="mermaid-container"><div class="mermaid-source"><code>`)
	_, _ = w.Write(util.EscapeHTML([]byte(n.Definition)))
	_, _ = w.WriteString("</code></div></div>\n")
	return ast.WalkSkipChildren, nil
}

// codeLines returns the content of a code block.
func codeLines(n ast.Node, source []byte) []byte {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(source))
	}
	return buf.Bytes()
}
