package enhance

import (
	"context"
	"fmt"
	"strings"

	"github.com/ragxuary/docs-kit/mermaid"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/sync/errgroup"
)

// DefaultDiagramConcurrency bounds the number of diagrams rendered at once.
const DefaultDiagramConcurrency = 4

// A DiagramResult reports the outcome of rendering one diagram container.
type DiagramResult struct {
	Definition string
	Err        error
}

// A DiagramOption configures RenderDiagrams.
type DiagramOption func(o *diagramOptions)

type diagramOptions struct {
	concurrency int
}

// WithConcurrency bounds the number of diagrams rendered at once.
func WithConcurrency(n int) DiagramOption {
	return func(o *diagramOptions) {
		o.concurrency = n
	}
}

type diagram struct {
	container  *html.Node
	source     *html.Node
	definition string
	svg        string
	err        error
}

// RenderDiagrams renders every mermaid container in the document with engine. A rendered
// container hides its source, holds the SVG in a "mermaid-diagram" element and gains the class
// "mermaid-rendered"; a container that fails to render gains the class "mermaid-error" and shows its
// definition. Any diagram left by a previous call is discarded first, so the document can be
// rendered again with another theme's engine. One failure never prevents the other diagrams from
// rendering. Containers with an empty definition are skipped.
func (d *Document) RenderDiagrams(ctx context.Context, engine mermaid.Engine, options ...DiagramOption) []DiagramResult {
	opts := diagramOptions{concurrency: DefaultDiagramConcurrency}
	for _, o := range options {
		o(&opts)
	}

	var diagrams []*diagram
	for _, container := range findAll(d.root, withAttr("data-mermaid")) {
		source := find(container, withClass("mermaid-source"))
		if source == nil {
			continue
		}
		code := find(source, isElement(atom.Code))
		if code == nil {
			continue
		}
		definition := textContent(code)
		if strings.TrimSpace(definition) == "" {
			continue
		}
		diagrams = append(diagrams, &diagram{container: container, source: source, definition: definition})
	}
	if len(diagrams) == 0 {
		return nil
	}

	// Each render writes only to its own entry; the tree is updated after all renders finish.
	g, gctx := errgroup.WithContext(ctx)
	if opts.concurrency > 0 {
		g.SetLimit(opts.concurrency)
	}
	for _, dg := range diagrams {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				dg.err = err
				return nil
			}
			dg.svg, dg.err = render(gctx, engine, dg.definition)
			return nil
		})
	}
	_ = g.Wait()

	results := make([]DiagramResult, len(diagrams))
	for i, dg := range diagrams {
		results[i] = DiagramResult{Definition: dg.definition, Err: dg.err}
		resetDiagram(dg.container, dg.source)
		if dg.err == nil {
			dg.err = attachDiagram(dg.container, dg.svg)
			results[i].Err = dg.err
		}
		if dg.err != nil {
			addClass(dg.container, "mermaid-error")
			continue
		}
		setAttr(dg.source, "hidden", "")
		addClass(dg.container, "mermaid-rendered")
	}
	return results
}

func render(ctx context.Context, engine mermaid.Engine, definition string) (svg string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rendering diagram: %v", r)
		}
	}()
	return engine.Render(ctx, definition)
}

// resetDiagram returns a container to its unrendered state.
func resetDiagram(container, source *html.Node) {
	for _, previous := range findAll(container, withClass("mermaid-diagram")) {
		previous.Parent.RemoveChild(previous)
	}
	removeClass(container, "mermaid-rendered")
	removeClass(container, "mermaid-error")
	removeAttr(source, "hidden")
}

func attachDiagram(container *html.Node, svg string) error {
	parent := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(svg), parent)
	if err != nil {
		return fmt.Errorf("parsing diagram: %w", err)
	}

	wrapper := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr:     []html.Attribute{{Key: "class", Val: "mermaid-diagram"}},
	}
	for _, n := range nodes {
		wrapper.AppendChild(n)
	}
	container.AppendChild(wrapper)
	return nil
}
