package enhance

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// A CodeBlock describes an enhanced code block.
type CodeBlock struct {
	// Language is the language label, or "" if the block has none.
	Language string `json:"language"`
	// Text is the text content of the code element, which is what the copy button copies.
	Text string `json:"text"`
}

const enhancedAttr = "data-enhanced"

// CodeBlocks injects a header holding a language label and a copy button before the <code> of
// every <pre> that has not been enhanced yet. It returns the newly enhanced blocks in document
// order; calling it again returns nothing and leaves the document unchanged.
func (d *Document) CodeBlocks() []CodeBlock {
	var blocks []CodeBlock
	for _, pre := range findAll(d.root, isElement(atom.Pre)) {
		if _, ok := getAttr(pre, enhancedAttr); ok {
			continue
		}
		if find(pre, withAttr("data-code-header")) != nil {
			continue
		}
		code := childElement(pre, atom.Code)
		if code == nil {
			continue
		}

		block := CodeBlock{Language: language(pre, code), Text: textContent(code)}
		pre.InsertBefore(codeHeader(block.Language), code)
		setAttr(pre, enhancedAttr, "")
		blocks = append(blocks, block)
	}
	return blocks
}

// Strip removes every injected header and enhancement marker.
func (d *Document) Strip() {
	for _, header := range findAll(d.root, withAttr("data-code-header")) {
		header.Parent.RemoveChild(header)
	}
	for _, pre := range findAll(d.root, withAttr(enhancedAttr)) {
		removeAttr(pre, enhancedAttr)
	}
}

func childElement(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return c
		}
	}
	return nil
}

// language reads the data-language attribute of the <pre>, falling back to a language-* class
// on the <code>.
func language(pre, code *html.Node) string {
	if lang, ok := getAttr(pre, "data-language"); ok && lang != "" {
		return lang
	}
	classes, _ := getAttr(code, "class")
	for _, c := range strings.Fields(classes) {
		if lang, ok := strings.CutPrefix(c, "language-"); ok && lang != "" {
			return lang
		}
	}
	return ""
}

func codeHeader(lang string) *html.Node {
	header := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr:     []html.Attribute{{Key: "data-code-header", Val: ""}},
	}

	label := &html.Node{
		Type:     html.ElementNode,
		Data:     "span",
		DataAtom: atom.Span,
		Attr:     []html.Attribute{{Key: "class", Val: "code-language"}},
	}
	label.AppendChild(&html.Node{Type: html.TextNode, Data: lang})
	header.AppendChild(label)

	button := &html.Node{
		Type:     html.ElementNode,
		Data:     "button",
		DataAtom: atom.Button,
		Attr: []html.Attribute{
			{Key: "type", Val: "button"},
			{Key: "class", Val: "code-copy"},
			{Key: "data-copy-code", Val: ""},
			{Key: "aria-label", Val: "Copy code"},
		},
	}
	button.AppendChild(&html.Node{Type: html.TextNode, Data: "Copy"})
	header.AppendChild(button)

	return header
}
