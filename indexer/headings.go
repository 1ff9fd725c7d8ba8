package indexer

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark/ast"
)

// A Heading describes a table of contents entry.
type Heading struct {
	// ID is the anchor of the heading. It matches the id assigned by the markdown package.
	ID string `json:"id"`
	// Text is the trimmed heading text. Inline markup is preserved verbatim.
	Text string `json:"text"`
	// Level is the heading depth: 2, 3 or 4.
	Level int `json:"level"`
}

var (
	atxHeadingRegexp    = regexp.MustCompile(`^ {0,3}(#{1,6})(?:[ \t]+(.*))?$`)
	closingSequence     = regexp.MustCompile(`(?:^|[ \t]+)#+[ \t]*$`)
	setextRegexp        = regexp.MustCompile(`^ {0,3}(=+|-+)[ \t]*$`)
	fenceRegexp         = regexp.MustCompile("^ {0,3}(`{3,}|~{3,})")
	quoteRegexp         = regexp.MustCompile(`^ {0,3}> ?`)
	thematicBreakRegexp = regexp.MustCompile(`^ {0,3}(?:(?:\*[ \t]*){3,}|(?:_[ \t]*){3,}|(?:-[ \t]*){3,})$`)
	listItemRegexp      = regexp.MustCompile(`^ {0,3}(?:[-+*]|\d{1,9}[.)])(?:[ \t]|$)`)
	definitionRegexp    = regexp.MustCompile(`^ {0,3}\[((?:[^\]\\]|\\.)+)\]:[ \t]*\S`)
	frontMatterRegexp   = regexp.MustCompile(`^[ \t]*-{3,}[ \t]*$`)
	imageRegexp         = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	linkRegexp          = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	referenceLinkRegexp = regexp.MustCompile(`\[([^\]]*)\]\[([^\]]*)\]`)
	autolinkRegexp      = regexp.MustCompile(`<((?:[A-Za-z][A-Za-z0-9+.\-]{1,31}:[^<>\s]*)|(?:[^<>\s@]+@[^<>\s]+))>`)
	rawHTMLRegexp       = regexp.MustCompile(`</?[A-Za-z][A-Za-z0-9\-]*(?:\s[^<>]*)?/?>`)
	underscoreEmRegexp  = regexp.MustCompile(`(^|[^\p{L}\p{N}_])_{1,3}([^_\s](?:.*?[^_\s])?)_{1,3}($|[^\p{L}\p{N}_])`)
)

// ExtractHeadings scans raw Markdown for headings of levels 2 through 4 and returns them in
// document order. Level 1 and level 5 and deeper headings are not returned, but every heading,
// ATX or setext and inside block quotes, takes part in anchor disambiguation so that the returned
// IDs agree with the anchors assigned when the document is rendered. Front matter and lines inside
// fenced code blocks are ignored.
func ExtractHeadings(markdown string) []Heading {
	lines := strings.Split(markdown, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	lines = skipFrontMatter(lines)

	s := &scanner{slugger: NewSlugger(nil), definitions: linkDefinitions(lines)}
	for _, line := range lines {
		s.scan(line)
	}
	return s.headings
}

// scanner tracks the block structure needed to recognize headings line by line.
type scanner struct {
	slugger     *Slugger
	definitions map[string]bool
	headings    []Heading

	fence      string
	fenceDepth int
	depth      int
	// paragraph holds the lines of the open paragraph, which a setext underline turns into a
	// heading.
	paragraph []string
}

func (s *scanner) scan(line string) {
	if s.fence != "" {
		rest, ok := stripQuotes(line, s.fenceDepth)
		if ok {
			if m := fenceRegexp.FindStringSubmatch(rest); m != nil && closesFence(m[1], s.fence) && strings.TrimSpace(rest[len(m[0]):]) == "" {
				s.fence = ""
			}
			return
		}
		// the block quote holding the fence ended
		s.fence = ""
	}

	depth, rest := quoteDepth(line)
	if depth != s.depth {
		s.depth, s.paragraph = depth, nil
	}

	if m := fenceRegexp.FindStringSubmatch(rest); m != nil {
		s.fence, s.fenceDepth, s.paragraph = m[1], depth, nil
		return
	}
	if m := atxHeadingRegexp.FindStringSubmatch(rest); m != nil {
		s.paragraph = nil
		s.add(len(m[1]), closingSequence.ReplaceAllString(m[2], ""))
		return
	}
	if m := setextRegexp.FindStringSubmatch(rest); m != nil && len(s.paragraph) > 0 {
		level := 2
		if m[1][0] == '=' {
			level = 1
		}
		text := strings.Join(s.paragraph, " ")
		s.paragraph = nil
		s.add(level, text)
		return
	}

	switch {
	case strings.TrimSpace(rest) == "", thematicBreakRegexp.MatchString(rest), listItemRegexp.MatchString(rest):
		s.paragraph = nil
	case len(s.paragraph) == 0 && (isIndentedCode(rest) || definitionRegexp.MatchString(rest)):
		// indented code and link reference definitions do not start paragraphs
	default:
		s.paragraph = append(s.paragraph, strings.TrimSpace(rest))
	}
}

func (s *scanner) add(level int, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	id := s.slugger.Slug(plainText(text, s.definitions))
	if id == "" || level < 2 || level > 4 {
		return
	}
	s.headings = append(s.headings, Heading{ID: id, Text: text, Level: level})
}

func closesFence(marker, fence string) bool {
	return marker[0] == fence[0] && len(marker) >= len(fence)
}

func isIndentedCode(line string) bool {
	return strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t")
}

// quoteDepth strips the block quote markers from line and returns their number.
func quoteDepth(line string) (int, string) {
	depth := 0
	for {
		loc := quoteRegexp.FindStringIndex(line)
		if loc == nil {
			return depth, line
		}
		depth, line = depth+1, line[loc[1]:]
	}
}

// stripQuotes strips exactly n block quote markers from line. It reports false if line has fewer.
func stripQuotes(line string, n int) (string, bool) {
	for range n {
		loc := quoteRegexp.FindStringIndex(line)
		if loc == nil {
			return "", false
		}
		line = line[loc[1]:]
	}
	return line, true
}

// skipFrontMatter drops a leading front matter block delimited by lines of dashes. An unterminated
// block extends to the end of the document.
func skipFrontMatter(lines []string) []string {
	if len(lines) == 0 || !frontMatterRegexp.MatchString(lines[0]) {
		return lines
	}
	for i := 1; i < len(lines); i++ {
		if frontMatterRegexp.MatchString(lines[i]) {
			return lines[i+1:]
		}
	}
	return nil
}

// linkDefinitions returns the normalized labels of the link reference definitions in lines.
func linkDefinitions(lines []string) map[string]bool {
	definitions := map[string]bool{}
	for _, line := range lines {
		_, rest := quoteDepth(line)
		if m := definitionRegexp.FindStringSubmatch(rest); m != nil {
			definitions[normalizeLabel(m[1])] = true
		}
	}
	return definitions
}

func normalizeLabel(label string) string {
	return strings.ToLower(strings.Join(strings.Fields(label), " "))
}

// plainText approximates the text content of a heading's inline markup: code span contents are
// kept as-is, link and image destinations are dropped, reference links to defined labels keep
// their text, autolinks keep their label, raw HTML tags disappear and underscore emphasis
// delimiters are removed.
func plainText(inline string, definitions map[string]bool) string {
	var b strings.Builder
	for inline != "" {
		start := strings.IndexByte(inline, '`')
		if start == -1 {
			b.WriteString(stripInline(inline, definitions))
			break
		}
		b.WriteString(stripInline(inline[:start], definitions))

		n := 0
		for start+n < len(inline) && inline[start+n] == '`' {
			n++
		}
		rest := inline[start+n:]
		end := closingBackticks(rest, n)
		if end == -1 {
			b.WriteString(inline[start : start+n])
			inline = rest
			continue
		}

		code := rest[:end]
		if len(code) >= 2 && code[0] == ' ' && code[len(code)-1] == ' ' && strings.Trim(code, " ") != "" {
			code = code[1 : len(code)-1]
		}
		b.WriteString(code)
		inline = rest[end+n:]
	}
	return b.String()
}

// closingBackticks returns the offset of the first run of exactly n backticks in s, or -1.
func closingBackticks(s string, n int) int {
	for i := 0; i < len(s); {
		if s[i] != '`' {
			i++
			continue
		}
		j := i
		for j < len(s) && s[j] == '`' {
			j++
		}
		if j-i == n {
			return i
		}
		i = j
	}
	return -1
}

func stripInline(s string, definitions map[string]bool) string {
	s = imageRegexp.ReplaceAllString(s, "$1")
	s = linkRegexp.ReplaceAllString(s, "$1")
	s = referenceLinkRegexp.ReplaceAllStringFunc(s, func(link string) string {
		m := referenceLinkRegexp.FindStringSubmatch(link)
		label := m[2]
		if label == "" {
			label = m[1]
		}
		if !definitions[normalizeLabel(label)] {
			return link
		}
		return m[1]
	})
	s = autolinkRegexp.ReplaceAllString(s, "$1")
	s = rawHTMLRegexp.ReplaceAllString(s, "")
	for {
		next := underscoreEmRegexp.ReplaceAllString(s, "$1$2$3")
		if next == s {
			return s
		}
		s = next
	}
}

// HeadingText returns the plain text of a heading node: the contents of its text, code span and
// link descendants, the labels of autolinks and the alternative text of images. Raw HTML is
// skipped.
func HeadingText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	writeText(&buf, n, source)
	return buf.String()
}

func writeText(buf *bytes.Buffer, n ast.Node, source []byte) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			buf.Write(c.Segment.Value(source))
			if c.SoftLineBreak() || c.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(c.Value)
		case *ast.AutoLink:
			buf.Write(c.Label(source))
		case *ast.RawHTML:
			// tags carry no text
		default:
			writeText(buf, c, source)
		}
	}
}
