// Package highlight renders code snippets to theme-agnostic HTML. Every token carries the colors
// of both a light and a dark theme as CSS variables, so switching themes is a matter of CSS and
// never requires highlighting again.
package highlight

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"sync"

	"github.com/alecthomas/chroma"
	"github.com/alecthomas/chroma/lexers"
	"github.com/ragxuary/docs-kit/styles"
)

// DefaultLanguage is used for code without a language identifier.
const DefaultLanguage = "text"

const (
	DefaultLightTheme = "everforest-light"
	DefaultDarkTheme  = "everforest-dark"
)

// A Highlighter renders code to HTML with a fixed pair of themes. A Highlighter is safe for
// concurrent use.
type Highlighter struct {
	lightName string
	darkName  string
	light     *chroma.Style
	dark      *chroma.Style

	// err is set when the highlighter could not be initialized. Such a highlighter emits escaped
	// plain text.
	err error
}

// An Option configures a Highlighter.
type Option func(h *Highlighter)

// WithThemes selects the light and dark themes by their registered chroma style names.
func WithThemes(light, dark string) Option {
	return func(h *Highlighter) {
		h.lightName, h.darkName = light, dark
	}
}

// New creates a Highlighter. It fails if either theme is not registered.
func New(options ...Option) (*Highlighter, error) {
	h := &Highlighter{lightName: DefaultLightTheme, darkName: DefaultDarkTheme}
	for _, o := range options {
		o(h)
	}

	var ok bool
	if h.light, ok = styles.Lookup(h.lightName); !ok {
		return nil, fmt.Errorf("unknown light theme %q", h.lightName)
	}
	if h.dark, ok = styles.Lookup(h.darkName); !ok {
		return nil, fmt.Errorf("unknown dark theme %q", h.darkName)
	}
	return h, nil
}

var (
	defaultOnce        sync.Once
	defaultHighlighter *Highlighter
)

// Default returns the process-wide Highlighter for the default themes. It is created on first use.
// If it cannot be initialized, the returned Highlighter degrades to escaped plain text.
func Default() *Highlighter {
	defaultOnce.Do(func() {
		h, err := New()
		if err != nil {
			h = &Highlighter{lightName: DefaultLightTheme, darkName: DefaultDarkTheme, err: err}
		}
		defaultHighlighter = h
	})
	return defaultHighlighter
}

// Err returns the initialization error of a degraded Highlighter.
func (h *Highlighter) Err() error {
	return h.err
}

// Themes returns the names of the light and dark themes.
func (h *Highlighter) Themes() (light, dark string) {
	return h.lightName, h.darkName
}

// NormalizeLanguage reduces a fenced code block info string to a language identifier.
func NormalizeLanguage(lang string) string {
	fields := strings.Fields(strings.ToLower(lang))
	if len(fields) == 0 {
		return DefaultLanguage
	}
	return fields[0]
}

// Code highlights code written in lang. Unknown languages are rendered as unhighlighted tokens.
// Transformers may annotate lines; their order does not matter. Code never fails: if the
// highlighter is degraded or tokenization fails, the result is the escaped code in a plain
// <pre><code> pair.
func (h *Highlighter) Code(code, lang string, transformers ...Transformer) (out string) {
	lang = NormalizeLanguage(lang)
	if h == nil || h.err != nil || h.light == nil || h.dark == nil {
		return Plain(code, lang)
	}
	defer func() {
		if r := recover(); r != nil {
			out = Plain(code, lang)
		}
	}()

	lines := strings.Split(strings.TrimSuffix(code, "\n"), "\n")
	notes := newAnnotations(len(lines))
	for _, t := range transformers {
		lines = t.Transform(lines, notes)
	}

	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	iterator, err := chroma.Coalesce(lexer).Tokenise(nil, strings.Join(lines, "\n")+"\n")
	if err != nil {
		return Plain(code, lang)
	}
	tokenLines := splitLines(iterator.Tokens(), len(lines))

	var b strings.Builder
	b.WriteString(`<pre class="shiki shiki-themes `)
	b.WriteString(html.EscapeString(h.lightName))
	b.WriteByte(' ')
	b.WriteString(html.EscapeString(h.darkName))
	for _, class := range notes.preClasses() {
		b.WriteByte(' ')
		b.WriteString(class)
	}
	b.WriteString(`" style="`)
	b.WriteString(h.preStyle())
	b.WriteString(`" tabindex="0" data-language="`)
	b.WriteString(html.EscapeString(lang))
	b.WriteString(`"><code class="language-`)
	b.WriteString(html.EscapeString(lang))
	b.WriteString(`">`)
	for i, tokens := range tokenLines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(`<span class="line`)
		for _, class := range notes.lineClasses(i) {
			b.WriteByte(' ')
			b.WriteString(class)
		}
		b.WriteString(`">`)
		h.writeTokens(&b, tokens)
		b.WriteString(`</span>`)
	}
	b.WriteString(`</code></pre>`)
	return b.String()
}

// Plain renders code as escaped, unhighlighted preformatted text.
func Plain(code, lang string) string {
	return `<pre><code class="language-` + html.EscapeString(NormalizeLanguage(lang)) + `">` +
		html.EscapeString(code) + `</code></pre>`
}

func (h *Highlighter) writeTokens(b *strings.Builder, tokens []chroma.Token) {
	var pendingStyle string
	var pending strings.Builder
	flush := func() {
		if pending.Len() == 0 {
			return
		}
		if pendingStyle == "" {
			b.WriteString(html.EscapeString(pending.String()))
		} else {
			b.WriteString(`<span style="`)
			b.WriteString(pendingStyle)
			b.WriteString(`">`)
			b.WriteString(html.EscapeString(pending.String()))
			b.WriteString(`</span>`)
		}
		pending.Reset()
	}

	for _, t := range tokens {
		if t.Value == "" {
			continue
		}
		style := h.tokenStyle(t.Type)
		if strings.TrimSpace(t.Value) == "" && pending.Len() > 0 {
			pending.WriteString(t.Value)
			continue
		}
		if style != pendingStyle {
			flush()
			pendingStyle = style
		}
		pending.WriteString(t.Value)
	}
	flush()
}

func (h *Highlighter) tokenStyle(ttype chroma.TokenType) string {
	var parts []string
	parts = appendEntry(parts, "--shiki-light", h.light.Get(ttype))
	parts = appendEntry(parts, "--shiki-dark", h.dark.Get(ttype))
	return strings.Join(parts, ";")
}

func appendEntry(parts []string, prefix string, entry chroma.StyleEntry) []string {
	if entry.Colour.IsSet() {
		parts = append(parts, prefix+":"+entry.Colour.String())
	}
	if entry.Italic == chroma.Yes {
		parts = append(parts, prefix+"-font-style:italic")
	}
	if entry.Bold == chroma.Yes {
		parts = append(parts, prefix+"-font-weight:bold")
	}
	if entry.Underline == chroma.Yes {
		parts = append(parts, prefix+"-text-decoration:underline")
	}
	return parts
}

func (h *Highlighter) preStyle() string {
	light, dark := h.light.Get(chroma.Background), h.dark.Get(chroma.Background)

	var parts []string
	if light.Colour.IsSet() {
		parts = append(parts, "--shiki-light:"+light.Colour.String())
	}
	if dark.Colour.IsSet() {
		parts = append(parts, "--shiki-dark:"+dark.Colour.String())
	}
	if light.Background.IsSet() {
		parts = append(parts, "--shiki-light-bg:"+light.Background.String())
	}
	if dark.Background.IsSet() {
		parts = append(parts, "--shiki-dark-bg:"+dark.Background.String())
	}
	return strings.Join(parts, ";")
}

// splitLines splits a token stream at newlines. The result always has want lines; the trailing
// newline appended before tokenization is dropped.
func splitLines(tokens []chroma.Token, want int) [][]chroma.Token {
	lines := make([][]chroma.Token, 1, want)
	for _, t := range tokens {
		parts := strings.Split(t.Value, "\n")
		for i, part := range parts {
			if i > 0 {
				lines = append(lines, nil)
			}
			if part != "" {
				lines[len(lines)-1] = append(lines[len(lines)-1], chroma.Token{Type: t.Type, Value: part})
			}
		}
	}
	for len(lines) > want {
		lines = lines[:len(lines)-1]
	}
	for len(lines) < want {
		lines = append(lines, nil)
	}
	return lines
}

// Annotations collects the classes transformers attach to lines and to the enclosing <pre>.
// Classes are emitted in a canonical order so the result does not depend on transformer order.
type Annotations struct {
	lines [][]string
	pre   []string
}

func newAnnotations(lines int) *Annotations {
	return &Annotations{lines: make([][]string, lines)}
}

// AddLineClass attaches a group of classes to the zero-based line. Groups keep their internal
// order and are sorted against each other. Out-of-range lines are ignored.
func (a *Annotations) AddLineClass(line int, classes ...string) {
	if line < 0 || line >= len(a.lines) || len(classes) == 0 {
		return
	}
	a.lines[line] = append(a.lines[line], strings.Join(classes, " "))
}

// AddPreClass attaches a class to the <pre> element.
func (a *Annotations) AddPreClass(class string) {
	a.pre = append(a.pre, class)
}

func (a *Annotations) lineClasses(line int) []string {
	if line >= len(a.lines) {
		return nil
	}
	return sortedUnique(a.lines[line])
}

func (a *Annotations) preClasses() []string {
	return sortedUnique(a.pre)
}

func sortedUnique(classes []string) []string {
	if len(classes) == 0 {
		return nil
	}
	out := append([]string(nil), classes...)
	sort.Strings(out)
	j := 0
	for i, c := range out {
		if i == 0 || c != out[j-1] {
			out[j] = c
			j++
		}
	}
	return out[:j]
}
