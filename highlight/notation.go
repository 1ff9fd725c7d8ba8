package highlight

import (
	"regexp"
	"strconv"
)

// A Transformer rewrites the lines of a code block before tokenization and records classes for
// lines and for the enclosing <pre>. A Transformer removes only its own notation comments, so
// several transformers may be applied in any order.
type Transformer interface {
	Name() string
	Transform(lines []string, notes *Annotations) []string
}

// notation matches a `[!code word]` comment, optionally followed by `:N` to cover N lines.
type notation struct {
	name     string
	marker   *regexp.Regexp
	classes  map[string][]string
	preClass string
}

func newNotation(name, words, preClass string, classes map[string][]string) *notation {
	return &notation{
		name:     name,
		marker:   regexp.MustCompile(`[ \t]*(?://|#|--|;|<!--|/\*)[ \t]*\[!code (` + words + `)(?::(\d+))?\][ \t]*(?:-->|\*/)?`),
		classes:  classes,
		preClass: preClass,
	}
}

func (n *notation) Name() string {
	return n.name
}

func (n *notation) Transform(lines []string, notes *Annotations) []string {
	out := make([]string, len(lines))
	matched := false
	for i, line := range lines {
		for _, m := range n.marker.FindAllStringSubmatch(line, -1) {
			count := 1
			if m[2] != "" {
				if c, err := strconv.Atoi(m[2]); err == nil && c > 0 {
					count = c
				}
			}
			for j := 0; j < count; j++ {
				notes.AddLineClass(i+j, n.classes[m[1]]...)
			}
			matched = true
		}
		out[i] = n.marker.ReplaceAllString(line, "")
	}
	if matched {
		notes.AddPreClass(n.preClass)
	}
	return out
}

// NotationDiff marks lines annotated with `// [!code ++]` or `// [!code --]` as added or removed.
// Marked lines receive the classes "diff add" or "diff remove" and the <pre> receives "has-diff".
func NotationDiff() Transformer {
	return newNotation("notation-diff", `\+\+|--`, "has-diff", map[string][]string{
		"++": {"diff", "add"},
		"--": {"diff", "remove"},
	})
}

// NotationHighlight marks lines annotated with `// [!code highlight]` or `// [!code hl]`. Marked
// lines receive the class "highlighted" and the <pre> receives "has-highlighted".
func NotationHighlight() Transformer {
	return newNotation("notation-highlight", `highlight|hl`, "has-highlighted", map[string][]string{
		"highlight": {"highlighted"},
		"hl":        {"highlighted"},
	})
}

// EditorTransformers returns the transformers used for code blocks inside the Markdown editor
// preview.
func EditorTransformers() []Transformer {
	return []Transformer{NotationDiff(), NotationHighlight()}
}
