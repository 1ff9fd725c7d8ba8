package indexer

import (
	"strconv"
	"strings"
	"unicode"
)

// GitHubFlavoredMarkdown is an AnchorFunc that transforms heading text into GitHub Flavored
// Markdown anchors. Heading text is converted to a GFM anchor by first converting all text
// to lowercase, removing every rune that is not a letter, mark, number, connector punctuation,
// space or hyphen, and then replacing all spaces with hyphens.
//
// Ref: https://github.com/Flet/github-slugger
func GitHubFlavoredMarkdown(heading string) string {
	heading = strings.ToLower(heading)

	var b strings.Builder
	b.Grow(len(heading))
	for _, r := range heading {
		switch {
		case r == ' ':
			b.WriteByte('-')
		case r == '-',
			unicode.IsLetter(r),
			unicode.IsMark(r),
			unicode.IsNumber(r),
			unicode.Is(unicode.Pc, r):
			b.WriteRune(r)
		}
	}
	return b.String()
}

// An AnchorFunc is a function that converts raw header text into an anchor that is appropriate
// for use in a URL.
type AnchorFunc func(heading string) (anchor string)

// A Slugger hands out unique anchors for the headings of a single document. The first heading
// with a given anchor keeps it; later headings with the same anchor receive the suffixes -1, -2,
// and so on in order of appearance. A Slugger is not safe for concurrent use.
type Slugger struct {
	anchorFunc  AnchorFunc
	occurrences map[string]int
}

// NewSlugger returns a Slugger that derives base anchors with the given AnchorFunc. A nil
// AnchorFunc selects GitHubFlavoredMarkdown.
func NewSlugger(anchors AnchorFunc) *Slugger {
	if anchors == nil {
		anchors = GitHubFlavoredMarkdown
	}
	return &Slugger{anchorFunc: anchors, occurrences: map[string]int{}}
}

// Slug returns the unique anchor for the given heading text. Headings whose text produces an
// empty anchor are not recorded and yield the empty string.
func (s *Slugger) Slug(heading string) string {
	base := s.anchorFunc(heading)
	if base == "" {
		return ""
	}

	result := base
	for {
		if _, taken := s.occurrences[result]; !taken {
			break
		}
		s.occurrences[base]++
		result = base + "-" + strconv.Itoa(s.occurrences[base])
	}
	s.occurrences[result] = 0
	return result
}

// Reset forgets every anchor handed out so far.
func (s *Slugger) Reset() {
	clear(s.occurrences)
}
