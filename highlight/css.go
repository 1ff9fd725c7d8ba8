package highlight

import "strings"

const dualThemeCSS = `.shiki,
.shiki span {
  color: var(--shiki-light);
  background-color: var(--shiki-light-bg);
  font-style: var(--shiki-light-font-style);
  font-weight: var(--shiki-light-font-weight);
  text-decoration: var(--shiki-light-text-decoration);
}

@media (prefers-color-scheme: dark) {
  html:not(.light) .shiki,
  html:not(.light) .shiki span {
    color: var(--shiki-dark);
    background-color: var(--shiki-dark-bg);
    font-style: var(--shiki-dark-font-style);
    font-weight: var(--shiki-dark-font-weight);
    text-decoration: var(--shiki-dark-text-decoration);
  }
}

html.dark .shiki,
html.dark .shiki span {
  color: var(--shiki-dark);
  background-color: var(--shiki-dark-bg);
  font-style: var(--shiki-dark-font-style);
  font-weight: var(--shiki-dark-font-weight);
  text-decoration: var(--shiki-dark-text-decoration);
}

.shiki {
  overflow-x: auto;
  padding: 1rem;
  border-radius: 0.375rem;
}

.shiki .line {
  display: inline-block;
  width: 100%;
}

.shiki .line.highlighted {
  background-color: rgba(127, 127, 127, 0.18);
}

.shiki .line.diff.add {
  background-color: rgba(16, 185, 129, 0.16);
}

.shiki .line.diff.add::before {
  content: "+";
  color: #10b981;
}

.shiki .line.diff.remove {
  background-color: rgba(244, 63, 94, 0.16);
  opacity: 0.7;
}

.shiki .line.diff.remove::before {
  content: "-";
  color: #f43f5e;
}
`

// Stylesheet returns the CSS that selects the light or dark token colors. The dark colors apply
// when the user agent prefers a dark color scheme, unless the root element has the class "light",
// or whenever the root element has the class "dark".
func (h *Highlighter) Stylesheet() string {
	var b strings.Builder
	b.WriteString("/* themes: ")
	b.WriteString(h.lightName)
	b.WriteString(", ")
	b.WriteString(h.darkName)
	b.WriteString(" */\n")
	b.WriteString(dualThemeCSS)
	return b.String()
}
