package tui

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/ragxuary/docs-kit/doctree"
	"github.com/ragxuary/docs-kit/enhance"
)

var (
	accent = lipgloss.Color("#7fbbb3")
	muted  = lipgloss.Color("#859289")
	border = lipgloss.Color("#475258")
	danger = lipgloss.Color("#e67e80")

	paneStyle    = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, true, false, false).BorderForeground(border)
	focusedStyle = lipgloss.NewStyle().Reverse(true)
	activeStyle  = lipgloss.NewStyle().Foreground(accent).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	errorStyle   = lipgloss.NewStyle().Foreground(danger)
	titleStyle   = lipgloss.NewStyle().Bold(true)
)

func (m *Model) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	if m.doc != nil {
		v.WindowTitle = m.doc.title
	}
	return v
}

func (m *Model) render() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	height := max(m.height-1, 1)

	panes := []string{
		paneStyle.Height(height).Render(m.sidebarView(sidebarWidth-1, height)),
		lipgloss.NewStyle().Width(m.documentWidth()).Height(height).Render(m.documentView()),
	}
	if m.showTOC() {
		panes = append(panes, m.tocView(tocWidth, height))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lipgloss.JoinHorizontal(lipgloss.Top, panes...), m.statusView())
}

func (m *Model) sidebarView(width, height int) string {
	lines := []string{titleStyle.Render(fit(m.project, width))}
	switch {
	case m.sidebar == nil:
		lines = append(lines, mutedStyle.Render(fit("Loading…", width)))
		return strings.Join(lines, "\n")
	case m.sidebar.Empty():
		lines = append(lines, mutedStyle.Render(fit(doctree.EmptyMessage, width)))
		return strings.Join(lines, "\n")
	}

	items := m.sidebar.Visible()
	rows := make([]string, len(items))
	cursor := 0
	for i, item := range items {
		marker := "  "
		if item.Node.IsFolder {
			marker = "▸ "
			if item.Expanded {
				marker = "▾ "
			}
		}
		row := fit(strings.Repeat("  ", item.Depth)+marker+item.Node.Title, width)
		if item.Focused {
			cursor = i
		}
		switch {
		case item.Focused && m.focus == sidebarPane:
			row = focusedStyle.Render(row)
		case item.Active:
			row = activeStyle.Render(row)
		}
		rows[i] = row
	}
	return strings.Join(append(lines, window(rows, cursor, height-1)...), "\n")
}

func (m *Model) documentView() string {
	switch {
	case m.err != nil:
		return errorStyle.Render(m.err.Error())
	case m.doc == nil && m.loading:
		return mutedStyle.Render("Loading…")
	case m.doc == nil:
		return mutedStyle.Render(doctree.EmptyMessage)
	case !m.doc.root.HasChildren():
		return mutedStyle.Render("This document has no content.")
	}
	return m.viewport.View()
}

// tocView lists the headings of the document. It is empty when the document has no headings.
func (m *Model) tocView(width, height int) string {
	if m.doc == nil || len(m.doc.headings) == 0 {
		return ""
	}

	active, _ := m.spy.Active()
	lines := []string{mutedStyle.Render(fit("On this page", width))}
	for _, h := range m.doc.headings {
		line := fit(" "+strings.Repeat("  ", h.Level-2)+h.Text, width)
		if h.ID == active {
			line = activeStyle.Render(fit("›"+strings.Repeat("  ", h.Level-2)+h.Text, width))
		}
		lines = append(lines, line)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

func (m *Model) statusView() string {
	var parts []string
	if m.doc != nil {
		parts = append(parts, m.doc.path)
	}
	switch state := m.copy.State(); state {
	case enhance.CopyCopied:
		parts = append(parts, activeStyle.Render(state.Label()))
	case enhance.CopyFailed:
		parts = append(parts, errorStyle.Render(state.Label()))
	}

	var help []string
	for _, b := range keys.help() {
		h := b.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	parts = append(parts, mutedStyle.Render(strings.Join(help, " · ")))
	return ansi.Truncate(strings.Join(parts, "  "), m.width, "…")
}

// fit truncates s to width cells.
func fit(s string, width int) string {
	return ansi.Truncate(s, width, "…")
}

// window returns at most height rows around the cursor.
func window(rows []string, cursor, height int) []string {
	if height <= 0 {
		return nil
	}
	if len(rows) <= height {
		return rows
	}
	start := min(max(cursor-height/2, 0), len(rows)-height)
	return rows[start : start+height]
}
