// Package tui implements a terminal reader for a project's documents: a document tree sidebar, the
// current document and its table of contents with the active heading.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/glamour/styles"
	"github.com/ragxuary/docs-kit/doctree"
	"github.com/ragxuary/docs-kit/enhance"
	"github.com/ragxuary/docs-kit/internal/source"
	"github.com/ragxuary/docs-kit/scrollspy"
)

const (
	sidebarWidth = 30
	tocWidth     = 30
	// Below this width the table of contents is hidden.
	minTOCWidth = 110
)

// band is the part of the document viewport in which a heading counts as visible: the top fifth.
var band = scrollspy.Band{TopOffset: 0, BottomFraction: 0.8}

type pane int

const (
	sidebarPane pane = iota
	documentPane
)

// An Option configures a Model.
type Option func(m *Model)

// WithStyle sets the glamour style used to render documents. The default is "dark".
func WithStyle(style string) Option {
	return func(m *Model) {
		m.style = style
	}
}

// WithCurrentPath opens the document at path instead of the first document of the tree.
func WithCurrentPath(path string) Option {
	return func(m *Model) {
		m.currentPath = path
	}
}

// WithCopyOptions configures the copy button used by the copy key.
func WithCopyOptions(options ...enhance.CopyOption) Option {
	return func(m *Model) {
		m.copyOptions = options
	}
}

type treeMsg struct {
	tree []*doctree.Node
	err  error
}

type documentMsg struct {
	path string
	doc  *source.Document
	err  error
}

type copyResetMsg struct{}

// Model is the bubbletea model of the reader.
type Model struct {
	ctx     context.Context
	source  source.Source
	project string

	style       string
	currentPath string
	copyOptions []enhance.CopyOption

	sidebar  *doctree.Sidebar
	doc      *document
	spy      *scrollspy.Spy
	observer *scrollspy.Observer
	viewport viewport.Model
	copy     *enhance.CopyButton
	copyErr  error

	focus         pane
	width, height int
	loading       bool
	err           error
}

// New creates a reader for project. Documents are loaded from src with ctx.
func New(ctx context.Context, src source.Source, project string, options ...Option) *Model {
	m := &Model{
		ctx:      ctx,
		source:   src,
		project:  project,
		style:    styles.DarkStyle,
		spy:      scrollspy.NewSpy(),
		viewport: viewport.New(),
		loading:  true,
	}
	for _, o := range options {
		o(m)
	}
	m.observer = scrollspy.Track(m.spy, band)
	m.copy = enhance.NewCopyButton(m.copyOptions...)
	return m
}

// Run runs the reader until the user quits or ctx is cancelled.
func Run(ctx context.Context, src source.Source, project string, options ...Option) error {
	m := New(ctx, src, project, options...)
	defer m.copy.Close()

	_, err := tea.NewProgram(m, tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m *Model) Init() tea.Cmd {
	return m.loadTree()
}

func (m *Model) loadTree() tea.Cmd {
	ctx, src, project := m.ctx, m.source, m.project
	return func() tea.Msg {
		tree, err := src.Tree(ctx, project)
		if errors.Is(err, source.ErrNotFound) {
			return treeMsg{}
		}
		return treeMsg{tree: tree, err: err}
	}
}

func (m *Model) loadDocument(path string) tea.Cmd {
	ctx, src, project := m.ctx, m.source, m.project
	return func() tea.Msg {
		doc, err := src.Document(ctx, project, path)
		return documentMsg{path: path, doc: doc, err: err}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case treeMsg:
		m.loading = false
		if msg.err != nil {
			m.err = fmt.Errorf("loading document tree: %w", msg.err)
			return m, nil
		}
		current := m.currentPath
		if current == "" {
			current = source.FirstDocument(msg.tree)
		}
		if m.sidebar == nil {
			m.sidebar = doctree.NewSidebar(msg.tree, current)
		} else {
			// keep expansion and focus across reloads
			old := m.sidebar
			m.sidebar = doctree.NewSidebar(msg.tree, current)
			for _, path := range old.Expanded().Paths() {
				if !m.sidebar.IsExpanded(path) {
					m.sidebar.Toggle(path)
				}
			}
			if n, ok := old.Focused(); ok {
				m.sidebar.Focus(n.Path)
			}
		}
		if current == "" {
			return m, nil
		}
		return m, m.open(current)

	case documentMsg:
		m.loading = false
		if msg.path != m.currentPath {
			return m, nil
		}
		if msg.err != nil {
			m.doc = nil
			m.err = fmt.Errorf("loading %s: %w", msg.path, msg.err)
			m.watch()
			return m, nil
		}
		m.err = nil
		m.doc = newDocument(msg.doc.Path, msg.doc.Title, msg.doc.Content)
		m.layout()
		m.viewport.GotoTop()
		m.watch()
		return m, nil

	case copyResetMsg:
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Switch):
		if m.focus == sidebarPane {
			m.focus = documentPane
		} else {
			m.focus = sidebarPane
		}
		return m, nil
	case key.Matches(msg, keys.Copy):
		return m, m.copyCode()
	case key.Matches(msg, keys.Refresh):
		m.loading = true
		return m, m.loadTree()
	}

	if m.focus == sidebarPane {
		return m, m.handleSidebarKey(msg)
	}

	switch {
	case key.Matches(msg, keys.Top):
		m.viewport.GotoTop()
	case key.Matches(msg, keys.Bottom):
		m.viewport.GotoBottom()
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		m.observer.Update(m.viewport.YOffset(), m.viewport.Height())
		return m, cmd
	}
	m.observer.Update(m.viewport.YOffset(), m.viewport.Height())
	return m, nil
}

func (m *Model) handleSidebarKey(msg tea.KeyPressMsg) tea.Cmd {
	if m.sidebar == nil || m.sidebar.Empty() {
		return nil
	}

	var k doctree.Key
	switch {
	case key.Matches(msg, keys.Up):
		k = doctree.KeyUp
	case key.Matches(msg, keys.Down):
		k = doctree.KeyDown
	case key.Matches(msg, keys.Left):
		k = doctree.KeyLeft
	case key.Matches(msg, keys.Right):
		k = doctree.KeyRight
	case key.Matches(msg, keys.Open):
		k = doctree.KeyEnter
	default:
		return nil
	}
	if m.sidebar.HandleKey(k) {
		return nil
	}

	// Enter on a document opens it.
	if n, ok := m.sidebar.Focused(); ok && !n.IsFolder && k == doctree.KeyEnter {
		m.sidebar.SetCurrentPath(n.Path)
		m.focus = documentPane
		return m.open(n.Path)
	}
	return nil
}

func (m *Model) open(path string) tea.Cmd {
	m.currentPath = path
	m.loading = true
	return m.loadDocument(path)
}

// copyCode copies the first code block of the active section, or of the document when no heading
// is active.
func (m *Model) copyCode() tea.Cmd {
	if m.doc == nil {
		return nil
	}
	active, _ := m.spy.Active()
	code, ok := m.doc.sectionCode(active)
	if !ok && active != "" {
		code, ok = m.doc.sectionCode("")
	}
	if !ok {
		return nil
	}

	m.copyErr = m.copy.Click(code)
	return tea.Tick(m.copy.Acknowledgment()+10*time.Millisecond, func(time.Time) tea.Msg {
		return copyResetMsg{}
	})
}

// layout sizes the panes for the window and renders the document for the document pane's width.
func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	m.viewport.SetWidth(m.documentWidth())
	m.viewport.SetHeight(max(m.height-1, 1))

	if m.doc == nil {
		m.viewport.SetContent("")
		return
	}
	if err := m.doc.render(m.style, max(m.documentWidth()-2, 20)); err != nil {
		m.err = fmt.Errorf("rendering %s: %w", m.doc.path, err)
		m.viewport.SetContent(string(m.doc.source))
		return
	}
	m.viewport.SetContent(m.doc.rendered)
	m.watch()
}

// watch points the scroll spy at the headings of the current document.
func (m *Model) watch() {
	if m.doc == nil {
		scrollspy.Watch(m.spy, m.observer, nil)
		return
	}
	scrollspy.Watch(m.spy, m.observer, m.doc.positions)
	m.observer.Update(m.viewport.YOffset(), m.viewport.Height())
}

func (m *Model) showTOC() bool {
	return m.width >= minTOCWidth
}

func (m *Model) documentWidth() int {
	w := m.width - sidebarWidth
	if m.showTOC() {
		w -= tocWidth
	}
	return max(w, 1)
}
