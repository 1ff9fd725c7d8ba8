package doctree

import (
	"sort"
	"strings"
)

// EmptyMessage is shown in place of an empty tree.
const EmptyMessage = "No documents"

// An ExpandedSet holds the paths of expanded folders.
type ExpandedSet map[string]struct{}

// Has reports whether path is expanded.
func (s ExpandedSet) Has(path string) bool {
	_, ok := s[path]
	return ok
}

// Paths returns the expanded paths in sorted order.
func (s ExpandedSet) Paths() []string {
	paths := make([]string, 0, len(s))
	for p := range s {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// A Key is a navigation key understood by a Sidebar.
type Key int

const (
	KeyUp Key = iota
	KeyDown
	KeyLeft
	KeyRight
	KeyEnter
	KeySpace
)

// ParseKey maps a key name such as "up" or "enter" to a Key.
func ParseKey(name string) (Key, bool) {
	switch strings.ToLower(name) {
	case "up", "arrowup":
		return KeyUp, true
	case "down", "arrowdown":
		return KeyDown, true
	case "left", "arrowleft":
		return KeyLeft, true
	case "right", "arrowright":
		return KeyRight, true
	case "enter":
		return KeyEnter, true
	case "space", " ":
		return KeySpace, true
	default:
		return 0, false
	}
}

// An Item is a visible row of the sidebar.
type Item struct {
	Node     *Node
	Depth    int
	Parent   string
	Expanded bool
	Active   bool
	Focused  bool
}

// A View is a visible node of the sidebar with its visible children. Collapsed folders and
// documents have no children.
type View struct {
	Node     *Node
	Depth    int
	Expanded bool
	Active   bool
	Focused  bool
	Children []*View
}

// A SidebarOption configures a Sidebar.
type SidebarOption func(s *Sidebar)

// WithToggleHook registers a function that is called whenever a folder is expanded or collapsed.
func WithToggleHook(hook func(path string, expanded bool)) SidebarOption {
	return func(s *Sidebar) {
		s.onToggle = hook
	}
}

// A Sidebar holds the expansion and focus state of a document tree. The folders that contain the
// current document are expanded when the sidebar is created and whenever the current document
// changes; the sidebar never collapses a folder on its own.
type Sidebar struct {
	tree     []*Node
	current  string
	expanded ExpandedSet
	focus    string
	parents  map[string]string
	onToggle func(path string, expanded bool)
}

// NewSidebar creates a Sidebar for tree with currentPath as the current document.
func NewSidebar(tree []*Node, currentPath string, options ...SidebarOption) *Sidebar {
	s := &Sidebar{tree: tree, expanded: ExpandedSet{}, parents: map[string]string{}}
	for _, o := range options {
		o(s)
	}

	var index func(nodes []*Node, parent string)
	index = func(nodes []*Node, parent string) {
		for _, n := range nodes {
			s.parents[n.Path] = parent
			index(n.Children, n.Path)
		}
	}
	index(tree, "")

	s.SetCurrentPath(currentPath)
	return s
}

// Empty reports whether the tree has no nodes.
func (s *Sidebar) Empty() bool {
	return len(s.tree) == 0
}

// CurrentPath returns the path of the current document.
func (s *Sidebar) CurrentPath() string {
	return s.current
}

// SetCurrentPath makes path the current document and expands its ancestors. Folders that are
// already expanded stay expanded. Focus moves to the new document.
func (s *Sidebar) SetCurrentPath(path string) {
	s.current = path
	for _, p := range AncestorPaths(s.tree, path) {
		s.expanded[p] = struct{}{}
	}
	if path != "" {
		if _, ok := Find(s.tree, path); ok {
			s.focus = path
		}
	}
}

// Expanded returns the set of expanded folder paths. The set must not be modified.
func (s *Sidebar) Expanded() ExpandedSet {
	return s.expanded
}

// IsExpanded reports whether the folder at path is expanded.
func (s *Sidebar) IsExpanded(path string) bool {
	return s.expanded.Has(path)
}

// Toggle expands a collapsed folder or collapses an expanded one. It reports whether the folder is
// now expanded. Paths that do not name a folder are ignored.
func (s *Sidebar) Toggle(path string) bool {
	n, ok := Find(s.tree, path)
	if !ok || !n.IsFolder {
		return false
	}

	expanded := !s.expanded.Has(path)
	if expanded {
		s.expanded[path] = struct{}{}
	} else {
		delete(s.expanded, path)
	}
	if s.onToggle != nil {
		s.onToggle(path, expanded)
	}
	return expanded
}

// Visible returns the rows of the sidebar in display order: every root node, and the children of
// every expanded folder whose ancestors are all expanded.
func (s *Sidebar) Visible() []Item {
	var items []Item
	var walk func(nodes []*Node, depth int, parent string)
	walk = func(nodes []*Node, depth int, parent string) {
		for _, n := range nodes {
			expanded := n.IsFolder && s.expanded.Has(n.Path)
			items = append(items, Item{
				Node:     n,
				Depth:    depth,
				Parent:   parent,
				Expanded: expanded,
				Active:   !n.IsFolder && n.Path == s.current,
			})
			if expanded {
				walk(n.Children, depth+1, n.Path)
			}
		}
	}
	walk(s.tree, 0, "")

	if i := s.focusIndex(items); i >= 0 {
		items[i].Focused = true
	}
	return items
}

// Tree returns the visible part of the tree as nested views.
func (s *Sidebar) Tree() []*View {
	focused, _ := s.Focused()

	var build func(nodes []*Node, depth int) []*View
	build = func(nodes []*Node, depth int) []*View {
		views := make([]*View, 0, len(nodes))
		for _, n := range nodes {
			v := &View{
				Node:     n,
				Depth:    depth,
				Expanded: n.IsFolder && s.expanded.Has(n.Path),
				Active:   !n.IsFolder && n.Path == s.current,
				Focused:  n == focused,
			}
			if v.Expanded {
				v.Children = build(n.Children, depth+1)
			}
			views = append(views, v)
		}
		return views
	}
	return build(s.tree, 0)
}

// focusIndex returns the index of the focused row. If the focused node is hidden, its nearest
// visible ancestor is focused instead; without a focused node, the first row is.
func (s *Sidebar) focusIndex(items []Item) int {
	if len(items) == 0 {
		return -1
	}
	for path := s.focus; path != ""; path = s.parents[path] {
		for i, item := range items {
			if item.Node.Path == path {
				return i
			}
		}
	}
	return 0
}

// Focused returns the focused node.
func (s *Sidebar) Focused() (*Node, bool) {
	items := s.Visible()
	for _, item := range items {
		if item.Focused {
			return item.Node, true
		}
	}
	return nil, false
}

// Focus moves focus to the visible node at path. It reports whether the node is visible.
func (s *Sidebar) Focus(path string) bool {
	for _, item := range s.Visible() {
		if item.Node.Path == path {
			s.focus = path
			return true
		}
	}
	return false
}

// HandleKey applies a navigation key to the focused row and reports whether the key was
// consumed. Up and Down move focus through the visible rows. Right expands a collapsed folder or
// moves to the first child of an expanded one. Left collapses an expanded folder or moves to the
// parent. Enter and Space toggle folders; on documents they are not consumed, so the caller can
// open the document.
func (s *Sidebar) HandleKey(k Key) bool {
	items := s.Visible()
	i := s.focusIndex(items)
	if i < 0 {
		return false
	}
	item := items[i]
	s.focus = item.Node.Path

	switch k {
	case KeyDown:
		if i+1 < len(items) {
			s.focus = items[i+1].Node.Path
		}
	case KeyUp:
		if i > 0 {
			s.focus = items[i-1].Node.Path
		}
	case KeyRight:
		if item.Node.IsFolder {
			if !item.Expanded {
				s.Toggle(item.Node.Path)
			} else if len(item.Node.Children) != 0 {
				s.focus = item.Node.Children[0].Path
			}
		}
	case KeyLeft:
		if item.Node.IsFolder && item.Expanded {
			s.Toggle(item.Node.Path)
		} else if item.Parent != "" {
			s.focus = item.Parent
		}
	case KeyEnter, KeySpace:
		if !item.Node.IsFolder {
			return false
		}
		s.Toggle(item.Node.Path)
	default:
		return false
	}
	return true
}
