package doctree

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() []*Node {
	return []*Node{
		{ID: "1", Slug: "guides", Path: "guides", Title: "Guides", IsFolder: true, Children: []*Node{
			{ID: "2", Slug: "quick-start", Path: "guides/quick-start", Title: "Quick Start", Index: 0},
			{ID: "3", Slug: "advanced", Path: "guides/advanced", Title: "Advanced", Index: 1, IsFolder: true, Children: []*Node{
				{ID: "4", Slug: "tuning", Path: "guides/advanced/tuning", Title: "Tuning"},
			}},
		}},
		{ID: "5", Slug: "reference", Path: "reference", Title: "Reference", Index: 1, IsFolder: true, Children: []*Node{
			{ID: "6", Slug: "api", Path: "reference/api", Title: "API"},
		}},
		{ID: "7", Slug: "faq", Path: "faq", Title: "FAQ", Index: 2},
	}
}

func paths(items []Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Node.Path
	}
	return out
}

func focusedPath(t *testing.T, s *Sidebar) string {
	n, ok := s.Focused()
	require.True(t, ok)
	return n.Path
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(sampleTree()))
	assert.NoError(t, Validate(nil))

	bad := sampleTree()
	bad[0].Children[0].Path = "quick-start"
	bad[2].Children = []*Node{{Slug: "x", Path: "faq/x"}}
	err := Validate(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `expected path "guides/quick-start"`)
	assert.Contains(t, err.Error(), `document "faq" has children`)
}

func TestNode_JSON(t *testing.T) {
	data, err := json.Marshal(&Node{ID: "1", Slug: "a", Path: "a", Title: "A", IsFolder: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1","slug":"a","path":"a","title":"A","index":0,"is_folder":true}`, string(data))
}

func TestAncestorPaths(t *testing.T) {
	tree := sampleTree()
	assert.Equal(t, []string{"guides"}, AncestorPaths(tree, "guides/quick-start"))
	assert.Equal(t, []string{"guides", "guides/advanced"}, AncestorPaths(tree, "guides/advanced/tuning"))
	assert.Empty(t, AncestorPaths(tree, "faq"))
	assert.Empty(t, AncestorPaths(tree, "missing"))
	assert.Empty(t, AncestorPaths(nil, "guides"))
}

func TestCount(t *testing.T) {
	folders, documents := Count(sampleTree())
	assert.Equal(t, 3, folders)
	assert.Equal(t, 4, documents)
}

func TestSidebar_InitialExpansion(t *testing.T) {
	s := NewSidebar(sampleTree(), "guides/quick-start")
	assert.Equal(t, []string{"guides"}, s.Expanded().Paths())
	assert.Equal(t, []string{"guides", "guides/quick-start", "guides/advanced", "reference", "faq"}, paths(s.Visible()))
	assert.Equal(t, "guides/quick-start", focusedPath(t, s))

	for _, item := range s.Visible() {
		assert.Equal(t, item.Node.Path == "guides/quick-start", item.Active, item.Node.Path)
	}
}

func TestSidebar_SetCurrentPathNeverCollapses(t *testing.T) {
	s := NewSidebar(sampleTree(), "guides/quick-start")
	s.SetCurrentPath("reference/api")
	assert.Equal(t, []string{"guides", "reference"}, s.Expanded().Paths())
	assert.Equal(t, "reference/api", s.CurrentPath())

	s.SetCurrentPath("guides/advanced/tuning")
	assert.Equal(t, []string{"guides", "guides/advanced", "reference"}, s.Expanded().Paths())
}

func TestSidebar_Toggle(t *testing.T) {
	var calls []string
	s := NewSidebar(sampleTree(), "", WithToggleHook(func(path string, expanded bool) {
		calls = append(calls, path)
	}))
	assert.Empty(t, s.Expanded().Paths())

	assert.True(t, s.Toggle("reference"))
	assert.False(t, s.Toggle("reference"))
	assert.Empty(t, s.Expanded().Paths())
	assert.Equal(t, []string{"reference", "reference"}, calls)

	assert.False(t, s.Toggle("faq"))
	assert.False(t, s.Toggle("missing"))
	assert.Len(t, calls, 2)
}

func TestSidebar_Tree(t *testing.T) {
	s := NewSidebar(sampleTree(), "guides/quick-start")
	views := s.Tree()
	require.Len(t, views, 3)

	assert.True(t, views[0].Expanded)
	require.Len(t, views[0].Children, 2)
	assert.True(t, views[0].Children[0].Active)
	assert.True(t, views[0].Children[0].Focused)
	assert.Equal(t, 1, views[0].Children[0].Depth)

	// collapsed folders carry no children
	assert.False(t, views[0].Children[1].Expanded)
	assert.Empty(t, views[0].Children[1].Children)
	assert.Empty(t, views[1].Children)
	assert.Empty(t, views[2].Children)
}

func TestSidebar_UpDown(t *testing.T) {
	s := NewSidebar(sampleTree(), "")
	assert.Equal(t, "guides", focusedPath(t, s))

	assert.True(t, s.HandleKey(KeyDown))
	assert.Equal(t, "reference", focusedPath(t, s))
	assert.True(t, s.HandleKey(KeyDown))
	assert.Equal(t, "faq", focusedPath(t, s))
	assert.True(t, s.HandleKey(KeyDown))
	assert.Equal(t, "faq", focusedPath(t, s))

	assert.True(t, s.HandleKey(KeyUp))
	assert.True(t, s.HandleKey(KeyUp))
	assert.True(t, s.HandleKey(KeyUp))
	assert.Equal(t, "guides", focusedPath(t, s))
}

func TestSidebar_RightExpandsThenEnters(t *testing.T) {
	var toggles int
	s := NewSidebar(sampleTree(), "", WithToggleHook(func(string, bool) { toggles++ }))
	require.True(t, s.Focus("reference"))

	assert.True(t, s.HandleKey(KeyRight))
	assert.Equal(t, 1, toggles)
	assert.True(t, s.IsExpanded("reference"))
	assert.Equal(t, "reference", focusedPath(t, s))

	assert.True(t, s.HandleKey(KeyRight))
	assert.Equal(t, 1, toggles)
	assert.Equal(t, "reference/api", focusedPath(t, s))

	// right on a document does nothing
	assert.True(t, s.HandleKey(KeyRight))
	assert.Equal(t, "reference/api", focusedPath(t, s))
	assert.Equal(t, 1, toggles)
}

func TestSidebar_LeftCollapsesThenLeaves(t *testing.T) {
	s := NewSidebar(sampleTree(), "guides/advanced/tuning")
	assert.Equal(t, "guides/advanced/tuning", focusedPath(t, s))

	assert.True(t, s.HandleKey(KeyLeft))
	assert.Equal(t, "guides/advanced", focusedPath(t, s))

	assert.True(t, s.HandleKey(KeyLeft))
	assert.False(t, s.IsExpanded("guides/advanced"))
	assert.Equal(t, "guides/advanced", focusedPath(t, s))

	assert.True(t, s.HandleKey(KeyLeft))
	assert.Equal(t, "guides", focusedPath(t, s))

	assert.True(t, s.HandleKey(KeyLeft))
	assert.False(t, s.IsExpanded("guides"))

	// a root folder has no parent to move to
	assert.True(t, s.HandleKey(KeyLeft))
	assert.Equal(t, "guides", focusedPath(t, s))
}

func TestSidebar_EnterAndSpace(t *testing.T) {
	var toggles int
	s := NewSidebar(sampleTree(), "", WithToggleHook(func(string, bool) { toggles++ }))

	assert.True(t, s.HandleKey(KeyEnter))
	assert.True(t, s.IsExpanded("guides"))
	assert.True(t, s.HandleKey(KeySpace))
	assert.False(t, s.IsExpanded("guides"))
	assert.Equal(t, 2, toggles)

	require.True(t, s.Focus("faq"))
	assert.False(t, s.HandleKey(KeyEnter))
	assert.False(t, s.HandleKey(KeySpace))
	assert.Equal(t, 2, toggles)
}

func TestSidebar_FocusFallsBackToVisibleAncestor(t *testing.T) {
	s := NewSidebar(sampleTree(), "guides/advanced/tuning")
	s.Toggle("guides")
	assert.Equal(t, "guides", focusedPath(t, s))
	assert.False(t, s.Focus("guides/quick-start"))
}

func TestSidebar_Empty(t *testing.T) {
	s := NewSidebar(nil, "anything")
	assert.True(t, s.Empty())
	assert.Empty(t, s.Visible())
	assert.Empty(t, s.Tree())
	assert.False(t, s.HandleKey(KeyDown))
	_, ok := s.Focused()
	assert.False(t, ok)
}

func TestParseKey(t *testing.T) {
	for name, want := range map[string]Key{
		"up": KeyUp, "ArrowDown": KeyDown, "left": KeyLeft, "right": KeyRight, "enter": KeyEnter, " ": KeySpace, "space": KeySpace,
	} {
		got, ok := ParseKey(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
	_, ok := ParseKey("tab")
	assert.False(t, ok)
}
