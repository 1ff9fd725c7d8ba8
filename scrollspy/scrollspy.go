// Package scrollspy tracks which table of contents heading is active while a document scrolls.
//
// A Spy holds the heading ids in document order and the set of headings currently inside the
// activation band. The active heading is the first heading, in document order, that is inside the
// band. An Observer turns heading positions and a viewport into the enter and exit transitions
// that feed a Spy.
package scrollspy

import (
	"slices"
	"sync"
)

// An Entry reports that a heading entered or left the activation band.
type Entry struct {
	ID           string
	Intersecting bool
}

// A Spy derives the active heading from visibility transitions. A Spy is safe for concurrent use.
type Spy struct {
	m       sync.Mutex
	ids     []string
	visible map[string]bool
}

// NewSpy creates a Spy for the given heading ids.
func NewSpy(ids ...string) *Spy {
	s := &Spy{visible: map[string]bool{}}
	s.SetHeadings(ids)
	return s
}

// SetHeadings replaces the tracked headings. If the list differs from the current one, the
// visible set is cleared and the caller is expected to observe the new headings afresh.
// It reports whether the list changed.
func (s *Spy) SetHeadings(ids []string) bool {
	s.m.Lock()
	defer s.m.Unlock()

	if slices.Equal(s.ids, ids) {
		return false
	}
	s.ids = slices.Clone(ids)
	clear(s.visible)
	return true
}

// Reset forgets every visible heading.
func (s *Spy) Reset() {
	s.m.Lock()
	defer s.m.Unlock()

	clear(s.visible)
}

// Headings returns the tracked heading ids in document order.
func (s *Spy) Headings() []string {
	s.m.Lock()
	defer s.m.Unlock()

	return slices.Clone(s.ids)
}

// Observe applies visibility transitions. Entries for unknown ids are ignored.
func (s *Spy) Observe(entries ...Entry) {
	s.m.Lock()
	defer s.m.Unlock()

	for _, e := range entries {
		if !slices.Contains(s.ids, e.ID) {
			continue
		}
		if e.Intersecting {
			s.visible[e.ID] = true
		} else {
			delete(s.visible, e.ID)
		}
	}
}

// Active returns the first heading in document order that is inside the band. It returns false
// if there are no headings or none is inside the band.
func (s *Spy) Active() (string, bool) {
	s.m.Lock()
	defer s.m.Unlock()

	if len(s.visible) == 0 {
		return "", false
	}
	for _, id := range s.ids {
		if s.visible[id] {
			return id, true
		}
	}
	return "", false
}
