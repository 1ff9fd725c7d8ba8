package scrollspy

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpy_FirstVisibleInDocumentOrder(t *testing.T) {
	s := NewSpy("a", "b", "c")

	s.Observe(Entry{ID: "c", Intersecting: true}, Entry{ID: "b", Intersecting: true})
	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, "b", active)

	s.Observe(Entry{ID: "a", Intersecting: false})
	active, ok = s.Active()
	require.True(t, ok)
	assert.Equal(t, "b", active)

	s.Observe(Entry{ID: "a", Intersecting: true})
	active, _ = s.Active()
	assert.Equal(t, "a", active)

	s.Observe(Entry{ID: "a"}, Entry{ID: "b"}, Entry{ID: "c"})
	_, ok = s.Active()
	assert.False(t, ok)
}

func TestSpy_NoHeadings(t *testing.T) {
	s := NewSpy()
	s.Observe(Entry{ID: "a", Intersecting: true})
	_, ok := s.Active()
	assert.False(t, ok)
}

func TestSpy_SetHeadings(t *testing.T) {
	s := NewSpy("a", "b")
	s.Observe(Entry{ID: "b", Intersecting: true})

	assert.False(t, s.SetHeadings([]string{"a", "b"}))
	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, "b", active)

	assert.True(t, s.SetHeadings([]string{"b", "c"}))
	_, ok = s.Active()
	assert.False(t, ok)
	assert.Equal(t, []string{"b", "c"}, s.Headings())
}

func TestSpy_Concurrent(t *testing.T) {
	s := NewSpy("a", "b", "c")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Observe(Entry{ID: []string{"a", "b", "c"}[i%3], Intersecting: i%2 == 0})
			s.Active()
		}(i)
	}
	wg.Wait()
}

func TestBand_Bounds(t *testing.T) {
	top, bottom := DefaultBand.bounds(0, 1000)
	assert.Equal(t, 80, top)
	assert.Equal(t, 200, bottom)

	top, bottom = Band{TopOffset: 1, BottomFraction: 0.8}.bounds(10, 3)
	assert.Equal(t, 11, top)
	assert.Equal(t, 12, bottom)
}

func TestObserver_Transitions(t *testing.T) {
	var got [][]Entry
	o := NewObserver(Band{TopOffset: 0, BottomFraction: 0.5}, func(entries []Entry) {
		got = append(got, entries)
	})

	o.Observe([]Position{
		{ID: "intro", Top: 0, Height: 1},
		{ID: "usage", Top: 10, Height: 1},
		{ID: "faq", Top: 30, Height: 1},
	})

	// band is [0, 10)
	o.Update(0, 20)
	require.Len(t, got, 1)
	assert.Equal(t, []Entry{{ID: "intro", Intersecting: true}}, got[0])

	// no change, no delivery
	o.Update(0, 20)
	assert.Len(t, got, 1)

	// band is [5, 15)
	o.Update(5, 20)
	require.Len(t, got, 2)
	assert.Equal(t, []Entry{{ID: "intro", Intersecting: false}, {ID: "usage", Intersecting: true}}, got[1])

	o.Disconnect()
	o.Update(25, 20)
	assert.Len(t, got, 2)
}

func TestObserver_ReobserveDisconnectsPrevious(t *testing.T) {
	var got []Entry
	o := NewObserver(Band{BottomFraction: 0.5}, func(entries []Entry) {
		got = append(got, entries...)
	})

	o.Observe([]Position{{ID: "old", Top: 0}})
	o.Observe([]Position{{ID: "new", Top: 0}})
	o.Update(0, 10)
	assert.Equal(t, []Entry{{ID: "new", Intersecting: true}}, got)
}

func TestTrackAndWatch(t *testing.T) {
	spy := NewSpy()
	o := Track(spy, Band{BottomFraction: 0.5})

	positions := []Position{{ID: "a", Top: 0}, {ID: "b", Top: 4}, {ID: "c", Top: 40}}
	Watch(spy, o, positions)
	assert.Equal(t, []string{"a", "b", "c"}, spy.Headings())

	o.Update(0, 10)
	active, ok := spy.Active()
	require.True(t, ok)
	assert.Equal(t, "a", active)

	o.Update(2, 10)
	active, _ = spy.Active()
	assert.Equal(t, "b", active)

	o.Update(100, 10)
	_, ok = spy.Active()
	assert.False(t, ok)

	// watching the same headings again starts from a clean slate
	o.Update(0, 10)
	Watch(spy, o, positions)
	_, ok = spy.Active()
	assert.False(t, ok)
}
