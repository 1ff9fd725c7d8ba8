package scrollspy

import "sync"

// A Band is the part of the viewport in which headings count as visible. It excludes TopOffset
// units at the top, where a sticky header sits, and BottomFraction of the viewport height at the
// bottom, so headings activate while they are near the top.
type Band struct {
	TopOffset      int
	BottomFraction float64
}

// DefaultBand excludes 80 units at the top and the bottom 80% of the viewport.
var DefaultBand = Band{TopOffset: 80, BottomFraction: 0.8}

// bounds returns the half-open range [top, bottom) of the band for a viewport.
func (b Band) bounds(viewportTop, viewportHeight int) (int, int) {
	top := viewportTop + b.TopOffset
	bottom := viewportTop + viewportHeight - int(float64(viewportHeight)*b.BottomFraction)
	if bottom <= top {
		// A viewport shorter than the excluded margins still tracks the line at the top offset.
		bottom = top + 1
	}
	return top, bottom
}

// A Position places a heading in document coordinates. Top is the first line or pixel of the
// heading and Height its extent, which is at least one.
type Position struct {
	ID     string
	Top    int
	Height int
}

// An Observer watches a set of heading positions and reports which headings enter or leave the
// band as the viewport moves. An Observer has at most one subscription: observing again
// disconnects the previous one.
type Observer struct {
	band     Band
	callback func(entries []Entry)

	m         sync.Mutex
	positions []Position
	inside    map[string]bool
	connected bool
}

// NewObserver creates an Observer that delivers transitions to callback.
func NewObserver(band Band, callback func(entries []Entry)) *Observer {
	return &Observer{band: band, callback: callback}
}

// Observe starts watching positions. The first Update after Observe reports every heading inside
// the band as intersecting.
func (o *Observer) Observe(positions []Position) {
	o.Disconnect()

	o.m.Lock()
	defer o.m.Unlock()

	o.positions = append([]Position(nil), positions...)
	o.inside = map[string]bool{}
	o.connected = true
}

// Disconnect stops watching. Later updates deliver nothing.
func (o *Observer) Disconnect() {
	o.m.Lock()
	defer o.m.Unlock()

	o.positions, o.inside, o.connected = nil, nil, false
}

// Update moves the viewport and delivers the resulting transitions, if any.
func (o *Observer) Update(viewportTop, viewportHeight int) {
	o.m.Lock()
	if !o.connected {
		o.m.Unlock()
		return
	}

	top, bottom := o.band.bounds(viewportTop, viewportHeight)
	var entries []Entry
	for _, p := range o.positions {
		height := p.Height
		if height < 1 {
			height = 1
		}
		intersecting := p.Top < bottom && p.Top+height > top
		if intersecting != o.inside[p.ID] {
			o.inside[p.ID] = intersecting
			entries = append(entries, Entry{ID: p.ID, Intersecting: intersecting})
		}
	}
	o.m.Unlock()

	if len(entries) > 0 && o.callback != nil {
		o.callback(entries)
	}
}

// Track returns an Observer that applies every transition to spy.
func Track(spy *Spy, band Band) *Observer {
	return NewObserver(band, func(entries []Entry) {
		spy.Observe(entries...)
	})
}

// Watch replaces the headings of spy with the ids of positions and starts observing them. The
// spy forgets every visible heading, since the new subscription reports them afresh.
func Watch(spy *Spy, o *Observer, positions []Position) {
	ids := make([]string, len(positions))
	for i, p := range positions {
		ids[i] = p.ID
	}
	if !spy.SetHeadings(ids) {
		spy.Reset()
	}
	o.Observe(positions)
}
