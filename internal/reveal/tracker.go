// Package reveal decides when a page panel is on screen and drives its
// entrance animation.
//
// A Tracker turns viewport geometry into an "is intersecting" signal. A
// Controller listens to that signal and moves its panel between Hidden and
// Visible. Both front-ends (web data attributes and the terminal renderer)
// share these types so the reveal rules live in one place.
package reveal

import "sync"

// DefaultThreshold is the fraction of a region that must be inside the
// viewport before it counts as visible.
const DefaultThreshold = 0.2

// Rect is an axis-aligned rectangle. Units are whatever the renderer uses
// (CSS pixels on the web, cells in the terminal).
type Rect struct {
	X, Y, W, H float64
}

// Area returns the rectangle area, zero for degenerate rectangles.
func (r Rect) Area() float64 {
	if r.W <= 0 || r.H <= 0 {
		return 0
	}
	return r.W * r.H
}

// Intersection returns the overlap of a and b. The result has zero area when
// they do not overlap.
func Intersection(a, b Rect) Rect {
	x0 := max(a.X, b.X)
	y0 := max(a.Y, b.Y)
	x1 := min(a.X+a.W, b.X+b.W)
	y1 := min(a.Y+a.H, b.Y+b.H)
	if x1 <= x0 || y1 <= y0 {
		return Rect{X: x0, Y: y0}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Ratio reports how much of region lies inside viewport, from 0 to 1.
func Ratio(region *Rect, viewport Rect) float64 {
	if region == nil {
		return 0
	}
	area := region.Area()
	if area == 0 {
		return 0
	}
	return Intersection(*region, viewport).Area() / area
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithThreshold sets the intersection ratio needed to report visible.
// Values are clamped to [0, 1].
func WithThreshold(threshold float64) Option {
	return func(t *Tracker) {
		t.threshold = min(max(threshold, 0), 1)
	}
}

// WithOnce makes the signal latch: once the region has been seen it stays
// visible for the lifetime of the tracker.
func WithOnce(once bool) Option {
	return func(t *Tracker) {
		t.once = once
	}
}

// Tracker observes one region and produces a boolean visibility signal.
type Tracker struct {
	mu        sync.Mutex
	threshold float64
	once      bool
	region    *Rect
	visible   bool
	nextID    int
	listeners map[int]func(bool)
}

// NewTracker creates a tracker with the default threshold and re-triggering
// enabled.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		threshold: DefaultThreshold,
		listeners: make(map[int]func(bool)),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Threshold returns the configured threshold.
func (t *Tracker) Threshold() float64 { return t.threshold }

// Once reports whether the tracker latches.
func (t *Tracker) Once() bool { return t.once }

// Track sets the region to observe. A nil region is allowed and keeps the
// signal false until a real region is supplied.
func (t *Tracker) Track(region *Rect) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if region == nil {
		t.region = nil
		return
	}
	r := *region
	t.region = &r
}

// Visible returns the last computed signal.
func (t *Tracker) Visible() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.visible
}

// Update re-evaluates the signal against the current viewport. It is meant
// to be called on every scroll or resize. Listeners are notified only when
// the signal flips.
func (t *Tracker) Update(viewport Rect) bool {
	t.mu.Lock()
	ratio := Ratio(t.region, viewport)
	next := ratio > 0 && ratio >= t.threshold
	if t.once && t.visible {
		next = true
	}
	changed := next != t.visible
	t.visible = next
	var notify []func(bool)
	if changed {
		notify = make([]func(bool), 0, len(t.listeners))
		for id := 0; id < t.nextID; id++ {
			if fn, ok := t.listeners[id]; ok {
				notify = append(notify, fn)
			}
		}
	}
	t.mu.Unlock()

	for _, fn := range notify {
		fn(next)
	}
	return next
}

// Subscribe registers fn for signal flips. The returned function removes the
// listener and may be called any number of times.
func (t *Tracker) Subscribe(fn func(bool)) (unsubscribe func()) {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.listeners[id] = fn
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.listeners, id)
			t.mu.Unlock()
		})
	}
}

// Close drops every listener.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.listeners)
}
