package reveal

import (
	"slices"
	"sync"
	"time"
)

// State is the reveal state of a panel.
type State int

const (
	Hidden State = iota
	Visible
)

func (s State) String() string {
	if s == Visible {
		return "visible"
	}
	return "hidden"
}

// Entrance animation defaults.
const (
	DefaultDuration = 600 * time.Millisecond
	DefaultStagger  = 100 * time.Millisecond
	DefaultOffset   = 20.0
)

// Frame is the rendered look of an element at one instant.
type Frame struct {
	Opacity float64
	OffsetY float64
}

// Animation describes an entrance: opacity 0 to 1 and a vertical offset
// sliding to 0, with each child starting Stagger after the previous one.
type Animation struct {
	Duration time.Duration
	Stagger  time.Duration
	Offset   float64
	Children int
}

// DefaultAnimation returns the standard entrance for a panel with n children.
func DefaultAnimation(children int) Animation {
	return Animation{
		Duration: DefaultDuration,
		Stagger:  DefaultStagger,
		Offset:   DefaultOffset,
		Children: children,
	}
}

// ChildDelay returns when child i starts moving.
func (a Animation) ChildDelay(i int) time.Duration {
	return time.Duration(i) * a.Stagger
}

// Total is the time until the last child settles.
func (a Animation) Total() time.Duration {
	if a.Children <= 0 {
		return a.Duration
	}
	return a.ChildDelay(a.Children-1) + a.Duration
}

// Panel returns the panel frame elapsed after the animation started.
func (a Animation) Panel(elapsed time.Duration) Frame {
	return a.frame(elapsed)
}

// Child returns the frame of child i elapsed after the animation started.
func (a Animation) Child(i int, elapsed time.Duration) Frame {
	return a.frame(elapsed - a.ChildDelay(i))
}

func (a Animation) frame(elapsed time.Duration) Frame {
	p := 1.0
	if a.Duration > 0 {
		p = float64(elapsed) / float64(a.Duration)
	}
	p = min(max(p, 0), 1)
	return Frame{Opacity: p, OffsetY: a.Offset * (1 - p)}
}

// Controller moves one panel between Hidden and Visible following its
// tracker's signal.
type Controller struct {
	mu        sync.Mutex
	tracker   *Tracker
	anim      Animation
	state     State
	since     time.Time
	now       func() time.Time
	onChange  []func(State)
	unsub     func()
	listening bool
}

// NewController wires a controller to tracker. children is the number of
// staggered child elements in the panel.
func NewController(tracker *Tracker, children int) *Controller {
	c := &Controller{
		tracker: tracker,
		anim:    DefaultAnimation(children),
		now:     time.Now,
	}
	c.since = c.now()
	c.unsub = tracker.Subscribe(c.observe)
	c.listening = true
	if tracker.Visible() {
		c.observe(true)
	}
	return c
}

// WithClock replaces the time source. It returns c for chaining.
func (c *Controller) WithClock(now func() time.Time) *Controller {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
	c.since = now()
	return c
}

// OnChange registers fn to be called after every state transition.
func (c *Controller) OnChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = append(c.onChange, fn)
}

// State returns the current reveal state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Since returns when the current state was entered.
func (c *Controller) Since() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.since
}

// Animation returns the entrance animation played on reveal.
func (c *Controller) Animation() Animation { return c.anim }

// Child returns the current frame of child i. Hidden panels render fully
// transparent at the starting offset.
func (c *Controller) Child(i int) Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Hidden {
		return Frame{Opacity: 0, OffsetY: c.anim.Offset}
	}
	return c.anim.Child(i, c.now().Sub(c.since))
}

// Settled reports whether the panel is visible and every child has finished
// its entrance.
func (c *Controller) Settled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == Visible && c.now().Sub(c.since) >= c.anim.Total()
}

// Close detaches the controller from its tracker.
func (c *Controller) Close() {
	c.mu.Lock()
	unsub := c.unsub
	c.listening = false
	c.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

func (c *Controller) observe(inView bool) {
	c.mu.Lock()
	if !c.listening {
		c.mu.Unlock()
		return
	}
	next := Hidden
	if inView {
		next = Visible
	}
	if next == c.state {
		c.mu.Unlock()
		return
	}
	c.state = next
	c.since = c.now()
	hooks := slices.Clone(c.onChange)
	c.mu.Unlock()

	for _, fn := range hooks {
		fn(next)
	}
}
