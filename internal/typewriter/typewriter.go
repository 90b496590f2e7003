// Package typewriter cycles through a list of roles, typing and deleting one
// character per tick.
package typewriter

import (
	"context"
	"errors"
	"time"
)

// ErrNoRoles is returned when a machine is built without any roles.
var ErrNoRoles = errors.New("typewriter: no roles")

// Delays holds the tick intervals used in each phase.
type Delays struct {
	Typing   time.Duration
	Deleting time.Duration
	Hold     time.Duration // after the full role is shown
	Next     time.Duration // after the role is fully erased
}

// DefaultDelays are the classic 150/50/1000/500ms timings.
var DefaultDelays = Delays{
	Typing:   150 * time.Millisecond,
	Deleting: 50 * time.Millisecond,
	Hold:     1000 * time.Millisecond,
	Next:     500 * time.Millisecond,
}

// State is one snapshot of the effect. Text is always a prefix of the role at
// Index, and Delay is how long to wait before the next tick.
type State struct {
	Text     string
	Index    int
	Deleting bool
	Delay    time.Duration
}

// Option configures a Machine.
type Option func(*Machine)

// WithDelays overrides the tick intervals.
func WithDelays(d Delays) Option {
	return func(m *Machine) { m.delays = d }
}

// WithAfter replaces the timer source used by Run.
func WithAfter(after func(time.Duration) <-chan time.Time) Option {
	return func(m *Machine) { m.after = after }
}

// Machine holds the role list and computes state transitions.
type Machine struct {
	roles  [][]rune
	delays Delays
	after  func(time.Duration) <-chan time.Time
}

// New builds a machine over roles.
func New(roles []string, opts ...Option) (*Machine, error) {
	if len(roles) == 0 {
		return nil, ErrNoRoles
	}
	m := &Machine{
		roles:  make([][]rune, len(roles)),
		delays: DefaultDelays,
		after:  time.After,
	}
	for i, r := range roles {
		m.roles[i] = []rune(r)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Roles returns the role list.
func (m *Machine) Roles() []string {
	out := make([]string, len(m.roles))
	for i, r := range m.roles {
		out[i] = string(r)
	}
	return out
}

// Initial is the state before the first tick.
func (m *Machine) Initial() State {
	return State{Delay: m.delays.Typing}
}

// Next applies one tick to s.
func (m *Machine) Next(s State) State {
	idx := s.Index % len(m.roles)
	if idx < 0 {
		idx += len(m.roles)
	}
	role := m.roles[idx]
	n := len([]rune(s.Text))

	if s.Deleting {
		n--
	} else {
		n++
	}
	n = min(max(n, 0), len(role))

	next := State{Text: string(role[:n]), Index: idx, Deleting: s.Deleting}
	switch {
	case !next.Deleting && n == len(role):
		next.Deleting = true
		next.Delay = m.delays.Hold
	case next.Deleting && n == 0:
		next.Deleting = false
		next.Index = (idx + 1) % len(m.roles)
		next.Delay = m.delays.Next
	case next.Deleting:
		next.Delay = m.delays.Deleting
	default:
		next.Delay = m.delays.Typing
	}
	return next
}

// Run drives the machine until ctx is done, calling emit after every tick.
// Exactly one timer is pending at a time; each tick schedules the next one
// using the delay of the state it produced.
func (m *Machine) Run(ctx context.Context, emit func(State)) error {
	s := m.Initial()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.after(s.Delay):
		}
		s = m.Next(s)
		emit(s)
	}
}
