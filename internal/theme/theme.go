// Package theme keeps the dark/light UI preference and persists it through a
// small key/value interface.
package theme

import (
	"fmt"
	"sync"
)

// Key is the storage key holding the preference.
const Key = "theme"

// Theme is the UI colour scheme.
type Theme string

const (
	Dark  Theme = "dark"
	Light Theme = "light"
)

// Parse recognises "dark" and "light". Anything else reports false.
func Parse(s string) (Theme, bool) {
	switch Theme(s) {
	case Dark, Light:
		return Theme(s), true
	}
	return "", false
}

// Toggle returns the opposite theme.
func (t Theme) Toggle() Theme {
	if t == Light {
		return Dark
	}
	return Light
}

func (t Theme) String() string { return string(t) }

// KV is the persistence side-channel for the preference.
type KV interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// Store is the process-wide theme preference.
type Store struct {
	mu    sync.Mutex
	kv    KV
	theme Theme
}

// NewStore reads the persisted preference once. Missing or unrecognised
// values fall back to Dark.
func NewStore(kv KV) (*Store, error) {
	s := &Store{kv: kv, theme: Dark}
	v, ok, err := kv.Get(Key)
	if err != nil {
		return s, fmt.Errorf("read theme: %w", err)
	}
	if ok {
		if t, valid := Parse(v); valid {
			s.theme = t
		}
	}
	return s, nil
}

// Get returns the current preference.
func (s *Store) Get() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme
}

// Toggle flips the preference and persists it immediately. The in-memory
// value changes even when persisting fails.
func (s *Store) Toggle() (Theme, error) {
	s.mu.Lock()
	s.theme = s.theme.Toggle()
	t := s.theme
	s.mu.Unlock()

	if err := s.kv.Set(Key, string(t)); err != nil {
		return t, fmt.Errorf("persist theme: %w", err)
	}
	return t, nil
}
