// Package theme holds the fixed set of background themes and the
// process-wide selection.
package theme

import (
	"context"
	"fmt"
	"sync"
)

// Default is selected until the user picks another theme.
const Default = "White"

// Theme is a named background color.
type Theme struct {
	Name  string
	Color string
}

var themes = []Theme{
	{Name: "White", Color: "#FFFFFF"},
	{Name: "Pink", Color: "#fff6f6"},
	{Name: "Orange", Color: "#fff7ef"},
	{Name: "Yellow", Color: "#fffff1"},
	{Name: "Green", Color: "#f7fff3"},
	{Name: "Blue", Color: "#f5f9ff"},
	{Name: "Purple", Color: "#f8f4ff"},
}

// All returns the themes in display order.
func All() []Theme {
	return append([]Theme(nil), themes...)
}

// Lookup finds a theme by exact name.
func Lookup(name string) (Theme, bool) {
	for _, t := range themes {
		if t.Name == name {
			return t, true
		}
	}
	return Theme{}, false
}

// Validate returns an error for names outside the fixed set.
func Validate(name string) error {
	if _, ok := Lookup(name); !ok {
		return fmt.Errorf("unknown theme %q", name)
	}
	return nil
}

// Store keeps the selected theme name.
type Store interface {
	Theme(ctx context.Context) (string, error)
	SetTheme(ctx context.Context, name string) error
}

// MemoryStore keeps the selection for the life of the process.
type MemoryStore struct {
	mu   sync.RWMutex
	name string
}

// NewMemoryStore starts with the given theme, or Default if it is unknown.
func NewMemoryStore(initial string) *MemoryStore {
	if Validate(initial) != nil {
		initial = Default
	}
	return &MemoryStore{name: initial}
}

func (s *MemoryStore) Theme(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name, nil
}

func (s *MemoryStore) SetTheme(_ context.Context, name string) error {
	if err := Validate(name); err != nil {
		return err
	}
	s.mu.Lock()
	s.name = name
	s.mu.Unlock()
	return nil
}

// Current resolves the selected theme, falling back to Default.
func Current(ctx context.Context, s Store) Theme {
	name, err := s.Theme(ctx)
	if err != nil {
		name = Default
	}
	t, ok := Lookup(name)
	if !ok {
		t, _ = Lookup(Default)
	}
	return t
}
