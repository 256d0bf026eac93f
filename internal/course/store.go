package course

import (
	"context"
	"sync"
)

// Store persists courses. List returns newest first.
type Store interface {
	List(ctx context.Context) ([]Course, error)
	Get(ctx context.Context, id string) (Course, error)
	Save(ctx context.Context, c Course) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps courses for the life of the process.
type MemoryStore struct {
	mu      sync.RWMutex
	courses map[string]Course
	order   []string // newest first
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{courses: make(map[string]Course)}
}

func (s *MemoryStore) List(_ context.Context) ([]Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Course, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.courses[id].Clone())
	}
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.courses[id]
	if !ok {
		return Course{}, ErrNotFound
	}
	return c.Clone(), nil
}

// Save inserts a new course at the front or replaces an existing one in place.
func (s *MemoryStore) Save(_ context.Context, c Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.courses[c.ID]; !ok {
		s.order = append([]string{c.ID}, s.order...)
	}
	s.courses[c.ID] = c.Clone()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.courses[id]; !ok {
		return ErrNotFound
	}
	delete(s.courses, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
