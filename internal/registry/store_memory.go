package registry

import (
	"context"
	"sync"

	"wrldrelief/pkg/sentinel"
)

// InMemoryStore keeps disaster records keyed by id, preserving registration
// order for List.
type InMemoryStore struct {
	mu        sync.RWMutex
	disasters map[string]*Disaster
	order     []string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{disasters: make(map[string]*Disaster)}
}

func (s *InMemoryStore) Save(_ context.Context, d *Disaster) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.disasters[d.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *d
	s.disasters[d.ID] = &cp
	s.order = append(s.order, d.ID)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (*Disaster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.disasters[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *InMemoryStore) Update(_ context.Context, d *Disaster) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.disasters[d.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *d
	s.disasters[d.ID] = &cp
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*Disaster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Disaster, 0, len(s.order))
	for _, id := range s.order {
		cp := *s.disasters[id]
		out = append(out, &cp)
	}
	return out, nil
}
