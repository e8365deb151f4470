package attestation

import (
	"context"
	"sync"

	"wrldrelief/pkg/sentinel"
)

// InMemoryStore keeps attestations by token id with a per-holder index.
type InMemoryStore struct {
	mu       sync.RWMutex
	tokens   map[string]*Attestation
	byHolder map[string][]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		tokens:   make(map[string]*Attestation),
		byHolder: make(map[string][]string),
	}
}

func (s *InMemoryStore) Save(_ context.Context, a *Attestation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tokens[a.TokenID]; exists {
		return sentinel.ErrConflict
	}
	cp := *a
	s.tokens[a.TokenID] = &cp
	s.byHolder[a.Holder] = append(s.byHolder[a.Holder], a.TokenID)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, tokenID string) (*Attestation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.tokens[tokenID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *InMemoryStore) ListByHolder(_ context.Context, holder string) ([]*Attestation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byHolder[holder]
	out := make([]*Attestation, 0, len(ids))
	for _, id := range ids {
		cp := *s.tokens[id]
		out = append(out, &cp)
	}
	return out, nil
}
