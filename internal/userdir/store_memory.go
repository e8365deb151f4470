package userdir

import (
	"context"
	"sync"

	"wrldrelief/pkg/sentinel"
)

// InMemoryStore keeps directory records keyed by address.
type InMemoryStore struct {
	mu    sync.RWMutex
	users map[string]*User
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{users: make(map[string]*User)}
}

func (s *InMemoryStore) Save(_ context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.Address]; exists {
		return sentinel.ErrConflict
	}
	s.users[user.Address] = user.clone()
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, addr string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[addr]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return user.clone(), nil
}

func (s *InMemoryStore) Update(_ context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Address]; !ok {
		return sentinel.ErrNotFound
	}
	s.users[user.Address] = user.clone()
	return nil
}
