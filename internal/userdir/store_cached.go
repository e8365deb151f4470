package userdir

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedStore decorates a Store with a Redis read-through cache. Role checks
// run on every donation and distribution, so directory reads dominate writes;
// writes invalidate by overwriting the cached entry.
type CachedStore struct {
	inner Store
	rdb   *redis.Client
	ttl   time.Duration
}

func NewCachedStore(inner Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{inner: inner, rdb: rdb, ttl: ttl}
}

type cachedUser struct {
	Address       string    `json:"address"`
	DisplayName   string    `json:"display_name"`
	Verified      bool      `json:"verified"`
	Roles         []string  `json:"roles"`
	TotalDonated  int64     `json:"total_donated"`
	TotalReceived int64     `json:"total_received"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func cacheKey(addr string) string {
	return fmt.Sprintf("userdir:user:%s", addr)
}

func (s *CachedStore) Save(ctx context.Context, user *User) error {
	if err := s.inner.Save(ctx, user); err != nil {
		return err
	}
	s.writeThrough(ctx, user)
	return nil
}

func (s *CachedStore) Get(ctx context.Context, addr string) (*User, error) {
	raw, err := s.rdb.Get(ctx, cacheKey(addr)).Bytes()
	if err == nil {
		var cached cachedUser
		if err := json.Unmarshal(raw, &cached); err == nil {
			return fromCached(cached), nil
		}
		// Corrupt entry: fall through to the inner store.
	} else if !errors.Is(err, redis.Nil) {
		// Redis being down must not take the directory down with it.
		return s.inner.Get(ctx, addr)
	}

	user, err := s.inner.Get(ctx, addr)
	if err != nil {
		return nil, err
	}
	s.writeThrough(ctx, user)
	return user, nil
}

func (s *CachedStore) Update(ctx context.Context, user *User) error {
	if err := s.inner.Update(ctx, user); err != nil {
		return err
	}
	s.writeThrough(ctx, user)
	return nil
}

func (s *CachedStore) writeThrough(ctx context.Context, user *User) {
	payload, err := json.Marshal(toCached(user))
	if err != nil {
		return
	}
	// Best effort: a failed cache write only costs a future inner read.
	_ = s.rdb.Set(ctx, cacheKey(user.Address), payload, s.ttl).Err()
}

func toCached(user *User) cachedUser {
	return cachedUser{
		Address:       user.Address,
		DisplayName:   user.DisplayName,
		Verified:      user.Verified,
		Roles:         rolesToSlice(user.Roles),
		TotalDonated:  user.TotalDonated,
		TotalReceived: user.TotalReceived,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
}

func fromCached(cached cachedUser) *User {
	return &User{
		Address:       cached.Address,
		DisplayName:   cached.DisplayName,
		Verified:      cached.Verified,
		Roles:         rolesFromSlice(cached.Roles),
		TotalDonated:  cached.TotalDonated,
		TotalReceived: cached.TotalReceived,
		CreatedAt:     cached.CreatedAt,
		UpdatedAt:     cached.UpdatedAt,
	}
}

var _ Store = (*CachedStore)(nil)
