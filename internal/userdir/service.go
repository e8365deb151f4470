package userdir

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"wrldrelief/pkg/requestcontext"
	"wrldrelief/pkg/sentinel"

	relieferrors "wrldrelief/pkg/relieferrors"
)

// Store persists directory records. Implementations return sentinel errors;
// the service translates them into coded domain errors.
type Store interface {
	Save(ctx context.Context, user *User) error
	Get(ctx context.Context, addr string) (*User, error)
	Update(ctx context.Context, user *User) error
}

// Service is the authoritative role and accounting store for addresses. It
// keeps orchestration out of handlers and the campaign engine thin.
type Service struct {
	store  Store
	logger *slog.Logger

	// writeMu serializes mutate's get-modify-update cycle so concurrent
	// accounting updates for the same address cannot lose an increment.
	writeMu sync.Mutex
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Register creates a new unverified directory entry with no roles.
func (s *Service) Register(ctx context.Context, addr, displayName string) (*User, error) {
	if addr == "" {
		return nil, relieferrors.New(relieferrors.CodeInvalidInput, "address required")
	}
	if displayName == "" {
		return nil, relieferrors.New(relieferrors.CodeInvalidInput, "display name required")
	}
	now := requestcontext.Now(ctx)
	user := &User{
		Address:     addr,
		DisplayName: displayName,
		Roles:       make(map[Role]bool),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Save(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, relieferrors.Newf(relieferrors.CodeAlreadyExists, "address %s already registered", addr)
		}
		return nil, relieferrors.Wrap(relieferrors.CodeInternal, "save user", err)
	}
	return user.clone(), nil
}

// Verify marks an address as verified. Caller must hold VERIFIER or ADMIN.
func (s *Service) Verify(ctx context.Context, caller, addr string) error {
	if err := s.requireAny(ctx, caller, RoleVerifier, RoleAdmin); err != nil {
		return err
	}
	return s.mutate(ctx, addr, func(u *User) error {
		u.Verified = true
		return nil
	})
}

// GrantRole adds a role to an address. ADMIN only.
func (s *Service) GrantRole(ctx context.Context, caller, addr string, role Role) error {
	if err := s.requireAny(ctx, caller, RoleAdmin); err != nil {
		return err
	}
	if !validRoles[role] {
		return relieferrors.Newf(relieferrors.CodeInvalidInput, "invalid role %q", role)
	}
	return s.mutate(ctx, addr, func(u *User) error {
		u.Roles[role] = true
		return nil
	})
}

// RevokeRole removes a role from an address. ADMIN only.
func (s *Service) RevokeRole(ctx context.Context, caller, addr string, role Role) error {
	if err := s.requireAny(ctx, caller, RoleAdmin); err != nil {
		return err
	}
	return s.mutate(ctx, addr, func(u *User) error {
		delete(u.Roles, role)
		return nil
	})
}

// HasRole reports whether the address is registered and holds the role.
// Unknown addresses hold no roles.
func (s *Service) HasRole(ctx context.Context, addr string, role Role) (bool, error) {
	user, err := s.store.Get(ctx, addr)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, relieferrors.Wrap(relieferrors.CodeInternal, "get user", err)
	}
	return user.HasRole(role), nil
}

// GetUserInfo returns the directory record for an address.
func (s *Service) GetUserInfo(ctx context.Context, addr string) (*User, error) {
	user, err := s.store.Get(ctx, addr)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, relieferrors.Newf(relieferrors.CodeNotFound, "address %s not registered", addr)
		}
		return nil, relieferrors.Wrap(relieferrors.CodeInternal, "get user", err)
	}
	return user.clone(), nil
}

// RecordDonation adds a net donation amount to the donor's running total.
func (s *Service) RecordDonation(ctx context.Context, addr string, amount int64) error {
	if amount <= 0 {
		return relieferrors.New(relieferrors.CodeInvalidInput, "amount must be positive")
	}
	return s.mutate(ctx, addr, func(u *User) error {
		u.TotalDonated += amount
		return nil
	})
}

// RecordReceived adds a distributed amount to the recipient's running total.
func (s *Service) RecordReceived(ctx context.Context, addr string, amount int64) error {
	if amount <= 0 {
		return relieferrors.New(relieferrors.CodeInvalidInput, "amount must be positive")
	}
	return s.mutate(ctx, addr, func(u *User) error {
		u.TotalReceived += amount
		return nil
	})
}

// Bootstrap ensures an address exists as a verified admin. Used at startup to
// seed the first administrator; it never demotes an existing user.
func (s *Service) Bootstrap(ctx context.Context, addr, displayName string) error {
	if addr == "" {
		return nil
	}
	user, err := s.store.Get(ctx, addr)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return relieferrors.Wrap(relieferrors.CodeInternal, "get user", err)
		}
		now := requestcontext.Now(ctx)
		user = &User{
			Address:     addr,
			DisplayName: displayName,
			Roles:       make(map[Role]bool),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.store.Save(ctx, user); err != nil && !errors.Is(err, sentinel.ErrConflict) {
			return relieferrors.Wrap(relieferrors.CodeInternal, "save user", err)
		}
	}
	return s.mutate(ctx, addr, func(u *User) error {
		u.Verified = true
		u.Roles[RoleAdmin] = true
		u.Roles[RoleVerifier] = true
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, addr string, fn func(*User) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	user, err := s.store.Get(ctx, addr)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return relieferrors.Newf(relieferrors.CodeNotFound, "address %s not registered", addr)
		}
		return relieferrors.Wrap(relieferrors.CodeInternal, "get user", err)
	}
	if err := fn(user); err != nil {
		return err
	}
	user.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Update(ctx, user); err != nil {
		return relieferrors.Wrap(relieferrors.CodeInternal, "update user", err)
	}
	return nil
}

func (s *Service) requireAny(ctx context.Context, caller string, roles ...Role) error {
	user, err := s.store.Get(ctx, caller)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return relieferrors.New(relieferrors.CodeUnauthorized, "caller not registered")
		}
		return relieferrors.Wrap(relieferrors.CodeInternal, "get user", err)
	}
	for _, role := range roles {
		if user.HasRole(role) {
			return nil
		}
	}
	return relieferrors.New(relieferrors.CodeUnauthorized, "caller lacks required role")
}
