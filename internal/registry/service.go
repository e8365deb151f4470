package registry

import (
	"context"
	"errors"
	"log/slog"

	"wrldrelief/internal/event"
	relieferrors "wrldrelief/pkg/relieferrors"
	"wrldrelief/pkg/requestcontext"
	"wrldrelief/pkg/sentinel"
)

// Store persists disaster records.
type Store interface {
	Save(ctx context.Context, d *Disaster) error
	Get(ctx context.Context, id string) (*Disaster, error)
	Update(ctx context.Context, d *Disaster) error
	List(ctx context.Context) ([]*Disaster, error)
}

// Authorizer answers capability checks for registry operations. Satisfied by
// the user directory service.
type Authorizer interface {
	HasRole(ctx context.Context, addr string, role string) (bool, error)
}

// Service maintains the authoritative set of disasters.
type Service struct {
	store  Store
	authz  Authorizer
	events *event.Publisher
	logger *slog.Logger
}

func NewService(store Store, authz Authorizer, events *event.Publisher, logger *slog.Logger) *Service {
	return &Service{store: store, authz: authz, events: events, logger: logger}
}

// Register records a new disaster. ADMIN only.
func (s *Service) Register(ctx context.Context, caller string, in RegisterInput) (*Disaster, error) {
	if err := s.requireAdmin(ctx, caller); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	d := &Disaster{
		ID:          in.ID,
		Name:        in.Name,
		Location:    in.Location,
		Severity:    in.Severity,
		Description: in.Description,
		StartedAt:   in.StartedAt,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Save(ctx, d); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, relieferrors.Newf(relieferrors.CodeAlreadyExists, "disaster %q already registered", in.ID)
		}
		return nil, relieferrors.Wrap(relieferrors.CodeInternal, "save disaster", err)
	}
	if s.events != nil {
		if err := s.events.Emit(ctx, event.Event{
			Action:     event.ActionDisasterRegistered,
			Actor:      caller,
			DisasterID: d.ID,
			Detail:     d.Name,
		}); err != nil {
			s.logger.WarnContext(ctx, "event emit failed", "disaster_id", d.ID, "error", err)
		}
	}
	cp := *d
	return &cp, nil
}

// UpdateDescription amends the free-text fields of a disaster. ADMIN only;
// id, name, and severity are immutable.
func (s *Service) UpdateDescription(ctx context.Context, caller, id, location, description string) error {
	if err := s.requireAdmin(ctx, caller); err != nil {
		return err
	}
	return s.mutate(ctx, id, func(d *Disaster) {
		if location != "" {
			d.Location = location
		}
		d.Description = description
	})
}

// Deactivate marks a disaster inactive. Existing campaigns are unaffected;
// new campaigns can still reference it (existence, not activity, gates
// creation).
func (s *Service) Deactivate(ctx context.Context, caller, id string) error {
	if err := s.requireAdmin(ctx, caller); err != nil {
		return err
	}
	return s.mutate(ctx, id, func(d *Disaster) {
		d.Active = false
	})
}

// Get returns one disaster.
func (s *Service) Get(ctx context.Context, id string) (*Disaster, error) {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, relieferrors.Newf(relieferrors.CodeNotFound, "disaster %q not found", id)
		}
		return nil, relieferrors.Wrap(relieferrors.CodeInternal, "get disaster", err)
	}
	return d, nil
}

// List returns all disasters in registration order.
func (s *Service) List(ctx context.Context) ([]*Disaster, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, relieferrors.Wrap(relieferrors.CodeInternal, "list disasters", err)
	}
	return list, nil
}

// DisasterExists reports whether the id is registered. Campaign creation
// calls this through the registry port.
func (s *Service) DisasterExists(ctx context.Context, id string) (bool, error) {
	_, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, relieferrors.Wrap(relieferrors.CodeInternal, "get disaster", err)
	}
	return true, nil
}

func (s *Service) mutate(ctx context.Context, id string, fn func(*Disaster)) error {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return relieferrors.Newf(relieferrors.CodeNotFound, "disaster %q not found", id)
		}
		return relieferrors.Wrap(relieferrors.CodeInternal, "get disaster", err)
	}
	fn(d)
	d.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Update(ctx, d); err != nil {
		return relieferrors.Wrap(relieferrors.CodeInternal, "update disaster", err)
	}
	return nil
}

func (s *Service) requireAdmin(ctx context.Context, caller string) error {
	ok, err := s.authz.HasRole(ctx, caller, "admin")
	if err != nil {
		return relieferrors.Wrap(relieferrors.CodeInternal, "role lookup failed", err)
	}
	if !ok {
		return relieferrors.New(relieferrors.CodeUnauthorized, "caller does not hold the admin role")
	}
	return nil
}
