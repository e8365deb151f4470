package campaign

import (
	"context"
	"log/slog"
	"sync"

	"wrldrelief/internal/campaign/ports"
	"wrldrelief/internal/event"
	"wrldrelief/internal/platform/metrics"
	relieferrors "wrldrelief/pkg/relieferrors"
	"wrldrelief/pkg/requestcontext"
)

// Template carries the collaborator bindings copied into each new campaign at
// creation time. Updating the factory template affects only future campaigns;
// existing ones keep the bindings they were created with.
type Template struct {
	Asset        ports.Asset
	Attestations ports.AttestationLedger
	Governance   ports.GovernanceToken
}

// Factory creates campaigns and maintains the canonical index of all of them.
// Ids are allocated from a monotonic counter starting at 1 and are never
// reused or removed, even after deactivation; queries filter instead.
type Factory struct {
	mu     sync.RWMutex
	paused bool
	nextID uint64
	tpl    Template

	records     map[uint64]*Record
	campaigns   map[uint64]*Campaign
	byDisaster  map[string][]uint64
	byOrganizer map[string][]uint64

	users     ports.UserDirectory
	disasters ports.DisasterRegistry
	events    *event.Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewFactory wires the factory to its shared collaborators. The template can
// be replaced later via UpdateTemplate.
func NewFactory(users ports.UserDirectory, disasters ports.DisasterRegistry, tpl Template, events *event.Publisher, logger *slog.Logger, m *metrics.Metrics) *Factory {
	return &Factory{
		nextID:      1,
		tpl:         tpl,
		records:     make(map[uint64]*Record),
		campaigns:   make(map[uint64]*Campaign),
		byDisaster:  make(map[string][]uint64),
		byOrganizer: make(map[string][]uint64),
		users:       users,
		disasters:   disasters,
		events:      events,
		logger:      logger,
		metrics:     m,
	}
}

// CreateCampaign validates the input, instantiates a new campaign bound to
// the current template and the shared user directory, and indexes it.
func (f *Factory) CreateCampaign(ctx context.Context, organizer string, in CreateInput) (*Campaign, error) {
	f.mu.RLock()
	paused := f.paused
	f.mu.RUnlock()
	if paused {
		return nil, relieferrors.New(relieferrors.CodePaused, "factory is paused")
	}

	isOrganizer, err := f.users.HasRole(ctx, organizer, ports.RoleOrganizer)
	if err != nil {
		return nil, relieferrors.Wrap(relieferrors.CodeInternal, "user directory lookup failed", err)
	}
	if !isOrganizer {
		return nil, relieferrors.New(relieferrors.CodeUnauthorized, "caller does not hold the organizer role")
	}

	now := requestcontext.Now(ctx)
	switch {
	case in.DisasterID == "":
		return nil, relieferrors.New(relieferrors.CodeInvalidInput, "disaster id required")
	case in.Name == "":
		return nil, relieferrors.New(relieferrors.CodeInvalidInput, "campaign name required")
	case !in.StartDate.After(now):
		return nil, relieferrors.New(relieferrors.CodeInvalidInput, "start date must be in the future")
	case !in.EndDate.After(in.StartDate):
		return nil, relieferrors.New(relieferrors.CodeInvalidInput, "end date must be after start date")
	case len(in.SupportItems) == 0:
		return nil, relieferrors.New(relieferrors.CodeInvalidInput, "at least one support item required")
	}

	exists, err := f.disasters.DisasterExists(ctx, in.DisasterID)
	if err != nil {
		return nil, relieferrors.Wrap(relieferrors.CodeInternal, "disaster registry lookup failed", err)
	}
	if !exists {
		return nil, relieferrors.Newf(relieferrors.CodeNotFound, "disaster %q not registered", in.DisasterID)
	}

	f.mu.Lock()
	id := f.nextID
	f.nextID++
	c := newCampaign(id, organizer, in, now, f.tpl, f.users, f.events, f.logger, f.metrics)
	record := &Record{
		ID:         id,
		Handle:     c.Handle(),
		DisasterID: in.DisasterID,
		Organizer:  organizer,
		Name:       in.Name,
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
		CreatedAt:  now,
		Active:     true,
	}
	f.records[id] = record
	f.campaigns[id] = c
	f.byDisaster[in.DisasterID] = append(f.byDisaster[in.DisasterID], id)
	f.byOrganizer[organizer] = append(f.byOrganizer[organizer], id)
	f.mu.Unlock()

	if f.metrics != nil {
		f.metrics.CampaignsCreated.Inc()
	}
	f.emit(ctx, event.Event{
		Action:     event.ActionCampaignCreated,
		Actor:      organizer,
		CampaignID: id,
		DisasterID: in.DisasterID,
		Detail:     in.Name,
	})
	f.logger.InfoContext(ctx, "campaign created",
		"campaign_id", id, "disaster_id", in.DisasterID, "organizer", organizer)

	return c, nil
}

// DeactivateCampaign flips the factory record inactive and administratively
// pauses the campaign. One-way: no reactivation path exists.
func (f *Factory) DeactivateCampaign(ctx context.Context, caller string, id uint64) error {
	f.mu.RLock()
	paused := f.paused
	f.mu.RUnlock()
	if paused {
		return relieferrors.New(relieferrors.CodePaused, "factory is paused")
	}
	if err := f.requireAdmin(ctx, caller); err != nil {
		return err
	}

	f.mu.Lock()
	record, ok := f.records[id]
	if !ok {
		f.mu.Unlock()
		return relieferrors.Newf(relieferrors.CodeNotFound, "campaign %d not found", id)
	}
	if !record.Active {
		f.mu.Unlock()
		return relieferrors.Newf(relieferrors.CodeAlreadyInactive, "campaign %d already deactivated", id)
	}
	record.Active = false
	c := f.campaigns[id]
	f.mu.Unlock()

	c.forcePause()

	if f.metrics != nil {
		f.metrics.CampaignsDeactivated.Inc()
	}
	f.emit(ctx, event.Event{
		Action:     event.ActionCampaignDeactivated,
		Actor:      caller,
		CampaignID: id,
		DisasterID: record.DisasterID,
	})
	f.logger.InfoContext(ctx, "campaign deactivated", "campaign_id", id, "caller", caller)
	return nil
}

// Campaign resolves a campaign by id.
func (f *Factory) Campaign(id uint64) (*Campaign, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	c, ok := f.campaigns[id]
	if !ok {
		return nil, relieferrors.Newf(relieferrors.CodeNotFound, "campaign %d not found", id)
	}
	return c, nil
}

// CampaignInfo returns the factory record for a campaign.
func (f *Factory) CampaignInfo(id uint64) (*Record, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	record, ok := f.records[id]
	if !ok {
		return nil, relieferrors.Newf(relieferrors.CodeNotFound, "campaign %d not found", id)
	}
	cp := *record
	return &cp, nil
}

// ActiveCampaignsByDisaster lists campaigns for a disaster that are still
// active and whose end date has not passed, in creation order.
func (f *Factory) ActiveCampaignsByDisaster(ctx context.Context, disasterID string) []*Record {
	now := requestcontext.Now(ctx)
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []*Record
	for _, id := range f.byDisaster[disasterID] {
		record := f.records[id]
		if record.Active && !now.After(record.EndDate) {
			cp := *record
			out = append(out, &cp)
		}
	}
	return out
}

// CampaignsByOrganizer lists all campaigns an organizer created, in creation
// order, regardless of active state.
func (f *Factory) CampaignsByOrganizer(organizer string) []*Record {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*Record, 0, len(f.byOrganizer[organizer]))
	for _, id := range f.byOrganizer[organizer] {
		cp := *f.records[id]
		out = append(out, &cp)
	}
	return out
}

// TotalCampaignCount returns the number of campaigns ever created.
func (f *Factory) TotalCampaignCount() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.nextID - 1
}

// UpdateTemplate replaces the collaborator template for future campaigns.
// Existing campaigns are unaffected. ADMIN only.
func (f *Factory) UpdateTemplate(ctx context.Context, caller string, tpl Template) error {
	if err := f.requireAdmin(ctx, caller); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tpl = tpl
	return nil
}

// Pause blocks campaign creation and deactivation. ADMIN only. Pausing the
// factory does not pause individual campaigns.
func (f *Factory) Pause(ctx context.Context, caller string) error {
	if err := f.requireAdmin(ctx, caller); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = true
	return nil
}

// Unpause lifts a factory pause. ADMIN only.
func (f *Factory) Unpause(ctx context.Context, caller string) error {
	if err := f.requireAdmin(ctx, caller); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = false
	return nil
}

func (f *Factory) requireAdmin(ctx context.Context, caller string) error {
	ok, err := f.users.HasRole(ctx, caller, ports.RoleAdmin)
	if err != nil {
		return relieferrors.Wrap(relieferrors.CodeInternal, "user directory lookup failed", err)
	}
	if !ok {
		return relieferrors.New(relieferrors.CodeUnauthorized, "caller does not hold the admin role")
	}
	return nil
}

func (f *Factory) emit(ctx context.Context, e event.Event) {
	if f.events == nil {
		return
	}
	if err := f.events.Emit(ctx, e); err != nil {
		f.logger.WarnContext(ctx, "event emit failed", "action", e.Action, "error", err)
	}
}
