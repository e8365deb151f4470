package campaign

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"wrldrelief/internal/campaign/ports"
	"wrldrelief/internal/event"
	"wrldrelief/internal/platform/metrics"
	relieferrors "wrldrelief/pkg/relieferrors"
	"wrldrelief/pkg/requestcontext"
)

// Campaign owns the escrow for one fundraising effort. All mutating entry
// points run as a single atomic step: every precondition is checked up front
// and a failure leaves no partial state behind. Donate and Distribute
// additionally hold a non-reentrant guard across their external asset calls,
// so a transfer callback cannot re-enter either operation mid-flight.
type Campaign struct {
	mu   sync.RWMutex
	busy atomic.Bool

	id           uint64
	disasterID   string
	organizer    string
	name         string
	description  string
	startDate    time.Time
	endDate      time.Time
	supportItems []string
	imageURL     string
	createdAt    time.Time

	status      Status
	adminPaused bool
	canEdit     bool

	// totalDonations is the live escrow balance available for distribution:
	// sum of net donations minus sum of distributions, never negative.
	totalDonations int64

	nextDonationID     uint64
	nextDistributionID uint64
	donations          map[uint64]*Donation
	donationsByDonor   map[string][]uint64
	distributions      map[uint64]*Distribution
	distByRecipient    map[string][]uint64

	users        ports.UserDirectory
	asset        ports.Asset
	attestations ports.AttestationLedger
	governance   ports.GovernanceToken
	events       *event.Publisher
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

func newCampaign(id uint64, organizer string, in CreateInput, createdAt time.Time, tpl Template, users ports.UserDirectory, events *event.Publisher, logger *slog.Logger, m *metrics.Metrics) *Campaign {
	return &Campaign{
		id:                 id,
		disasterID:         in.DisasterID,
		organizer:          organizer,
		name:               in.Name,
		description:        in.Description,
		startDate:          in.StartDate,
		endDate:            in.EndDate,
		supportItems:       append([]string{}, in.SupportItems...),
		imageURL:           in.ImageURL,
		createdAt:          createdAt,
		status:             StatusActive,
		canEdit:            true,
		nextDonationID:     1,
		nextDistributionID: 1,
		donations:          make(map[uint64]*Donation),
		donationsByDonor:   make(map[string][]uint64),
		distributions:      make(map[uint64]*Distribution),
		distByRecipient:    make(map[string][]uint64),
		users:              users,
		asset:              tpl.Asset,
		attestations:       tpl.Attestations,
		governance:         tpl.Governance,
		events:             events,
		logger:             logger,
		metrics:            m,
	}
}

// ID returns the factory-assigned campaign id.
func (c *Campaign) ID() uint64 { return c.id }

// Handle is the campaign's custody address on the escrow asset ledger.
func (c *Campaign) Handle() string { return fmt.Sprintf("campaign:%d", c.id) }

// Organizer returns the address granted the organizer capability at creation.
func (c *Campaign) Organizer() string { return c.organizer }

// enter acquires the non-reentrant guard shared by Donate and Distribute.
// A nested call from within an in-flight operation fails instead of blocking.
func (c *Campaign) enter() error {
	if !c.busy.CompareAndSwap(false, true) {
		return relieferrors.New(relieferrors.CodeReentrant, "donate/distribute already in flight")
	}
	return nil
}

func (c *Campaign) exit() { c.busy.Store(false) }

// Donate pulls amount from the donor into campaign custody, credits the net
// amount (after the platform fee) to escrow, and records the donation. The
// fee stays in custody; sweeping it is an operational concern.
func (c *Campaign) Donate(ctx context.Context, donor string, amount int64) (*Donation, error) {
	if err := c.enter(); err != nil {
		return nil, err
	}
	defer c.exit()

	if amount <= 0 {
		return nil, relieferrors.New(relieferrors.CodeInvalidInput, "donation amount must be positive")
	}
	if donor == "" {
		return nil, relieferrors.New(relieferrors.CodeInvalidInput, "donor address required")
	}

	now := requestcontext.Now(ctx)
	c.mu.RLock()
	asset := c.asset
	paused := c.adminPaused
	status := c.status
	inWindow := !now.Before(c.startDate) && !now.After(c.endDate)
	c.mu.RUnlock()

	switch {
	case paused:
		return nil, relieferrors.New(relieferrors.CodePaused, "campaign is administratively paused")
	case status != StatusActive:
		return nil, relieferrors.Newf(relieferrors.CodePreconditionFailed, "campaign status is %s", status)
	case !inWindow:
		return nil, relieferrors.New(relieferrors.CodePreconditionFailed, "outside campaign donation window")
	case asset == nil:
		return nil, relieferrors.New(relieferrors.CodePreconditionFailed, "escrow asset not configured")
	}

	info, err := c.users.GetUserInfo(ctx, donor)
	if err != nil {
		return nil, relieferrors.Wrap(relieferrors.CodeInternal, "user directory lookup failed", err)
	}
	// Either role suffices: recipients may donate too.
	if info == nil || !info.Verified || (!info.IsDonor && !info.IsRecipient) {
		return nil, relieferrors.New(relieferrors.CodePreconditionFailed, "donor is not a verified donor or recipient")
	}

	fee, net := SplitFee(amount)

	if err := asset.TransferFrom(ctx, donor, c.Handle(), amount); err != nil {
		return nil, relieferrors.Wrap(relieferrors.CodePreconditionFailed, "escrow transfer failed", err)
	}

	if err := c.users.RecordDonation(ctx, donor, net); err != nil {
		// Undo the pull so the failed call leaves no state behind.
		if rbErr := asset.Transfer(ctx, c.Handle(), donor, amount); rbErr != nil {
			c.logger.ErrorContext(ctx, "donation rollback failed",
				"campaign_id", c.id, "donor", donor, "error", rbErr)
		}
		return nil, relieferrors.Wrap(relieferrors.CodeInternal, "donor accounting update failed", err)
	}

	c.mu.Lock()
	donation := &Donation{
		ID:          c.nextDonationID,
		Donor:       donor,
		Amount:      net,
		Timestamp:   now,
		DisplayName: info.DisplayName,
	}
	c.nextDonationID++
	c.donations[donation.ID] = donation
	c.donationsByDonor[donor] = append(c.donationsByDonor[donor], donation.ID)
	c.totalDonations += net
	c.canEdit = false
	c.mu.Unlock()

	// Attestation and governance minting are accounting side effects; a mint
	// failure does not unwind an accepted donation.
	if c.attestations != nil {
		if _, err := c.attestations.MintDonorAttestation(ctx, donor, c.id, c.disasterID, net); err != nil {
			c.logger.WarnContext(ctx, "donor attestation mint failed",
				"campaign_id", c.id, "donor", donor, "error", err)
		}
	}
	if c.governance != nil {
		if err := c.governance.MintForDonation(ctx, donor, net); err != nil {
			c.logger.WarnContext(ctx, "governance token mint failed",
				"campaign_id", c.id, "donor", donor, "error", err)
		}
	}
	if c.metrics != nil {
		c.metrics.ObserveDonation(fee, net)
	}
	c.emit(ctx, event.Event{
		Action:     event.ActionDonationReceived,
		Actor:      donor,
		CampaignID: c.id,
		DisasterID: c.disasterID,
		Amount:     amount,
		Fee:        fee,
		Net:        net,
	})

	return donation, nil
}

// Distribute pays amount of escrowed funds out to a verified recipient.
// The solvency check and balance decrement happen strictly before the asset
// transfer, so a re-entrant observer can never see undecremented escrow.
// Unlike Donate there is deliberately no status or time-window gate:
// distributions stay possible after endDate and in any lifecycle status as
// long as the campaign is not administratively paused.
func (c *Campaign) Distribute(ctx context.Context, caller, recipient, supportItem string, amount int64) (*Distribution, error) {
	if err := c.enter(); err != nil {
		return nil, err
	}
	defer c.exit()

	if caller != c.organizer {
		return nil, relieferrors.New(relieferrors.CodeUnauthorized, "caller is not the campaign organizer")
	}
	switch {
	case recipient == "":
		return nil, relieferrors.New(relieferrors.CodeInvalidInput, "recipient address required")
	case supportItem == "":
		return nil, relieferrors.New(relieferrors.CodeInvalidInput, "support item required")
	case amount <= 0:
		return nil, relieferrors.New(relieferrors.CodeInvalidInput, "distribution amount must be positive")
	}

	c.mu.RLock()
	asset := c.asset
	paused := c.adminPaused
	c.mu.RUnlock()
	if paused {
		return nil, relieferrors.New(relieferrors.CodePaused, "campaign is administratively paused")
	}
	if asset == nil {
		return nil, relieferrors.New(relieferrors.CodePreconditionFailed, "escrow asset not configured")
	}

	isRecipient, err := c.users.HasRole(ctx, recipient, ports.RoleRecipient)
	if err != nil {
		return nil, relieferrors.Wrap(relieferrors.CodeInternal, "user directory lookup failed", err)
	}
	if !isRecipient {
		return nil, relieferrors.New(relieferrors.CodePreconditionFailed, "recipient does not hold the recipient role")
	}

	now := requestcontext.Now(ctx)

	// Check and decrement under lock before any external effect.
	c.mu.Lock()
	if amount > c.totalDonations {
		c.mu.Unlock()
		return nil, relieferrors.Newf(relieferrors.CodePreconditionFailed,
			"insufficient escrow: requested %d, available %d", amount, c.totalDonations)
	}
	c.totalDonations -= amount
	c.mu.Unlock()

	restore := func() {
		c.mu.Lock()
		c.totalDonations += amount
		c.mu.Unlock()
	}

	if err := asset.Transfer(ctx, c.Handle(), recipient, amount); err != nil {
		restore()
		return nil, relieferrors.Wrap(relieferrors.CodeInternal, "escrow payout failed", err)
	}

	if err := c.users.RecordReceived(ctx, recipient, amount); err != nil {
		if rbErr := asset.Transfer(ctx, recipient, c.Handle(), amount); rbErr != nil {
			c.logger.ErrorContext(ctx, "distribution rollback failed",
				"campaign_id", c.id, "recipient", recipient, "error", rbErr)
		}
		restore()
		return nil, relieferrors.Wrap(relieferrors.CodeInternal, "recipient accounting update failed", err)
	}

	c.mu.Lock()
	dist := &Distribution{
		ID:          c.nextDistributionID,
		Recipient:   recipient,
		SupportItem: supportItem,
		Amount:      amount,
		Timestamp:   now,
		Completed:   true,
	}
	c.nextDistributionID++
	c.distributions[dist.ID] = dist
	c.distByRecipient[recipient] = append(c.distByRecipient[recipient], dist.ID)
	c.mu.Unlock()

	if c.attestations != nil {
		if _, err := c.attestations.MintRecipientAttestation(ctx, recipient, c.id, c.disasterID, supportItem, amount); err != nil {
			c.logger.WarnContext(ctx, "recipient attestation mint failed",
				"campaign_id", c.id, "recipient", recipient, "error", err)
		}
	}
	if c.metrics != nil {
		c.metrics.ObserveDistribution(amount)
	}
	c.emit(ctx, event.Event{
		Action:      event.ActionFundsDistributed,
		Actor:       caller,
		CampaignID:  c.id,
		DisasterID:  c.disasterID,
		Recipient:   recipient,
		SupportItem: supportItem,
		Amount:      amount,
	})

	return dist, nil
}

// UpdateCampaign edits the mutable metadata. Permitted only before the first
// donation; name, dates, disaster id, and support items never change.
func (c *Campaign) UpdateCampaign(ctx context.Context, caller, description, imageURL string) error {
	if caller != c.organizer {
		return relieferrors.New(relieferrors.CodeUnauthorized, "caller is not the campaign organizer")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.canEdit {
		return relieferrors.New(relieferrors.CodeEditLocked, "campaign metadata is locked after the first donation")
	}
	c.description = description
	c.imageURL = imageURL
	return nil
}

// ChangeStatus moves the campaign to a new lifecycle status. Every transition
// between the four statuses is permitted except the identity transition.
func (c *Campaign) ChangeStatus(ctx context.Context, caller string, status Status) error {
	if caller != c.organizer {
		return relieferrors.New(relieferrors.CodeUnauthorized, "caller is not the campaign organizer")
	}
	if !validStatuses[status] {
		return relieferrors.Newf(relieferrors.CodeInvalidInput, "invalid status %q", status)
	}
	c.mu.Lock()
	if c.status == status {
		c.mu.Unlock()
		return relieferrors.Newf(relieferrors.CodeInvalidInput, "campaign already has status %s", status)
	}
	old := c.status
	c.status = status
	c.mu.Unlock()

	c.emit(ctx, event.Event{
		Action:     event.ActionStatusChanged,
		Actor:      caller,
		CampaignID: c.id,
		DisasterID: c.disasterID,
		Detail:     fmt.Sprintf("%s -> %s", old, status),
	})
	return nil
}

// EmergencyPause blocks donate/distribute and forces status to PAUSED.
func (c *Campaign) EmergencyPause(ctx context.Context, caller string) error {
	if err := c.requireAdmin(ctx, caller); err != nil {
		return err
	}
	c.forcePause()
	c.emit(ctx, event.Event{
		Action:     event.ActionEmergencyPause,
		Actor:      caller,
		CampaignID: c.id,
	})
	return nil
}

// EmergencyUnpause clears the admin pause and forces status back to ACTIVE,
// overriding whatever organizer-set status existed. This is an intentional
// administrative override.
func (c *Campaign) EmergencyUnpause(ctx context.Context, caller string) error {
	if err := c.requireAdmin(ctx, caller); err != nil {
		return err
	}
	c.mu.Lock()
	c.adminPaused = false
	c.status = StatusActive
	c.mu.Unlock()
	c.emit(ctx, event.Event{
		Action:     event.ActionEmergencyUnpause,
		Actor:      caller,
		CampaignID: c.id,
	})
	return nil
}

// EmergencyWithdraw sweeps the campaign's entire custodial balance to the
// caller, regardless of escrow bookkeeping. Break-glass only: totalDonations
// is left untouched and will no longer match custody until reconciled.
func (c *Campaign) EmergencyWithdraw(ctx context.Context, caller string) (int64, error) {
	if err := c.requireAdmin(ctx, caller); err != nil {
		return 0, err
	}
	c.mu.RLock()
	asset := c.asset
	c.mu.RUnlock()
	if asset == nil {
		return 0, relieferrors.New(relieferrors.CodePreconditionFailed, "escrow asset not configured")
	}
	balance, err := asset.BalanceOf(ctx, c.Handle())
	if err != nil {
		return 0, relieferrors.Wrap(relieferrors.CodeInternal, "balance lookup failed", err)
	}
	if balance > 0 {
		if err := asset.Transfer(ctx, c.Handle(), caller, balance); err != nil {
			return 0, relieferrors.Wrap(relieferrors.CodeInternal, "emergency sweep failed", err)
		}
	}
	c.logger.WarnContext(ctx, "emergency withdraw executed; escrow bookkeeping now requires reconciliation",
		"campaign_id", c.id, "caller", caller, "amount", balance)
	c.emit(ctx, event.Event{
		Action:     event.ActionEmergencyWithdraw,
		Actor:      caller,
		CampaignID: c.id,
		Amount:     balance,
	})
	return balance, nil
}

// SetAsset configures the escrow asset ledger. ADMIN only.
func (c *Campaign) SetAsset(ctx context.Context, caller string, asset ports.Asset) error {
	if err := c.requireAdmin(ctx, caller); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.asset = asset
	return nil
}

// SetAttestationLedger configures the attestation ledger. ADMIN only.
func (c *Campaign) SetAttestationLedger(ctx context.Context, caller string, ledger ports.AttestationLedger) error {
	if err := c.requireAdmin(ctx, caller); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attestations = ledger
	return nil
}

// SetGovernanceToken configures the governance token minter. ADMIN only.
func (c *Campaign) SetGovernanceToken(ctx context.Context, caller string, token ports.GovernanceToken) error {
	if err := c.requireAdmin(ctx, caller); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.governance = token
	return nil
}

// Info returns a snapshot of the campaign's state.
func (c *Campaign) Info() Info {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Info{
		ID:                c.id,
		Handle:            c.Handle(),
		DisasterID:        c.disasterID,
		Organizer:         c.organizer,
		Name:              c.name,
		Description:       c.description,
		StartDate:         c.startDate,
		EndDate:           c.endDate,
		SupportItems:      append([]string{}, c.supportItems...),
		ImageURL:          c.imageURL,
		Status:            c.status,
		AdminPaused:       c.adminPaused,
		TotalDonations:    c.totalDonations,
		DonationCount:     c.nextDonationID - 1,
		DistributionCount: c.nextDistributionID - 1,
		CreatedAt:         c.createdAt,
		CanEdit:           c.canEdit,
	}
}

// DonationByID looks up one donation record.
func (c *Campaign) DonationByID(id uint64) (*Donation, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.donations[id]
	if !ok {
		return nil, relieferrors.Newf(relieferrors.CodeNotFound, "donation %d not found", id)
	}
	cp := *d
	return &cp, nil
}

// DistributionByID looks up one distribution record.
func (c *Campaign) DistributionByID(id uint64) (*Distribution, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.distributions[id]
	if !ok {
		return nil, relieferrors.Newf(relieferrors.CodeNotFound, "distribution %d not found", id)
	}
	cp := *d
	return &cp, nil
}

// DonationsByDonor lists a donor's donations in record order.
func (c *Campaign) DonationsByDonor(donor string) []*Donation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := c.donationsByDonor[donor]
	out := make([]*Donation, 0, len(ids))
	for _, id := range ids {
		cp := *c.donations[id]
		out = append(out, &cp)
	}
	return out
}

// DistributionsByRecipient lists a recipient's distributions in record order.
func (c *Campaign) DistributionsByRecipient(recipient string) []*Distribution {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := c.distByRecipient[recipient]
	out := make([]*Distribution, 0, len(ids))
	for _, id := range ids {
		cp := *c.distributions[id]
		out = append(out, &cp)
	}
	return out
}

// forcePause sets the admin pause flag and forces status to PAUSED. Called by
// EmergencyPause and by the factory on deactivation.
func (c *Campaign) forcePause() {
	c.mu.Lock()
	c.adminPaused = true
	c.status = StatusPaused
	c.mu.Unlock()
}

func (c *Campaign) requireAdmin(ctx context.Context, caller string) error {
	ok, err := c.users.HasRole(ctx, caller, ports.RoleAdmin)
	if err != nil {
		return relieferrors.Wrap(relieferrors.CodeInternal, "user directory lookup failed", err)
	}
	if !ok {
		return relieferrors.New(relieferrors.CodeUnauthorized, "caller does not hold the admin role")
	}
	return nil
}

func (c *Campaign) emit(ctx context.Context, e event.Event) {
	if c.events == nil {
		return
	}
	if err := c.events.Emit(ctx, e); err != nil {
		c.logger.WarnContext(ctx, "event emit failed",
			"action", e.Action, "campaign_id", c.id, "error", err)
	}
}
