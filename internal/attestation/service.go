package attestation

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	relieferrors "wrldrelief/pkg/relieferrors"
	"wrldrelief/pkg/requestcontext"
	"wrldrelief/pkg/sentinel"
)

// Store persists attestations.
type Store interface {
	Save(ctx context.Context, a *Attestation) error
	Get(ctx context.Context, tokenID string) (*Attestation, error)
	ListByHolder(ctx context.Context, holder string) ([]*Attestation, error)
}

// Service mints and serves attestations. Token ids are uuids; per-holder
// history is append-only.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// MintDonorAttestation records that holder donated amount (net) to a
// campaign. Returns the new token id.
func (s *Service) MintDonorAttestation(ctx context.Context, holder string, campaignID uint64, disasterID string, amount int64) (string, error) {
	return s.mint(ctx, &Attestation{
		Kind:       KindDonor,
		Holder:     holder,
		CampaignID: campaignID,
		DisasterID: disasterID,
		Amount:     amount,
	})
}

// MintRecipientAttestation records that holder received amount of a support
// item from a campaign. Returns the new token id.
func (s *Service) MintRecipientAttestation(ctx context.Context, holder string, campaignID uint64, disasterID, supportItem string, amount int64) (string, error) {
	return s.mint(ctx, &Attestation{
		Kind:        KindRecipient,
		Holder:      holder,
		CampaignID:  campaignID,
		DisasterID:  disasterID,
		SupportItem: supportItem,
		Amount:      amount,
	})
}

func (s *Service) mint(ctx context.Context, a *Attestation) (string, error) {
	if a.Holder == "" {
		return "", relieferrors.New(relieferrors.CodeInvalidInput, "holder address required")
	}
	if a.Amount <= 0 {
		return "", relieferrors.New(relieferrors.CodeInvalidInput, "amount must be positive")
	}
	a.TokenID = uuid.NewString()
	a.IssuedAt = requestcontext.Now(ctx)
	if err := s.store.Save(ctx, a); err != nil {
		return "", relieferrors.Wrap(relieferrors.CodeInternal, "save attestation", err)
	}
	s.logger.InfoContext(ctx, "attestation minted",
		"token_id", a.TokenID, "kind", a.Kind, "holder", a.Holder, "campaign_id", a.CampaignID)
	return a.TokenID, nil
}

// Get returns one attestation by token id.
func (s *Service) Get(ctx context.Context, tokenID string) (*Attestation, error) {
	a, err := s.store.Get(ctx, tokenID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, relieferrors.Newf(relieferrors.CodeNotFound, "attestation %s not found", tokenID)
		}
		return nil, relieferrors.Wrap(relieferrors.CodeInternal, "get attestation", err)
	}
	return a, nil
}

// ListByHolder returns a holder's attestations in mint order.
func (s *Service) ListByHolder(ctx context.Context, holder string) ([]*Attestation, error) {
	list, err := s.store.ListByHolder(ctx, holder)
	if err != nil {
		return nil, relieferrors.Wrap(relieferrors.CodeInternal, "list attestations", err)
	}
	return list, nil
}
