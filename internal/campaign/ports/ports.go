// Package ports defines the collaborator interfaces the campaign engine calls.
// The engine depends only on these narrow shapes, never on the collaborator
// packages themselves, so implementations can be swapped without touching the
// fund-distribution logic. Port models are defined here per module rather than
// shared, to keep coupling one-directional.
package ports

import "context"

// Role is a named capability held by an address.
type Role string

const (
	RoleDonor     Role = "donor"
	RoleRecipient Role = "recipient"
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
	RoleVerifier  Role = "verifier"
)

// UserInfo is the directory's view of one address (port model).
type UserInfo struct {
	Address       string
	DisplayName   string
	Verified      bool
	IsDonor       bool
	IsRecipient   bool
	IsOrganizer   bool
	TotalDonated  int64
	TotalReceived int64
}

// UserDirectory is the authoritative store of verification status, role
// flags, and running donation/received totals.
type UserDirectory interface {
	HasRole(ctx context.Context, addr string, role Role) (bool, error)
	GetUserInfo(ctx context.Context, addr string) (*UserInfo, error)

	// RecordDonation adds a net donation amount to the donor's running total.
	RecordDonation(ctx context.Context, addr string, amount int64) error
	// RecordReceived adds a distributed amount to the recipient's running total.
	RecordReceived(ctx context.Context, addr string, amount int64) error
}

// DisasterRegistry answers existence checks for disaster ids.
type DisasterRegistry interface {
	DisasterExists(ctx context.Context, disasterID string) (bool, error)
}

// AttestationLedger mints non-transferable participation records. Mint calls
// are accounting side effects; their token ids never feed back into the
// campaign's control flow.
type AttestationLedger interface {
	MintDonorAttestation(ctx context.Context, holder string, campaignID uint64, disasterID string, amount int64) (string, error)
	MintRecipientAttestation(ctx context.Context, holder string, campaignID uint64, disasterID, supportItem string, amount int64) (string, error)
}

// Asset is the fungible escrow token ledger. TransferFrom requires a prior
// allowance from the source address; Transfer moves funds the caller address
// already holds.
type Asset interface {
	TransferFrom(ctx context.Context, from, to string, amount int64) error
	Transfer(ctx context.Context, from, to string, amount int64) error
	BalanceOf(ctx context.Context, addr string) (int64, error)
}

// GovernanceToken mints platform governance tokens proportional to net
// donations. Optional; campaigns run without it.
type GovernanceToken interface {
	MintForDonation(ctx context.Context, donor string, amount int64) error
}
