package asset

import "context"

// ReliefToken is the platform governance token. Units are minted to donors
// one-to-one against net donation amounts; it implements the campaign
// engine's GovernanceToken port.
type ReliefToken struct {
	ledger *Ledger
}

func NewReliefToken() *ReliefToken {
	return &ReliefToken{ledger: NewLedger("RELIEF")}
}

// MintForDonation credits governance tokens to a donor for a net donation.
func (t *ReliefToken) MintForDonation(ctx context.Context, donor string, amount int64) error {
	return t.ledger.Mint(ctx, donor, amount)
}

// BalanceOf returns a holder's governance token balance.
func (t *ReliefToken) BalanceOf(ctx context.Context, addr string) (int64, error) {
	return t.ledger.BalanceOf(ctx, addr)
}
