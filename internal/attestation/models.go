package attestation

import "time"

// Kind distinguishes the two attestation shapes.
type Kind string

const (
	KindDonor     Kind = "donor"
	KindRecipient Kind = "recipient"
)

// Attestation is a non-transferable record of a donation made or relief
// received. There is deliberately no transfer operation anywhere in this
// package: once minted to a holder, an attestation stays with that address.
type Attestation struct {
	TokenID     string    `json:"token_id"`
	Kind        Kind      `json:"kind"`
	Holder      string    `json:"holder"`
	CampaignID  uint64    `json:"campaign_id"`
	DisasterID  string    `json:"disaster_id"`
	SupportItem string    `json:"support_item,omitempty"`
	Amount      int64     `json:"amount"`
	IssuedAt    time.Time `json:"issued_at"`
}
