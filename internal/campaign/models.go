package campaign

import (
	"time"

	relieferrors "wrldrelief/pkg/relieferrors"
)

// FeePercent is the platform fee taken from every donation. Fixed at build
// time; there is no setter.
const FeePercent = 3

// SplitFee computes the platform fee and net amount for a gross donation.
// fee = floor(amount * FeePercent / 100). The split is computed on the
// quotient and remainder separately so amounts near the int64 limit never
// overflow into a negative fee.
func SplitFee(amount int64) (fee, net int64) {
	fee = amount/100*FeePercent + amount%100*FeePercent/100
	return fee, amount - fee
}

// Status is the organizer-controlled lifecycle state of a campaign.
// Any transition between the four values is legal except the identity
// transition; the orthogonal admin pause flag blocks donate/distribute
// regardless of Status.
type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusEnded     Status = "ended"
	StatusCancelled Status = "cancelled"
)

var validStatuses = map[Status]bool{
	StatusActive:    true,
	StatusPaused:    true,
	StatusEnded:     true,
	StatusCancelled: true,
}

// ParseStatus constructs a Status from external input.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !validStatuses[st] {
		return "", relieferrors.Newf(relieferrors.CodeInvalidInput, "invalid status %q", s)
	}
	return st, nil
}

// CreateInput carries the caller-supplied fields for a new campaign.
type CreateInput struct {
	DisasterID   string
	Name         string
	Description  string
	StartDate    time.Time
	EndDate      time.Time
	SupportItems []string
	ImageURL     string
}

// Record is the factory's canonical entry for a campaign. Immutable once
// created except Active; index entries are never removed, only filtered at
// query time.
type Record struct {
	ID         uint64    `json:"id"`
	Handle     string    `json:"handle"`
	DisasterID string    `json:"disaster_id"`
	Organizer  string    `json:"organizer"`
	Name       string    `json:"name"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	CreatedAt  time.Time `json:"created_at"`
	Active     bool      `json:"active"`
}

// Donation is an immutable per-campaign record of one accepted donation.
// Amount is net of the platform fee.
type Donation struct {
	ID          uint64    `json:"id"`
	Donor       string    `json:"donor"`
	Amount      int64     `json:"amount"`
	Timestamp   time.Time `json:"timestamp"`
	DisplayName string    `json:"display_name,omitempty"`
}

// Distribution is an immutable per-campaign record of escrow paid out to a
// verified recipient. Completed is always true on creation; no partial or
// asynchronous distribution exists.
type Distribution struct {
	ID          uint64    `json:"id"`
	Recipient   string    `json:"recipient"`
	SupportItem string    `json:"support_item"`
	Amount      int64     `json:"amount"`
	Timestamp   time.Time `json:"timestamp"`
	Completed   bool      `json:"completed"`
}

// Info is a point-in-time snapshot of a campaign's full state.
type Info struct {
	ID                uint64    `json:"id"`
	Handle            string    `json:"handle"`
	DisasterID        string    `json:"disaster_id"`
	Organizer         string    `json:"organizer"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	StartDate         time.Time `json:"start_date"`
	EndDate           time.Time `json:"end_date"`
	SupportItems      []string  `json:"support_items"`
	ImageURL          string    `json:"image_url,omitempty"`
	Status            Status    `json:"status"`
	AdminPaused       bool      `json:"admin_paused"`
	TotalDonations    int64     `json:"total_donations"`
	DonationCount     uint64    `json:"donation_count"`
	DistributionCount uint64    `json:"distribution_count"`
	CreatedAt         time.Time `json:"created_at"`
	CanEdit           bool      `json:"can_edit"`
}
