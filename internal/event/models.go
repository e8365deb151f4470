package event

import "time"

// Action names a platform event. The set mirrors the state-changing
// operations of the factory, campaigns, and registry.
type Action string

const (
	ActionCampaignCreated     Action = "campaign_created"
	ActionCampaignDeactivated Action = "campaign_deactivated"
	ActionDonationReceived    Action = "donation_received"
	ActionFundsDistributed    Action = "funds_distributed"
	ActionStatusChanged       Action = "status_changed"
	ActionEmergencyPause      Action = "emergency_pause"
	ActionEmergencyUnpause    Action = "emergency_unpause"
	ActionEmergencyWithdraw   Action = "emergency_withdraw"
	ActionDisasterRegistered  Action = "disaster_registered"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp   time.Time `json:"timestamp"`
	Action      Action    `json:"action"`
	Actor       string    `json:"actor,omitempty"`
	CampaignID  uint64    `json:"campaign_id,omitempty"`
	DisasterID  string    `json:"disaster_id,omitempty"`
	Recipient   string    `json:"recipient,omitempty"`
	SupportItem string    `json:"support_item,omitempty"`

	// Donation events carry the full fee split; other events use Amount alone.
	Amount int64 `json:"amount,omitempty"`
	Fee    int64 `json:"fee,omitempty"`
	Net    int64 `json:"net,omitempty"`

	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}
