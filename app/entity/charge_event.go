package entity

import "time"

// ChargeEvent is one audit row per applied status transition of a charge or
// one of its refunds.
type ChargeEvent struct {
	ID uint64

	ResourceType       string
	ResourceExternalID string
	ChargeExternalID   string

	EventType string

	OldStatus *string
	NewStatus string

	PayloadJSON *string

	CreatedAt time.Time
}
