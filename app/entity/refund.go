package entity

import (
	"time"

	"github.com/vibast-solutions/ms-go-connector/app/status"
)

type Refund struct {
	ID uint64

	ExternalID       string
	ChargeExternalID string

	AmountCents int64
	Status      status.RefundStatus

	// GatewayTransactionID is the processor's reference, stored only once the
	// processor accepted the refund.
	GatewayTransactionID *string

	UserExternalID *string
	UserEmail      *string

	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CountsAgainstCharge reports whether the refund reduces the refundable
// amount of its charge. Failed refunds do not.
func (r *Refund) CountsAgainstCharge() bool {
	return r.Status != status.RefundError
}
