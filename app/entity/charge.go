package entity

import (
	"time"

	"github.com/vibast-solutions/ms-go-connector/app/status"
)

type Charge struct {
	ID uint64

	ExternalID       string
	GatewayAccountID uint64

	AmountCents int64
	Currency    string
	Description string
	Reference   string

	Status               status.ChargeStatus
	GatewayTransactionID *string

	CaptureAttempts int32
	// Historic charges have been archived; part of their refund history lives
	// in the ledger only.
	Historic bool

	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Charge) TransactionID() string {
	if c.GatewayTransactionID == nil {
		return ""
	}
	return *c.GatewayTransactionID
}
