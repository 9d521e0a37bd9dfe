package entity

import "time"

const (
	NotificationReceived  int32 = 1
	NotificationProcessed int32 = 10
	NotificationIgnored   int32 = 15
	NotificationRejected  int32 = 20
)

type NotificationLog struct {
	ID uint64

	ChargeID *uint64

	ProviderName  string
	TransactionID *string
	StatusCode    *string
	RemoteIP      string
	Payload       string
	Status        int32
	Error         *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
