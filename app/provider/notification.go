package provider

import "time"

// NotificationPayload is an inbound processor message as received.
type NotificationPayload struct {
	Body        []byte
	ContentType string
	// Signature carries a header-borne signature, if the processor sends one.
	Signature string
	RemoteIP  string
}

type Notification struct {
	TransactionID string
	// Reference identifies the refund for refund notifications.
	Reference  string
	StatusCode string
	EventDate  *time.Time
	Payload    *NotificationPayload
}

// IsRefundReference reports whether the notification names a refund.
func (n *Notification) IsRefundReference() bool {
	return n.Reference != ""
}
