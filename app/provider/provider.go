package provider

import (
	"context"

	"github.com/vibast-solutions/ms-go-connector/app/entity"
)

type AuthoriseStatus string

const (
	AuthoriseAuthorised  AuthoriseStatus = "AUTHORISED"
	AuthoriseRejected    AuthoriseStatus = "REJECTED"
	AuthoriseCancelled   AuthoriseStatus = "CANCELLED"
	AuthoriseSubmitted   AuthoriseStatus = "SUBMITTED"
	AuthoriseRequires3DS AuthoriseStatus = "REQUIRES_3DS"
	AuthoriseError       AuthoriseStatus = "ERROR"
)

// ModificationStatus is the outcome of a capture, cancel or refund the
// processor accepted.
type ModificationStatus string

const (
	// ModificationComplete means the processor finished the operation
	// synchronously.
	ModificationComplete ModificationStatus = "COMPLETE"
	// ModificationPending means the processor accepted the request and will
	// confirm it with a notification.
	ModificationPending ModificationStatus = "PENDING"
)

type Card struct {
	Number      string
	CVC         string
	HolderName  string
	ExpiryMonth int
	ExpiryYear  int
}

type AuthoriseRequest struct {
	Account *entity.GatewayAccount
	Charge  *entity.Charge
	Card    Card
}

type AuthoriseResponse struct {
	Status        AuthoriseStatus
	TransactionID string
	ErrorCode     string
	ErrorMessage  string
}

type ModificationRequest struct {
	Account *entity.GatewayAccount
	Charge  *entity.Charge
}

type RefundRequest struct {
	Account *entity.GatewayAccount
	Charge  *entity.Charge
	Refund  *entity.Refund
}

type ModificationResponse struct {
	Status ModificationStatus
	// Reference is the processor's identifier for the operation, if any.
	Reference string
}

// TransactionIDGenerator is implemented by processors whose orders are keyed
// by an id the connector chooses. The id is stored before the processor is
// called so a late notification can still find the charge.
type TransactionIDGenerator interface {
	NewTransactionID() string
}

// Provider is the uniform contract every card processor integration
// implements. Operation failures are returned as *GatewayError.
type Provider interface {
	Name() string
	Authorise(ctx context.Context, req *AuthoriseRequest) (*AuthoriseResponse, error)
	Capture(ctx context.Context, req *ModificationRequest) (*ModificationResponse, error)
	Cancel(ctx context.Context, req *ModificationRequest) (*ModificationResponse, error)
	Refund(ctx context.Context, req *RefundRequest) (*ModificationResponse, error)
	ParseNotification(payload *NotificationPayload) ([]*Notification, error)
	VerifyNotification(ctx context.Context, notification *Notification, account *entity.GatewayAccount) bool
	StatusMapper() *StatusMapper
	ExternalRefundAvailability(charge *entity.Charge, refunds []*entity.Refund) RefundAvailability
}
