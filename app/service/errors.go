package service

import (
	"errors"
	"fmt"

	"github.com/vibast-solutions/ms-go-connector/app/provider"
)

var (
	ErrInvalidRequest         = errors.New("invalid request")
	ErrChargeNotFound         = errors.New("charge not found")
	ErrGatewayAccountNotFound = errors.New("gateway account not found")
	ErrProviderUnsupported    = errors.New("provider is not supported")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrMalformedNotification  = errors.New("malformed notification")

	ErrRefundAmountAvailableMismatch = errors.New("refund amount available mismatch")
	ErrRefundNotEnoughAvailable      = errors.New("not sufficient amount available for refund")
	ErrRefundNotAvailable            = errors.New("charge is not available for refund")
)

// RefundAmountError carries the amounts behind a rejected refund.
type RefundAmountError struct {
	Err       error
	Available int64
	Requested int64
}

func (e *RefundAmountError) Error() string {
	return fmt.Sprintf("%s: available=%d requested=%d", e.Err, e.Available, e.Requested)
}

func (e *RefundAmountError) Unwrap() error {
	return e.Err
}

type RefundAvailabilityError struct {
	Availability provider.RefundAvailability
}

func (e *RefundAvailabilityError) Error() string {
	return fmt.Sprintf("%s: %s", ErrRefundNotAvailable, e.Availability)
}

func (e *RefundAvailabilityError) Unwrap() error {
	return ErrRefundNotAvailable
}
