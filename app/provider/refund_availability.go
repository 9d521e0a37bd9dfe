package provider

import (
	"github.com/vibast-solutions/ms-go-connector/app/entity"
	"github.com/vibast-solutions/ms-go-connector/app/status"
)

type RefundAvailability string

const (
	RefundAvailable   RefundAvailability = "AVAILABLE"
	RefundUnavailable RefundAvailability = "UNAVAILABLE"
	RefundPending     RefundAvailability = "PENDING"
	RefundFull        RefundAvailability = "FULL"
)

var preCaptureStatuses = []status.ChargeStatus{
	status.ChargeCreated,
	status.ChargePaymentNotificationCreated,
	status.ChargeEnteringCardDetails,
	status.ChargeAuthorisationReady,
	status.ChargeAuthorisationSubmitted,
	status.ChargeAuthorisation3DSRequired,
	status.ChargeAuthorisation3DSReady,
	status.ChargeAuthorisationSuccess,
	status.ChargeAwaitingCaptureRequest,
	status.ChargeCaptureApproved,
	status.ChargeCaptureApprovedRetry,
	status.ChargeCaptureReady,
}

// TotalRefunded sums the refunds that reduce the refundable amount.
func TotalRefunded(refunds []*entity.Refund) int64 {
	var total int64
	for _, r := range refunds {
		if r.CountsAgainstCharge() {
			total += r.AmountCents
		}
	}
	return total
}

// DefaultRefundAvailability applies the rules shared by all processors.
func DefaultRefundAvailability(charge *entity.Charge, refunds []*entity.Refund) RefundAvailability {
	switch {
	case charge.Status.IsOneOf(preCaptureStatuses...):
		return RefundPending
	case charge.Status.IsOneOf(status.ChargeCaptured, status.ChargeCaptureSubmitted):
		if charge.AmountCents-TotalRefunded(refunds) > 0 {
			return RefundAvailable
		}
		return RefundFull
	default:
		return RefundUnavailable
	}
}
