package statemachine

import (
	"github.com/vibast-solutions/ms-go-connector/app/events"
	"github.com/vibast-solutions/ms-go-connector/app/status"
)

var chargeTransitions = mustBuild(newChargeGraphBuilder())

// forceUpdateEvents lists statuses a correction flow may set directly,
// with the event each correction must emit.
var forceUpdateEvents = map[status.ChargeStatus]events.Kind{
	status.ChargeAuthorisationError:    events.StatusCorrectedToAuthorisationErrorToMatchGatewayStatus,
	status.ChargeAuthorisationRejected: events.StatusCorrectedToAuthorisationRejectedToMatchGatewayStatus,
	status.ChargeCaptured:              events.StatusCorrectedToCapturedToMatchGatewayStatus,
	status.ChargeExpired:               events.StatusCorrectedToExpiredToMatchGatewayStatus,
}

// Charges returns the charge status graph shared by the process.
func Charges() *Graph[status.ChargeStatus] {
	return chargeTransitions
}

// EventForForceUpdate returns the correction event for a status that may be
// set outside the graph.
func EventForForceUpdate(target status.ChargeStatus) (events.Kind, bool) {
	kind, ok := forceUpdateEvents[target]
	return kind, ok
}

func newChargeGraphBuilder() *Builder[status.ChargeStatus] {
	b := NewBuilder(status.AllChargeStatuses()...)

	b.Edge(status.ChargeUndefined, status.ChargeCreated, RequiresEvent(events.PaymentCreated)).
		Edge(status.ChargeUndefined, status.ChargePaymentNotificationCreated, RequiresEvent(events.PaymentNotificationCreated))

	b.Edge(status.ChargeCreated, status.ChargeEnteringCardDetails, RequiresEvent(events.PaymentStarted)).
		Edge(status.ChargeCreated, status.ChargeExpired, RequiresEvent(events.PaymentExpired)).
		Edge(status.ChargeCreated, status.ChargeSystemCancelled, RequiresEvent(events.CancelledByService))

	b.Edge(status.ChargePaymentNotificationCreated, status.ChargeAuthorisationSuccess, RequiresEvent(events.AuthorisationSucceeded)).
		Edge(status.ChargePaymentNotificationCreated, status.ChargeAuthorisationRejected, RequiresEvent(events.AuthorisationRejected)).
		Edge(status.ChargePaymentNotificationCreated, status.ChargeAuthorisationError, RequiresEvent(events.GatewayErrorDuringAuthorisation))

	b.Edge(status.ChargeEnteringCardDetails, status.ChargeAuthorisationReady, NoEvent()).
		Edge(status.ChargeEnteringCardDetails, status.ChargeAuthorisationSubmitted, NoEvent()).
		Edge(status.ChargeEnteringCardDetails, status.ChargeExpired, RequiresEvent(events.PaymentExpired)).
		Edge(status.ChargeEnteringCardDetails, status.ChargeUserCancelled, RequiresEvent(events.CancelledByUser)).
		Edge(status.ChargeEnteringCardDetails, status.ChargeSystemCancelled, RequiresEvent(events.CancelledByService))

	b.Edge(status.ChargeAuthorisationReady, status.ChargeAuthorisationSuccess, RequiresEvent(events.AuthorisationSucceeded)).
		Edge(status.ChargeAuthorisationReady, status.ChargeAuthorisationRejected, RequiresEvent(events.AuthorisationRejected)).
		Edge(status.ChargeAuthorisationReady, status.ChargeAuthorisationCancelled, RequiresEvent(events.AuthorisationCancelled)).
		Edge(status.ChargeAuthorisationReady, status.ChargeAuthorisationError, RequiresEvent(events.GatewayErrorDuringAuthorisation)).
		Edge(status.ChargeAuthorisationReady, status.ChargeAuthorisationTimeout, RequiresEvent(events.GatewayTimeoutDuringAuthorisation)).
		Edge(status.ChargeAuthorisationReady, status.ChargeAuthorisationUnexpectedError, RequiresEvent(events.UnexpectedGatewayErrorDuringAuthorisation)).
		Edge(status.ChargeAuthorisationReady, status.ChargeAuthorisationSubmitted, NoEvent()).
		Edge(status.ChargeAuthorisationReady, status.ChargeAuthorisation3DSRequired, RequiresEvent(events.GatewayRequires3DSAuthorisation)).
		Edge(status.ChargeAuthorisationReady, status.ChargeAuthorisationAborted, RequiresEvent(events.AuthorisationAborted))

	b.Edge(status.ChargeAuthorisationSubmitted, status.ChargeAuthorisationSuccess, RequiresEvent(events.AuthorisationSucceeded)).
		Edge(status.ChargeAuthorisationSubmitted, status.ChargeAuthorisationRejected, RequiresEvent(events.AuthorisationRejected))

	b.Edge(status.ChargeAuthorisation3DSRequired, status.ChargeAuthorisation3DSReady, NoEvent()).
		Edge(status.ChargeAuthorisation3DSRequired, status.ChargeAuthorisationSuccess, RequiresEvent(events.AuthorisationSucceeded)).
		Edge(status.ChargeAuthorisation3DSRequired, status.ChargeAuthorisationRejected, RequiresEvent(events.AuthorisationRejected)).
		Edge(status.ChargeAuthorisation3DSRequired, status.ChargeUserCancelled, RequiresEvent(events.CancelledByUser)).
		Edge(status.ChargeAuthorisation3DSRequired, status.ChargeExpired, RequiresEvent(events.PaymentExpired))

	b.Edge(status.ChargeAuthorisation3DSReady, status.ChargeAuthorisationSuccess, RequiresEvent(events.AuthorisationSucceeded)).
		Edge(status.ChargeAuthorisation3DSReady, status.ChargeAuthorisationRejected, RequiresEvent(events.AuthorisationRejected)).
		Edge(status.ChargeAuthorisation3DSReady, status.ChargeAuthorisationError, RequiresEvent(events.GatewayErrorDuringAuthorisation)).
		Edge(status.ChargeAuthorisation3DSReady, status.ChargeAuthorisationCancelled, RequiresEvent(events.AuthorisationCancelled)).
		Edge(status.ChargeAuthorisation3DSReady, status.ChargeAuthorisation3DSRequired, RequiresEvent(events.GatewayRequires3DSAuthorisation))

	// a late gateway answer may still settle a timed-out authorisation
	b.Edge(status.ChargeAuthorisationTimeout, status.ChargeAuthorisationSuccess, RequiresEvent(events.AuthorisationSucceeded)).
		Edge(status.ChargeAuthorisationTimeout, status.ChargeAuthorisationRejected, RequiresEvent(events.AuthorisationRejected)).
		Edge(status.ChargeAuthorisationTimeout, status.ChargeAuthorisationError, RequiresEvent(events.GatewayErrorDuringAuthorisation))

	b.Edge(status.ChargeAuthorisationSuccess, status.ChargeCaptureApproved, RequiresEvent(events.UserApprovedForCapture)).
		Edge(status.ChargeAuthorisationSuccess, status.ChargeAwaitingCaptureRequest, RequiresEvent(events.UserApprovedForCaptureAwaitingServiceApproval)).
		Edge(status.ChargeAuthorisationSuccess, status.ChargeCaptureReady, NoEvent()).
		Edge(status.ChargeAuthorisationSuccess, status.ChargeUserCancelReady, NoEvent()).
		Edge(status.ChargeAuthorisationSuccess, status.ChargeSystemCancelReady, NoEvent()).
		Edge(status.ChargeAuthorisationSuccess, status.ChargeExpireCancelReady, NoEvent())

	b.Edge(status.ChargeAwaitingCaptureRequest, status.ChargeCaptureApproved, RequiresEvent(events.ServiceApprovedForCapture)).
		Edge(status.ChargeAwaitingCaptureRequest, status.ChargeSystemCancelReady, NoEvent()).
		Edge(status.ChargeAwaitingCaptureRequest, status.ChargeExpireCancelReady, NoEvent())

	b.Edge(status.ChargeCaptureApproved, status.ChargeCaptureReady, NoEvent())

	b.Edge(status.ChargeCaptureApprovedRetry, status.ChargeCaptureReady, NoEvent()).
		Edge(status.ChargeCaptureApprovedRetry, status.ChargeCaptureSubmitted, RequiresEvent(events.CaptureSubmitted)).
		Edge(status.ChargeCaptureApprovedRetry, status.ChargeCaptured, RequiresEvent(events.CaptureConfirmed)).
		Edge(status.ChargeCaptureApprovedRetry, status.ChargeCaptureError, RequiresEvent(events.CaptureAbandonedAfterTooManyRetries))

	b.Edge(status.ChargeCaptureReady, status.ChargeCaptureSubmitted, RequiresEvent(events.CaptureSubmitted)).
		Edge(status.ChargeCaptureReady, status.ChargeCaptured, RequiresEvent(events.CaptureConfirmed)).
		Edge(status.ChargeCaptureReady, status.ChargeCaptureApprovedRetry, NoEvent()).
		Edge(status.ChargeCaptureReady, status.ChargeCaptureError, RequiresEvent(events.CaptureErrored))

	b.Edge(status.ChargeCaptureSubmitted, status.ChargeCaptured, RequiresEvent(events.CaptureConfirmed)).
		Edge(status.ChargeCaptureSubmitted, status.ChargeCaptureError, RequiresEvent(events.CaptureErrored))

	b.Edge(status.ChargeUserCancelReady, status.ChargeUserCancelSubmitted, NoEvent()).
		Edge(status.ChargeUserCancelReady, status.ChargeUserCancelled, RequiresEvent(events.CancelledByUser)).
		Edge(status.ChargeUserCancelReady, status.ChargeUserCancelError, RequiresEvent(events.CancelByUserFailed)).
		Edge(status.ChargeUserCancelSubmitted, status.ChargeUserCancelled, RequiresEvent(events.CancelledByUser)).
		Edge(status.ChargeUserCancelSubmitted, status.ChargeUserCancelError, RequiresEvent(events.CancelByUserFailed))

	b.Edge(status.ChargeSystemCancelReady, status.ChargeSystemCancelSubmitted, NoEvent()).
		Edge(status.ChargeSystemCancelReady, status.ChargeSystemCancelled, RequiresEvent(events.CancelledByService)).
		Edge(status.ChargeSystemCancelReady, status.ChargeSystemCancelError, RequiresEvent(events.CancelByServiceFailed)).
		Edge(status.ChargeSystemCancelSubmitted, status.ChargeSystemCancelled, RequiresEvent(events.CancelledByService)).
		Edge(status.ChargeSystemCancelSubmitted, status.ChargeSystemCancelError, RequiresEvent(events.CancelByServiceFailed))

	b.Edge(status.ChargeExpireCancelReady, status.ChargeExpireCancelSubmitted, NoEvent()).
		Edge(status.ChargeExpireCancelReady, status.ChargeExpired, RequiresEvent(events.PaymentExpired)).
		Edge(status.ChargeExpireCancelReady, status.ChargeExpireCancelFailed, RequiresEvent(events.CancelByExpirationFailed)).
		Edge(status.ChargeExpireCancelSubmitted, status.ChargeExpired, RequiresEvent(events.PaymentExpired)).
		Edge(status.ChargeExpireCancelSubmitted, status.ChargeExpireCancelFailed, RequiresEvent(events.CancelByExpirationFailed))

	// card details can be submitted either synchronously (AUTHORISATION_READY)
	// or queued (AUTHORISATION_SUBMITTED); forced updates take the synchronous path
	b.Intermediate(status.ChargeEnteringCardDetails, status.ChargeAuthorisationSuccess, status.ChargeAuthorisationReady).
		Intermediate(status.ChargeEnteringCardDetails, status.ChargeAuthorisationRejected, status.ChargeAuthorisationReady)

	return b
}

func mustBuild[S ~string](b *Builder[S]) *Graph[S] {
	g, err := b.Build()
	if err != nil {
		panic(err)
	}
	return g
}
