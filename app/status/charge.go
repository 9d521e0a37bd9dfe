package status

// ChargeStatus is the internal lifecycle position of a charge.
type ChargeStatus string

const (
	ChargeUndefined                  ChargeStatus = "UNDEFINED"
	ChargeCreated                    ChargeStatus = "CREATED"
	ChargePaymentNotificationCreated ChargeStatus = "PAYMENT_NOTIFICATION_CREATED"
	ChargeEnteringCardDetails        ChargeStatus = "ENTERING_CARD_DETAILS"

	ChargeAuthorisationReady           ChargeStatus = "AUTHORISATION_READY"
	ChargeAuthorisationSubmitted       ChargeStatus = "AUTHORISATION_SUBMITTED"
	ChargeAuthorisation3DSRequired     ChargeStatus = "AUTHORISATION_3DS_REQUIRED"
	ChargeAuthorisation3DSReady        ChargeStatus = "AUTHORISATION_3DS_READY"
	ChargeAuthorisationSuccess         ChargeStatus = "AUTHORISATION_SUCCESS"
	ChargeAuthorisationRejected        ChargeStatus = "AUTHORISATION_REJECTED"
	ChargeAuthorisationCancelled       ChargeStatus = "AUTHORISATION_CANCELLED"
	ChargeAuthorisationAborted         ChargeStatus = "AUTHORISATION_ABORTED"
	ChargeAuthorisationError           ChargeStatus = "AUTHORISATION_ERROR"
	ChargeAuthorisationTimeout         ChargeStatus = "AUTHORISATION_TIMEOUT"
	ChargeAuthorisationUnexpectedError ChargeStatus = "AUTHORISATION_UNEXPECTED_ERROR"

	ChargeAwaitingCaptureRequest ChargeStatus = "AWAITING_CAPTURE_REQUEST"
	ChargeCaptureApproved        ChargeStatus = "CAPTURE_APPROVED"
	ChargeCaptureApprovedRetry   ChargeStatus = "CAPTURE_APPROVED_RETRY"
	ChargeCaptureReady           ChargeStatus = "CAPTURE_READY"
	ChargeCaptureSubmitted       ChargeStatus = "CAPTURE_SUBMITTED"
	ChargeCaptured               ChargeStatus = "CAPTURED"
	ChargeCaptureError           ChargeStatus = "CAPTURE_ERROR"

	ChargeExpireCancelReady     ChargeStatus = "EXPIRE_CANCEL_READY"
	ChargeExpireCancelSubmitted ChargeStatus = "EXPIRE_CANCEL_SUBMITTED"
	ChargeExpireCancelFailed    ChargeStatus = "EXPIRE_CANCEL_FAILED"
	ChargeExpired               ChargeStatus = "EXPIRED"

	ChargeSystemCancelReady     ChargeStatus = "SYSTEM_CANCEL_READY"
	ChargeSystemCancelSubmitted ChargeStatus = "SYSTEM_CANCEL_SUBMITTED"
	ChargeSystemCancelError     ChargeStatus = "SYSTEM_CANCEL_ERROR"
	ChargeSystemCancelled       ChargeStatus = "SYSTEM_CANCELLED"

	ChargeUserCancelReady     ChargeStatus = "USER_CANCEL_READY"
	ChargeUserCancelSubmitted ChargeStatus = "USER_CANCEL_SUBMITTED"
	ChargeUserCancelError     ChargeStatus = "USER_CANCEL_ERROR"
	ChargeUserCancelled       ChargeStatus = "USER_CANCELLED"
)

var chargeExternalStatuses = map[ChargeStatus]ExternalChargeStatus{
	ChargeUndefined:                  ExternalCreated,
	ChargeCreated:                    ExternalCreated,
	ChargePaymentNotificationCreated: ExternalCreated,
	ChargeEnteringCardDetails:        ExternalStarted,

	ChargeAuthorisationReady:           ExternalStarted,
	ChargeAuthorisationSubmitted:       ExternalStarted,
	ChargeAuthorisation3DSRequired:     ExternalStarted,
	ChargeAuthorisation3DSReady:        ExternalStarted,
	ChargeAuthorisationSuccess:         ExternalSubmitted,
	ChargeAuthorisationRejected:        ExternalFailedRejected,
	ChargeAuthorisationCancelled:       ExternalFailedRejected,
	ChargeAuthorisationAborted:         ExternalFailedRejected,
	ChargeAuthorisationError:           ExternalErrorGateway,
	ChargeAuthorisationTimeout:         ExternalErrorGateway,
	ChargeAuthorisationUnexpectedError: ExternalErrorGateway,

	ChargeAwaitingCaptureRequest: ExternalCapturable,
	ChargeCaptureApproved:        ExternalSuccess,
	ChargeCaptureApprovedRetry:   ExternalSuccess,
	ChargeCaptureReady:           ExternalSuccess,
	ChargeCaptureSubmitted:       ExternalSuccess,
	ChargeCaptured:               ExternalSuccess,
	ChargeCaptureError:           ExternalErrorGateway,

	ChargeExpireCancelReady:     ExternalFailedExpired,
	ChargeExpireCancelSubmitted: ExternalFailedExpired,
	ChargeExpireCancelFailed:    ExternalFailedExpired,
	ChargeExpired:               ExternalFailedExpired,

	ChargeSystemCancelReady:     ExternalCancelled,
	ChargeSystemCancelSubmitted: ExternalCancelled,
	ChargeSystemCancelError:     ExternalCancelled,
	ChargeSystemCancelled:       ExternalCancelled,

	ChargeUserCancelReady:     ExternalFailedCancelled,
	ChargeUserCancelSubmitted: ExternalFailedCancelled,
	ChargeUserCancelError:     ExternalFailedCancelled,
	ChargeUserCancelled:       ExternalFailedCancelled,
}

// AllChargeStatuses lists every known charge status, UNDEFINED included.
func AllChargeStatuses() []ChargeStatus {
	return []ChargeStatus{
		ChargeUndefined, ChargeCreated, ChargePaymentNotificationCreated, ChargeEnteringCardDetails,
		ChargeAuthorisationReady, ChargeAuthorisationSubmitted, ChargeAuthorisation3DSRequired,
		ChargeAuthorisation3DSReady, ChargeAuthorisationSuccess, ChargeAuthorisationRejected,
		ChargeAuthorisationCancelled, ChargeAuthorisationAborted, ChargeAuthorisationError,
		ChargeAuthorisationTimeout, ChargeAuthorisationUnexpectedError,
		ChargeAwaitingCaptureRequest, ChargeCaptureApproved, ChargeCaptureApprovedRetry,
		ChargeCaptureReady, ChargeCaptureSubmitted, ChargeCaptured, ChargeCaptureError,
		ChargeExpireCancelReady, ChargeExpireCancelSubmitted, ChargeExpireCancelFailed, ChargeExpired,
		ChargeSystemCancelReady, ChargeSystemCancelSubmitted, ChargeSystemCancelError, ChargeSystemCancelled,
		ChargeUserCancelReady, ChargeUserCancelSubmitted, ChargeUserCancelError, ChargeUserCancelled,
	}
}

// ParseChargeStatus returns the status named by value.
func ParseChargeStatus(value string) (ChargeStatus, bool) {
	s := ChargeStatus(value)
	_, ok := chargeExternalStatuses[s]
	return s, ok
}

func (s ChargeStatus) String() string {
	return string(s)
}

// External returns the status exposed to platform callers.
func (s ChargeStatus) External() ExternalChargeStatus {
	return chargeExternalStatuses[s]
}

// IsOneOf reports whether s equals any of the given statuses.
func (s ChargeStatus) IsOneOf(candidates ...ChargeStatus) bool {
	for _, c := range candidates {
		if s == c {
			return true
		}
	}
	return false
}
