package events

// Kind identifies a domain event emitted by a status transition.
type Kind string

// Unspecified satisfies every edge of a status graph. It is used by callers
// that apply a transition without knowing which event it should produce.
const Unspecified Kind = ""

const (
	PaymentCreated             Kind = "PAYMENT_CREATED"
	PaymentNotificationCreated Kind = "PAYMENT_NOTIFICATION_CREATED"
	PaymentStarted             Kind = "PAYMENT_STARTED"
	PaymentExpired             Kind = "PAYMENT_EXPIRED"

	AuthorisationSucceeded                    Kind = "AUTHORISATION_SUCCEEDED"
	AuthorisationRejected                     Kind = "AUTHORISATION_REJECTED"
	AuthorisationCancelled                    Kind = "AUTHORISATION_CANCELLED"
	AuthorisationAborted                      Kind = "AUTHORISATION_ABORTED"
	GatewayErrorDuringAuthorisation           Kind = "GATEWAY_ERROR_DURING_AUTHORISATION"
	GatewayTimeoutDuringAuthorisation         Kind = "GATEWAY_TIMEOUT_DURING_AUTHORISATION"
	UnexpectedGatewayErrorDuringAuthorisation Kind = "UNEXPECTED_GATEWAY_ERROR_DURING_AUTHORISATION"
	GatewayRequires3DSAuthorisation           Kind = "GATEWAY_REQUIRES_3DS_AUTHORISATION"

	UserApprovedForCapture                        Kind = "USER_APPROVED_FOR_CAPTURE"
	UserApprovedForCaptureAwaitingServiceApproval Kind = "USER_APPROVED_FOR_CAPTURE_AWAITING_SERVICE_APPROVAL"
	ServiceApprovedForCapture                     Kind = "SERVICE_APPROVED_FOR_CAPTURE"

	CaptureSubmitted                    Kind = "CAPTURE_SUBMITTED"
	CaptureConfirmed                    Kind = "CAPTURE_CONFIRMED"
	CaptureErrored                      Kind = "CAPTURE_ERRORED"
	CaptureAbandonedAfterTooManyRetries Kind = "CAPTURE_ABANDONED_AFTER_TOO_MANY_RETRIES"

	CancelledByUser          Kind = "CANCELLED_BY_USER"
	CancelByUserFailed       Kind = "CANCEL_BY_USER_FAILED"
	CancelledByService       Kind = "CANCELLED_BY_SERVICE"
	CancelByServiceFailed    Kind = "CANCEL_BY_SERVICE_FAILED"
	CancelByExpirationFailed Kind = "CANCEL_BY_EXPIRATION_FAILED"

	StatusCorrectedToAuthorisationErrorToMatchGatewayStatus    Kind = "STATUS_CORRECTED_TO_AUTHORISATION_ERROR_TO_MATCH_GATEWAY_STATUS"
	StatusCorrectedToAuthorisationRejectedToMatchGatewayStatus Kind = "STATUS_CORRECTED_TO_AUTHORISATION_REJECTED_TO_MATCH_GATEWAY_STATUS"
	StatusCorrectedToCapturedToMatchGatewayStatus              Kind = "STATUS_CORRECTED_TO_CAPTURED_TO_MATCH_GATEWAY_STATUS"
	StatusCorrectedToExpiredToMatchGatewayStatus               Kind = "STATUS_CORRECTED_TO_EXPIRED_TO_MATCH_GATEWAY_STATUS"

	RefundCreatedByService Kind = "REFUND_CREATED_BY_SERVICE"
	RefundCreatedByUser    Kind = "REFUND_CREATED_BY_USER"
	RefundSubmitted        Kind = "REFUND_SUBMITTED"
	RefundSucceeded        Kind = "REFUND_SUCCEEDED"
	RefundErrored          Kind = "REFUND_ERROR"
)

// ResourceType tells consumers which aggregate an event belongs to.
type ResourceType string

const (
	ResourcePayment ResourceType = "payment"
	ResourceRefund  ResourceType = "refund"
)

var kindResources = map[Kind]ResourceType{
	RefundCreatedByService: ResourceRefund,
	RefundCreatedByUser:    ResourceRefund,
	RefundSubmitted:        ResourceRefund,
	RefundSucceeded:        ResourceRefund,
	RefundErrored:          ResourceRefund,
}

func (k Kind) String() string {
	if k == Unspecified {
		return "UNSPECIFIED"
	}
	return string(k)
}

// Resource returns the aggregate type the event kind is emitted for.
func (k Kind) Resource() ResourceType {
	if r, ok := kindResources[k]; ok {
		return r
	}
	return ResourcePayment
}

// Satisfies reports whether a supplied kind k meets the requirement of an
// edge that needs required.
func (k Kind) Satisfies(required Kind) bool {
	return k == Unspecified || k == required
}
