package status

// ExternalChargeStatus is the coarse status reported to platform callers.
type ExternalChargeStatus struct {
	Value    string
	Finished bool
	Code     string
	Message  string
}

var (
	ExternalCreated         = ExternalChargeStatus{Value: "created"}
	ExternalStarted         = ExternalChargeStatus{Value: "started"}
	ExternalSubmitted       = ExternalChargeStatus{Value: "submitted"}
	ExternalCapturable      = ExternalChargeStatus{Value: "capturable"}
	ExternalSuccess         = ExternalChargeStatus{Value: "success", Finished: true}
	ExternalFailedRejected  = ExternalChargeStatus{Value: "failed", Finished: true, Code: "P0010", Message: "Payment method rejected"}
	ExternalFailedExpired   = ExternalChargeStatus{Value: "failed", Finished: true, Code: "P0020", Message: "Payment expired"}
	ExternalFailedCancelled = ExternalChargeStatus{Value: "failed", Finished: true, Code: "P0030", Message: "Payment was cancelled by the user"}
	ExternalCancelled       = ExternalChargeStatus{Value: "cancelled", Finished: true, Code: "P0040", Message: "Payment was cancelled by the service"}
	ExternalErrorGateway    = ExternalChargeStatus{Value: "error", Finished: true, Code: "P0050", Message: "Payment provider returned an error"}
)

// ExternalRefundStatus is the refund status reported to platform callers.
type ExternalRefundStatus string

const (
	ExternalRefundSubmitted ExternalRefundStatus = "submitted"
	ExternalRefundSuccess   ExternalRefundStatus = "success"
	ExternalRefundError     ExternalRefundStatus = "error"
)
