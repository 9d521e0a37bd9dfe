package status

type RefundStatus string

const (
	RefundUndefined RefundStatus = "UNDEFINED"
	RefundCreated   RefundStatus = "CREATED"
	RefundSubmitted RefundStatus = "REFUND_SUBMITTED"
	Refunded        RefundStatus = "REFUNDED"
	RefundError     RefundStatus = "REFUND_ERROR"
)

var refundExternalStatuses = map[RefundStatus]ExternalRefundStatus{
	RefundCreated:   ExternalRefundSubmitted,
	RefundSubmitted: ExternalRefundSubmitted,
	Refunded:        ExternalRefundSuccess,
	RefundError:     ExternalRefundError,
}

func AllRefundStatuses() []RefundStatus {
	return []RefundStatus{RefundUndefined, RefundCreated, RefundSubmitted, Refunded, RefundError}
}

func ParseRefundStatus(value string) (RefundStatus, bool) {
	s := RefundStatus(value)
	if s == RefundUndefined {
		return s, true
	}
	_, ok := refundExternalStatuses[s]
	return s, ok
}

func (s RefundStatus) String() string {
	return string(s)
}

func (s RefundStatus) External() ExternalRefundStatus {
	return refundExternalStatuses[s]
}
