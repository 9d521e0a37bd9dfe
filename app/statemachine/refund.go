package statemachine

import (
	"github.com/vibast-solutions/ms-go-connector/app/events"
	"github.com/vibast-solutions/ms-go-connector/app/status"
)

var refundTransitions = mustBuild(
	NewBuilder(status.AllRefundStatuses()...).
		Edge(status.RefundUndefined, status.RefundCreated, NoEvent()).
		Edge(status.RefundCreated, status.RefundSubmitted, RequiresEvent(events.RefundSubmitted)).
		Edge(status.RefundCreated, status.RefundError, RequiresEvent(events.RefundErrored)).
		Edge(status.RefundSubmitted, status.Refunded, RequiresEvent(events.RefundSucceeded)).
		Edge(status.RefundSubmitted, status.RefundError, RequiresEvent(events.RefundErrored)),
)

// Refunds returns the refund status graph shared by the process.
func Refunds() *Graph[status.RefundStatus] {
	return refundTransitions
}
