package mapper

import (
	"time"

	"github.com/vibast-solutions/ms-go-connector/app/entity"
	"github.com/vibast-solutions/ms-go-connector/app/provider"
	"github.com/vibast-solutions/ms-go-connector/app/types"
)

func RefundToType(refund *entity.Refund) *types.Refund {
	if refund == nil {
		return nil
	}

	out := &types.Refund{
		RefundId:    refund.ExternalID,
		ChargeId:    refund.ChargeExternalID,
		Amount:      refund.AmountCents,
		Status:      string(refund.Status.External()),
		CreatedDate: formatTime(refund.CreatedAt),
	}
	if refund.GatewayTransactionID != nil {
		out.GatewayTransactionId = *refund.GatewayTransactionID
	}
	if refund.UserExternalID != nil {
		out.UserExternalId = *refund.UserExternalID
	}
	return out
}

func RefundsToType(charge *entity.Charge, refunds []*entity.Refund) *types.ListRefundsResponse {
	refunded := provider.TotalRefunded(refunds)
	out := &types.ListRefundsResponse{
		ChargeId:        charge.ExternalID,
		AmountRefunded:  refunded,
		AmountAvailable: charge.AmountCents - refunded,
		Refunds:         make([]*types.Refund, 0, len(refunds)),
	}
	for _, refund := range refunds {
		out.Refunds = append(out.Refunds, RefundToType(refund))
	}
	return out
}

func ChargeToType(charge *entity.Charge) *types.Charge {
	if charge == nil {
		return nil
	}

	external := charge.Status.External()
	return &types.Charge{
		ChargeId:             charge.ExternalID,
		Amount:               charge.AmountCents,
		Currency:             charge.Currency,
		Reference:            charge.Reference,
		Description:          charge.Description,
		Status:               string(charge.Status),
		GatewayTransactionId: charge.TransactionID(),
		CreatedDate:          formatTime(charge.CreatedAt),
		State: &types.ChargeState{
			Status:   external.Value,
			Finished: external.Finished,
			Code:     external.Code,
			Message:  external.Message,
		},
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
