package stripe

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/vibast-solutions/ms-go-connector/app/entity"
	"github.com/vibast-solutions/ms-go-connector/app/provider"
)

const formContentType = "application/x-www-form-urlencoded"

func authoriseOrder(charge *entity.Charge, card provider.Card) *provider.GatewayOrder {
	values := url.Values{}
	values.Set("amount", strconv.FormatInt(charge.AmountCents, 10))
	values.Set("currency", currency(charge))
	values.Set("capture_method", "manual")
	values.Set("confirm", "true")
	values.Set("payment_method_data[type]", "card")
	values.Set("payment_method_data[card][number]", card.Number)
	values.Set("payment_method_data[card][exp_month]", strconv.Itoa(card.ExpiryMonth))
	values.Set("payment_method_data[card][exp_year]", strconv.Itoa(card.ExpiryYear))
	values.Set("payment_method_data[card][cvc]", card.CVC)
	if card.HolderName != "" {
		values.Set("payment_method_data[billing_details][name]", card.HolderName)
	}
	if charge.Description != "" {
		values.Set("description", charge.Description)
	}
	values.Set("metadata[charge_external_id]", charge.ExternalID)
	return provider.NewGatewayOrder(provider.OrderAuthorise, []byte(values.Encode()), formContentType)
}

func captureOrder(charge *entity.Charge) *provider.GatewayOrder {
	values := url.Values{}
	values.Set("amount_to_capture", strconv.FormatInt(charge.AmountCents, 10))
	return provider.NewGatewayOrder(provider.OrderCapture, []byte(values.Encode()), formContentType)
}

func cancelOrder() *provider.GatewayOrder {
	values := url.Values{}
	values.Set("cancellation_reason", "requested_by_customer")
	return provider.NewGatewayOrder(provider.OrderCancel, []byte(values.Encode()), formContentType)
}

func refundOrder(charge *entity.Charge, refund *entity.Refund) *provider.GatewayOrder {
	values := url.Values{}
	values.Set("payment_intent", charge.TransactionID())
	values.Set("amount", strconv.FormatInt(refund.AmountCents, 10))
	values.Set("metadata[refund_external_id]", refund.ExternalID)
	return provider.NewGatewayOrder(provider.OrderRefund, []byte(values.Encode()), formContentType)
}

func currency(charge *entity.Charge) string {
	if charge.Currency == "" {
		return "gbp"
	}
	return strings.ToLower(charge.Currency)
}
