// Package notify tells the notification service that money went back to a
// payer.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-connector/app/entity"
)

type refundIssuedMessage struct {
	ChargeExternalID string    `json:"charge_external_id"`
	RefundExternalID string    `json:"refund_external_id"`
	GatewayAccountID uint64    `json:"gateway_account_id"`
	AmountCents      int64     `json:"amount"`
	Currency         string    `json:"currency"`
	Reference        string    `json:"reference"`
	Description      string    `json:"description"`
	UserEmail        string    `json:"user_email,omitempty"`
	RefundedAt       time.Time `json:"refunded_at"`
}

// RefundNotifier posts refund-issued messages. It does nothing when no URL
// is configured.
type RefundNotifier struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

func NewRefundNotifier(url, apiKey string, timeout time.Duration) *RefundNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RefundNotifier{
		url:        strings.TrimSpace(url),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (n *RefundNotifier) RefundIssued(ctx context.Context, charge *entity.Charge, refund *entity.Refund) error {
	if n.url == "" {
		return nil
	}

	msg := &refundIssuedMessage{
		ChargeExternalID: charge.ExternalID,
		RefundExternalID: refund.ExternalID,
		GatewayAccountID: charge.GatewayAccountID,
		AmountCents:      refund.AmountCents,
		Currency:         charge.Currency,
		Reference:        charge.Reference,
		Description:      charge.Description,
		RefundedAt:       refund.UpdatedAt,
	}
	if refund.UserEmail != nil {
		msg.UserEmail = *refund.UserEmail
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", refund.ExternalID)
	if n.apiKey != "" {
		req.Header.Set("X-API-Key", n.apiKey)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification endpoint returned status=%d", resp.StatusCode)
	}
	return nil
}
