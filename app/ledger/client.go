// Package ledger reads refund history that only the ledger still holds for
// archived charges.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-connector/app/entity"
	"github.com/vibast-solutions/ms-go-connector/app/factory"
	"github.com/vibast-solutions/ms-go-connector/app/status"
)

var ErrNotConfigured = errors.New("ledger url is not configured")

var externalRefundStatuses = map[status.ExternalRefundStatus]status.RefundStatus{
	status.ExternalRefundSubmitted: status.RefundSubmitted,
	status.ExternalRefundSuccess:   status.Refunded,
	status.ExternalRefundError:     status.RefundError,
}

type refundView struct {
	RefundID             string    `json:"refund_id"`
	Amount               int64     `json:"amount"`
	Status               string    `json:"status"`
	GatewayTransactionID string    `json:"gateway_transaction_id,omitempty"`
	UserExternalID       string    `json:"user_external_id,omitempty"`
	CreatedDate          time.Time `json:"created_date"`
}

type refundsResponse struct {
	Refunds []refundView `json:"refunds"`
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Entry
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: timeout},
		logger:     factory.NewModuleLogger("ledger-client"),
	}
}

// ListRefunds returns the refunds the ledger recorded for a charge. A charge
// the ledger does not know has no refunds.
func (c *Client) ListRefunds(ctx context.Context, chargeExternalID string) ([]*entity.Refund, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}

	target := fmt.Sprintf("%s/v1/transactions/%s/refunds", c.baseURL, url.PathEscape(chargeExternalID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ledger request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return []*entity.Refund{}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ledger returned status=%d", resp.StatusCode)
	}

	var payload refundsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode ledger response: %w", err)
	}

	refunds := make([]*entity.Refund, 0, len(payload.Refunds))
	for _, view := range payload.Refunds {
		refundStatus, ok := externalRefundStatuses[status.ExternalRefundStatus(view.Status)]
		if !ok {
			return nil, fmt.Errorf("ledger refund %s has unknown status %q", view.RefundID, view.Status)
		}
		refunds = append(refunds, &entity.Refund{
			ExternalID:           view.RefundID,
			ChargeExternalID:     chargeExternalID,
			AmountCents:          view.Amount,
			Status:               refundStatus,
			GatewayTransactionID: optional(view.GatewayTransactionID),
			UserExternalID:       optional(view.UserExternalID),
			CreatedAt:            view.CreatedDate,
			UpdatedAt:            view.CreatedDate,
		})
	}

	c.logger.WithFields(logrus.Fields{
		"charge_external_id": chargeExternalID,
		"refunds":            len(refunds),
	}).Debug("ledger_refunds_loaded")
	return refunds, nil
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
