// Package stripe integrates the PaymentIntents REST API. Authorisations are
// confirmed with manual capture so capture and cancel stay explicit steps.
package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-connector/app/entity"
	"github.com/vibast-solutions/ms-go-connector/app/provider"
	"github.com/vibast-solutions/ms-go-connector/app/status"
)

const Name = "stripe"

type Config struct {
	BaseURL                   string
	SignatureToleranceSeconds int64
}

type Provider struct {
	cfg       Config
	client    *provider.GatewayClient
	mapper    *provider.StatusMapper
	tolerance time.Duration
	now       func() time.Time
}

func New(cfg Config, client *provider.GatewayClient) *Provider {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.stripe.com"
	}
	tolerance := cfg.SignatureToleranceSeconds
	if tolerance <= 0 {
		tolerance = 300
	}
	cfg.SignatureToleranceSeconds = tolerance

	return &Provider{
		cfg:       cfg,
		client:    client,
		mapper:    newStatusMapper(),
		tolerance: time.Duration(tolerance) * time.Second,
		now:       time.Now,
	}
}

// Event types address charges; refund objects are keyed by their status.
func newStatusMapper() *provider.StatusMapper {
	return provider.NewStatusMapper().
		MapCharge("payment_intent.succeeded", status.ChargeCaptured).
		MapCharge("payment_intent.payment_failed", status.ChargeAuthorisationRejected).
		MapRefund(refundCode("succeeded"), status.Refunded).
		MapRefund(refundCode("failed"), status.RefundError).
		MapRefund(refundCode("canceled"), status.RefundError).
		Ignore(
			"payment_intent.created",
			"payment_intent.amount_capturable_updated",
			"payment_intent.processing",
			"payment_intent.requires_action",
			"payment_intent.canceled",
			refundCode("pending"),
			refundCode("requires_action"),
		)
}

func refundCode(refundStatus string) string {
	return "refund:" + refundStatus
}

func (p *Provider) Name() string {
	return Name
}

func (p *Provider) StatusMapper() *provider.StatusMapper {
	return p.mapper
}

func (p *Provider) ExternalRefundAvailability(charge *entity.Charge, refunds []*entity.Refund) provider.RefundAvailability {
	return provider.DefaultRefundAvailability(charge, refunds)
}

func (p *Provider) Authorise(ctx context.Context, req *provider.AuthoriseRequest) (*provider.AuthoriseResponse, error) {
	body, apiErr, err := p.post(ctx, req.Account, "/v1/payment_intents", authoriseOrder(req.Charge, req.Card), req.Charge.ExternalID+"-authorise")
	if err != nil {
		return nil, err
	}
	if apiErr != nil {
		resp := &provider.AuthoriseResponse{
			Status:       provider.AuthoriseError,
			ErrorCode:    apiErr.code(),
			ErrorMessage: apiErr.Message,
		}
		if apiErr.Type == "card_error" {
			resp.Status = provider.AuthoriseRejected
		}
		if apiErr.PaymentIntent != nil {
			resp.TransactionID = apiErr.PaymentIntent.ID
		}
		return resp, nil
	}

	var pi paymentIntent
	if err := json.Unmarshal(body, &pi); err != nil {
		return nil, provider.MalformedResponse(err)
	}
	if pi.ID == "" {
		return nil, provider.MalformedResponse(errors.New("payment intent id missing"))
	}

	resp := &provider.AuthoriseResponse{Status: pi.authoriseStatus(), TransactionID: pi.ID}
	if pi.LastPaymentError != nil {
		resp.ErrorCode = pi.LastPaymentError.code()
		resp.ErrorMessage = pi.LastPaymentError.Message
	}
	return resp, nil
}

func (p *Provider) Capture(ctx context.Context, req *provider.ModificationRequest) (*provider.ModificationResponse, error) {
	pi, err := p.modifyIntent(ctx, req, "capture", captureOrder(req.Charge))
	if err != nil {
		return nil, err
	}
	switch pi.Status {
	case "succeeded":
		return &provider.ModificationResponse{Status: provider.ModificationComplete, Reference: pi.ID}, nil
	case "processing":
		return &provider.ModificationResponse{Status: provider.ModificationPending, Reference: pi.ID}, nil
	default:
		return nil, provider.NewGatewayError(provider.GenericGatewayError, "stripe capture left payment intent %s in status %q", pi.ID, pi.Status)
	}
}

func (p *Provider) Cancel(ctx context.Context, req *provider.ModificationRequest) (*provider.ModificationResponse, error) {
	pi, err := p.modifyIntent(ctx, req, "cancel", cancelOrder())
	if err != nil {
		return nil, err
	}
	if pi.Status != "canceled" {
		return nil, provider.NewGatewayError(provider.GenericGatewayError, "stripe cancel left payment intent %s in status %q", pi.ID, pi.Status)
	}
	return &provider.ModificationResponse{Status: provider.ModificationComplete, Reference: pi.ID}, nil
}

func (p *Provider) Refund(ctx context.Context, req *provider.RefundRequest) (*provider.ModificationResponse, error) {
	body, apiErr, err := p.post(ctx, req.Account, "/v1/refunds", refundOrder(req.Charge, req.Refund), req.Refund.ExternalID)
	if err != nil {
		return nil, err
	}
	if apiErr != nil {
		return nil, apiErr.gatewayError()
	}

	var refund refundObject
	if err := json.Unmarshal(body, &refund); err != nil {
		return nil, provider.MalformedResponse(err)
	}
	switch refund.Status {
	case "succeeded":
		return &provider.ModificationResponse{Status: provider.ModificationComplete, Reference: refund.ID}, nil
	case "pending", "requires_action":
		return &provider.ModificationResponse{Status: provider.ModificationPending, Reference: refund.ID}, nil
	default:
		return nil, provider.NewGatewayError(provider.GenericGatewayError, "stripe refund %s %s: %s", refund.ID, refund.Status, refund.FailureReason)
	}
}

func (p *Provider) modifyIntent(ctx context.Context, req *provider.ModificationRequest, action string, order *provider.GatewayOrder) (*paymentIntent, error) {
	id := req.Charge.TransactionID()
	if id == "" {
		return nil, provider.NewGatewayError(provider.GenericGatewayError, "charge %s has no payment intent", req.Charge.ExternalID)
	}

	body, apiErr, err := p.post(ctx, req.Account, "/v1/payment_intents/"+url.PathEscape(id)+"/"+action, order, req.Charge.ExternalID+"-"+action)
	if err != nil {
		return nil, err
	}
	if apiErr != nil {
		return nil, apiErr.gatewayError()
	}

	var pi paymentIntent
	if err := json.Unmarshal(body, &pi); err != nil {
		return nil, provider.MalformedResponse(err)
	}
	return &pi, nil
}

// post returns the success body, or the decoded API error for a non-2xx
// response that carries one.
func (p *Provider) post(ctx context.Context, account *entity.GatewayAccount, path string, order *provider.GatewayOrder, idempotencyKey string) ([]byte, *apiError, error) {
	secret := account.Credential(entity.CredentialSecretKey)
	if strings.TrimSpace(secret) == "" {
		return nil, nil, provider.NewGatewayError(provider.GenericGatewayError, "stripe secret key is not configured for account %d", account.ID)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+secret)
	if idempotencyKey != "" {
		header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := p.client.Post(ctx, strings.TrimRight(p.cfg.BaseURL, "/")+path, order, account, header)
	if err != nil {
		gwErr := provider.AsGatewayError(err)
		if resp != nil && gwErr.Type == provider.UnexpectedStatusCodeError {
			if apiErr := decodeError(resp.StatusCode, resp.Body); apiErr != nil {
				return nil, apiErr, nil
			}
		}
		return nil, nil, gwErr
	}
	return resp.Body, nil, nil
}
