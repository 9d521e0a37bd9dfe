// Package epdq integrates the DirectLink form API. Requests and
// notifications are authenticated by a SHA-512 signature over the
// alphabetically ordered fields.
package epdq

import (
	"context"
	"strings"

	"github.com/vibast-solutions/ms-go-connector/app/entity"
	"github.com/vibast-solutions/ms-go-connector/app/provider"
	"github.com/vibast-solutions/ms-go-connector/app/status"
)

const Name = "epdq"

type Config struct {
	TestURL string
	LiveURL string
}

type Provider struct {
	cfg    Config
	client *provider.GatewayClient
	mapper *provider.StatusMapper
}

func New(cfg Config, client *provider.GatewayClient) *Provider {
	return &Provider{
		cfg:    cfg,
		client: client,
		mapper: newStatusMapper(),
	}
}

func newStatusMapper() *provider.StatusMapper {
	return provider.NewStatusMapper().
		MapCharge("5", status.ChargeAuthorisationSuccess).
		MapCharge("2", status.ChargeAuthorisationRejected).
		MapCharge("9", status.ChargeCaptured).
		Derive("6", cancelledStatus).
		MapRefund("8", status.Refunded).
		MapRefund("83", status.RefundError).
		MapRefund("84", status.RefundError).
		MapRefund("94", status.RefundError).
		Ignore("7", "81", "85", "91")
}

// cancelledStatus resolves "authorisation deleted" by who asked for it.
func cancelledStatus(current status.ChargeStatus) status.ChargeStatus {
	switch current {
	case status.ChargeUserCancelReady, status.ChargeUserCancelSubmitted:
		return status.ChargeUserCancelled
	case status.ChargeExpireCancelReady, status.ChargeExpireCancelSubmitted:
		return status.ChargeExpired
	default:
		return status.ChargeSystemCancelled
	}
}

func (p *Provider) Name() string {
	return Name
}

func (p *Provider) StatusMapper() *provider.StatusMapper {
	return p.mapper
}

// ExternalRefundAvailability holds refunds back until a submitted capture
// settles; refunding an unsettled payment is rejected by ePDQ.
func (p *Provider) ExternalRefundAvailability(charge *entity.Charge, refunds []*entity.Refund) provider.RefundAvailability {
	if charge.Status == status.ChargeCaptureSubmitted {
		return provider.RefundPending
	}
	return provider.DefaultRefundAvailability(charge, refunds)
}

func (p *Provider) Authorise(ctx context.Context, req *provider.AuthoriseRequest) (*provider.AuthoriseResponse, error) {
	resp, err := p.send(ctx, req.Account, newOrderPath, authoriseOrder(req.Account, req.Charge, req.Card))
	if err != nil {
		return nil, err
	}

	result := &provider.AuthoriseResponse{
		Status:        resp.authoriseStatus(),
		TransactionID: resp.PayID,
	}
	if resp.hasError() {
		result.ErrorCode = resp.NCError
		result.ErrorMessage = strings.TrimSpace(resp.NCErrorPlus)
	}
	return result, nil
}

func (p *Provider) Capture(ctx context.Context, req *provider.ModificationRequest) (*provider.ModificationResponse, error) {
	resp, err := p.send(ctx, req.Account, maintenanceOrderPath, captureOrder(req.Account, req.Charge))
	if err != nil {
		return nil, err
	}
	return resp.modificationResult("9", "91")
}

func (p *Provider) Cancel(ctx context.Context, req *provider.ModificationRequest) (*provider.ModificationResponse, error) {
	resp, err := p.send(ctx, req.Account, maintenanceOrderPath, cancelOrder(req.Account, req.Charge))
	if err != nil {
		return nil, err
	}
	return resp.modificationResult("6", "61")
}

func (p *Provider) Refund(ctx context.Context, req *provider.RefundRequest) (*provider.ModificationResponse, error) {
	resp, err := p.send(ctx, req.Account, maintenanceOrderPath, refundOrder(req.Account, req.Charge, req.Refund))
	if err != nil {
		return nil, err
	}
	return resp.modificationResult("8", "81")
}

func (p *Provider) send(ctx context.Context, account *entity.GatewayAccount, path string, order *provider.GatewayOrder) (*ncResponse, error) {
	resp, err := p.client.Post(ctx, p.baseURL(account)+path, order, account, nil)
	if err != nil {
		return nil, err
	}

	decoded, err := decodeResponse(resp.Body)
	if err != nil {
		return nil, provider.MalformedResponse(err)
	}
	return decoded, nil
}

func (p *Provider) baseURL(account *entity.GatewayAccount) string {
	base := p.cfg.TestURL
	if account.IsLive() {
		base = p.cfg.LiveURL
	}
	return strings.TrimSuffix(base, "/")
}
