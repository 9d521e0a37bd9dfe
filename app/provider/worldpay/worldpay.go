// Package worldpay integrates the XML order API. Orders are keyed by merchant
// code and a transaction id generated here; notifications are trusted by
// source address rather than by signature.
package worldpay

import (
	"context"
	"encoding/base64"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vibast-solutions/ms-go-connector/app/entity"
	"github.com/vibast-solutions/ms-go-connector/app/provider"
	"github.com/vibast-solutions/ms-go-connector/app/status"
)

const Name = "worldpay"

type Config struct {
	TestURL            string
	LiveURL            string
	NotificationDomain string
	NotificationCIDRs  []string
}

type Provider struct {
	cfg      Config
	client   *provider.GatewayClient
	resolver Resolver
	mapper   *provider.StatusMapper
	now      func() time.Time
}

func New(cfg Config, client *provider.GatewayClient, resolver Resolver) *Provider {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &Provider{
		cfg:      cfg,
		client:   client,
		resolver: resolver,
		mapper:   newStatusMapper(),
		now:      time.Now,
	}
}

func newStatusMapper() *provider.StatusMapper {
	return provider.NewStatusMapper().
		MapCharge("CAPTURED", status.ChargeCaptured).
		MapRefund("REFUNDED", status.Refunded).
		MapRefund("REFUNDED_BY_MERCHANT", status.Refunded).
		MapRefund("REFUND_FAILED", status.RefundError).
		Ignore("AUTHORISED", "CANCELLED", "EXPIRED", "REFUSED", "REFUSED_BY_BANK", "SETTLED_BY_MERCHANT", "SENT_FOR_REFUND")
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

func (p *Provider) NewTransactionID() string {
	return uuid.NewString()
}

func (p *Provider) Authorise(ctx context.Context, req *provider.AuthoriseRequest) (*provider.AuthoriseResponse, error) {
	orderCode := req.Charge.TransactionID()
	if orderCode == "" {
		orderCode = p.NewTransactionID()
	}

	order, err := renderOrder(provider.OrderAuthorise, &orderData{
		MerchantCode: req.Account.Credential(entity.CredentialMerchantCode),
		OrderCode:    orderCode,
		Description:  req.Charge.Description,
		Currency:     currency(req.Charge),
		Amount:       req.Charge.AmountCents,
		Card:         req.Card,
	})
	if err != nil {
		return nil, provider.AsGatewayError(err)
	}

	reply, err := p.send(ctx, req.Account, order)
	if err != nil {
		return nil, err
	}

	resp := &provider.AuthoriseResponse{
		Status:        reply.authoriseStatus(),
		TransactionID: orderCode,
	}
	if e := reply.err(); e != nil {
		resp.ErrorCode = e.Code
		resp.ErrorMessage = strings.TrimSpace(e.Message)
	}
	return resp, nil
}

func (p *Provider) Capture(ctx context.Context, req *provider.ModificationRequest) (*provider.ModificationResponse, error) {
	order, err := renderOrder(provider.OrderCapture, &orderData{
		MerchantCode: req.Account.Credential(entity.CredentialMerchantCode),
		OrderCode:    req.Charge.TransactionID(),
		Currency:     currency(req.Charge),
		Amount:       req.Charge.AmountCents,
		Date:         p.now().UTC(),
	})
	if err != nil {
		return nil, provider.AsGatewayError(err)
	}

	reply, err := p.send(ctx, req.Account, order)
	if err != nil {
		return nil, err
	}
	if e := reply.err(); e != nil {
		return nil, gatewayErrorFrom(e)
	}
	if reply.Reply.OK == nil || reply.Reply.OK.CaptureReceived == nil {
		return nil, provider.NewGatewayError(provider.GenericGatewayError, "worldpay did not acknowledge capture")
	}
	return &provider.ModificationResponse{Status: provider.ModificationPending, Reference: reply.Reply.OK.CaptureReceived.OrderCode}, nil
}

func (p *Provider) Cancel(ctx context.Context, req *provider.ModificationRequest) (*provider.ModificationResponse, error) {
	order, err := renderOrder(provider.OrderCancel, &orderData{
		MerchantCode: req.Account.Credential(entity.CredentialMerchantCode),
		OrderCode:    req.Charge.TransactionID(),
	})
	if err != nil {
		return nil, provider.AsGatewayError(err)
	}

	reply, err := p.send(ctx, req.Account, order)
	if err != nil {
		return nil, err
	}
	if e := reply.err(); e != nil {
		return nil, gatewayErrorFrom(e)
	}
	if reply.Reply.OK == nil || reply.Reply.OK.CancelReceived == nil {
		return nil, provider.NewGatewayError(provider.GenericGatewayError, "worldpay did not acknowledge cancel")
	}
	return &provider.ModificationResponse{Status: provider.ModificationComplete, Reference: reply.Reply.OK.CancelReceived.OrderCode}, nil
}

func (p *Provider) Refund(ctx context.Context, req *provider.RefundRequest) (*provider.ModificationResponse, error) {
	order, err := renderOrder(provider.OrderRefund, &orderData{
		MerchantCode: req.Account.Credential(entity.CredentialMerchantCode),
		OrderCode:    req.Charge.TransactionID(),
		Currency:     currency(req.Charge),
		Amount:       req.Refund.AmountCents,
		Reference:    req.Refund.ExternalID,
	})
	if err != nil {
		return nil, provider.AsGatewayError(err)
	}

	reply, err := p.send(ctx, req.Account, order)
	if err != nil {
		return nil, err
	}
	if e := reply.err(); e != nil {
		return nil, gatewayErrorFrom(e)
	}
	if reply.Reply.OK == nil || reply.Reply.OK.RefundReceived == nil {
		return nil, provider.NewGatewayError(provider.GenericGatewayError, "worldpay did not acknowledge refund")
	}
	return &provider.ModificationResponse{Status: provider.ModificationPending, Reference: req.Refund.ExternalID}, nil
}

func (p *Provider) send(ctx context.Context, account *entity.GatewayAccount, order *provider.GatewayOrder) (*replyEnvelope, error) {
	header := http.Header{}
	header.Set("Authorization", basicAuth(account.Credential(entity.CredentialUsername), account.Credential(entity.CredentialPassword)))

	resp, err := p.client.Post(ctx, p.endpoint(account), order, account, header)
	if err != nil {
		return nil, err
	}

	reply, err := decodeReply(resp.Body)
	if err != nil {
		return nil, provider.MalformedResponse(err)
	}
	return reply, nil
}

func (p *Provider) endpoint(account *entity.GatewayAccount) string {
	if account.IsLive() {
		return p.cfg.LiveURL
	}
	return p.cfg.TestURL
}

func basicAuth(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

func currency(charge *entity.Charge) string {
	if charge.Currency == "" {
		return "GBP"
	}
	return strings.ToUpper(charge.Currency)
}
