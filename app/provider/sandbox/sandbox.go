// Package sandbox is an in-process provider for test accounts. Outcomes are
// chosen by the card number; every modification completes immediately.
package sandbox

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/vibast-solutions/ms-go-connector/app/entity"
	"github.com/vibast-solutions/ms-go-connector/app/provider"
)

const Name = "sandbox"

const (
	CardDeclined     = "4000000000000002"
	CardExpired      = "4000000000000069"
	CardCVCRejected  = "4000000000000127"
	CardProcessError = "4000000000000119"
	Card3DSRequired  = "4000000000003220"
)

var ErrNotificationsNotSupported = errors.New("sandbox does not send notifications")

type Provider struct {
	mapper *provider.StatusMapper
}

func New() *Provider {
	return &Provider{mapper: provider.NewStatusMapper()}
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
	if err := ctx.Err(); err != nil {
		return nil, provider.AsGatewayError(err)
	}

	resp := &provider.AuthoriseResponse{TransactionID: uuid.NewString()}
	switch strings.ReplaceAll(req.Card.Number, " ", "") {
	case CardDeclined:
		resp.Status = provider.AuthoriseRejected
		resp.ErrorCode = "DECLINED"
		resp.ErrorMessage = "card declined"
	case CardExpired:
		resp.Status = provider.AuthoriseRejected
		resp.ErrorCode = "EXPIRED_CARD"
		resp.ErrorMessage = "card expired"
	case CardCVCRejected:
		resp.Status = provider.AuthoriseRejected
		resp.ErrorCode = "CVC_REJECTED"
		resp.ErrorMessage = "security code rejected"
	case CardProcessError:
		resp.Status = provider.AuthoriseError
		resp.ErrorCode = "PROCESSING_ERROR"
		resp.ErrorMessage = "this transaction could not be processed"
	case Card3DSRequired:
		resp.Status = provider.AuthoriseRequires3DS
	default:
		resp.Status = provider.AuthoriseAuthorised
	}
	return resp, nil
}

func (p *Provider) Capture(ctx context.Context, req *provider.ModificationRequest) (*provider.ModificationResponse, error) {
	return complete(ctx, req.Charge.TransactionID())
}

func (p *Provider) Cancel(ctx context.Context, req *provider.ModificationRequest) (*provider.ModificationResponse, error) {
	return complete(ctx, req.Charge.TransactionID())
}

func (p *Provider) Refund(ctx context.Context, _ *provider.RefundRequest) (*provider.ModificationResponse, error) {
	return complete(ctx, uuid.NewString())
}

func (p *Provider) ParseNotification(*provider.NotificationPayload) ([]*provider.Notification, error) {
	return nil, ErrNotificationsNotSupported
}

func (p *Provider) VerifyNotification(context.Context, *provider.Notification, *entity.GatewayAccount) bool {
	return false
}

func complete(ctx context.Context, reference string) (*provider.ModificationResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, provider.AsGatewayError(err)
	}
	return &provider.ModificationResponse{Status: provider.ModificationComplete, Reference: reference}, nil
}
