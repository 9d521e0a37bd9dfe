package grpc

import (
	"context"
	"errors"

	"github.com/vibast-solutions/ms-go-connector/app/entity"
	"github.com/vibast-solutions/ms-go-connector/app/mapper"
	"github.com/vibast-solutions/ms-go-connector/app/provider"
	"github.com/vibast-solutions/ms-go-connector/app/repository"
	"github.com/vibast-solutions/ms-go-connector/app/service"
	"github.com/vibast-solutions/ms-go-connector/app/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type refundService interface {
	Refund(ctx context.Context, accountID uint64, chargeExternalID string, req *service.RefundRequest) (*entity.Refund, error)
	ListRefunds(ctx context.Context, accountID uint64, chargeExternalID string) (*entity.Charge, []*entity.Refund, error)
}

type chargeService interface {
	Capture(ctx context.Context, accountID uint64, chargeExternalID string) (*entity.Charge, error)
	Cancel(ctx context.Context, accountID uint64, chargeExternalID string, kind service.CancelKind) (*entity.Charge, error)
}

type Server struct {
	refunds refundService
	charges chargeService
}

func NewServer(refunds refundService, charges chargeService) *Server {
	return &Server{refunds: refunds, charges: charges}
}

func (s *Server) Health(_ context.Context, _ *types.HealthRequest) (*types.HealthResponse, error) {
	return &types.HealthResponse{Status: "ok"}, nil
}

func (s *Server) Refund(ctx context.Context, req *types.RefundRequest) (*types.RefundResponse, error) {
	l := loggerWithContext(ctx)
	if err := req.Validate(); err != nil {
		l.WithError(err).Debug("Refund validation failed")
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	refund, err := s.refunds.Refund(ctx, req.AccountId, req.ChargeId, &service.RefundRequest{
		AmountCents:              req.Amount,
		AmountAvailableForRefund: req.RefundAmountAvailable,
		UserExternalID:           req.UserExternalId,
		UserEmail:                req.UserEmail,
	})
	if err != nil {
		return nil, toStatus(ctx, "Refund", err)
	}

	return &types.RefundResponse{Refund: mapper.RefundToType(refund)}, nil
}

func (s *Server) ListRefunds(ctx context.Context, req *types.ChargeRequest) (*types.ListRefundsResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	charge, refunds, err := s.refunds.ListRefunds(ctx, req.AccountId, req.ChargeId)
	if err != nil {
		return nil, toStatus(ctx, "List refunds", err)
	}

	return mapper.RefundsToType(charge, refunds), nil
}

func (s *Server) Capture(ctx context.Context, req *types.ChargeRequest) (*types.ChargeResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	charge, err := s.charges.Capture(ctx, req.AccountId, req.ChargeId)
	if err != nil {
		return nil, toStatus(ctx, "Capture", err)
	}

	return &types.ChargeResponse{Charge: mapper.ChargeToType(charge)}, nil
}

func (s *Server) Cancel(ctx context.Context, req *types.CancelRequest) (*types.ChargeResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	kind := service.CancelByService
	if req.Initiator == types.CancelInitiatorUser {
		kind = service.CancelByUser
	}
	charge, err := s.charges.Cancel(ctx, req.AccountId, req.ChargeId, kind)
	if err != nil {
		return nil, toStatus(ctx, "Cancel", err)
	}

	return &types.ChargeResponse{Charge: mapper.ChargeToType(charge)}, nil
}

func toStatus(ctx context.Context, operation string, err error) error {
	var gwErr *provider.GatewayError
	switch {
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrProviderUnsupported),
		errors.Is(err, service.ErrRefundNotEnoughAvailable),
		errors.Is(err, service.ErrRefundNotAvailable):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrChargeNotFound):
		return status.Error(codes.NotFound, "charge not found")
	case errors.Is(err, service.ErrGatewayAccountNotFound):
		return status.Error(codes.NotFound, "gateway account not found")
	case errors.Is(err, service.ErrRefundAmountAvailableMismatch):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, repository.ErrOptimisticLock):
		return status.Error(codes.Aborted, err.Error())
	case errors.As(err, &gwErr):
		loggerWithContext(ctx).WithError(err).Warn(operation + " gateway error")
		return status.Error(codes.Unavailable, string(gwErr.Type))
	default:
		loggerWithContext(ctx).WithError(err).Error(operation + " failed")
		return status.Error(codes.Internal, "internal server error")
	}
}
