package controller

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-connector/app/entity"
	"github.com/vibast-solutions/ms-go-connector/app/factory"
	"github.com/vibast-solutions/ms-go-connector/app/mapper"
	"github.com/vibast-solutions/ms-go-connector/app/service"
	"github.com/vibast-solutions/ms-go-connector/app/types"
)

type refundService interface {
	Refund(ctx context.Context, accountID uint64, chargeExternalID string, req *service.RefundRequest) (*entity.Refund, error)
	ListRefunds(ctx context.Context, accountID uint64, chargeExternalID string) (*entity.Charge, []*entity.Refund, error)
}

type RefundController struct {
	refunds refundService
	logger  *logrus.Entry
}

func NewRefundController(refunds refundService) *RefundController {
	return &RefundController{
		refunds: refunds,
		logger:  factory.NewModuleLogger("refunds-controller"),
	}
}

func (c *RefundController) SubmitRefund(ctx echo.Context) error {
	req, err := types.NewRefundRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	refund, err := c.refunds.Refund(ctx.Request().Context(), req.AccountId, req.ChargeId, &service.RefundRequest{
		AmountCents:              req.Amount,
		AmountAvailableForRefund: req.RefundAmountAvailable,
		UserExternalID:           req.UserExternalId,
		UserEmail:                req.UserEmail,
	})
	if err != nil {
		return writeServiceError(ctx, c.logger, "Submit refund", err)
	}

	return ctx.JSON(http.StatusAccepted, &types.RefundResponse{Refund: mapper.RefundToType(refund)})
}

func (c *RefundController) ListRefunds(ctx echo.Context) error {
	req, err := types.NewChargeRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	charge, refunds, err := c.refunds.ListRefunds(ctx.Request().Context(), req.AccountId, req.ChargeId)
	if err != nil {
		return writeServiceError(ctx, c.logger, "List refunds", err)
	}

	return ctx.JSON(http.StatusOK, mapper.RefundsToType(charge, refunds))
}
