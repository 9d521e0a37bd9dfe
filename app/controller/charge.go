package controller

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-connector/app/entity"
	"github.com/vibast-solutions/ms-go-connector/app/factory"
	"github.com/vibast-solutions/ms-go-connector/app/mapper"
	"github.com/vibast-solutions/ms-go-connector/app/provider"
	"github.com/vibast-solutions/ms-go-connector/app/service"
	"github.com/vibast-solutions/ms-go-connector/app/types"
)

type chargeService interface {
	Authorise(ctx context.Context, chargeExternalID string, card provider.Card) (*entity.Charge, error)
	ApproveForCapture(ctx context.Context, chargeExternalID string) (*entity.Charge, error)
	Capture(ctx context.Context, accountID uint64, chargeExternalID string) (*entity.Charge, error)
	Cancel(ctx context.Context, accountID uint64, chargeExternalID string, kind service.CancelKind) (*entity.Charge, error)
}

type ChargeController struct {
	charges chargeService
	logger  *logrus.Entry
}

func NewChargeController(charges chargeService) *ChargeController {
	return &ChargeController{
		charges: charges,
		logger:  factory.NewModuleLogger("charges-controller"),
	}
}

func (c *ChargeController) Authorise(ctx echo.Context) error {
	req, err := types.NewAuthoriseRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	month, year, _ := req.Expiry()
	charge, err := c.charges.Authorise(ctx.Request().Context(), req.ChargeId, provider.Card{
		Number:      req.CardNumber,
		CVC:         req.Cvc,
		HolderName:  req.CardholderName,
		ExpiryMonth: month,
		ExpiryYear:  year,
	})
	if err != nil {
		return writeServiceError(ctx, c.logger, "Authorise charge", err)
	}

	return ctx.JSON(http.StatusOK, &types.ChargeResponse{Charge: mapper.ChargeToType(charge)})
}

func (c *ChargeController) ApproveForCapture(ctx echo.Context) error {
	charge, err := c.charges.ApproveForCapture(ctx.Request().Context(), ctx.Param("chargeId"))
	if err != nil {
		return writeServiceError(ctx, c.logger, "Approve charge", err)
	}
	return ctx.JSON(http.StatusOK, &types.ChargeResponse{Charge: mapper.ChargeToType(charge)})
}

func (c *ChargeController) Capture(ctx echo.Context) error {
	req, err := types.NewChargeRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	charge, err := c.charges.Capture(ctx.Request().Context(), req.AccountId, req.ChargeId)
	if err != nil {
		return writeServiceError(ctx, c.logger, "Capture charge", err)
	}

	return ctx.JSON(http.StatusOK, &types.ChargeResponse{Charge: mapper.ChargeToType(charge)})
}

func (c *ChargeController) Cancel(ctx echo.Context) error {
	req, err := types.NewCancelRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	kind := service.CancelByService
	if req.Initiator == types.CancelInitiatorUser {
		kind = service.CancelByUser
	}
	charge, err := c.charges.Cancel(ctx.Request().Context(), req.AccountId, req.ChargeId, kind)
	if err != nil {
		return writeServiceError(ctx, c.logger, "Cancel charge", err)
	}

	return ctx.JSON(http.StatusOK, &types.ChargeResponse{Charge: mapper.ChargeToType(charge)})
}
