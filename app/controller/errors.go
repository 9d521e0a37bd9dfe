package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-connector/app/factory"
	"github.com/vibast-solutions/ms-go-connector/app/provider"
	"github.com/vibast-solutions/ms-go-connector/app/repository"
	"github.com/vibast-solutions/ms-go-connector/app/service"
	"github.com/vibast-solutions/ms-go-connector/app/types"
)

func Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &types.HealthResponse{Status: "ok"})
}

func writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}

// writeServiceError maps service and gateway errors to HTTP statuses.
// Anything unrecognised is logged and hidden behind a 500.
func writeServiceError(ctx echo.Context, logger *logrus.Entry, operation string, err error) error {
	var gwErr *provider.GatewayError
	switch {
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrProviderUnsupported),
		errors.Is(err, service.ErrRefundNotEnoughAvailable),
		errors.Is(err, service.ErrRefundNotAvailable):
		return writeError(ctx, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrChargeNotFound):
		return writeError(ctx, http.StatusNotFound, "charge not found")
	case errors.Is(err, service.ErrGatewayAccountNotFound):
		return writeError(ctx, http.StatusNotFound, "gateway account not found")
	case errors.Is(err, service.ErrRefundAmountAvailableMismatch):
		return writeError(ctx, http.StatusPreconditionFailed, err.Error())
	case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, repository.ErrOptimisticLock):
		return writeError(ctx, http.StatusConflict, err.Error())
	case errors.As(err, &gwErr):
		factory.LoggerWithContext(logger, ctx).WithError(err).Warn(operation + " gateway error")
		return writeError(ctx, http.StatusBadGateway, string(gwErr.Type))
	default:
		factory.LoggerWithContext(logger, ctx).WithError(err).Error(operation + " failed")
		return writeError(ctx, http.StatusInternalServerError, "internal server error")
	}
}
