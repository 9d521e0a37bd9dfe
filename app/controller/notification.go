package controller

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-connector/app/factory"
	"github.com/vibast-solutions/ms-go-connector/app/provider"
	"github.com/vibast-solutions/ms-go-connector/app/service"
	"github.com/vibast-solutions/ms-go-connector/app/types"
)

// acknowledgement is the body processors expect for an accepted
// notification.
const acknowledgement = "[OK]"

type notificationService interface {
	Handle(ctx context.Context, providerName string, payload *provider.NotificationPayload) error
}

type providerLookup interface {
	Get(name string) (provider.Provider, error)
}

// signatureHeaderProvider is implemented by processors that sign
// notifications in a header rather than in the body.
type signatureHeaderProvider interface {
	SignatureHeader() string
}

type NotificationController struct {
	notifications notificationService
	providers     providerLookup
	logger        *logrus.Entry
}

func NewNotificationController(notifications notificationService, providers providerLookup) *NotificationController {
	return &NotificationController{
		notifications: notifications,
		providers:     providers,
		logger:        factory.NewModuleLogger("notifications-controller"),
	}
}

func (c *NotificationController) Receive(ctx echo.Context) error {
	name := strings.ToLower(strings.TrimSpace(ctx.Param("provider")))
	prov, err := c.providers.Get(name)
	if err != nil {
		return writeError(ctx, http.StatusNotFound, "provider not found")
	}

	signatureHeader := ""
	if signed, ok := prov.(signatureHeaderProvider); ok {
		signatureHeader = signed.SignatureHeader()
	}

	req, err := types.NewNotificationRequestFromContext(ctx, signatureHeader)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	err = c.notifications.Handle(ctx.Request().Context(), req.Provider, &provider.NotificationPayload{
		Body:        req.Body,
		ContentType: req.ContentType,
		Signature:   req.Signature,
		RemoteIP:    req.RemoteIP,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProviderUnsupported):
			return writeError(ctx, http.StatusNotFound, "provider not found")
		case errors.Is(err, service.ErrMalformedNotification):
			return writeError(ctx, http.StatusBadRequest, err.Error())
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Handle notification failed")
			return writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.String(http.StatusOK, acknowledgement)
}
