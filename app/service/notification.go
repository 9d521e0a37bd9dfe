package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-connector/app/entity"
	"github.com/vibast-solutions/ms-go-connector/app/events"
	"github.com/vibast-solutions/ms-go-connector/app/factory"
	"github.com/vibast-solutions/ms-go-connector/app/provider"
	"github.com/vibast-solutions/ms-go-connector/app/status"
)

type notificationLogRepository interface {
	Create(ctx context.Context, log *entity.NotificationLog) error
}

// malformedAcknowledger is implemented by providers whose processor keeps
// redelivering payloads that are not acknowledged, even unparseable ones.
type malformedAcknowledger interface {
	AcknowledgeMalformedNotifications() bool
}

type notificationOutcome struct {
	status int32
	reason string
}

func processed() notificationOutcome {
	return notificationOutcome{status: entity.NotificationProcessed}
}

func ignored(format string, args ...interface{}) notificationOutcome {
	return notificationOutcome{status: entity.NotificationIgnored, reason: fmt.Sprintf(format, args...)}
}

func rejected(format string, args ...interface{}) notificationOutcome {
	return notificationOutcome{status: entity.NotificationRejected, reason: fmt.Sprintf(format, args...)}
}

// NotificationService applies processor notifications to charges and
// refunds. Individual notifications that cannot be applied are logged and
// dropped so the processor does not redeliver them.
type NotificationService struct {
	accounts     gatewayAccountRepository
	charges      chargeRepository
	refunds      refundRepository
	providers    providerLookup
	logs         notificationLogRepository
	chargeDriver *ChargeStatusDriver
	refundDriver *RefundStatusDriver
	logger       *logrus.Entry
}

func NewNotificationService(
	accounts gatewayAccountRepository,
	charges chargeRepository,
	refunds refundRepository,
	providers providerLookup,
	logs notificationLogRepository,
	chargeDriver *ChargeStatusDriver,
	refundDriver *RefundStatusDriver,
) *NotificationService {
	return &NotificationService{
		accounts:     accounts,
		charges:      charges,
		refunds:      refunds,
		providers:    providers,
		logs:         logs,
		chargeDriver: chargeDriver,
		refundDriver: refundDriver,
		logger:       factory.NewModuleLogger("notification-service"),
	}
}

// Handle returns ErrMalformedNotification only for unparseable payloads the
// provider does not want acknowledged.
func (s *NotificationService) Handle(ctx context.Context, providerName string, payload *provider.NotificationPayload) error {
	prov, err := s.providers.Get(providerName)
	if err != nil {
		if errors.Is(err, provider.ErrProviderNotSupported) {
			return ErrProviderUnsupported
		}
		return err
	}
	if payload == nil {
		payload = &provider.NotificationPayload{}
	}

	logger := s.logger.WithFields(logrus.Fields{"provider": providerName, "remote_ip": payload.RemoteIP})

	notifications, err := prov.ParseNotification(payload)
	if err != nil {
		logger.WithError(err).Warn("notification_parse_failed")
		s.record(ctx, providerName, payload, nil, nil, rejected("parse: %v", err))
		if ack, ok := prov.(malformedAcknowledger); ok && ack.AcknowledgeMalformedNotifications() {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrMalformedNotification, err)
	}

	for _, n := range notifications {
		charge, outcome := s.handleOne(ctx, prov, n)
		entry := logger.WithFields(logrus.Fields{
			"transaction_id": n.TransactionID,
			"status_code":    n.StatusCode,
			"reference":      n.Reference,
		})
		if outcome.status == entity.NotificationProcessed {
			entry.Info("notification_processed")
		} else {
			entry.WithField("reason", outcome.reason).Warn("notification_dropped")
		}
		s.record(ctx, providerName, payload, n, charge, outcome)
	}
	return nil
}

func (s *NotificationService) handleOne(ctx context.Context, prov provider.Provider, n *provider.Notification) (*entity.Charge, notificationOutcome) {
	charge, err := s.charges.FindByProviderTransactionID(ctx, prov.Name(), n.TransactionID)
	if err != nil {
		return nil, rejected("charge lookup: %v", err)
	}
	if charge == nil {
		return nil, rejected("no charge for transaction %s", n.TransactionID)
	}

	account, err := s.accounts.FindByID(ctx, charge.GatewayAccountID)
	if err != nil {
		return charge, rejected("account lookup: %v", err)
	}
	if account == nil {
		return charge, rejected("gateway account %d not found", charge.GatewayAccountID)
	}
	if !prov.VerifyNotification(ctx, n, account) {
		return charge, rejected("verification failed")
	}

	interpreted := prov.StatusMapper().From(n.StatusCode, charge.Status)
	switch {
	case interpreted.IsUnknown():
		return charge, ignored("unknown status code %q", n.StatusCode)
	case interpreted.IsIgnored():
		return charge, ignored("status code %q is ignored", n.StatusCode)
	case interpreted.IsRefund():
		return charge, s.applyRefund(ctx, charge, n, interpreted.RefundStatus)
	default:
		return charge, s.applyCharge(ctx, charge, interpreted.ChargeStatus)
	}
}

// applyCharge moves the charge along a direct edge or through the single
// intermediate status. A terminal charge the processor contradicts is
// corrected when the target allows a forced update.
func (s *NotificationService) applyCharge(ctx context.Context, charge *entity.Charge, target status.ChargeStatus) notificationOutcome {
	if charge.Status == target {
		return processed()
	}
	if s.chargeDriver.CanTransition(charge, target) {
		return outcomeOf(s.chargeDriver.Transition(ctx, charge, target, events.Unspecified))
	}
	if via, ok := s.chargeDriver.IntermediateStatus(charge.Status, target); ok {
		if err := s.chargeDriver.Transition(ctx, charge, via, events.Unspecified); err != nil {
			return outcomeOf(err)
		}
		return outcomeOf(s.chargeDriver.Transition(ctx, charge, target, events.Unspecified))
	}
	if s.chargeDriver.IsTerminal(charge.Status) {
		if err := s.chargeDriver.ForceTransition(ctx, charge, target); err == nil {
			return processed()
		}
	}
	return rejected("no transition from %s to %s", charge.Status, target)
}

func (s *NotificationService) applyRefund(ctx context.Context, charge *entity.Charge, n *provider.Notification, target status.RefundStatus) notificationOutcome {
	reference := strings.TrimSpace(n.Reference)
	if reference == "" {
		return rejected("refund notification without reference")
	}

	refund, err := s.refunds.FindByChargeAndGatewayTransactionID(ctx, charge.ExternalID, reference)
	if err == nil && refund == nil {
		refund, err = s.refunds.FindByExternalID(ctx, reference)
	}
	if err != nil {
		return rejected("refund lookup: %v", err)
	}
	if refund == nil || refund.ChargeExternalID != charge.ExternalID {
		return rejected("no refund %s for charge %s", reference, charge.ExternalID)
	}

	if refund.Status == target {
		return processed()
	}
	if s.refundDriver.CanTransition(refund, target) {
		return outcomeOf(s.refundDriver.Transition(ctx, charge, refund, target, events.Unspecified))
	}
	if via, ok := s.refundDriver.IntermediateStatus(refund.Status, target); ok {
		if err := s.refundDriver.Transition(ctx, charge, refund, via, events.Unspecified); err != nil {
			return outcomeOf(err)
		}
	}
	return outcomeOf(s.refundDriver.Transition(ctx, charge, refund, target, events.Unspecified))
}

func (s *NotificationService) record(ctx context.Context, providerName string, payload *provider.NotificationPayload, n *provider.Notification, charge *entity.Charge, outcome notificationOutcome) {
	now := time.Now().UTC()
	log := &entity.NotificationLog{
		ProviderName: providerName,
		RemoteIP:     payload.RemoteIP,
		Payload:      string(payload.Body),
		Status:       outcome.status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if charge != nil {
		id := charge.ID
		log.ChargeID = &id
	}
	if n != nil {
		log.TransactionID = optionalString(n.TransactionID)
		log.StatusCode = optionalString(n.StatusCode)
	}
	if outcome.reason != "" {
		reason := truncate(outcome.reason, 1024)
		log.Error = &reason
	}
	if err := s.logs.Create(ctx, log); err != nil {
		s.logger.WithError(err).Warn("notification_log_failed")
	}
}

func outcomeOf(err error) notificationOutcome {
	if err != nil {
		return rejected("%v", err)
	}
	return processed()
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max]
}
