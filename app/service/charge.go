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
	"github.com/vibast-solutions/ms-go-connector/config"
)

const defaultCaptureMaxAttempts = int32(48)

// CancelKind says who asked for a cancellation.
type CancelKind int

const (
	CancelByUser CancelKind = iota + 1
	CancelByService
	CancelByExpiry
)

type cancelFlow struct {
	terminal  status.ChargeStatus
	ready     status.ChargeStatus
	submitted status.ChargeStatus
	failed    status.ChargeStatus
}

var cancelFlows = map[CancelKind]cancelFlow{
	CancelByUser: {
		terminal:  status.ChargeUserCancelled,
		ready:     status.ChargeUserCancelReady,
		submitted: status.ChargeUserCancelSubmitted,
		failed:    status.ChargeUserCancelError,
	},
	CancelByService: {
		terminal:  status.ChargeSystemCancelled,
		ready:     status.ChargeSystemCancelReady,
		submitted: status.ChargeSystemCancelSubmitted,
		failed:    status.ChargeSystemCancelError,
	},
	CancelByExpiry: {
		terminal:  status.ChargeExpired,
		ready:     status.ChargeExpireCancelReady,
		submitted: status.ChargeExpireCancelSubmitted,
		failed:    status.ChargeExpireCancelFailed,
	},
}

var authoriseOutcomes = map[provider.AuthoriseStatus]status.ChargeStatus{
	provider.AuthoriseAuthorised:  status.ChargeAuthorisationSuccess,
	provider.AuthoriseRejected:    status.ChargeAuthorisationRejected,
	provider.AuthoriseCancelled:   status.ChargeAuthorisationCancelled,
	provider.AuthoriseSubmitted:   status.ChargeAuthorisationSubmitted,
	provider.AuthoriseRequires3DS: status.ChargeAuthorisation3DSRequired,
	provider.AuthoriseError:       status.ChargeAuthorisationError,
}

// ChargeService drives the authorise, capture and cancel flows of a charge
// against its processor.
type ChargeService struct {
	accounts   gatewayAccountRepository
	charges    chargeRepository
	providers  providerLookup
	driver     *ChargeStatusDriver
	chargesCfg config.ChargesConfig
	logger     *logrus.Entry
	now        func() time.Time
}

func NewChargeService(
	accounts gatewayAccountRepository,
	charges chargeRepository,
	providers providerLookup,
	driver *ChargeStatusDriver,
	chargesCfg config.ChargesConfig,
) *ChargeService {
	return &ChargeService{
		accounts:   accounts,
		charges:    charges,
		providers:  providers,
		driver:     driver,
		chargesCfg: chargesCfg,
		logger:     factory.NewModuleLogger("charge-service"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Authorise submits card details for a charge the payer is entering them
// for. Gateway failures are recorded on the charge rather than returned.
func (s *ChargeService) Authorise(ctx context.Context, chargeExternalID string, card provider.Card) (*entity.Charge, error) {
	if strings.TrimSpace(card.Number) == "" {
		return nil, ErrInvalidRequest
	}
	charge, err := s.findCharge(ctx, chargeExternalID)
	if err != nil {
		return nil, err
	}
	account, prov, err := s.resolve(ctx, charge)
	if err != nil {
		return nil, err
	}

	if generator, ok := prov.(provider.TransactionIDGenerator); ok && charge.TransactionID() == "" {
		transactionID := generator.NewTransactionID()
		charge.GatewayTransactionID = &transactionID
	}
	if err := s.driver.Transition(ctx, charge, status.ChargeAuthorisationReady, events.Unspecified); err != nil {
		return nil, err
	}

	logger := s.logger.WithFields(logrus.Fields{"charge_external_id": charge.ExternalID, "provider": prov.Name()})
	resp, gwErr := prov.Authorise(ctx, &provider.AuthoriseRequest{Account: account, Charge: charge, Card: card})
	if gwErr != nil {
		logger.WithError(gwErr).Warn("authorisation_gateway_error")
		return charge, s.driver.Transition(ctx, charge, authorisationFailureStatus(gwErr), events.Unspecified)
	}

	target, ok := authoriseOutcomes[resp.Status]
	if !ok {
		target = status.ChargeAuthorisationUnexpectedError
	}
	if resp.TransactionID != "" {
		transactionID := resp.TransactionID
		charge.GatewayTransactionID = &transactionID
	}
	logger.WithFields(logrus.Fields{"authorise_status": resp.Status, "error_code": resp.ErrorCode}).Info("authorisation_result")
	return charge, s.driver.Transition(ctx, charge, target, events.Unspecified)
}

// ApproveForCapture records the payer's (or the service's) go-ahead.
func (s *ChargeService) ApproveForCapture(ctx context.Context, chargeExternalID string) (*entity.Charge, error) {
	charge, err := s.findCharge(ctx, chargeExternalID)
	if err != nil {
		return nil, err
	}
	return charge, s.driver.Transition(ctx, charge, status.ChargeCaptureApproved, events.Unspecified)
}

func (s *ChargeService) Capture(ctx context.Context, accountID uint64, chargeExternalID string) (*entity.Charge, error) {
	charge, err := s.findAccountCharge(ctx, accountID, chargeExternalID)
	if err != nil {
		return nil, err
	}
	return charge, s.capture(ctx, charge)
}

func (s *ChargeService) Cancel(ctx context.Context, accountID uint64, chargeExternalID string, kind CancelKind) (*entity.Charge, error) {
	charge, err := s.findAccountCharge(ctx, accountID, chargeExternalID)
	if err != nil {
		return nil, err
	}
	return charge, s.cancel(ctx, charge, kind)
}

// capture takes an approved charge through CAPTURE_READY to the processor.
// Failures go back to CAPTURE_APPROVED_RETRY until the attempt budget is
// spent.
func (s *ChargeService) capture(ctx context.Context, charge *entity.Charge) error {
	if !charge.Status.IsOneOf(status.ChargeCaptureApproved, status.ChargeCaptureApprovedRetry) {
		return fmt.Errorf("%w: charge %s is %s", ErrInvalidTransition, charge.ExternalID, charge.Status)
	}
	account, prov, err := s.resolve(ctx, charge)
	if err != nil {
		return err
	}

	if charge.Status == status.ChargeCaptureApprovedRetry && charge.CaptureAttempts >= s.captureMaxAttempts() {
		return s.driver.Transition(ctx, charge, status.ChargeCaptureError, events.CaptureAbandonedAfterTooManyRetries)
	}

	charge.CaptureAttempts++
	if err := s.driver.Transition(ctx, charge, status.ChargeCaptureReady, events.Unspecified); err != nil {
		charge.CaptureAttempts--
		return err
	}

	logger := s.logger.WithFields(logrus.Fields{
		"charge_external_id": charge.ExternalID,
		"provider":           prov.Name(),
		"attempt":            charge.CaptureAttempts,
	})
	resp, gwErr := prov.Capture(ctx, &provider.ModificationRequest{Account: account, Charge: charge})
	if gwErr != nil {
		logger.WithError(gwErr).Warn("capture_gateway_error")
		if err := s.driver.Transition(ctx, charge, status.ChargeCaptureApprovedRetry, events.Unspecified); err != nil {
			return err
		}
		if charge.CaptureAttempts >= s.captureMaxAttempts() {
			return s.driver.Transition(ctx, charge, status.ChargeCaptureError, events.CaptureAbandonedAfterTooManyRetries)
		}
		return nil
	}

	if resp.Status == provider.ModificationComplete {
		return s.driver.Transition(ctx, charge, status.ChargeCaptured, events.CaptureConfirmed)
	}
	return s.driver.Transition(ctx, charge, status.ChargeCaptureSubmitted, events.CaptureSubmitted)
}

// cancel ends a charge. Charges the processor has not authorised move
// straight to the terminal status; authorised ones are cancelled at the
// processor first.
func (s *ChargeService) cancel(ctx context.Context, charge *entity.Charge, kind CancelKind) error {
	flow, ok := cancelFlows[kind]
	if !ok {
		return ErrInvalidRequest
	}
	if s.driver.CanTransition(charge, flow.terminal) {
		return s.driver.Transition(ctx, charge, flow.terminal, events.Unspecified)
	}

	account, prov, err := s.resolve(ctx, charge)
	if err != nil {
		return err
	}
	if err := s.driver.Transition(ctx, charge, flow.ready, events.Unspecified); err != nil {
		return err
	}

	resp, gwErr := prov.Cancel(ctx, &provider.ModificationRequest{Account: account, Charge: charge})
	if gwErr != nil {
		s.logger.WithError(gwErr).WithField("charge_external_id", charge.ExternalID).Warn("cancel_gateway_error")
		return s.driver.Transition(ctx, charge, flow.failed, events.Unspecified)
	}
	if resp.Status == provider.ModificationComplete {
		return s.driver.Transition(ctx, charge, flow.terminal, events.Unspecified)
	}
	return s.driver.Transition(ctx, charge, flow.submitted, events.Unspecified)
}

func (s *ChargeService) findCharge(ctx context.Context, chargeExternalID string) (*entity.Charge, error) {
	if strings.TrimSpace(chargeExternalID) == "" {
		return nil, ErrInvalidRequest
	}
	charge, err := s.charges.FindByExternalID(ctx, chargeExternalID)
	if err != nil {
		return nil, err
	}
	if charge == nil {
		return nil, ErrChargeNotFound
	}
	return charge, nil
}

func (s *ChargeService) findAccountCharge(ctx context.Context, accountID uint64, chargeExternalID string) (*entity.Charge, error) {
	charge, err := s.findCharge(ctx, chargeExternalID)
	if err != nil {
		return nil, err
	}
	if charge.GatewayAccountID != accountID {
		return nil, ErrChargeNotFound
	}
	return charge, nil
}

func (s *ChargeService) resolve(ctx context.Context, charge *entity.Charge) (*entity.GatewayAccount, provider.Provider, error) {
	account, err := s.accounts.FindByID(ctx, charge.GatewayAccountID)
	if err != nil {
		return nil, nil, err
	}
	if account == nil {
		return nil, nil, ErrGatewayAccountNotFound
	}
	prov, err := s.providers.Get(account.ProviderName)
	if err != nil {
		if errors.Is(err, provider.ErrProviderNotSupported) {
			return nil, nil, ErrProviderUnsupported
		}
		return nil, nil, err
	}
	return account, prov, nil
}

func (s *ChargeService) captureMaxAttempts() int32 {
	if s.chargesCfg.CaptureMaxAttempts > 0 {
		return s.chargesCfg.CaptureMaxAttempts
	}
	return defaultCaptureMaxAttempts
}

func authorisationFailureStatus(err error) status.ChargeStatus {
	gwErr := provider.AsGatewayError(err)
	switch gwErr.Type {
	case provider.GatewayTimeoutError:
		return status.ChargeAuthorisationTimeout
	case provider.GenericGatewayError:
		return status.ChargeAuthorisationError
	default:
		return status.ChargeAuthorisationUnexpectedError
	}
}
