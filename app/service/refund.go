package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-connector/app/entity"
	"github.com/vibast-solutions/ms-go-connector/app/events"
	"github.com/vibast-solutions/ms-go-connector/app/factory"
	"github.com/vibast-solutions/ms-go-connector/app/provider"
	"github.com/vibast-solutions/ms-go-connector/app/status"
)

type chargeRepository interface {
	FindByExternalID(ctx context.Context, externalID string) (*entity.Charge, error)
	FindByExternalIDForUpdate(ctx context.Context, externalID string) (*entity.Charge, error)
	FindByProviderTransactionID(ctx context.Context, providerName, transactionID string) (*entity.Charge, error)
	ListByStatuses(ctx context.Context, statuses []status.ChargeStatus, createdBefore time.Time, limit int32) ([]*entity.Charge, error)
}

type refundRepository interface {
	FindByExternalID(ctx context.Context, externalID string) (*entity.Refund, error)
	FindByChargeAndGatewayTransactionID(ctx context.Context, chargeExternalID, reference string) (*entity.Refund, error)
	ListByChargeExternalID(ctx context.Context, chargeExternalID string) ([]*entity.Refund, error)
}

type gatewayAccountRepository interface {
	FindByID(ctx context.Context, id uint64) (*entity.GatewayAccount, error)
}

type providerLookup interface {
	Get(name string) (provider.Provider, error)
}

// ledgerClient returns refunds recorded only in the ledger, for charges whose
// local history was archived.
type ledgerClient interface {
	ListRefunds(ctx context.Context, chargeExternalID string) ([]*entity.Refund, error)
}

type RefundRequest struct {
	AmountCents int64
	// AmountAvailableForRefund is the refundable amount the caller saw. It
	// must match the amount computed here.
	AmountAvailableForRefund int64
	UserExternalID           string
	UserEmail                string
}

type RefundService struct {
	tx        transactor
	accounts  gatewayAccountRepository
	charges   chargeRepository
	refunds   refundRepository
	providers providerLookup
	ledger    ledgerClient
	driver    *RefundStatusDriver
	logger    *logrus.Entry
}

func NewRefundService(
	tx transactor,
	accounts gatewayAccountRepository,
	charges chargeRepository,
	refunds refundRepository,
	providers providerLookup,
	ledger ledgerClient,
	driver *RefundStatusDriver,
) *RefundService {
	return &RefundService{
		tx:        tx,
		accounts:  accounts,
		charges:   charges,
		refunds:   refunds,
		providers: providers,
		ledger:    ledger,
		driver:    driver,
		logger:    factory.NewModuleLogger("refund-service"),
	}
}

// Refund validates the refundable amount under a lock on the charge, records
// the refund and submits it to the processor. A processor failure leaves the
// refund in REFUND_ERROR and is returned as a *provider.GatewayError.
func (s *RefundService) Refund(ctx context.Context, accountID uint64, chargeExternalID string, req *RefundRequest) (*entity.Refund, error) {
	if req == nil || req.AmountCents <= 0 || strings.TrimSpace(chargeExternalID) == "" {
		return nil, ErrInvalidRequest
	}

	var (
		account *entity.GatewayAccount
		charge  *entity.Charge
		prov    provider.Provider
		refund  *entity.Refund
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		account, err = s.account(ctx, accountID)
		if err != nil {
			return err
		}
		charge, err = s.charges.FindByExternalIDForUpdate(ctx, chargeExternalID)
		if err != nil {
			return err
		}
		if charge == nil || charge.GatewayAccountID != account.ID {
			return ErrChargeNotFound
		}
		prov, err = s.provider(account)
		if err != nil {
			return err
		}

		refunds, err := s.refundHistory(ctx, charge)
		if err != nil {
			return err
		}
		if availability := prov.ExternalRefundAvailability(charge, refunds); availability != provider.RefundAvailable {
			return &RefundAvailabilityError{Availability: availability}
		}

		available := charge.AmountCents - provider.TotalRefunded(refunds)
		if req.AmountAvailableForRefund != available {
			return &RefundAmountError{Err: ErrRefundAmountAvailableMismatch, Available: available, Requested: req.AmountCents}
		}
		if available-req.AmountCents < 0 {
			return &RefundAmountError{Err: ErrRefundNotEnoughAvailable, Available: available, Requested: req.AmountCents}
		}

		refund = &entity.Refund{
			ExternalID:     uuid.NewString(),
			AmountCents:    req.AmountCents,
			UserExternalID: optionalString(req.UserExternalID),
			UserEmail:      optionalString(req.UserEmail),
		}
		kind := events.RefundCreatedByService
		if refund.UserExternalID != nil {
			kind = events.RefundCreatedByUser
		}
		return s.driver.Create(ctx, charge, refund, kind)
	})
	if err != nil {
		return nil, err
	}

	logger := s.logger.WithFields(logrus.Fields{
		"charge_external_id": charge.ExternalID,
		"refund_external_id": refund.ExternalID,
		"provider":           prov.Name(),
	})

	resp, gwErr := prov.Refund(ctx, &provider.RefundRequest{Account: account, Charge: charge, Refund: refund})
	if gwErr != nil {
		logger.WithError(gwErr).Warn("refund_gateway_error")
		if err := s.driver.Transition(ctx, charge, refund, status.RefundError, events.RefundErrored); err != nil {
			return nil, errors.Join(provider.AsGatewayError(gwErr), err)
		}
		return nil, provider.AsGatewayError(gwErr)
	}

	if resp.Reference != "" {
		reference := resp.Reference
		refund.GatewayTransactionID = &reference
	}
	if err := s.driver.Transition(ctx, charge, refund, status.RefundSubmitted, events.RefundSubmitted); err != nil {
		return nil, err
	}
	if resp.Status == provider.ModificationComplete {
		if err := s.driver.Transition(ctx, charge, refund, status.Refunded, events.RefundSucceeded); err != nil {
			return nil, err
		}
	}

	logger.WithField("status", refund.Status).Info("refund_submitted")
	return refund, nil
}

// ListRefunds returns the refund history of a charge owned by accountID.
func (s *RefundService) ListRefunds(ctx context.Context, accountID uint64, chargeExternalID string) (*entity.Charge, []*entity.Refund, error) {
	charge, err := s.charges.FindByExternalID(ctx, chargeExternalID)
	if err != nil {
		return nil, nil, err
	}
	if charge == nil || charge.GatewayAccountID != accountID {
		return nil, nil, ErrChargeNotFound
	}
	refunds, err := s.refundHistory(ctx, charge)
	if err != nil {
		return nil, nil, err
	}
	return charge, refunds, nil
}

// refundHistory merges ledger refunds into the local ones for historic
// charges. A local record wins over a ledger record with the same id.
func (s *RefundService) refundHistory(ctx context.Context, charge *entity.Charge) ([]*entity.Refund, error) {
	local, err := s.refunds.ListByChargeExternalID(ctx, charge.ExternalID)
	if err != nil {
		return nil, err
	}
	if !charge.Historic || s.ledger == nil {
		return local, nil
	}

	remote, err := s.ledger.ListRefunds(ctx, charge.ExternalID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(local))
	merged := make([]*entity.Refund, 0, len(local)+len(remote))
	for _, r := range local {
		seen[r.ExternalID] = struct{}{}
		merged = append(merged, r)
	}
	for _, r := range remote {
		if _, ok := seen[r.ExternalID]; ok {
			continue
		}
		merged = append(merged, r)
	}
	return merged, nil
}

func (s *RefundService) account(ctx context.Context, accountID uint64) (*entity.GatewayAccount, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrGatewayAccountNotFound
	}
	return account, nil
}

func (s *RefundService) provider(account *entity.GatewayAccount) (provider.Provider, error) {
	prov, err := s.providers.Get(account.ProviderName)
	if err != nil {
		if errors.Is(err, provider.ErrProviderNotSupported) {
			return nil, ErrProviderUnsupported
		}
		return nil, err
	}
	return prov, nil
}

func optionalString(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
