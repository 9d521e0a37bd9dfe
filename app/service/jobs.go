package service

import (
	"context"
	"time"

	"github.com/vibast-solutions/ms-go-connector/app/entity"
	"github.com/vibast-solutions/ms-go-connector/app/status"
)

const defaultBatchSize = int32(100)

var (
	captureQueueStatuses = []status.ChargeStatus{
		status.ChargeCaptureApproved,
		status.ChargeCaptureApprovedRetry,
	}
	unauthorisedStatuses = []status.ChargeStatus{
		status.ChargeCreated,
		status.ChargeEnteringCardDetails,
		status.ChargeAuthorisation3DSRequired,
	}
	awaitingCaptureStatuses = []status.ChargeStatus{
		status.ChargeAuthorisationSuccess,
		status.ChargeAwaitingCaptureRequest,
	}
)

// RunCaptureBatch captures approved charges, oldest first.
func (s *ChargeService) RunCaptureBatch(ctx context.Context) error {
	items, err := s.charges.ListByStatuses(ctx, captureQueueStatuses, s.now(), s.batchSize())
	if err != nil {
		return err
	}

	var firstErr error
	for _, charge := range items {
		if charge == nil {
			continue
		}
		if err := s.capture(ctx, charge); err != nil {
			s.logger.WithError(err).WithField("charge_external_id", charge.ExternalID).Warn("capture_job_item_failed")
			firstErr = keepFirstErr(firstErr, err)
		}
	}
	return firstErr
}

// RunExpireBatch expires charges left unauthorised or uncaptured past their
// window.
func (s *ChargeService) RunExpireBatch(ctx context.Context) error {
	now := s.now()

	var firstErr error
	for _, window := range []struct {
		statuses []status.ChargeStatus
		age      time.Duration
	}{
		{unauthorisedStatuses, s.chargesCfg.UnauthorisedExpiry},
		{awaitingCaptureStatuses, s.chargesCfg.AwaitingCaptureExpiry},
	} {
		items, err := s.charges.ListByStatuses(ctx, window.statuses, now.Add(-window.age), s.batchSize())
		if err != nil {
			return err
		}
		firstErr = keepFirstErr(firstErr, s.expireAll(ctx, items))
	}
	return firstErr
}

func (s *ChargeService) expireAll(ctx context.Context, items []*entity.Charge) error {
	var firstErr error
	for _, charge := range items {
		if charge == nil {
			continue
		}
		if err := s.cancel(ctx, charge, CancelByExpiry); err != nil {
			s.logger.WithError(err).WithField("charge_external_id", charge.ExternalID).Warn("expire_job_item_failed")
			firstErr = keepFirstErr(firstErr, err)
		}
	}
	return firstErr
}

func (s *ChargeService) batchSize() int32 {
	if s.chargesCfg.JobBatchSize > 0 {
		return s.chargesCfg.JobBatchSize
	}
	return defaultBatchSize
}

func keepFirstErr(current error, candidate error) error {
	if current != nil {
		return current
	}
	return candidate
}
