package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-connector/app/entity"
	"github.com/vibast-solutions/ms-go-connector/app/events"
	"github.com/vibast-solutions/ms-go-connector/app/factory"
	"github.com/vibast-solutions/ms-go-connector/app/statemachine"
	"github.com/vibast-solutions/ms-go-connector/app/status"
)

type transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	AfterCommit(ctx context.Context, fn func())
}

type chargeUpdater interface {
	Update(ctx context.Context, charge *entity.Charge) error
}

type refundWriter interface {
	Create(ctx context.Context, refund *entity.Refund) error
	Update(ctx context.Context, refund *entity.Refund) error
}

type chargeEventRepository interface {
	Create(ctx context.Context, event *entity.ChargeEvent) error
}

type refundNotifier interface {
	RefundIssued(ctx context.Context, charge *entity.Charge, refund *entity.Refund) error
}

// ChargeStatusDriver is the only writer of charge statuses. Every change is
// checked against the charge graph, persisted with a version check, audited
// and published once committed.
type ChargeStatusDriver struct {
	tx        transactor
	charges   chargeUpdater
	events    chargeEventRepository
	publisher events.Publisher
	graph     *statemachine.Graph[status.ChargeStatus]
	logger    logrus.FieldLogger
	now       func() time.Time
}

func NewChargeStatusDriver(tx transactor, charges chargeUpdater, eventRepo chargeEventRepository, publisher events.Publisher) *ChargeStatusDriver {
	return &ChargeStatusDriver{
		tx:        tx,
		charges:   charges,
		events:    eventRepo,
		publisher: publisher,
		graph:     statemachine.Charges(),
		logger:    factory.NewModuleLogger("charge-status-driver"),
		now:       time.Now,
	}
}

// Transition moves charge to target. kind may be events.Unspecified, in which
// case the event is resolved from the graph. Moving to the current status is
// a no-op. On error the charge is left unchanged.
func (d *ChargeStatusDriver) Transition(ctx context.Context, charge *entity.Charge, target status.ChargeStatus, kind events.Kind) error {
	from := charge.Status
	if from == target {
		return nil
	}
	if !d.graph.IsValidTransition(from, target, kind) {
		d.logger.WithFields(logrus.Fields{
			"charge_external_id": charge.ExternalID,
			"from":               from,
			"to":                 target,
			"event":              kind.String(),
		}).Warn("invalid_charge_transition")
		return fmt.Errorf("%w: charge %s from %s to %s", ErrInvalidTransition, charge.ExternalID, from, target)
	}
	if kind == events.Unspecified {
		kind, _ = d.graph.EventForTransition(from, target)
	}
	return d.apply(ctx, charge, target, kind)
}

// ForceTransition sets target outside the graph. Only statuses with a
// correction event may be forced.
func (d *ChargeStatusDriver) ForceTransition(ctx context.Context, charge *entity.Charge, target status.ChargeStatus) error {
	kind, ok := statemachine.EventForForceUpdate(target)
	if !ok {
		return fmt.Errorf("%w: %s cannot be forced", ErrInvalidTransition, target)
	}
	if charge.Status == target {
		return nil
	}
	return d.apply(ctx, charge, target, kind)
}

// CanTransition reports whether target is reachable from the charge's
// current status in one step.
func (d *ChargeStatusDriver) CanTransition(charge *entity.Charge, target status.ChargeStatus) bool {
	return d.graph.IsValidTransition(charge.Status, target, events.Unspecified)
}

func (d *ChargeStatusDriver) IsTerminal(s status.ChargeStatus) bool {
	return d.graph.IsTerminal(s)
}

func (d *ChargeStatusDriver) IntermediateStatus(from, to status.ChargeStatus) (status.ChargeStatus, bool) {
	return d.graph.IntermediateStatus(from, to)
}

func (d *ChargeStatusDriver) apply(ctx context.Context, charge *entity.Charge, target status.ChargeStatus, kind events.Kind) error {
	snapshot := *charge
	now := d.now().UTC()

	err := d.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		charge.Status = target
		charge.UpdatedAt = now
		if err := d.charges.Update(ctx, charge); err != nil {
			return err
		}

		oldStatus := string(snapshot.Status)
		if err := d.events.Create(ctx, &entity.ChargeEvent{
			ResourceType:       string(events.ResourcePayment),
			ResourceExternalID: charge.ExternalID,
			ChargeExternalID:   charge.ExternalID,
			EventType:          kind.String(),
			OldStatus:          &oldStatus,
			NewStatus:          string(target),
			CreatedAt:          now,
		}); err != nil {
			return err
		}

		d.tx.AfterCommit(ctx, func() {
			d.logger.WithFields(logrus.Fields{
				"charge_external_id": charge.ExternalID,
				"from":               snapshot.Status,
				"to":                 target,
				"event":              kind.String(),
			}).Info("charge_transition")
			if kind != events.Unspecified {
				publish(ctx, d.publisher, d.logger, &events.Event{
					Kind:               kind,
					ResourceType:       events.ResourcePayment,
					ResourceExternalID: charge.ExternalID,
					GatewayAccountID:   charge.GatewayAccountID,
					Status:             string(target),
					Timestamp:          now,
				})
			}
		})
		return nil
	})
	if err != nil {
		*charge = snapshot
		return err
	}
	return nil
}

// RefundStatusDriver is the refund counterpart of ChargeStatusDriver. It also
// fires the refund-issued notification when a refund reaches REFUNDED.
type RefundStatusDriver struct {
	tx        transactor
	refunds   refundWriter
	events    chargeEventRepository
	publisher events.Publisher
	notifier  refundNotifier
	graph     *statemachine.Graph[status.RefundStatus]
	logger    logrus.FieldLogger
	now       func() time.Time
}

func NewRefundStatusDriver(tx transactor, refunds refundWriter, eventRepo chargeEventRepository, publisher events.Publisher, notifier refundNotifier) *RefundStatusDriver {
	return &RefundStatusDriver{
		tx:        tx,
		refunds:   refunds,
		events:    eventRepo,
		publisher: publisher,
		notifier:  notifier,
		graph:     statemachine.Refunds(),
		logger:    factory.NewModuleLogger("refund-status-driver"),
		now:       time.Now,
	}
}

// Create inserts a new refund in CREATED.
func (d *RefundStatusDriver) Create(ctx context.Context, charge *entity.Charge, refund *entity.Refund, kind events.Kind) error {
	if !d.graph.IsValidTransition(status.RefundUndefined, status.RefundCreated, kind) {
		return fmt.Errorf("%w: refund cannot be created with %s", ErrInvalidTransition, kind)
	}

	now := d.now().UTC()
	refund.Status = status.RefundCreated
	refund.ChargeExternalID = charge.ExternalID
	refund.CreatedAt = now
	refund.UpdatedAt = now

	return d.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := d.refunds.Create(ctx, refund); err != nil {
			return err
		}
		return d.record(ctx, charge, refund, status.RefundUndefined, kind, now)
	})
}

func (d *RefundStatusDriver) Transition(ctx context.Context, charge *entity.Charge, refund *entity.Refund, target status.RefundStatus, kind events.Kind) error {
	from := refund.Status
	if from == target {
		return nil
	}
	if !d.graph.IsValidTransition(from, target, kind) {
		d.logger.WithFields(logrus.Fields{
			"refund_external_id": refund.ExternalID,
			"from":               from,
			"to":                 target,
			"event":              kind.String(),
		}).Warn("invalid_refund_transition")
		return fmt.Errorf("%w: refund %s from %s to %s", ErrInvalidTransition, refund.ExternalID, from, target)
	}
	if kind == events.Unspecified {
		kind, _ = d.graph.EventForTransition(from, target)
	}

	snapshot := *refund
	now := d.now().UTC()
	err := d.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		refund.Status = target
		refund.UpdatedAt = now
		if err := d.refunds.Update(ctx, refund); err != nil {
			return err
		}
		return d.record(ctx, charge, refund, from, kind, now)
	})
	if err != nil {
		*refund = snapshot
		return err
	}
	return nil
}

// CanTransition reports whether target is reachable from the refund's
// current status in one step.
func (d *RefundStatusDriver) CanTransition(refund *entity.Refund, target status.RefundStatus) bool {
	return d.graph.IsValidTransition(refund.Status, target, events.Unspecified)
}

func (d *RefundStatusDriver) IntermediateStatus(from, to status.RefundStatus) (status.RefundStatus, bool) {
	return d.graph.IntermediateStatus(from, to)
}

func (d *RefundStatusDriver) record(ctx context.Context, charge *entity.Charge, refund *entity.Refund, from status.RefundStatus, kind events.Kind, now time.Time) error {
	var oldStatus *string
	if from != status.RefundUndefined {
		s := string(from)
		oldStatus = &s
	}
	if err := d.events.Create(ctx, &entity.ChargeEvent{
		ResourceType:       string(events.ResourceRefund),
		ResourceExternalID: refund.ExternalID,
		ChargeExternalID:   charge.ExternalID,
		EventType:          kind.String(),
		OldStatus:          oldStatus,
		NewStatus:          string(refund.Status),
		CreatedAt:          now,
	}); err != nil {
		return err
	}

	target := refund.Status
	d.tx.AfterCommit(ctx, func() {
		d.logger.WithFields(logrus.Fields{
			"refund_external_id": refund.ExternalID,
			"charge_external_id": charge.ExternalID,
			"from":               from,
			"to":                 target,
			"event":              kind.String(),
		}).Info("refund_transition")
		if kind != events.Unspecified {
			publish(ctx, d.publisher, d.logger, &events.Event{
				Kind:               kind,
				ResourceType:       events.ResourceRefund,
				ResourceExternalID: refund.ExternalID,
				ParentExternalID:   charge.ExternalID,
				GatewayAccountID:   charge.GatewayAccountID,
				Status:             string(target),
				Timestamp:          now,
			})
		}
		if target == status.Refunded && d.notifier != nil {
			if err := d.notifier.RefundIssued(ctx, charge, refund); err != nil {
				d.logger.WithError(err).WithField("refund_external_id", refund.ExternalID).Warn("refund_issued_notification_failed")
			}
		}
	})
	return nil
}

func publish(ctx context.Context, publisher events.Publisher, logger logrus.FieldLogger, event *events.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"event_type":           event.Kind.String(),
			"resource_external_id": event.ResourceExternalID,
		}).Warn("event_publish_failed")
	}
}
