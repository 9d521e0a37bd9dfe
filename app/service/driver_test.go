package service

import (
	"context"
	"errors"
	"testing"

	"github.com/vibast-solutions/ms-go-connector/app/events"
	"github.com/vibast-solutions/ms-go-connector/app/status"
	"github.com/vibast-solutions/ms-go-connector/config"
)

func TestChargeTransitionToCurrentStatusIsNoop(t *testing.T) {
	f := newServiceFixture(config.ChargesConfig{})
	charge := f.addCharge("charge-1", status.ChargeCaptured, 500)

	if err := f.chargeDriver.Transition(context.Background(), charge, status.ChargeCaptured, events.CaptureConfirmed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.chargeEvents.rows) != 0 || len(f.publisher.published) != 0 {
		t.Fatalf("expected no audit rows or events")
	}
}

func TestChargeTransitionRejectsMissingEdge(t *testing.T) {
	f := newServiceFixture(config.ChargesConfig{})
	charge := f.addCharge("charge-1", status.ChargeCreated, 500)

	err := f.chargeDriver.Transition(context.Background(), charge, status.ChargeCaptured, events.Unspecified)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if charge.Status != status.ChargeCreated {
		t.Fatalf("expected charge to stay CREATED, got %s", charge.Status)
	}
	if stored := f.charges.stored("charge-1"); stored.Status != status.ChargeCreated {
		t.Fatalf("expected stored charge to stay CREATED, got %s", stored.Status)
	}
}

func TestChargeTransitionRejectsWrongEvent(t *testing.T) {
	f := newServiceFixture(config.ChargesConfig{})
	charge := f.addCharge("charge-1", status.ChargeCaptureSubmitted, 500)

	err := f.chargeDriver.Transition(context.Background(), charge, status.ChargeCaptured, events.CaptureErrored)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestChargeTransitionResolvesEventFromGraph(t *testing.T) {
	f := newServiceFixture(config.ChargesConfig{})
	charge := f.addCharge("charge-1", status.ChargeEnteringCardDetails, 500)

	if err := f.chargeDriver.Transition(context.Background(), charge, status.ChargeExpired, events.Unspecified); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.publisher.published) != 1 || f.publisher.published[0].Kind != events.PaymentExpired {
		t.Fatalf("expected PAYMENT_EXPIRED event, got %v", f.publisher.kinds())
	}
	row := f.chargeEvents.rows[0]
	if row.OldStatus == nil || *row.OldStatus != string(status.ChargeEnteringCardDetails) || row.NewStatus != string(status.ChargeExpired) {
		t.Fatalf("unexpected audit row: %+v", row)
	}
	if stored := f.charges.stored("charge-1"); stored.Status != status.ChargeExpired || stored.Version != 1 {
		t.Fatalf("expected stored EXPIRED at version 1, got %+v", stored)
	}
}

func TestChargeInternalTransitionPublishesNothing(t *testing.T) {
	f := newServiceFixture(config.ChargesConfig{})
	charge := f.addCharge("charge-1", status.ChargeEnteringCardDetails, 500)

	if err := f.chargeDriver.Transition(context.Background(), charge, status.ChargeAuthorisationReady, events.Unspecified); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.publisher.published) != 0 {
		t.Fatalf("expected no events, got %v", f.publisher.kinds())
	}
	if len(f.chargeEvents.rows) != 1 {
		t.Fatalf("expected one audit row, got %d", len(f.chargeEvents.rows))
	}
}

func TestChargeTransitionRestoresChargeOnPersistFailure(t *testing.T) {
	f := newServiceFixture(config.ChargesConfig{})
	charge := f.addCharge("charge-1", status.ChargeCaptureSubmitted, 500)
	f.charges.failUpdate = errStoreDown

	err := f.chargeDriver.Transition(context.Background(), charge, status.ChargeCaptured, events.Unspecified)
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
	if charge.Status != status.ChargeCaptureSubmitted {
		t.Fatalf("expected in-memory charge to be restored, got %s", charge.Status)
	}
	if len(f.publisher.published) != 0 {
		t.Fatalf("expected no events")
	}
}

func TestForceTransitionBypassesGraph(t *testing.T) {
	f := newServiceFixture(config.ChargesConfig{})
	charge := f.addCharge("charge-1", status.ChargeExpired, 500)

	if err := f.chargeDriver.ForceTransition(context.Background(), charge, status.ChargeCaptured); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if charge.Status != status.ChargeCaptured {
		t.Fatalf("expected CAPTURED, got %s", charge.Status)
	}
	if kinds := f.publisher.kinds(); len(kinds) != 1 || kinds[0] != events.StatusCorrectedToCapturedToMatchGatewayStatus {
		t.Fatalf("expected correction event, got %v", kinds)
	}

	err := f.chargeDriver.ForceTransition(context.Background(), charge, status.ChargeCaptureSubmitted)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestRefundTransitionRejectsSkippedStatus(t *testing.T) {
	f := newServiceFixture(config.ChargesConfig{})
	charge := f.addCharge("charge-1", status.ChargeCaptured, 500)
	refund := f.addRefund("refund-1", "charge-1", status.RefundCreated, 100, "")

	err := f.refundDriver.Transition(context.Background(), charge, refund, status.Refunded, events.RefundSucceeded)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if refund.Status != status.RefundCreated {
		t.Fatalf("expected refund to stay CREATED, got %s", refund.Status)
	}
	if len(f.notifier.issued) != 0 {
		t.Fatalf("expected no refund-issued notification")
	}
}

func TestRefundTransitionFromTerminalIsRejected(t *testing.T) {
	f := newServiceFixture(config.ChargesConfig{})
	charge := f.addCharge("charge-1", status.ChargeCaptured, 500)
	refund := f.addRefund("refund-1", "charge-1", status.Refunded, 100, "gw-1")

	err := f.refundDriver.Transition(context.Background(), charge, refund, status.RefundError, events.Unspecified)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}
