package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEveryChargeStatusHasExternalStatus(t *testing.T) {
	for _, s := range AllChargeStatuses() {
		assert.NotEmpty(t, s.External().Value, "%s", s)
	}
	assert.Len(t, AllChargeStatuses(), 34)
}

func TestExternalChargeStatusCodes(t *testing.T) {
	assert.Equal(t, "P0010", ChargeAuthorisationRejected.External().Code)
	assert.Equal(t, "P0020", ChargeExpired.External().Code)
	assert.Equal(t, "P0030", ChargeUserCancelled.External().Code)
	assert.Equal(t, "P0040", ChargeSystemCancelled.External().Code)
	assert.Equal(t, "P0050", ChargeCaptureError.External().Code)

	assert.Equal(t, "success", ChargeCaptureSubmitted.External().Value)
	assert.True(t, ChargeCaptureSubmitted.External().Finished)
	assert.Equal(t, "capturable", ChargeAwaitingCaptureRequest.External().Value)
	assert.False(t, ChargeAwaitingCaptureRequest.External().Finished)
}

func TestRefundExternalStatus(t *testing.T) {
	assert.Equal(t, ExternalRefundSubmitted, RefundCreated.External())
	assert.Equal(t, ExternalRefundSubmitted, RefundSubmitted.External())
	assert.Equal(t, ExternalRefundSuccess, Refunded.External())
	assert.Equal(t, ExternalRefundError, RefundError.External())
}

func TestParseStatuses(t *testing.T) {
	s, ok := ParseChargeStatus("CAPTURE_SUBMITTED")
	assert.True(t, ok)
	assert.Equal(t, ChargeCaptureSubmitted, s)

	_, ok = ParseChargeStatus("SETTLED")
	assert.False(t, ok)

	r, ok := ParseRefundStatus("REFUNDED")
	assert.True(t, ok)
	assert.Equal(t, Refunded, r)

	_, ok = ParseRefundStatus("PENDING")
	assert.False(t, ok)
}
