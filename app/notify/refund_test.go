package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vibast-solutions/ms-go-connector/app/entity"
	"github.com/vibast-solutions/ms-go-connector/app/status"
)

func testRefund() (*entity.Charge, *entity.Refund) {
	email := "payer@example.com"
	charge := &entity.Charge{ExternalID: "charge-1", GatewayAccountID: 7, Currency: "GBP", Reference: "ref", Description: "licence"}
	refund := &entity.Refund{
		ExternalID:  "refund-1",
		AmountCents: 500,
		Status:      status.Refunded,
		UserEmail:   &email,
		UpdatedAt:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	return charge, refund
}

func TestRefundIssuedPostsMessage(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "refund-1", r.Header.Get("X-Request-ID"))
		assert.Equal(t, "key", r.Header.Get("X-API-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	charge, refund := testRefund()
	require.NoError(t, NewRefundNotifier(srv.URL, "key", time.Second).RefundIssued(context.Background(), charge, refund))

	assert.Equal(t, "charge-1", received["charge_external_id"])
	assert.Equal(t, "refund-1", received["refund_external_id"])
	assert.Equal(t, float64(500), received["amount"])
	assert.Equal(t, "payer@example.com", received["user_email"])
}

func TestRefundIssuedReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	charge, refund := testRefund()
	err := NewRefundNotifier(srv.URL, "", time.Second).RefundIssued(context.Background(), charge, refund)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=500")
}

func TestRefundIssuedWithoutURLIsNoop(t *testing.T) {
	charge, refund := testRefund()
	assert.NoError(t, NewRefundNotifier("", "", 0).RefundIssued(context.Background(), charge, refund))
}
