package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-connector/app/entity"
	"github.com/vibast-solutions/ms-go-connector/app/provider"
)

type webhookEvent struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

func (p *Provider) ParseNotification(payload *provider.NotificationPayload) ([]*provider.Notification, error) {
	if payload == nil || len(payload.Body) == 0 {
		return nil, errors.New("empty stripe notification")
	}

	var event webhookEvent
	if err := json.Unmarshal(payload.Body, &event); err != nil {
		return nil, fmt.Errorf("decode stripe notification: %w", err)
	}
	if strings.TrimSpace(event.Type) == "" {
		return nil, errors.New("stripe notification has no type")
	}

	var object struct {
		ID            string `json:"id"`
		Object        string `json:"object"`
		Status        string `json:"status"`
		PaymentIntent string `json:"payment_intent"`
	}
	if err := json.Unmarshal(event.Data.Object, &object); err != nil {
		return nil, fmt.Errorf("decode stripe notification object: %w", err)
	}

	notification := &provider.Notification{
		TransactionID: object.ID,
		StatusCode:    event.Type,
		Payload:       payload,
	}
	if object.Object == "refund" {
		notification.TransactionID = object.PaymentIntent
		notification.Reference = object.ID
		notification.StatusCode = refundCode(object.Status)
	}
	if notification.TransactionID == "" {
		return nil, errors.New("stripe notification has no payment intent")
	}
	if event.Created > 0 {
		created := time.Unix(event.Created, 0).UTC()
		notification.EventDate = &created
	}

	return []*provider.Notification{notification}, nil
}

// VerifyNotification accepts a signature made with either webhook secret so
// secrets can be rotated without dropping events.
func (p *Provider) VerifyNotification(_ context.Context, notification *provider.Notification, account *entity.GatewayAccount) bool {
	if notification == nil || notification.Payload == nil || account == nil {
		return false
	}
	now := p.now()
	for _, key := range []string{entity.CredentialWebhookSecretPrimary, entity.CredentialWebhookSecretSecondary} {
		secret := account.Credential(key)
		if secret == "" {
			continue
		}
		if verifySignature(notification.Payload.Body, notification.Payload.Signature, secret, p.tolerance, now) {
			return true
		}
	}
	return false
}

// SignatureHeader names the header the ingress copies into
// NotificationPayload.Signature.
func (p *Provider) SignatureHeader() string {
	return signatureHeader
}
