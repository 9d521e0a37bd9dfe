package epdq

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-connector/app/entity"
	"github.com/vibast-solutions/ms-go-connector/app/provider"
)

const trxDateLayout = "01/02/06"

func (p *Provider) ParseNotification(payload *provider.NotificationPayload) ([]*provider.Notification, error) {
	if payload == nil || len(payload.Body) == 0 {
		return nil, errors.New("empty epdq notification")
	}

	values, err := url.ParseQuery(string(payload.Body))
	if err != nil {
		return nil, fmt.Errorf("decode epdq notification: %w", err)
	}
	fields := upperKeys(values)

	payID := fields["PAYID"]
	if payID == "" {
		return nil, errors.New("epdq notification has no PAYID")
	}
	statusCode := fields["STATUS"]
	if statusCode == "" {
		return nil, errors.New("epdq notification has no STATUS")
	}

	notification := &provider.Notification{
		TransactionID: payID,
		StatusCode:    statusCode,
		Payload:       payload,
	}
	if sub := fields["PAYIDSUB"]; sub != "" {
		notification.Reference = payID + "/" + sub
	}
	if raw := fields["TRXDATE"]; raw != "" {
		if date, err := time.Parse(trxDateLayout, raw); err == nil {
			notification.EventDate = &date
		}
	}

	return []*provider.Notification{notification}, nil
}

// VerifyNotification recomputes SHASIGN over every other field with the
// account's SHA-OUT passphrase.
func (p *Provider) VerifyNotification(_ context.Context, notification *provider.Notification, account *entity.GatewayAccount) bool {
	if notification == nil || notification.Payload == nil || account == nil {
		return false
	}
	passphrase := account.Credential(entity.CredentialShaOutPassphrase)
	if passphrase == "" {
		return false
	}

	values, err := url.ParseQuery(string(notification.Payload.Body))
	if err != nil {
		return false
	}

	var signature string
	params := make([]Param, 0, len(values))
	for name, vals := range values {
		if len(vals) == 0 {
			continue
		}
		if strings.EqualFold(name, signatureField) {
			signature = vals[0]
			continue
		}
		params = append(params, Param{Name: name, Value: vals[0]})
	}

	return Verify(normalise(params), passphrase, signature)
}

func upperKeys(values url.Values) map[string]string {
	fields := make(map[string]string, len(values))
	for name, vals := range values {
		if len(vals) > 0 {
			fields[strings.ToUpper(name)] = strings.TrimSpace(vals[0])
		}
	}
	return fields
}
