package worldpay

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vibast-solutions/ms-go-connector/app/entity"
	"github.com/vibast-solutions/ms-go-connector/app/provider"
	"github.com/vibast-solutions/ms-go-connector/app/status"
)

type fakeResolver struct {
	names map[string][]string
}

func (r *fakeResolver) LookupAddr(_ context.Context, addr string) ([]string, error) {
	names, ok := r.names[addr]
	if !ok {
		return nil, errors.New("no such host")
	}
	return names, nil
}

func newTestProvider(t *testing.T, handler http.HandlerFunc) (*Provider, *entity.GatewayAccount) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := provider.NewGatewayClient(srv.Client(), time.Second, nil)
	p := New(Config{
		TestURL:            srv.URL + "/test",
		LiveURL:            srv.URL + "/live",
		NotificationDomain: ".worldpay.com",
		NotificationCIDRs:  []string{"10.0.0.0/24"},
	}, client, &fakeResolver{names: map[string][]string{
		"10.0.0.5": {"hydra-01.worldpay.com."},
		"10.0.0.6": {"evil.example.com."},
	}})
	p.now = func() time.Time { return time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC) }

	account := &entity.GatewayAccount{
		ID:           4,
		ProviderName: Name,
		Type:         entity.AccountTypeTest,
		Credentials: map[string]string{
			entity.CredentialMerchantCode: "MERCHANT<1>",
			entity.CredentialUsername:     "user",
			entity.CredentialPassword:     "secret",
		},
	}
	return p, account
}

func reply(body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE paymentService PUBLIC "-//WorldPay//DTD WorldPay PaymentService v1//EN" "http://dtd.worldpay.com/paymentService_v1.dtd">
<paymentService version="1.4" merchantCode="MERCHANT"><reply>` + body + `</reply></paymentService>`
}

func TestAuthoriseSendsEscapedOrderAndParsesAuthorised(t *testing.T) {
	var sent, path, username, password string
	p, account := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		sent = string(body)
		path = r.URL.Path
		username, password, _ = r.BasicAuth()
		_, _ = w.Write([]byte(reply(`<orderStatus orderCode="abc"><payment><lastEvent>AUTHORISED</lastEvent></payment></orderStatus>`)))
	})

	resp, err := p.Authorise(context.Background(), &provider.AuthoriseRequest{
		Account: account,
		Charge:  &entity.Charge{AmountCents: 1500, Currency: "gbp", Description: "Tea & biscuits"},
		Card:    provider.Card{Number: "4444333322221111", CVC: "123", HolderName: "Jo Bloggs", ExpiryMonth: 3, ExpiryYear: 2030},
	})
	require.NoError(t, err)

	assert.Equal(t, provider.AuthoriseAuthorised, resp.Status)
	assert.NotEmpty(t, resp.TransactionID)
	assert.Equal(t, "/test", path)
	assert.Equal(t, "user", username)
	assert.Equal(t, "secret", password)
	assert.Contains(t, sent, `merchantCode="MERCHANT&lt;1&gt;"`)
	assert.Contains(t, sent, `<description>Tea &amp; biscuits</description>`)
	assert.Contains(t, sent, `<date month="03" year="2030"/>`)
	assert.Contains(t, sent, `currencyCode="GBP" exponent="2" value="1500"`)
	assert.Contains(t, sent, `orderCode="`+resp.TransactionID+`"`)
}

func TestAuthoriseStatuses(t *testing.T) {
	cases := []struct {
		body     string
		expected provider.AuthoriseStatus
	}{
		{body: `<orderStatus orderCode="a"><payment><lastEvent>REFUSED</lastEvent></payment></orderStatus>`, expected: provider.AuthoriseRejected},
		{body: `<orderStatus orderCode="a"><payment><lastEvent>CANCELLED</lastEvent></payment></orderStatus>`, expected: provider.AuthoriseCancelled},
		{body: `<orderStatus orderCode="a"><requestInfo><request3DSecure><paRequest>x</paRequest></request3DSecure></requestInfo></orderStatus>`, expected: provider.AuthoriseRequires3DS},
		{body: `<orderStatus orderCode="a"><error code="7"><![CDATA[Invalid payment details]]></error></orderStatus>`, expected: provider.AuthoriseError},
		{body: `<orderStatus orderCode="a"></orderStatus>`, expected: provider.AuthoriseSubmitted},
	}

	for _, tc := range cases {
		p, account := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(reply(tc.body)))
		})
		resp, err := p.Authorise(context.Background(), &provider.AuthoriseRequest{
			Account: account,
			Charge:  &entity.Charge{AmountCents: 100, GatewayTransactionID: strPtr("existing-order")},
		})
		require.NoError(t, err)
		assert.Equal(t, tc.expected, resp.Status, tc.body)
		assert.Equal(t, "existing-order", resp.TransactionID)
	}
}

func TestProviderChoosesOrderCodes(t *testing.T) {
	p, _ := newTestProvider(t, func(http.ResponseWriter, *http.Request) {})

	var generator provider.TransactionIDGenerator = p
	first, second := generator.NewTransactionID(), generator.NewTransactionID()
	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}

func TestAuthoriseMalformedResponse(t *testing.T) {
	p, account := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not xml"))
	})

	_, err := p.Authorise(context.Background(), &provider.AuthoriseRequest{Account: account, Charge: &entity.Charge{}})
	gwErr := provider.AsGatewayError(err)
	require.NotNil(t, gwErr)
	assert.Equal(t, provider.MalformedResponseError, gwErr.Type)
}

func TestCaptureCancelRefund(t *testing.T) {
	var sent []string
	p, account := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		sent = append(sent, string(body))
		switch {
		case strings.Contains(string(body), "<capture>"):
			_, _ = w.Write([]byte(reply(`<ok><captureReceived orderCode="tx-1"/></ok>`)))
		case strings.Contains(string(body), "<cancel/>"):
			_, _ = w.Write([]byte(reply(`<ok><cancelReceived orderCode="tx-1"/></ok>`)))
		default:
			_, _ = w.Write([]byte(reply(`<ok><refundReceived orderCode="tx-1"/></ok>`)))
		}
	})
	charge := &entity.Charge{AmountCents: 900, GatewayTransactionID: strPtr("tx-1")}

	captured, err := p.Capture(context.Background(), &provider.ModificationRequest{Account: account, Charge: charge})
	require.NoError(t, err)
	assert.Equal(t, provider.ModificationPending, captured.Status)
	assert.Contains(t, sent[0], `<date dayOfMonth="7" month="03" year="2024"/>`)

	cancelled, err := p.Cancel(context.Background(), &provider.ModificationRequest{Account: account, Charge: charge})
	require.NoError(t, err)
	assert.Equal(t, provider.ModificationComplete, cancelled.Status)

	refunded, err := p.Refund(context.Background(), &provider.RefundRequest{
		Account: account,
		Charge:  charge,
		Refund:  &entity.Refund{ExternalID: "refund-1", AmountCents: 400},
	})
	require.NoError(t, err)
	assert.Equal(t, provider.ModificationPending, refunded.Status)
	assert.Equal(t, "refund-1", refunded.Reference)
	assert.Contains(t, sent[2], `<refund reference="refund-1">`)
	assert.Contains(t, sent[2], `value="400"`)
}

func TestModificationErrorReply(t *testing.T) {
	p, account := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(reply(`<error code="5"><![CDATA[Order has already been captured]]></error>`)))
	})

	_, err := p.Capture(context.Background(), &provider.ModificationRequest{Account: account, Charge: &entity.Charge{GatewayTransactionID: strPtr("tx")}})
	gwErr := provider.AsGatewayError(err)
	require.NotNil(t, gwErr)
	assert.Equal(t, provider.GenericGatewayError, gwErr.Type)
	assert.Contains(t, gwErr.Error(), "already been captured")
}

const refundNotification = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE paymentService PUBLIC "-//WorldPay//DTD WorldPay PaymentService v1//EN" "http://dtd.worldpay.com/paymentService_v1.dtd">
<paymentService version="1.4" merchantCode="MERCHANTCODE">
  <notify>
    <orderStatusEvent orderCode="transaction-id">
      <payment>
        <paymentMethod>VISA-SSL</paymentMethod>
        <lastEvent>REFUNDED</lastEvent>
      </payment>
      <journal journalType="REFUNDED">
        <bookingDate>
          <date dayOfMonth="10" month="01" year="2017"/>
        </bookingDate>
        <journalReference type="refund" reference="refund-ref"/>
      </journal>
    </orderStatusEvent>
  </notify>
</paymentService>`

func TestParseNotification(t *testing.T) {
	p, _ := newTestProvider(t, func(http.ResponseWriter, *http.Request) {})

	notifications, err := p.ParseNotification(&provider.NotificationPayload{Body: []byte(refundNotification)})
	require.NoError(t, err)
	require.Len(t, notifications, 1)

	n := notifications[0]
	assert.Equal(t, "transaction-id", n.TransactionID)
	assert.Equal(t, "REFUNDED", n.StatusCode)
	assert.Equal(t, "refund-ref", n.Reference)
	require.NotNil(t, n.EventDate)
	assert.Equal(t, time.Date(2017, 1, 10, 0, 0, 0, 0, time.UTC), *n.EventDate)

	interpreted := p.StatusMapper().From(n.StatusCode, status.ChargeCaptured)
	assert.True(t, interpreted.IsRefund())
	assert.Equal(t, status.Refunded, interpreted.RefundStatus)
}

func TestParseNotificationMalformed(t *testing.T) {
	p, _ := newTestProvider(t, func(http.ResponseWriter, *http.Request) {})

	_, err := p.ParseNotification(&provider.NotificationPayload{Body: []byte("<paymentService><notify></notify></paymentService>")})
	assert.Error(t, err)
	_, err = p.ParseNotification(&provider.NotificationPayload{Body: []byte("{]")})
	assert.Error(t, err)
	assert.True(t, p.AcknowledgeMalformedNotifications())
}

func TestVerifyNotification(t *testing.T) {
	p, account := newTestProvider(t, func(http.ResponseWriter, *http.Request) {})
	notification := func(ip string) *provider.Notification {
		return &provider.Notification{Payload: &provider.NotificationPayload{RemoteIP: ip}}
	}

	assert.True(t, p.VerifyNotification(context.Background(), notification("10.0.0.5"), account))
	assert.False(t, p.VerifyNotification(context.Background(), notification("10.0.0.6"), account), "wrong domain")
	assert.False(t, p.VerifyNotification(context.Background(), notification("10.0.1.5"), account), "outside range")
	assert.False(t, p.VerifyNotification(context.Background(), notification("not-an-ip"), account))

	account.NotificationCIDRs = []string{"192.168.0.0/16"}
	assert.False(t, p.VerifyNotification(context.Background(), notification("10.0.0.5"), account), "account ranges replace defaults")
}

func TestStatusMapper(t *testing.T) {
	p, _ := newTestProvider(t, func(http.ResponseWriter, *http.Request) {})
	mapper := p.StatusMapper()

	assert.Equal(t, status.ChargeCaptured, mapper.From("CAPTURED", status.ChargeCaptureSubmitted).ChargeStatus)
	assert.Equal(t, status.RefundError, mapper.From("REFUND_FAILED", status.ChargeCaptured).RefundStatus)
	assert.True(t, mapper.From("AUTHORISED", status.ChargeAuthorisationSuccess).IsIgnored())
	assert.True(t, mapper.From("CHARGED_BACK", status.ChargeCaptured).IsUnknown())
}

func strPtr(v string) *string {
	return &v
}
