package epdq

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/vibast-solutions/ms-go-connector/app/entity"
	"github.com/vibast-solutions/ms-go-connector/app/provider"
)

const (
	contentType = "application/x-www-form-urlencoded"

	newOrderPath         = "/orderdirect.asp"
	maintenanceOrderPath = "/maintenancedirect.asp"

	operationAuthorise = "RES"
	operationCapture   = "SAS"
	operationCancel    = "DES"
	operationRefund    = "RFD"
)

// orderBuilder collects the form fields of one request.
type orderBuilder struct {
	params []Param
}

func newOrderBuilder(account *entity.GatewayAccount) *orderBuilder {
	b := &orderBuilder{}
	return b.
		add("PSPID", account.Credential(entity.CredentialMerchantCode)).
		add("USERID", account.Credential(entity.CredentialUsername)).
		add("PSWD", account.Credential(entity.CredentialPassword))
}

func (b *orderBuilder) add(name, value string) *orderBuilder {
	b.params = append(b.params, Param{Name: name, Value: value})
	return b
}

// build orders the fields alphabetically, signs them with passphrase and
// appends the signature.
func (b *orderBuilder) build(operation provider.OrderType, passphrase string) *provider.GatewayOrder {
	params := normalise(b.params)
	signature := Sign(params, passphrase)

	pairs := make([]string, 0, len(params)+1)
	for _, p := range params {
		pairs = append(pairs, url.QueryEscape(p.Name)+"="+url.QueryEscape(p.Value))
	}
	pairs = append(pairs, signatureField+"="+signature)

	return provider.NewGatewayOrder(operation, []byte(strings.Join(pairs, "&")), contentType)
}

func authoriseOrder(account *entity.GatewayAccount, charge *entity.Charge, card provider.Card) *provider.GatewayOrder {
	return newOrderBuilder(account).
		add("ORDERID", charge.ExternalID).
		add("AMOUNT", strconv.FormatInt(charge.AmountCents, 10)).
		add("CURRENCY", currency(charge)).
		add("OPERATION", operationAuthorise).
		add("CARDNO", card.Number).
		add("ED", expiryDate(card)).
		add("CVC", card.CVC).
		add("CN", card.HolderName).
		build(provider.OrderAuthorise, account.Credential(entity.CredentialShaInPassphrase))
}

func captureOrder(account *entity.GatewayAccount, charge *entity.Charge) *provider.GatewayOrder {
	return newOrderBuilder(account).
		add("PAYID", charge.TransactionID()).
		add("OPERATION", operationCapture).
		build(provider.OrderCapture, account.Credential(entity.CredentialShaInPassphrase))
}

func cancelOrder(account *entity.GatewayAccount, charge *entity.Charge) *provider.GatewayOrder {
	return newOrderBuilder(account).
		add("PAYID", charge.TransactionID()).
		add("OPERATION", operationCancel).
		build(provider.OrderCancel, account.Credential(entity.CredentialShaInPassphrase))
}

func refundOrder(account *entity.GatewayAccount, charge *entity.Charge, refund *entity.Refund) *provider.GatewayOrder {
	return newOrderBuilder(account).
		add("PAYID", charge.TransactionID()).
		add("AMOUNT", strconv.FormatInt(refund.AmountCents, 10)).
		add("OPERATION", operationRefund).
		build(provider.OrderRefund, account.Credential(entity.CredentialShaInPassphrase))
}

func expiryDate(card provider.Card) string {
	if card.ExpiryMonth == 0 {
		return ""
	}
	return fmt.Sprintf("%02d/%02d", card.ExpiryMonth, card.ExpiryYear%100)
}

func currency(charge *entity.Charge) string {
	if charge.Currency == "" {
		return "GBP"
	}
	return strings.ToUpper(charge.Currency)
}
