package worldpay

import (
	"bytes"
	"encoding/xml"
	"strings"

	"github.com/vibast-solutions/ms-go-connector/app/provider"
)

type replyError struct {
	Code    string `xml:"code,attr"`
	Message string `xml:",chardata"`
}

type received struct {
	OrderCode string `xml:"orderCode,attr"`
}

type replyEnvelope struct {
	XMLName xml.Name `xml:"paymentService"`
	Reply   struct {
		Error       *replyError `xml:"error"`
		OrderStatus *struct {
			OrderCode string      `xml:"orderCode,attr"`
			Error     *replyError `xml:"error"`
			Payment   *struct {
				LastEvent string `xml:"lastEvent"`
			} `xml:"payment"`
			RequestInfo *struct {
				Request3DSecure *struct {
					PaRequest string `xml:"paRequest"`
					IssuerURL string `xml:"issuerURL"`
				} `xml:"request3DSecure"`
			} `xml:"requestInfo"`
		} `xml:"orderStatus"`
		OK *struct {
			CaptureReceived *received `xml:"captureReceived"`
			CancelReceived  *received `xml:"cancelReceived"`
			RefundReceived  *received `xml:"refundReceived"`
		} `xml:"ok"`
	} `xml:"reply"`
}

func decodeReply(body []byte) (*replyEnvelope, error) {
	var envelope replyEnvelope
	if err := xml.NewDecoder(bytes.NewReader(body)).Decode(&envelope); err != nil {
		return nil, err
	}
	return &envelope, nil
}

func (r *replyEnvelope) err() *replyError {
	if r.Reply.Error != nil {
		return r.Reply.Error
	}
	if r.Reply.OrderStatus != nil && r.Reply.OrderStatus.Error != nil {
		return r.Reply.OrderStatus.Error
	}
	return nil
}

func (r *replyEnvelope) lastEvent() string {
	if r.Reply.OrderStatus == nil || r.Reply.OrderStatus.Payment == nil {
		return ""
	}
	return strings.TrimSpace(r.Reply.OrderStatus.Payment.LastEvent)
}

func (r *replyEnvelope) requires3DS() bool {
	st := r.Reply.OrderStatus
	return st != nil && st.RequestInfo != nil && st.RequestInfo.Request3DSecure != nil
}

func (r *replyEnvelope) authoriseStatus() provider.AuthoriseStatus {
	if r.err() != nil {
		return provider.AuthoriseError
	}
	if r.requires3DS() {
		return provider.AuthoriseRequires3DS
	}
	switch r.lastEvent() {
	case "AUTHORISED":
		return provider.AuthoriseAuthorised
	case "REFUSED":
		return provider.AuthoriseRejected
	case "CANCELLED":
		return provider.AuthoriseCancelled
	case "":
		return provider.AuthoriseSubmitted
	default:
		return provider.AuthoriseError
	}
}

func gatewayErrorFrom(e *replyError) *provider.GatewayError {
	return provider.NewGatewayError(provider.GenericGatewayError, "worldpay error %s: %s", e.Code, strings.TrimSpace(e.Message))
}
