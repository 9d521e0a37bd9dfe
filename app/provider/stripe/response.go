package stripe

import (
	"encoding/json"
	"strings"

	"github.com/vibast-solutions/ms-go-connector/app/provider"
)

type apiError struct {
	Type          string `json:"type"`
	Code          string `json:"code"`
	DeclineCode   string `json:"decline_code"`
	Message       string `json:"message"`
	PaymentIntent *struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"payment_intent"`

	// statusCode is the HTTP status of the response that carried the error.
	statusCode int
}

type errorEnvelope struct {
	Error *apiError `json:"error"`
}

type paymentIntent struct {
	ID               string    `json:"id"`
	Object           string    `json:"object"`
	Status           string    `json:"status"`
	LastPaymentError *apiError `json:"last_payment_error"`
}

type refundObject struct {
	ID            string `json:"id"`
	Object        string `json:"object"`
	Status        string `json:"status"`
	PaymentIntent string `json:"payment_intent"`
	FailureReason string `json:"failure_reason"`
}

func decodeError(statusCode int, body []byte) *apiError {
	var envelope errorEnvelope
	if json.Unmarshal(body, &envelope) != nil || envelope.Error == nil {
		return nil
	}
	envelope.Error.statusCode = statusCode
	return envelope.Error
}

func (e *apiError) code() string {
	if e.DeclineCode != "" {
		return e.DeclineCode
	}
	return e.Code
}

func (e *apiError) gatewayError() *provider.GatewayError {
	return &provider.GatewayError{
		Type:       provider.GenericGatewayError,
		Message:    strings.TrimSpace(e.Type + " " + e.code() + ": " + e.Message),
		StatusCode: e.statusCode,
	}
}

func (pi *paymentIntent) authoriseStatus() provider.AuthoriseStatus {
	switch pi.Status {
	case "requires_capture", "succeeded":
		return provider.AuthoriseAuthorised
	case "requires_action", "requires_source_action":
		return provider.AuthoriseRequires3DS
	case "processing":
		return provider.AuthoriseSubmitted
	case "canceled":
		return provider.AuthoriseCancelled
	case "requires_payment_method":
		return provider.AuthoriseRejected
	default:
		return provider.AuthoriseError
	}
}
