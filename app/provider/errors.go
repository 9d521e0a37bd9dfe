package provider

import (
	"context"
	"errors"
	"fmt"
)

type GatewayErrorType string

const (
	GenericGatewayError       GatewayErrorType = "GENERIC_GATEWAY_ERROR"
	GatewayTimeoutError       GatewayErrorType = "GATEWAY_CONNECTION_TIMEOUT_ERROR"
	GatewayConnectionError    GatewayErrorType = "GATEWAY_CONNECTION_ERROR"
	MalformedResponseError    GatewayErrorType = "MALFORMED_RESPONSE_RECEIVED_FROM_GATEWAY"
	UnexpectedStatusCodeError GatewayErrorType = "GATEWAY_UNEXPECTED_STATUS_CODE"
)

// GatewayError is the only error type providers return for failed
// operations.
type GatewayError struct {
	Type       GatewayErrorType
	Message    string
	StatusCode int
	Err        error
}

func (e *GatewayError) Error() string {
	msg := string(e.Type)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

func NewGatewayError(errType GatewayErrorType, format string, args ...interface{}) *GatewayError {
	return &GatewayError{Type: errType, Message: fmt.Sprintf(format, args...)}
}

func MalformedResponse(err error) *GatewayError {
	return &GatewayError{Type: MalformedResponseError, Message: "could not parse gateway response", Err: err}
}

// AsGatewayError returns err as a *GatewayError. An expired deadline becomes
// a timeout; anything else is wrapped as a generic gateway error.
func AsGatewayError(err error) *GatewayError {
	if err == nil {
		return nil
	}
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &GatewayError{Type: GatewayTimeoutError, Err: err}
	}
	return &GatewayError{Type: GenericGatewayError, Err: err}
}

func IsTimeout(err error) bool {
	var gwErr *GatewayError
	return errors.As(err, &gwErr) && gwErr.Type == GatewayTimeoutError
}
