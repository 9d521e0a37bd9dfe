package provider

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-connector/app/entity"
)

type OrderType string

const (
	OrderAuthorise OrderType = "authorise"
	OrderCapture   OrderType = "capture"
	OrderCancel    OrderType = "cancel"
	OrderRefund    OrderType = "refund"
)

// GatewayOrder is a rendered outbound payload. It is never persisted.
type GatewayOrder struct {
	operation   OrderType
	payload     []byte
	contentType string
}

func NewGatewayOrder(operation OrderType, payload []byte, contentType string) *GatewayOrder {
	return &GatewayOrder{
		operation:   operation,
		payload:     append([]byte(nil), payload...),
		contentType: contentType,
	}
}

func (o *GatewayOrder) Operation() OrderType { return o.operation }
func (o *GatewayOrder) ContentType() string  { return o.contentType }
func (o *GatewayOrder) Payload() []byte      { return append([]byte(nil), o.payload...) }

type GatewayResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// GatewayClient sends orders to processors and maps transport failures to
// GatewayError types.
type GatewayClient struct {
	httpClient     *http.Client
	defaultTimeout time.Duration
	logger         *logrus.Entry
}

func NewGatewayClient(httpClient *http.Client, defaultTimeout time.Duration, logger *logrus.Entry) *GatewayClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if defaultTimeout <= 0 {
		defaultTimeout = 20 * time.Second
	}
	return &GatewayClient{
		httpClient:     httpClient,
		defaultTimeout: defaultTimeout,
		logger:         logger,
	}
}

// Post sends the order to target. Non-2xx responses are returned together
// with an UnexpectedStatusCodeError so callers may still inspect the body.
func (c *GatewayClient) Post(ctx context.Context, target string, order *GatewayOrder, account *entity.GatewayAccount, header http.Header) (*GatewayResponse, error) {
	timeout := c.defaultTimeout
	if account != nil && account.TimeoutSeconds > 0 {
		timeout = time.Duration(account.TimeoutSeconds) * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(order.payload))
	if err != nil {
		return nil, &GatewayError{Type: GenericGatewayError, Message: "could not build request", Err: err}
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Content-Type", order.contentType)

	entry := c.entry(account, order)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		gwErr := classifyTransportError(ctx, err)
		entry.WithError(err).WithField("error_type", gwErr.Type).Warn("gateway_request_failed")
		return nil, gwErr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		gwErr := classifyTransportError(ctx, err)
		entry.WithError(err).Warn("gateway_response_read_failed")
		return nil, gwErr
	}

	entry.WithFields(logrus.Fields{
		"status":  resp.StatusCode,
		"latency": time.Since(start).String(),
	}).Info("gateway_request")

	result := &GatewayResponse{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return result, &GatewayError{
			Type:       UnexpectedStatusCodeError,
			Message:    "non-success response from gateway",
			StatusCode: resp.StatusCode,
		}
	}
	return result, nil
}

func (c *GatewayClient) entry(account *entity.GatewayAccount, order *GatewayOrder) *logrus.Entry {
	entry := c.logger
	if entry == nil {
		entry = logrus.NewEntry(logrus.StandardLogger())
	}
	fields := logrus.Fields{"operation": order.operation}
	if account != nil {
		fields["gateway_account_id"] = account.ID
		fields["provider"] = account.ProviderName
	}
	return entry.WithFields(fields)
}

func classifyTransportError(ctx context.Context, err error) *GatewayError {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &GatewayError{Type: GatewayTimeoutError, Message: "gateway did not answer in time", Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &GatewayError{Type: GatewayTimeoutError, Message: "gateway did not answer in time", Err: err}
	}
	return &GatewayError{Type: GatewayConnectionError, Message: "could not reach gateway", Err: err}
}
