package types

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	CancelInitiatorUser    = "user"
	CancelInitiatorService = "service"
)

func NewRefundRequestFromContext(ctx echo.Context) (*RefundRequest, error) {
	accountID, err := parseAccountID(ctx)
	if err != nil {
		return nil, err
	}

	var body RefundRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.AccountId = accountID
	body.ChargeId = strings.TrimSpace(ctx.Param("chargeId"))
	body.UserExternalId = strings.TrimSpace(body.UserExternalId)
	body.UserEmail = strings.TrimSpace(body.UserEmail)

	return &body, nil
}

func (r *RefundRequest) Validate() error {
	if r.AccountId == 0 {
		return errors.New("invalid account id")
	}
	if strings.TrimSpace(r.ChargeId) == "" {
		return errors.New("charge_id is required")
	}
	if r.Amount <= 0 {
		return errors.New("amount must be > 0")
	}
	if r.RefundAmountAvailable < 0 {
		return errors.New("refund_amount_available must be >= 0")
	}
	return nil
}

func NewChargeRequestFromContext(ctx echo.Context) (*ChargeRequest, error) {
	accountID, err := parseAccountID(ctx)
	if err != nil {
		return nil, err
	}
	return &ChargeRequest{AccountId: accountID, ChargeId: strings.TrimSpace(ctx.Param("chargeId"))}, nil
}

func (r *ChargeRequest) Validate() error {
	if r.AccountId == 0 {
		return errors.New("invalid account id")
	}
	if strings.TrimSpace(r.ChargeId) == "" {
		return errors.New("charge_id is required")
	}
	return nil
}

func NewCancelRequestFromContext(ctx echo.Context) (*CancelRequest, error) {
	accountID, err := parseAccountID(ctx)
	if err != nil {
		return nil, err
	}

	var body CancelRequest
	if err := ctx.Bind(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	body.AccountId = accountID
	body.ChargeId = strings.TrimSpace(ctx.Param("chargeId"))
	body.Initiator = strings.ToLower(strings.TrimSpace(body.Initiator))

	return &body, nil
}

func (r *CancelRequest) Validate() error {
	if r.AccountId == 0 {
		return errors.New("invalid account id")
	}
	if strings.TrimSpace(r.ChargeId) == "" {
		return errors.New("charge_id is required")
	}
	switch r.Initiator {
	case "", CancelInitiatorUser, CancelInitiatorService:
		return nil
	default:
		return errors.New("initiator must be user or service")
	}
}

func NewAuthoriseRequestFromContext(ctx echo.Context) (*AuthoriseRequest, error) {
	var body AuthoriseRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.ChargeId = strings.TrimSpace(ctx.Param("chargeId"))
	body.CardNumber = strings.ReplaceAll(strings.TrimSpace(body.CardNumber), " ", "")
	body.Cvc = strings.TrimSpace(body.Cvc)
	body.CardholderName = strings.TrimSpace(body.CardholderName)
	body.ExpiryDate = strings.TrimSpace(body.ExpiryDate)

	return &body, nil
}

func (r *AuthoriseRequest) Validate() error {
	if strings.TrimSpace(r.ChargeId) == "" {
		return errors.New("charge_id is required")
	}
	if len(r.CardNumber) < 12 || len(r.CardNumber) > 19 || !isDigits(r.CardNumber) {
		return errors.New("card_number must be 12 to 19 digits")
	}
	if len(r.Cvc) < 3 || len(r.Cvc) > 4 || !isDigits(r.Cvc) {
		return errors.New("cvc must be 3 or 4 digits")
	}
	if strings.TrimSpace(r.CardholderName) == "" {
		return errors.New("cardholder_name is required")
	}
	if _, _, err := r.Expiry(); err != nil {
		return err
	}
	return nil
}

// Expiry returns the expiry month and four-digit year.
func (r *AuthoriseRequest) Expiry() (int, int, error) {
	expiry, err := time.Parse("01/06", r.ExpiryDate)
	if err != nil {
		return 0, 0, errors.New("expiry_date must be MM/YY")
	}
	return int(expiry.Month()), expiry.Year(), nil
}

// NotificationRequest is an inbound processor notification as received.
type NotificationRequest struct {
	Provider    string
	Body        []byte
	ContentType string
	Signature   string
	RemoteIP    string
}

// NewNotificationRequestFromContext reads the raw body. signatureHeader
// names the header carrying the processor's signature, if any.
func NewNotificationRequestFromContext(ctx echo.Context, signatureHeader string) (*NotificationRequest, error) {
	body, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return nil, err
	}

	req := &NotificationRequest{
		Provider:    strings.ToLower(strings.TrimSpace(ctx.Param("provider"))),
		Body:        body,
		ContentType: ctx.Request().Header.Get(echo.HeaderContentType),
		RemoteIP:    ctx.RealIP(),
	}
	if signatureHeader != "" {
		req.Signature = strings.TrimSpace(ctx.Request().Header.Get(signatureHeader))
	}
	return req, nil
}

func (r *NotificationRequest) Validate() error {
	if r.Provider == "" {
		return errors.New("provider is required")
	}
	if len(r.Body) == 0 {
		return errors.New("payload is required")
	}
	return nil
}

func parseAccountID(ctx echo.Context) (uint64, error) {
	return strconv.ParseUint(strings.TrimSpace(ctx.Param("accountId")), 10, 64)
}

func isDigits(v string) bool {
	for _, r := range v {
		if r < '0' || r > '9' {
			return false
		}
	}
	return v != ""
}
