// Package types holds the request and response messages shared by the HTTP
// and gRPC surfaces.
package types

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthRequest struct{}

type HealthResponse struct {
	Status string `json:"status"`
}

type RefundRequest struct {
	AccountId             uint64 `json:"account_id"`
	ChargeId              string `json:"charge_id"`
	Amount                int64  `json:"amount"`
	RefundAmountAvailable int64  `json:"refund_amount_available"`
	UserExternalId        string `json:"user_external_id,omitempty"`
	UserEmail             string `json:"user_email,omitempty"`
}

type ChargeRequest struct {
	AccountId uint64 `json:"account_id"`
	ChargeId  string `json:"charge_id"`
}

// CancelRequest carries who asked for the cancellation: "user" or
// "service". An empty initiator means the service.
type CancelRequest struct {
	AccountId uint64 `json:"account_id"`
	ChargeId  string `json:"charge_id"`
	Initiator string `json:"initiator,omitempty"`
}

type AuthoriseRequest struct {
	ChargeId       string `json:"charge_id"`
	CardNumber     string `json:"card_number"`
	Cvc            string `json:"cvc"`
	CardholderName string `json:"cardholder_name"`
	// ExpiryDate is MM/YY.
	ExpiryDate string `json:"expiry_date"`
}

type Refund struct {
	RefundId             string `json:"refund_id"`
	ChargeId             string `json:"charge_id"`
	Amount               int64  `json:"amount"`
	Status               string `json:"status"`
	GatewayTransactionId string `json:"gateway_transaction_id,omitempty"`
	UserExternalId       string `json:"user_external_id,omitempty"`
	CreatedDate          string `json:"created_date"`
}

type RefundResponse struct {
	Refund *Refund `json:"refund"`
}

type ListRefundsResponse struct {
	ChargeId        string    `json:"charge_id"`
	AmountAvailable int64     `json:"amount_available"`
	AmountRefunded  int64     `json:"amount_refunded"`
	Refunds         []*Refund `json:"refunds"`
}

type ChargeState struct {
	Status   string `json:"status"`
	Finished bool   `json:"finished"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message,omitempty"`
}

type Charge struct {
	ChargeId             string       `json:"charge_id"`
	Amount               int64        `json:"amount"`
	Currency             string       `json:"currency"`
	Reference            string       `json:"reference"`
	Description          string       `json:"description"`
	Status               string       `json:"status"`
	State                *ChargeState `json:"state"`
	GatewayTransactionId string       `json:"gateway_transaction_id,omitempty"`
	CreatedDate          string       `json:"created_date"`
}

type ChargeResponse struct {
	Charge *Charge `json:"charge"`
}
