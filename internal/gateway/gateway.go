package gateway

import (
	"context"
	"fmt"
)

// State is the provider payment state normalized across gateways.
// StateCompleted is the only success sentinel.
type State string

const (
	StateCompleted State = "COMPLETED"
	StatePending   State = "PENDING"
	StateFailed    State = "FAILED"
)

type CreateOrderRequest struct {
	Amount       int64 // paise
	MerchantTxID string
	UserID       string
	MobileNumber string
	RedirectURL  string
	CallbackURL  string
}

type PaymentOrder struct {
	RedirectURL     string
	ProviderOrderID string
}

type StatusResult struct {
	State         State
	TransactionID string
}

// ProviderError normalizes provider-side failures. Network errors, credential
// misconfiguration and 4xx/5xx responses all surface through this type; the
// adapter never panics across its boundary.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// Gateway is the uniform payment provider surface the checkout flow depends
// on. CheckStatus must be an idempotent read.
type Gateway interface {
	CreatePaymentOrder(ctx context.Context, req *CreateOrderRequest) (*PaymentOrder, error)
	CheckStatus(ctx context.Context, merchantTxID string) (*StatusResult, error)
	VerifyCallbackSignature(header string, payload []byte) bool
}
