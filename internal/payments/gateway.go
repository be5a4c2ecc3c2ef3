package payments

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	// ErrAuth means no access token could be obtained from the provider.
	ErrAuth = errors.New("mpesa auth failed")
	// ErrInvalidResponse means the provider answered with a body that is not JSON.
	ErrInvalidResponse = errors.New("invalid response from M-Pesa API")
)

// PaymentGateway is the provider surface the handlers depend on. Responses
// are returned exactly as the provider sent them.
type PaymentGateway interface {
	InitiatePayment(ctx context.Context, req PaymentRequest) (json.RawMessage, error)
	QueryPayment(ctx context.Context, checkoutRequestID string) (json.RawMessage, error)
}
