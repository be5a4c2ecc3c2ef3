package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"mpesapay/internal/payments"

	"github.com/shopspring/decimal"
)

// API is the backend the form talks to.
type API interface {
	StkPush(ctx context.Context, phone string, amount decimal.Decimal) (json.RawMessage, error)
	Query(ctx context.Context, checkoutRequestID string) (json.RawMessage, error)
}

// HTTPClient calls the payment API over HTTP.
type HTTPClient struct {
	BaseURL    string
	httpClient *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
}

func (c *HTTPClient) StkPush(ctx context.Context, phone string, amount decimal.Decimal) (json.RawMessage, error) {
	// decimal marshals to a quoted string; the API contract is a number.
	return c.post(ctx, "/api/stk-push", map[string]any{
		"phoneNumber": phone,
		"amount":      json.Number(amount.String()),
	})
}

func (c *HTTPClient) Query(ctx context.Context, checkoutRequestID string) (json.RawMessage, error) {
	return c.post(ctx, "/api/query", payments.QueryRequest{CheckoutRequestID: checkoutRequestID})
}

// post returns the response body for any status; the form reads error
// fields out of it.
func (c *HTTPClient) post(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("unexpected response from %s (http %d)", path, resp.StatusCode)
	}
	return json.RawMessage(raw), nil
}
