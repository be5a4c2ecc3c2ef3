package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"mpesapay/internal/checkout"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type apiMock struct{ mock.Mock }

func (m *apiMock) StkPush(ctx context.Context, phone string, amount decimal.Decimal) (json.RawMessage, error) {
	args := m.Called(ctx, phone, amount.String())
	raw, _ := args.Get(0).(string)
	return json.RawMessage(raw), args.Error(1)
}

func (m *apiMock) Query(ctx context.Context, id string) (json.RawMessage, error) {
	args := m.Called(ctx, id)
	raw, _ := args.Get(0).(string)
	return json.RawMessage(raw), args.Error(1)
}

func newTestApplication(t *testing.T, api checkout.API) http.Handler {
	t.Helper()
	app, err := newApplication(config{addr: ":0", env: "test"}, zap.NewNop().Sugar(), api)
	require.NoError(t, err)
	return app.mount()
}

func postForm(h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestPayPage(t *testing.T) {
	h := newTestApplication(t, new(apiMock))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	require.Contains(t, rr.Body.String(), `data-testid="button-pay"`)
	require.NotContains(t, rr.Body.String(), `data-testid="text-status"`)
}

func TestPayHandler_BlocksLowAmount(t *testing.T) {
	api := new(apiMock)
	h := newTestApplication(t, api)

	rr := postForm(h, "/pay", url.Values{"phone": {"254708374149"}, "amount": {"80"}})

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "Amount must be above 80 KSH")
	require.Contains(t, rr.Body.String(), `data-testid="button-pay"`)
	api.AssertNotCalled(t, "StkPush", mock.Anything, mock.Anything, mock.Anything)
}

func TestPayHandler_ShowsProviderError(t *testing.T) {
	api := new(apiMock)
	api.On("StkPush", mock.Anything, "0700000000", "100").
		Return(`{"errorCode":"400.002.02","errorMessage":"Invalid PhoneNumber"}`, nil)
	h := newTestApplication(t, api)

	rr := postForm(h, "/pay", url.Values{"phone": {"0700000000"}, "amount": {"100"}})

	body := rr.Body.String()
	require.Contains(t, body, `<p data-testid="text-status" class="status">Invalid PhoneNumber</p>`)
	require.Contains(t, body, `data-testid="button-pay"`)
	require.Contains(t, body, `value="0700000000"`)
}

func TestCheckoutJourney(t *testing.T) {
	api := new(apiMock)
	api.On("StkPush", mock.Anything, "254708374149", "100").
		Return(`{"MerchantRequestID":"m-1","CheckoutRequestID":"ws_CO_123","ResponseCode":"0"}`, nil)
	api.On("Query", mock.Anything, "ws_CO_123").
		Return(`{"ResultCode":"0","ResultDesc":"The service request is processed successfully."}`, nil)
	h := newTestApplication(t, api)

	// pay -> details
	rr := postForm(h, "/pay", url.Values{"phone": {"254708374149"}, "amount": {"100"}})
	body := rr.Body.String()
	require.Contains(t, body, `<span data-testid="text-checkout-id" class="mono">ws_CO_123</span>`)
	require.Contains(t, body, `<span data-testid="text-payment-status" class="pending">Pending</span>`)
	require.Contains(t, body, `name="verify_id" value="ws_CO_123"`)

	// details -> verify, id pre-filled
	rr = postForm(h, "/details", url.Values{
		"action": {"verify"}, "checkout_id": {"ws_CO_123"}, "verify_id": {"ws_CO_123"},
	})
	body = rr.Body.String()
	require.Contains(t, body, `data-testid="button-verify"`)
	require.Contains(t, body, `name="verify_id" type="text" class="mono" placeholder="Enter Request ID..." value="ws_CO_123"`)
	require.Less(t, strings.Index(body, `data-testid="button-verify"`), strings.Index(body, `data-testid="button-back-to-details"`),
		"verify must be the form's first submit button so Enter verifies")
	require.Contains(t, body, "Response will appear here...")

	// verify
	rr = postForm(h, "/verify", url.Values{
		"action": {"verify"}, "checkout_id": {"ws_CO_123"}, "verify_id": {"ws_CO_123"},
	})
	require.Contains(t, rr.Body.String(), "Transaction successful! The service request is processed successfully.")

	// verify -> details -> pay
	rr = postForm(h, "/verify", url.Values{"action": {"back"}, "checkout_id": {"ws_CO_123"}, "verify_id": {"ws_CO_123"}})
	require.Contains(t, rr.Body.String(), `data-testid="button-go-verify"`)
	rr = postForm(h, "/details", url.Values{"action": {"back"}, "checkout_id": {"ws_CO_123"}})
	require.Contains(t, rr.Body.String(), `data-testid="button-pay"`)

	api.AssertExpectations(t)
}

func TestVerifyHandler_OverriddenID(t *testing.T) {
	api := new(apiMock)
	api.On("Query", mock.Anything, "ws_CO_999").
		Return(`{"ResultCode":"1032","ResultDesc":"Request cancelled by user"}`, nil)
	h := newTestApplication(t, api)

	rr := postForm(h, "/verify", url.Values{
		"action": {"verify"}, "checkout_id": {"ws_CO_123"}, "verify_id": {"ws_CO_999"},
	})

	require.Contains(t, rr.Body.String(), "Request cancelled by user")
	api.AssertExpectations(t)
}

func TestWebRoutes_EscapeProviderText(t *testing.T) {
	api := new(apiMock)
	api.On("StkPush", mock.Anything, mock.Anything, mock.Anything).
		Return(`{"errorMessage":"<script>alert(1)</script>"}`, nil)
	h := newTestApplication(t, api)

	rr := postForm(h, "/pay", url.Values{"phone": {"254708374149"}, "amount": {"100"}})

	require.NotContains(t, rr.Body.String(), "<script>alert(1)</script>")
	require.Contains(t, rr.Body.String(), "&lt;script&gt;alert(1)&lt;/script&gt;")
}

func TestVerifyHandler_MissingActionVerifies(t *testing.T) {
	api := new(apiMock)
	api.On("Query", mock.Anything, "ws_CO_123").
		Return(`{"ResultCode":"0","ResultDesc":"ok"}`, nil)
	h := newTestApplication(t, api)

	rr := postForm(h, "/verify", url.Values{"checkout_id": {"ws_CO_123"}, "verify_id": {"ws_CO_123"}})

	require.Contains(t, rr.Body.String(), "Transaction successful! ok")
	require.Contains(t, rr.Body.String(), `data-testid="button-verify"`)
	api.AssertExpectations(t)
}
