package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type apiMock struct{ mock.Mock }

func (m *apiMock) StkPush(ctx context.Context, phone string, amount decimal.Decimal) (json.RawMessage, error) {
	args := m.Called(ctx, phone, amount.String())
	raw, _ := args.Get(0).(string)
	if raw == "" {
		return nil, args.Error(1)
	}
	return json.RawMessage(raw), args.Error(1)
}

func (m *apiMock) Query(ctx context.Context, checkoutRequestID string) (json.RawMessage, error) {
	args := m.Called(ctx, checkoutRequestID)
	raw, _ := args.Get(0).(string)
	if raw == "" {
		return nil, args.Error(1)
	}
	return json.RawMessage(raw), args.Error(1)
}

func TestTransition(t *testing.T) {
	var tests = []struct {
		from    Step
		on      Event
		want    Step
		illegal bool
	}{
		{StepPay, EventPaymentAccepted, StepDetails, false},
		{StepDetails, EventGoVerify, StepVerify, false},
		{StepDetails, EventBack, StepPay, false},
		{StepVerify, EventBack, StepDetails, false},
		{StepPay, EventBack, StepPay, true},
		{StepPay, EventGoVerify, StepPay, true},
		{StepDetails, EventPaymentAccepted, StepDetails, true},
		{StepVerify, EventGoVerify, StepVerify, true},
		{StepVerify, EventPaymentAccepted, StepVerify, true},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"/"+tt.on.String(), func(t *testing.T) {
			got, err := Transition(tt.from, tt.on)
			if tt.illegal {
				require.ErrorIs(t, err, ErrIllegalTransition)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseStep(t *testing.T) {
	require.Equal(t, StepPay, ParseStep("pay"))
	require.Equal(t, StepDetails, ParseStep("details"))
	require.Equal(t, StepVerify, ParseStep("verify"))
	require.Equal(t, StepPay, ParseStep("bogus"))
	require.Equal(t, StepVerify, ParseStep(StepVerify.String()))
}

func TestFlow_Pay(t *testing.T) {
	t.Run("amount at or below 80 is blocked", func(t *testing.T) {
		for _, amount := range []string{"80", "79.99", "0", "-5"} {
			api := new(apiMock)
			f := NewFlow(api)
			f.Phone, f.Amount = "254708374149", amount

			require.NoError(t, f.Pay(context.Background()))
			require.Equal(t, MsgAmountTooLow, f.StatusMessage, amount)
			require.Equal(t, StepPay, f.Step)
			api.AssertNotCalled(t, "StkPush", mock.Anything, mock.Anything, mock.Anything)
		}
	})

	t.Run("non-numeric amount is blocked before the api", func(t *testing.T) {
		api := new(apiMock)
		f := NewFlow(api)
		f.Phone, f.Amount = "254708374149", "abc"

		require.NoError(t, f.Pay(context.Background()))
		require.Equal(t, MsgAmountTooLow, f.StatusMessage)
		require.Equal(t, StepPay, f.Step)
		api.AssertNotCalled(t, "StkPush", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("blank fields do nothing", func(t *testing.T) {
		api := new(apiMock)
		f := NewFlow(api)
		f.Amount = "100"

		require.NoError(t, f.Pay(context.Background()))
		require.Empty(t, f.StatusMessage)
		api.AssertNotCalled(t, "StkPush", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("accepted push moves to details and seeds verify id", func(t *testing.T) {
		api := new(apiMock)
		api.On("StkPush", mock.Anything, "254708374149", "100").
			Return(`{"MerchantRequestID":"m-1","CheckoutRequestID":"ws_CO_123","ResponseCode":"0"}`, nil)
		f := NewFlow(api)
		f.Phone, f.Amount = "254708374149", "100"

		require.NoError(t, f.Pay(context.Background()))
		require.Equal(t, StepDetails, f.Step)
		require.Equal(t, "ws_CO_123", f.CheckoutRequestID)
		require.Equal(t, "ws_CO_123", f.VerifyID)
		require.Equal(t, StatusPending, f.Status)
		require.Empty(t, f.StatusMessage)
		require.False(t, f.Paying())
		api.AssertExpectations(t)
	})

	t.Run("oddly typed members do not hide the checkout id", func(t *testing.T) {
		api := new(apiMock)
		api.On("StkPush", mock.Anything, "254708374149", "100").
			Return(`{"MerchantRequestID":42,"CheckoutRequestID":"ws_CO_777","ResponseCode":0,"CustomerMessage":null}`, nil)
		f := NewFlow(api)
		f.Phone, f.Amount = "254708374149", "100"

		require.NoError(t, f.Pay(context.Background()))
		require.Equal(t, StepDetails, f.Step)
		require.Equal(t, "ws_CO_777", f.CheckoutRequestID)
		require.Equal(t, "ws_CO_777", f.VerifyID)
	})

	t.Run("provider error keeps pay step", func(t *testing.T) {
		api := new(apiMock)
		api.On("StkPush", mock.Anything, mock.Anything, mock.Anything).
			Return(`{"errorCode":"400.002.02","errorMessage":"Invalid PhoneNumber"}`, nil)
		f := NewFlow(api)
		f.Phone, f.Amount = "0700000000", "100"

		require.NoError(t, f.Pay(context.Background()))
		require.Equal(t, StepPay, f.Step)
		require.Equal(t, "Invalid PhoneNumber", f.StatusMessage)
		require.Equal(t, NoCheckoutID, f.CheckoutRequestID)
	})

	t.Run("api error field is shown", func(t *testing.T) {
		api := new(apiMock)
		api.On("StkPush", mock.Anything, mock.Anything, mock.Anything).
			Return(`{"error":"M-Pesa API credentials not configured"}`, nil)
		f := NewFlow(api)
		f.Phone, f.Amount = "254708374149", "100"

		require.NoError(t, f.Pay(context.Background()))
		require.Equal(t, "M-Pesa API credentials not configured", f.StatusMessage)
	})

	t.Run("empty response falls back to generic message", func(t *testing.T) {
		api := new(apiMock)
		api.On("StkPush", mock.Anything, mock.Anything, mock.Anything).Return(`{}`, nil)
		f := NewFlow(api)
		f.Phone, f.Amount = "254708374149", "100"

		require.NoError(t, f.Pay(context.Background()))
		require.Equal(t, MsgPaymentFailed, f.StatusMessage)
	})

	t.Run("transport error message is shown", func(t *testing.T) {
		api := new(apiMock)
		api.On("StkPush", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("connection refused"))
		f := NewFlow(api)
		f.Phone, f.Amount = "254708374149", "100"

		require.NoError(t, f.Pay(context.Background()))
		require.Equal(t, "connection refused", f.StatusMessage)
		require.Equal(t, StepPay, f.Step)
	})

	t.Run("pay outside the pay step is illegal", func(t *testing.T) {
		f := NewFlow(new(apiMock))
		f.Step = StepVerify
		require.ErrorIs(t, f.Pay(context.Background()), ErrIllegalTransition)
	})
}

// blockingAPI holds StkPush/Query open until release is closed.
type blockingAPI struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingAPI) StkPush(ctx context.Context, phone string, amount decimal.Decimal) (json.RawMessage, error) {
	b.entered <- struct{}{}
	<-b.release
	return json.RawMessage(`{"CheckoutRequestID":"ws_CO_1"}`), nil
}

func (b *blockingAPI) Query(ctx context.Context, id string) (json.RawMessage, error) {
	b.entered <- struct{}{}
	<-b.release
	return json.RawMessage(`{"ResultCode":"0"}`), nil
}

func TestFlow_RejectsConcurrentSubmissions(t *testing.T) {
	api := &blockingAPI{entered: make(chan struct{}, 1), release: make(chan struct{})}
	f := NewFlow(api)
	f.Phone, f.Amount = "254708374149", "100"

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = f.Pay(context.Background())
	}()

	<-api.entered
	require.True(t, f.Paying())
	require.ErrorIs(t, f.Pay(context.Background()), ErrBusy)

	close(api.release)
	wg.Wait()
	require.False(t, f.Paying())
	require.Equal(t, StepDetails, f.Step)
}

func TestFlow_Navigation(t *testing.T) {
	f := NewFlow(new(apiMock))
	require.ErrorIs(t, f.Fire(EventGoVerify), ErrIllegalTransition)

	f.Step = StepDetails
	require.NoError(t, f.Fire(EventGoVerify))
	require.Equal(t, StepVerify, f.Step)
	require.NoError(t, f.Fire(EventBack))
	require.Equal(t, StepDetails, f.Step)
	require.NoError(t, f.Fire(EventBack))
	require.Equal(t, StepPay, f.Step)
}

func TestFlow_Verify(t *testing.T) {
	var tests = []struct {
		name string
		resp string
		err  error
		want string
	}{
		{"string zero", `{"ResultCode":"0","ResultDesc":"The service request is processed successfully."}`, nil, "Transaction successful! The service request is processed successfully."},
		{"numeric zero", `{"ResultCode":0}`, nil, "Transaction successful!"},
		{"mixed member types", `{"ResponseCode":0,"ResultCode":"0","ResultDesc":"ok"}`, nil, "Transaction successful! ok"},
		{"numeric failure with mixed types", `{"ResponseCode":0,"ResultCode":1032,"ResultDesc":"Request cancelled by user","MerchantRequestID":7}`, nil, "Request cancelled by user"},
		{"error message beside numeric code", `{"errorCode":500,"errorMessage":"The transaction is being processed"}`, nil, "The transaction is being processed"},
		{"failure desc", `{"ResultCode":"1032","ResultDesc":"Request cancelled by user"}`, nil, "Request cancelled by user"},
		{"provider error", `{"errorCode":"500.001.1001","errorMessage":"The transaction is being processed"}`, nil, "The transaction is being processed"},
		{"unknown shape", `{"foo":"bar"}`, nil, "{\n  \"foo\": \"bar\"\n}"},
		{"transport error", "", errors.New("dial tcp: timeout"), "dial tcp: timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(apiMock)
			api.On("Query", mock.Anything, "ws_CO_123").Return(tt.resp, tt.err)
			f := NewFlow(api)
			f.Step = StepVerify
			f.VerifyID = " ws_CO_123 "

			require.NoError(t, f.Verify(context.Background()))
			require.Equal(t, tt.want, f.VerifyResult)
			require.Equal(t, StepVerify, f.Step)
		})
	}

	t.Run("blank id does nothing", func(t *testing.T) {
		api := new(apiMock)
		f := NewFlow(api)
		f.Step = StepVerify

		require.NoError(t, f.Verify(context.Background()))
		require.Equal(t, VerifyResultPending, f.VerifyResult)
		api.AssertNotCalled(t, "Query", mock.Anything, mock.Anything)
	})
}

func TestHTTPClient(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		switch r.URL.Path {
		case "/api/stk-push":
			_, _ = w.Write([]byte(`{"CheckoutRequestID":"ws_CO_123"}`))
		case "/api/query":
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"error":"Invalid response from M-Pesa API"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`404 page not found`))
		}
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL + "/")

	raw, err := c.StkPush(context.Background(), "254708374149", decimal.NewFromInt(150))
	require.NoError(t, err)
	require.JSONEq(t, `{"CheckoutRequestID":"ws_CO_123"}`, string(raw))
	require.Equal(t, "254708374149", gotBody["phoneNumber"])
	require.Equal(t, float64(150), gotBody["amount"])

	raw, err = c.Query(context.Background(), "ws_CO_123")
	require.NoError(t, err)
	require.JSONEq(t, `{"error":"Invalid response from M-Pesa API"}`, string(raw))
	require.Equal(t, "ws_CO_123", gotBody["checkoutRequestId"])
}
