package payments

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	sandboxURL    = "https://sandbox.safaricom.co.ke"
	productionURL = "https://api.safaricom.co.ke"

	DefaultShortcode        = "174379"
	DefaultCallbackURL      = "https://example.com/callback"
	DefaultAccountReference = "CourtneyTech"
	DefaultTransactionDesc  = "Payment"

	transactionType = "CustomerPayBillOnline"
	timestampLayout = "20060102150405"
)

type MpesaConfig struct {
	Env              string // "production" selects the live API
	ConsumerKey      string
	ConsumerSecret   string
	Shortcode        string
	Passkey          string
	CallbackURL      string
	AccountReference string
	TransactionDesc  string
	// BaseURL overrides the environment's URL. Used against fakes.
	BaseURL string
}

func (c MpesaConfig) IsProduction() bool {
	return c.Env == "production"
}

func (c MpesaConfig) baseURL() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	if c.IsProduction() {
		return productionURL
	}
	return sandboxURL
}

// MpesaAdapter talks to the Daraja API. It holds no state between calls:
// every operation fetches a fresh token.
type MpesaAdapter struct {
	cfg        MpesaConfig
	httpClient *http.Client
	logger     *zap.SugaredLogger
	now        func() time.Time
}

func NewMpesaAdapter(cfg MpesaConfig, logger *zap.SugaredLogger) *MpesaAdapter {
	if cfg.Shortcode == "" {
		cfg.Shortcode = DefaultShortcode
	}
	if cfg.CallbackURL == "" {
		cfg.CallbackURL = DefaultCallbackURL
	}
	if cfg.AccountReference == "" {
		cfg.AccountReference = DefaultAccountReference
	}
	if cfg.TransactionDesc == "" {
		cfg.TransactionDesc = DefaultTransactionDesc
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &MpesaAdapter{
		cfg:        cfg,
		httpClient: http.DefaultClient,
		logger:     logger,
		now:        time.Now,
	}
}

func (m *MpesaAdapter) tokenURL() string {
	return m.cfg.baseURL() + "/oauth/v1/generate?grant_type=client_credentials"
}

func (m *MpesaAdapter) stkPushURL() string {
	return m.cfg.baseURL() + "/mpesa/stkpush/v1/processrequest"
}

func (m *MpesaAdapter) stkQueryURL() string {
	return m.cfg.baseURL() + "/mpesa/stkpushquery/v1/query"
}

// AccessToken exchanges the consumer key and secret for a bearer token.
func (m *MpesaAdapter) AccessToken(ctx context.Context) (string, error) {
	if m.cfg.ConsumerKey == "" || m.cfg.ConsumerSecret == "" {
		return "", fmt.Errorf("%w: M-Pesa API credentials not configured", ErrAuth)
	}

	basic := base64.StdEncoding.EncodeToString([]byte(m.cfg.ConsumerKey + ":" + m.cfg.ConsumerSecret))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, m.tokenURL(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: build token request: %v", ErrAuth, err)
	}
	httpReq.Header.Set("Authorization", "Basic "+basic)

	resp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: token request: %v", ErrAuth, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: failed to get M-Pesa access token: http=%d body=%s", ErrAuth, resp.StatusCode, string(raw))
	}

	var res struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   string `json:"expires_in"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return "", fmt.Errorf("%w: token decode: %v body=%s", ErrAuth, err, string(raw))
	}
	if res.AccessToken == "" {
		return "", fmt.Errorf("%w: token response has no access_token", ErrAuth)
	}

	return res.AccessToken, nil
}

// Timestamp formats t the way Daraja expects (YYYYMMDDHHMMSS, local time).
func Timestamp(t time.Time) string {
	return t.Local().Format(timestampLayout)
}

// Password is base64(shortcode + passkey + timestamp).
func Password(shortcode, passkey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortcode + passkey + timestamp))
}

type stkPushBody struct {
	BusinessShortCode string      `json:"BusinessShortCode"`
	Password          string      `json:"Password"`
	Timestamp         string      `json:"Timestamp"`
	TransactionType   string      `json:"TransactionType"`
	Amount            json.Number `json:"Amount"`
	PartyA            string      `json:"PartyA"`
	PartyB            string      `json:"PartyB"`
	PhoneNumber       string      `json:"PhoneNumber"`
	CallBackURL       string      `json:"CallBackURL"`
	AccountReference  string      `json:"AccountReference"`
	TransactionDesc   string      `json:"TransactionDesc"`
}

type stkQueryBody struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
}

func (m *MpesaAdapter) InitiatePayment(ctx context.Context, req PaymentRequest) (json.RawMessage, error) {
	token, err := m.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	ts := Timestamp(m.now())
	body := stkPushBody{
		BusinessShortCode: m.cfg.Shortcode,
		Password:          Password(m.cfg.Shortcode, m.cfg.Passkey, ts),
		Timestamp:         ts,
		TransactionType:   transactionType,
		Amount:            json.Number(req.Amount.String()),
		PartyA:            req.PhoneNumber,
		PartyB:            m.cfg.Shortcode,
		PhoneNumber:       req.PhoneNumber,
		CallBackURL:       m.cfg.CallbackURL,
		AccountReference:  m.cfg.AccountReference,
		TransactionDesc:   m.cfg.TransactionDesc,
	}

	return m.post(ctx, "stk push", m.stkPushURL(), token, body)
}

func (m *MpesaAdapter) QueryPayment(ctx context.Context, checkoutRequestID string) (json.RawMessage, error) {
	checkoutRequestID = strings.TrimSpace(checkoutRequestID)
	if checkoutRequestID == "" {
		return nil, fmt.Errorf("mpesa query requires a checkout request id")
	}

	token, err := m.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	ts := Timestamp(m.now())
	body := stkQueryBody{
		BusinessShortCode: m.cfg.Shortcode,
		Password:          Password(m.cfg.Shortcode, m.cfg.Passkey, ts),
		Timestamp:         ts,
		CheckoutRequestID: checkoutRequestID,
	}

	return m.post(ctx, "stk query", m.stkQueryURL(), token, body)
}

// post sends a bearer-authenticated JSON request and hands back the body
// untouched, whatever the status code, as long as it is JSON.
func (m *MpesaAdapter) post(ctx context.Context, op, url, token string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("mpesa %s encode: %w", op, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("mpesa %s build request: %w", op, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("mpesa %s request: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("mpesa %s read body: %w", op, err)
	}

	m.logger.Debugw("mpesa request", "op", op, "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	if !json.Valid(raw) {
		m.logger.Warnw("mpesa returned non-json body", "op", op, "status", resp.StatusCode, "body", string(raw))
		return nil, fmt.Errorf("%w: %s http=%d", ErrInvalidResponse, op, resp.StatusCode)
	}

	return json.RawMessage(raw), nil
}
