package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"

	"mpesapay/internal/payments"

	"github.com/shopspring/decimal"
)

const (
	MsgAmountTooLow    = "Amount must be above 80 KSH"
	MsgInitiating      = "Initiating payment request..."
	MsgPaymentFailed   = "Payment request failed"
	MsgNetworkError    = "Network error"
	MsgVerifying       = "Verifying transaction status..."
	MsgVerifyFailed    = "Verification failed"
	MsgVerifySucceeded = "Transaction successful!"

	StatusPending       = "Pending"
	VerifyResultPending = "Response will appear here..."
	NoCheckoutID        = "-"
)

// MinAmount is the business floor in KSH; amounts must be strictly above it.
var MinAmount = decimal.NewFromInt(80)

// ErrBusy is returned when an action is started while the same action is
// still waiting on the API.
var ErrBusy = errors.New("request already in flight")

// Flow is the state of one payment form.
type Flow struct {
	Step Step

	Phone         string
	Amount        string
	StatusMessage string

	CheckoutRequestID string
	Status            string

	VerifyID     string
	VerifyResult string

	api       API
	paying    atomic.Bool
	verifying atomic.Bool
}

func NewFlow(api API) *Flow {
	return &Flow{
		Step:              StepPay,
		CheckoutRequestID: NoCheckoutID,
		Status:            StatusPending,
		VerifyResult:      VerifyResultPending,
		api:               api,
	}
}

// Paying reports whether Pay is waiting on the API.
func (f *Flow) Paying() bool { return f.paying.Load() }

// Verifying reports whether Verify is waiting on the API.
func (f *Flow) Verifying() bool { return f.verifying.Load() }

// Fire applies a navigation event.
func (f *Flow) Fire(e Event) error {
	next, err := Transition(f.Step, e)
	if err != nil {
		return err
	}
	f.Step = next
	return nil
}

// Pay submits the phone and amount. Validation problems and API failures
// end up in StatusMessage; only ErrBusy and illegal steps are returned.
func (f *Flow) Pay(ctx context.Context) error {
	if f.Step != StepPay {
		return ErrIllegalTransition
	}
	phone := strings.TrimSpace(f.Phone)
	amountText := strings.TrimSpace(f.Amount)
	if phone == "" || amountText == "" {
		return nil
	}
	amount, err := decimal.NewFromString(amountText)
	if err != nil || amount.LessThanOrEqual(MinAmount) {
		f.StatusMessage = MsgAmountTooLow
		return nil
	}

	if !f.paying.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer f.paying.Store(false)

	f.StatusMessage = MsgInitiating
	raw, err := f.api.StkPush(ctx, phone, amount)
	if err != nil {
		f.StatusMessage = orDefault(err.Error(), MsgNetworkError)
		return nil
	}

	m, ok := members(raw)
	if !ok {
		f.StatusMessage = MsgPaymentFailed
		return nil
	}
	checkoutID := text(m, "CheckoutRequestID")
	if checkoutID == "" {
		f.StatusMessage = firstNonEmpty(text(m, "errorMessage"), text(m, "error"), MsgPaymentFailed)
		return nil
	}

	f.CheckoutRequestID = checkoutID
	f.VerifyID = checkoutID
	f.Status = StatusPending
	f.StatusMessage = ""
	return f.Fire(EventPaymentAccepted)
}

// Verify looks up VerifyID and stores a readable outcome in VerifyResult.
func (f *Flow) Verify(ctx context.Context) error {
	if f.Step != StepVerify {
		return ErrIllegalTransition
	}
	id := strings.TrimSpace(f.VerifyID)
	if id == "" {
		return nil
	}

	if !f.verifying.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer f.verifying.Store(false)

	f.VerifyResult = MsgVerifying
	raw, err := f.api.Query(ctx, id)
	if err != nil {
		f.VerifyResult = orDefault(err.Error(), MsgVerifyFailed)
		return nil
	}
	f.VerifyResult = DescribeQueryResult(raw)
	return nil
}

// DescribeQueryResult turns a status query response into the text shown
// to the payer.
func DescribeQueryResult(raw json.RawMessage) string {
	if m, ok := members(raw); ok {
		var code payments.ResultCode
		desc := text(m, "ResultDesc")
		switch {
		case json.Unmarshal(m["ResultCode"], &code) == nil && code.Success():
			return strings.TrimSpace(MsgVerifySucceeded + " " + desc)
		case desc != "":
			return desc
		case text(m, "errorMessage") != "":
			return text(m, "errorMessage")
		}
	}

	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return string(raw)
	}
	return out.String()
}

// members splits a JSON object into its raw top-level values, so a member
// of an unexpected type does not hide the others.
func members(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil || m == nil {
		return nil, false
	}
	return m, true
}

// text returns the member named key when it holds a JSON string.
func text(m map[string]json.RawMessage, key string) string {
	var s string
	if v, ok := m[key]; ok && json.Unmarshal(v, &s) == nil {
		return s
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
