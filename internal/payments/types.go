package payments

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// PaymentRequest is what a caller submits to start an STK push.
type PaymentRequest struct {
	PhoneNumber string          `json:"phoneNumber" validate:"required,min=10,max=15"`
	Amount      decimal.Decimal `json:"amount" validate:"required,gt=0"`
}

type QueryRequest struct {
	CheckoutRequestID string `json:"checkoutRequestId" validate:"required"`
}

// PaymentResponse covers both the success and the error body Daraja returns
// for an STK push. Error is only set by our own handlers.
type PaymentResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID,omitempty"`
	CheckoutRequestID   string `json:"CheckoutRequestID,omitempty"`
	ResponseCode        string `json:"ResponseCode,omitempty"`
	ResponseDescription string `json:"ResponseDescription,omitempty"`
	CustomerMessage     string `json:"CustomerMessage,omitempty"`
	ErrorCode           string `json:"errorCode,omitempty"`
	ErrorMessage        string `json:"errorMessage,omitempty"`
	Error               string `json:"error,omitempty"`
}

type QueryResponse struct {
	ResponseCode        string     `json:"ResponseCode,omitempty"`
	ResponseDescription string     `json:"ResponseDescription,omitempty"`
	MerchantRequestID   string     `json:"MerchantRequestID,omitempty"`
	CheckoutRequestID   string     `json:"CheckoutRequestID,omitempty"`
	ResultCode          ResultCode `json:"ResultCode,omitempty"`
	ResultDesc          string     `json:"ResultDesc,omitempty"`
	ErrorCode           string     `json:"errorCode,omitempty"`
	ErrorMessage        string     `json:"errorMessage,omitempty"`
	Error               string     `json:"error,omitempty"`
}

// ResultCode holds a Daraja result code. The query endpoint sends it as a
// string while callbacks send a number, so both are accepted.
type ResultCode string

func (c *ResultCode) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*c = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = ResultCode(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*c = ResultCode(n.String())
	return nil
}

// Success reports whether the code is zero.
func (c ResultCode) Success() bool {
	return c == "0"
}

// CallbackEnvelope is the part of the STK callback we pull out for logs.
type CallbackEnvelope struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string     `json:"MerchantRequestID"`
			CheckoutRequestID string     `json:"CheckoutRequestID"`
			ResultCode        ResultCode `json:"ResultCode"`
			ResultDesc        string     `json:"ResultDesc"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// CallbackAck is the body Daraja expects back before it stops retrying.
type CallbackAck struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}
