package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"mpesapay/internal/payments"

	"github.com/google/uuid"
)

const maxCallbackBytes = 1 << 20

// StkPush godoc
//
//	@Summary		Start an STK push
//	@Description	Sends a Lipa na M-Pesa Online prompt to the phone. The M-Pesa response is returned unmodified.
//	@Tags			M-Pesa
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		payments.PaymentRequest		true	"Phone number and amount"
//	@Success		200		{object}	payments.PaymentResponse	"M-Pesa response (success or business error)"
//	@Failure		400		{object}	payments.PaymentResponse	"Missing or invalid fields"
//	@Failure		405		{object}	payments.PaymentResponse	"Method not allowed"
//	@Failure		500		{object}	payments.PaymentResponse	"Credentials or token failure"
//	@Failure		502		{object}	payments.PaymentResponse	"M-Pesa returned a non-JSON body"
//	@Router			/stk-push [post]
func (app *application) stkPushHandler(w http.ResponseWriter, r *http.Request) {
	var payload payments.PaymentRequest
	if err := readJSON(w, r, &payload); err != nil && !errors.Is(err, io.EOF) {
		app.badRequestResponse(w, r, err)
		return
	}

	payload.PhoneNumber = strings.TrimSpace(payload.PhoneNumber)
	if payload.PhoneNumber == "" || payload.Amount.IsZero() {
		app.badRequestResponse(w, r, fmt.Errorf("phoneNumber and amount are required"))
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, errors.New(validationMessage(err)))
		return
	}

	stkPushCount.Add(1)

	resp, err := app.payments.InitiatePayment(r.Context(), payload)
	if err != nil {
		app.gatewayError(w, r, err)
		return
	}

	app.logger.Infow("stk push sent", "phone", maskPhone(payload.PhoneNumber), "amount", payload.Amount.String())

	writeRawJSON(w, http.StatusOK, resp)
}

// StkQuery godoc
//
//	@Summary		Query an STK push
//	@Description	Looks up the status of a checkout request. The M-Pesa response is returned unmodified.
//	@Tags			M-Pesa
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		payments.QueryRequest	true	"Checkout request id"
//	@Success		200		{object}	payments.QueryResponse	"M-Pesa response (result or business error)"
//	@Failure		400		{object}	payments.QueryResponse	"Missing checkoutRequestId"
//	@Failure		405		{object}	payments.QueryResponse	"Method not allowed"
//	@Failure		500		{object}	payments.QueryResponse	"Credentials or token failure"
//	@Failure		502		{object}	payments.QueryResponse	"M-Pesa returned a non-JSON body"
//	@Router			/query [post]
func (app *application) stkQueryHandler(w http.ResponseWriter, r *http.Request) {
	var payload payments.QueryRequest
	if err := readJSON(w, r, &payload); err != nil && !errors.Is(err, io.EOF) {
		app.badRequestResponse(w, r, err)
		return
	}

	payload.CheckoutRequestID = strings.TrimSpace(payload.CheckoutRequestID)
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, errors.New(validationMessage(err)))
		return
	}

	stkQueryCount.Add(1)

	resp, err := app.payments.QueryPayment(r.Context(), payload.CheckoutRequestID)
	if err != nil {
		app.gatewayError(w, r, err)
		return
	}

	writeRawJSON(w, http.StatusOK, resp)
}

// MpesaCallback godoc
//
//	@Summary		Receive an STK callback
//	@Description	Daraja posts the final result of a checkout request here. Every payload is acknowledged.
//	@Tags			M-Pesa
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		object				false	"Daraja callback"
//	@Success		200		{object}	payments.CallbackAck
//	@Failure		405		{object}	payments.PaymentResponse	"Method not allowed"
//	@Router			/callback [post]
func (app *application) callbackHandler(w http.ResponseWriter, r *http.Request) {
	callbackCount.Add(1)
	receipt := uuid.NewString()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCallbackBytes))
	if err != nil {
		app.logger.Warnw("mpesa callback body unreadable", "receipt", receipt, "error", err.Error())
	}

	fields := []any{"receipt", receipt, "payload", string(body)}

	var env payments.CallbackEnvelope
	if len(body) > 0 && json.Unmarshal(body, &env) == nil {
		cb := env.Body.StkCallback
		if cb.CheckoutRequestID != "" {
			fields = append(fields,
				"merchant_request_id", cb.MerchantRequestID,
				"checkout_request_id", cb.CheckoutRequestID,
				"result_code", string(cb.ResultCode),
				"result_desc", cb.ResultDesc,
			)
		}
	}

	app.logger.Infow("mpesa callback", fields...)

	writeJSON(w, http.StatusOK, payments.CallbackAck{ResultCode: 0, ResultDesc: "Success"})
}

// gatewayError maps a failed provider call to a status code.
func (app *application) gatewayError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, payments.ErrInvalidResponse):
		app.badGatewayResponse(w, r, err)
	default:
		app.internalServerError(w, r, err)
	}
}

// maskPhone keeps the country code and the last three digits.
func maskPhone(phone string) string {
	if len(phone) <= 6 {
		return phone
	}
	return phone[:3] + strings.Repeat("*", len(phone)-6) + phone[len(phone)-3:]
}
