package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"paygate-be/internal/invoice"
	"paygate-be/internal/payment"
	"paygate-be/internal/utils"
)

var ErrInvalidBody = errors.New("invalid JSON body")

// publicMessages holds the wording clients see for known errors.
var publicMessages = map[error]string{
	ErrInvalidBody:                "Invalid JSON body",
	invoice.ErrMissingFields:      "Missing required fields: email, amount",
	invoice.ErrInvalidAmount:      "amount must be a positive number",
	invoice.ErrInvoiceIDRequired:  "invoiceId is required",
	invoice.ErrInvalidPhone:       "Invalid phone. Use format e.g. +2547XXXXXXXX or 2547XXXXXXXX or 07XXXXXXXX",
	invoice.ErrEmailRequired:      "email is required for Paystack charge",
	invoice.ErrReferenceRequired:  "reference is required",
	invoice.ErrInvoiceAlreadyPaid: "Invoice already paid",
	invoice.ErrInvoiceNotFound:    "Invoice not found",
}

func publicMessage(err error) string {
	for target, msg := range publicMessages {
		if errors.Is(err, target) {
			return msg
		}
	}
	return err.Error()
}

// writeError maps a service error onto the HTTP response.
func writeError(w http.ResponseWriter, err error) {
	var upstream *payment.UpstreamError

	switch {
	case errors.Is(err, ErrInvalidBody), invoice.IsValidation(err):
		utils.WriteJSONError(w, publicMessage(err), http.StatusBadRequest)
	case errors.Is(err, invoice.ErrInvoiceNotFound):
		utils.WriteJSONError(w, publicMessage(err), http.StatusNotFound)
	case errors.Is(err, payment.ErrMissingSecretKey):
		utils.WriteJSONError(w, err.Error(), http.StatusInternalServerError)
	case errors.As(err, &upstream):
		writeUpstreamError(w, upstream)
	default:
		utils.WriteJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}

// writeUpstreamError keeps the processor's status and, when it sent JSON, its
// body.
func writeUpstreamError(w http.ResponseWriter, upstream *payment.UpstreamError) {
	status := upstream.HTTPStatus()
	if len(upstream.Body) > 0 && json.Valid(upstream.Body) {
		utils.WriteJSON(w, status, map[string]json.RawMessage{"error": upstream.Body})
		return
	}

	msg := upstream.Error()
	if len(upstream.Body) > 0 {
		msg = string(upstream.Body)
	}
	utils.WriteJSONError(w, msg, status)
}
