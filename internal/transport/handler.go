package transport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"paygate-be/internal/invoice"
	"paygate-be/internal/logger"
	"paygate-be/internal/utils"

	"go.uber.org/zap"
)

const (
	ServiceName  = "paygate-be"
	maxBodyBytes = 1 << 20
)

// Handler exposes the invoice service over REST.
type Handler struct {
	InvoiceSvc invoice.Service
}

func NewHandler(invoiceSvc invoice.Service) *Handler {
	return &Handler{InvoiceSvc: invoiceSvc}
}

// decodeBody reads an optional JSON object. An empty body decodes as {}.
func decodeBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return errors.Join(ErrInvalidBody, err)
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errors.Join(ErrInvalidBody, err)
	}
	return nil
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "service": ServiceName})
}

func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSONError(w, "Not found", http.StatusNotFound)
}

func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var input invoice.CreateInvoiceInput
	if err := decodeBody(r, &input); err != nil {
		logger.FromCtx(r.Context()).Warn("bad create invoice body", zap.Error(err))
		writeError(w, err)
		return
	}

	inv, err := h.InvoiceSvc.CreateInvoice(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, map[string]any{"invoice": inv})
}

func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.InvoiceSvc.GetInvoice(r.Context(), r.URL.Query().Get(":id"))
	if err != nil {
		writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"invoice": inv})
}

func (h *Handler) CardPayment(w http.ResponseWriter, r *http.Request) {
	var input invoice.CardPaymentInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.InvoiceSvc.InitiateCardPayment(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) MobileMoneyPayment(w http.ResponseWriter, r *http.Request) {
	var input invoice.MobileMoneyPaymentInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.InvoiceSvc.InitiateMobileMoneyPayment(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	h.verify(w, r, r.URL.Query().Get(":reference"))
}

// PaymentCallback is where Paystack redirects the customer after checkout.
// It carries the reference as ?reference= and ?trxref=.
func (h *Handler) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	reference := q.Get("reference")
	if reference == "" {
		reference = q.Get("trxref")
	}
	h.verify(w, r, reference)
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request, reference string) {
	resp, err := h.InvoiceSvc.VerifyPayment(r.Context(), reference)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"reference": reference, "paystack": resp})
}
