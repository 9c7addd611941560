package webhook

import (
	"io"
	"net/http"

	"paygate-be/internal/invoice"
	"paygate-be/internal/logger"
	"paygate-be/internal/payment"

	"go.uber.org/zap"
)

// maxBodyBytes bounds the webhook body read into memory.
const maxBodyBytes = 1 << 20

// Handler authenticates Paystack callbacks and hands them to the invoice
// service. It answers 400 on every failure so the processor does not retry
// permanent errors.
type Handler struct {
	InvoiceSvc invoice.Service
	Gateway    payment.Gateway
}

func NewWebhookHandler(invoiceSvc invoice.Service, gateway payment.Gateway) *Handler {
	return &Handler{
		InvoiceSvc: invoiceSvc,
		Gateway:    gateway,
	}
}

// WebhookHandler is the route handler. The body is read raw: the signature
// covers the exact bytes Paystack sent.
func (h *Handler) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	log := logger.FromCtx(r.Context()).With(
		zap.String("layer", "webhook"),
		zap.String("provider", "paystack"),
	)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		log.Warn("failed to read webhook body", zap.Error(err))
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if !h.Gateway.VerifyWebhookSignature(body, r.Header.Get(payment.SignatureHeader)) {
		log.Warn("webhook rejected", zap.Error(payment.ErrInvalidSignature))
		http.Error(w, "Invalid signature", http.StatusBadRequest)
		return
	}

	event, err := payment.ParseWebhookEvent(body)
	if err != nil {
		log.Warn("webhook body rejected", zap.Error(err))
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	outcome, err := h.InvoiceSvc.ApplyWebhookEvent(r.Context(), event)
	if err != nil {
		log.Error("failed to process webhook event", zap.String("event", event.Event), zap.Error(err))
		http.Error(w, "Webhook processing failed", http.StatusBadRequest)
		return
	}

	log.Info("webhook processed",
		zap.String("event", event.Event),
		zap.String("outcome", string(outcome)),
	)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "ok")
}
