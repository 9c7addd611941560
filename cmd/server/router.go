package main

import (
	"net/http"

	"paygate-be/internal/transport"

	"github.com/bmizerany/pat"
)

// setupRouter binds every public route. The webhook route gets the raw body:
// nothing in front of it may consume or rewrite the request.
func setupRouter(api *transport.Handler, webhookHandler http.HandlerFunc, metricsHandler http.Handler) http.Handler {
	mux := pat.New()

	mux.Get("/health", http.HandlerFunc(api.Health))
	mux.Get("/metrics", metricsHandler)

	mux.Post("/invoices", http.HandlerFunc(api.CreateInvoice))
	mux.Get("/invoices/:id", http.HandlerFunc(api.GetInvoice))

	mux.Post("/payments/card", http.HandlerFunc(api.CardPayment))
	mux.Post("/payments/mpesa", http.HandlerFunc(api.MobileMoneyPayment))
	mux.Get("/payments/verify/:reference", http.HandlerFunc(api.VerifyPayment))
	mux.Get("/payments/callback", http.HandlerFunc(api.PaymentCallback))

	mux.Post("/webhooks/paystack", webhookHandler)

	mux.NotFound = http.HandlerFunc(api.NotFound)
	return mux
}
