// internal/payment/payment.go
package payment

import (
	"context"
	"encoding/json"
)

// Gateway wraps the external payment processor.
type Gateway interface {
	InitializeTransaction(ctx context.Context, payload *Payload) (json.RawMessage, error)
	VerifyTransaction(ctx context.Context, reference string) (json.RawMessage, error)
	Charge(ctx context.Context, payload *Payload) (json.RawMessage, error)
	VerifyWebhookSignature(rawBody []byte, signature string) bool
}
