package payment

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrMissingSecretKey = errors.New("missing or invalid PAYSTACK_SECRET_KEY: set a valid Paystack secret key (sk_test_... for test or sk_live_... for live) and restart the server")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrInvalidJSON      = errors.New("webhook body is not valid JSON")
)

// UpstreamError is a failed processor call. StatusCode is zero when no HTTP
// response was received.
type UpstreamError struct {
	Operation  string
	StatusCode int
	Body       []byte
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("paystack %s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("paystack %s: status %d: %s", e.Operation, e.StatusCode, string(e.Body))
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// HTTPStatus is the status to surface to our own caller.
func (e *UpstreamError) HTTPStatus() int {
	if e.StatusCode == 0 {
		return http.StatusInternalServerError
	}
	return e.StatusCode
}
