package invoice

import "errors"

var (
	// -- Validation & Input --
	ErrInvalidInput       = errors.New("invalid input")
	ErrMissingFields      = errors.New("missing required fields: email, amount")
	ErrInvalidAmount      = errors.New("amount must be a positive number")
	ErrInvoiceIDRequired  = errors.New("invoiceId is required")
	ErrInvalidPhone       = errors.New("invalid phone: use +2547XXXXXXXX, 2547XXXXXXXX or 07XXXXXXXX")
	ErrEmailRequired      = errors.New("email is required for Paystack charge")
	ErrReferenceRequired  = errors.New("reference is required")
	ErrInvoiceAlreadyPaid = errors.New("invoice already paid")

	// -- Resource State --
	ErrInvoiceNotFound = errors.New("invoice not found")
)

// IsValidation reports whether err is a caller-correctable input problem.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidInput,
		ErrMissingFields,
		ErrInvalidAmount,
		ErrInvoiceIDRequired,
		ErrInvalidPhone,
		ErrEmailRequired,
		ErrReferenceRequired,
		ErrInvoiceAlreadyPaid,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
