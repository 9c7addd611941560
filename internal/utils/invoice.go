package utils

import (
	"crypto/rand"
	"encoding/hex"
)

const (
	InvoiceIDPrefix = "inv_"
	ReferencePrefix = "ref_"
	invoiceIDLength = 12
	referenceLength = 14
)

// RandomHex returns n lowercase hex characters from crypto/rand.
func RandomHex(n int) string {
	buf := make([]byte, (n+1)/2)
	// rand.Read never fails; it crashes the program instead.
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)[:n]
}

func GenerateInvoiceID() string {
	return InvoiceIDPrefix + RandomHex(invoiceIDLength)
}

// GenerateReference returns the processor correlation key for a new invoice.
func GenerateReference() string {
	return ReferencePrefix + RandomHex(referenceLength)
}
