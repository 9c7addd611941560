package invoice

import (
	"encoding/json"
	"time"

	"paygate-be/internal/payment"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts are exchanged as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusFailed  Status = "failed"
)

const DefaultDescription = "Lottery purchase"

type Invoice struct {
	ID           string            `json:"id"`
	Reference    string            `json:"reference"`
	Email        string            `json:"email"`
	Phone        *string           `json:"phone"`
	Amount       decimal.Decimal   `json:"amount"`
	Currency     string            `json:"currency"`
	Description  string            `json:"description"`
	Items        []json.RawMessage `json:"items"`
	Metadata     *payment.Payload  `json:"metadata"`
	Status       Status            `json:"status"`
	PaystackData json.RawMessage   `json:"paystackData,omitempty"`
	LastEvent    string            `json:"lastEvent,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// Clone returns a copy that shares no mutable state with inv.
func (inv *Invoice) Clone() *Invoice {
	if inv == nil {
		return nil
	}
	out := *inv
	if inv.Phone != nil {
		phone := *inv.Phone
		out.Phone = &phone
	}
	out.Items = make([]json.RawMessage, len(inv.Items))
	for i, item := range inv.Items {
		out.Items[i] = append(json.RawMessage(nil), item...)
	}
	out.Metadata = payment.ClonePayload(inv.Metadata)
	if inv.PaystackData != nil {
		out.PaystackData = append(json.RawMessage(nil), inv.PaystackData...)
	}
	return &out
}

// AmountMinor converts the major-unit amount into the processor's integer
// minor units, rounding to the nearest unit.
func (inv *Invoice) AmountMinor() int64 {
	return ToMinorUnits(inv.Amount)
}

func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// Update is a typed partial change applied by UpdateInvoiceByReference.
// Only StatusUpdate and EventUpdate implement it.
type Update interface {
	apply(inv *Invoice)
}

// StatusUpdate moves the invoice to Status and keeps the processor payload.
type StatusUpdate struct {
	Status        Status
	ProcessorData json.RawMessage
}

func (u StatusUpdate) apply(inv *Invoice) {
	inv.Status = u.Status
	inv.PaystackData = u.ProcessorData
}

// EventUpdate records an event that does not map to a status change.
type EventUpdate struct {
	Event         string
	ProcessorData json.RawMessage
}

func (u EventUpdate) apply(inv *Invoice) {
	inv.LastEvent = u.Event
	inv.PaystackData = u.ProcessorData
}

// Outcome describes what a webhook event did to the invoice store.
type Outcome string

const (
	OutcomeApplied     Outcome = "applied"
	OutcomeRecorded    Outcome = "recorded"
	OutcomeNoReference Outcome = "no_reference"
	OutcomeUnmatched   Outcome = "unmatched"
	OutcomeIgnored     Outcome = "ignored"
)
