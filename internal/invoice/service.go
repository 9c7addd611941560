package invoice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"

	"paygate-be/internal/logger"
	"paygate-be/internal/metrics"
	"paygate-be/internal/payment"
	"paygate-be/internal/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const DefaultCallbackPath = "/payments/callback"

type Service interface {
	CreateInvoice(ctx context.Context, input CreateInvoiceInput) (*Invoice, error)
	GetInvoice(ctx context.Context, id string) (*Invoice, error)
	InitiateCardPayment(ctx context.Context, input CardPaymentInput) (*PaymentInitiation, error)
	InitiateMobileMoneyPayment(ctx context.Context, input MobileMoneyPaymentInput) (*PaymentInitiation, error)
	VerifyPayment(ctx context.Context, reference string) (json.RawMessage, error)
	ApplyWebhookEvent(ctx context.Context, event payment.WebhookEvent) (Outcome, error)
}

type CreateInvoiceInput struct {
	Email       string            `json:"email"`
	Phone       string            `json:"phone"`
	Amount      json.RawMessage   `json:"amount"`
	Currency    string            `json:"currency"`
	Description string            `json:"description"`
	Items       []json.RawMessage `json:"items"`
	Metadata    *payment.Payload  `json:"metadata"`
}

type CardPaymentInput struct {
	InvoiceID    string `json:"invoiceId"`
	CallbackPath string `json:"callbackPath"`
}

type MobileMoneyPaymentInput struct {
	InvoiceID     string           `json:"invoiceId"`
	Phone         string           `json:"phone"`
	Email         string           `json:"email"`
	ChargePayload *payment.Payload `json:"chargePayload"`
}

// PaymentInitiation is what the processor returned for an invoice.
type PaymentInitiation struct {
	InvoiceID string          `json:"invoiceId"`
	Reference string          `json:"reference"`
	Paystack  json.RawMessage `json:"paystack"`
}

type Options struct {
	AppURL          string
	DefaultCurrency string
	CountryCode     string
}

type service struct {
	repo    Repository
	gateway payment.Gateway
	metrics *metrics.Metrics
	opts    Options
}

func NewService(repo Repository, gateway payment.Gateway, m *metrics.Metrics, opts Options) Service {
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = "KES"
	}
	if opts.CountryCode == "" {
		opts.CountryCode = "254"
	}
	opts.AppURL = strings.TrimRight(opts.AppURL, "/")

	return &service{
		repo:    repo,
		gateway: gateway,
		metrics: m,
		opts:    opts,
	}
}

var maxMinorUnits = decimal.NewFromInt(math.MaxInt64)

// ParseAmount accepts only a positive JSON number. Absent, null and other
// falsy values count as missing.
func ParseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	trimmed := bytes.TrimSpace(raw)
	switch string(trimmed) {
	case "", "null", "false", `""`:
		return decimal.Zero, ErrMissingFields
	}

	amount, err := decimal.NewFromString(string(trimmed))
	if err != nil {
		// Strings, booleans, objects and arrays are not amounts.
		return decimal.Zero, ErrInvalidAmount
	}
	if amount.IsZero() {
		return decimal.Zero, ErrMissingFields
	}
	if amount.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	// The processor takes int64 minor units.
	if amount.Mul(decimal.NewFromInt(100)).Round(0).GreaterThan(maxMinorUnits) {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount, nil
}

func (s *service) CreateInvoice(ctx context.Context, input CreateInvoiceInput) (*Invoice, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateInvoice"),
	)

	if input.Email == "" {
		log.Warn("missing email")
		return nil, ErrMissingFields
	}
	amount, err := ParseAmount(input.Amount)
	if err != nil {
		log.Warn("invalid amount", zap.ByteString("amount", input.Amount), zap.Error(err))
		return nil, err
	}

	now := utcNow()
	inv := &Invoice{
		ID:          utils.GenerateInvoiceID(),
		Reference:   utils.GenerateReference(),
		Email:       input.Email,
		Amount:      amount,
		Currency:    input.Currency,
		Description: input.Description,
		Items:       input.Items,
		Metadata:    input.Metadata,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if input.Phone != "" {
		inv.Phone = utils.StrPtr(input.Phone)
	}
	if inv.Currency == "" {
		inv.Currency = s.opts.DefaultCurrency
	}
	if inv.Description == "" {
		inv.Description = DefaultDescription
	}
	if inv.Items == nil {
		inv.Items = []json.RawMessage{}
	}
	if inv.Metadata == nil {
		inv.Metadata = payment.NewPayload()
	}

	created, err := s.repo.AddInvoice(ctx, inv)
	if err != nil {
		log.Error("failed to store invoice", zap.Error(err))
		return nil, err
	}

	s.metrics.InvoiceCreated()
	log.Info("invoice created",
		zap.String("invoice_id", created.ID),
		zap.String("reference", created.Reference),
		zap.String("amount", created.Amount.String()),
		zap.String("currency", created.Currency),
	)
	return created, nil
}

func (s *service) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	if id == "" {
		return nil, ErrInvoiceIDRequired
	}
	return s.repo.GetInvoiceByID(ctx, id)
}

// payableInvoice loads an invoice that may still be charged.
func (s *service) payableInvoice(ctx context.Context, id string) (*Invoice, error) {
	inv, err := s.repo.GetInvoiceByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status == StatusPaid {
		return nil, ErrInvoiceAlreadyPaid
	}
	return inv, nil
}

// basePayload holds the fields shared by card and mobile-money requests.
func (s *service) basePayload(inv *Invoice, email string) *payment.Payload {
	currency := inv.Currency
	if currency == "" {
		currency = s.opts.DefaultCurrency
	}

	payload := payment.NewPayload()
	payload.Set("email", email)
	payload.Set("amount", inv.AmountMinor())
	payload.Set("currency", currency)
	payload.Set("reference", inv.Reference)
	return payload
}

func invoiceMetadata(inv *Invoice) *payment.Payload {
	meta := payment.NewPayload()
	meta.Set("invoiceId", inv.ID)
	meta.Set("description", inv.Description)
	payment.MergePayload(meta, inv.Metadata)
	return meta
}

func (s *service) InitiateCardPayment(ctx context.Context, input CardPaymentInput) (*PaymentInitiation, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "InitiateCardPayment"),
		zap.String("invoice_id", input.InvoiceID),
	)

	if input.InvoiceID == "" {
		return nil, ErrInvoiceIDRequired
	}

	inv, err := s.payableInvoice(ctx, input.InvoiceID)
	if err != nil {
		log.Warn("invoice not payable", zap.Error(err))
		return nil, err
	}

	callbackPath := input.CallbackPath
	if callbackPath == "" {
		callbackPath = DefaultCallbackPath
	}

	payload := s.basePayload(inv, inv.Email)
	payload.Set("callback_url", s.opts.AppURL+callbackPath)
	payload.Set("channels", []string{payment.ChannelCard})
	payload.Set("metadata", invoiceMetadata(inv))

	resp, err := s.gateway.InitializeTransaction(ctx, payload)
	if err != nil {
		log.Error("failed to initialize card transaction", zap.Error(err))
		return nil, err
	}

	log.Info("card transaction initialized", zap.String("reference", inv.Reference))
	return &PaymentInitiation{InvoiceID: inv.ID, Reference: inv.Reference, Paystack: resp}, nil
}

func (s *service) InitiateMobileMoneyPayment(ctx context.Context, input MobileMoneyPaymentInput) (*PaymentInitiation, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "InitiateMobileMoneyPayment"),
		zap.String("invoice_id", input.InvoiceID),
	)

	if input.InvoiceID == "" {
		return nil, ErrInvoiceIDRequired
	}

	var phone string
	if input.Phone != "" {
		normalized, ok := utils.NormalizeMSISDN(input.Phone, s.opts.CountryCode)
		if !ok {
			log.Warn("rejected phone number")
			return nil, ErrInvalidPhone
		}
		phone = normalized
	}

	inv, err := s.payableInvoice(ctx, input.InvoiceID)
	if err != nil {
		log.Warn("invoice not payable", zap.Error(err))
		return nil, err
	}

	email := input.Email
	if email == "" {
		email = inv.Email
	}
	if email == "" {
		return nil, ErrEmailRequired
	}

	payload := s.basePayload(inv, email)
	payload.Set("metadata", invoiceMetadata(inv))

	if phone != "" && input.ChargePayload == nil {
		mobileMoney := payment.NewPayload()
		mobileMoney.Set("phone", phone)
		mobileMoney.Set("provider", payment.MobileMoneyProviderMpesa)
		payload.Set("mobile_money", mobileMoney)
	}
	payment.MergePayload(payload, input.ChargePayload)

	resp, err := s.gateway.Charge(ctx, payload)
	if err != nil {
		log.Error("failed to create mobile money charge", zap.Error(err))
		return nil, err
	}

	log.Info("mobile money charge created", zap.String("reference", inv.Reference))
	return &PaymentInitiation{InvoiceID: inv.ID, Reference: inv.Reference, Paystack: resp}, nil
}

func (s *service) VerifyPayment(ctx context.Context, reference string) (json.RawMessage, error) {
	if reference == "" {
		return nil, ErrReferenceRequired
	}
	return s.gateway.VerifyTransaction(ctx, reference)
}

// classifyEvent maps a processor event name to the status it implies, or ""
// when the event only needs recording.
func classifyEvent(event string) Status {
	switch event {
	case "charge.success", "invoice.payment_succeeded":
		return StatusPaid
	case "charge.failed", "invoice.payment_failed":
		return StatusFailed
	default:
		return ""
	}
}

// ApplyWebhookEvent reconciles an authenticated processor event with the
// stored invoice. Events that concern no known invoice are not errors.
func (s *service) ApplyWebhookEvent(ctx context.Context, event payment.WebhookEvent) (Outcome, error) {
	reference := event.Reference()
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ApplyWebhookEvent"),
		zap.String("event", event.Event),
		zap.String("reference", reference),
	)

	outcome, err := s.applyWebhookEvent(ctx, log, event, reference)
	if err != nil {
		log.Error("failed to apply webhook event", zap.Error(err))
		return "", err
	}

	s.metrics.WebhookEvent(string(outcome))
	return outcome, nil
}

func (s *service) applyWebhookEvent(ctx context.Context, log *zap.Logger, event payment.WebhookEvent, reference string) (Outcome, error) {
	if reference == "" {
		log.Info("webhook event has no reference, acknowledged")
		return OutcomeNoReference, nil
	}

	current, err := s.repo.GetInvoiceByReference(ctx, reference)
	if errors.Is(err, ErrInvoiceNotFound) {
		log.Warn("webhook reference matches no invoice")
		return OutcomeUnmatched, nil
	}
	if err != nil {
		return "", err
	}

	data := event.RawData()
	status := classifyEvent(event.Event)

	var (
		update  Update
		outcome Outcome
	)
	switch {
	case status == StatusFailed && current.Status == StatusPaid:
		log.Warn("failure event for paid invoice ignored", zap.String("invoice_id", current.ID))
		return OutcomeIgnored, nil
	case status != "":
		update = StatusUpdate{Status: status, ProcessorData: data}
		outcome = OutcomeApplied
	default:
		update = EventUpdate{Event: event.Event, ProcessorData: data}
		outcome = OutcomeRecorded
	}

	updated, err := s.repo.UpdateInvoiceByReference(ctx, reference, update)
	if errors.Is(err, ErrInvoiceNotFound) {
		log.Warn("webhook reference matches no invoice")
		return OutcomeUnmatched, nil
	}
	if err != nil {
		return "", err
	}

	log.Info("webhook event applied",
		zap.String("invoice_id", updated.ID),
		zap.String("outcome", string(outcome)),
		zap.String("status", string(updated.Status)),
	)
	return outcome, nil
}
