package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"paygate-be/internal/invoice"
	"paygate-be/internal/payment"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "sk_test_webhook"

type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) CreateInvoice(ctx context.Context, input invoice.CreateInvoiceInput) (*invoice.Invoice, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoice.Invoice), args.Error(1)
}

func (m *MockInvoiceService) GetInvoice(ctx context.Context, id string) (*invoice.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoice.Invoice), args.Error(1)
}

func (m *MockInvoiceService) InitiateCardPayment(ctx context.Context, input invoice.CardPaymentInput) (*invoice.PaymentInitiation, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoice.PaymentInitiation), args.Error(1)
}

func (m *MockInvoiceService) InitiateMobileMoneyPayment(ctx context.Context, input invoice.MobileMoneyPaymentInput) (*invoice.PaymentInitiation, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoice.PaymentInitiation), args.Error(1)
}

func (m *MockInvoiceService) VerifyPayment(ctx context.Context, reference string) (json.RawMessage, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockInvoiceService) ApplyWebhookEvent(ctx context.Context, event payment.WebhookEvent) (invoice.Outcome, error) {
	args := m.Called(ctx, event)
	return args.Get(0).(invoice.Outcome), args.Error(1)
}

func newPendingStore(t *testing.T) invoice.Repository {
	t.Helper()
	repo := invoice.NewMemoryRepository()
	now := time.Now().UTC()
	_, err := repo.AddInvoice(context.Background(), &invoice.Invoice{
		ID:        "inv_1",
		Reference: "ref_1",
		Email:     "a@b.com",
		Amount:    decimal.NewFromInt(500),
		Currency:  "KES",
		Items:     []json.RawMessage{},
		Metadata:  payment.NewPayload(),
		Status:    invoice.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
	return repo
}

func newSignedRequest(body []byte, signature string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/paystack", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(payment.SignatureHeader, signature)
	}
	return req
}

func TestHandler_WebhookHandler(t *testing.T) {
	gateway := payment.NewPaystackGateway(testSecret, "", nil)

	setup := func(t *testing.T) (*Handler, invoice.Repository) {
		repo := newPendingStore(t)
		svc := invoice.NewService(repo, gateway, nil, invoice.Options{AppURL: "http://localhost:4000"})
		return NewWebhookHandler(svc, gateway), repo
	}

	t.Run("Success_Paid", func(t *testing.T) {
		h, repo := setup(t)
		body := []byte(`{"event":"charge.success","data":{"reference":"ref_1","status":"success"}}`)
		w := httptest.NewRecorder()

		h.WebhookHandler(w, newSignedRequest(body, payment.SignBody(testSecret, body)))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", w.Body.String())

		inv, err := repo.GetInvoiceByReference(context.Background(), "ref_1")
		require.NoError(t, err)
		assert.Equal(t, invoice.StatusPaid, inv.Status)
		assert.JSONEq(t, `{"reference":"ref_1","status":"success"}`, string(inv.PaystackData))
	})

	t.Run("Invalid_Signature", func(t *testing.T) {
		h, repo := setup(t)
		body := []byte(`{"event":"charge.success","data":{"reference":"ref_1"}}`)
		w := httptest.NewRecorder()

		h.WebhookHandler(w, newSignedRequest(body, payment.SignBody("sk_test_other", body)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid signature")

		inv, err := repo.GetInvoiceByReference(context.Background(), "ref_1")
		require.NoError(t, err)
		assert.Equal(t, invoice.StatusPending, inv.Status)
		assert.Nil(t, inv.PaystackData)
	})

	t.Run("Missing_Signature", func(t *testing.T) {
		h, _ := setup(t)
		body := []byte(`{"event":"charge.success","data":{"reference":"ref_1"}}`)
		w := httptest.NewRecorder()

		h.WebhookHandler(w, newSignedRequest(body, ""))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Invalid_JSON", func(t *testing.T) {
		h, _ := setup(t)
		body := []byte(`{"event":`)
		w := httptest.NewRecorder()

		h.WebhookHandler(w, newSignedRequest(body, payment.SignBody(testSecret, body)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid JSON")
	})

	t.Run("Unmatched_Reference_Acknowledged", func(t *testing.T) {
		h, _ := setup(t)
		body := []byte(`{"event":"charge.success","data":{"reference":"ref_unknown"}}`)
		w := httptest.NewRecorder()

		h.WebhookHandler(w, newSignedRequest(body, payment.SignBody(testSecret, body)))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", w.Body.String())
	})

	t.Run("No_Reference_Acknowledged", func(t *testing.T) {
		h, _ := setup(t)
		body := []byte(`{"event":"customeridentification.success","data":{"customer_id":1}}`)
		w := httptest.NewRecorder()

		h.WebhookHandler(w, newSignedRequest(body, payment.SignBody(testSecret, body)))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Parseable_Bodies_Acknowledged", func(t *testing.T) {
		bodies := []string{
			`[]`,
			`"ping"`,
			`null`,
			`42`,
			`{"event":123,"data":{}}`,
			`{"event":"charge.success","data":"ref_1"}`,
			`{"event":"charge.success","data":[1,2]}`,
		}
		for _, raw := range bodies {
			t.Run(raw, func(t *testing.T) {
				h, repo := setup(t)
				body := []byte(raw)
				w := httptest.NewRecorder()

				h.WebhookHandler(w, newSignedRequest(body, payment.SignBody(testSecret, body)))

				assert.Equal(t, http.StatusOK, w.Code)
				assert.Equal(t, "ok", w.Body.String())

				inv, err := repo.GetInvoiceByReference(context.Background(), "ref_1")
				require.NoError(t, err)
				assert.Equal(t, invoice.StatusPending, inv.Status)
			})
		}
	})

	t.Run("Unclassified_Event_Recorded", func(t *testing.T) {
		h, repo := setup(t)
		body := []byte(`{"event":"transfer.success","data":{"reference":"ref_1"}}`)
		w := httptest.NewRecorder()

		h.WebhookHandler(w, newSignedRequest(body, payment.SignBody(testSecret, body)))

		assert.Equal(t, http.StatusOK, w.Code)
		inv, err := repo.GetInvoiceByReference(context.Background(), "ref_1")
		require.NoError(t, err)
		assert.Equal(t, invoice.StatusPending, inv.Status)
		assert.Equal(t, "transfer.success", inv.LastEvent)
	})
}

func TestHandler_ProcessingError(t *testing.T) {
	gateway := payment.NewPaystackGateway(testSecret, "", nil)
	svc := new(MockInvoiceService)
	svc.On("ApplyWebhookEvent", mock.Anything, mock.MatchedBy(func(e payment.WebhookEvent) bool {
		return e.Event == "charge.success"
	})).Return(invoice.Outcome(""), errors.New("store unavailable"))

	h := NewWebhookHandler(svc, gateway)
	body := []byte(`{"event":"charge.success","data":{"reference":"ref_1"}}`)
	w := httptest.NewRecorder()

	h.WebhookHandler(w, newSignedRequest(body, payment.SignBody(testSecret, body)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertExpectations(t)
}
