package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"paygate-be/internal/logger"
	"paygate-be/internal/metrics"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL  = "https://api.paystack.co"
	SignatureHeader = "x-paystack-signature"

	requestTimeout  = 30 * time.Second
	secretKeyPrefix = "sk_"
)

type paystackGateway struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Metrics
}

// ----------------- Constructor -----------------

func NewPaystackGateway(secretKey, baseURL string, m *metrics.Metrics) Gateway {
	if strings.TrimSpace(secretKey) == "" {
		logger.L().Warn("PAYSTACK_SECRET_KEY is not set; processor calls and webhook verification are disabled")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &paystackGateway{
		secretKey: secretKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		metrics: m,
	}
}

// ----------------- Outbound calls -----------------

func (p *paystackGateway) InitializeTransaction(ctx context.Context, payload *Payload) (json.RawMessage, error) {
	return p.do(ctx, "initialize", http.MethodPost, "/transaction/initialize", payload)
}

func (p *paystackGateway) VerifyTransaction(ctx context.Context, reference string) (json.RawMessage, error) {
	return p.do(ctx, "verify", http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil)
}

func (p *paystackGateway) Charge(ctx context.Context, payload *Payload) (json.RawMessage, error) {
	return p.do(ctx, "charge", http.MethodPost, "/charge", payload)
}

func (p *paystackGateway) assertSecretKey() error {
	if !strings.HasPrefix(strings.TrimSpace(p.secretKey), secretKeyPrefix) {
		return ErrMissingSecretKey
	}
	return nil
}

func (p *paystackGateway) do(ctx context.Context, op, method, path string, payload *Payload) (json.RawMessage, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "gateway"),
		zap.String("operation", op),
		zap.String("path", path),
	)

	if err := p.assertSecretKey(); err != nil {
		log.Error("refusing processor call", zap.Error(err))
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			log.Error("failed to marshal processor payload", zap.Error(err))
			return nil, fmt.Errorf("marshal %s payload: %w", op, err)
		}
		body = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		log.Error("failed creating request", zap.Error(err))
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(p.secretKey))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	timer := metrics.StartTimer()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.metrics.GatewayRequest(op, "error", timer.Duration())
		log.Error("paystack request failed", zap.Error(err))
		return nil, &UpstreamError{Operation: op, Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		p.metrics.GatewayRequest(op, "error", timer.Duration())
		log.Error("failed to read response body", zap.Error(err))
		return nil, &UpstreamError{Operation: op, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		p.metrics.GatewayRequest(op, "error", timer.Duration())
		log.Error("paystack returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
		)
		return nil, &UpstreamError{Operation: op, StatusCode: resp.StatusCode, Body: bodyBytes}
	}

	if !json.Valid(bodyBytes) {
		p.metrics.GatewayRequest(op, "error", timer.Duration())
		log.Error("paystack returned invalid JSON", zap.ByteString("response", bodyBytes))
		return nil, &UpstreamError{Operation: op, StatusCode: http.StatusBadGateway, Body: bodyBytes}
	}

	p.metrics.GatewayRequest(op, "ok", timer.Duration())
	log.Info("paystack call succeeded",
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", timer.Duration()),
	)
	return json.RawMessage(bodyBytes), nil
}

// ----------------- Verify Signature -----------------

// VerifyWebhookSignature checks the hex HMAC-SHA512 of the exact request bytes
// against the signature header. It never fails loudly: any problem is false.
func (p *paystackGateway) VerifyWebhookSignature(rawBody []byte, signature string) bool {
	if p.secretKey == "" || signature == "" {
		return false
	}

	expected := SignBody(p.secretKey, rawBody)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// SignBody computes the signature Paystack sends for body.
func SignBody(secretKey string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
