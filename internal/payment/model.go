package payment

import (
	"encoding/json"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	ChannelCard = "card"

	MobileMoneyProviderMpesa = "mpesa"
)

// Payload is an opaque, insertion-ordered JSON object. It is only validated by
// the processor when sent.
type Payload = orderedmap.OrderedMap[string, any]

func NewPayload() *Payload {
	return orderedmap.New[string, any]()
}

// MergePayload copies every top-level entry of src into dst, overriding keys
// that already exist.
func MergePayload(dst, src *Payload) {
	if dst == nil || src == nil {
		return
	}
	for pair := src.Oldest(); pair != nil; pair = pair.Next() {
		dst.Set(pair.Key, pair.Value)
	}
}

// ClonePayload returns a shallow copy preserving key order.
func ClonePayload(p *Payload) *Payload {
	out := NewPayload()
	MergePayload(out, p)
	return out
}

// WebhookEvent is the envelope Paystack posts to the webhook endpoint.
type WebhookEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Reference resolves the transaction reference from data.reference, falling
// back to data.transaction_reference. Empty when neither is a non-empty string.
// ParseWebhookEvent decodes a webhook body leniently. Any well-formed JSON is
// accepted; a non-object root or a non-string event yields an event with no
// name and no reference.
func ParseWebhookEvent(body []byte) (WebhookEvent, error) {
	if !json.Valid(body) {
		return WebhookEvent{}, ErrInvalidJSON
	}

	var fields map[string]json.RawMessage
	if json.Unmarshal(body, &fields) != nil {
		return WebhookEvent{}, nil
	}

	var event WebhookEvent
	var name string
	if raw, ok := fields["event"]; ok && json.Unmarshal(raw, &name) == nil {
		event.Event = name
	}
	if raw, ok := fields["data"]; ok {
		event.Data = raw
	}
	return event, nil
}

func (e WebhookEvent) Reference() string {
	var data struct {
		Reference            any `json:"reference"`
		TransactionReference any `json:"transaction_reference"`
	}
	if len(e.Data) == 0 || json.Unmarshal(e.Data, &data) != nil {
		return ""
	}
	for _, v := range []any{data.Reference, data.TransactionReference} {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// RawData returns the event data object, or {} when absent.
func (e WebhookEvent) RawData() json.RawMessage {
	trimmed := strings.TrimSpace(string(e.Data))
	if trimmed == "" || trimmed == "null" {
		return json.RawMessage(`{}`)
	}
	return e.Data
}
