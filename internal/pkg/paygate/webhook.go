package paygate

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Webhook event types pushed by paygate
const (
	EventSessionCompleted = "checkout.session.completed"
	EventSessionExpired   = "checkout.session.expired"
)

// WebhookEvent is the payload of a paygate notification
type WebhookEvent struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	SessionID string            `json:"session_id"`
	PaymentID string            `json:"payment_id"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// VerifySignature validates the HMAC-SHA256 signature of a webhook payload
func VerifySignature(payload []byte, signature string, secret string) bool {
	if secret == "" || signature == "" {
		return false
	}

	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	expected := h.Sum(nil)

	given, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	return hmac.Equal(given, expected)
}

// SignPayload creates an HMAC-SHA256 signature for a payload
func SignPayload(payload []byte, secret string) string {
	if secret == "" {
		return ""
	}

	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// ParseWebhook verifies the signature and decodes the event
func ParseWebhook(payload []byte, signature, secret string) (*WebhookEvent, error) {
	if !VerifySignature(payload, signature, secret) {
		return nil, fmt.Errorf("invalid webhook signature")
	}

	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to parse webhook payload: %w", err)
	}
	if event.SessionID == "" {
		return nil, fmt.Errorf("webhook payload missing session_id")
	}
	return &event, nil
}
