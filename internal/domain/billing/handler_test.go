package billing_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wordsmith/wordsmith-api/internal/domain/billing"
	"github.com/wordsmith/wordsmith-api/internal/pkg/paygate"
)

const testWebhookSecret = "whsec_test"

func postWebhook(t *testing.T, h *billing.Handler, payload []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/paygate", bytes.NewReader(payload))
	if signature != "" {
		req.Header.Set("X-Paygate-Signature", signature)
	}
	rec := httptest.NewRecorder()
	h.Webhook(rec, req)
	return rec
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	h := billing.NewHandler(nil, nil, testWebhookSecret)

	payload, _ := json.Marshal(map[string]string{
		"id":         "evt_1",
		"type":       paygate.EventSessionCompleted,
		"session_id": "cs_1",
	})

	rec := postWebhook(t, h, payload, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing signature: expected 400, got %d", rec.Code)
	}

	rec = postWebhook(t, h, payload, "deadbeef")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("forged signature: expected 400, got %d", rec.Code)
	}

	// Valid signature over a different body must not carry over.
	otherSig := paygate.SignPayload([]byte(`{"other":"body"}`), testWebhookSecret)
	rec = postWebhook(t, h, payload, otherSig)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("replayed signature: expected 400, got %d", rec.Code)
	}
}

func TestWebhookAcknowledgesIgnoredEvents(t *testing.T) {
	h := billing.NewHandler(nil, nil, testWebhookSecret)

	payload, _ := json.Marshal(map[string]string{
		"id":         "evt_2",
		"type":       paygate.EventSessionExpired,
		"session_id": "cs_2",
	})

	rec := postWebhook(t, h, payload, paygate.SignPayload(payload, testWebhookSecret))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for ignored event type, got %d", rec.Code)
	}
}
