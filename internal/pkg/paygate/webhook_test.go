package paygate

import (
	"testing"
)

func TestVerifySignatureRoundTrip(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","session_id":"cs_123"}`)
	secret := "whsec_test"

	sig := SignPayload(payload, secret)
	if sig == "" {
		t.Fatal("expected non-empty signature")
	}

	if !VerifySignature(payload, sig, secret) {
		t.Fatal("expected signature to verify")
	}
	if VerifySignature(payload, sig, "wrong-secret") {
		t.Fatal("expected verification to fail with wrong secret")
	}
	if VerifySignature([]byte(`{"tampered":true}`), sig, secret) {
		t.Fatal("expected verification to fail for tampered payload")
	}
}

func TestVerifySignatureEmptyInputs(t *testing.T) {
	payload := []byte(`{}`)

	if VerifySignature(payload, "", "secret") {
		t.Fatal("empty signature must not verify")
	}
	if VerifySignature(payload, "abcd", "") {
		t.Fatal("empty secret must not verify")
	}
	if VerifySignature(payload, "not-hex!", "secret") {
		t.Fatal("non-hex signature must not verify")
	}
}

func TestParseWebhook(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","session_id":"cs_123","payment_id":"pay_9"}`)
	secret := "whsec_test"
	sig := SignPayload(payload, secret)

	event, err := ParseWebhook(payload, sig, secret)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.Type != EventSessionCompleted {
		t.Fatalf("expected completed event, got %s", event.Type)
	}
	if event.SessionID != "cs_123" || event.PaymentID != "pay_9" {
		t.Fatalf("unexpected event fields: %+v", event)
	}

	if _, err := ParseWebhook(payload, sig, "other"); err == nil {
		t.Fatal("expected signature error")
	}

	missing := []byte(`{"id":"evt_2","type":"checkout.session.completed"}`)
	if _, err := ParseWebhook(missing, SignPayload(missing, secret), secret); err == nil {
		t.Fatal("expected error for payload without session_id")
	}
}
