package paygate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateSession(t *testing.T) {
	var gotAuth, gotMerchant string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/checkout/sessions" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		gotMerchant = r.Header.Get("X-Merchant-ID")

		var req CreateSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req.Metadata["purchase_id"] == "" {
			t.Error("expected purchase_id in session metadata")
		}

		json.NewEncoder(w).Encode(CreateSessionResponse{
			SessionID:   "cs_test_1",
			CheckoutURL: "https://pay.paygate.dev/cs_test_1",
			Status:      SessionStatusOpen,
		})
	}))
	defer server.Close()

	client := NewClient(Config{
		BaseURL:    server.URL,
		MerchantID: "m_1",
		SecretKey:  "sk_test",
	})

	resp, err := client.CreateSession(context.Background(), CreateSessionRequest{
		AmountCents: 999,
		Currency:    "usd",
		Reference:   "4f0cer",
		Metadata:    map[string]string{"purchase_id": "4f0c"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.SessionID != "cs_test_1" {
		t.Fatalf("unexpected session id: %s", resp.SessionID)
	}
	if gotAuth != "Bearer sk_test" {
		t.Fatalf("unexpected auth header: %s", gotAuth)
	}
	if gotMerchant != "m_1" {
		t.Fatalf("unexpected merchant header: %s", gotMerchant)
	}
}

func TestCreateSessionValidation(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://localhost:0", MerchantID: "m_1"})

	if _, err := client.CreateSession(context.Background(), CreateSessionRequest{AmountCents: 0, Reference: "x"}); err == nil {
		t.Fatal("expected error for zero amount")
	}
	if _, err := client.CreateSession(context.Background(), CreateSessionRequest{AmountCents: 100, Reference: " "}); err == nil {
		t.Fatal("expected error for empty reference")
	}
}

func TestGetSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/checkout/sessions/cs_test_2" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(Session{
			SessionID:     "cs_test_2",
			Status:        SessionStatusComplete,
			PaymentStatus: PaymentStatusPaid,
			PaymentID:     "pay_42",
			AmountCents:   999,
		})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, MerchantID: "m_1", SecretKey: "sk_test"})

	session, err := client.GetSession(context.Background(), "cs_test_2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !session.Settled() {
		t.Fatalf("expected settled session, got %+v", session)
	}
}

func TestGetSessionNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"no such session"}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, MerchantID: "m_1", SecretKey: "sk_test"})

	if _, err := client.GetSession(context.Background(), "cs_missing"); err == nil {
		t.Fatal("expected error for 404 response")
	}
}
