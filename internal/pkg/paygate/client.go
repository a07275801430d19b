package paygate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Session statuses reported by the paygate API
const (
	SessionStatusOpen     = "open"
	SessionStatusComplete = "complete"
	SessionStatusExpired  = "expired"
)

// Payment statuses reported inside a session
const (
	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"
)

// Config holds paygate API configuration
type Config struct {
	BaseURL       string
	MerchantID    string
	SecretKey     string
	WebhookSecret string
	Timeout       time.Duration
}

// Client represents the paygate checkout API client
type Client struct {
	httpClient *http.Client
	config     Config
}

// CreateSessionRequest represents checkout session creation
type CreateSessionRequest struct {
	AmountCents int64             `json:"amount_cents"`
	Currency    string            `json:"currency"`
	Reference   string            `json:"reference"`
	Description string            `json:"description"`
	SuccessURL  string            `json:"success_url"`
	CancelURL   string            `json:"cancel_url"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// CreateSessionResponse represents a created checkout session
type CreateSessionResponse struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
	Status      string `json:"status"`
}

// Session represents the provider's view of a checkout session.
// This is the source of truth about whether a payment has settled.
type Session struct {
	SessionID     string            `json:"session_id"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	PaymentID     string            `json:"payment_id"`
	AmountCents   int64             `json:"amount_cents"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Settled reports whether the session's payment has completed
func (s *Session) Settled() bool {
	return s.Status == SessionStatusComplete && s.PaymentStatus == PaymentStatusPaid
}

// NewClient creates a new paygate API client
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		config:     cfg,
	}
}

// CreateSession creates a checkout session and returns its redirect URL
func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest) (*CreateSessionResponse, error) {
	if req.AmountCents <= 0 {
		return nil, fmt.Errorf("validation error: amount_cents must be > 0")
	}
	if strings.TrimSpace(req.Reference) == "" {
		return nil, fmt.Errorf("validation error: reference must be non-empty")
	}

	var out CreateSessionResponse
	if err := c.call(ctx, http.MethodPost, "/v1/checkout/sessions", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSession fetches the current state of a checkout session
func (c *Client) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("validation error: session id must be non-empty")
	}

	var out Session
	if err := c.call(ctx, http.MethodGet, "/v1/checkout/sessions/"+sessionID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) call(ctx context.Context, method, path string, in, out interface{}) error {
	if c == nil || c.httpClient == nil {
		return fmt.Errorf("paygate client is not initialized")
	}
	if strings.TrimSpace(c.config.BaseURL) == "" {
		return fmt.Errorf("paygate config error: base_url is empty")
	}
	if strings.TrimSpace(c.config.MerchantID) == "" {
		return fmt.Errorf("paygate config error: merchant_id is empty")
	}

	var body io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode paygate request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + path

	timeout := c.config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("paygate api call failed: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.SecretKey)
	httpReq.Header.Set("X-Merchant-ID", c.config.MerchantID)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("paygate api call failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("paygate api call failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("paygate api returned non-2xx status: %d, body: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse paygate response: %w", err)
	}
	return nil
}
