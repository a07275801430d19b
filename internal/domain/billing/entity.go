package billing

import (
	"context"

	"github.com/google/uuid"

	"github.com/wordsmith/wordsmith-api/internal/pkg/paygate"
)

// TrustLevel identifies the kind of caller invoking reconciliation. All
// triggers go through the same Reconcile operation so idempotency and
// authorization cannot drift between entry points.
type TrustLevel string

const (
	// TrustSystem marks signature-verified provider notifications. They
	// skip the ownership check and may trust the verified payload.
	TrustSystem TrustLevel = "system"

	// TrustUser marks user-initiated confirmation requests. Ownership is
	// enforced and settlement is re-derived from the provider, never from
	// a client-supplied flag.
	TrustUser TrustLevel = "user"
)

// ConfirmFunc asks the payment source of truth whether a session has
// settled. Returns settled and the provider's payment id.
type ConfirmFunc func(ctx context.Context, sessionID string) (settled bool, paymentID string, err error)

// ReconcileResult is the outcome of a reconciliation attempt. Credited is
// true only on the single call that performed the ledger append.
type ReconcileResult struct {
	Credited      bool   `json:"credited"`
	CreditsAdded  int    `json:"credits_added"`
	TransactionID string `json:"transaction_id"`
}

// CheckoutSession is a freshly initiated purchase attempt
type CheckoutSession struct {
	PurchaseID  uuid.UUID `json:"purchase_id"`
	SessionID   string    `json:"session_id"`
	CheckoutURL string    `json:"checkout_url"`
	Credits     int       `json:"credits"`
	AmountCents int64     `json:"amount_cents"`
}

// Gateway is the slice of the paygate client the engine depends on
type Gateway interface {
	CreateSession(ctx context.Context, req paygate.CreateSessionRequest) (*paygate.CreateSessionResponse, error)
	GetSession(ctx context.Context, sessionID string) (*paygate.Session, error)
}
