package ledger

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
)

// Type defines supported credit transaction types
type Type string

const (
	TypePurchase   Type = "purchase"
	TypeUsage      Type = "usage"
	TypeTrial      Type = "trial"
	TypeAdjustment Type = "adjustment"
)

// Valid reports whether t is a known transaction type
func (t Type) Valid() bool {
	switch t {
	case TypePurchase, TypeUsage, TypeTrial, TypeAdjustment:
		return true
	}
	return false
}

// Transaction is a ledger row. Rows are immutable once created; per-user
// ordering is by creation time and is never rewritten. A user's balance is
// the sum of amounts over their rows, never a stored column.
type Transaction struct {
	ID                uuid.UUID      `db:"id" json:"id"`
	UserID            uuid.UUID      `db:"user_id" json:"user_id"`
	Amount            int            `db:"amount" json:"amount"`
	Type              Type           `db:"type" json:"type"`
	Description       string         `db:"description" json:"description"`
	ExternalPaymentID sql.NullString `db:"external_payment_id" json:"external_payment_id,omitempty"`
	Metadata          types.JSONText `db:"metadata" json:"metadata,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
}

// PurchaseMetadata is the shape stored on purchase-type rows. PurchaseID is
// the idempotency key that prevents a confirmed payment from being applied
// twice.
type PurchaseMetadata struct {
	PurchaseID string `json:"purchase_id"`
	SessionID  string `json:"session_id,omitempty"`
}
