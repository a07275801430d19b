package purchase

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
)

// Status represents purchase status
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusFailed  Status = "failed"
)

// Purchase records one attempt to buy a credit package through the payment
// provider. The id is minted by the caller before the provider session is
// created so it can be embedded in that session's metadata for
// cross-referencing. Rows are never deleted; pending -> paid is the only
// transition and paid is terminal.
type Purchase struct {
	ID                uuid.UUID      `db:"id" json:"id"`
	UserID            uuid.UUID      `db:"user_id" json:"user_id"`
	ExternalSessionID string         `db:"external_session_id" json:"external_session_id"`
	AmountCents       int64          `db:"amount_cents" json:"amount_cents"`
	CreditsPurchased  int            `db:"credits_purchased" json:"credits_purchased"`
	Status            Status         `db:"status" json:"status"`
	ExternalPaymentID sql.NullString `db:"external_payment_id" json:"external_payment_id,omitempty"`
	Metadata          types.JSONText `db:"metadata" json:"metadata,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// IsPaid checks if the purchase has been applied to the ledger
func (p *Purchase) IsPaid() bool {
	return p.Status == StatusPaid
}
