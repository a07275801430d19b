package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

const queryTimeout = 3 * time.Second

// Repository provides append-only access to the credit ledger
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates ledger repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Append inserts one ledger row. Rows are never updated or deleted. A
// partial unique index on purchase-type rows backs the one-transaction-per-
// purchase invariant; violations map to ErrDuplicatePurchaseTx.
func (r *Repository) Append(ctx context.Context, t *Transaction) error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if t.Amount == 0 {
		return ErrInvalidAmount
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if len(t.Metadata) == 0 {
		t.Metadata = types.JSONText(`{}`)
	}

	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO credit_transactions (id, user_id, amount, type, description, external_payment_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, t.ID, t.UserID, t.Amount, string(t.Type), t.Description, t.ExternalPaymentID, t.Metadata).Scan(&t.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicatePurchaseTx
		}
		return fmt.Errorf("append transaction: %w", err)
	}
	return nil
}

// AppendPurchase appends the single purchase-type row for a confirmed
// purchase, embedding the purchase id as the idempotency key.
func (r *Repository) AppendPurchase(ctx context.Context, userID uuid.UUID, credits int, purchaseID uuid.UUID, sessionID, externalPaymentID, description string) (*Transaction, error) {
	if credits <= 0 {
		return nil, ErrInvalidAmount
	}

	meta, err := json.Marshal(PurchaseMetadata{
		PurchaseID: purchaseID.String(),
		SessionID:  sessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("encode purchase metadata: %w", err)
	}

	t := &Transaction{
		UserID:            userID,
		Amount:            credits,
		Type:              TypePurchase,
		Description:       description,
		ExternalPaymentID: sql.NullString{String: externalPaymentID, Valid: externalPaymentID != ""},
		Metadata:          types.JSONText(meta),
	}
	if err := r.Append(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// FindByPurchaseID returns the purchase-type row referencing the given
// purchase id. This is the authoritative idempotency probe: the row's
// existence, not the purchase status, decides whether credits were applied.
func (r *Repository) FindByPurchaseID(ctx context.Context, purchaseID uuid.UUID) (*Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var t Transaction
	err := r.db.GetContext(ctx, &t, `
		SELECT * FROM credit_transactions
		WHERE type = 'purchase' AND metadata->>'purchase_id' = $1
		LIMIT 1
	`, purchaseID.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find transaction by purchase: %w", err)
	}
	return &t, nil
}

// Balance computes the user's balance as the sum over their ledger rows
func (r *Repository) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var balance int
	err := r.db.GetContext(ctx, &balance, `
		SELECT COALESCE(SUM(amount), 0) FROM credit_transactions WHERE user_id = $1
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("compute balance: %w", err)
	}
	return balance, nil
}

// Spend appends a negative usage row if the derived balance covers the
// amount. A per-user advisory lock serializes concurrent debits; the balance
// is recomputed inside the transaction so it can never go negative.
func (r *Repository) Spend(ctx context.Context, userID uuid.UUID, amount int, description string, metadata types.JSONText) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, userID.String()); err != nil {
		return nil, fmt.Errorf("lock user ledger: %w", err)
	}

	var balance int
	if err := tx.GetContext(ctx, &balance, `
		SELECT COALESCE(SUM(amount), 0) FROM credit_transactions WHERE user_id = $1
	`, userID); err != nil {
		return nil, fmt.Errorf("compute balance: %w", err)
	}
	if balance < amount {
		return nil, ErrInsufficientCredits
	}

	if len(metadata) == 0 {
		metadata = types.JSONText(`{}`)
	}

	t := &Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      -amount,
		Type:        TypeUsage,
		Description: description,
		Metadata:    metadata,
	}
	if err := tx.QueryRowxContext(ctx, `
		INSERT INTO credit_transactions (id, user_id, amount, type, description, metadata)
		VALUES ($1, $2, $3, 'usage', $4, $5)
		RETURNING created_at
	`, t.ID, t.UserID, t.Amount, t.Description, t.Metadata).Scan(&t.CreatedAt); err != nil {
		return nil, fmt.Errorf("append usage transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return t, nil
}

// Grant appends a positive trial or adjustment row
func (r *Repository) Grant(ctx context.Context, userID uuid.UUID, amount int, txType Type, description string, metadata types.JSONText) (*Transaction, error) {
	if txType != TypeTrial && txType != TypeAdjustment {
		return nil, ErrInvalidType
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	t := &Transaction{
		UserID:      userID,
		Amount:      amount,
		Type:        txType,
		Description: description,
		Metadata:    metadata,
	}
	if err := r.Append(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}
