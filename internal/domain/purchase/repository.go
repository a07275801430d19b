package purchase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

const queryTimeout = 3 * time.Second

// Repository provides purchase persistence
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates purchase repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new pending purchase. The caller supplies the id.
func (r *Repository) Create(ctx context.Context, p *Purchase) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if len(p.Metadata) == 0 {
		p.Metadata = types.JSONText(`{}`)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO purchases (id, user_id, external_session_id, amount_cents, credits_purchased, status, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 'pending', $6, NOW(), NOW())
	`, p.ID, p.UserID, p.ExternalSessionID, p.AmountCents, p.CreditsPurchased, p.Metadata)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			if pqErr.Constraint == "purchases_external_session_id_key" {
				return ErrDuplicateSession
			}
			return ErrDuplicateID
		}
		return fmt.Errorf("create purchase: %w", err)
	}

	p.Status = StatusPending
	return nil
}

// GetByID retrieves a purchase by internal id
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Purchase, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var p Purchase
	err := r.db.GetContext(ctx, &p, `SELECT * FROM purchases WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get purchase: %w", err)
	}
	return &p, nil
}

// GetByExternalSessionID retrieves a purchase by the provider's session id
func (r *Repository) GetByExternalSessionID(ctx context.Context, sessionID string) (*Purchase, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var p Purchase
	err := r.db.GetContext(ctx, &p, `SELECT * FROM purchases WHERE external_session_id = $1`, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get purchase by session: %w", err)
	}
	return &p, nil
}

// TransitionToPaid flips a pending purchase to paid. Conditional on the
// stored status still being pending; at most one concurrent caller wins.
// Returns ErrAlreadyPaid when the row exists but is no longer pending.
func (r *Repository) TransitionToPaid(ctx context.Context, id uuid.UUID, externalPaymentID string, metadataPatch types.JSONText) (*Purchase, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if len(metadataPatch) == 0 {
		metadataPatch = types.JSONText(`{}`)
	}

	var p Purchase
	err := r.db.QueryRowxContext(ctx, `
		UPDATE purchases
		SET status = 'paid',
		    external_payment_id = $2,
		    metadata = metadata || $3::jsonb,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING *
	`, id, externalPaymentID, metadataPatch).StructScan(&p)
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transition purchase: %w", err)
	}

	// No pending row matched: either the purchase is unknown or another
	// caller already flipped it.
	existing, lookupErr := r.GetByID(ctx, id)
	if lookupErr != nil {
		return nil, lookupErr
	}
	return existing, ErrAlreadyPaid
}

// ListByUser returns purchase history for a user, newest first
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Purchase, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	purchases := make([]Purchase, 0)
	err := r.db.SelectContext(ctx, &purchases, `
		SELECT * FROM purchases
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	return purchases, nil
}
