package balance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/wordsmith/wordsmith-api/internal/domain/ledger"
)

const queryTimeout = 3 * time.Second

// Repository reads derived balance data from the ledger. It never writes.
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates balance repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Current returns the user's balance as a sum over the ledger
func (r *Repository) Current(ctx context.Context, userID uuid.UUID) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var balance int
	err := r.db.GetContext(ctx, &balance,
		`SELECT COALESCE(SUM(amount), 0) FROM credit_transactions WHERE user_id = $1`, userID)
	return balance, err
}

// Summarize aggregates the user's ledger activity, optionally limited to
// transactions at or after since.
func (r *Repository) Summarize(ctx context.Context, userID uuid.UUID, since *time.Time) (*Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT
			COALESCE(SUM(amount), 0) AS balance,
			COALESCE(SUM(amount) FILTER (WHERE amount > 0), 0) AS total_credited,
			COALESCE(-SUM(amount) FILTER (WHERE amount < 0), 0) AS total_consumed
		FROM credit_transactions
		WHERE user_id = $1`
	args := []interface{}{userID}
	if since != nil {
		query += ` AND created_at >= $2`
		args = append(args, *since)
	}

	var summary Summary
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(
		&summary.Balance, &summary.TotalCredited, &summary.TotalConsumed); err != nil {
		return nil, err
	}

	countQuery := `SELECT type, COUNT(*) FROM credit_transactions WHERE user_id = $1`
	if since != nil {
		countQuery += ` AND created_at >= $2`
	}
	countQuery += ` GROUP BY type`

	rows, err := r.db.QueryxContext(ctx, countQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summary.CountsByType = make(map[string]int)
	for rows.Next() {
		var txType string
		var count int
		if err := rows.Scan(&txType, &count); err != nil {
			return nil, err
		}
		summary.CountsByType[txType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	summary.Since = since
	return &summary, nil
}

// ListTransactions returns the user's ledger entries, newest first
func (r *Repository) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*ledger.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	transactions := []*ledger.Transaction{}
	err := r.db.SelectContext(ctx, &transactions,
		`SELECT * FROM credit_transactions WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	return transactions, err
}
