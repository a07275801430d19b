package balance

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wordsmith/wordsmith-api/internal/domain/ledger"
)

// Service provides read-only balance queries
type Service struct {
	repo *Repository
}

// NewService creates balance service
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Current returns the user's credit balance
func (s *Service) Current(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.Current(ctx, userID)
}

// Summarize returns aggregate ledger activity for the user
func (s *Service) Summarize(ctx context.Context, userID uuid.UUID, since *time.Time) (*Summary, error) {
	return s.repo.Summarize(ctx, userID, since)
}

// ListTransactions returns the user's ledger history, newest first
func (s *Service) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*ledger.Transaction, error) {
	return s.repo.ListTransactions(ctx, userID, limit, offset)
}
