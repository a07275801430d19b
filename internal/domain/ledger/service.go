package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/rs/zerolog/log"
)

// Service wraps ledger writes with validation and logging
type Service struct {
	repo *Repository
}

// NewService creates ledger service
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Spend debits credits for a metered action
func (s *Service) Spend(ctx context.Context, userID uuid.UUID, amount int, description string, metadata types.JSONText) (*Transaction, error) {
	t, err := s.repo.Spend(ctx, userID, amount, description, metadata)
	if err != nil {
		return nil, err
	}
	log.Info().Str("user_id", userID.String()).Int("amount", amount).Str("transaction_id", t.ID.String()).Msg("usage debit applied")
	return t, nil
}

// Grant credits a trial or adjustment amount
func (s *Service) Grant(ctx context.Context, userID uuid.UUID, amount int, txType Type, description string) (*Transaction, error) {
	t, err := s.repo.Grant(ctx, userID, amount, txType, description, nil)
	if err != nil {
		return nil, err
	}
	log.Info().Str("user_id", userID.String()).Int("amount", amount).Str("type", string(txType)).Msg("credit grant applied")
	return t, nil
}

// Balance returns the user's derived balance
func (s *Service) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.Balance(ctx, userID)
}
