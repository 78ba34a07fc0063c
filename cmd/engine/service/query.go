package service

import (
	"context"

	"github.com/beehive/membership/cmd/engine/models"
)

// QueryService serves read-only views over balances and reward history.
type QueryService struct {
	store Store
}

// NewQueryService creates a new query service
func NewQueryService(store Store) *QueryService {
	return &QueryService{store: store}
}

// GetBalance returns the wallet's balance, zero-valued when the wallet
// has never held anything.
func (s *QueryService) GetBalance(ctx context.Context, wallet string) (*models.UserBalance, error) {
	wallet = models.NormalizeWallet(wallet)

	balance, err := s.store.Balances().Get(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		return &models.UserBalance{WalletAddress: wallet}, nil
	}

	return balance, nil
}

// ListRewards returns the wallet's rewards, newest first, optionally
// filtered by status and capped at limit (<= 0 for all).
func (s *QueryService) ListRewards(ctx context.Context, wallet string, status models.RewardStatus, limit int) ([]models.LayerReward, error) {
	wallet = models.NormalizeWallet(wallet)
	return s.store.Rewards().ListByRecipient(ctx, wallet, status, limit)
}
