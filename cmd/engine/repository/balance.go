package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/beehive/membership/cmd/engine/models"
	"github.com/beehive/membership/common/db"
)

// BalanceRepository handles database operations for user balances
type BalanceRepository struct {
	q db.Querier
}

// NewBalanceRepository creates a new balance repository
func NewBalanceRepository(q db.Querier) *BalanceRepository {
	return &BalanceRepository{q: q}
}

// Get returns a wallet's balance, or (nil, nil) when the wallet has no
// balance row yet.
func (r *BalanceRepository) Get(ctx context.Context, wallet string) (*models.UserBalance, error) {
	query := `
		SELECT wallet_address, usdc_claimable, usdc_pending, usdc_claimed_total,
			bcc_transferable, bcc_locked, total_withdrawn, updated_at
		FROM user_balances
		WHERE wallet_address = $1
	`

	balance := &models.UserBalance{}
	err := r.q.QueryRow(ctx, query, wallet).Scan(
		&balance.WalletAddress,
		&balance.USDCClaimable,
		&balance.USDCPending,
		&balance.USDCClaimedTotal,
		&balance.BCCTransferable,
		&balance.BCCLocked,
		&balance.TotalWithdrawn,
		&balance.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	return balance, nil
}

// Ensure creates a zero balance row if the wallet has none.
func (r *BalanceRepository) Ensure(ctx context.Context, wallet string) error {
	query := `
		INSERT INTO user_balances (wallet_address)
		VALUES ($1)
		ON CONFLICT (wallet_address) DO NOTHING
	`

	if _, err := r.q.Exec(ctx, query, wallet); err != nil {
		return fmt.Errorf("failed to ensure balance: %w", err)
	}

	return nil
}

// AdjustUSDC applies relative deltas to the USDC columns. Negative
// results violate the schema CHECK and roll the transaction back.
func (r *BalanceRepository) AdjustUSDC(ctx context.Context, wallet string, claimable, pending, claimedTotal int64) error {
	query := `
		UPDATE user_balances
		SET usdc_claimable = usdc_claimable + $2,
		    usdc_pending = usdc_pending + $3,
		    usdc_claimed_total = usdc_claimed_total + $4,
		    updated_at = now()
		WHERE wallet_address = $1
	`

	tag, err := r.q.Exec(ctx, query, wallet, claimable, pending, claimedTotal)
	if err != nil {
		return fmt.Errorf("failed to adjust usdc balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no balance row for wallet %s", wallet)
	}

	return nil
}

// AdjustBCC applies relative deltas to the BCC columns.
func (r *BalanceRepository) AdjustBCC(ctx context.Context, wallet string, transferable, locked int64) error {
	query := `
		UPDATE user_balances
		SET bcc_transferable = bcc_transferable + $2,
		    bcc_locked = bcc_locked + $3,
		    updated_at = now()
		WHERE wallet_address = $1
	`

	tag, err := r.q.Exec(ctx, query, wallet, transferable, locked)
	if err != nil {
		return fmt.Errorf("failed to adjust bcc balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no balance row for wallet %s", wallet)
	}

	return nil
}

// ReleaseBCC unlocks up to amount from locked into transferable and
// returns how much actually moved. Capped at the locked balance so
// release never mints tokens.
func (r *BalanceRepository) ReleaseBCC(ctx context.Context, wallet string, amount int64) (int64, error) {
	var before int64
	err := r.q.QueryRow(ctx,
		`SELECT bcc_locked FROM user_balances WHERE wallet_address = $1 FOR UPDATE`, wallet,
	).Scan(&before)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("no balance row for wallet %s", wallet)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read locked balance: %w", err)
	}

	released := amount
	if released > before {
		released = before
	}
	if released <= 0 {
		return 0, nil
	}

	if err := r.AdjustBCC(ctx, wallet, released, -released); err != nil {
		return 0, err
	}

	return released, nil
}
