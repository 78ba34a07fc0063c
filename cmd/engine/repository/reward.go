package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/beehive/membership/cmd/engine/models"
	"github.com/beehive/membership/common/db"
)

const rewardColumns = `id, recipient_wallet, triggering_member_wallet, matrix_layer,
		triggering_nft_level, reward_amount_cents, required_level, status,
		created_at, expires_at, claimed_at, rollup_reason`

// RewardRepository handles database operations for layer rewards
type RewardRepository struct {
	q db.Querier
}

// NewRewardRepository creates a new reward repository
func NewRewardRepository(q db.Querier) *RewardRepository {
	return &RewardRepository{q: q}
}

// Insert creates a reward row. A retried activation event hits the
// unique trigger index and comes back false without error.
func (r *RewardRepository) Insert(ctx context.Context, reward *models.LayerReward) (bool, error) {
	query := `
		INSERT INTO layer_rewards (id, recipient_wallet, triggering_member_wallet, matrix_layer,
			triggering_nft_level, reward_amount_cents, required_level, status,
			created_at, expires_at, rollup_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (triggering_member_wallet, recipient_wallet, matrix_layer, triggering_nft_level)
			DO NOTHING
	`

	tag, err := r.q.Exec(ctx, query,
		reward.ID,
		reward.RecipientWallet,
		reward.TriggeringMemberWallet,
		reward.MatrixLayer,
		reward.TriggeringNFTLevel,
		reward.RewardAmountCents,
		reward.RequiredLevel,
		reward.Status,
		reward.CreatedAt,
		reward.ExpiresAt,
		reward.RollupReason,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert reward: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// GetForUpdate loads a reward with a row lock, returning (nil, nil) when
// it does not exist. Call inside a transaction.
func (r *RewardRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.LayerReward, error) {
	query := `SELECT ` + rewardColumns + ` FROM layer_rewards WHERE id = $1 FOR UPDATE`

	reward := &models.LayerReward{}
	err := scanReward(r.q.QueryRow(ctx, query, id), reward)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reward: %w", err)
	}

	return reward, nil
}

// CountForRecipientLayer returns how many rewards the recipient has
// accrued on a layer, in any status. The next reward's ordinal is this
// count plus one.
func (r *RewardRepository) CountForRecipientLayer(ctx context.Context, recipient string, layer int) (int, error) {
	query := `
		SELECT COUNT(*) FROM layer_rewards
		WHERE recipient_wallet = $1 AND matrix_layer = $2
	`

	var count int
	if err := r.q.QueryRow(ctx, query, recipient, layer).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rewards: %w", err)
	}

	return count, nil
}

// ListByRecipient returns the recipient's rewards, newest first. An
// empty status matches all statuses; limit <= 0 means no limit.
func (r *RewardRepository) ListByRecipient(ctx context.Context, recipient string, status models.RewardStatus, limit int) ([]models.LayerReward, error) {
	query := `
		SELECT ` + rewardColumns + `
		FROM layer_rewards
		WHERE recipient_wallet = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT NULLIF($3, 0)
	`

	if limit < 0 {
		limit = 0
	}

	rows, err := r.q.Query(ctx, query, recipient, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list rewards: %w", err)
	}
	defer rows.Close()

	return collectRewards(rows)
}

// ListPendingReady returns pending rewards whose required level is met
// at the given level, oldest first.
func (r *RewardRepository) ListPendingReady(ctx context.Context, recipient string, level int) ([]models.LayerReward, error) {
	query := `
		SELECT ` + rewardColumns + `
		FROM layer_rewards
		WHERE recipient_wallet = $1 AND status = 'pending' AND required_level <= $2
		ORDER BY created_at
		FOR UPDATE
	`

	rows, err := r.q.Query(ctx, query, recipient, level)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending rewards: %w", err)
	}
	defer rows.Close()

	return collectRewards(rows)
}

// MarkClaimable promotes a pending reward.
func (r *RewardRepository) MarkClaimable(ctx context.Context, id uuid.UUID) error {
	return r.transition(ctx, id, models.StatusPending, models.StatusClaimable,
		`UPDATE layer_rewards SET status = 'claimable', expires_at = NULL WHERE id = $1 AND status = 'pending'`)
}

// MarkClaimed finalizes a claimable reward.
func (r *RewardRepository) MarkClaimed(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE layer_rewards SET status = 'claimed', claimed_at = $2
		WHERE id = $1 AND status = 'claimable'
	`

	tag, err := r.q.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("failed to mark reward claimed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &models.InvalidStateTransitionError{To: models.StatusClaimed}
	}

	return nil
}

// MarkExpired expires a pending reward.
func (r *RewardRepository) MarkExpired(ctx context.Context, id uuid.UUID) error {
	return r.transition(ctx, id, models.StatusPending, models.StatusExpired,
		`UPDATE layer_rewards SET status = 'expired' WHERE id = $1 AND status = 'pending'`)
}

// MarkRolledUp closes out an expired reward whose claim right moved to
// an ancestor.
func (r *RewardRepository) MarkRolledUp(ctx context.Context, id uuid.UUID) error {
	return r.transition(ctx, id, models.StatusExpired, models.StatusRolledUp,
		`UPDATE layer_rewards SET status = 'rolled_up' WHERE id = $1 AND status = 'expired'`)
}

func (r *RewardRepository) transition(ctx context.Context, id uuid.UUID, from, to models.RewardStatus, query string) error {
	tag, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark reward %s: %w", to, err)
	}
	if tag.RowsAffected() == 0 {
		return &models.InvalidStateTransitionError{From: from, To: to}
	}

	return nil
}

func scanReward(row pgx.Row, reward *models.LayerReward) error {
	return row.Scan(
		&reward.ID,
		&reward.RecipientWallet,
		&reward.TriggeringMemberWallet,
		&reward.MatrixLayer,
		&reward.TriggeringNFTLevel,
		&reward.RewardAmountCents,
		&reward.RequiredLevel,
		&reward.Status,
		&reward.CreatedAt,
		&reward.ExpiresAt,
		&reward.ClaimedAt,
		&reward.RollupReason,
	)
}

func collectRewards(rows pgx.Rows) ([]models.LayerReward, error) {
	var rewards []models.LayerReward
	for rows.Next() {
		var reward models.LayerReward
		if err := scanReward(rows, &reward); err != nil {
			return nil, fmt.Errorf("failed to scan reward: %w", err)
		}
		rewards = append(rewards, reward)
	}

	return rewards, rows.Err()
}
