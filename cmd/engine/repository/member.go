package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/beehive/membership/cmd/engine/models"
	"github.com/beehive/membership/common/db"
)

// MemberRepository handles database operations for members
type MemberRepository struct {
	q db.Querier
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(q db.Querier) *MemberRepository {
	return &MemberRepository{q: q}
}

// Get retrieves a member by wallet, returning (nil, nil) when unknown.
func (r *MemberRepository) Get(ctx context.Context, wallet string) (*models.Member, error) {
	query := `
		SELECT wallet_address, current_level, activation_sequence, activation_time, created_at, updated_at
		FROM members
		WHERE wallet_address = $1
	`

	member := &models.Member{}
	err := r.q.QueryRow(ctx, query, wallet).Scan(
		&member.WalletAddress,
		&member.CurrentLevel,
		&member.ActivationSequence,
		&member.ActivationTime,
		&member.CreatedAt,
		&member.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	return member, nil
}

// Create inserts a new member row
func (r *MemberRepository) Create(ctx context.Context, member *models.Member) error {
	query := `
		INSERT INTO members (wallet_address, current_level)
		VALUES ($1, $2)
		ON CONFLICT (wallet_address) DO NOTHING
	`

	if _, err := r.q.Exec(ctx, query, member.WalletAddress, member.CurrentLevel); err != nil {
		return fmt.Errorf("failed to create member: %w", err)
	}

	return nil
}

// SetLevel raises current_level. The GREATEST guard keeps the level
// monotonic even if activations land out of order.
func (r *MemberRepository) SetLevel(ctx context.Context, wallet string, level int) error {
	query := `
		UPDATE members
		SET current_level = GREATEST(current_level, $2), updated_at = now()
		WHERE wallet_address = $1
	`

	if _, err := r.q.Exec(ctx, query, wallet, level); err != nil {
		return fmt.Errorf("failed to set member level: %w", err)
	}

	return nil
}

// SetActivation stamps the first-activation sequence and time once.
func (r *MemberRepository) SetActivation(ctx context.Context, wallet string, sequence int64, at time.Time) error {
	query := `
		UPDATE members
		SET activation_sequence = $2, activation_time = $3, updated_at = now()
		WHERE wallet_address = $1 AND activation_sequence IS NULL
	`

	if _, err := r.q.Exec(ctx, query, wallet, sequence, at); err != nil {
		return fmt.Errorf("failed to set member activation: %w", err)
	}

	return nil
}

// AddLevel records level ownership, returning false when the member
// already owns the level.
func (r *MemberRepository) AddLevel(ctx context.Context, wallet string, level int, at time.Time) (bool, error) {
	query := `
		INSERT INTO member_levels (wallet_address, level, activated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (wallet_address, level) DO NOTHING
	`

	tag, err := r.q.Exec(ctx, query, wallet, level, at)
	if err != nil {
		return false, fmt.Errorf("failed to add member level: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// LevelsOwned returns the member's owned levels in ascending order.
func (r *MemberRepository) LevelsOwned(ctx context.Context, wallet string) ([]int, error) {
	query := `
		SELECT level FROM member_levels
		WHERE wallet_address = $1
		ORDER BY level
	`

	rows, err := r.q.Query(ctx, query, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to list member levels: %w", err)
	}
	defer rows.Close()

	var levels []int
	for rows.Next() {
		var level int
		if err := rows.Scan(&level); err != nil {
			return nil, fmt.Errorf("failed to scan member level: %w", err)
		}
		levels = append(levels, level)
	}

	return levels, rows.Err()
}
