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

// TimerRepository handles database operations for countdown timers
type TimerRepository struct {
	q db.Querier
}

// NewTimerRepository creates a new timer repository
func NewTimerRepository(q db.Querier) *TimerRepository {
	return &TimerRepository{q: q}
}

// Create inserts a timer for a pending reward
func (r *TimerRepository) Create(ctx context.Context, timer *models.CountdownTimer) error {
	query := `
		INSERT INTO countdown_timers (id, reward_id, start_time, end_time, auto_action, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.q.Exec(ctx, query,
		timer.ID,
		timer.RewardID,
		timer.StartTime,
		timer.EndTime,
		timer.AutoAction,
		timer.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to create timer: %w", err)
	}

	return nil
}

// ActiveByReward returns the reward's active timer, or (nil, nil) when
// none exists.
func (r *TimerRepository) ActiveByReward(ctx context.Context, rewardID uuid.UUID) (*models.CountdownTimer, error) {
	query := `
		SELECT id, reward_id, start_time, end_time, auto_action, is_active
		FROM countdown_timers
		WHERE reward_id = $1 AND is_active
	`

	timer := &models.CountdownTimer{}
	err := r.q.QueryRow(ctx, query, rewardID).Scan(
		&timer.ID,
		&timer.RewardID,
		&timer.StartTime,
		&timer.EndTime,
		&timer.AutoAction,
		&timer.IsActive,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get timer: %w", err)
	}

	return timer, nil
}

// Deactivate turns off the reward's timer. Already-inactive timers are
// a no-op.
func (r *TimerRepository) Deactivate(ctx context.Context, rewardID uuid.UUID) error {
	query := `UPDATE countdown_timers SET is_active = FALSE WHERE reward_id = $1`

	if _, err := r.q.Exec(ctx, query, rewardID); err != nil {
		return fmt.Errorf("failed to deactivate timer: %w", err)
	}

	return nil
}

// DueBatch returns up to limit active timers past their end time, oldest
// first, so sweeps make progress even when new timers keep expiring.
func (r *TimerRepository) DueBatch(ctx context.Context, now time.Time, limit int) ([]models.CountdownTimer, error) {
	query := `
		SELECT id, reward_id, start_time, end_time, auto_action, is_active
		FROM countdown_timers
		WHERE is_active AND end_time < $1
		ORDER BY end_time
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list due timers: %w", err)
	}
	defer rows.Close()

	var timers []models.CountdownTimer
	for rows.Next() {
		var timer models.CountdownTimer
		if err := rows.Scan(&timer.ID, &timer.RewardID, &timer.StartTime, &timer.EndTime, &timer.AutoAction, &timer.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan timer: %w", err)
		}
		timers = append(timers, timer)
	}

	return timers, rows.Err()
}
