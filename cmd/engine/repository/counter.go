package repository

import (
	"context"
	"fmt"

	"github.com/beehive/membership/common/db"
)

// CounterRepository handles the named global counters
type CounterRepository struct {
	q db.Querier
}

// NewCounterRepository creates a new counter repository
func NewCounterRepository(q db.Querier) *CounterRepository {
	return &CounterRepository{q: q}
}

// NextActivationSequence atomically increments and returns the global
// activation sequence.
func (r *CounterRepository) NextActivationSequence(ctx context.Context) (int64, error) {
	return r.increment(ctx, "activation_sequence")
}

// IncrementActivatedMembers bumps the activated-member count and returns
// the new value, which selects the BCC phase.
func (r *CounterRepository) IncrementActivatedMembers(ctx context.Context) (int64, error) {
	return r.increment(ctx, "activated_members")
}

// ActivatedMembers reads the current activated-member count.
func (r *CounterRepository) ActivatedMembers(ctx context.Context) (int64, error) {
	var value int64
	err := r.q.QueryRow(ctx, `SELECT value FROM global_counters WHERE name = $1`, "activated_members").Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("failed to read counter: %w", err)
	}

	return value, nil
}

func (r *CounterRepository) increment(ctx context.Context, name string) (int64, error) {
	query := `
		UPDATE global_counters SET value = value + 1
		WHERE name = $1
		RETURNING value
	`

	var value int64
	if err := r.q.QueryRow(ctx, query, name).Scan(&value); err != nil {
		return 0, fmt.Errorf("failed to increment counter %s: %w", name, err)
	}

	return value, nil
}
