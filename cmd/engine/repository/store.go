package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/beehive/membership/cmd/engine/service"
	"github.com/beehive/membership/common/db"
)

// Store bundles the repositories over one Querier and satisfies
// service.Store. A Store built by NewStore runs on the pool; InTx hands
// the callback a Store bound to a single transaction.
type Store struct {
	db *db.DB
	q  db.Querier
}

// NewStore creates the Postgres-backed store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database, q: database.Pool}
}

func (s *Store) Members() service.MemberStore { return NewMemberRepository(s.q) }

func (s *Store) Placements() service.PlacementStore { return NewPlacementRepository(s.q) }

func (s *Store) Rewards() service.RewardStore { return NewRewardRepository(s.q) }

func (s *Store) Timers() service.TimerStore { return NewTimerRepository(s.q) }

func (s *Store) Balances() service.BalanceStore { return NewBalanceRepository(s.q) }

func (s *Store) Counters() service.CounterStore { return NewCounterRepository(s.q) }

// InTx runs fn against a transaction-bound Store. Nested calls reuse the
// surrounding transaction.
func (s *Store) InTx(ctx context.Context, fn func(service.Store) error) error {
	if s.db == nil {
		return fn(s)
	}

	return s.db.WithTx(ctx, func(tx pgx.Tx) error {
		return fn(&Store{q: tx})
	})
}
