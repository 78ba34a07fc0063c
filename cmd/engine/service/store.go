package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/beehive/membership/cmd/engine/models"
)

// Store is the persistence surface the services run on. The repository
// package provides the Postgres implementation; tests substitute an
// in-memory fake. InTx yields a Store bound to one transaction so a
// reward status change and its balance delta always commit together.
type Store interface {
	Members() MemberStore
	Placements() PlacementStore
	Rewards() RewardStore
	Timers() TimerStore
	Balances() BalanceStore
	Counters() CounterStore

	InTx(ctx context.Context, fn func(Store) error) error
}

// MemberStore reads and mutates member rows. Lookups return (nil, nil)
// when the wallet is unknown.
type MemberStore interface {
	Get(ctx context.Context, wallet string) (*models.Member, error)
	Create(ctx context.Context, member *models.Member) error
	SetLevel(ctx context.Context, wallet string, level int) error
	SetActivation(ctx context.Context, wallet string, sequence int64, at time.Time) error

	// AddLevel records ownership of a level. Returns false when the
	// member already owns it, which is how retried activations are
	// detected.
	AddLevel(ctx context.Context, wallet string, level int, at time.Time) (bool, error)
	LevelsOwned(ctx context.Context, wallet string) ([]int, error)
}

// PlacementStore reads the placement tree written by the external
// placement process.
type PlacementStore interface {
	// ByMember returns the member's own placements, one per ancestor
	// matrix, ordered by layer ascending (nearest ancestor first).
	ByMember(ctx context.Context, wallet string) ([]models.Placement, error)

	// DirectReferralCount counts layer-1 occupants of the wallet's own
	// matrix.
	DirectReferralCount(ctx context.Context, wallet string) (int, error)
}

// RewardStore owns layer_rewards rows.
type RewardStore interface {
	// Insert creates a reward, returning false when the idempotency
	// tuple already exists.
	Insert(ctx context.Context, reward *models.LayerReward) (bool, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.LayerReward, error)
	CountForRecipientLayer(ctx context.Context, recipient string, layer int) (int, error)

	// ListByRecipient returns rewards newest first. An empty status
	// matches all statuses; limit <= 0 means no limit.
	ListByRecipient(ctx context.Context, recipient string, status models.RewardStatus, limit int) ([]models.LayerReward, error)

	// ListPendingReady returns the recipient's pending rewards whose
	// required level is now met, for promotion after an upgrade.
	ListPendingReady(ctx context.Context, recipient string, level int) ([]models.LayerReward, error)

	MarkClaimable(ctx context.Context, id uuid.UUID) error
	MarkClaimed(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkExpired(ctx context.Context, id uuid.UUID) error
	MarkRolledUp(ctx context.Context, id uuid.UUID) error
}

// TimerStore owns countdown_timers rows.
type TimerStore interface {
	Create(ctx context.Context, timer *models.CountdownTimer) error
	ActiveByReward(ctx context.Context, rewardID uuid.UUID) (*models.CountdownTimer, error)
	Deactivate(ctx context.Context, rewardID uuid.UUID) error

	// DueBatch returns up to limit active timers whose end time has
	// passed, oldest first.
	DueBatch(ctx context.Context, now time.Time, limit int) ([]models.CountdownTimer, error)
}

// BalanceStore owns user_balances rows. Adjustments are relative deltas
// applied in SQL so concurrent writers never lose updates.
type BalanceStore interface {
	Get(ctx context.Context, wallet string) (*models.UserBalance, error)
	Ensure(ctx context.Context, wallet string) error
	AdjustUSDC(ctx context.Context, wallet string, claimable, pending, claimedTotal int64) error
	AdjustBCC(ctx context.Context, wallet string, transferable, locked int64) error

	// ReleaseBCC moves up to amount from locked to transferable and
	// returns how much actually moved.
	ReleaseBCC(ctx context.Context, wallet string, amount int64) (int64, error)
}

// CounterStore owns the named global counters.
type CounterStore interface {
	NextActivationSequence(ctx context.Context) (int64, error)
	IncrementActivatedMembers(ctx context.Context) (int64, error)
	ActivatedMembers(ctx context.Context) (int64, error)
}
