package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beehive/membership/cmd/engine/models"
	"github.com/beehive/membership/common/logger"
)

func newLifecycleService(store *fakeStore, clock clockwork.Clock) *LifecycleService {
	return NewLifecycleService(&LifecycleServiceOpts{
		Store:          store,
		Notifier:       NopNotifier{},
		Clock:          clock,
		Logger:         logger.New("error", "text"),
		SweepBatchSize: 200,
	})
}

func seedClaimable(t *testing.T, store *fakeStore, recipient string, amount int64) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	reward := &models.LayerReward{
		ID:                     uuid.New(),
		RecipientWallet:        recipient,
		TriggeringMemberWallet: "trigger-" + uuid.NewString(),
		MatrixLayer:            1,
		TriggeringNFTLevel:     1,
		RewardAmountCents:      amount,
		RequiredLevel:          1,
		Status:                 models.StatusClaimable,
	}
	inserted, err := store.Rewards().Insert(ctx, reward)
	require.NoError(t, err)
	require.True(t, inserted)
	require.NoError(t, store.Balances().Ensure(ctx, recipient))
	require.NoError(t, store.Balances().AdjustUSDC(ctx, recipient, amount, 0, 0))
	return reward.ID
}

func seedPending(t *testing.T, store *fakeStore, clock clockwork.Clock, recipient string, amount int64, requiredLevel int, window time.Duration) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	expires := clock.Now().UTC().Add(window)
	reward := &models.LayerReward{
		ID:                     uuid.New(),
		RecipientWallet:        recipient,
		TriggeringMemberWallet: "trigger-" + uuid.NewString(),
		MatrixLayer:            3,
		TriggeringNFTLevel:     3,
		RewardAmountCents:      amount,
		RequiredLevel:          requiredLevel,
		Status:                 models.StatusPending,
		ExpiresAt:              &expires,
	}
	inserted, err := store.Rewards().Insert(ctx, reward)
	require.NoError(t, err)
	require.True(t, inserted)
	require.NoError(t, store.Timers().Create(ctx, &models.CountdownTimer{
		ID:         uuid.New(),
		RewardID:   reward.ID,
		StartTime:  clock.Now().UTC(),
		EndTime:    expires,
		AutoAction: models.AutoActionExpire,
		IsActive:   true,
	}))
	require.NoError(t, store.Balances().Ensure(ctx, recipient))
	require.NoError(t, store.Balances().AdjustUSDC(ctx, recipient, 0, amount, 0))
	return reward.ID
}

func TestClaimThenRepeatClaim(t *testing.T) {
	store := newFakeStore()
	clock := clockwork.NewFakeClock()
	svc := newLifecycleService(store, clock)
	ctx := context.Background()

	id := seedClaimable(t, store, "alice", 150_00)

	result, err := svc.Claim(ctx, id, "alice")
	require.NoError(t, err)
	assert.Equal(t, OutcomeClaimed, result.Outcome)
	assert.Equal(t, int64(150_00), result.AmountCents)

	balance := store.balances["alice"]
	assert.Equal(t, int64(0), balance.USDCClaimable)
	assert.Equal(t, int64(150_00), balance.USDCClaimedTotal)
	assert.Equal(t, models.StatusClaimed, store.rewards[id].Status)
	require.NotNil(t, store.rewards[id].ClaimedAt)

	_, err = svc.Claim(ctx, id, "alice")
	assert.True(t, errors.Is(err, ErrAlreadyClaimed))
	assert.Equal(t, int64(150_00), store.balances["alice"].USDCClaimedTotal, "repeat claim must not credit again")
}

func TestClaimForbiddenAndUnknown(t *testing.T) {
	store := newFakeStore()
	clock := clockwork.NewFakeClock()
	svc := newLifecycleService(store, clock)
	ctx := context.Background()

	id := seedClaimable(t, store, "alice", 100_00)

	_, err := svc.Claim(ctx, id, "mallory")
	assert.True(t, errors.Is(err, ErrNotFoundOrForbidden))

	_, err = svc.Claim(ctx, uuid.New(), "alice")
	assert.True(t, errors.Is(err, ErrNotFoundOrForbidden))

	assert.Equal(t, models.StatusClaimable, store.rewards[id].Status, "failed claims must not mutate")
}

func TestClaimPendingReturnsCountdown(t *testing.T) {
	store := newFakeStore()
	clock := clockwork.NewFakeClock()
	svc := newLifecycleService(store, clock)
	ctx := context.Background()

	id := seedPending(t, store, clock, "alice", 200_00, 4, 72*time.Hour)
	clock.Advance(24 * time.Hour)

	result, err := svc.Claim(ctx, id, "alice")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotYetEligible, result.Outcome)
	assert.Equal(t, 4, result.RequiredLevel)
	assert.Equal(t, 48*time.Hour, result.RemainingTime)

	assert.Equal(t, models.StatusPending, store.rewards[id].Status)
	assert.Equal(t, int64(200_00), store.balances["alice"].USDCPending)
}

func TestClaimExpiredRewardIsConflict(t *testing.T) {
	store := newFakeStore()
	clock := clockwork.NewFakeClock()
	svc := newLifecycleService(store, clock)
	ctx := context.Background()

	id := seedPending(t, store, clock, "alice", 200_00, 4, 72*time.Hour)
	store.rewards[id].Status = models.StatusExpired

	var transition *models.InvalidStateTransitionError
	_, err := svc.Claim(ctx, id, "alice")
	require.ErrorAs(t, err, &transition)
	assert.Equal(t, models.StatusExpired, transition.From)
}

// An overdue pending reward with no qualifying ancestor expires and
// stays expired; the pending balance is released.
func TestSweepExpiresWithoutQualifier(t *testing.T) {
	store := newFakeStore()
	clock := clockwork.NewFakeClock()
	svc := newLifecycleService(store, clock)
	ctx := context.Background()

	store.seedMember("alice", 3)
	store.seedMember("weak", 2)
	store.seedPlacement("alice", "weak", 1, "L")

	id := seedPending(t, store, clock, "alice", 200_00, 4, 72*time.Hour)
	clock.Advance(73 * time.Hour)

	result, err := svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ExpiredCount)
	assert.Equal(t, 0, result.RolledUpCount)

	assert.Equal(t, models.StatusExpired, store.rewards[id].Status)
	assert.False(t, store.timers[id].IsActive)
	assert.Equal(t, int64(0), store.balances["alice"].USDCPending)
	assert.Len(t, store.rewards, 1, "no rollup reward must be created")
}

// Rollup picks the nearest ancestor meeting the reward's stored
// threshold, skipping closer ancestors below it.
func TestSweepRollsUpToNearestQualifier(t *testing.T) {
	store := newFakeStore()
	clock := clockwork.NewFakeClock()
	svc := newLifecycleService(store, clock)
	ctx := context.Background()

	store.seedMember("alice", 3)
	store.seedMember("near", 2)
	store.seedMember("mid", 5)
	store.seedMember("far", 9)
	store.seedPlacement("alice", "near", 1, "L")
	store.seedPlacement("alice", "mid", 2, "L.M")
	store.seedPlacement("alice", "far", 3, "L.M.R")

	id := seedPending(t, store, clock, "alice", 200_00, 4, 72*time.Hour)
	clock.Advance(73 * time.Hour)

	result, err := svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ExpiredCount)
	assert.Equal(t, 1, result.RolledUpCount)

	assert.Equal(t, models.StatusRolledUp, store.rewards[id].Status)
	assert.Equal(t, int64(0), store.balances["alice"].USDCPending)

	rollups, err := store.Rewards().ListByRecipient(ctx, "mid", "", 0)
	require.NoError(t, err)
	require.Len(t, rollups, 1, "the layer-2 ancestor qualifies first")
	rollup := rollups[0]
	assert.Equal(t, models.StatusClaimable, rollup.Status)
	assert.Equal(t, int64(200_00), rollup.RewardAmountCents)
	require.NotNil(t, rollup.RollupReason)
	assert.Contains(t, *rollup.RollupReason, id.String())

	assert.Equal(t, int64(200_00), store.balances["mid"].USDCClaimable)

	others, err := store.Rewards().ListByRecipient(ctx, "far", "", 0)
	require.NoError(t, err)
	assert.Empty(t, others, "further qualifiers are not considered once one is found")
}

// brokenTxStore simulates a database whose per-reward transactions keep
// failing while reads still work.
type brokenTxStore struct {
	*fakeStore
}

func (s *brokenTxStore) InTx(context.Context, func(Store) error) error {
	return errors.New("connection reset by peer")
}

// A reward whose transaction keeps failing keeps its timer and stays due,
// so the sweep must attempt it once, report the failure and return
// instead of re-fetching the same batch forever.
func TestSweepReturnsWhenEveryDueRewardFails(t *testing.T) {
	store := newFakeStore()
	clock := clockwork.NewFakeClock()
	svc := NewLifecycleService(&LifecycleServiceOpts{
		Store:          &brokenTxStore{store},
		Notifier:       NopNotifier{},
		Clock:          clock,
		Logger:         logger.New("error", "text"),
		SweepBatchSize: 1,
	})
	ctx := context.Background()

	id := seedPending(t, store, clock, "alice", 200_00, 4, 72*time.Hour)
	clock.Advance(73 * time.Hour)

	type sweepReturn struct {
		result *SweepResult
		err    error
	}
	done := make(chan sweepReturn, 1)
	go func() {
		result, err := svc.SweepExpired(ctx)
		done <- sweepReturn{result, err}
	}()

	select {
	case ret := <-done:
		require.NoError(t, ret.err)
		assert.Equal(t, 1, ret.result.FailedCount, "each failure is counted once per pass")
		assert.Equal(t, 0, ret.result.ExpiredCount)
	case <-time.After(2 * time.Second):
		t.Fatal("SweepExpired did not return with a batch full of failing rewards")
	}

	assert.Equal(t, models.StatusPending, store.rewards[id].Status)
	assert.True(t, store.timers[id].IsActive, "the reward is left for the next sweep")
	assert.Equal(t, int64(200_00), store.balances["alice"].USDCPending)
}

// A reward promoted to claimable before its timer fires must not be
// expired by a late sweep.
func TestSweepSkipsPromotedReward(t *testing.T) {
	store := newFakeStore()
	clock := clockwork.NewFakeClock()
	svc := newLifecycleService(store, clock)
	ctx := context.Background()

	id := seedPending(t, store, clock, "alice", 200_00, 4, 72*time.Hour)
	require.NoError(t, store.Rewards().MarkClaimable(ctx, id))
	require.NoError(t, store.Balances().AdjustUSDC(ctx, "alice", 200_00, -200_00, 0))
	store.timers[id].IsActive = true // simulate a promotion that raced the timer cleanup

	clock.Advance(73 * time.Hour)

	result, err := svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExpiredCount)

	assert.Equal(t, models.StatusClaimable, store.rewards[id].Status)
	assert.False(t, store.timers[id].IsActive, "the stale timer is retired")
	assert.Equal(t, int64(200_00), store.balances["alice"].USDCClaimable)
}
