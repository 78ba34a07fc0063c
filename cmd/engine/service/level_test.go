package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beehive/membership/common/logger"
)

func newLevelService(store *fakeStore) *LevelService {
	return NewLevelService(store, logger.New("error", "text"))
}

func TestValidateUpgradeSequential(t *testing.T) {
	store := newFakeStore()
	store.seedMember("alice", 2)

	svc := newLevelService(store)
	ctx := context.Background()

	require.NoError(t, svc.ValidateUpgrade(ctx, "alice", 3))

	var rejected *UpgradeRejectedError
	err := svc.ValidateUpgrade(ctx, "alice", 5)
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, ReasonNonSequentialUpgrade, rejected.Reason)

	err = svc.ValidateUpgrade(ctx, "alice", 2)
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, ReasonNonSequentialUpgrade, rejected.Reason)
}

func TestValidateUpgradeTargetBounds(t *testing.T) {
	store := newFakeStore()
	store.seedMember("alice", 5)

	svc := newLevelService(store)
	ctx := context.Background()

	var rejected *UpgradeRejectedError
	for _, target := range []int{0, 1, 20, -3} {
		err := svc.ValidateUpgrade(ctx, "alice", target)
		require.ErrorAs(t, err, &rejected, "target %d", target)
		assert.Equal(t, ReasonInvalidTargetLevel, rejected.Reason)
	}
}

func TestValidateUpgradeUnknownMember(t *testing.T) {
	svc := newLevelService(newFakeStore())

	err := svc.ValidateUpgrade(context.Background(), "ghost", 2)
	assert.True(t, errors.Is(err, ErrMemberNotFound))
}

func TestValidateUpgradeMissingPrerequisite(t *testing.T) {
	store := newFakeStore()
	store.seedMember("alice", 3)
	delete(store.owned["alice"], 2)

	svc := newLevelService(store)

	var rejected *UpgradeRejectedError
	err := svc.ValidateUpgrade(context.Background(), "alice", 4)
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, ReasonMissingPrerequisiteLevel, rejected.Reason)
	assert.Equal(t, 2, rejected.Level)
}

// A member at level 1 with only 2 direct referrals cannot buy level 2.
func TestValidateUpgradeReferralGate(t *testing.T) {
	store := newFakeStore()
	store.seedMember("alice", 1)
	store.seedPlacement("bob", "alice", 1, "L")
	store.seedPlacement("carol", "alice", 1, "M")

	svc := newLevelService(store)
	ctx := context.Background()

	var rejected *UpgradeRejectedError
	err := svc.ValidateUpgrade(ctx, "alice", 2)
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, ReasonInsufficientDirectReferrals, rejected.Reason)
	assert.Equal(t, 2, rejected.Current)
	assert.Equal(t, 3, rejected.Required)

	store.seedPlacement("dave", "alice", 1, "R")
	require.NoError(t, svc.ValidateUpgrade(ctx, "alice", 2))
}
