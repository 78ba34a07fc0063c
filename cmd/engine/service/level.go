package service

import (
	"context"

	"github.com/beehive/membership/common/levels"
	"github.com/beehive/membership/common/logger"
)

// LevelService enforces the upgrade rules before an activation is
// accepted. Validation never mutates state; current_level only moves
// inside the activation transaction.
type LevelService struct {
	store Store
	log   *logger.Logger
}

// NewLevelService creates a new level service
func NewLevelService(store Store, log *logger.Logger) *LevelService {
	return &LevelService{store: store, log: log}
}

// ValidateUpgrade checks the upgrade rules in order and returns the
// first failure as an *UpgradeRejectedError. Level 1 goes through the
// first-activation path instead and is not a valid target here.
func (s *LevelService) ValidateUpgrade(ctx context.Context, wallet string, targetLevel int) error {
	if targetLevel < 2 || targetLevel > levels.MaxLevel {
		return &UpgradeRejectedError{Reason: ReasonInvalidTargetLevel}
	}

	member, err := s.store.Members().Get(ctx, wallet)
	if err != nil {
		return err
	}
	if member == nil {
		return ErrMemberNotFound
	}

	if targetLevel != member.CurrentLevel+1 {
		return &UpgradeRejectedError{Reason: ReasonNonSequentialUpgrade}
	}

	owned, err := s.store.Members().LevelsOwned(ctx, wallet)
	if err != nil {
		return err
	}

	ownedSet := make(map[int]bool, len(owned))
	for _, level := range owned {
		ownedSet[level] = true
	}

	if ownedSet[targetLevel] {
		return &UpgradeRejectedError{Reason: ReasonAlreadyOwned}
	}

	// Re-verify the ownership record against the cached current_level.
	// A gap means the cached field drifted from the ledger.
	for level := 1; level <= member.CurrentLevel; level++ {
		if !ownedSet[level] {
			return &UpgradeRejectedError{Reason: ReasonMissingPrerequisiteLevel, Level: level}
		}
	}

	if required := levels.RequiredDirectReferrals(targetLevel); required > 0 {
		count, err := s.store.Placements().DirectReferralCount(ctx, wallet)
		if err != nil {
			return err
		}
		if count < required {
			return &UpgradeRejectedError{
				Reason:   ReasonInsufficientDirectReferrals,
				Current:  count,
				Required: required,
			}
		}
	}

	return nil
}
