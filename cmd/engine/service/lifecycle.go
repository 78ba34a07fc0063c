package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/beehive/membership/cmd/engine/models"
	"github.com/beehive/membership/common/logger"
)

// LifecycleService owns reward status transitions after creation: claim
// processing and the expiry sweep with rollup.
type LifecycleService struct {
	store     Store
	notifier  Notifier
	clock     clockwork.Clock
	log       *logger.Logger
	batchSize int
}

// LifecycleServiceOpts contains options for creating a LifecycleService
type LifecycleServiceOpts struct {
	Store          Store
	Notifier       Notifier
	Clock          clockwork.Clock
	Logger         *logger.Logger
	SweepBatchSize int
}

// NewLifecycleService creates a new lifecycle service
func NewLifecycleService(opts *LifecycleServiceOpts) *LifecycleService {
	return &LifecycleService{
		store:     opts.Store,
		notifier:  opts.Notifier,
		clock:     opts.Clock,
		log:       opts.Logger,
		batchSize: opts.SweepBatchSize,
	}
}

// ClaimOutcome distinguishes the two non-error claim results.
type ClaimOutcome string

const (
	OutcomeClaimed        ClaimOutcome = "claimed"
	OutcomeNotYetEligible ClaimOutcome = "not_yet_eligible"
)

// ClaimResult reports a claim attempt. Pending rewards come back as
// NotYetEligible with the remaining countdown; that is a normal outcome,
// not an error.
type ClaimResult struct {
	Outcome       ClaimOutcome  `json:"outcome"`
	AmountCents   int64         `json:"amount_cents,omitempty"`
	RequiredLevel int           `json:"required_level,omitempty"`
	RemainingTime time.Duration `json:"-"`
	Message       string        `json:"message,omitempty"`
}

// Claim settles a claimable reward for its recipient. A repeated or
// racing claim returns ErrAlreadyClaimed; a claim by anyone but the
// recipient returns ErrNotFoundOrForbidden.
func (s *LifecycleService) Claim(ctx context.Context, rewardID uuid.UUID, claimantWallet string) (*ClaimResult, error) {
	claimantWallet = models.NormalizeWallet(claimantWallet)

	var result *ClaimResult
	err := s.store.InTx(ctx, func(tx Store) error {
		reward, err := tx.Rewards().GetForUpdate(ctx, rewardID)
		if err != nil {
			return err
		}
		if reward == nil || reward.RecipientWallet != claimantWallet {
			return ErrNotFoundOrForbidden
		}

		switch reward.Status {
		case models.StatusClaimed:
			return ErrAlreadyClaimed

		case models.StatusPending:
			timer, err := tx.Timers().ActiveByReward(ctx, reward.ID)
			if err != nil {
				return err
			}
			remaining := time.Duration(0)
			if timer != nil {
				if r := timer.EndTime.Sub(s.clock.Now()); r > 0 {
					remaining = r
				}
			}
			result = &ClaimResult{
				Outcome:       OutcomeNotYetEligible,
				RequiredLevel: reward.RequiredLevel,
				RemainingTime: remaining,
				Message: fmt.Sprintf("reward requires level %d; claimable once reached, expires in %s",
					reward.RequiredLevel, remaining.Round(time.Second)),
			}
			return nil

		case models.StatusClaimable:
			now := s.clock.Now().UTC()
			if err := tx.Rewards().MarkClaimed(ctx, reward.ID, now); err != nil {
				return err
			}
			amount := reward.RewardAmountCents
			if err := tx.Balances().AdjustUSDC(ctx, claimantWallet, -amount, 0, amount); err != nil {
				return err
			}
			result = &ClaimResult{Outcome: OutcomeClaimed, AmountCents: amount}
			return nil

		default:
			return &models.InvalidStateTransitionError{From: reward.Status, To: models.StatusClaimed}
		}
	})
	if err != nil {
		return nil, err
	}

	if result.Outcome == OutcomeClaimed {
		s.notifier.Publish(ctx, EventRewardClaimed, map[string]interface{}{
			"reward_id": rewardID.String(),
			"wallet":    claimantWallet,
			"amount":    result.AmountCents,
		})
	}

	return result, nil
}

// SweepResult reports one sweep pass.
type SweepResult struct {
	ExpiredCount  int `json:"expired_count"`
	RolledUpCount int `json:"rolled_up_count"`
	FailedCount   int `json:"failed_count"`
}

// SweepExpired expires every pending reward whose countdown has run out
// and attempts rollup to the nearest qualifying ancestor. Each reward is
// processed in its own transaction; one failure never aborts the batch.
// A failed reward keeps its active timer, so it is attempted at most once
// per pass and picked up again by the next sweep.
func (s *LifecycleService) SweepExpired(ctx context.Context) (*SweepResult, error) {
	result := &SweepResult{}
	attempted := make(map[uuid.UUID]struct{})

	for {
		timers, err := s.store.Timers().DueBatch(ctx, s.clock.Now().UTC(), s.batchSize)
		if err != nil {
			return result, err
		}
		if len(timers) == 0 {
			return result, nil
		}

		progressed := false
		for _, timer := range timers {
			if _, seen := attempted[timer.RewardID]; seen {
				continue
			}
			attempted[timer.RewardID] = struct{}{}

			expired, rolledUp, err := s.expireOne(ctx, timer)
			if err != nil {
				result.FailedCount++
				s.log.Error("sweep failed for reward; will retry next sweep",
					"reward_id", timer.RewardID, "error", err)
				continue
			}
			progressed = true
			if expired {
				result.ExpiredCount++
			}
			if rolledUp {
				result.RolledUpCount++
			}
		}

		if len(timers) < s.batchSize || !progressed {
			return result, nil
		}
	}
}

// expireOne moves one overdue reward to expired and tries the rollup,
// all in a single transaction.
func (s *LifecycleService) expireOne(ctx context.Context, timer models.CountdownTimer) (expired, rolledUp bool, err error) {
	var rollupRecipient string
	var rollupID uuid.UUID

	err = s.store.InTx(ctx, func(tx Store) error {
		reward, err := tx.Rewards().GetForUpdate(ctx, timer.RewardID)
		if err != nil {
			return err
		}
		if reward == nil || reward.Status != models.StatusPending {
			// Promoted or already swept; just retire the timer.
			return tx.Timers().Deactivate(ctx, timer.RewardID)
		}

		if err := tx.Rewards().MarkExpired(ctx, reward.ID); err != nil {
			return err
		}
		if err := tx.Timers().Deactivate(ctx, reward.ID); err != nil {
			return err
		}
		if err := tx.Balances().AdjustUSDC(ctx, reward.RecipientWallet, 0, -reward.RewardAmountCents, 0); err != nil {
			return err
		}
		expired = true

		recipient, newID, ok, err := s.rollUp(ctx, tx, reward)
		if err != nil {
			return err
		}
		if ok {
			rolledUp = true
			rollupRecipient = recipient
			rollupID = newID
		}
		return nil
	})
	if err != nil {
		return false, false, err
	}

	if expired {
		s.notifier.Publish(ctx, EventRewardExpired, map[string]interface{}{
			"reward_id": timer.RewardID.String(),
		})
	}
	if rolledUp {
		s.notifier.Publish(ctx, EventRewardRolledUp, map[string]interface{}{
			"reward_id":     timer.RewardID.String(),
			"new_reward_id": rollupID.String(),
			"recipient":     rollupRecipient,
		})
	}

	return expired, rolledUp, nil
}

// rollUp reassigns an expired reward's claim right to the nearest
// ancestor of the original recipient whose level meets the reward's
// stored threshold. Ancestors are walked by layer ascending; the first
// qualifier wins. No qualifier leaves the reward expired for good.
func (s *LifecycleService) rollUp(ctx context.Context, tx Store, expired *models.LayerReward) (string, uuid.UUID, bool, error) {
	placements, err := tx.Placements().ByMember(ctx, expired.RecipientWallet)
	if err != nil {
		return "", uuid.Nil, false, err
	}

	for _, placement := range placements {
		ancestor := placement.MatrixRootWallet
		member, err := tx.Members().Get(ctx, ancestor)
		if err != nil {
			return "", uuid.Nil, false, err
		}
		if member == nil || member.CurrentLevel < expired.RequiredLevel {
			continue
		}

		reason := fmt.Sprintf("rolled up from expired reward %s", expired.ID)
		rollup := models.LayerReward{
			ID:                     uuid.New(),
			RecipientWallet:        ancestor,
			TriggeringMemberWallet: expired.TriggeringMemberWallet,
			MatrixLayer:            expired.MatrixLayer,
			TriggeringNFTLevel:     expired.TriggeringNFTLevel,
			RewardAmountCents:      expired.RewardAmountCents,
			RequiredLevel:          expired.RequiredLevel,
			Status:                 models.StatusClaimable,
			CreatedAt:              s.clock.Now().UTC(),
			RollupReason:           &reason,
		}

		inserted, err := tx.Rewards().Insert(ctx, &rollup)
		if err != nil {
			return "", uuid.Nil, false, err
		}
		if !inserted {
			// The ancestor already holds a reward for this trigger
			// tuple; skip to the next candidate.
			continue
		}

		if err := tx.Balances().Ensure(ctx, ancestor); err != nil {
			return "", uuid.Nil, false, err
		}
		if err := tx.Balances().AdjustUSDC(ctx, ancestor, rollup.RewardAmountCents, 0, 0); err != nil {
			return "", uuid.Nil, false, err
		}
		if err := tx.Rewards().MarkRolledUp(ctx, expired.ID); err != nil {
			return "", uuid.Nil, false, err
		}

		return ancestor, rollup.ID, true, nil
	}

	return "", uuid.Nil, false, nil
}
