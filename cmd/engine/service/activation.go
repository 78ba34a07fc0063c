package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/beehive/membership/cmd/engine/eligibility"
	"github.com/beehive/membership/cmd/engine/models"
	"github.com/beehive/membership/common/bcc"
	"github.com/beehive/membership/common/levels"
	"github.com/beehive/membership/common/logger"
)

// ActivationService turns an accepted level activation into layer
// rewards and BCC credits. The whole effect of one activation commits in
// a single transaction; events go out only after the commit.
type ActivationService struct {
	store         Store
	level         *LevelService
	notifier      Notifier
	clock         clockwork.Clock
	log           *logger.Logger
	pendingWindow time.Duration
}

// ActivationServiceOpts contains options for creating an ActivationService
type ActivationServiceOpts struct {
	Store         Store
	LevelService  *LevelService
	Notifier      Notifier
	Clock         clockwork.Clock
	Logger        *logger.Logger
	PendingWindow time.Duration
}

// NewActivationService creates a new activation service
func NewActivationService(opts *ActivationServiceOpts) *ActivationService {
	return &ActivationService{
		store:         opts.Store,
		level:         opts.LevelService,
		notifier:      opts.Notifier,
		clock:         opts.Clock,
		log:           opts.Logger,
		pendingWindow: opts.PendingWindow,
	}
}

// ActivationResult reports what one activation produced.
type ActivationResult struct {
	// AlreadyProcessed is true when this (member, level) pair was
	// activated before. Nothing was changed; the retry is a safe no-op.
	AlreadyProcessed bool `json:"already_processed"`

	RewardsCreated []models.LayerReward `json:"rewards_created"`
	BCCCredited    int64                `json:"bcc_credited"`

	// ActivationSequence is set on a member's first activation only.
	ActivationSequence *int64 `json:"activation_sequence,omitempty"`
}

// OnActivation processes one accepted activation event. Payment is
// already confirmed by the caller; this only moves engine state. Safe to
// call repeatedly with the same arguments.
func (s *ActivationService) OnActivation(ctx context.Context, wallet string, level int) (*ActivationResult, error) {
	wallet = models.NormalizeWallet(wallet)

	if !levels.Valid(level) {
		return nil, &UpgradeRejectedError{Reason: ReasonInvalidTargetLevel}
	}
	if level > 1 {
		if err := s.level.ValidateUpgrade(ctx, wallet, level); err != nil {
			return nil, err
		}
	}

	result := &ActivationResult{}
	var events []pendingEvent

	err := s.store.InTx(ctx, func(tx Store) error {
		now := s.clock.Now().UTC()

		if level == 1 {
			member := &models.Member{WalletAddress: wallet}
			if err := tx.Members().Create(ctx, member); err != nil {
				return err
			}
		}
		if err := tx.Balances().Ensure(ctx, wallet); err != nil {
			return err
		}

		added, err := tx.Members().AddLevel(ctx, wallet, level, now)
		if err != nil {
			return err
		}
		if !added {
			result.AlreadyProcessed = true
			return nil
		}

		if err := tx.Members().SetLevel(ctx, wallet, level); err != nil {
			return err
		}

		activatedCount, err := s.creditBCCBaseline(ctx, tx, wallet, level, now, result)
		if err != nil {
			return err
		}

		released, err := tx.Balances().ReleaseBCC(ctx, wallet, bcc.ReleaseAmount(level, activatedCount))
		if err != nil {
			return err
		}
		result.BCCCredited = released

		rewards, rewardEvents, err := s.triggerLayerRewards(ctx, tx, wallet, level, now)
		if err != nil {
			return err
		}
		result.RewardsCreated = rewards
		events = append(events, rewardEvents...)

		promoted, err := s.promotePendingRewards(ctx, tx, wallet, level)
		if err != nil {
			return err
		}
		events = append(events, promoted...)

		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.AlreadyProcessed {
		s.notifier.Publish(ctx, EventLevelActivated, map[string]interface{}{
			"wallet": wallet,
			"level":  level,
		})
		for _, ev := range events {
			s.notifier.Publish(ctx, ev.name, ev.fields)
		}
		s.log.Info("activation processed",
			"wallet", wallet,
			"level", level,
			"rewards_created", len(result.RewardsCreated),
			"bcc_credited", result.BCCCredited)
	}

	return result, nil
}

type pendingEvent struct {
	name   string
	fields map[string]interface{}
}

// creditBCCBaseline handles the first-activation bookkeeping: global
// counters, the initial transferable grant and the full lockup bucket.
// Returns the activated-member count in effect for this activation.
func (s *ActivationService) creditBCCBaseline(ctx context.Context, tx Store, wallet string, level int, now time.Time, result *ActivationResult) (int64, error) {
	if level != 1 {
		return tx.Counters().ActivatedMembers(ctx)
	}

	sequence, err := tx.Counters().NextActivationSequence(ctx)
	if err != nil {
		return 0, err
	}
	if err := tx.Members().SetActivation(ctx, wallet, sequence, now); err != nil {
		return 0, err
	}
	result.ActivationSequence = &sequence

	count, err := tx.Counters().IncrementActivatedMembers(ctx)
	if err != nil {
		return 0, err
	}

	if err := tx.Balances().AdjustBCC(ctx, wallet, bcc.InitialTransferable, bcc.TotalLockup); err != nil {
		return 0, err
	}

	return count, nil
}

// triggerLayerRewards creates a reward for every ancestor whose matrix
// layer equals the activated level.
func (s *ActivationService) triggerLayerRewards(ctx context.Context, tx Store, wallet string, level int, now time.Time) ([]models.LayerReward, []pendingEvent, error) {
	placements, err := tx.Placements().ByMember(ctx, wallet)
	if err != nil {
		return nil, nil, err
	}

	amount := levels.RewardAmountCents(level)

	var created []models.LayerReward
	var events []pendingEvent
	for _, placement := range placements {
		if placement.Layer != level {
			continue
		}

		recipient := placement.MatrixRootWallet
		if err := tx.Balances().Ensure(ctx, recipient); err != nil {
			return nil, nil, err
		}

		count, err := tx.Rewards().CountForRecipientLayer(ctx, recipient, placement.Layer)
		if err != nil {
			return nil, nil, err
		}
		ordinal := count + 1
		required := eligibility.RequiredLevel(&placement, ordinal)

		recipientLevel := 0
		if member, err := tx.Members().Get(ctx, recipient); err != nil {
			return nil, nil, err
		} else if member != nil {
			recipientLevel = member.CurrentLevel
		}

		reward := models.LayerReward{
			ID:                     uuid.New(),
			RecipientWallet:        recipient,
			TriggeringMemberWallet: wallet,
			MatrixLayer:            placement.Layer,
			TriggeringNFTLevel:     level,
			RewardAmountCents:      amount,
			RequiredLevel:          required,
			CreatedAt:              now,
		}

		if recipientLevel >= required {
			reward.Status = models.StatusClaimable
		} else {
			reward.Status = models.StatusPending
			expires := now.Add(s.pendingWindow)
			reward.ExpiresAt = &expires
		}

		inserted, err := tx.Rewards().Insert(ctx, &reward)
		if err != nil {
			return nil, nil, err
		}
		if !inserted {
			// Retried event; the first run already credited.
			continue
		}

		if reward.Status == models.StatusClaimable {
			if err := tx.Balances().AdjustUSDC(ctx, recipient, amount, 0, 0); err != nil {
				return nil, nil, err
			}
		} else {
			if err := tx.Balances().AdjustUSDC(ctx, recipient, 0, amount, 0); err != nil {
				return nil, nil, err
			}
			timer := &models.CountdownTimer{
				ID:         uuid.New(),
				RewardID:   reward.ID,
				StartTime:  now,
				EndTime:    now.Add(s.pendingWindow),
				AutoAction: models.AutoActionExpire,
				IsActive:   true,
			}
			if err := tx.Timers().Create(ctx, timer); err != nil {
				return nil, nil, err
			}
		}

		created = append(created, reward)
		events = append(events, pendingEvent{
			name: EventRewardCreated,
			fields: map[string]interface{}{
				"reward_id": reward.ID.String(),
				"recipient": recipient,
				"layer":     placement.Layer,
				"status":    string(reward.Status),
				"amount":    amount,
			},
		})
	}

	return created, events, nil
}

// promotePendingRewards upgrades the member's own pending rewards whose
// required level is now met: claimable status, timer off, balance moved
// from pending to claimable.
func (s *ActivationService) promotePendingRewards(ctx context.Context, tx Store, wallet string, level int) ([]pendingEvent, error) {
	ready, err := tx.Rewards().ListPendingReady(ctx, wallet, level)
	if err != nil {
		return nil, err
	}

	var events []pendingEvent
	for _, reward := range ready {
		if err := tx.Rewards().MarkClaimable(ctx, reward.ID); err != nil {
			return nil, err
		}
		if err := tx.Timers().Deactivate(ctx, reward.ID); err != nil {
			return nil, err
		}
		if err := tx.Balances().AdjustUSDC(ctx, wallet, reward.RewardAmountCents, -reward.RewardAmountCents, 0); err != nil {
			return nil, err
		}

		events = append(events, pendingEvent{
			name: EventRewardClaimable,
			fields: map[string]interface{}{
				"reward_id": reward.ID.String(),
				"recipient": wallet,
				"layer":     reward.MatrixLayer,
				"amount":    reward.RewardAmountCents,
			},
		})
	}

	return events, nil
}
