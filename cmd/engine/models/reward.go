package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RewardStatus represents the lifecycle state of a layer reward
type RewardStatus string

const (
	StatusPending   RewardStatus = "pending"
	StatusClaimable RewardStatus = "claimable"
	StatusClaimed   RewardStatus = "claimed"
	StatusExpired   RewardStatus = "expired"
	StatusRolledUp  RewardStatus = "rolled_up"
)

// transitions is the closed set of valid status changes. claimed and
// rolled_up are terminal.
var transitions = map[RewardStatus][]RewardStatus{
	StatusPending:   {StatusClaimable, StatusExpired},
	StatusClaimable: {StatusClaimed, StatusExpired},
	StatusExpired:   {StatusRolledUp},
	StatusClaimed:   {},
	StatusRolledUp:  {},
}

// CanTransition reports whether from -> to is a valid lifecycle move.
func CanTransition(from, to RewardStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// InvalidStateTransitionError is returned for any status change outside
// the transition table.
type InvalidStateTransitionError struct {
	From RewardStatus
	To   RewardStatus
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("invalid reward state transition: %s -> %s", e.From, e.To)
}

// LayerReward is the central mutable entity: one ancestor's entitlement
// arising from one member's level activation. The
// (triggering member, recipient, layer, level) tuple is unique, which is
// what makes retried activation events idempotent. Terminal rows are
// permanent audit records and are never deleted.
// Maps to: layer_rewards table
type LayerReward struct {
	ID                     uuid.UUID `db:"id" json:"id"`
	RecipientWallet        string    `db:"recipient_wallet" json:"recipient_wallet"`
	TriggeringMemberWallet string    `db:"triggering_member_wallet" json:"triggering_member_wallet"`
	MatrixLayer            int       `db:"matrix_layer" json:"matrix_layer"`
	TriggeringNFTLevel     int       `db:"triggering_nft_level" json:"triggering_nft_level"`
	RewardAmountCents      int64     `db:"reward_amount_cents" json:"reward_amount_cents"`

	// Recipient level needed for the reward to be claimable, captured at
	// creation so expiry rollup can re-check the original threshold.
	RequiredLevel int `db:"required_level" json:"required_level"`

	Status       RewardStatus `db:"status" json:"status"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	ExpiresAt    *time.Time   `db:"expires_at" json:"expires_at,omitempty"`
	ClaimedAt    *time.Time   `db:"claimed_at" json:"claimed_at,omitempty"`
	RollupReason *string      `db:"rollup_reason" json:"rollup_reason,omitempty"`
}
