package models

import (
	"time"

	"github.com/google/uuid"
)

// AutoActionExpire is the only auto action the sweeper understands today.
const AutoActionExpire = "expire_reward"

// CountdownTimer tracks the pending window for exactly one reward. It is
// deactivated when the reward leaves pending, whether by upgrade or by
// the sweeper expiring it.
// Maps to: countdown_timers table
type CountdownTimer struct {
	ID         uuid.UUID `db:"id" json:"id"`
	RewardID   uuid.UUID `db:"reward_id" json:"reward_id"`
	StartTime  time.Time `db:"start_time" json:"start_time"`
	EndTime    time.Time `db:"end_time" json:"end_time"`
	AutoAction string    `db:"auto_action" json:"auto_action"`
	IsActive   bool      `db:"is_active" json:"is_active"`
}
