package service

import (
	"errors"
	"fmt"
)

// RejectReason identifies why an upgrade was refused. The codes are part
// of the API surface and stable.
type RejectReason string

const (
	ReasonInvalidTargetLevel          RejectReason = "invalid_target_level"
	ReasonNonSequentialUpgrade        RejectReason = "non_sequential_upgrade"
	ReasonAlreadyOwned                RejectReason = "already_owned"
	ReasonMissingPrerequisiteLevel    RejectReason = "missing_prerequisite_level"
	ReasonInsufficientDirectReferrals RejectReason = "insufficient_direct_referrals"
)

// UpgradeRejectedError carries the first validation rule that failed.
// Validation never mutates state, so these are safe to retry after the
// member fixes the underlying condition.
type UpgradeRejectedError struct {
	Reason RejectReason

	// Level is the prerequisite level at fault for
	// missing_prerequisite_level, otherwise zero.
	Level int

	// Current and Required hold the referral counts for
	// insufficient_direct_referrals, otherwise zero.
	Current  int
	Required int
}

func (e *UpgradeRejectedError) Error() string {
	switch e.Reason {
	case ReasonMissingPrerequisiteLevel:
		return fmt.Sprintf("upgrade rejected: missing prerequisite level %d", e.Level)
	case ReasonInsufficientDirectReferrals:
		return fmt.Sprintf("upgrade rejected: %d direct referrals, %d required", e.Current, e.Required)
	default:
		return fmt.Sprintf("upgrade rejected: %s", e.Reason)
	}
}

var (
	// ErrAlreadyClaimed is returned when a claim races or repeats on a
	// reward that already reached claimed.
	ErrAlreadyClaimed = errors.New("reward already claimed")

	// ErrNotFoundOrForbidden covers both an unknown reward id and a
	// claimant who is not the recipient. The two are deliberately
	// indistinguishable to the caller.
	ErrNotFoundOrForbidden = errors.New("reward not found")

	// ErrMemberNotFound is returned when an operation references a
	// wallet with no member row.
	ErrMemberNotFound = errors.New("member not found")
)
