// Package bcc computes the phased release schedule of the platform's
// fixed-supply BCC token. The release amount depends only on the activated
// level and the global count of activated members, so it is recomputed on
// every activation and never cached per member.
package bcc

// Phase boundaries on the cumulative count of activated members. Each
// later phase halves the release via its divisor; past the final ceiling
// nothing further is scheduled.
const (
	Phase1Ceiling = 9_999
	Phase2Ceiling = 29_999
	Phase3Ceiling = 99_999
	Phase4Ceiling = 186_000
)

// InitialTransferable is granted to every member on first activation.
const InitialTransferable = 500

// TotalLockup is the full per-member lockup established at first
// activation: the sum of all 19 base release amounts (100+150+...+1000).
const TotalLockup = 10_450

// Phase returns the phase index (1..4) and divisor for a given global
// activated-member count. ok is false past the Phase 4 ceiling.
func Phase(activatedCount int64) (phase int, divisor int64, ok bool) {
	switch {
	case activatedCount <= Phase1Ceiling:
		return 1, 1, true
	case activatedCount <= Phase2Ceiling:
		return 2, 2, true
	case activatedCount <= Phase3Ceiling:
		return 3, 4, true
	case activatedCount <= Phase4Ceiling:
		return 4, 8, true
	default:
		return 0, 0, false
	}
}

// BaseRelease returns the unphased release amount for a level:
// 100 BCC at Level 1, +50 per level up to 1000 at Level 19.
func BaseRelease(level int) int64 {
	if level < 1 || level > 19 {
		return 0
	}
	return int64(100 + (level-1)*50)
}

// ReleaseAmount returns the BCC credited for activating a level when the
// global activated-member count is activatedCount. Halving is rounded to
// the nearest whole token, half up.
func ReleaseAmount(level int, activatedCount int64) int64 {
	base := BaseRelease(level)
	if base == 0 {
		return 0
	}

	_, divisor, ok := Phase(activatedCount)
	if !ok {
		return 0
	}

	return (base + divisor/2) / divisor
}
