// Package eligibility computes the recipient level a layer reward
// requires before it can be claimed. The threshold is fixed at reward
// creation and stored on the row, so later rule changes never re-price
// rewards already in flight.
package eligibility

import "github.com/beehive/membership/cmd/engine/models"

// RequiredLevel returns the minimum current_level the recipient must
// hold for a reward triggered through the given placement to become
// claimable.
//
// ordinal is 1-based: how many rewards (including this one) the
// recipient has accrued on this layer. The baseline is the layer number
// itself. Two stricter rules stack on top:
//
//   - the layer-1 R slot always needs level 2, and
//   - the third reward on any layer needs level layer+1, floored at 2.
//
// When several rules apply the strictest one wins.
func RequiredLevel(placement *models.Placement, ordinal int) int {
	required := placement.Layer

	if placement.IsRightSlot() && required < 2 {
		required = 2
	}

	if ordinal == 3 {
		third := placement.Layer + 1
		if third < 2 {
			third = 2
		}
		if third > required {
			required = third
		}
	}

	return required
}
