package models

import "time"

// Layer-1 slot identifiers. Deeper layers use dotted paths ("L.M").
const (
	PositionLeft   = "L"
	PositionMiddle = "M"
	PositionRight  = "R"
)

// Placement is a member's position in one ancestor's matrix: the member
// sits `layer` levels below matrix_root_wallet. Placements are written
// once by the external placement process at join time; the engine only
// reads them.
// Maps to: placements table
type Placement struct {
	MemberWallet     string    `db:"member_wallet" json:"member_wallet"`
	MatrixRootWallet string    `db:"matrix_root_wallet" json:"matrix_root_wallet"`
	Layer            int       `db:"layer" json:"layer"`
	Position         string    `db:"position" json:"position"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// IsRightSlot reports whether this is the layer-1 R position, which
// carries its own eligibility rule.
func (p *Placement) IsRightSlot() bool {
	return p.Layer == 1 && p.Position == PositionRight
}
