package repository

import (
	"context"
	"fmt"

	"github.com/beehive/membership/cmd/engine/models"
	"github.com/beehive/membership/common/db"
)

// PlacementRepository reads the placement tree. The engine never writes
// placements; they come from the external placement process.
type PlacementRepository struct {
	q db.Querier
}

// NewPlacementRepository creates a new placement repository
func NewPlacementRepository(q db.Querier) *PlacementRepository {
	return &PlacementRepository{q: q}
}

// ByMember returns the member's placements ordered by layer ascending,
// so the nearest ancestor comes first.
func (r *PlacementRepository) ByMember(ctx context.Context, wallet string) ([]models.Placement, error) {
	query := `
		SELECT member_wallet, matrix_root_wallet, layer, position, created_at
		FROM placements
		WHERE member_wallet = $1
		ORDER BY layer
	`

	rows, err := r.q.Query(ctx, query, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to list placements: %w", err)
	}
	defer rows.Close()

	var placements []models.Placement
	for rows.Next() {
		var p models.Placement
		if err := rows.Scan(&p.MemberWallet, &p.MatrixRootWallet, &p.Layer, &p.Position, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan placement: %w", err)
		}
		placements = append(placements, p)
	}

	return placements, rows.Err()
}

// DirectReferralCount counts layer-1 occupants of the wallet's matrix.
func (r *PlacementRepository) DirectReferralCount(ctx context.Context, wallet string) (int, error) {
	query := `
		SELECT COUNT(*) FROM placements
		WHERE matrix_root_wallet = $1 AND layer = 1
	`

	var count int
	if err := r.q.QueryRow(ctx, query, wallet).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count direct referrals: %w", err)
	}

	return count, nil
}
