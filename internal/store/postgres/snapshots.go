package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/canopyrisk/compliance-engine/internal/domain"
)

// UpsertSnapshot writes the materialized ranking row for a business,
// replacing any existing one. The unique constraint on business_id makes
// the one-row-per-business invariant a database guarantee rather than an
// application convention.
func (s *Store) UpsertSnapshot(ctx context.Context, snapshot domain.RankingSnapshot) error {
	const query = `
		INSERT INTO business_rankings
			(business_id, overall_score, rank, rank_level,
			 recommendations_followed, recommendations_total, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (business_id) DO UPDATE SET
			overall_score = EXCLUDED.overall_score,
			rank = EXCLUDED.rank,
			rank_level = EXCLUDED.rank_level,
			recommendations_followed = EXCLUDED.recommendations_followed,
			recommendations_total = EXCLUDED.recommendations_total,
			last_updated = EXCLUDED.last_updated`

	_, err := s.db.ExecContext(ctx, query,
		snapshot.BusinessID,
		snapshot.OverallScore,
		snapshot.Position,
		snapshot.RankLevel,
		snapshot.RecommendationsFollowed,
		snapshot.RecommendationsTotal,
		snapshot.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("upsert ranking snapshot for business %d: %w", snapshot.BusinessID, err)
	}
	return nil
}

// Snapshot returns the cached ranking row for a business, or nil when the
// snapshot has not been built yet.
func (s *Store) Snapshot(ctx context.Context, businessID int64) (*domain.RankingSnapshot, error) {
	const query = `
		SELECT business_id, overall_score, rank, rank_level,
		       recommendations_followed, recommendations_total, last_updated
		FROM business_rankings
		WHERE business_id = $1`

	var snap domain.RankingSnapshot
	err := s.db.QueryRowContext(ctx, query, businessID).Scan(
		&snap.BusinessID, &snap.OverallScore, &snap.Position, &snap.RankLevel,
		&snap.RecommendationsFollowed, &snap.RecommendationsTotal, &snap.LastUpdated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query ranking snapshot for business %d: %w", businessID, err)
	}
	return &snap, nil
}
