package postgres

import (
	"context"
	"fmt"

	"github.com/canopyrisk/compliance-engine/internal/domain"
)

// RecommendationsFor returns every recommendation-tracking entry for a
// business, all lifecycle statuses included.
func (s *Store) RecommendationsFor(ctx context.Context, businessID int64) ([]domain.RecommendationEntry, error) {
	const query = `
		SELECT tracking_id, business_id, climate_event, recommendation_text,
		       status, risk_level, created_at, updated_at
		FROM recommendation_tracking
		WHERE business_id = $1`

	rows, err := s.db.QueryContext(ctx, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("query recommendation tracking: %w", err)
	}
	defer rows.Close()

	var entries []domain.RecommendationEntry
	for rows.Next() {
		var e domain.RecommendationEntry
		if err := rows.Scan(
			&e.TrackingID, &e.BusinessID, &e.ClimateEvent, &e.Text,
			&e.Status, &e.RiskLevel, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan recommendation entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recommendation entries: %w", err)
	}
	return entries, nil
}
