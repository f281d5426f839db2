package ranking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/canopyrisk/compliance-engine/internal/domain"
)

// MaxCompareBusinesses bounds a single comparison request.
const MaxCompareBusinesses = 10

// ErrTooManyBusinesses is returned when a comparison exceeds
// MaxCompareBusinesses.
var ErrTooManyBusinesses = errors.New("too many businesses to compare")

// ComparisonEntry is one business in a side-by-side view. The trend series
// is synthesized from the current score and is illustrative only: it is
// regenerated on every call and must not be persisted or compared across
// calls.
type ComparisonEntry struct {
	BusinessID              int64               `json:"business_id"`
	BusinessName            string              `json:"business_name"`
	StoreType               string              `json:"store_type"`
	City                    string              `json:"city"`
	CurrentScore            int                 `json:"current_score"`
	RankLevel               string              `json:"rank_level"`
	RecommendationsFollowed int                 `json:"recommendations_followed"`
	RecommendationsTotal    int                 `json:"recommendations_total"`
	Trend                   []domain.TrendPoint `json:"trend"`
}

// Compare scores up to MaxCompareBusinesses businesses side by side, each
// with a synthesized recent trend. Unknown IDs are skipped rather than
// failing the whole comparison.
func (s *Service) Compare(ctx context.Context, businessIDs []int64) ([]ComparisonEntry, error) {
	start := time.Now()
	defer func() {
		s.metrics.FleetOps.WithLabelValues("compare").Inc()
		s.metrics.FleetOpDuration.WithLabelValues("compare").Observe(time.Since(start).Seconds())
	}()

	if len(businessIDs) > MaxCompareBusinesses {
		return nil, ErrTooManyBusinesses
	}

	rng := s.newRand()
	out := make([]ComparisonEntry, 0, len(businessIDs))

	for _, id := range businessIDs {
		business, err := s.businesses.Business(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("lookup business %d: %w", id, err)
		}
		if business == nil {
			continue
		}

		result, err := s.scoreBusiness(ctx, *business)
		if err != nil {
			return nil, err
		}

		out = append(out, ComparisonEntry{
			BusinessID:              business.BusinessID,
			BusinessName:            business.Name,
			StoreType:               business.StoreType,
			City:                    business.City,
			CurrentScore:            result.OverallScore,
			RankLevel:               result.Rank,
			RecommendationsFollowed: result.RecommendationsFollowed,
			RecommendationsTotal:    result.RecommendationsTotal,
			Trend:                   domain.SynthesizeTrend(result.OverallScore, s.cfg.TrendDays, rng),
		})
	}
	return out, nil
}
