package ranking

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// SortAscending requests lowest-score-first ordering; anything else sorts
// descending.
const SortAscending = "asc"

// RankOptions controls a fleet ranking computation.
type RankOptions struct {
	// CallerBusinessID extracts the caller's own business out of the
	// general leaderboard. Zero means the caller has no business.
	CallerBusinessID int64
	// Limit truncates the leaderboard; the caller's own entry does not
	// count against it. Zero uses the configured default.
	Limit     int
	SortOrder string
}

// RankedEntry is one business on the leaderboard.
type RankedEntry struct {
	BusinessID              int64  `json:"business_id"`
	BusinessName            string `json:"business_name"`
	StoreType               string `json:"store_type"`
	City                    string `json:"city"`
	Score                   int    `json:"score"`
	RankLevel               string `json:"rank_level"`
	RecommendationsFollowed int    `json:"recommendations_followed"`
	RecommendationsTotal    int    `json:"recommendations_total"`
	Position                int    `json:"rank"`
}

// RankingResult is the leaderboard plus the caller's own extracted entry.
type RankingResult struct {
	Rankings     []RankedEntry `json:"rankings"`
	YourBusiness *RankedEntry  `json:"your_business"`
}

// Rank scores every business, sorts by overall score, and assigns 1-based
// positions. A business with no stored data still appears with a No Data
// zero entry. Equal scores order by ascending business ID so the result is
// deterministic regardless of storage iteration order.
func (s *Service) Rank(ctx context.Context, opts RankOptions) (RankingResult, error) {
	start := time.Now()
	defer func() {
		s.metrics.FleetOps.WithLabelValues("ranking").Inc()
		s.metrics.FleetOpDuration.WithLabelValues("ranking").Observe(time.Since(start).Seconds())
	}()

	businesses, err := s.businesses.Businesses(ctx, BusinessFilter{})
	if err != nil {
		return RankingResult{}, fmt.Errorf("list businesses: %w", err)
	}

	results, err := s.scoreAll(ctx, businesses)
	if err != nil {
		return RankingResult{}, err
	}

	entries := make([]RankedEntry, 0, len(results))
	for _, r := range results {
		entries = append(entries, RankedEntry{
			BusinessID:              r.business.BusinessID,
			BusinessName:            r.business.Name,
			StoreType:               r.business.StoreType,
			City:                    r.business.City,
			Score:                   r.result.OverallScore,
			RankLevel:               r.result.Rank,
			RecommendationsFollowed: r.result.RecommendationsFollowed,
			RecommendationsTotal:    r.result.RecommendationsTotal,
		})
	}

	ascending := opts.SortOrder == SortAscending
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			if ascending {
				return entries[i].Score < entries[j].Score
			}
			return entries[i].Score > entries[j].Score
		}
		return entries[i].BusinessID < entries[j].BusinessID
	})
	for i := range entries {
		entries[i].Position = i + 1
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}

	var yours *RankedEntry
	rankings := make([]RankedEntry, 0, len(entries))
	for _, e := range entries {
		if opts.CallerBusinessID != 0 && e.BusinessID == opts.CallerBusinessID {
			entry := e
			yours = &entry
			continue
		}
		rankings = append(rankings, e)
	}
	if len(rankings) > limit {
		rankings = rankings[:limit]
	}

	return RankingResult{Rankings: rankings, YourBusiness: yours}, nil
}
