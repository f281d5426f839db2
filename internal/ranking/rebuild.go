package ranking

import (
	"context"
	"time"

	"github.com/canopyrisk/compliance-engine/internal/domain"
)

// RebuildSnapshots recomputes every business's compliance, assigns ranking
// positions, and upserts the materialized snapshot rows. The snapshot is a
// denormalized read optimization only: the authoritative computation is
// always the scorer re-run over current state, and the rows here are
// rebuilt wholesale, never hand-edited.
//
// source labels the trigger (cron, kafka, manual) for metrics.
func (s *Service) RebuildSnapshots(ctx context.Context, source string) (int, error) {
	start := time.Now()
	s.metrics.RebuildTriggers.WithLabelValues(source).Inc()
	defer func() {
		s.metrics.RebuildDuration.Observe(time.Since(start).Seconds())
	}()

	result, err := s.Rank(ctx, RankOptions{Limit: int(^uint(0) >> 1)})
	if err != nil {
		return 0, err
	}

	now := domain.Now().UTC()
	upserted := 0
	for _, entry := range result.Rankings {
		snapshot := domain.RankingSnapshot{
			BusinessID:              entry.BusinessID,
			OverallScore:            entry.Score,
			Position:                entry.Position,
			RankLevel:               entry.RankLevel,
			RecommendationsFollowed: entry.RecommendationsFollowed,
			RecommendationsTotal:    entry.RecommendationsTotal,
			LastUpdated:             now,
		}
		if err := s.snapshots.UpsertSnapshot(ctx, snapshot); err != nil {
			return upserted, err
		}
		upserted++
		s.metrics.SnapshotsUpserted.Inc()
	}

	if s.cache != nil {
		if err := s.cache.InvalidateAll(ctx); err != nil {
			s.logger.Warn("cache invalidation after rebuild failed", "error", err)
		}
	}

	s.logger.Info("ranking snapshots rebuilt",
		"source", source,
		"businesses", upserted,
		"duration", time.Since(start),
	)
	return upserted, nil
}
