package domain

import (
	"math"
	"math/rand"
	"time"
)

// DefaultTrendDays is the length of the synthesized comparison series.
const DefaultTrendDays = 7

// SynthesizeTrend produces a backward-looking daily score series ending at
// the current score today. Each prior day is the current score perturbed
// by a uniform value in [-5, +5], clamped to [0, 100] and rounded to one
// decimal.
//
// This is illustrative placeholder data, not a historical reconstruction:
// it is regenerated fresh on every call, so callers must not persist it or
// compare it across calls. The rand source is injected so tests (and the
// seed tool) can pin outputs.
func SynthesizeTrend(currentScore int, days int, rng *rand.Rand) []TrendPoint {
	if days <= 0 {
		days = DefaultTrendDays
	}

	today := clock.Now().UTC().Truncate(24 * time.Hour)
	points := make([]TrendPoint, 0, days)

	for i := 0; i < days; i++ {
		date := today.AddDate(0, 0, -(days - 1 - i))
		score := float64(currentScore)
		if i < days-1 {
			score = clampScore(score + (rng.Float64()*10 - 5))
		}
		points = append(points, TrendPoint{
			Date:  date,
			Score: math.Round(score*10) / 10,
		})
	}
	return points
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
