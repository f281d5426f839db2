package ranking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/canopyrisk/compliance-engine/internal/domain"
	"github.com/canopyrisk/compliance-engine/internal/observability"
)

// ErrBusinessNotFound is returned when a scoring operation references a
// business identifier that does not exist.
var ErrBusinessNotFound = errors.New("business not found")

// SensorSource returns a business's raw readings within a time window.
// Deduplication to the latest reading per sensor happens in the domain
// layer, not in storage.
type SensorSource interface {
	ReadingsSince(ctx context.Context, businessID int64, since time.Time) ([]domain.SensorReading, error)
}

// RecommendationSource returns a business's recommendation-tracking entries.
type RecommendationSource interface {
	RecommendationsFor(ctx context.Context, businessID int64) ([]domain.RecommendationEntry, error)
}

// BusinessFilter narrows a business listing. Zero value means no filtering.
type BusinessFilter struct {
	InsurerID int64  // 0 = all insurers (fleet-wide admin scope)
	StoreType string // "" = all store types
}

// BusinessSource returns business display metadata.
type BusinessSource interface {
	Business(ctx context.Context, businessID int64) (*domain.Business, error)
	Businesses(ctx context.Context, filter BusinessFilter) ([]domain.Business, error)
}

// PolicySource returns an insurer's policies.
type PolicySource interface {
	PoliciesFor(ctx context.Context, insurerID int64) ([]domain.Policy, error)
}

// EngagementSource returns note and claim counts for portfolio entries.
type EngagementSource interface {
	NoteCount(ctx context.Context, insurerID, businessID int64) (int, error)
	ClaimCount(ctx context.Context, insurerID, businessID int64) (int, error)
}

// SnapshotStore persists the materialized ranking view. Upsert semantics:
// at most one row per business.
type SnapshotStore interface {
	UpsertSnapshot(ctx context.Context, snapshot domain.RankingSnapshot) error
}

// ResultCache is an optional read-through cache for single-business
// compliance results. A miss is (nil, nil).
type ResultCache interface {
	Get(ctx context.Context, businessID int64) (*domain.ComplianceResult, error)
	Set(ctx context.Context, businessID int64, result domain.ComplianceResult) error
	InvalidateAll(ctx context.Context) error
}

// Config carries the explicit scoring configuration: lookback windows, the
// demo-business window exception, fan-out width, and trend length.
type Config struct {
	WindowHours     int
	DemoWindowHours int
	// DemoBusinessNames lists seed businesses whose one-time data is read
	// with the demo window instead of the default one.
	DemoBusinessNames []string
	Workers           int
	DefaultLimit      int
	TrendDays         int
}

func (c Config) withDefaults() Config {
	if c.WindowHours <= 0 {
		c.WindowHours = 24
	}
	if c.DemoWindowHours <= 0 {
		c.DemoWindowHours = 8760
	}
	if c.Workers <= 0 {
		c.Workers = 8
	}
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = 10
	}
	if c.TrendDays <= 0 {
		c.TrendDays = domain.DefaultTrendDays
	}
	return c
}

// Service applies the pure compliance scorer across stored sensor and
// recommendation state: single-business scores, fleet rankings, insurer
// portfolios, comparison views, and snapshot rebuilds.
type Service struct {
	sensors         SensorSource
	recommendations RecommendationSource
	businesses      BusinessSource
	policies        PolicySource
	engagement      EngagementSource
	snapshots       SnapshotStore
	cache           ResultCache

	cfg       Config
	demoNames map[string]struct{}
	newRand   func() *rand.Rand
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// Option tweaks optional Service collaborators.
type Option func(*Service)

// WithCache attaches a compliance-result cache to the single-business path.
func WithCache(cache ResultCache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithEngagement attaches the note/claim count source for portfolio views.
func WithEngagement(engagement EngagementSource) Option {
	return func(s *Service) { s.engagement = engagement }
}

// WithRandSource replaces the trend synthesizer's pseudo-random source
// constructor. Tests pin a seed here.
func WithRandSource(newRand func() *rand.Rand) Option {
	return func(s *Service) { s.newRand = newRand }
}

// New creates a scoring Service over the given collaborators.
func New(
	sensors SensorSource,
	recommendations RecommendationSource,
	businesses BusinessSource,
	policies PolicySource,
	snapshots SnapshotStore,
	cfg Config,
	logger *slog.Logger,
	metrics *observability.Metrics,
	opts ...Option,
) *Service {
	cfg = cfg.withDefaults()

	demoNames := make(map[string]struct{}, len(cfg.DemoBusinessNames))
	for _, name := range cfg.DemoBusinessNames {
		demoNames[name] = struct{}{}
	}

	s := &Service{
		sensors:         sensors,
		recommendations: recommendations,
		businesses:      businesses,
		policies:        policies,
		snapshots:       snapshots,
		cfg:             cfg,
		demoNames:       demoNames,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(domain.Now().UnixNano()))
		},
		logger:  logger,
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// windowFor returns the lookback window for a business. Demo businesses
// keep their one-time seed data visible through a much longer window; this
// is an explicit exception policy, not a bug.
func (s *Service) windowFor(b domain.Business) time.Duration {
	hours := s.cfg.WindowHours
	if _, ok := s.demoNames[b.Name]; ok {
		hours = s.cfg.DemoWindowHours
	}
	return time.Duration(hours) * time.Hour
}

// LatestReadings returns the deduplicated most-recent-per-sensor view of a
// business's readings within the given window. A windowHours of 0 uses the
// business's configured window.
func (s *Service) LatestReadings(ctx context.Context, businessID int64, windowHours int) ([]domain.SensorReading, error) {
	business, err := s.businesses.Business(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("lookup business %d: %w", businessID, err)
	}
	if business == nil {
		return nil, ErrBusinessNotFound
	}

	window := s.windowFor(*business)
	if windowHours > 0 {
		window = time.Duration(windowHours) * time.Hour
	}

	readings, err := s.sensors.ReadingsSince(ctx, businessID, domain.Now().Add(-window))
	if err != nil {
		return nil, fmt.Errorf("read sensors for business %d: %w", businessID, err)
	}
	return domain.LatestPerSensor(readings), nil
}

// ComplianceFor computes the current compliance result for one business,
// consulting the result cache when one is attached.
func (s *Service) ComplianceFor(ctx context.Context, businessID int64) (domain.ComplianceResult, error) {
	business, err := s.businesses.Business(ctx, businessID)
	if err != nil {
		return domain.ComplianceResult{}, fmt.Errorf("lookup business %d: %w", businessID, err)
	}
	if business == nil {
		return domain.ComplianceResult{}, ErrBusinessNotFound
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, businessID)
		switch {
		case err != nil:
			s.metrics.CacheLookups.WithLabelValues("error").Inc()
			s.logger.Warn("result cache get failed", "business_id", businessID, "error", err)
		case cached != nil:
			s.metrics.CacheLookups.WithLabelValues("hit").Inc()
			return *cached, nil
		default:
			s.metrics.CacheLookups.WithLabelValues("miss").Inc()
		}
	}

	result, err := s.scoreBusiness(ctx, *business)
	if err != nil {
		return domain.ComplianceResult{}, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, businessID, result); err != nil {
			s.logger.Warn("result cache set failed", "business_id", businessID, "error", err)
		}
	}
	return result, nil
}

// scoreBusiness is the authoritative per-business computation: window the
// readings, deduplicate, count recommendations, and run the pure scorer.
func (s *Service) scoreBusiness(ctx context.Context, business domain.Business) (domain.ComplianceResult, error) {
	since := domain.Now().Add(-s.windowFor(business))

	readings, err := s.sensors.ReadingsSince(ctx, business.BusinessID, since)
	if err != nil {
		s.metrics.ScoreErrors.Inc()
		return domain.ComplianceResult{}, fmt.Errorf("read sensors for business %d: %w", business.BusinessID, err)
	}

	entries, err := s.recommendations.RecommendationsFor(ctx, business.BusinessID)
	if err != nil {
		s.metrics.ScoreErrors.Inc()
		return domain.ComplianceResult{}, fmt.Errorf("read recommendations for business %d: %w", business.BusinessID, err)
	}

	followed, total := domain.CountRecommendations(entries)
	result := domain.Score(domain.LatestPerSensor(readings), followed, total)
	s.metrics.ScoresComputed.Inc()
	return result, nil
}

// scored pairs a business with its computed compliance result.
type scored struct {
	business domain.Business
	result   domain.ComplianceResult
}

// scoreAll fans the per-business computation out across a bounded worker
// pool. Each business's computation touches disjoint data, so no shared
// state beyond the output slice is needed. The output preserves input
// order; the first storage error aborts the whole operation.
func (s *Service) scoreAll(ctx context.Context, businesses []domain.Business) ([]scored, error) {
	out := make([]scored, len(businesses))
	jobs := make(chan int)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	workers := s.cfg.Workers
	if workers > len(businesses) {
		workers = len(businesses)
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				result, err := s.scoreBusiness(ctx, businesses[i])
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
						cancel()
					}
					mu.Unlock()
					return
				}
				out[i] = scored{business: businesses[i], result: result}
			}
		}()
	}

feed:
	for i := 0; i < len(businesses); i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
