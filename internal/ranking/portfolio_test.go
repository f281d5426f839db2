package ranking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canopyrisk/compliance-engine/internal/domain"
)

func int64Ptr(v int64) *int64       { return &v }
func float64Ptr(v float64) *float64 { return &v }

func TestPortfolio(t *testing.T) {
	t.Run("risk tiers and sorting", func(t *testing.T) {
		store := newFakeStore()
		store.addBusiness(1, "Shop A", domain.StatusWarning) // 50 -> Critical
		store.addBusiness(2, "Shop B", domain.StatusNormal)  // 100 -> Low
		store.addBusiness(3, "Shop C", domain.StatusNormal, domain.StatusWarning, domain.StatusWarning) // 66 -> High
		svc := newTestService(t, store)

		result, err := svc.Portfolio(context.Background(), 1, true, PortfolioFilters{})
		require.NoError(t, err)
		require.Equal(t, 3, result.Total)

		assert.Equal(t, int64(2), result.Businesses[0].BusinessID)
		assert.Equal(t, domain.RiskLow, result.Businesses[0].RiskLevel)
		assert.Equal(t, int64(3), result.Businesses[1].BusinessID)
		assert.Equal(t, domain.RiskHigh, result.Businesses[1].RiskLevel)
		assert.Equal(t, int64(1), result.Businesses[2].BusinessID)
		assert.Equal(t, domain.RiskCritical, result.Businesses[2].RiskLevel)
	})

	t.Run("policy violation flag", func(t *testing.T) {
		store := newFakeStore()
		store.addBusiness(1, "Shop A", domain.StatusNormal, domain.StatusWarning, domain.StatusWarning, domain.StatusWarning) // 62
		store.addBusiness(2, "Shop B", domain.StatusNormal)                                                                   // 100, no policy
		store.policies = []domain.Policy{
			{PolicyID: 10, InsurerID: 1, BusinessID: int64Ptr(1), Threshold: 75},
		}
		svc := newTestService(t, store)

		result, err := svc.Portfolio(context.Background(), 1, true, PortfolioFilters{})
		require.NoError(t, err)
		require.Equal(t, 2, result.Total)
		assert.Equal(t, 1, result.ViolationsCount)

		byID := portfolioByID(result.Businesses)
		violated := byID[1]
		require.NotNil(t, violated.PolicyThreshold)
		assert.Equal(t, 75.0, *violated.PolicyThreshold)
		assert.True(t, violated.PolicyViolated)

		clean := byID[2]
		assert.Nil(t, clean.PolicyThreshold)
		assert.False(t, clean.PolicyViolated)
	})

	t.Run("store-type policy is a fallback", func(t *testing.T) {
		store := newFakeStore()
		store.addBusiness(1, "Shop A", domain.StatusWarning) // 50, butcher_shop
		store.policies = []domain.Policy{
			{PolicyID: 11, InsurerID: 1, StoreType: "butcher_shop", Threshold: 60},
		}
		svc := newTestService(t, store)

		result, err := svc.Portfolio(context.Background(), 1, true, PortfolioFilters{})
		require.NoError(t, err)
		require.Equal(t, 1, result.Total)
		require.NotNil(t, result.Businesses[0].PolicyThreshold)
		assert.Equal(t, 60.0, *result.Businesses[0].PolicyThreshold)
		assert.True(t, result.Businesses[0].PolicyViolated)
		assert.Equal(t, 1, result.ViolationsCount)
	})

	t.Run("business-specific policy wins over store-type", func(t *testing.T) {
		store := newFakeStore()
		store.addBusiness(1, "Shop A", domain.StatusWarning) // 50
		store.policies = []domain.Policy{
			{PolicyID: 11, InsurerID: 1, StoreType: "butcher_shop", Threshold: 40},
			{PolicyID: 12, InsurerID: 1, BusinessID: int64Ptr(1), Threshold: 90},
		}
		svc := newTestService(t, store)

		result, err := svc.Portfolio(context.Background(), 1, true, PortfolioFilters{})
		require.NoError(t, err)
		require.NotNil(t, result.Businesses[0].PolicyThreshold)
		assert.Equal(t, 90.0, *result.Businesses[0].PolicyThreshold)
	})

	t.Run("filters", func(t *testing.T) {
		store := newFakeStore()
		store.addBusiness(1, "Shop A", domain.StatusWarning) // 50
		store.addBusiness(2, "Shop B", domain.StatusNormal)  // 100
		svc := newTestService(t, store)

		ctx := context.Background()

		result, err := svc.Portfolio(ctx, 1, true, PortfolioFilters{RiskLevel: domain.RiskLow})
		require.NoError(t, err)
		require.Equal(t, 1, result.Total)
		assert.Equal(t, int64(2), result.Businesses[0].BusinessID)

		result, err = svc.Portfolio(ctx, 1, true, PortfolioFilters{MinScore: float64Ptr(60)})
		require.NoError(t, err)
		require.Equal(t, 1, result.Total)
		assert.Equal(t, int64(2), result.Businesses[0].BusinessID)

		result, err = svc.Portfolio(ctx, 1, true, PortfolioFilters{MaxScore: float64Ptr(60)})
		require.NoError(t, err)
		require.Equal(t, 1, result.Total)
		assert.Equal(t, int64(1), result.Businesses[0].BusinessID)

		// MinScore of 0 is a real bound, not "unset".
		result, err = svc.Portfolio(ctx, 1, true, PortfolioFilters{MinScore: float64Ptr(0)})
		require.NoError(t, err)
		assert.Equal(t, 2, result.Total)
	})

	t.Run("insurer scoping", func(t *testing.T) {
		store := newFakeStore()
		store.businesses = []domain.Business{
			{BusinessID: 1, Name: "Mine", StoreType: "winery", InsurerID: 1},
			{BusinessID: 2, Name: "Theirs", StoreType: "winery", InsurerID: 2},
		}
		svc := newTestService(t, store)

		result, err := svc.Portfolio(context.Background(), 1, false, PortfolioFilters{})
		require.NoError(t, err)
		require.Equal(t, 1, result.Total)
		assert.Equal(t, int64(1), result.Businesses[0].BusinessID)

		// Admin scope sees the whole fleet.
		result, err = svc.Portfolio(context.Background(), 1, true, PortfolioFilters{})
		require.NoError(t, err)
		assert.Equal(t, 2, result.Total)
	})

	t.Run("engagement counts included", func(t *testing.T) {
		store := newFakeStore()
		store.addBusiness(1, "Shop A", domain.StatusNormal)
		store.notes[1] = 3
		store.claims[1] = 2
		svc := newTestService(t, store)

		result, err := svc.Portfolio(context.Background(), 1, true, PortfolioFilters{})
		require.NoError(t, err)
		assert.Equal(t, 3, result.Businesses[0].NotesCount)
		assert.Equal(t, 2, result.Businesses[0].ClaimsCount)
	})
}

func TestPolicyStatus(t *testing.T) {
	store := newFakeStore()
	store.addBusiness(1, "Shop A", domain.StatusWarning) // 50
	store.policies = []domain.Policy{
		{PolicyID: 10, InsurerID: 1, BusinessID: int64Ptr(1), Threshold: 75},
		{PolicyID: 11, InsurerID: 1, StoreType: "winery", Threshold: 80},
	}
	svc := newTestService(t, store)

	entries, err := svc.PolicyStatus(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	scoped := entries[0]
	require.NotNil(t, scoped.CurrentScore)
	assert.Equal(t, 50, *scoped.CurrentScore)
	assert.True(t, scoped.Violated)
	assert.Equal(t, "Shop A", scoped.BusinessName)

	general := entries[1]
	assert.Nil(t, general.CurrentScore)
	assert.False(t, general.Violated)
	assert.Equal(t, "winery", general.StoreType)
}

func TestCompare(t *testing.T) {
	t.Run("side-by-side with synthesized trend", func(t *testing.T) {
		store := newFakeStore()
		store.addBusiness(1, "Shop A", domain.StatusNormal)
		store.addBusiness(2, "Shop B", domain.StatusWarning)
		svc := newTestService(t, store)

		entries, err := svc.Compare(context.Background(), []int64{1, 2, 404})
		require.NoError(t, err)
		require.Len(t, entries, 2, "unknown business is skipped")

		assert.Equal(t, 100, entries[0].CurrentScore)
		require.Len(t, entries[0].Trend, domain.DefaultTrendDays)
		assert.Equal(t, 100.0, entries[0].Trend[domain.DefaultTrendDays-1].Score)
	})

	t.Run("pinned seed reproduces trends", func(t *testing.T) {
		store := newFakeStore()
		store.addBusiness(1, "Shop A", domain.StatusWarning)
		svc := newTestService(t, store)

		first, err := svc.Compare(context.Background(), []int64{1})
		require.NoError(t, err)
		second, err := svc.Compare(context.Background(), []int64{1})
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("too many businesses", func(t *testing.T) {
		svc := newTestService(t, newFakeStore())
		ids := make([]int64, MaxCompareBusinesses+1)
		_, err := svc.Compare(context.Background(), ids)
		assert.ErrorIs(t, err, ErrTooManyBusinesses)
	})
}

func portfolioByID(entries []PortfolioEntry) map[int64]PortfolioEntry {
	out := make(map[int64]PortfolioEntry, len(entries))
	for _, e := range entries {
		out[e.BusinessID] = e
	}
	return out
}
