package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canopyrisk/compliance-engine/internal/domain"
	"github.com/canopyrisk/compliance-engine/internal/ranking"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *Store) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock, New(db)
}

func TestReadingsSince(t *testing.T) {
	_, mock, store := setupMockDB(t)

	since := time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)
	ts := since.Add(6 * time.Hour)

	rows := sqlmock.NewRows([]string{
		"reading_id", "business_id", "sensor_id", "sensor_type", "location",
		"reading_value", "unit", "status", "recommendation_compliance", "timestamp",
	}).
		AddRow(11, 1, "temp-01", "Temperature", "Walk-in Cooler", 3.4, "C", "normal", "compliant", ts).
		AddRow(12, 1, "power-01", "Power", "Main Panel", 228.0, "V", "warning", "non_compliant", ts)

	mock.ExpectQuery(`SELECT .+ FROM sensor_readings`).
		WithArgs(int64(1), since).
		WillReturnRows(rows)

	readings, err := store.ReadingsSince(context.Background(), 1, since)

	require.NoError(t, err)
	require.Len(t, readings, 2)
	assert.Equal(t, "temp-01", readings[0].SensorID)
	assert.Equal(t, domain.SensorTemperature, readings[0].SensorType)
	assert.Equal(t, 3.4, readings[0].Value)
	assert.True(t, readings[0].Compliant())
	assert.Equal(t, domain.StatusWarning, readings[1].Status)
	assert.False(t, readings[1].Compliant())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReadingsSince_Empty(t *testing.T) {
	_, mock, store := setupMockDB(t)

	mock.ExpectQuery(`SELECT .+ FROM sensor_readings`).
		WillReturnRows(sqlmock.NewRows([]string{
			"reading_id", "business_id", "sensor_id", "sensor_type", "location",
			"reading_value", "unit", "status", "recommendation_compliance", "timestamp",
		}))

	readings, err := store.ReadingsSince(context.Background(), 99, time.Now())

	require.NoError(t, err)
	assert.Empty(t, readings)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecommendationsFor(t *testing.T) {
	_, mock, store := setupMockDB(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"tracking_id", "business_id", "climate_event", "recommendation_text",
		"status", "risk_level", "created_at", "updated_at",
	}).
		AddRow(1, 5, "heatwave", "Install backup cooling", "implemented", "high", now, now).
		AddRow(2, 5, "flood", "Elevate stock off the floor", "pending", "medium", now, now)

	mock.ExpectQuery(`SELECT .+ FROM recommendation_tracking`).
		WithArgs(int64(5)).
		WillReturnRows(rows)

	entries, err := store.RecommendationsFor(context.Background(), 5)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.RecommendationImplemented, entries[0].Status)
	assert.Equal(t, "flood", entries[1].ClimateEvent)

	followed, total := domain.CountRecommendations(entries)
	assert.Equal(t, 1, followed)
	assert.Equal(t, 2, total)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBusiness(t *testing.T) {
	_, mock, store := setupMockDB(t)

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"business_id", "name", "store_type", "city", "industry", "size", "insurance_company_id",
		}).AddRow(3, "Tacoma Meats & Deli", "butcher_shop", "Tacoma", "Food & Beverage", "medium", 1)

		mock.ExpectQuery(`SELECT .+ FROM businesses WHERE business_id`).
			WithArgs(int64(3)).
			WillReturnRows(rows)

		b, err := store.Business(context.Background(), 3)
		require.NoError(t, err)
		require.NotNil(t, b)
		assert.Equal(t, "Tacoma Meats & Deli", b.Name)
		assert.Equal(t, int64(1), b.InsurerID)
	})

	t.Run("missing returns nil, not error", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .+ FROM businesses WHERE business_id`).
			WithArgs(int64(404)).
			WillReturnError(sql.ErrNoRows)

		b, err := store.Business(context.Background(), 404)
		require.NoError(t, err)
		assert.Nil(t, b)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBusinesses_Filtered(t *testing.T) {
	_, mock, store := setupMockDB(t)

	rows := sqlmock.NewRows([]string{
		"business_id", "name", "store_type", "city", "industry", "size", "insurance_company_id",
	}).AddRow(2, "Columbus Fine Wines", "winery", "Columbus", "Agriculture & Wine", "large", 7)

	mock.ExpectQuery(`SELECT .+ FROM businesses WHERE insurance_company_id = \$1 AND store_type = \$2 ORDER BY business_id`).
		WithArgs(int64(7), "winery").
		WillReturnRows(rows)

	businesses, err := store.Businesses(context.Background(), ranking.BusinessFilter{
		InsurerID: 7,
		StoreType: "winery",
	})

	require.NoError(t, err)
	require.Len(t, businesses, 1)
	assert.Equal(t, "Columbus Fine Wines", businesses[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPoliciesFor(t *testing.T) {
	_, mock, store := setupMockDB(t)

	rows := sqlmock.NewRows([]string{
		"policy_id", "insurance_company_id", "business_id", "store_type", "compliance_threshold",
	}).
		AddRow(1, 7, 3, "", 75.0).
		AddRow(2, 7, nil, "winery", 80.0)

	mock.ExpectQuery(`SELECT .+ FROM policies`).
		WithArgs(int64(7)).
		WillReturnRows(rows)

	policies, err := store.PoliciesFor(context.Background(), 7)

	require.NoError(t, err)
	require.Len(t, policies, 2)
	require.NotNil(t, policies[0].BusinessID)
	assert.Equal(t, int64(3), *policies[0].BusinessID)
	assert.Nil(t, policies[1].BusinessID)
	assert.Equal(t, "winery", policies[1].StoreType)
	assert.Equal(t, 80.0, policies[1].Threshold)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCounts(t *testing.T) {
	_, mock, store := setupMockDB(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM business_notes`).
		WithArgs(int64(7), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM claims`).
		WithArgs(int64(7), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	notes, err := store.NoteCount(context.Background(), 7, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, notes)

	claims, err := store.ClaimCount(context.Background(), 7, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, claims)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertSnapshot(t *testing.T) {
	_, mock, store := setupMockDB(t)

	snap := domain.RankingSnapshot{
		BusinessID:              3,
		OverallScore:            85,
		Position:                2,
		RankLevel:               domain.RankGood,
		RecommendationsFollowed: 3,
		RecommendationsTotal:    4,
		LastUpdated:             time.Date(2025, 3, 10, 3, 0, 0, 0, time.UTC),
	}

	mock.ExpectExec(`INSERT INTO business_rankings`).
		WithArgs(snap.BusinessID, snap.OverallScore, snap.Position, snap.RankLevel,
			snap.RecommendationsFollowed, snap.RecommendationsTotal, snap.LastUpdated).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.UpsertSnapshot(context.Background(), snap))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshot(t *testing.T) {
	_, mock, store := setupMockDB(t)

	t.Run("found", func(t *testing.T) {
		updated := time.Date(2025, 3, 10, 3, 0, 0, 0, time.UTC)
		rows := sqlmock.NewRows([]string{
			"business_id", "overall_score", "rank", "rank_level",
			"recommendations_followed", "recommendations_total", "last_updated",
		}).AddRow(3, 85, 2, "Good", 3, 4, updated)

		mock.ExpectQuery(`SELECT .+ FROM business_rankings`).
			WithArgs(int64(3)).
			WillReturnRows(rows)

		snap, err := store.Snapshot(context.Background(), 3)
		require.NoError(t, err)
		require.NotNil(t, snap)
		assert.Equal(t, 85, snap.OverallScore)
		assert.Equal(t, 2, snap.Position)
	})

	t.Run("not built yet", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .+ FROM business_rankings`).
			WithArgs(int64(404)).
			WillReturnError(sql.ErrNoRows)

		snap, err := store.Snapshot(context.Background(), 404)
		require.NoError(t, err)
		assert.Nil(t, snap)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}
