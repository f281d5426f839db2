// Command seed populates a development database with demo businesses,
// sensor readings, and recommendation entries. The clock is pinned and
// the random source is seeded, so repeated runs against a fresh database
// produce identical data. Demo businesses are seeded once rather than
// continuously, which is why the scoring service reads them with a long
// lookback window.
//
// Usage:
//
//	go run ./cmd/seed -database-url postgres://localhost/canopy?sslmode=disable
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"

	"github.com/canopyrisk/compliance-engine/internal/domain"
)

var seedDate = time.Date(2025, time.February, 1, 12, 0, 0, 0, time.UTC)

type demoBusiness struct {
	name      string
	storeType string
	city      string
	industry  string
	size      string
	insurerID int64
	threshold float64
}

var demoBusinesses = []demoBusiness{
	{"Amarillo Prime Cuts", "butcher_shop", "Amarillo", "Food & Beverage", "small", 1, 75},
	{"Columbus Fine Wines", "winery", "Columbus", "Agriculture & Wine", "medium", 1, 80},
	{"Tacoma Meats & Deli", "butcher_shop", "Tacoma", "Food & Beverage", "medium", 1, 75},
	{"Fairfield Estate Winery", "winery", "Fairfield", "Agriculture & Wine", "large", 2, 80},
	{"Georgetown Butcher Co.", "butcher_shop", "Georgetown", "Food & Beverage", "small", 2, 70},
	{"Portland Valley Wines", "winery", "Portland", "Agriculture & Wine", "medium", 2, 85},
}

type sensorDef struct {
	sensorType string
	location   string
	value      float64
	unit       string
}

func sensorsFor(storeType string) []sensorDef {
	if storeType == "winery" {
		return []sensorDef{
			{domain.SensorTemperature, "Barrel Cellar", 13.5, "C"},
			{domain.SensorTemperature, "Tasting Room", 20.0, "C"},
			{domain.SensorHumidity, "Barrel Cellar", 72.0, "%"},
			{domain.SensorPower, "Main Panel", 230.0, "V"},
		}
	}
	return []sensorDef{
		{domain.SensorTemperature, "Walk-in Cooler", 3.0, "C"},
		{domain.SensorTemperature, "Display Case", 4.5, "C"},
		{domain.SensorHumidity, "Dry-aging Room", 80.0, "%"},
		{domain.SensorPower, "Main Panel", 228.0, "V"},
	}
}

var recommendations = []struct {
	climateEvent string
	text         string
	riskLevel    string
}{
	{"heatwave", "Install a backup cooling unit for refrigerated storage", "high"},
	{"storm", "Add surge protection to the main electrical panel", "medium"},
	{"flood", "Raise stored inventory at least 30cm off the floor", "medium"},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	databaseURL := flag.String("database-url", os.Getenv("DATABASE_URL"), "postgres connection string")
	readingsPerSensor := flag.Int("readings", 24, "readings to generate per sensor")
	flag.Parse()

	if *databaseURL == "" {
		flag.Usage()
		return fmt.Errorf("missing -database-url (or DATABASE_URL)")
	}

	// Pin the clock so reading timestamps are reproducible.
	domain.SetClock(clockwork.NewFakeClockAt(seedDate))
	defer domain.SetClock(nil)

	db, err := sql.Open("postgres", *databaseURL)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}

	rng := rand.New(rand.NewSource(20250201))

	for _, b := range demoBusinesses {
		businessID, err := insertBusiness(ctx, db, b)
		if err != nil {
			return fmt.Errorf("seeding %s: %w", b.name, err)
		}

		readings, err := insertReadings(ctx, db, businessID, b.storeType, *readingsPerSensor, rng)
		if err != nil {
			return fmt.Errorf("seeding readings for %s: %w", b.name, err)
		}
		recs, err := insertRecommendations(ctx, db, businessID, rng)
		if err != nil {
			return fmt.Errorf("seeding recommendations for %s: %w", b.name, err)
		}
		if err := insertPolicy(ctx, db, businessID, b); err != nil {
			return fmt.Errorf("seeding policy for %s: %w", b.name, err)
		}

		log.Printf("%s: business_id=%d readings=%d recommendations=%d", b.name, businessID, readings, recs)
	}

	log.Printf("seeded %d demo businesses as of %s", len(demoBusinesses), seedDate.Format(time.RFC3339))
	return nil
}

func insertBusiness(ctx context.Context, db *sql.DB, b demoBusiness) (int64, error) {
	const query = `
		INSERT INTO businesses (name, store_type, city, industry, size, insurance_company_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING business_id`

	var id int64
	err := db.QueryRowContext(ctx, query,
		b.name, b.storeType, b.city, b.industry, b.size, b.insurerID,
	).Scan(&id)
	return id, err
}

func insertReadings(ctx context.Context, db *sql.DB, businessID int64, storeType string, perSensor int, rng *rand.Rand) (int, error) {
	const query = `
		INSERT INTO sensor_readings
			(business_id, sensor_id, sensor_type, location, reading_value,
			 unit, status, recommendation_compliance, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	total := 0
	for _, def := range sensorsFor(storeType) {
		sensorID := uuid.NewString()
		for i := 0; i < perSensor; i++ {
			ts := seedDate.Add(-time.Duration(perSensor-1-i) * time.Hour)
			status := pickStatus(rng)
			value := def.value + rng.Float64()*2 - 1

			compliance := domain.FlagCompliant
			if status != domain.StatusNormal {
				compliance = domain.FlagNonCompliant
			}

			if _, err := db.ExecContext(ctx, query,
				businessID, sensorID, def.sensorType, def.location, value,
				def.unit, status, compliance, ts,
			); err != nil {
				return total, err
			}
			total++
		}
	}
	return total, nil
}

// pickStatus skews heavily toward normal so demo scores land in the
// Good/Fair bands rather than pinning at the extremes.
func pickStatus(rng *rand.Rand) string {
	switch v := rng.Float64(); {
	case v < 0.70:
		return domain.StatusNormal
	case v < 0.92:
		return domain.StatusWarning
	default:
		return domain.StatusCritical
	}
}

func insertRecommendations(ctx context.Context, db *sql.DB, businessID int64, rng *rand.Rand) (int, error) {
	const query = `
		INSERT INTO recommendation_tracking
			(business_id, climate_event, recommendation_text, status, risk_level, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for i, rec := range recommendations {
		status := domain.RecommendationPending
		if rng.Float64() < 0.5 {
			status = domain.RecommendationImplemented
		}
		createdAt := seedDate.Add(-time.Duration(7*(i+1)) * 24 * time.Hour)

		if _, err := db.ExecContext(ctx, query,
			businessID, rec.climateEvent, rec.text, status, rec.riskLevel, createdAt, seedDate,
		); err != nil {
			return i, err
		}
	}
	return len(recommendations), nil
}

func insertPolicy(ctx context.Context, db *sql.DB, businessID int64, b demoBusiness) error {
	const query = `
		INSERT INTO policies (insurance_company_id, business_id, compliance_threshold)
		VALUES ($1, $2, $3)`

	_, err := db.ExecContext(ctx, query, b.insurerID, businessID, b.threshold)
	return err
}
