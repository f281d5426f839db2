package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/canopyrisk/compliance-engine/internal/domain"
)

// ReadingsSince returns all of a business's sensor readings with timestamp
// at or after the cutoff. Deduplication to the latest reading per sensor
// is the domain layer's job; returning the full window keeps this query
// simple and index-friendly (business_id, timestamp).
func (s *Store) ReadingsSince(ctx context.Context, businessID int64, since time.Time) ([]domain.SensorReading, error) {
	const query = `
		SELECT reading_id, business_id, sensor_id, sensor_type, location,
		       reading_value, unit, status, recommendation_compliance, timestamp
		FROM sensor_readings
		WHERE business_id = $1 AND timestamp >= $2`

	rows, err := s.db.QueryContext(ctx, query, businessID, since)
	if err != nil {
		return nil, fmt.Errorf("query sensor readings: %w", err)
	}
	defer rows.Close()

	var readings []domain.SensorReading
	for rows.Next() {
		var r domain.SensorReading
		if err := rows.Scan(
			&r.ReadingID, &r.BusinessID, &r.SensorID, &r.SensorType, &r.Location,
			&r.Value, &r.Unit, &r.Status, &r.Compliance, &r.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan sensor reading: %w", err)
		}
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sensor readings: %w", err)
	}
	return readings, nil
}
