package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/canopyrisk/compliance-engine/internal/domain"
	"github.com/canopyrisk/compliance-engine/internal/ranking"
)

const businessColumns = `business_id, name, COALESCE(store_type, ''), COALESCE(city, ''),
	       COALESCE(industry, ''), COALESCE(size, ''), COALESCE(insurance_company_id, 0)`

// Business returns one business by ID, or nil when it does not exist. A
// missing business is not an error; the caller decides whether that is a
// not-found condition or just "no data".
func (s *Store) Business(ctx context.Context, businessID int64) (*domain.Business, error) {
	query := `SELECT ` + businessColumns + ` FROM businesses WHERE business_id = $1`

	var b domain.Business
	err := s.db.QueryRowContext(ctx, query, businessID).Scan(
		&b.BusinessID, &b.Name, &b.StoreType, &b.City, &b.Industry, &b.Size, &b.InsurerID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query business %d: %w", businessID, err)
	}
	return &b, nil
}

// Businesses lists businesses, optionally scoped to an insurer and store
// type. Ordered by business_id for stable iteration.
func (s *Store) Businesses(ctx context.Context, filter ranking.BusinessFilter) ([]domain.Business, error) {
	query := `SELECT ` + businessColumns + ` FROM businesses`
	var (
		where []string
		args  []any
	)
	if filter.InsurerID != 0 {
		args = append(args, filter.InsurerID)
		where = append(where, fmt.Sprintf("insurance_company_id = $%d", len(args)))
	}
	if filter.StoreType != "" {
		args = append(args, filter.StoreType)
		where = append(where, fmt.Sprintf("store_type = $%d", len(args)))
	}
	for i, clause := range where {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " ORDER BY business_id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query businesses: %w", err)
	}
	defer rows.Close()

	var businesses []domain.Business
	for rows.Next() {
		var b domain.Business
		if err := rows.Scan(
			&b.BusinessID, &b.Name, &b.StoreType, &b.City, &b.Industry, &b.Size, &b.InsurerID,
		); err != nil {
			return nil, fmt.Errorf("scan business: %w", err)
		}
		businesses = append(businesses, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate businesses: %w", err)
	}
	return businesses, nil
}
