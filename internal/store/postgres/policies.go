package postgres

import (
	"context"
	"fmt"

	"github.com/canopyrisk/compliance-engine/internal/domain"
)

// PoliciesFor returns an insurer's policies. Business-scoped rows carry a
// business_id; store-type rows carry a store_type; the ranking layer picks
// the most specific match per business.
func (s *Store) PoliciesFor(ctx context.Context, insurerID int64) ([]domain.Policy, error) {
	const query = `
		SELECT policy_id, insurance_company_id, business_id,
		       COALESCE(store_type, ''), compliance_threshold
		FROM policies
		WHERE insurance_company_id = $1
		ORDER BY policy_id`

	rows, err := s.db.QueryContext(ctx, query, insurerID)
	if err != nil {
		return nil, fmt.Errorf("query policies: %w", err)
	}
	defer rows.Close()

	var policies []domain.Policy
	for rows.Next() {
		var p domain.Policy
		if err := rows.Scan(
			&p.PolicyID, &p.InsurerID, &p.BusinessID, &p.StoreType, &p.Threshold,
		); err != nil {
			return nil, fmt.Errorf("scan policy: %w", err)
		}
		policies = append(policies, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate policies: %w", err)
	}
	return policies, nil
}

// NoteCount returns the number of notes an insurer holds on a business.
func (s *Store) NoteCount(ctx context.Context, insurerID, businessID int64) (int, error) {
	return s.countFor(ctx, "business_notes", insurerID, businessID)
}

// ClaimCount returns the number of claims an insurer holds on a business.
func (s *Store) ClaimCount(ctx context.Context, insurerID, businessID int64) (int, error) {
	return s.countFor(ctx, "claims", insurerID, businessID)
}

func (s *Store) countFor(ctx context.Context, table string, insurerID, businessID int64) (int, error) {
	query := fmt.Sprintf(
		`SELECT COUNT(*) FROM %s WHERE insurance_company_id = $1 AND business_id = $2`, table)

	var count int
	if err := s.db.QueryRowContext(ctx, query, insurerID, businessID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return count, nil
}
