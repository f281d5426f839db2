package ranking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/canopyrisk/compliance-engine/internal/domain"
)

// PortfolioFilters narrows an insurer's portfolio view. Filters on the
// derived tier and score are applied after scoring; the store-type filter
// is pushed down to storage.
type PortfolioFilters struct {
	RiskLevel string
	StoreType string
	MinScore  *float64
	MaxScore  *float64
}

// PortfolioEntry is one insured business with its live compliance state
// and policy comparison.
type PortfolioEntry struct {
	BusinessID      int64     `json:"business_id"`
	BusinessName    string    `json:"business_name"`
	StoreType       string    `json:"store_type"`
	City            string    `json:"city"`
	ComplianceScore float64   `json:"compliance_score"`
	RankLevel       string    `json:"rank_level"`
	RiskLevel       string    `json:"risk_level"`
	NotesCount      int       `json:"notes_count"`
	ClaimsCount     int       `json:"claims_count"`
	LastUpdated     time.Time `json:"last_updated"`
	PolicyThreshold *float64  `json:"policy_threshold"`
	PolicyViolated  bool      `json:"policy_violated"`
}

// PortfolioResult is the filtered portfolio plus aggregate counts.
type PortfolioResult struct {
	Businesses      []PortfolioEntry `json:"businesses"`
	Total           int              `json:"total"`
	ViolationsCount int              `json:"violations_count"`
}

// Portfolio scores an insurer's book of business, derives risk tiers,
// joins policy thresholds, and applies the caller's filters. With
// adminScope all businesses are in scope regardless of insurer linkage.
// Output is sorted by score descending.
func (s *Service) Portfolio(ctx context.Context, insurerID int64, adminScope bool, filters PortfolioFilters) (PortfolioResult, error) {
	start := time.Now()
	defer func() {
		s.metrics.FleetOps.WithLabelValues("portfolio").Inc()
		s.metrics.FleetOpDuration.WithLabelValues("portfolio").Observe(time.Since(start).Seconds())
	}()

	filter := BusinessFilter{StoreType: filters.StoreType}
	if !adminScope {
		filter.InsurerID = insurerID
	}
	businesses, err := s.businesses.Businesses(ctx, filter)
	if err != nil {
		return PortfolioResult{}, fmt.Errorf("list businesses: %w", err)
	}

	policies, err := s.policies.PoliciesFor(ctx, insurerID)
	if err != nil {
		return PortfolioResult{}, fmt.Errorf("list policies: %w", err)
	}

	results, err := s.scoreAll(ctx, businesses)
	if err != nil {
		return PortfolioResult{}, err
	}

	now := domain.Now().UTC()
	entries := make([]PortfolioEntry, 0, len(results))
	violations := 0

	for _, r := range results {
		score := r.result.OverallScore
		tier := domain.RiskTier(score)

		if filters.RiskLevel != "" && tier != filters.RiskLevel {
			continue
		}
		if filters.MinScore != nil && float64(score) < *filters.MinScore {
			continue
		}
		if filters.MaxScore != nil && float64(score) > *filters.MaxScore {
			continue
		}

		entry := PortfolioEntry{
			BusinessID:      r.business.BusinessID,
			BusinessName:    r.business.Name,
			StoreType:       orUnknown(r.business.StoreType),
			City:            orUnknown(r.business.City),
			ComplianceScore: float64(score),
			RankLevel:       r.result.Rank,
			RiskLevel:       tier,
			LastUpdated:     now,
		}

		if s.engagement != nil {
			entry.NotesCount, entry.ClaimsCount, err = s.engagementCounts(ctx, insurerID, r.business.BusinessID)
			if err != nil {
				return PortfolioResult{}, err
			}
		}

		if policy := resolvePolicy(policies, r.business); policy != nil {
			threshold := policy.Threshold
			entry.PolicyThreshold = &threshold
			entry.PolicyViolated = float64(score) < threshold
			if entry.PolicyViolated {
				violations++
			}
		}

		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].ComplianceScore != entries[j].ComplianceScore {
			return entries[i].ComplianceScore > entries[j].ComplianceScore
		}
		return entries[i].BusinessID < entries[j].BusinessID
	})

	return PortfolioResult{
		Businesses:      entries,
		Total:           len(entries),
		ViolationsCount: violations,
	}, nil
}

// PolicyStatusEntry is one policy with its live compliance comparison.
type PolicyStatusEntry struct {
	PolicyID     int64   `json:"policy_id"`
	BusinessID   *int64  `json:"business_id"`
	BusinessName string  `json:"business_name,omitempty"`
	StoreType    string  `json:"store_type,omitempty"`
	City         string  `json:"city,omitempty"`
	Threshold    float64 `json:"compliance_threshold"`
	CurrentScore *int    `json:"current_score"`
	Violated     bool    `json:"violated"`
}

// PolicyStatus lists an insurer's policies with the current score and
// violation flag for business-scoped ones. Store-type policies carry no
// single score and report only their threshold.
func (s *Service) PolicyStatus(ctx context.Context, insurerID int64) ([]PolicyStatusEntry, error) {
	policies, err := s.policies.PoliciesFor(ctx, insurerID)
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}

	out := make([]PolicyStatusEntry, 0, len(policies))
	for _, p := range policies {
		entry := PolicyStatusEntry{
			PolicyID:   p.PolicyID,
			BusinessID: p.BusinessID,
			StoreType:  p.StoreType,
			Threshold:  p.Threshold,
		}

		if p.BusinessID != nil {
			business, err := s.businesses.Business(ctx, *p.BusinessID)
			if err != nil {
				return nil, fmt.Errorf("lookup business %d: %w", *p.BusinessID, err)
			}
			if business != nil {
				result, err := s.scoreBusiness(ctx, *business)
				if err != nil {
					return nil, err
				}
				score := result.OverallScore
				entry.BusinessName = business.Name
				entry.StoreType = business.StoreType
				entry.City = business.City
				entry.CurrentScore = &score
				entry.Violated = float64(score) < p.Threshold
			}
		}

		out = append(out, entry)
	}
	return out, nil
}

func (s *Service) engagementCounts(ctx context.Context, insurerID, businessID int64) (notes, claims int, err error) {
	notes, err = s.engagement.NoteCount(ctx, insurerID, businessID)
	if err != nil {
		return 0, 0, fmt.Errorf("count notes for business %d: %w", businessID, err)
	}
	claims, err = s.engagement.ClaimCount(ctx, insurerID, businessID)
	if err != nil {
		return 0, 0, fmt.Errorf("count claims for business %d: %w", businessID, err)
	}
	return notes, claims, nil
}

// resolvePolicy finds the single most specific policy for a business: a
// business-specific policy wins over a store-type one; no match means no
// threshold comparison at all.
func resolvePolicy(policies []domain.Policy, business domain.Business) *domain.Policy {
	for i := range policies {
		if policies[i].BusinessID != nil && *policies[i].BusinessID == business.BusinessID {
			return &policies[i]
		}
	}
	for i := range policies {
		if policies[i].BusinessID == nil && policies[i].StoreType != "" && policies[i].StoreType == business.StoreType {
			return &policies[i]
		}
	}
	return nil
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
