package domain

import "time"

// Sensor categories recognized by the scorer. The enumeration is open:
// readings with other categories are stored and returned but do not feed
// any compliance category.
const (
	SensorTemperature = "Temperature"
	SensorHumidity    = "Humidity"
	SensorPower       = "Power"
)

// Severity statuses attached to each reading by the upstream generator.
const (
	StatusNormal   = "normal"
	StatusWarning  = "warning"
	StatusCritical = "critical"
)

// Compliance flags derived per reading by the upstream generator.
const (
	FlagCompliant    = "compliant"
	FlagNonCompliant = "non_compliant"
)

// Recommendation lifecycle statuses.
const (
	RecommendationPending     = "pending"
	RecommendationImplemented = "implemented"
	RecommendationIgnored     = "ignored"
)

// Compliance category names. These are part of the API contract and must
// not be renamed.
const (
	CategoryTemperatureControl   = "temperature_control"
	CategoryEquipmentMaintenance = "equipment_maintenance"
	CategoryInventoryManagement  = "inventory_management"
	CategorySafetyProtocols      = "safety_protocols"
)

// Rank labels derived from the overall score.
const (
	RankExcellent        = "Excellent"
	RankGood             = "Good"
	RankFair             = "Fair"
	RankNeedsImprovement = "Needs Improvement"
	RankNoData           = "No Data"
)

// Risk tiers for insurer portfolio views. Same score, different bucketing
// than the rank label.
const (
	RiskLow      = "Low"
	RiskMedium   = "Medium"
	RiskHigh     = "High"
	RiskCritical = "Critical"
)

// SensorReading is a single immutable observation from a physical sensor.
// New readings for the same sensor supersede older ones in "latest" views;
// history is retained.
type SensorReading struct {
	ReadingID  int64     `json:"reading_id,omitempty"`
	BusinessID int64     `json:"business_id"`
	SensorID   string    `json:"sensor_id"`
	SensorType string    `json:"sensor_type"`
	Location   string    `json:"location"`
	Value      float64   `json:"reading_value"`
	Unit       string    `json:"unit"`
	Status     string    `json:"status"`
	Compliance string    `json:"recommendation_compliance"`
	Timestamp  time.Time `json:"timestamp"`
}

// Compliant reports whether the reading's derived compliance flag is set.
func (r SensorReading) Compliant() bool {
	return r.Compliance == FlagCompliant
}

// RecommendationEntry is one tracked recommended action for a business,
// tied to a climate-event category. Mutated only by status transitions.
type RecommendationEntry struct {
	TrackingID   int64     `json:"tracking_id"`
	BusinessID   int64     `json:"business_id"`
	ClimateEvent string    `json:"climate_event"`
	Text         string    `json:"recommendation_text"`
	Status       string    `json:"status"`
	RiskLevel    string    `json:"risk_level"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CountRecommendations returns (implemented, total) for a set of tracking
// entries. Pending and ignored entries count toward the total only.
func CountRecommendations(entries []RecommendationEntry) (followed, total int) {
	for _, e := range entries {
		if e.Status == RecommendationImplemented {
			followed++
		}
	}
	return followed, len(entries)
}

// Business is the display metadata attached to scored entries.
type Business struct {
	BusinessID int64  `json:"business_id"`
	Name       string `json:"name"`
	StoreType  string `json:"store_type"`
	City       string `json:"city"`
	Industry   string `json:"industry,omitempty"`
	Size       string `json:"size,omitempty"`
	InsurerID  int64  `json:"insurance_company_id,omitempty"`
}

// Policy is an insurer-set compliance bound, scoped to a single business
// or to a store type. The threshold is only ever compared against computed
// scores; it never influences them.
type Policy struct {
	PolicyID  int64 `json:"policy_id"`
	InsurerID int64 `json:"insurance_company_id"`
	// Exactly one of BusinessID / StoreType is typically set. A
	// business-specific policy wins over a store-type one.
	BusinessID *int64  `json:"business_id,omitempty"`
	StoreType  string  `json:"store_type,omitempty"`
	Threshold  float64 `json:"compliance_threshold"`
}

// ComplianceResult is the scorer's output: a pure derived view, never a
// source of truth. Recomputing from the same inputs yields the same result.
type ComplianceResult struct {
	OverallScore            int            `json:"overall_score"`
	CategoryScores          map[string]int `json:"category_scores"`
	RecommendationsFollowed int            `json:"recommendations_followed"`
	RecommendationsTotal    int            `json:"recommendations_total"`
	Rank                    string         `json:"rank"`
}

// RankingSnapshot mirrors the latest ComplianceResult for a business plus
// its position among all businesses. Materialized view with upsert
// semantics: at most one row per business.
type RankingSnapshot struct {
	BusinessID              int64     `json:"business_id"`
	OverallScore            int       `json:"overall_score"`
	Position                int       `json:"rank"`
	RankLevel               string    `json:"rank_level"`
	RecommendationsFollowed int       `json:"recommendations_followed"`
	RecommendationsTotal    int       `json:"recommendations_total"`
	LastUpdated             time.Time `json:"last_updated"`
}

// TrendPoint is one day of a synthesized historical series.
type TrendPoint struct {
	Date  time.Time `json:"date"`
	Score float64   `json:"score"`
}
