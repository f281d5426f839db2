package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/canopyrisk/compliance-engine/internal/domain"
	"github.com/canopyrisk/compliance-engine/internal/ranking"
)

// ComplianceAPI is the slice of the ranking service the HTTP layer needs.
type ComplianceAPI interface {
	LatestReadings(ctx context.Context, businessID int64, windowHours int) ([]domain.SensorReading, error)
	ComplianceFor(ctx context.Context, businessID int64) (domain.ComplianceResult, error)
	Rank(ctx context.Context, opts ranking.RankOptions) (ranking.RankingResult, error)
	Portfolio(ctx context.Context, insurerID int64, adminScope bool, filters ranking.PortfolioFilters) (ranking.PortfolioResult, error)
	PolicyStatus(ctx context.Context, insurerID int64) ([]ranking.PolicyStatusEntry, error)
	Compare(ctx context.Context, businessIDs []int64) ([]ranking.ComparisonEntry, error)
}

type apiHandler struct {
	api    ComplianceAPI
	logger *slog.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

// GET /api/sensors/readings?business_id=N[&window_hours=H]
func (h *apiHandler) readings(w http.ResponseWriter, r *http.Request) {
	businessID, ok := h.requireBusinessID(w, r)
	if !ok {
		return
	}
	windowHours := 0
	if raw := r.URL.Query().Get("window_hours"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "window_hours must be a positive integer"})
			return
		}
		windowHours = v
	}

	readings, err := h.api.LatestReadings(r.Context(), businessID, windowHours)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"business_id": businessID,
		"readings":    readings,
		"count":       len(readings),
	})
}

// GET /api/sensors/compliance?business_id=N
func (h *apiHandler) compliance(w http.ResponseWriter, r *http.Request) {
	businessID, ok := h.requireBusinessID(w, r)
	if !ok {
		return
	}

	result, err := h.api.ComplianceFor(r.Context(), businessID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GET /api/compliance/ranking[?business_id=N][&limit=L][&sort=asc]
func (h *apiHandler) ranking(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := ranking.RankOptions{SortOrder: q.Get("sort")}

	if raw := q.Get("business_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "business_id must be an integer"})
			return
		}
		opts.CallerBusinessID = id
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		opts.Limit = limit
	}

	result, err := h.api.Rank(r.Context(), opts)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GET /api/insurance/portfolio?insurer_id=N[&admin=true][&risk_level=...]
// [&store_type=...][&min_score=...][&max_score=...]
func (h *apiHandler) portfolio(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	insurerID, ok := h.requireInsurerID(w, r)
	if !ok {
		return
	}
	adminScope := q.Get("admin") == "true"

	filters := ranking.PortfolioFilters{
		RiskLevel: q.Get("risk_level"),
		StoreType: q.Get("store_type"),
	}
	var err error
	if filters.MinScore, err = parseScoreParam(q.Get("min_score")); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "min_score must be a number"})
		return
	}
	if filters.MaxScore, err = parseScoreParam(q.Get("max_score")); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "max_score must be a number"})
		return
	}

	result, err := h.api.Portfolio(r.Context(), insurerID, adminScope, filters)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GET /api/insurance/policies?insurer_id=N
func (h *apiHandler) policies(w http.ResponseWriter, r *http.Request) {
	insurerID, ok := h.requireInsurerID(w, r)
	if !ok {
		return
	}

	entries, err := h.api.PolicyStatus(r.Context(), insurerID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"policies": entries,
		"count":    len(entries),
	})
}

// GET /api/insurance/compare?ids=1,2,3
func (h *apiHandler) compare(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("ids")
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "ids is required"})
		return
	}

	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "ids must be comma-separated integers"})
			return
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "ids is required"})
		return
	}

	entries, err := h.api.Compare(r.Context(), ids)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"businesses": entries,
		"count":      len(entries),
	})
}

func (h *apiHandler) requireBusinessID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	return h.requireID(w, r, "business_id")
}

func (h *apiHandler) requireInsurerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	return h.requireID(w, r, "insurer_id")
}

func (h *apiHandler) requireID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: param + " is required"})
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: param + " must be an integer"})
		return 0, false
	}
	return id, true
}

func parseScoreParam(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (h *apiHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ranking.ErrBusinessNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "business not found"})
	case errors.Is(err, ranking.ErrTooManyBusinesses):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
