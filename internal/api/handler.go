package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/saruni-spec/GRA/internal/cache"
	"github.com/saruni-spec/GRA/internal/domain"
	"github.com/saruni-spec/GRA/internal/pipeline"
	"github.com/saruni-spec/GRA/internal/scraper"
)

const (
	defaultLimit = 50
	maxLimit     = 100
	maxPhones    = 500
)

// Suggested searches for the Ghana market.
var (
	SuggestedBusinessTypes = []string{
		"hair salon", "barber shop", "chop bar", "restaurant", "tailor shop",
		"phone repair", "mechanic", "provisions store", "boutique", "beauty salon",
	}
	SuggestedLocations = []string{
		"Madina, Accra", "Kaneshie, Accra", "Osu, Accra",
		"Tema", "Kumasi Central", "Takoradi", "Cape Coast",
	}
)

// LeadLister pages through stored leads.
type LeadLister interface {
	ListLeads(ctx context.Context, minConfidence float64, limit, offset int) ([]domain.Lead, int64, error)
}

// RunCacheDeleter drops a cached run.
type RunCacheDeleter interface {
	DeleteRun(ctx context.Context, key string) error
}

// PhoneBatchValidator validates many raw numbers at once.
type PhoneBatchValidator interface {
	BatchValidate(raws []string) []domain.ValidatedPhone
}

// Deps are the Handler's collaborators. Leads and Cache may be nil when
// MongoDB or Redis are unavailable.
type Deps struct {
	Pipeline   pipeline.Config
	Leads      LeadLister
	Cache      RunCacheDeleter
	Phones     PhoneBatchValidator
	Categories []string
}

// Handler holds the HTTP dependencies.
type Handler struct {
	d Deps
}

// NewHandler creates a new Handler.
func NewHandler(d Deps) *Handler {
	return &Handler{d: d}
}

// errResponse writes a JSON error body.
func errResponse(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

// Health godoc
//
//	GET /health
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

// Scrape godoc
//
//	POST /api/v1/osint/scrape
//
//	Request body: { "location": "Madina, Accra", "businessType": "hair salon", "source": "GOOGLE_MAPS" }
//	Response:     RunSummary JSON
func (h *Handler) Scrape(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResponse(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	// Reject before any browser is launched.
	req, err := pipeline.NormalizeRequest(req)
	switch {
	case errors.Is(err, pipeline.ErrUnsupportedSource):
		errResponse(w, http.StatusBadRequest,
			"Unsupported source: "+req.Source+". Only "+domain.SourceGoogleMaps+" is currently supported.")
		return
	case err != nil:
		errResponse(w, http.StatusBadRequest, "businessType and location are required")
		return
	}
	if h.d.Pipeline.Leads == nil || h.d.Pipeline.Dedup == nil {
		errResponse(w, http.StatusServiceUnavailable, "mongo not configured")
		return
	}

	summary, err := pipeline.Run(r.Context(), req, h.d.Pipeline)
	if err != nil {
		var f *scraper.Failure
		if errors.As(err, &f) {
			zap.L().Error("api: scrape failed", zap.String("stage", f.Stage), zap.Error(err))
			errResponse(w, http.StatusInternalServerError, f.Error())
			return
		}
		zap.L().Error("api: run failed", zap.Error(err))
		errResponse(w, http.StatusInternalServerError, "pipeline error: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// Leads godoc
//
//	GET /api/v1/osint/leads
//
//	Query params: minConfidence (0..1), limit (default 50, max 100), offset
func (h *Handler) Leads(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.d.Leads == nil {
		errResponse(w, http.StatusServiceUnavailable, "mongo not configured")
		return
	}

	q := r.URL.Query()
	minConfidence, err := floatParam(q.Get("minConfidence"), 0)
	if err != nil || minConfidence < 0 || minConfidence > 1 {
		errResponse(w, http.StatusBadRequest, "minConfidence must be a number between 0 and 1")
		return
	}
	limit, err := intParam(q.Get("limit"), defaultLimit)
	if err != nil || limit < 1 {
		errResponse(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	limit = min(limit, maxLimit)
	offset, err := intParam(q.Get("offset"), 0)
	if err != nil || offset < 0 {
		errResponse(w, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}

	leads, total, err := h.d.Leads.ListLeads(r.Context(), minConfidence, limit, offset)
	if err != nil {
		zap.L().Error("api: list leads", zap.Error(err))
		errResponse(w, http.StatusInternalServerError, "failed to list leads")
		return
	}
	if leads == nil {
		leads = []domain.Lead{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"leads": leads,
		"pagination": domain.Pagination{
			Total:   total,
			Limit:   limit,
			Offset:  offset,
			HasMore: int64(offset+limit) < total,
		},
	})
}

// InvalidateCache godoc
//
//	DELETE /api/v1/osint/scrape/cache
//
//	Query params: businessType, location, source (default GOOGLE_MAPS)
func (h *Handler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.d.Cache == nil {
		errResponse(w, http.StatusServiceUnavailable, "redis not configured")
		return
	}

	q := r.URL.Query()
	businessType := q.Get("businessType")
	location := q.Get("location")
	if businessType == "" || location == "" {
		errResponse(w, http.StatusBadRequest, "businessType and location are required")
		return
	}
	source := q.Get("source")
	if source == "" {
		source = domain.SourceGoogleMaps
	}
	key := cache.RunKey(businessType, location, source)

	if err := h.d.Cache.DeleteRun(r.Context(), key); err != nil {
		errResponse(w, http.StatusInternalServerError, "failed to delete cache key: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "key": key})
}

// Categories godoc
//
//	GET /api/v1/osint/categories
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": h.d.Categories})
}

// Suggestions godoc
//
//	GET /api/v1/osint/suggestions
func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"businessTypes": SuggestedBusinessTypes,
		"locations":     SuggestedLocations,
	})
}

// ValidatePhones godoc
//
//	POST /api/v1/osint/phones/validate
//
//	Request body: { "phones": ["024 412 3456", "+233 20 123 4567"] }
//	Response:     { "valid": [ValidatedPhone...], "total": n, "validCount": m }
func (h *Handler) ValidatePhones(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Phones []string `json:"phones"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		errResponse(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if len(body.Phones) == 0 {
		errResponse(w, http.StatusBadRequest, "phones is required")
		return
	}
	if len(body.Phones) > maxPhones {
		errResponse(w, http.StatusBadRequest, "at most "+strconv.Itoa(maxPhones)+" phones per request")
		return
	}

	valid := h.d.Phones.BatchValidate(body.Phones)
	if valid == nil {
		valid = []domain.ValidatedPhone{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":      valid,
		"total":      len(body.Phones),
		"validCount": len(valid),
	})
}

func intParam(s string, fallback int) (int, error) {
	if s == "" {
		return fallback, nil
	}
	return strconv.Atoi(s)
}

func floatParam(s string, fallback float64) (float64, error) {
	if s == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(s, 64)
}
