// Package pipeline orchestrates one lead ingestion run.
//
// Phases:
//  1. Cache check  – Redis run cache; return immediately on hit
//  2. Extraction   – one scraper call for "{businessType} in {location}"
//  3. Ingestion    – per candidate, in order: validate → dedup → classify → score → persist
//  4. Summary      – record the run in MongoDB and warm Redis
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/saruni-spec/GRA/internal/cache"
	"github.com/saruni-spec/GRA/internal/domain"
	"github.com/saruni-spec/GRA/internal/score"
)

const previewSize = 5

var (
	// ErrUnsupportedSource rejects a run whose source has no scraper.
	ErrUnsupportedSource = eris.New("pipeline: unsupported source")
	// ErrInvalidRequest rejects a run with an empty business type or location.
	ErrInvalidRequest = eris.New("pipeline: businessType and location are required")
)

// Extractor produces candidates for one search.
type Extractor interface {
	Scrape(ctx context.Context, businessType, location string, maxResults int) ([]domain.ScrapedCandidate, error)
}

type PhoneValidator interface {
	Validate(raw string) (domain.ValidatedPhone, bool)
}

type DuplicateChecker interface {
	IsDuplicate(ctx context.Context, e164 string) bool
}

type Classifier interface {
	Classify(name, category string) domain.ClassificationResult
}

type Scorer interface {
	Score(in score.Input) float64
}

type LeadStore interface {
	CreateLead(ctx context.Context, l *domain.Lead) (*domain.Lead, error)
}

type RunStore interface {
	SaveRun(ctx context.Context, r *domain.RunRecord) (string, error)
}

type RunCache interface {
	GetRun(ctx context.Context, key string) (*domain.RunSummary, error)
	SetRun(ctx context.Context, key string, s *domain.RunSummary) error
}

// Config holds injectable dependencies. Runs and Cache are optional.
type Config struct {
	Extractor  Extractor
	Validator  PhoneValidator
	Dedup      DuplicateChecker
	Classifier Classifier
	Scorer     Scorer
	Leads      LeadStore
	Runs       RunStore
	Cache      RunCache

	MaxResults int
	NewJobID   func() string
	Now        func() time.Time
}

func (c Config) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now().UTC()
}

func (c Config) jobID() string {
	if c.NewJobID != nil {
		return c.NewJobID()
	}
	return uuid.NewString()
}

// NormalizeRequest trims the request and checks that it can be run.
// It returns ErrUnsupportedSource or ErrInvalidRequest.
func NormalizeRequest(req domain.ScrapeRequest) (domain.ScrapeRequest, error) {
	req.BusinessType = strings.TrimSpace(req.BusinessType)
	req.Location = strings.TrimSpace(req.Location)
	req.Source = strings.ToUpper(strings.TrimSpace(req.Source))

	if req.Source != domain.SourceGoogleMaps {
		return req, eris.Wrapf(ErrUnsupportedSource, "%q", req.Source)
	}
	if req.BusinessType == "" || req.Location == "" {
		return req, ErrInvalidRequest
	}
	return req, nil
}

// Run executes one ingestion run.
//
// Only an invalid request or a scrape failure is returned as an error.
// A cancelled ctx stops the candidate loop; the summary of what was saved
// so far is returned together with ctx.Err().
//
// A cache hit returns the earlier run's summary as is: JobID and the
// counters describe that run, nothing is scraped or stored, and Cached
// is set.
func Run(ctx context.Context, req domain.ScrapeRequest, cfg Config) (*domain.RunSummary, error) {
	req, err := NormalizeRequest(req)
	if err != nil {
		return nil, err
	}
	start := cfg.now()
	log := zap.L().With(
		zap.String("business_type", req.BusinessType),
		zap.String("location", req.Location),
		zap.String("source", req.Source),
	)

	// ── Phase 1: Redis run cache ────────────────────────────────────────────
	var cacheKey string
	if cfg.Cache != nil {
		cacheKey = cache.RunKey(req.BusinessType, req.Location, req.Source)
		cached, err := cfg.Cache.GetRun(ctx, cacheKey)
		if err != nil {
			log.Warn("pipeline: run cache lookup failed", zap.Error(err))
		} else if cached != nil {
			cached.Cached = true
			cached.Message = fmt.Sprintf("Served from cache: results of job %s; no new leads were stored", cached.JobID)
			log.Info("pipeline: served from cache", zap.String("job_id", cached.JobID))
			return cached, nil
		}
	}

	// ── Phase 2: Extraction ─────────────────────────────────────────────────
	summary := &domain.RunSummary{
		JobID:     cfg.jobID(),
		Status:    domain.RunCompleted,
		StartedAt: start,
	}
	log = log.With(zap.String("job_id", summary.JobID))

	candidates, err := cfg.Extractor.Scrape(ctx, req.BusinessType, req.Location, cfg.MaxResults)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: extraction")
	}
	summary.TotalScraped = len(candidates)

	if len(candidates) == 0 {
		summary.Message = fmt.Sprintf("No businesses found for %q in %q", req.BusinessType, req.Location)
		summary.DurationMs = cfg.now().Sub(start).Milliseconds()
		log.Info("pipeline: no candidates")
		return summary, nil
	}

	// ── Phase 3: Ingestion ──────────────────────────────────────────────────
	var saved []domain.Lead
	var ctxErr error
	for i := range candidates {
		if err := ctx.Err(); err != nil {
			ctxErr = err
			log.Warn("pipeline: run cancelled", zap.Int("processed", i), zap.Int("total", len(candidates)))
			break
		}
		lead, err := ingest(ctx, req, &candidates[i], cfg, summary)
		if err != nil {
			summary.Failed++
			log.Warn("pipeline: candidate failed",
				zap.Int("index", i),
				zap.String("name", candidates[i].BusinessName),
				zap.Error(err),
			)
			continue
		}
		if lead != nil {
			saved = append(saved, *lead)
		}
	}

	summary.LeadsFound = len(saved)
	summary.Leads = preview(saved)
	summary.DurationMs = cfg.now().Sub(start).Milliseconds()

	log.Info("pipeline: run complete",
		zap.Int("scraped", summary.TotalScraped),
		zap.Int("saved", summary.LeadsFound),
		zap.Int("duplicates", summary.DuplicatesSkipped),
		zap.Int("invalid_phones", summary.InvalidPhonesSkipped),
		zap.Int("no_phone", summary.NoPhone),
		zap.Int("failed", summary.Failed),
	)
	if ctxErr != nil {
		return summary, ctxErr
	}

	// ── Phase 4: Record and cache ───────────────────────────────────────────
	if cfg.Runs != nil {
		if _, err := cfg.Runs.SaveRun(ctx, runRecord(req, summary)); err != nil {
			log.Warn("pipeline: save run failed", zap.Error(err))
		}
	}
	if cfg.Cache != nil && cacheKey != "" {
		if err := cfg.Cache.SetRun(ctx, cacheKey, summary); err != nil {
			log.Warn("pipeline: cache run failed", zap.Error(err))
		}
	}

	return summary, nil
}

// ingest moves one candidate through validate → dedup → classify → score →
// persist. It returns (nil, nil) for a duplicate. Panics from collaborators
// are turned into errors.
func ingest(ctx context.Context, req domain.ScrapeRequest, c *domain.ScrapedCandidate, cfg Config, summary *domain.RunSummary) (lead *domain.Lead, err error) {
	defer func() {
		if r := recover(); r != nil {
			lead, err = nil, eris.Errorf("pipeline: panic: %v", r)
		}
	}()

	var phone *domain.ValidatedPhone
	raw := strings.TrimSpace(c.PhoneRaw)
	switch {
	case raw == "":
		summary.NoPhone++
	default:
		vp, ok := cfg.Validator.Validate(raw)
		if !ok {
			summary.InvalidPhonesSkipped++
			break
		}
		if cfg.Dedup.IsDuplicate(ctx, vp.International) {
			summary.DuplicatesSkipped++
			return nil, nil
		}
		phone = &vp
	}

	class := cfg.Classifier.Classify(c.BusinessName, c.Category)
	confidence := cfg.Scorer.Score(score.Input{
		Source:        req.Source,
		HasValidPhone: phone != nil,
		HasGPS:        c.HasGPS(),
		BusinessName:  c.BusinessName,
		IsVerified:    false,
	})

	l := &domain.Lead{
		JobID:           summary.JobID,
		Source:          req.Source,
		BusinessName:    c.BusinessName,
		Location:        c.Address,
		Category:        class.Type,
		ConfidenceScore: confidence,
		Status:          score.Band(confidence),
		IsOnboarded:     false,
		ScrapedAt:       cfg.now(),
	}
	if l.Location == "" {
		l.Location = req.Location
	}
	if raw != "" {
		l.PhoneNumber = &raw
	}
	if phone != nil {
		e164 := phone.International
		l.NormalizedPhone = &e164
		l.Carrier = phone.Carrier
	}
	if c.HasGPS() {
		lat, lng := *c.GPSLat, *c.GPSLng
		l.GPSLat, l.GPSLng = &lat, &lng
	}

	return cfg.Leads.CreateLead(ctx, l)
}

func preview(saved []domain.Lead) []domain.LeadPreview {
	n := min(previewSize, len(saved))
	out := make([]domain.LeadPreview, 0, n)
	for _, l := range saved[:n] {
		out = append(out, domain.LeadPreview{
			ID:              l.ID,
			BusinessName:    l.BusinessName,
			PhoneNumber:     l.PhoneNumber,
			Category:        l.Category,
			ConfidenceScore: l.ConfidenceScore,
		})
	}
	return out
}

func runRecord(req domain.ScrapeRequest, s *domain.RunSummary) *domain.RunRecord {
	return &domain.RunRecord{
		JobID:                s.JobID,
		BusinessType:         req.BusinessType,
		Location:             req.Location,
		Source:               req.Source,
		TotalScraped:         s.TotalScraped,
		LeadsFound:           s.LeadsFound,
		DuplicatesSkipped:    s.DuplicatesSkipped,
		InvalidPhonesSkipped: s.InvalidPhonesSkipped,
		NoPhone:              s.NoPhone,
		Failed:               s.Failed,
		DurationMs:           s.DurationMs,
		StartedAt:            s.StartedAt,
	}
}
