// Package scraper drives a headless browser against the Google Maps
// search page and turns the result feed into ScrapedCandidates.
//
// Flow of one Scrape call:
//  1. Launch  – one browser per call (bounded by LaunchTimeout), closed on every exit path
//  2. Search  – navigate to the search URL (bounded by NavTimeout)
//  3. Load    – wait for the feed, then scroll it ScrollPasses times
//  4. Extract – parse the page snapshot with per-field selector strategies
//  5. Enrich  – open the first DetailLimit listings to recover phones
package scraper

import (
	"context"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/saruni-spec/GRA/internal/domain"
)

const (
	SearchBaseURL = "https://www.google.com/maps/search/"

	feedSelector = `div[role="feed"]`
)

// Failure is returned when the browser cannot be launched or the search
// page cannot be loaded. Nothing was extracted.
type Failure struct {
	Stage string
	Err   error
}

func (f *Failure) Error() string { return "scrape failure (" + f.Stage + "): " + f.Err.Error() }
func (f *Failure) Unwrap() error { return f.Err }

func newFailure(stage string, err error) *Failure {
	return &Failure{Stage: stage, Err: eris.Wrap(err, stage)}
}

// Options tunes timing and bounds. Zero durations disable the matching pause.
type Options struct {
	BaseURL        string
	MaxResults     int
	LaunchTimeout  time.Duration
	NavTimeout     time.Duration
	SettleDelay    time.Duration
	FeedTimeout    time.Duration
	ScrollPasses   int
	ScrollPause    time.Duration
	DetailLimit    int
	DetailPause    time.Duration
	BackPause      time.Duration
	DetailInterval time.Duration
}

// DefaultOptions mirrors what the results page needs in practice.
func DefaultOptions() Options {
	return Options{
		BaseURL:        SearchBaseURL,
		MaxResults:     20,
		LaunchTimeout:  30 * time.Second,
		NavTimeout:     30 * time.Second,
		SettleDelay:    3 * time.Second,
		FeedTimeout:    10 * time.Second,
		ScrollPasses:   5,
		ScrollPause:    1500 * time.Millisecond,
		DetailLimit:    5,
		DetailPause:    2 * time.Second,
		BackPause:      time.Second,
		DetailInterval: 0,
	}
}

// Scraper is safe for concurrent use; each Scrape owns its own browser.
type Scraper struct {
	launcher Launcher
	opts     Options
}

func New(l Launcher, opts Options) *Scraper {
	if opts.BaseURL == "" {
		opts.BaseURL = SearchBaseURL
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = 20
	}
	if opts.LaunchTimeout <= 0 {
		opts.LaunchTimeout = 30 * time.Second
	}
	if opts.NavTimeout <= 0 {
		opts.NavTimeout = 30 * time.Second
	}
	if opts.FeedTimeout <= 0 {
		opts.FeedTimeout = 10 * time.Second
	}
	return &Scraper{launcher: l, opts: opts}
}

// SearchURL builds the search page URL for "{businessType} in {location}".
// Every reserved character is escaped, so "+" or "&" in a query stay literal.
func SearchURL(base, businessType, location string) string {
	return base + strings.ReplaceAll(url.QueryEscape(businessType+" in "+location), "+", "%20")
}

// Scrape returns up to maxResults candidates (maxResults <= 0 uses the
// configured default). Only launch and navigation problems are errors;
// everything after that degrades to fewer or emptier candidates.
func (s *Scraper) Scrape(ctx context.Context, businessType, location string, maxResults int) ([]domain.ScrapedCandidate, error) {
	if maxResults <= 0 {
		maxResults = s.opts.MaxResults
	}
	log := zap.L().With(zap.String("business_type", businessType), zap.String("location", location))

	b, err := s.launch(ctx)
	if err != nil {
		return nil, newFailure("launch", err)
	}
	defer func() {
		if err := b.Close(); err != nil {
			log.Warn("scraper: close browser", zap.Error(err))
		}
	}()

	searchURL := SearchURL(s.opts.BaseURL, businessType, location)
	log.Info("scraper: navigating", zap.String("url", searchURL))
	if err := b.Navigate(ctx, searchURL, s.opts.NavTimeout); err != nil {
		return nil, newFailure("navigate", err)
	}
	if err := sleep(ctx, s.opts.SettleDelay); err != nil {
		return nil, newFailure("navigate", err)
	}

	s.loadResults(ctx, b, log)

	html, err := b.HTML(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, newFailure("snapshot", ctx.Err())
		}
		log.Warn("scraper: results snapshot failed", zap.Error(err))
		return nil, nil
	}

	listings := extractListings(html, maxResults)
	log.Info("scraper: extracted listings", zap.Int("count", len(listings)))

	candidates := make([]domain.ScrapedCandidate, len(listings))
	links := make([]int, len(listings))
	for i, l := range listings {
		candidates[i], links[i] = l.candidate, l.link
	}
	if len(candidates) > 0 {
		s.enrichPhones(ctx, b, candidates, links, min(s.opts.DetailLimit, len(candidates)), log)
	}

	return withUsableNames(candidates), nil
}

// launch starts the browser under LaunchTimeout. The browser outlives the
// launch deadline; only startup is bounded.
func (s *Scraper) launch(ctx context.Context) (Browser, error) {
	launchCtx, cancel := context.WithTimeout(ctx, s.opts.LaunchTimeout)
	defer cancel()
	b, err := s.launcher.Launch(launchCtx)
	if err != nil {
		if launchCtx.Err() != nil && ctx.Err() == nil {
			return nil, eris.Wrapf(launchCtx.Err(), "browser did not start within %s", s.opts.LaunchTimeout)
		}
		return nil, err
	}
	return b, nil
}

// loadResults scrolls the lazily loaded feed. The feed never signals that
// it is complete, so a fixed number of passes is used. Failures only mean
// fewer results.
func (s *Scraper) loadResults(ctx context.Context, b Browser, log *zap.Logger) {
	if err := b.WaitVisible(ctx, feedSelector, s.opts.FeedTimeout); err != nil {
		log.Warn("scraper: results feed not visible", zap.Error(err))
		return
	}
	for i := 0; i < s.opts.ScrollPasses; i++ {
		if err := b.ScrollToEnd(ctx, feedSelector); err != nil {
			log.Warn("scraper: scroll failed", zap.Int("pass", i), zap.Error(err))
			return
		}
		if err := sleep(ctx, s.opts.ScrollPause); err != nil {
			return
		}
	}
}

func (s *Scraper) limiter() *rate.Limiter {
	if s.opts.DetailInterval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(s.opts.DetailInterval), 1)
}

func withUsableNames(in []domain.ScrapedCandidate) []domain.ScrapedCandidate {
	out := in[:0]
	for _, c := range in {
		if utf8.RuneCountInString(c.BusinessName) > 2 {
			out = append(out, c)
		}
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
