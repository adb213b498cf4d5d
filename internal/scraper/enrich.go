package scraper

import (
	"context"

	"go.uber.org/zap"

	"github.com/saruni-spec/GRA/internal/domain"
)

// enrichStep is a state of a single detail-page visit.
type enrichStep int

const (
	stepOpenDetail enrichStep = iota
	stepExtract
	stepBack
)

func (s enrichStep) String() string {
	switch s {
	case stepOpenDetail:
		return "open_detail"
	case stepExtract:
		return "extract"
	case stepBack:
		return "back"
	}
	return "unknown"
}

// visitResult tells the pass loop what to do after one visit.
type visitResult int

const (
	visitNext     visitResult = iota // move on to the next listing
	visitExhausted                   // no listing at this index
	visitHalt                        // could not return to the results; stop the pass
)

// enrichPhones visits the first n candidates one by one, clicking each
// candidate's own place link, and records any phone found on the detail
// panel against that candidate. It never fails: a broken visit is skipped,
// and a failed return to the results list ends the pass while keeping
// every candidate.
func (s *Scraper) enrichPhones(ctx context.Context, b Browser, candidates []domain.ScrapedCandidate, links []int, n int, log *zap.Logger) {
	lim := s.limiter()
	visited, found := 0, 0
	for i := 0; i < n; i++ {
		if links[i] < 0 {
			continue
		}
		if err := lim.Wait(ctx); err != nil {
			break
		}
		visited++
		res := s.visitDetail(ctx, b, &candidates[i], links[i], log)
		if candidates[i].PhoneRaw != "" {
			found++
		}
		if res == visitExhausted {
			break
		}
		if res == visitHalt {
			log.Warn("scraper: phone enrichment halted", zap.Int("index", i))
			break
		}
	}
	log.Info("scraper: phone enrichment done",
		zap.Int("planned", n),
		zap.Int("visited", visited),
		zap.Int("with_phone", found),
	)
}

// visitDetail runs open_detail -> extract -> back for the place link at
// position link. Any failure before back still attempts back.
func (s *Scraper) visitDetail(ctx context.Context, b Browser, c *domain.ScrapedCandidate, link int, log *zap.Logger) visitResult {
	var failedAt enrichStep
	var failure error
	step := stepOpenDetail

	for {
		switch step {
		case stepOpenDetail:
			clicked, err := b.ClickNth(ctx, listingLinkSelector, link)
			if err != nil {
				failedAt, failure = step, err
				step = stepBack
				continue
			}
			if !clicked {
				return visitExhausted
			}
			if err := sleep(ctx, s.opts.DetailPause); err != nil {
				failedAt, failure = step, err
				step = stepBack
				continue
			}
			step = stepExtract

		case stepExtract:
			html, err := b.HTML(ctx)
			if err != nil {
				failedAt, failure = step, err
				step = stepBack
				continue
			}
			if p := ExtractDetailPhone(html); p != "" {
				c.PhoneRaw = p
				log.Debug("scraper: phone from detail", zap.String("name", c.BusinessName), zap.String("phone", p))
			}
			step = stepBack

		case stepBack:
			if failure != nil {
				log.Warn("scraper: detail visit failed",
					zap.Int("link", link),
					zap.String("step", failedAt.String()),
					zap.Error(failure),
				)
			}
			if err := b.Back(ctx); err != nil {
				log.Warn("scraper: navigate back failed", zap.Int("link", link), zap.Error(err))
				return visitHalt
			}
			if err := sleep(ctx, s.opts.BackPause); err != nil {
				return visitHalt
			}
			return visitNext
		}
	}
}
