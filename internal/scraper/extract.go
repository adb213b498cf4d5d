package scraper

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/saruni-spec/GRA/internal/domain"
)

var (
	// Ghana numbers: +233 / 233 / trunk 0, then 7-9 digits in groups.
	phonePattern = regexp.MustCompile(`(\+?233|0)\s*\d{2,3}\s*\d{3}\s*\d{4}`)
	telItemID    = regexp.MustCompile(`phone:tel:(.+)`)
	atCoords     = regexp.MustCompile(`@(-?\d+\.\d+),(-?\d+\.\d+)`)
	bangCoords   = regexp.MustCompile(`!3d(-?\d+\.\d+)!4d(-?\d+\.\d+)`)
	leadingScore = regexp.MustCompile(`^\d+\.\d+`)
	anyDecimal   = regexp.MustCompile(`\d+\.\d+`)
)

// Selectors for the results page. Each list is tried in order and the
// first non-empty result wins; markup differs between page versions.
var (
	listingSelectors = []string{
		`div[role="article"]`,
		`div.Nv2PK`,
	}

	listingLinkSelector = `a[href*="maps/place"]`

	nameStrategies = []textStrategy{
		headline(`div.fontHeadlineSmall`),
		headline(`div.fontHeadlineLarge`),
		headline(`.qBF1Pd`),
		headline(`h3`),
		headline(`h2`),
		headline(`a[aria-label]`),
		ownAttr("aria-label"),
	}

	addressStrategies = []textStrategy{
		firstText(`div.fontBodyMedium`, isAddressLike),
		firstText(`.W4Efsd span:last-child`, isAddressLike),
	}

	categoryStrategies = []textStrategy{
		anyText(`span.fontBodyMedium`, isCategoryLike),
		anyText(`.W4Efsd span`, isCategoryLike),
	}

	phoneStrategies = []textStrategy{
		telLink(`a[href^="tel:"]`),
		itemIDPhone(`[data-item-id^="phone:"]`),
		textPhone,
	}

	coordStrategies = []coordStrategy{
		hrefCoords(listingLinkSelector, atCoords),
		hrefCoords(listingLinkSelector, bangCoords),
		hrefCoords(`a.hfpxzc`, bangCoords),
	}

	// Detail panel of a single listing.
	detailPhoneStrategies = []textStrategy{
		itemIDPhone(`button[data-item-id^="phone:"]`),
		labelPhone(`[aria-label*="Phone"], [aria-label*="phone"]`),
		telLink(`a[href^="tel:"]`),
	}
)

type textStrategy func(*goquery.Selection) string

type coordStrategy func(*goquery.Selection) (lat, lng float64, ok bool)

func firstMatch(s *goquery.Selection, strategies []textStrategy) string {
	for _, strategy := range strategies {
		if v := strategy(s); v != "" {
			return v
		}
	}
	return ""
}

func firstCoords(s *goquery.Selection, strategies []coordStrategy) (*float64, *float64) {
	for _, strategy := range strategies {
		if lat, lng, ok := strategy(s); ok {
			return &lat, &lng
		}
	}
	return nil, nil
}

// listing is one extracted candidate plus the position of its place link
// among every place link on the page, or -1 when it has none.
type listing struct {
	candidate domain.ScrapedCandidate
	link      int
}

// ExtractListings parses a results page snapshot into at most limit
// candidates, in page order. Missing fields are left empty.
func ExtractListings(html string, limit int) []domain.ScrapedCandidate {
	listings := extractListings(html, limit)
	out := make([]domain.ScrapedCandidate, len(listings))
	for i, l := range listings {
		out[i] = l.candidate
	}
	return out
}

func extractListings(html string, limit int) []listing {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		zap.L().Warn("scraper: parse results page", zap.Error(err))
		return nil
	}

	var articles *goquery.Selection
	for _, sel := range listingSelectors {
		if found := doc.Find(sel); found.Length() > 0 {
			articles = found
			break
		}
	}
	if articles == nil {
		return nil
	}
	links := doc.Find(listingLinkSelector)

	out := make([]listing, 0, limit)
	articles.EachWithBreak(func(i int, article *goquery.Selection) bool {
		if i >= limit {
			return false
		}
		name := firstMatch(article, nameStrategies)
		if utf8.RuneCountInString(name) < 2 {
			return true
		}
		lat, lng := firstCoords(article, coordStrategies)
		a := article.Find(listingLinkSelector).First()
		href, _ := a.Attr("href")
		link := -1
		if a.Length() > 0 {
			link = links.IndexOfSelection(a)
		}

		out = append(out, listing{
			candidate: domain.ScrapedCandidate{
				BusinessName: name,
				PhoneRaw:     firstMatch(article, phoneStrategies),
				Address:      firstMatch(article, addressStrategies),
				Category:     firstMatch(article, categoryStrategies),
				GPSLat:       lat,
				GPSLng:       lng,
				URL:          href,
			},
			link: link,
		})
		return true
	})
	return out
}

// ExtractDetailPhone finds a dialable number in an open listing's detail
// panel, or returns "".
func ExtractDetailPhone(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return firstMatch(doc.Selection, detailPhoneStrategies)
}

// ---- strategies ----

func headline(selector string) textStrategy {
	return func(s *goquery.Selection) string {
		el := s.Find(selector).First()
		if el.Length() == 0 {
			return ""
		}
		if text := clean(el.Text()); text != "" {
			return text
		}
		label, _ := el.Attr("aria-label")
		return clean(label)
	}
}

func ownAttr(attr string) textStrategy {
	return func(s *goquery.Selection) string {
		v, _ := s.Attr(attr)
		return clean(v)
	}
}

// firstText looks only at the first element matching selector.
func firstText(selector string, accept func(string) bool) textStrategy {
	return func(s *goquery.Selection) string {
		text := clean(s.Find(selector).First().Text())
		if text != "" && accept(text) {
			return text
		}
		return ""
	}
}

// anyText returns the first element matching selector whose text is accepted.
func anyText(selector string, accept func(string) bool) textStrategy {
	return func(s *goquery.Selection) string {
		var out string
		s.Find(selector).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			text := clean(el.Text())
			if text != "" && accept(text) {
				out = text
				return false
			}
			return true
		})
		return out
	}
}

func telLink(selector string) textStrategy {
	return func(s *goquery.Selection) string {
		href, _ := s.Find(selector).First().Attr("href")
		return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(href), "tel:"))
	}
}

func itemIDPhone(selector string) textStrategy {
	return func(s *goquery.Selection) string {
		id, _ := s.Find(selector).First().Attr("data-item-id")
		m := telItemID.FindStringSubmatch(id)
		if m == nil {
			return ""
		}
		return strings.Replace(m[1], "+233", "0", 1)
	}
}

func labelPhone(selector string) textStrategy {
	return func(s *goquery.Selection) string {
		var out string
		s.Find(selector).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			label, _ := el.Attr("aria-label")
			if m := phonePattern.FindString(label); m != "" {
				out = m
				return false
			}
			return true
		})
		return out
	}
}

func textPhone(s *goquery.Selection) string {
	return phonePattern.FindString(s.Text())
}

func hrefCoords(selector string, pattern *regexp.Regexp) coordStrategy {
	return func(s *goquery.Selection) (float64, float64, bool) {
		var lat, lng float64
		var ok bool
		s.Find(selector).EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			lat, lng, ok = parseCoords(pattern, href)
			return !ok
		})
		return lat, lng, ok
	}
}

// parseCoords requires both coordinates to parse and be in range.
func parseCoords(pattern *regexp.Regexp, s string) (float64, float64, bool) {
	m := pattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(m[1], 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, false
	}
	lng, err := strconv.ParseFloat(m[2], 64)
	if err != nil || lng < -180 || lng > 180 {
		return 0, 0, false
	}
	return lat, lng, true
}

func isAddressLike(text string) bool {
	return !leadingScore.MatchString(text) && !strings.Contains(text, "stars")
}

func isCategoryLike(text string) bool {
	return utf8.RuneCountInString(text) < 50 &&
		!anyDecimal.MatchString(text) &&
		!strings.Contains(text, "·")
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
