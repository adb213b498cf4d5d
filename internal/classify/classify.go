// Package classify maps a business name and category text to one of a
// fixed set of business types using keyword rules.
package classify

import (
	"sort"
	"strings"

	"github.com/saruni-spec/GRA/internal/config"
	"github.com/saruni-spec/GRA/internal/domain"
)

// Classifier is a flat keyword table; it holds no state beyond the rules.
type Classifier struct {
	rules config.ClassifierRules
}

// New returns a Classifier over the classifier section of the rules.
func New(rules config.ClassifierRules) *Classifier {
	return &Classifier{rules: rules}
}

type match struct {
	typ      string
	priority int
	keyword  string
}

// Classify picks the matching category with the lowest priority number.
// Categories with equal priority resolve in table order.
func (c *Classifier) Classify(name, category string) domain.ClassificationResult {
	text := strings.ToLower(name + " " + category)

	var matches []match
	for _, cat := range c.rules.Categories {
		for _, kw := range cat.Keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				matches = append(matches, match{typ: cat.Type, priority: cat.Priority, keyword: kw})
				break
			}
		}
	}

	if len(matches) == 0 {
		return domain.ClassificationResult{
			Type:       c.rules.FallbackType,
			Confidence: c.rules.FallbackConfidence,
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].priority < matches[j].priority
	})

	return domain.ClassificationResult{
		Type:           matches[0].typ,
		Confidence:     c.rules.MatchConfidence,
		MatchedKeyword: matches[0].keyword,
	}
}

// Categories lists the category types in table order.
func (c *Classifier) Categories() []string {
	out := make([]string, 0, len(c.rules.Categories))
	for _, cat := range c.rules.Categories {
		out = append(out, cat.Type)
	}
	return out
}
