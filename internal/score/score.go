// Package score computes a bounded lead-quality score from weighted
// evidence and maps it to a triage band.
package score

import (
	"strings"
	"unicode/utf8"

	"github.com/saruni-spec/GRA/internal/config"
)

// Evidence weights added on top of the source weight.
const (
	validPhoneWeight  = 0.20
	gpsWeight         = 0.10
	verifiedWeight    = 0.30
	qualityNameWeight = 0.05
)

// Triage bands.
const (
	BandAutoApproved = "auto_approved"
	BandManualReview = "manual_review"
	BandRejected     = "rejected"
)

type Input struct {
	Source        string
	HasValidPhone bool
	HasGPS        bool
	BusinessName  string
	IsVerified    bool
}

// Scorer is pure: the same Input always yields the same score.
type Scorer struct {
	defaultWeight float64
	weights       map[string]float64
}

func New(rules config.ScoringRules) *Scorer {
	w := make(map[string]float64, len(rules.SourceWeights))
	for k, v := range rules.SourceWeights {
		w[k] = v
	}
	return &Scorer{defaultWeight: rules.DefaultSourceWeight, weights: w}
}

// Score returns a value in [0,1].
func (s *Scorer) Score(in Input) float64 {
	score, ok := s.weights[in.Source]
	if !ok {
		score = s.defaultWeight
	}
	if in.HasValidPhone {
		score += validPhoneWeight
	}
	if in.HasGPS {
		score += gpsWeight
	}
	if in.IsVerified {
		score += verifiedWeight
	}
	if qualityName(in.BusinessName) {
		score += qualityNameWeight
	}

	if score > 1.0 {
		return 1.0
	}
	if score < 0 {
		return 0
	}
	return score
}

func qualityName(name string) bool {
	if utf8.RuneCountInString(name) <= 5 {
		return false
	}
	lower := strings.ToLower(name)
	return !strings.Contains(lower, "n/a") && !strings.Contains(lower, "unknown")
}

// Band maps a score to its triage band.
func Band(score float64) string {
	switch {
	case score >= 0.80:
		return BandAutoApproved
	case score >= 0.60:
		return BandManualReview
	default:
		return BandRejected
	}
}
