package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy of the rules along with
// any problems found. Keywords are lowercased and deduplicated, carrier
// prefixes are trimmed, empty values get defaults.
func NormalizeAndValidate(r Rules) (Rules, Validation) {
	out := r
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.ToLower(strings.TrimSpace(x))
			if x == "" || seen[x] {
				continue
			}
			seen[x] = true
			ys = append(ys, x)
		}
		return ys
	}

	// ---- phone ----

	out.Phone.Region = strings.ToUpper(strings.TrimSpace(out.Phone.Region))
	if out.Phone.Region == "" {
		res.addErr("phone.region is required")
	}
	carriers := make(map[string]string, len(out.Phone.Carriers))
	for prefix, name := range out.Phone.Carriers {
		prefix = strings.TrimSpace(prefix)
		name = strings.TrimSpace(name)
		if len(prefix) != 3 {
			res.addErr("phone.carriers: prefix %q must have 3 digits", prefix)
			continue
		}
		if name == "" {
			res.addErr("phone.carriers: prefix %s has no carrier name", prefix)
			continue
		}
		carriers[prefix] = name
	}
	out.Phone.Carriers = carriers
	if len(carriers) == 0 {
		res.addWarn("phone.carriers is empty; every phone number will be rejected")
	}

	// ---- classifier ----

	if strings.TrimSpace(out.Classifier.FallbackType) == "" {
		out.Classifier.FallbackType = "other"
	}
	if !inUnit(out.Classifier.FallbackConfidence) {
		res.addErr("classifier.fallback_confidence must be within [0,1], got %v", out.Classifier.FallbackConfidence)
	}
	if !inUnit(out.Classifier.MatchConfidence) {
		res.addErr("classifier.match_confidence must be within [0,1], got %v", out.Classifier.MatchConfidence)
	}

	seenTypes := map[string]bool{}
	cats := make([]Category, 0, len(out.Classifier.Categories))
	for i, c := range out.Classifier.Categories {
		c.Type = strings.TrimSpace(c.Type)
		if c.Type == "" {
			res.addErr("classifier.categories[%d]: type is required", i)
			continue
		}
		if seenTypes[c.Type] {
			res.addErr("classifier.categories: duplicate type %q", c.Type)
			continue
		}
		seenTypes[c.Type] = true
		c.Keywords = trimList(c.Keywords)
		if len(c.Keywords) == 0 {
			res.addWarn("classifier.categories[%s] has no keywords and will never match", c.Type)
		}
		cats = append(cats, c)
	}
	out.Classifier.Categories = cats

	// ---- scoring ----

	if !inUnit(out.Scoring.DefaultSourceWeight) {
		res.addErr("scoring.default_source_weight must be within [0,1], got %v", out.Scoring.DefaultSourceWeight)
	}
	for src, w := range out.Scoring.SourceWeights {
		if !inUnit(w) {
			res.addErr("scoring.source_weights[%s] must be within [0,1], got %v", src, w)
		}
	}

	return out, res
}

func inUnit(f float64) bool { return f >= 0 && f <= 1 }
