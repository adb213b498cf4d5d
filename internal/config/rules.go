package config

import (
	_ "embed"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRules []byte

// Category is one business type the classifier can assign.
// Lower Priority wins.
type Category struct {
	Type     string   `yaml:"type"`
	Priority int      `yaml:"priority"`
	Keywords []string `yaml:"keywords"`
}

type PhoneRules struct {
	Region   string            `yaml:"region"`
	Carriers map[string]string `yaml:"carriers"`
}

type ClassifierRules struct {
	FallbackType       string     `yaml:"fallback_type"`
	FallbackConfidence float64    `yaml:"fallback_confidence"`
	MatchConfidence    float64    `yaml:"match_confidence"`
	Categories         []Category `yaml:"categories"`
}

type ScoringRules struct {
	DefaultSourceWeight float64            `yaml:"default_source_weight"`
	SourceWeights       map[string]float64 `yaml:"source_weights"`
}

// Rules holds the tables that drive phone validation, classification and
// scoring. They live outside the code so they can change without a rebuild.
type Rules struct {
	Phone      PhoneRules      `yaml:"phone"`
	Classifier ClassifierRules `yaml:"classifier"`
	Scoring    ScoringRules    `yaml:"scoring"`
}

// DefaultRules returns the rules compiled into the binary.
func DefaultRules() (Rules, error) {
	return ParseRules(defaultRules)
}

// LoadRules reads a rules file. An empty path yields DefaultRules.
func LoadRules(path string) (Rules, error) {
	if path == "" {
		return DefaultRules()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, eris.Wrapf(err, "config: read rules %s", path)
	}
	return ParseRules(b)
}

// ParseRules decodes, normalizes and validates a YAML rules document.
// Warnings do not fail the load; they are logged.
func ParseRules(b []byte) (Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(b, &r); err != nil {
		return Rules{}, eris.Wrap(err, "config: parse rules")
	}
	out, v := NormalizeAndValidate(r)
	if !v.OK() {
		return Rules{}, eris.Errorf("config: invalid rules: %v", v.Errors)
	}
	for _, w := range v.Warnings {
		zap.L().Warn("config: rules warning", zap.String("warning", w))
	}
	return out, nil
}
