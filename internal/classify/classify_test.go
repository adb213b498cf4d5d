package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saruni-spec/GRA/internal/config"
)

func newClassifier(t *testing.T) *Classifier {
	t.Helper()
	rules, err := config.DefaultRules()
	require.NoError(t, err)
	return New(rules.Classifier)
}

func TestClassify(t *testing.T) {
	c := newClassifier(t)

	tests := []struct {
		name     string
		category string
		wantType string
		keyword  string
	}{
		{"Ama Seamstress", "", "tailoring", "seamstress"},
		{"Madina Chop Bar", "", "food_services", "chop bar"},
		{"Kofi's Place", "Barber shop", "hairdressing", "barber"},
		{"Quick Fix", "Phone repair service", "electronics_repair", "phone repair"},
		{"Abena Provisions", "", "retail", "provisions"},
		{"Kwame Auto Works", "", "mechanics", "auto"},
		{"City Taxi Rank", "", "transport", "taxi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.name, tt.category)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.keyword, got.MatchedKeyword)
			assert.InDelta(t, 0.85, got.Confidence, 1e-9)
		})
	}
}

func TestClassifyFallback(t *testing.T) {
	c := newClassifier(t)

	got := c.Classify("XYZ Corp", "")
	assert.Equal(t, "other", got.Type)
	assert.InDelta(t, 0.3, got.Confidence, 1e-9)
	assert.Empty(t, got.MatchedKeyword)
}

func TestClassifyPriority(t *testing.T) {
	c := newClassifier(t)

	// "shop" is retail (3), "mobile" is electronics_repair (2).
	got := c.Classify("Mobile Shop", "")
	assert.Equal(t, "electronics_repair", got.Type)

	// Hairdressing and tailoring are both priority 1; hairdressing is listed first.
	got = c.Classify("Beauty Boutique", "")
	assert.Equal(t, "hairdressing", got.Type)
	assert.Equal(t, "beauty", got.MatchedKeyword)
}

func TestClassifyFirstKeywordWithinCategory(t *testing.T) {
	c := New(config.ClassifierRules{
		FallbackType:    "other",
		MatchConfidence: 0.85,
		Categories: []config.Category{
			{Type: "food", Priority: 1, Keywords: []string{"kitchen", "food"}},
		},
	})

	got := c.Classify("Food Kitchen", "")
	assert.Equal(t, "kitchen", got.MatchedKeyword)
}

func TestCategories(t *testing.T) {
	c := newClassifier(t)
	assert.Equal(t, []string{
		"hairdressing", "food_services", "tailoring", "electronics_repair",
		"transport", "retail", "mechanics",
	}, c.Categories())
}
