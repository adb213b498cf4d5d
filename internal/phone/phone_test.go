package phone

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saruni-spec/GRA/internal/config"
)

func newValidator(t *testing.T) *Validator {
	t.Helper()
	rules, err := config.DefaultRules()
	require.NoError(t, err)
	return NewValidator(rules.Phone)
}

func TestValidateIsStableAcrossFormats(t *testing.T) {
	v := newValidator(t)

	inputs := []string{
		"0244123456",
		"024 412 3456",
		"024-412-3456",
		"(024) 412-3456",
		"+233244123456",
		"+233 24 412 3456",
		"+233-24-412-3456",
		"233244123456",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			vp, ok := v.Validate(in)
			require.True(t, ok)
			assert.Equal(t, "+233244123456", vp.International)
			assert.Equal(t, "0244123456", vp.National)
			assert.Equal(t, "MTN", vp.Carrier)
			assert.True(t, vp.Valid)
		})
	}
}

func TestValidateCarriers(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		raw     string
		carrier string
		e164    string
	}{
		{"0541234567", "MTN", "+233541234567"},
		{"0201234567", "Vodafone", "+233201234567"},
		{"0501234567", "Vodafone", "+233501234567"},
		{"0271234567", "AirtelTigo", "+233271234567"},
		{"0571234567", "AirtelTigo", "+233571234567"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			vp, ok := v.Validate(tt.raw)
			require.True(t, ok)
			assert.Equal(t, tt.carrier, vp.Carrier)
			assert.Equal(t, tt.e164, vp.International)
		})
	}
}

func TestValidateRejects(t *testing.T) {
	v := newValidator(t)

	tests := map[string]string{
		"empty":               "",
		"letters":             "call me maybe",
		"too short":           "024123",
		"prefix not in table": "0531234567",
		"fixed line":          "0302123456",
		"foreign number":      "+14155552671",
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, ok := v.Validate(raw)
			assert.False(t, ok)
		})
	}
}

func TestValidateUsesConfiguredCarriers(t *testing.T) {
	v := NewValidator(config.PhoneRules{
		Region:   "GH",
		Carriers: map[string]string{"053": "Glo"},
	})

	vp, ok := v.Validate("0531234567")
	require.True(t, ok)
	assert.Equal(t, "Glo", vp.Carrier)

	_, ok = v.Validate("0244123456")
	assert.False(t, ok)
}

func TestHelpers(t *testing.T) {
	v := newValidator(t)

	e164, ok := v.NormalizeToE164("055 123 4567")
	require.True(t, ok)
	assert.Equal(t, "+233551234567", e164)

	carrier, ok := v.DetectCarrier("0261234567")
	require.True(t, ok)
	assert.Equal(t, "AirtelTigo", carrier)

	_, ok = v.DetectCarrier("nope")
	assert.False(t, ok)

	got := v.BatchValidate([]string{"0244123456", "garbage", "0501234567", ""})
	require.Len(t, got, 2)
	assert.Equal(t, "+233244123456", got[0].International)
	assert.Equal(t, "+233501234567", got[1].International)
}

type finderFunc func(ctx context.Context, e164 string) (bool, error)

func (f finderFunc) FindDuplicate(ctx context.Context, e164 string) (bool, error) {
	return f(ctx, e164)
}

func TestDuplicateChecker(t *testing.T) {
	ctx := context.Background()
	found := finderFunc(func(context.Context, string) (bool, error) { return true, nil })
	missing := finderFunc(func(context.Context, string) (bool, error) { return false, nil })
	broken := finderFunc(func(context.Context, string) (bool, error) { return false, errors.New("store down") })

	assert.True(t, NewDuplicateChecker(found, FailOpen).IsDuplicate(ctx, "+233244123456"))
	assert.False(t, NewDuplicateChecker(missing, FailClosed).IsDuplicate(ctx, "+233244123456"))
	assert.False(t, NewDuplicateChecker(broken, FailOpen).IsDuplicate(ctx, "+233244123456"))
	assert.True(t, NewDuplicateChecker(broken, FailClosed).IsDuplicate(ctx, "+233244123456"))
	assert.False(t, NewDuplicateChecker(broken, "").IsDuplicate(ctx, "+233244123456"))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, FailOpen, p)

	p, err = ParsePolicy(" FAIL_CLOSED ")
	require.NoError(t, err)
	assert.Equal(t, FailClosed, p)

	_, err = ParsePolicy("sometimes")
	assert.Error(t, err)
}
