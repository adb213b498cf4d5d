// Package phone validates and normalizes scraped phone numbers against a
// national numbering plan and a table of mobile carrier prefixes.
package phone

import (
	"regexp"

	"github.com/nyaruka/phonenumbers"
	"go.uber.org/zap"

	"github.com/saruni-spec/GRA/internal/config"
	"github.com/saruni-spec/GRA/internal/domain"
)

var separators = regexp.MustCompile(`[\s\-()]`)

// Validator accepts only numbers that parse in Region and whose
// trunk-prefixed national form starts with a known carrier prefix.
type Validator struct {
	region   string
	carriers map[string]string
}

// NewValidator builds a Validator from the phone section of the rules.
func NewValidator(rules config.PhoneRules) *Validator {
	carriers := make(map[string]string, len(rules.Carriers))
	for k, v := range rules.Carriers {
		carriers[k] = v
	}
	return &Validator{region: rules.Region, carriers: carriers}
}

// Validate returns the normalized phone and true, or false when raw is
// malformed, invalid for the region, or not a mobile number.
func (v *Validator) Validate(raw string) (vp domain.ValidatedPhone, ok bool) {
	if raw == "" {
		return domain.ValidatedPhone{}, false
	}
	defer func() {
		if r := recover(); r != nil {
			zap.L().Warn("phone: validation panic", zap.String("raw", raw), zap.Any("panic", r))
			vp, ok = domain.ValidatedPhone{}, false
		}
	}()

	cleaned := separators.ReplaceAllString(raw, "")
	num, err := phonenumbers.Parse(cleaned, v.region)
	if err != nil {
		zap.L().Debug("phone: parse failed", zap.String("raw", raw), zap.Error(err))
		return domain.ValidatedPhone{}, false
	}
	if !phonenumbers.IsValidNumberForRegion(num, v.region) {
		return domain.ValidatedPhone{}, false
	}

	national := "0" + phonenumbers.GetNationalSignificantNumber(num)
	if len(national) < 3 {
		return domain.ValidatedPhone{}, false
	}
	carrier, known := v.carriers[national[:3]]
	if !known {
		return domain.ValidatedPhone{}, false
	}

	return domain.ValidatedPhone{
		International: phonenumbers.Format(num, phonenumbers.E164),
		National:      national,
		Carrier:       carrier,
		Valid:         true,
	}, true
}

// NormalizeToE164 returns the E.164 form of raw when it validates.
func (v *Validator) NormalizeToE164(raw string) (string, bool) {
	vp, ok := v.Validate(raw)
	if !ok {
		return "", false
	}
	return vp.International, true
}

// DetectCarrier returns the carrier name of raw when it validates.
func (v *Validator) DetectCarrier(raw string) (string, bool) {
	vp, ok := v.Validate(raw)
	if !ok {
		return "", false
	}
	return vp.Carrier, true
}

// BatchValidate validates every input and keeps only the valid ones, in
// input order.
func (v *Validator) BatchValidate(raws []string) []domain.ValidatedPhone {
	out := make([]domain.ValidatedPhone, 0, len(raws))
	for _, raw := range raws {
		if vp, ok := v.Validate(raw); ok {
			out = append(out, vp)
		}
	}
	return out
}
