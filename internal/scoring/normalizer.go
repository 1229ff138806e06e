package scoring

import (
	"github.com/hf-risk-server/internal/domain"
)

// NormalizedValue is one evaluated parameter on the common [0,1] sub-scale
type NormalizedValue struct {
	Parameter  string
	Raw        float64
	RawLabel   string
	Normalized float64
	Weight     float64
	Flag       *FlagRule
}

// Normalize maps a raw numeric value onto [0,1] with a linear or inverse linear rule
func Normalize(rule ParameterRule, raw float64) float64 {
	span := rule.High - rule.Low
	if span <= 0 {
		return 0
	}
	switch rule.Kind {
	case KindLinear:
		return clamp01((raw - rule.Low) / span)
	case KindInverseLinear:
		return clamp01((rule.High - raw) / span)
	}
	return 0
}

// NormalizeProfile evaluates every parameter present in the profile, in declaration
// order. Absent optional parameters are skipped. The profile must already be valid.
func NormalizeProfile(profile domain.PatientProfile, cfg *Config) []NormalizedValue {
	values := make([]NormalizedValue, 0, len(cfg.Parameters))
	for _, rule := range cfg.Parameters {
		nv := NormalizedValue{
			Parameter: rule.Name,
			Weight:    rule.Weight,
			Flag:      rule.Flag,
		}

		if rule.Kind == KindLookup {
			label, ok := profile.CategoryValue(rule.Name)
			if !ok || label == "" {
				continue
			}
			offset := clamp01(rule.Lookup[label])
			nv.Raw = offset
			nv.RawLabel = label
			nv.Normalized = offset
		} else {
			raw, ok := profile.NumericValue(rule.Name)
			if !ok {
				continue
			}
			nv.Raw = raw
			nv.Normalized = Normalize(rule, raw)
		}

		values = append(values, nv)
	}
	return values
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
