// Package scoring implements the heart failure risk engine: profile validation,
// normalization, weighted scoring, contribution analysis and recommendation mapping.
// Every function in this package is pure; the only shared state is the Config an
// Engine is built with, which is never mutated after construction.
package scoring

import (
	"math"

	"github.com/hf-risk-server/internal/domain"
)

// RuleKind selects how a raw value is mapped onto the [0,1] risk sub-scale
type RuleKind string

const (
	KindLinear        RuleKind = "linear"         // (x - low) / (high - low)
	KindInverseLinear RuleKind = "inverse_linear" // (high - x) / (high - low)
	KindLookup        RuleKind = "lookup"         // fixed value per category label
)

// Source tells the validator where a parameter comes from and whether it must be present
type Source string

const (
	SourceRequired Source = "required"
	SourceOptional Source = "optional"
	SourceLab      Source = "lab"
)

// Range is a closed physiological domain, optionally open at the lower end
type Range struct {
	Min          float64 `json:"min" yaml:"min"`
	Max          float64 `json:"max" yaml:"max"`
	MinExclusive bool    `json:"min_exclusive,omitempty" yaml:"min_exclusive,omitempty"`
}

// Contains reports whether v lies inside the range
func (r Range) Contains(v float64) bool {
	if r.MinExclusive {
		if v <= r.Min {
			return false
		}
	} else if v < r.Min {
		return false
	}
	return v <= r.Max
}

// FlagRule appends a targeted recommendation when a parameter's normalized
// value is strictly above Threshold
type FlagRule struct {
	Threshold      float64 `json:"threshold" yaml:"threshold"`
	Recommendation string  `json:"recommendation" yaml:"recommendation"`
}

// ParameterRule is one row of the weight table
type ParameterRule struct {
	Name   string             `json:"name" yaml:"name"`
	Source Source             `json:"source" yaml:"source"`
	Kind   RuleKind           `json:"kind" yaml:"kind"`
	Low    float64            `json:"low,omitempty" yaml:"low,omitempty"`
	High   float64            `json:"high,omitempty" yaml:"high,omitempty"`
	Lookup map[string]float64 `json:"lookup,omitempty" yaml:"lookup,omitempty"`
	Weight float64            `json:"weight" yaml:"weight"`
	Valid  *Range             `json:"valid,omitempty" yaml:"valid,omitempty"`
	Flag   *FlagRule          `json:"flag,omitempty" yaml:"flag,omitempty"`
}

// Band is the lower bound of a risk category. Bands are closed on the lower end.
type Band struct {
	Category domain.RiskCategory `json:"category" yaml:"category"`
	Min      float64             `json:"min" yaml:"min"`
}

// SoftRange produces a warning, not an error, when a value falls outside it
type SoftRange struct {
	Parameter string  `json:"parameter" yaml:"parameter"`
	Min       float64 `json:"min" yaml:"min"`
	Max       float64 `json:"max" yaml:"max"`
}

// Config is the complete scoring model. Parameter order is the declaration
// order used for tie-breaking and for reporting.
type Config struct {
	Version             string                           `json:"version" yaml:"version"`
	Parameters          []ParameterRule                  `json:"parameters" yaml:"parameters"`
	Bands               []Band                           `json:"bands" yaml:"bands"`
	BaseRecommendations map[domain.RiskCategory][]string `json:"base_recommendations" yaml:"base_recommendations"`
	SoftRanges          []SoftRange                      `json:"soft_ranges,omitempty" yaml:"soft_ranges,omitempty"`
}

// Rule returns the rule for a parameter name
func (c *Config) Rule(name string) (ParameterRule, bool) {
	for _, r := range c.Parameters {
		if r.Name == name {
			return r, true
		}
	}
	return ParameterRule{}, false
}

// Clone returns a deep copy of the config
func (c *Config) Clone() *Config {
	out := &Config{
		Version:    c.Version,
		Parameters: make([]ParameterRule, len(c.Parameters)),
		Bands:      append([]Band(nil), c.Bands...),
		SoftRanges: append([]SoftRange(nil), c.SoftRanges...),
	}
	for i, r := range c.Parameters {
		cp := r
		if r.Lookup != nil {
			cp.Lookup = make(map[string]float64, len(r.Lookup))
			for k, v := range r.Lookup {
				cp.Lookup[k] = v
			}
		}
		if r.Valid != nil {
			v := *r.Valid
			cp.Valid = &v
		}
		if r.Flag != nil {
			f := *r.Flag
			cp.Flag = &f
		}
		out.Parameters[i] = cp
	}
	if c.BaseRecommendations != nil {
		out.BaseRecommendations = make(map[domain.RiskCategory][]string, len(c.BaseRecommendations))
		for k, v := range c.BaseRecommendations {
			out.BaseRecommendations[k] = append([]string(nil), v...)
		}
	}
	return out
}

// numericFields and categoricalFields are the fixed PatientProfile members a
// non-lab rule may refer to
var (
	numericFields = map[string]bool{
		domain.ParamAge:              true,
		domain.ParamBMI:              true,
		domain.ParamSystolicBP:       true,
		domain.ParamDiastolicBP:      true,
		domain.ParamHeartRate:        true,
		domain.ParamEjectionFraction: true,
		domain.ParamBNP:              true,
	}
	categoricalFields = map[string]bool{
		domain.ParamSex:          true,
		domain.ParamSmoking:      true,
		domain.ParamDiabetes:     true,
		domain.ParamHypertension: true,
	}
)

// Validate checks the model for defects that would make scoring undefined
func (c *Config) Validate() error {
	if len(c.Parameters) == 0 {
		return domain.NewConfigurationError("parameters", "no parameters defined")
	}

	seen := make(map[string]bool, len(c.Parameters))
	requiredWeight := 0.0
	for _, r := range c.Parameters {
		if err := validateRule(r); err != nil {
			return err
		}
		if seen[r.Name] {
			return domain.NewConfigurationError("parameters", "duplicate parameter %q", r.Name)
		}
		seen[r.Name] = true
		if r.Source == SourceRequired {
			requiredWeight += r.Weight
		}
	}
	if requiredWeight <= 0 {
		return domain.NewConfigurationError("parameters", "required parameters carry no weight")
	}

	if err := c.validateBands(); err != nil {
		return err
	}

	for _, b := range c.Bands {
		if len(c.BaseRecommendations[b.Category]) == 0 {
			return domain.NewConfigurationError("recommendations", "no base recommendations for category %s", b.Category)
		}
	}

	for _, s := range c.SoftRanges {
		if !seen[s.Parameter] {
			return domain.NewConfigurationError("soft_ranges", "unknown parameter %q", s.Parameter)
		}
		if !finite(s.Min) || !finite(s.Max) || s.Max < s.Min {
			return domain.NewConfigurationError("soft_ranges", "invalid range for %q", s.Parameter)
		}
	}

	return nil
}

func validateRule(r ParameterRule) error {
	component := "parameter " + r.Name
	if r.Name == "" {
		return domain.NewConfigurationError("parameters", "parameter with empty name")
	}
	if !finite(r.Weight) || r.Weight < 0 {
		return domain.NewConfigurationError(component, "weight must be a non-negative finite number, got %v", r.Weight)
	}

	switch r.Source {
	case SourceRequired, SourceOptional:
		if !numericFields[r.Name] && !categoricalFields[r.Name] {
			return domain.NewConfigurationError(component, "not a patient profile field")
		}
	case SourceLab:
		if numericFields[r.Name] || categoricalFields[r.Name] {
			return domain.NewConfigurationError(component, "profile field cannot be declared as a lab")
		}
	default:
		return domain.NewConfigurationError(component, "unknown source %q", r.Source)
	}

	switch r.Kind {
	case KindLinear, KindInverseLinear:
		if categoricalFields[r.Name] {
			return domain.NewConfigurationError(component, "categorical field requires a lookup rule")
		}
		if !finite(r.Low) || !finite(r.High) || r.High <= r.Low {
			return domain.NewConfigurationError(component, "normalization range must satisfy low < high, got [%v, %v]", r.Low, r.High)
		}
	case KindLookup:
		if !categoricalFields[r.Name] {
			return domain.NewConfigurationError(component, "lookup rules apply to categorical fields only")
		}
		if len(r.Lookup) == 0 {
			return domain.NewConfigurationError(component, "lookup table is empty")
		}
		for label, v := range r.Lookup {
			if !finite(v) || v < 0 || v > 1 {
				return domain.NewConfigurationError(component, "lookup value for %q must be within [0,1], got %v", label, v)
			}
		}
	default:
		return domain.NewConfigurationError(component, "unknown rule kind %q", r.Kind)
	}

	if r.Valid != nil && (!finite(r.Valid.Min) || !finite(r.Valid.Max) || r.Valid.Max < r.Valid.Min) {
		return domain.NewConfigurationError(component, "invalid validation range [%v, %v]", r.Valid.Min, r.Valid.Max)
	}
	if r.Flag != nil {
		if !finite(r.Flag.Threshold) || r.Flag.Threshold < 0 || r.Flag.Threshold >= 1 {
			return domain.NewConfigurationError(component, "flag threshold must be within [0,1), got %v", r.Flag.Threshold)
		}
		if r.Flag.Recommendation == "" {
			return domain.NewConfigurationError(component, "flag has no recommendation")
		}
	}
	return nil
}

func (c *Config) validateBands() error {
	if len(c.Bands) == 0 {
		return domain.NewConfigurationError("bands", "no risk bands defined")
	}
	if c.Bands[0].Min != 0 {
		return domain.NewConfigurationError("bands", "lowest band must start at 0, got %v", c.Bands[0].Min)
	}
	for i, b := range c.Bands {
		if b.Category.Rank() < 0 {
			return domain.NewConfigurationError("bands", "unknown category %q", b.Category)
		}
		if !finite(b.Min) || b.Min > 100 {
			return domain.NewConfigurationError("bands", "threshold for %s must be within [0,100], got %v", b.Category, b.Min)
		}
		if i == 0 {
			continue
		}
		prev := c.Bands[i-1]
		if b.Min <= prev.Min {
			return domain.NewConfigurationError("bands", "thresholds must be strictly ascending: %s (%v) after %s (%v)", b.Category, b.Min, prev.Category, prev.Min)
		}
		if b.Category.Rank() <= prev.Category.Rank() {
			return domain.NewConfigurationError("bands", "categories must be in ascending severity: %s after %s", b.Category, prev.Category)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
