package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/hf-risk-server/internal/domain"
)

// Validate checks every field of the profile against the model and returns the
// soft warnings for values that are valid but unusual. All offending fields are
// reported together as domain.ValidationErrors.
func Validate(profile domain.PatientProfile, cfg *Config) ([]string, error) {
	var errs domain.ValidationErrors
	known := make(map[string]bool)

	for _, rule := range cfg.Parameters {
		if rule.Source == SourceLab {
			known[rule.Name] = true
		}
		if ve := validateParameter(profile, rule); ve != nil {
			errs = append(errs, *ve)
		}
	}

	if ve := validateBloodPressure(profile, cfg, errs); ve != nil {
		errs = append(errs, *ve)
	}

	var unknown []string
	for name := range profile.Labs {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		errs = append(errs, *domain.NewValidationError("labs."+name, "unsupported lab value", profile.Labs[name]))
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return softWarnings(profile, cfg), nil
}

func validateParameter(profile domain.PatientProfile, rule ParameterRule) *domain.ValidationError {
	field := rule.Name
	if rule.Source == SourceLab {
		field = "labs." + rule.Name
	}

	if rule.Kind == KindLookup {
		label, ok := profile.CategoryValue(rule.Name)
		if !ok || label == "" {
			if rule.Source == SourceRequired {
				return domain.NewValidationError(field, "is required", nil)
			}
			return nil
		}
		if _, known := rule.Lookup[label]; !known {
			return domain.NewValidationError(field, "must be one of "+strings.Join(lookupLabels(rule), ", "), label)
		}
		return nil
	}

	v, ok := profile.NumericValue(rule.Name)
	if !ok {
		if rule.Source == SourceRequired {
			return domain.NewValidationError(field, "is required", nil)
		}
		return nil
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return domain.NewValidationError(field, "must be a finite number", nil)
	}
	if rule.Valid != nil && !rule.Valid.Contains(v) {
		return domain.NewValidationError(field, describeRange(*rule.Valid), v)
	}
	return nil
}

// validateBloodPressure enforces systolic > diastolic when both values passed their own checks
func validateBloodPressure(profile domain.PatientProfile, cfg *Config, errs domain.ValidationErrors) *domain.ValidationError {
	if _, ok := cfg.Rule(domain.ParamSystolicBP); !ok {
		return nil
	}
	if _, ok := cfg.Rule(domain.ParamDiastolicBP); !ok {
		return nil
	}
	for _, e := range errs {
		if e.Field == domain.ParamSystolicBP || e.Field == domain.ParamDiastolicBP {
			return nil
		}
	}
	if profile.SystolicBP <= profile.DiastolicBP {
		return domain.NewValidationError(domain.ParamSystolicBP,
			fmt.Sprintf("must be greater than diastolic_bp (%g)", profile.DiastolicBP), profile.SystolicBP)
	}
	return nil
}

func softWarnings(profile domain.PatientProfile, cfg *Config) []string {
	var warnings []string
	for _, s := range cfg.SoftRanges {
		v, ok := profile.NumericValue(s.Parameter)
		if !ok {
			continue
		}
		if v < s.Min || v > s.Max {
			warnings = append(warnings, fmt.Sprintf("%s %g is outside the typical range %g-%g; please verify", s.Parameter, v, s.Min, s.Max))
		}
	}
	return warnings
}

func describeRange(r Range) string {
	if r.MinExclusive {
		return fmt.Sprintf("must be greater than %g and at most %g", r.Min, r.Max)
	}
	return fmt.Sprintf("must be between %g and %g", r.Min, r.Max)
}

func lookupLabels(rule ParameterRule) []string {
	labels := make([]string, 0, len(rule.Lookup))
	for label := range rule.Lookup {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
