package scoring

import "github.com/hf-risk-server/internal/domain"

// DefaultModelVersion identifies the built-in placeholder model
const DefaultModelVersion = "hf-placeholder-2026.1"

// Shared flag recommendations. Systolic, diastolic and hypertension flags use the
// same text so the mapper reports it once.
const (
	RecReducedEF     = "Refer for cardiology evaluation of reduced ejection fraction."
	RecElevatedBNP   = "Repeat natriuretic peptide testing and assess for volume overload."
	RecBloodPressure = "Optimize blood pressure control toward guideline targets."
	RecTachycardia   = "Evaluate persistent tachycardia and consider rate control."
	RecWeight        = "Refer for structured weight management."
	RecSmoking       = "Provide smoking cessation counselling."
	RecDiabetes      = "Optimize glycaemic control."
	RecRenal         = "Assess renal function and review nephrotoxic medications."
	RecHyponatremia  = "Monitor serum sodium; hyponatremia may indicate worsening heart failure."
	RecHyperkalemia  = "Review potassium-elevating medications and monitor electrolytes."
	RecAnemia        = "Evaluate for anemia and iron deficiency."
)

// DefaultConfig returns the built-in scoring model.
//
// The weights, normalization ranges and thresholds are clinically plausible
// placeholders, not validated coefficients. Deployments are expected to supply
// their own model file.
func DefaultConfig() *Config {
	return &Config{
		Version: DefaultModelVersion,
		Parameters: []ParameterRule{
			{
				Name: domain.ParamAge, Source: SourceRequired, Kind: KindLinear,
				Low: 30, High: 85, Weight: 10,
				Valid: &Range{Min: 0, Max: 130, MinExclusive: true},
			},
			{
				Name: domain.ParamSex, Source: SourceRequired, Kind: KindLookup,
				Lookup: map[string]float64{string(domain.MALE): 1.0, string(domain.FEMALE): 0.5},
				Weight: 3,
			},
			{
				Name: domain.ParamBMI, Source: SourceRequired, Kind: KindLinear,
				Low: 22, High: 40, Weight: 5,
				Valid: &Range{Min: 0, Max: 100, MinExclusive: true},
				Flag:  &FlagRule{Threshold: 0.45, Recommendation: RecWeight},
			},
			{
				Name: domain.ParamSystolicBP, Source: SourceRequired, Kind: KindLinear,
				Low: 120, High: 180, Weight: 6,
				Valid: &Range{Min: 0, Max: 300, MinExclusive: true},
				Flag:  &FlagRule{Threshold: 0.33, Recommendation: RecBloodPressure},
			},
			{
				Name: domain.ParamDiastolicBP, Source: SourceRequired, Kind: KindLinear,
				Low: 80, High: 110, Weight: 4,
				Valid: &Range{Min: 0, Max: 200, MinExclusive: true},
				Flag:  &FlagRule{Threshold: 0.33, Recommendation: RecBloodPressure},
			},
			{
				Name: domain.ParamHeartRate, Source: SourceRequired, Kind: KindLinear,
				Low: 60, High: 120, Weight: 6,
				Valid: &Range{Min: 0, Max: 300, MinExclusive: true},
				Flag:  &FlagRule{Threshold: 0.5, Recommendation: RecTachycardia},
			},
			{
				Name: domain.ParamEjectionFraction, Source: SourceRequired, Kind: KindInverseLinear,
				Low: 20, High: 55, Weight: 35,
				Valid: &Range{Min: 0, Max: 100},
				Flag:  &FlagRule{Threshold: 0.7, Recommendation: RecReducedEF},
			},
			{
				Name: domain.ParamBNP, Source: SourceOptional, Kind: KindLinear,
				Low: 100, High: 1000, Weight: 25,
				Valid: &Range{Min: 0, Max: 100000},
				Flag:  &FlagRule{Threshold: 0.5, Recommendation: RecElevatedBNP},
			},
			{
				Name: domain.ParamSmoking, Source: SourceOptional, Kind: KindLookup,
				Lookup: map[string]float64{
					string(domain.SMOKING_NEVER):   0,
					string(domain.SMOKING_FORMER):  0.5,
					string(domain.SMOKING_CURRENT): 1,
				},
				Weight: 4,
				Flag:   &FlagRule{Threshold: 0.9, Recommendation: RecSmoking},
			},
			{
				Name: domain.ParamDiabetes, Source: SourceOptional, Kind: KindLookup,
				Lookup: map[string]float64{"no": 0, "yes": 1},
				Weight: 4,
				Flag:   &FlagRule{Threshold: 0.5, Recommendation: RecDiabetes},
			},
			{
				Name: domain.ParamHypertension, Source: SourceOptional, Kind: KindLookup,
				Lookup: map[string]float64{"no": 0, "yes": 1},
				Weight: 4,
				Flag:   &FlagRule{Threshold: 0.5, Recommendation: RecBloodPressure},
			},
			{
				Name: domain.LabCreatinine, Source: SourceLab, Kind: KindLinear,
				Low: 1.0, High: 3.0, Weight: 5,
				Valid: &Range{Min: 0, Max: 20},
				Flag:  &FlagRule{Threshold: 0.25, Recommendation: RecRenal},
			},
			{
				Name: domain.LabSodium, Source: SourceLab, Kind: KindInverseLinear,
				Low: 125, High: 140, Weight: 3,
				Valid: &Range{Min: 90, Max: 200},
				Flag:  &FlagRule{Threshold: 0.5, Recommendation: RecHyponatremia},
			},
			{
				Name: domain.LabPotassium, Source: SourceLab, Kind: KindLinear,
				Low: 4.5, High: 6.5, Weight: 2,
				Valid: &Range{Min: 1, Max: 10},
				Flag:  &FlagRule{Threshold: 0.25, Recommendation: RecHyperkalemia},
			},
			{
				Name: domain.LabHemoglobin, Source: SourceLab, Kind: KindInverseLinear,
				Low: 9, High: 13, Weight: 3,
				Valid: &Range{Min: 2, Max: 25},
				Flag:  &FlagRule{Threshold: 0.5, Recommendation: RecAnemia},
			},
		},
		Bands: []Band{
			{Category: domain.RISK_LOW, Min: 0},
			{Category: domain.RISK_MODERATE, Min: 25},
			{Category: domain.RISK_HIGH, Min: 50},
			{Category: domain.RISK_CRITICAL, Min: 75},
		},
		BaseRecommendations: map[domain.RiskCategory][]string{
			domain.RISK_LOW: {
				"Continue maintaining a healthy lifestyle",
				"Schedule regular check-ups",
				"Monitor blood pressure and heart rate",
			},
			domain.RISK_MODERATE: {
				"Schedule a follow-up with a healthcare provider",
				"Consider lifestyle modifications",
				"Monitor symptoms closely",
			},
			domain.RISK_HIGH: {
				"Arrange prompt consultation with a healthcare provider",
				"Monitor symptoms carefully",
				"Follow the prescribed medication regimen",
			},
			domain.RISK_CRITICAL: {
				"Seek urgent cardiology assessment",
				"Arrange prompt consultation with a healthcare provider",
				"Follow the prescribed medication regimen",
			},
		},
		SoftRanges: []SoftRange{
			{Parameter: domain.ParamBMI, Min: 15, Max: 50},
			{Parameter: domain.ParamHeartRate, Min: 40, Max: 200},
		},
	}
}
