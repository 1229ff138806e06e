package domain

// RiskCategory is the ordinal risk bucket derived from the total score
type RiskCategory string

const (
	RISK_LOW      RiskCategory = "Low"
	RISK_MODERATE RiskCategory = "Moderate"
	RISK_HIGH     RiskCategory = "High"
	RISK_CRITICAL RiskCategory = "Critical"
)

// RiskCategories lists every category in ascending order of severity
var RiskCategories = []RiskCategory{RISK_LOW, RISK_MODERATE, RISK_HIGH, RISK_CRITICAL}

// String returns the string representation of RiskCategory
func (c RiskCategory) String() string {
	return string(c)
}

// Rank returns the ordinal position of the category, or -1 when unknown
func (c RiskCategory) Rank() int {
	for i, rc := range RiskCategories {
		if rc == c {
			return i
		}
	}
	return -1
}

// RiskScore is the rescaled total and the band it falls in
type RiskScore struct {
	Total          float64      `json:"score"`
	Category       RiskCategory `json:"category"`
	WeightedSum    float64      `json:"weighted_sum"`     // sum of normalized x weight
	MaxWeightedSum float64      `json:"max_weighted_sum"` // sum of weights over evaluated parameters
}

// FeatureContribution is the share of the score attributable to one parameter.
// Contribution is normalized x weight; Points is the same amount in rescaled score units.
type FeatureContribution struct {
	Parameter    string  `json:"parameter"`
	Raw          float64 `json:"raw"`
	RawLabel     string  `json:"raw_label,omitempty"`
	Normalized   float64 `json:"normalized"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
	Points       float64 `json:"points"`
}

// AssessmentResult is the complete output of one risk assessment.
// It is created once per invocation and must not be mutated.
type AssessmentResult struct {
	RiskScore
	Contributions   []FeatureContribution `json:"contributions"`
	Recommendations []string              `json:"recommendations"`
	Flagged         []string              `json:"flagged,omitempty"`
	Warnings        []string              `json:"warnings,omitempty"`
	ModelVersion    string                `json:"model_version"`
}
