package domain

import (
	"fmt"
	"strings"
)

// Sex represents the biological sex used by the sex-specific risk offset
type Sex string

const (
	MALE   Sex = "male"
	FEMALE Sex = "female"
)

// ParseSex parses a case-insensitive sex label
func ParseSex(s string) (Sex, error) {
	switch Sex(strings.ToLower(strings.TrimSpace(s))) {
	case MALE:
		return MALE, nil
	case FEMALE:
		return FEMALE, nil
	default:
		return "", fmt.Errorf("unknown sex %q: expected male or female", s)
	}
}

// SmokingStatus represents the patient's smoking history
type SmokingStatus string

const (
	SMOKING_NEVER   SmokingStatus = "never"
	SMOKING_FORMER  SmokingStatus = "former"
	SMOKING_CURRENT SmokingStatus = "current"
)

// ParseSmokingStatus parses a case-insensitive smoking label. An empty label means not recorded.
func ParseSmokingStatus(s string) (SmokingStatus, error) {
	switch SmokingStatus(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return "", nil
	case SMOKING_NEVER:
		return SMOKING_NEVER, nil
	case SMOKING_FORMER:
		return SMOKING_FORMER, nil
	case SMOKING_CURRENT:
		return SMOKING_CURRENT, nil
	default:
		return "", fmt.Errorf("unknown smoking status %q: expected never, former or current", s)
	}
}

// Parameter names shared by the scoring model, the API and the reports
const (
	ParamAge              = "age"
	ParamSex              = "sex"
	ParamBMI              = "bmi"
	ParamSystolicBP       = "systolic_bp"
	ParamDiastolicBP      = "diastolic_bp"
	ParamHeartRate        = "heart_rate"
	ParamEjectionFraction = "ejection_fraction"
	ParamBNP              = "bnp"
	ParamSmoking          = "smoking"
	ParamDiabetes         = "diabetes"
	ParamHypertension     = "hypertension"

	LabCreatinine = "creatinine"
	LabSodium     = "sodium"
	LabPotassium  = "potassium"
	LabHemoglobin = "hemoglobin"
)

// PatientProfile is a single clinical snapshot. It is treated as immutable once
// constructed; consumers copy Labs before keeping it.
type PatientProfile struct {
	Age              float64            `json:"age" yaml:"age"`
	Sex              Sex                `json:"sex" yaml:"sex"`
	BMI              float64            `json:"bmi" yaml:"bmi"`
	SystolicBP       float64            `json:"systolic_bp" yaml:"systolic_bp"`
	DiastolicBP      float64            `json:"diastolic_bp" yaml:"diastolic_bp"`
	HeartRate        float64            `json:"heart_rate" yaml:"heart_rate"`
	EjectionFraction float64            `json:"ejection_fraction" yaml:"ejection_fraction"`
	BNP              *float64           `json:"bnp,omitempty" yaml:"bnp,omitempty"` // nil when not measured
	Smoking          SmokingStatus      `json:"smoking,omitempty" yaml:"smoking,omitempty"`
	Diabetes         *bool              `json:"diabetes,omitempty" yaml:"diabetes,omitempty"`
	Hypertension     *bool              `json:"hypertension,omitempty" yaml:"hypertension,omitempty"`
	Labs             map[string]float64 `json:"labs,omitempty" yaml:"labs,omitempty"`
}

// NumericValue returns the raw numeric value recorded for a parameter.
// The second return value is false when the parameter is absent.
func (p PatientProfile) NumericValue(name string) (float64, bool) {
	switch name {
	case ParamAge:
		return p.Age, true
	case ParamBMI:
		return p.BMI, true
	case ParamSystolicBP:
		return p.SystolicBP, true
	case ParamDiastolicBP:
		return p.DiastolicBP, true
	case ParamHeartRate:
		return p.HeartRate, true
	case ParamEjectionFraction:
		return p.EjectionFraction, true
	case ParamBNP:
		if p.BNP == nil {
			return 0, false
		}
		return *p.BNP, true
	}
	v, ok := p.Labs[name]
	return v, ok
}

// CategoryValue returns the label recorded for a categorical parameter.
// The second return value is false when the parameter is absent.
func (p PatientProfile) CategoryValue(name string) (string, bool) {
	switch name {
	case ParamSex:
		return string(p.Sex), true
	case ParamSmoking:
		return string(p.Smoking), p.Smoking != ""
	case ParamDiabetes:
		return yesNo(p.Diabetes)
	case ParamHypertension:
		return yesNo(p.Hypertension)
	}
	return "", false
}

// Clone returns a copy that shares no mutable state with p
func (p PatientProfile) Clone() PatientProfile {
	c := p
	if p.BNP != nil {
		v := *p.BNP
		c.BNP = &v
	}
	if p.Diabetes != nil {
		v := *p.Diabetes
		c.Diabetes = &v
	}
	if p.Hypertension != nil {
		v := *p.Hypertension
		c.Hypertension = &v
	}
	if p.Labs != nil {
		c.Labs = make(map[string]float64, len(p.Labs))
		for k, v := range p.Labs {
			c.Labs[k] = v
		}
	}
	return c
}

func yesNo(b *bool) (string, bool) {
	if b == nil {
		return "", false
	}
	if *b {
		return "yes", true
	}
	return "no", true
}

// Float returns a pointer to v, for optional numeric fields
func Float(v float64) *float64 {
	return &v
}

// Bool returns a pointer to v, for optional yes/no fields
func Bool(v bool) *bool {
	return &v
}
