package service

import (
	"math"

	"github.com/hf-risk-server/internal/domain"
)

// ProfileRequest is the wire form of a patient profile shared by the HTTP API,
// the MCP tools and the CLI profile files. Pointer fields distinguish a value
// that was not supplied from a supplied zero.
type ProfileRequest struct {
	PatientRef       string             `json:"patient_ref,omitempty" yaml:"patient_ref,omitempty"`
	Age              *float64           `json:"age" yaml:"age"`
	Sex              string             `json:"sex" yaml:"sex"`
	BMI              *float64           `json:"bmi,omitempty" yaml:"bmi,omitempty"`
	WeightKg         *float64           `json:"weight_kg,omitempty" yaml:"weight_kg,omitempty"`
	HeightM          *float64           `json:"height_m,omitempty" yaml:"height_m,omitempty"`
	SystolicBP       *float64           `json:"systolic_bp" yaml:"systolic_bp"`
	DiastolicBP      *float64           `json:"diastolic_bp" yaml:"diastolic_bp"`
	HeartRate        *float64           `json:"heart_rate" yaml:"heart_rate"`
	EjectionFraction *float64           `json:"ejection_fraction" yaml:"ejection_fraction"`
	BNP              *float64           `json:"bnp,omitempty" yaml:"bnp,omitempty"`
	Smoking          string             `json:"smoking,omitempty" yaml:"smoking,omitempty"`
	Diabetes         *bool              `json:"diabetes,omitempty" yaml:"diabetes,omitempty"`
	Hypertension     *bool              `json:"hypertension,omitempty" yaml:"hypertension,omitempty"`
	Labs             map[string]float64 `json:"labs,omitempty" yaml:"labs,omitempty"`
}

// ToProfile converts the request into a PatientProfile. It reports missing
// required fields and unparseable labels; range checks are left to the engine.
// When bmi is absent it is derived from weight_kg / height_m². On error the
// returned profile holds every field that could be built, with zero values for
// the offending ones.
func (r ProfileRequest) ToProfile() (domain.PatientProfile, error) {
	var errs domain.ValidationErrors
	required := func(field string, v *float64) float64 {
		if v == nil {
			errs = append(errs, *domain.NewValidationError(field, "is required", nil))
			return 0
		}
		return *v
	}

	var profile domain.PatientProfile
	profile.Age = required(domain.ParamAge, r.Age)

	if r.Sex == "" {
		errs = append(errs, *domain.NewValidationError(domain.ParamSex, "is required", nil))
	} else if sex, err := domain.ParseSex(r.Sex); err != nil {
		errs = append(errs, *domain.NewValidationError(domain.ParamSex, "must be one of female, male", r.Sex))
	} else {
		profile.Sex = sex
	}

	bmi, ve := r.bmi()
	if ve != nil {
		errs = append(errs, *ve)
	}
	profile.BMI = bmi

	profile.SystolicBP = required(domain.ParamSystolicBP, r.SystolicBP)
	profile.DiastolicBP = required(domain.ParamDiastolicBP, r.DiastolicBP)
	profile.HeartRate = required(domain.ParamHeartRate, r.HeartRate)
	profile.EjectionFraction = required(domain.ParamEjectionFraction, r.EjectionFraction)
	profile.BNP = copyFloat(r.BNP)

	if smoking, err := domain.ParseSmokingStatus(r.Smoking); err != nil {
		errs = append(errs, *domain.NewValidationError(domain.ParamSmoking, "must be one of current, former, never", r.Smoking))
	} else {
		profile.Smoking = smoking
	}
	profile.Diabetes = copyBool(r.Diabetes)
	profile.Hypertension = copyBool(r.Hypertension)

	if len(r.Labs) > 0 {
		profile.Labs = make(map[string]float64, len(r.Labs))
		for k, v := range r.Labs {
			profile.Labs[k] = v
		}
	}

	if len(errs) > 0 {
		return profile, errs
	}
	return profile, nil
}

func (r ProfileRequest) bmi() (float64, *domain.ValidationError) {
	if r.BMI != nil {
		return *r.BMI, nil
	}
	if r.WeightKg == nil || r.HeightM == nil {
		return 0, domain.NewValidationError(domain.ParamBMI, "is required (or provide weight_kg and height_m)", nil)
	}
	if *r.HeightM <= 0 || math.IsNaN(*r.HeightM) {
		return 0, domain.NewValidationError("height_m", "must be greater than 0", *r.HeightM)
	}
	if *r.WeightKg <= 0 || math.IsNaN(*r.WeightKg) {
		return 0, domain.NewValidationError("weight_kg", "must be greater than 0", *r.WeightKg)
	}
	return *r.WeightKg / (*r.HeightM * *r.HeightM), nil
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return domain.Float(*v)
}

func copyBool(v *bool) *bool {
	if v == nil {
		return nil
	}
	return domain.Bool(*v)
}
