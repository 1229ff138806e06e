package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/hf-risk-server/internal/report"
	"github.com/hf-risk-server/internal/service"
)

type assessOpts struct {
	profileFile string
	modelFile   string
	outputFmt   string
	save        bool
	labs        map[string]string
	req         service.ProfileRequest
}

func newAssessCmd(global *globalOpts) *cobra.Command {
	opts := &assessOpts{}
	var (
		age, bmi, weight, height       float64
		systolic, diastolic, heartRate float64
		ejectionFraction, bnp          float64
		diabetes, hypertension         bool
	)

	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Score one patient profile",
		Long: `Scores a patient profile read from a YAML or JSON file (--profile), from
flags, or both; flags override values from the file.`,
		Example: `  hfrisk assess --age 70 --sex male --bmi 32 --systolic 150 --diastolic 95 \
    --heart-rate 100 --ef 25 --bnp 900
  hfrisk assess --profile patient.yaml --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(opts.outputFmt); err != nil {
				return err
			}
			if opts.profileFile != "" {
				if err := loadProfile(opts.profileFile, &opts.req); err != nil {
					return err
				}
			}

			flags := cmd.Flags()
			setFloat(flags, "age", age, &opts.req.Age)
			setFloat(flags, "bmi", bmi, &opts.req.BMI)
			setFloat(flags, "weight", weight, &opts.req.WeightKg)
			setFloat(flags, "height", height, &opts.req.HeightM)
			setFloat(flags, "systolic", systolic, &opts.req.SystolicBP)
			setFloat(flags, "diastolic", diastolic, &opts.req.DiastolicBP)
			setFloat(flags, "heart-rate", heartRate, &opts.req.HeartRate)
			setFloat(flags, "ef", ejectionFraction, &opts.req.EjectionFraction)
			setFloat(flags, "bnp", bnp, &opts.req.BNP)
			setBool(flags, "diabetes", diabetes, &opts.req.Diabetes)
			setBool(flags, "hypertension", hypertension, &opts.req.Hypertension)
			if err := mergeLabs(opts.labs, &opts.req); err != nil {
				return err
			}

			return runAssess(cmd, global, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.profileFile, "profile", "", "YAML or JSON patient profile file")
	f.StringVar(&opts.modelFile, "model", "", "YAML scoring model (default: configured model or built-in defaults)")
	f.StringVar(&opts.outputFmt, "output", "text", "Output format: text or json")
	f.BoolVar(&opts.save, "save", false, "Store the assessment in the configured history")

	f.StringVar(&opts.req.PatientRef, "patient-ref", "", "Opaque patient reference stored with the assessment")
	f.Float64Var(&age, "age", 0, "Age in years")
	f.StringVar(&opts.req.Sex, "sex", "", "Sex: male or female")
	f.Float64Var(&bmi, "bmi", 0, "Body mass index in kg/m²")
	f.Float64Var(&weight, "weight", 0, "Weight in kg, used with --height when --bmi is absent")
	f.Float64Var(&height, "height", 0, "Height in m, used with --weight when --bmi is absent")
	f.Float64Var(&systolic, "systolic", 0, "Systolic blood pressure in mmHg")
	f.Float64Var(&diastolic, "diastolic", 0, "Diastolic blood pressure in mmHg")
	f.Float64Var(&heartRate, "heart-rate", 0, "Heart rate in bpm")
	f.Float64Var(&ejectionFraction, "ef", 0, "Left ventricular ejection fraction in %")
	f.Float64Var(&bnp, "bnp", 0, "BNP in pg/mL (omit when not measured)")
	f.StringVar(&opts.req.Smoking, "smoking", "", "Smoking status: never, former or current")
	f.BoolVar(&diabetes, "diabetes", false, "Patient has diabetes")
	f.BoolVar(&hypertension, "hypertension", false, "Patient has diagnosed hypertension")
	f.StringToStringVar(&opts.labs, "lab", nil, "Optional lab value, e.g. --lab sodium=131 (repeatable)")

	return cmd
}

func runAssess(cmd *cobra.Command, global *globalOpts, opts *assessOpts) error {
	a, err := global.build(cmd.Context(), opts.modelFile, opts.save)
	if err != nil {
		return err
	}
	defer a.Close()

	assessment, err := a.Service.Assess(cmd.Context(), opts.req, service.SourceCLI)
	if err != nil {
		return err
	}
	if opts.save && !assessment.Stored {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: assessment was not stored")
	}

	out := cmd.OutOrStdout()
	if opts.outputFmt == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(assessment)
	}

	summary := report.Summary{
		PatientRef: assessment.PatientRef,
		Result:     *assessment.Result,
	}
	if assessment.Stored {
		summary.ID = assessment.ID.String()
		summary.CreatedAt = assessment.CreatedAt
	}
	if profile, err := opts.req.ToProfile(); err == nil {
		summary.Profile = &profile
	}
	return report.WriteText(out, summary)
}

// loadProfile decodes a profile file. YAML is a superset of JSON, so one
// decoder reads both.
func loadProfile(path string, req *service.ProfileRequest) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading profile: %w", err)
	}
	if err := yaml.Unmarshal(data, req); err != nil {
		return fmt.Errorf("parsing profile %s: %w", path, err)
	}
	return nil
}

func setFloat(flags *pflag.FlagSet, name string, v float64, dst **float64) {
	if flags.Changed(name) {
		*dst = &v
	}
}

func setBool(flags *pflag.FlagSet, name string, v bool, dst **bool) {
	if flags.Changed(name) {
		*dst = &v
	}
}

func mergeLabs(labs map[string]string, req *service.ProfileRequest) error {
	if len(labs) == 0 {
		return nil
	}
	if req.Labs == nil {
		req.Labs = make(map[string]float64, len(labs))
	}
	for name, raw := range labs {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid --lab %s=%s: %w", name, raw, err)
		}
		req.Labs[name] = v
	}
	return nil
}
