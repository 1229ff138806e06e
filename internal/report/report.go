// Package report renders assessments for people and for export.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/hf-risk-server/internal/domain"
	"github.com/hf-risk-server/internal/history"
)

// Disclaimer is printed under every text summary
const Disclaimer = "This score is produced by a configurable placeholder model. It is not clinically validated and does not replace clinical judgment."

// Summary is the renderable view of one assessment. Profile is optional.
type Summary struct {
	ID         string                  `json:"id,omitempty"`
	PatientRef string                  `json:"patient_ref,omitempty"`
	CreatedAt  time.Time               `json:"created_at"`
	Profile    *domain.PatientProfile  `json:"profile,omitempty"`
	Result     domain.AssessmentResult `json:"result"`
}

// FromRecord builds a summary of a stored assessment
func FromRecord(rec *history.Record) Summary {
	profile := rec.Profile
	return Summary{
		ID:         rec.ID.String(),
		PatientRef: rec.PatientRef,
		CreatedAt:  rec.CreatedAt,
		Profile:    &profile,
		Result:     rec.Result,
	}
}

// WriteText renders a plain-text summary
func WriteText(w io.Writer, s Summary) error {
	var b strings.Builder

	b.WriteString("Heart Failure Risk Assessment\n")
	b.WriteString(strings.Repeat("=", 29) + "\n")
	if s.ID != "" {
		fmt.Fprintf(&b, "Assessment: %s\n", s.ID)
	}
	if s.PatientRef != "" {
		fmt.Fprintf(&b, "Patient:    %s\n", s.PatientRef)
	}
	if !s.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "Date:       %s\n", s.CreatedAt.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "Model:      %s\n\n", s.Result.ModelVersion)

	fmt.Fprintf(&b, "Risk score: %.1f / 100 (%s)\n", s.Result.Total, s.Result.Category)

	if s.Profile != nil {
		b.WriteString("\nProfile\n")
		writeProfile(&b, s.Profile)
	}

	b.WriteString("\nContributions\n")
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  PARAMETER\tVALUE\tNORMALIZED\tWEIGHT\tPOINTS\t")
	for _, c := range s.Result.Contributions {
		fmt.Fprintf(tw, "  %s\t%s\t%.2f\t%g\t%.1f\t%s\n",
			c.Parameter, rawValue(c), c.Normalized, c.Weight, c.Points, flagMark(c.Parameter, s.Result.Flagged))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	b.WriteString("\nRecommendations\n")
	for i, r := range s.Result.Recommendations {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, r)
	}

	if len(s.Result.Warnings) > 0 {
		b.WriteString("\nWarnings\n")
		for _, warning := range s.Result.Warnings {
			fmt.Fprintf(&b, "  - %s\n", warning)
		}
	}

	fmt.Fprintf(&b, "\n%s\n", Disclaimer)

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteJSON renders the summary as an indented JSON document
func WriteJSON(w io.Writer, s Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

func writeProfile(b *strings.Builder, p *domain.PatientProfile) {
	fmt.Fprintf(b, "  Age %g, %s, BMI %.1f\n", p.Age, p.Sex, p.BMI)
	fmt.Fprintf(b, "  Blood pressure %g/%g mmHg, heart rate %g bpm\n", p.SystolicBP, p.DiastolicBP, p.HeartRate)
	if p.BNP != nil {
		fmt.Fprintf(b, "  Ejection fraction %g%%, BNP %g pg/mL\n", p.EjectionFraction, *p.BNP)
	} else {
		fmt.Fprintf(b, "  Ejection fraction %g%%, BNP not measured\n", p.EjectionFraction)
	}
}

func rawValue(c domain.FeatureContribution) string {
	if c.RawLabel != "" {
		return c.RawLabel
	}
	return fmt.Sprintf("%g", c.Raw)
}

func flagMark(parameter string, flagged []string) string {
	for _, f := range flagged {
		if f == parameter {
			return "*"
		}
	}
	return ""
}
