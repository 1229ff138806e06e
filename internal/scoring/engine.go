package scoring

import (
	"github.com/hf-risk-server/internal/domain"
)

// Engine runs the full assessment pipeline against an immutable model
type Engine struct {
	cfg *Config
}

// NewEngine validates cfg and creates an engine holding a private copy of it.
// A nil cfg selects DefaultConfig.
func NewEngine(cfg *Config) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	owned := cfg.Clone()
	if err := owned.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: owned}, nil
}

// Model returns a copy of the model the engine scores with
func (e *Engine) Model() *Config {
	return e.cfg.Clone()
}

// Compute validates, normalizes, scores, explains and annotates one profile.
// It returns either a complete result or the first error encountered.
func (e *Engine) Compute(profile domain.PatientProfile) (*domain.AssessmentResult, error) {
	profile = profile.Clone()

	warnings, err := Validate(profile, e.cfg)
	if err != nil {
		return nil, err
	}

	values := NormalizeProfile(profile, e.cfg)

	score, err := ScoreRisk(values, e.cfg.Bands)
	if err != nil {
		return nil, err
	}

	contributions := Contributions(values, score)
	recommendations, flagged := Recommend(score.Category, values, e.cfg)

	return Assemble(score, contributions, recommendations, flagged, warnings, e.cfg.Version), nil
}

// Assemble packages the component outputs into one result without further computation
func Assemble(score domain.RiskScore, contributions []domain.FeatureContribution, recommendations, flagged, warnings []string, version string) *domain.AssessmentResult {
	return &domain.AssessmentResult{
		RiskScore:       score,
		Contributions:   contributions,
		Recommendations: recommendations,
		Flagged:         flagged,
		Warnings:        warnings,
		ModelVersion:    version,
	}
}

// Compute is the one-shot form of Engine.Compute for callers that do not keep an engine
func Compute(profile domain.PatientProfile, cfg *Config) (*domain.AssessmentResult, error) {
	engine, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	return engine.Compute(profile)
}
