package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/hf-risk-server/internal/domain"
	"github.com/hf-risk-server/internal/history"
	"github.com/hf-risk-server/internal/metrics"
	"github.com/hf-risk-server/internal/scoring"
)

// Sources label where an assessment request came from
const (
	SourceAPI = "api"
	SourceMCP = "mcp"
	SourceCLI = "cli"
)

// ErrHistoryDisabled is returned by history operations when no store is configured
var ErrHistoryDisabled = errors.New("assessment history is disabled")

// ErrStorage wraps history store failures other than a missing record or an
// unreadable import document
var ErrStorage = errors.New("assessment storage failed")

// Assessment is the outcome of one Assess call
type Assessment struct {
	ID         uuid.UUID                `json:"id,omitzero"`
	PatientRef string                   `json:"patient_ref,omitempty"`
	CreatedAt  time.Time                `json:"created_at"`
	Stored     bool                     `json:"stored"`
	Result     *domain.AssessmentResult `json:"result"`
}

// AssessmentService runs the scoring engine and records results in history
type AssessmentService struct {
	logger  *logrus.Logger
	engine  domain.RiskEngine
	store   history.Store
	breaker *gobreaker.CircuitBreaker
	metrics *metrics.Metrics
}

// Option configures an AssessmentService
type Option func(*AssessmentService)

// WithStore enables history persistence
func WithStore(store history.Store) Option {
	return func(s *AssessmentService) {
		s.store = store
	}
}

// WithMetrics attaches Prometheus instrumentation
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *AssessmentService) {
		s.metrics = m
	}
}

// WithBreaker guards history writes with a circuit breaker that opens after
// the given number of consecutive failures and probes again after timeout.
func WithBreaker(timeout time.Duration, failures uint32) Option {
	return func(s *AssessmentService) {
		if failures == 0 {
			failures = 5
		}
		s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "history-store",
			MaxRequests: 1,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				s.logger.WithFields(logrus.Fields{
					"breaker": name,
					"from":    from.String(),
					"to":      to.String(),
				}).Warn("Circuit breaker state changed")
			},
		})
	}
}

// NewAssessmentService creates a new assessment service
func NewAssessmentService(logger *logrus.Logger, engine domain.RiskEngine, opts ...Option) *AssessmentService {
	s := &AssessmentService{
		logger: logger,
		engine: engine,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HistoryEnabled reports whether a store is configured
func (s *AssessmentService) HistoryEnabled() bool {
	return s.store != nil
}

// Assess validates the request, scores it and, when history is enabled,
// persists the result. A persistence failure is logged and reported through
// Stored; the assessment itself still succeeds.
func (s *AssessmentService) Assess(ctx context.Context, req ProfileRequest, source string) (*Assessment, error) {
	profile, err := req.ToProfile()
	if err != nil {
		s.metrics.ValidationFailed(source)
		var verrs domain.ValidationErrors
		if model := s.Model(); model != nil && errors.As(err, &verrs) {
			return nil, mergeRangeErrors(profile, verrs, model)
		}
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"source":      source,
		"patient_ref": req.PatientRef,
	}).Debug("Starting risk assessment")

	start := time.Now()
	result, err := s.engine.Compute(profile)
	elapsed := time.Since(start)
	if err != nil {
		var verrs domain.ValidationErrors
		if errors.As(err, &verrs) {
			s.metrics.ValidationFailed(source)
			return nil, err
		}
		s.logger.WithError(err).Error("Risk engine failed")
		return nil, fmt.Errorf("computing risk score: %w", err)
	}
	s.metrics.ObserveAssessment(source, result.Category, elapsed)

	assessment := &Assessment{
		PatientRef: req.PatientRef,
		CreatedAt:  time.Now().UTC(),
		Result:     result,
	}

	if s.store != nil {
		record := &history.Record{
			PatientRef: req.PatientRef,
			Profile:    profile,
			Result:     *result,
			CreatedAt:  assessment.CreatedAt,
		}
		if err := s.save(ctx, record); err != nil {
			s.logger.WithError(err).WithField("source", source).Warn("Failed to persist assessment, returning unsaved result")
			s.metrics.PersistenceFailed()
		} else {
			assessment.ID = record.ID
			assessment.CreatedAt = record.CreatedAt
			assessment.Stored = true
		}
	}

	s.logger.WithFields(logrus.Fields{
		"source":       source,
		"id":           assessment.ID,
		"score":        result.Total,
		"category":     result.Category,
		"flagged":      len(result.Flagged),
		"stored":       assessment.Stored,
		"compute_time": elapsed,
	}).Info("Risk assessment completed")

	return assessment, nil
}

func (s *AssessmentService) save(ctx context.Context, record *history.Record) error {
	if s.breaker == nil {
		return s.store.Save(ctx, record)
	}
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.store.Save(ctx, record)
	})
	return err
}

// Get returns a stored assessment
func (s *AssessmentService) Get(ctx context.Context, id uuid.UUID) (*history.Record, error) {
	if s.store == nil {
		return nil, ErrHistoryDisabled
	}
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, storageError(err)
	}
	return rec, nil
}

// List returns a page of stored assessments, newest first, and the total count
func (s *AssessmentService) List(ctx context.Context, limit, offset int) ([]*history.Record, int64, error) {
	if s.store == nil {
		return nil, 0, ErrHistoryDisabled
	}
	records, err := s.store.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, storageError(err)
	}
	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, 0, storageError(err)
	}
	return records, total, nil
}

// Delete removes a stored assessment
func (s *AssessmentService) Delete(ctx context.Context, id uuid.UUID) error {
	if s.store == nil {
		return ErrHistoryDisabled
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return storageError(err)
	}
	s.logger.WithField("id", id).Info("Assessment deleted")
	return nil
}

// Export writes every stored assessment as a JSON document
func (s *AssessmentService) Export(ctx context.Context, w io.Writer) error {
	if s.store == nil {
		return ErrHistoryDisabled
	}
	return storageError(s.store.ExportJSON(ctx, w))
}

// Import loads assessments from a JSON export, skipping ids already present
func (s *AssessmentService) Import(ctx context.Context, r io.Reader) (int, int, error) {
	if s.store == nil {
		return 0, 0, ErrHistoryDisabled
	}
	imported, skipped, err := s.store.ImportJSON(ctx, r)
	if err != nil {
		return imported, skipped, storageError(err)
	}
	s.logger.WithFields(logrus.Fields{
		"imported": imported,
		"skipped":  skipped,
	}).Info("Assessment import completed")
	return imported, skipped, nil
}

// mergeRangeErrors runs the model's validation over a partially built profile
// and adds its findings to the structural ones, so one response names every
// offending field. Fields already reported as missing or unparseable are not
// checked again. The result is ordered by the model's parameter declaration.
func mergeRangeErrors(profile domain.PatientProfile, structural domain.ValidationErrors, model *scoring.Config) domain.ValidationErrors {
	flagged := make(map[string]bool, len(structural))
	for _, e := range structural {
		flagged[e.Field] = true
	}
	// a failed derivation leaves bmi at zero
	if flagged["weight_kg"] || flagged["height_m"] {
		flagged[domain.ParamBMI] = true
	}

	merged := append(domain.ValidationErrors{}, structural...)
	if _, err := scoring.Validate(profile, model); err != nil {
		var rangeErrs domain.ValidationErrors
		if errors.As(err, &rangeErrs) {
			for _, e := range rangeErrs {
				if !flagged[e.Field] {
					merged = append(merged, e)
				}
			}
		}
	}

	position := make(map[string]int, len(model.Parameters)+2)
	for i, rule := range model.Parameters {
		if rule.Source == scoring.SourceLab {
			position["labs."+rule.Name] = i
		} else {
			position[rule.Name] = i
		}
	}
	if i, ok := position[domain.ParamBMI]; ok {
		position["weight_kg"] = i
		position["height_m"] = i
	}
	rank := func(field string) int {
		if i, ok := position[field]; ok {
			return i
		}
		return len(model.Parameters)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return rank(merged[i].Field) < rank(merged[j].Field)
	})
	return merged
}

func storageError(err error) error {
	if err == nil || errors.Is(err, history.ErrNotFound) || errors.Is(err, history.ErrInvalidExport) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

// Model returns the scoring model the engine runs, or nil when the engine
// does not expose one.
func (s *AssessmentService) Model() *scoring.Config {
	if m, ok := s.engine.(interface{ Model() *scoring.Config }); ok {
		return m.Model()
	}
	return nil
}
