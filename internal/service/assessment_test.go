package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hf-risk-server/internal/domain"
	"github.com/hf-risk-server/internal/history"
	"github.com/hf-risk-server/internal/metrics"
	"github.com/hf-risk-server/internal/scoring"
)

// MockStore is a mock implementation of history.Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Save(ctx context.Context, record *history.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockStore) Get(ctx context.Context, id uuid.UUID) (*history.Record, error) {
	args := m.Called(ctx, id)
	if rec, ok := args.Get(0).(*history.Record); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) List(ctx context.Context, limit, offset int) ([]*history.Record, error) {
	args := m.Called(ctx, limit, offset)
	if recs, ok := args.Get(0).([]*history.Record); ok {
		return recs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	args := m.Called(ctx, writer)
	return args.Error(0)
}

func (m *MockStore) ImportJSON(ctx context.Context, reader io.Reader) (int, int, error) {
	args := m.Called(ctx, reader)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newEngine(t *testing.T) *scoring.Engine {
	t.Helper()
	engine, err := scoring.NewEngine(nil)
	require.NoError(t, err)
	return engine
}

func newSQLiteService(t *testing.T, opts ...Option) (*AssessmentService, *test.Hook) {
	t.Helper()
	store, err := history.NewSQLiteStore(filepath.Join(t.TempDir(), "assessments.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger, hook := test.NewNullLogger()
	return NewAssessmentService(logger, newEngine(t), append([]Option{WithStore(store)}, opts...)...), hook
}

func TestAssessmentService_AssessAndRetrieve(t *testing.T) {
	svc, _ := newSQLiteService(t)
	ctx := context.Background()

	assessment, err := svc.Assess(ctx, validRequest(), SourceAPI)
	require.NoError(t, err)
	require.True(t, assessment.Stored)
	assert.NotEqual(t, uuid.Nil, assessment.ID)
	assert.Equal(t, "pt-1", assessment.PatientRef)
	assert.GreaterOrEqual(t, assessment.Result.Category.Rank(), domain.RISK_HIGH.Rank())

	rec, err := svc.Get(ctx, assessment.ID)
	require.NoError(t, err)
	assert.Equal(t, *assessment.Result, rec.Result)
	assert.Equal(t, domain.MALE, rec.Profile.Sex)

	records, total, err := svc.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, records, 1)
	assert.Equal(t, assessment.ID, records[0].ID)

	require.NoError(t, svc.Delete(ctx, assessment.ID))
	_, err = svc.Get(ctx, assessment.ID)
	assert.ErrorIs(t, err, history.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, assessment.ID), history.ErrNotFound)
}

func TestAssessmentService_ExportImport(t *testing.T) {
	source, _ := newSQLiteService(t)
	target, _ := newSQLiteService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := source.Assess(ctx, validRequest(), SourceCLI)
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	require.NoError(t, source.Export(ctx, &buf))
	data := buf.Bytes()

	imported, skipped, err := target.Import(ctx, bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 3, imported)
	assert.Equal(t, 0, skipped)

	imported, skipped, err = target.Import(ctx, bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 0, imported)
	assert.Equal(t, 3, skipped)
}

func TestAssessmentService_ValidationFailure(t *testing.T) {
	m := metrics.New()
	svc, _ := newSQLiteService(t, WithMetrics(m))
	ctx := context.Background()

	req := validRequest()
	req.Age = nil
	_, err := svc.Assess(ctx, req, SourceAPI)
	var verrs domain.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, []string{domain.ParamAge}, verrs.FieldNames())

	// out of range values are rejected by the engine
	req = validRequest()
	req.EjectionFraction = f(120)
	_, err = svc.Assess(ctx, req, SourceAPI)
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs.FieldNames(), domain.ParamEjectionFraction)

	_, total, err := svc.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total, "rejected profiles are never stored")
}

func TestAssessmentService_ReportsEveryInvalidField(t *testing.T) {
	svc, _ := newSQLiteService(t)

	tests := []struct {
		name   string
		mutate func(*ProfileRequest)
		fields []string
	}{
		{
			name: "missing age with range errors",
			mutate: func(r *ProfileRequest) {
				r.Age = nil
				r.EjectionFraction = f(150)
				r.Labs = map[string]float64{domain.LabSodium: 5}
			},
			fields: []string{domain.ParamAge, domain.ParamEjectionFraction, "labs." + domain.LabSodium},
		},
		{
			name: "bad height with range errors",
			mutate: func(r *ProfileRequest) {
				r.BMI = nil
				r.WeightKg = f(80)
				r.HeightM = f(0)
				r.HeartRate = f(400)
			},
			fields: []string{"height_m", domain.ParamHeartRate},
		},
		{
			name: "unknown labels with unknown lab",
			mutate: func(r *ProfileRequest) {
				r.Sex = "x"
				r.Smoking = "sometimes"
				r.Age = f(200)
				r.Labs = map[string]float64{"cholesterol": 200}
			},
			fields: []string{domain.ParamAge, domain.ParamSex, domain.ParamSmoking, "labs.cholesterol"},
		},
		{
			name:   "missing systolic skips the blood pressure comparison",
			mutate: func(r *ProfileRequest) { r.SystolicBP = nil },
			fields: []string{domain.ParamSystolicBP},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			_, err := svc.Assess(context.Background(), req, SourceAPI)
			var verrs domain.ValidationErrors
			require.True(t, errors.As(err, &verrs), "got %v", err)
			assert.Equal(t, tt.fields, verrs.FieldNames())
		})
	}
}

func TestAssessmentService_PersistenceFailureDoesNotFailAssessment(t *testing.T) {
	store := new(MockStore)
	store.On("Save", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	logger, hook := test.NewNullLogger()
	svc := NewAssessmentService(logger, newEngine(t), WithStore(store))

	assessment, err := svc.Assess(context.Background(), validRequest(), SourceMCP)
	require.NoError(t, err)
	assert.False(t, assessment.Stored)
	assert.Equal(t, uuid.Nil, assessment.ID)
	require.NotNil(t, assessment.Result)

	var warned bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && entry.Message == "Failed to persist assessment, returning unsaved result" {
			warned = true
		}
	}
	assert.True(t, warned)
	store.AssertExpectations(t)
}

func TestAssessmentService_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	store := new(MockStore)
	store.On("Save", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	logger, hook := test.NewNullLogger()
	svc := NewAssessmentService(logger, newEngine(t), WithStore(store), WithBreaker(time.Minute, 2))

	for i := 0; i < 5; i++ {
		assessment, err := svc.Assess(context.Background(), validRequest(), SourceAPI)
		require.NoError(t, err)
		assert.False(t, assessment.Stored)
	}

	store.AssertNumberOfCalls(t, "Save", 2)

	var tripped bool
	for _, entry := range hook.AllEntries() {
		if entry.Message == "Circuit breaker state changed" && entry.Data["to"] == "open" {
			tripped = true
		}
	}
	assert.True(t, tripped)
}

func TestAssessmentService_HistoryDisabled(t *testing.T) {
	logger, _ := test.NewNullLogger()
	svc := NewAssessmentService(logger, newEngine(t))
	ctx := context.Background()

	assert.False(t, svc.HistoryEnabled())

	assessment, err := svc.Assess(ctx, validRequest(), SourceCLI)
	require.NoError(t, err)
	assert.False(t, assessment.Stored)

	_, err = svc.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrHistoryDisabled)
	_, _, err = svc.List(ctx, 10, 0)
	assert.ErrorIs(t, err, ErrHistoryDisabled)
	assert.ErrorIs(t, svc.Delete(ctx, uuid.New()), ErrHistoryDisabled)
	assert.ErrorIs(t, svc.Export(ctx, io.Discard), ErrHistoryDisabled)
	_, _, err = svc.Import(ctx, bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrHistoryDisabled)
}

func TestAssessmentService_Model(t *testing.T) {
	logger, _ := test.NewNullLogger()
	svc := NewAssessmentService(logger, newEngine(t))

	model := svc.Model()
	require.NotNil(t, model)
	assert.Equal(t, scoring.DefaultModelVersion, model.Version)
	assert.NotEmpty(t, model.Parameters)
}

func TestAssessmentService_StorageErrors(t *testing.T) {
	store := new(MockStore)
	missing := uuid.New()
	broken := uuid.New()
	store.On("Get", mock.Anything, missing).Return(nil, history.ErrNotFound)
	store.On("Get", mock.Anything, broken).Return(nil, errors.New("connection reset"))
	store.On("ImportJSON", mock.Anything, mock.Anything).Return(0, 0, history.ErrInvalidExport)

	logger, _ := test.NewNullLogger()
	svc := NewAssessmentService(logger, newEngine(t), WithStore(store))
	ctx := context.Background()

	_, err := svc.Get(ctx, missing)
	assert.ErrorIs(t, err, history.ErrNotFound)
	assert.NotErrorIs(t, err, ErrStorage)

	_, err = svc.Get(ctx, broken)
	assert.ErrorIs(t, err, ErrStorage)
	assert.Contains(t, err.Error(), "connection reset")

	_, _, err = svc.Import(ctx, bytes.NewReader(nil))
	assert.ErrorIs(t, err, history.ErrInvalidExport)
	assert.NotErrorIs(t, err, ErrStorage)
}
