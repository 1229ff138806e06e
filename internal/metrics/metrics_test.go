package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hf-risk-server/internal/domain"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveAssessment("api", domain.RISK_HIGH, 2*time.Millisecond)
	m.ObserveAssessment("api", domain.RISK_HIGH, time.Millisecond)
	m.ObserveAssessment("mcp", domain.RISK_LOW, time.Millisecond)
	m.ValidationFailed("api")
	m.PersistenceFailed()
	m.ObserveHTTP(http.MethodPost, "/api/v1/assessments", http.StatusCreated, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.assessments.WithLabelValues("api", "High")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.assessments.WithLabelValues("mcp", "Low")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.validationFailures.WithLabelValues("api")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.persistenceFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/api/v1/assessments", "201")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveAssessment("cli", domain.RISK_MODERATE, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `hf_risk_assessments_total{category="Moderate",source="cli"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveAssessment("api", domain.RISK_LOW, time.Millisecond)
		m.ValidationFailed("api")
		m.PersistenceFailed()
		m.ObserveHTTP("GET", "/health", 200, time.Millisecond)
	})
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
