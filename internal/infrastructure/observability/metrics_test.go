package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourdesk/internal/core/apperror"
)

func TestObserveReport(t *testing.T) {
	m := NewMetrics()

	m.ObserveReport("overall", 20*time.Millisecond, nil)
	m.ObserveReport("hotel", 5*time.Millisecond, apperror.NewNotFound("hotel", 1))
	m.ObserveReport("hotel", 5*time.Millisecond, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.reportFailures.WithLabelValues("hotel", apperror.CodeNotFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reportFailures.WithLabelValues("hotel", apperror.CodeInternal)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.reportFailures.WithLabelValues("overall", apperror.CodeInternal)))
}

func TestObserveRequest(t *testing.T) {
	m := NewMetrics()
	m.ObserveRequest("/api/v1/hotels/:id/financial-summary", http.MethodGet, "200", time.Millisecond)
	m.ObserveRequest("/api/v1/hotels/:id/financial-summary", http.MethodGet, "200", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("/api/v1/hotels/:id/financial-summary", http.MethodGet, "200")))
}

func TestObserveCacheLookup(t *testing.T) {
	m := NewMetrics()
	m.ObserveCacheLookup("hit")
	m.ObserveCacheLookup("hit")
	m.ObserveCacheLookup("miss")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
}

func TestHandlerServesRegistry(t *testing.T) {
	m := NewMetrics()
	m.ObserveReport("overall", time.Millisecond, nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tourdesk_report_duration_seconds")
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveReport("overall", time.Millisecond, nil)
	m.ObserveRequest("/", http.MethodGet, "200", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
