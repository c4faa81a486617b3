package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceCounters(t *testing.T) {
	m := NewMetricsService()

	m.RecordCohortDeletion(deleteOutcomeDeleted)
	m.RecordCohortDeletion(deleteOutcomeDeleted)
	m.RecordCohortDeletion(deleteOutcomeSkipped)
	m.RecordRejectedConfirmation("expired")
	m.RecordExport("csv")
	m.ObserveDBQuery("cohort_list", 5*time.Millisecond)
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/cohorts", http.StatusOK, 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cohortDeletions.WithLabelValues(deleteOutcomeDeleted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cohortDeletions.WithLabelValues(deleteOutcomeSkipped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.confirmRejections.WithLabelValues("expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.exports.WithLabelValues("csv")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestTotal.WithLabelValues(http.MethodGet, "/api/v1/cohorts", "200")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cohort_deletions_total")
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.RecordCohortDeletion(deleteOutcomeFailed)
		m.RecordRejectedConfirmation("reused")
		m.ObserveDBQuery("cohort_list", time.Millisecond)
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Nil(t, m.Registry())
}
