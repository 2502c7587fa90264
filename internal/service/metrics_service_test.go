package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/performance/rollup", http.StatusOK, 20*time.Millisecond)
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/performance/rollup", http.StatusOK, 40*time.Millisecond)
	m.ObserveDBQuery("records_by_class", 10*time.Millisecond)
	m.RecordClassification("APPROVED")
	m.RecordClassification("APPROVED")
	m.RecordClassification("FAILED")
	m.RecordDocumentIssued("BOLETIM")

	snapshot := m.Snapshot()
	assert.Equal(t, uint64(2), snapshot.RequestsTotal)
	assert.InDelta(t, 30.0, snapshot.AverageRequestDurationMs, 0.001)
	assert.Equal(t, uint64(1), snapshot.DBQueryCount)
	assert.Equal(t, map[string]uint64{"APPROVED": 2, "FAILED": 1}, snapshot.Classifications)
	assert.Equal(t, uint64(1), snapshot.DocumentsIssued)
	assert.Positive(t, snapshot.Goroutines)
}

func TestMetricsServiceHandlerExposesCollectors(t *testing.T) {
	m := NewMetricsService()
	m.RecordClassification("RECOVERY")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `school_manager_classifications_total{status="RECOVERY"} 1`)
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveDBQuery("x", time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	assert.Empty(t, m.Snapshot().Classifications)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
