package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/luckydraw-admin-api/internal/models"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/history", http.StatusOK, 20*time.Millisecond)
	m.ObserveDBQuery("history.list", 10*time.Millisecond)

	snap := m.Snapshot()

	assert.InDelta(t, 2.0/3.0, snap.CacheHitRatio, 0.0001)
	assert.Equal(t, uint64(1), snap.RequestsTotal)
	assert.InDelta(t, 20, snap.AverageRequestDurationMs, 0.001)
	assert.Equal(t, uint64(1), snap.DBQueryCount)
}

func TestMetricsServiceExposesDomainCounters(t *testing.T) {
	m := NewMetricsService()
	m.RecordHistoryView("winners")
	m.RecordStaleFetch()
	m.RecordBulkDelete(3, 1)
	m.RecordImportRows(5, 2)
	m.RecordExportJob(models.ExportFormatCSV, models.ExportStatusFinished)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `history_views_total{tab="winners"} 1`)
	assert.Contains(t, body, `history_stale_fetches_total 1`)
	assert.Contains(t, body, `customer_bulk_delete_items_total{outcome="failed"} 1`)
	assert.Contains(t, body, `customer_import_rows_total{outcome="created"} 5`)
	assert.Contains(t, body, `history_export_jobs_total{format="csv",status="FINISHED"} 1`)
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.RecordHistoryView("participants")
	m.RecordBulkDelete(1, 0)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, models.SystemMetrics{}, m.Snapshot())
}
