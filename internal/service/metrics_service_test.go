package service

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/pda-bills-api/internal/models"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	metrics := NewMetricsService()

	metrics.ObserveHTTPRequest(http.MethodGet, "/api/v1/bills", http.StatusOK, 20*time.Millisecond)
	metrics.ObserveHTTPRequest(http.MethodPost, "/api/v1/bills", http.StatusCreated, 40*time.Millisecond)
	metrics.RecordSubmission(models.CategoryMinor, nil)
	metrics.RecordSubmission(models.CategoryMinor, errors.New("insufficient"))
	metrics.RecordTransition(models.StageSNP, models.ActionApprove, nil)
	metrics.RecordNotification("log", errors.New("down"))
	metrics.RecordArtifact(models.ArtifactPDF, nil)
	metrics.RecordBalanceAdjustment(models.BalanceReasonBillEdit)

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(2), snapshot.RequestsTotal)
	assert.InDelta(t, 30, snapshot.AverageRequestDurationMs, 0.001)
	assert.Equal(t, uint64(1), snapshot.BillsSubmitted)
	assert.Equal(t, uint64(1), snapshot.Transitions)
	assert.Equal(t, uint64(1), snapshot.NotificationsFailed)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `bill_submissions_total{category="Minor",result="error"} 1`)
	assert.Contains(t, rec.Body.String(), "bill_transitions_total")
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var metrics *MetricsService
	assert.NotPanics(t, func() {
		metrics.RecordSubmission(models.CategoryMajor, nil)
		metrics.RecordTransition(models.StageAudit, models.ActionHold, nil)
		metrics.RecordNotification("log", nil)
		metrics.RecordArtifact(models.ArtifactHTML, nil)
		metrics.RecordBalanceAdjustment(models.BalanceReasonProvision)
		_ = metrics.Snapshot()
	})
}
