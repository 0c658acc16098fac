package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custos/internal/forecast"
	"custos/pkg/requestcontext"
)

type fakeService struct {
	cycleResult forecast.CycleResult
	cycleErr    error
	approvedBy  string
	locationID  string

	driftReport forecast.DriftReport
	driftErrors []float64

	schedule forecast.RetrainingSchedule
	trigger  string
}

func (f *fakeService) Cycle(_ context.Context, locationID string, _ map[string]forecast.HistoricalData, _ map[string]int, approvedBy string) (forecast.CycleResult, error) {
	f.locationID = locationID
	f.approvedBy = approvedBy
	return f.cycleResult, f.cycleErr
}

func (f *fakeService) MonitorDrift(_ context.Context, recentErrors []float64) (forecast.DriftReport, error) {
	f.driftErrors = recentErrors
	return f.driftReport, nil
}

func (f *fakeService) ScheduleRetraining(_ context.Context, triggerReason string) forecast.RetrainingSchedule {
	f.trigger = triggerReason
	return f.schedule
}

func newRouter(svc *fakeService) chi.Router {
	h := New(svc, slog.Default())
	r := chi.NewRouter()
	h.Register(r)
	h.RegisterReview(r)
	return r
}

func TestHandleCycle(t *testing.T) {
	svc := &fakeService{
		cycleResult: forecast.CycleResult{LocationID: "DC-EAST"},
	}
	router := newRouter(svc)

	body := []byte(`{
		"location_id": "DC-EAST",
		"historical": {"SKU-1": {"avg_daily_demand": 20}},
		"inventory": {"SKU-1": 400}
	}`)
	req := httptest.NewRequest(http.MethodPost, "/forecast/cycle", bytes.NewReader(body))
	req = req.WithContext(requestcontext.WithActorID(req.Context(), "planner_sofia"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DC-EAST", svc.locationID)
	assert.Equal(t, "planner_sofia", svc.approvedBy, "authenticated actor approves escalated actions")

	var resp forecast.CycleResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "DC-EAST", resp.LocationID)
}

func TestHandleCycleValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing location", `{"inventory":{"SKU-1":10}}`},
		{"missing inventory", `{"location_id":"DC-EAST"}`},
		{"negative inventory", `{"location_id":"DC-EAST","inventory":{"SKU-1":-5}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(&fakeService{})
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/forecast/cycle", bytes.NewReader([]byte(tt.body))))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleDrift(t *testing.T) {
	svc := &fakeService{
		driftReport: forecast.DriftReport{DriftDetected: true, RecommendedAct: "trigger_retraining"},
	}
	router := newRouter(svc)

	body := []byte(`{"recent_errors":[0.18,0.2,0.22]}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/forecast/drift", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []float64{0.18, 0.2, 0.22}, svc.driftErrors)

	var resp forecast.DriftReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.DriftDetected)
}

func TestHandleDriftRejectsOutOfRangeRates(t *testing.T) {
	router := newRouter(&fakeService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/forecast/drift", bytes.NewReader([]byte(`{"recent_errors":[1.5]}`))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRetrain(t *testing.T) {
	svc := &fakeService{
		schedule: forecast.RetrainingSchedule{CurrentVersion: "1.0", NewVersion: "1.1"},
	}
	router := newRouter(svc)

	body := []byte(`{"trigger_reason":"drift_detected"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/forecast/retrain", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "drift_detected", svc.trigger)

	var resp forecast.RetrainingSchedule
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "1.1", resp.NewVersion)
}
