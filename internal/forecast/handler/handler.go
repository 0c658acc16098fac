package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"custos/internal/forecast"
	"custos/pkg/platform/httputil"
	"custos/pkg/requestcontext"
)

// Service defines the interface for forecast cycle operations.
type Service interface {
	Cycle(ctx context.Context, locationID string, historical map[string]forecast.HistoricalData, inventory map[string]int, approvedBy string) (forecast.CycleResult, error)
	MonitorDrift(ctx context.Context, recentErrors []float64) (forecast.DriftReport, error)
	ScheduleRetraining(ctx context.Context, triggerReason string) forecast.RetrainingSchedule
}

// Handler wires forecast endpoints to the forecast service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a forecast handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts forecast endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/forecast/cycle", h.HandleCycle)
	r.Post("/forecast/drift", h.HandleDrift)
}

// RegisterReview mounts the lifecycle endpoint; retraining needs an
// authenticated actor.
func (h *Handler) RegisterReview(r chi.Router) {
	r.Post("/forecast/retrain", h.HandleRetrain)
}

// HandleCycle handles POST /forecast/cycle requests. An authenticated
// actor counts as the approving planner for escalated actions.
func (h *Handler) HandleCycle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[CycleRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Cycle(ctx, req.LocationID, req.Historical, req.Inventory, requestcontext.ActorID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "planning cycle failed",
			"request_id", requestID,
			"location_id", req.LocationID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "planning cycle completed",
		"request_id", requestID,
		"location_id", req.LocationID,
		"forecasts", len(result.Forecasts),
		"executed", len(result.Executed),
		"escalated", len(result.Escalations),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleDrift handles POST /forecast/drift requests.
func (h *Handler) HandleDrift(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[DriftRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	report, err := h.service.MonitorDrift(ctx, req.RecentErrors)
	if err != nil {
		h.logger.ErrorContext(ctx, "drift check failed", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, report)
}

// HandleRetrain handles POST /forecast/retrain requests.
func (h *Handler) HandleRetrain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RetrainRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	schedule := h.service.ScheduleRetraining(ctx, req.TriggerReason)

	h.logger.InfoContext(ctx, "retraining scheduled",
		"request_id", requestID,
		"from_version", schedule.CurrentVersion,
		"to_version", schedule.NewVersion,
		"trigger", schedule.TriggerReason,
	)

	httputil.WriteJSON(w, http.StatusOK, schedule)
}
