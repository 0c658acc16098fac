package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"custos/internal/operations"
	"custos/pkg/platform/httputil"
	"custos/pkg/requestcontext"
)

// Service defines the interface for operations workflow handling.
type Service interface {
	Process(ctx context.Context, input operations.Input, approver string) (operations.Execution, error)
	MonitorExceptions() operations.ExceptionsReport
	PerformanceIndicators() []operations.Metric
}

// Handler wires operations endpoints to the operations service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an operations handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts operations endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/operations/process", h.HandleProcess)
	r.Get("/operations/exceptions", h.HandleExceptions)
	r.Get("/operations/indicators", h.HandleIndicators)
}

// HandleProcess handles POST /operations/process requests. An authenticated
// actor counts as the approver for tasks requiring review.
func (h *Handler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[ProcessRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	exec, err := h.service.Process(ctx, req.ToInput(), requestcontext.ActorID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "task processing failed",
			"request_id", requestID,
			"type", req.Type,
			"entity_id", req.EntityID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "task processed",
		"request_id", requestID,
		"case_id", exec.CaseID,
		"status", exec.Status,
		"pathway", exec.Classification.Pathway,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, FromExecution(exec))
}

// HandleExceptions handles GET /operations/exceptions requests.
func (h *Handler) HandleExceptions(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.service.MonitorExceptions())
}

// HandleIndicators handles GET /operations/indicators requests.
func (h *Handler) HandleIndicators(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"metrics": h.service.PerformanceIndicators(),
	})
}
