package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"custos/internal/governance"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/platform/httputil"
	"custos/pkg/requestcontext"
)

// Service defines the interface for governance operations.
type Service interface {
	AssessReadiness(ctx context.Context, dimensionScores map[string]float64) (governance.ReadinessAssessment, error)
	SuccessCriteria() []governance.Criterion
	ValidatePilot(ctx context.Context, actual map[string]float64) governance.PilotValidation
	ComplianceAudit(ctx context.Context, periodDays int) (governance.AuditReport, error)
}

// Handler wires governance endpoints to the governance service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a governance handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts public governance endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/governance/readiness", h.HandleReadiness)
	r.Get("/governance/criteria", h.HandleCriteria)
	r.Post("/governance/pilot", h.HandlePilot)
}

// RegisterReview mounts the compliance audit endpoint; the router guards
// it with authentication middleware.
func (h *Handler) RegisterReview(r chi.Router) {
	r.Get("/governance/audit", h.HandleAudit)
}

// HandleReadiness handles POST /governance/readiness requests.
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ReadinessRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	assessment, err := h.service.AssessReadiness(ctx, req.DimensionScores)
	if err != nil {
		h.logger.ErrorContext(ctx, "readiness assessment failed", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, assessment)
}

// HandleCriteria handles GET /governance/criteria requests.
func (h *Handler) HandleCriteria(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"criteria": h.service.SuccessCriteria(),
	})
}

// HandlePilot handles POST /governance/pilot requests.
func (h *Handler) HandlePilot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[PilotRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	httputil.WriteJSON(w, http.StatusOK, h.service.ValidatePilot(ctx, req.Metrics))
}

// HandleAudit handles GET /governance/audit requests.
func (h *Handler) HandleAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	periodDays := 30
	if raw := r.URL.Query().Get("period_days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "period_days must be a positive integer"))
			return
		}
		periodDays = n
	}

	report, err := h.service.ComplianceAudit(ctx, periodDays)
	if err != nil {
		h.logger.ErrorContext(ctx, "compliance audit failed", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, report)
}
