package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"custos/internal/escalation"
	"custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/platform/httputil"
	"custos/pkg/requestcontext"
)

// Service defines the interface for escalation operations.
type Service interface {
	Evaluate(ctx context.Context, policyName string, sig escalation.Signal) (escalation.Result, error)
	Pending(ctx context.Context, limit int) ([]escalation.Ticket, error)
	Resolve(ctx context.Context, caseID domain.CaseID, approved bool, approver string) (escalation.Ticket, error)
	Recent(policyName string, limit int) ([]escalation.AuditRecord, error)
}

// Handler wires escalation endpoints to the escalation service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an escalation handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public evaluation endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/escalation/evaluate", h.HandleEvaluate)
}

// RegisterReview mounts reviewer endpoints; the router guards these with
// authentication middleware.
func (h *Handler) RegisterReview(r chi.Router) {
	r.Get("/escalation/pending", h.HandlePending)
	r.Post("/escalation/{case_id}/resolve", h.HandleResolve)
	r.Get("/audit/recent", h.HandleRecent)
}

// HandleEvaluate handles POST /escalation/evaluate requests.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[EvaluateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Evaluate(ctx, req.Policy, req.ToSignal())
	if err != nil {
		h.logger.ErrorContext(ctx, "evaluation failed",
			"request_id", requestID,
			"policy", req.Policy,
			"signal", req.Signal,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "signal evaluated",
		"request_id", requestID,
		"case_id", req.ParsedCaseID(),
		"policy", req.Policy,
		"level", result.Level,
		"escalated", result.Escalated,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, FromResult(req.ParsedCaseID().String(), result))
}

// HandlePending handles GET /escalation/pending requests.
func (h *Handler) HandlePending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	tickets, err := h.service.Pending(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "pending lookup failed", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromTickets(tickets))
}

// HandleResolve handles POST /escalation/{case_id}/resolve requests.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caseID, err := domain.ParseCaseID(chi.URLParam(r, "case_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	actorID := requestcontext.ActorID(ctx)
	if actorID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[ResolveRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	ticket, err := h.service.Resolve(ctx, caseID, *req.Approved, actorID)
	if err != nil {
		h.logger.ErrorContext(ctx, "resolution failed",
			"request_id", requestID,
			"case_id", caseID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromResolution(ticket, *req.Approved))
}

// HandleRecent handles GET /audit/recent requests. Records come back in
// evaluation order for the named policy.
func (h *Handler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	policyName := r.URL.Query().Get("policy")
	if policyName == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "policy query parameter is required"))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	records, err := h.service.Recent(policyName, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit lookup failed",
			"request_id", requestID,
			"policy", policyName,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromAuditRecords(policyName, records))
}
