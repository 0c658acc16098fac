package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"custos/internal/marketing"
	"custos/pkg/platform/httputil"
	"custos/pkg/requestcontext"
)

// Service defines the interface for marketing orchestration.
type Service interface {
	SegmentCustomers(customerCount int) map[string]marketing.Segment
	CheckSegment(segment marketing.Segment) marketing.FairnessCheck
	PersonalizeContent(segment marketing.Segment, productName string, discountPercent int) marketing.Content
	AllocateBudget(ctx context.Context, campaignID string, totalBudget float64) (marketing.BudgetAllocation, error)
	CheckFairness(ctx context.Context, ratesBySegment map[string]float64) (marketing.DisparityReport, error)
	PerformanceInsight(campaignID, segmentID string, current, expected float64) marketing.Insight
}

// Handler wires marketing endpoints to the marketing service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a marketing handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts marketing endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/marketing/segments", h.HandleSegments)
	r.Post("/marketing/personalize", h.HandlePersonalize)
	r.Post("/marketing/budget", h.HandleBudget)
	r.Post("/marketing/fairness", h.HandleFairness)
	r.Post("/marketing/insight", h.HandleInsight)
}

// HandleSegments handles POST /marketing/segments requests. Every segment
// returns with its fairness check attached.
func (h *Handler) HandleSegments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SegmentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	segments := h.service.SegmentCustomers(req.CustomerCount)
	checks := make(map[string]marketing.FairnessCheck, len(segments))
	for key, segment := range segments {
		checks[key] = h.service.CheckSegment(segment)
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"segments":        segments,
		"fairness_checks": checks,
	})
}

// HandlePersonalize handles POST /marketing/personalize requests.
func (h *Handler) HandlePersonalize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[PersonalizeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	content := h.service.PersonalizeContent(req.ToSegment(), req.ProductName, req.DiscountPercent)
	httputil.WriteJSON(w, http.StatusOK, content)
}

// HandleBudget handles POST /marketing/budget requests.
func (h *Handler) HandleBudget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[BudgetRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	allocation, err := h.service.AllocateBudget(ctx, req.CampaignID, req.TotalBudget)
	if err != nil {
		h.logger.ErrorContext(ctx, "budget allocation failed",
			"request_id", requestID,
			"campaign_id", req.CampaignID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, allocation)
}

// HandleFairness handles POST /marketing/fairness requests.
func (h *Handler) HandleFairness(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[FairnessRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	report, err := h.service.CheckFairness(ctx, req.RatesBySegment)
	if err != nil {
		h.logger.ErrorContext(ctx, "fairness check failed", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, report)
}

// HandleInsight handles POST /marketing/insight requests.
func (h *Handler) HandleInsight(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[InsightRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	insight := h.service.PerformanceInsight(req.CampaignID, req.SegmentID, req.Current, req.Expected)
	httputil.WriteJSON(w, http.StatusOK, insight)
}
