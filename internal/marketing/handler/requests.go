package handler

import (
	"strings"

	"custos/internal/marketing"
	dErrors "custos/pkg/domain-errors"
)

// SegmentRequest is the HTTP request body for POST /marketing/segments.
type SegmentRequest struct {
	CustomerCount int `json:"customer_count"`
}

// Validate validates the request.
func (r *SegmentRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.CustomerCount <= 0 {
		return dErrors.New(dErrors.CodeValidation, "customer_count must be positive")
	}
	return nil
}

// PersonalizeRequest is the HTTP request body for POST /marketing/personalize.
type PersonalizeRequest struct {
	SegmentID       string `json:"segment_id"`
	SegmentType     string `json:"segment_type"`
	ProductName     string `json:"product_name"`
	DiscountPercent int    `json:"discount_percent"`
}

// Validate validates the request.
func (r *PersonalizeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.SegmentID = strings.TrimSpace(r.SegmentID)
	if r.SegmentID == "" {
		return dErrors.New(dErrors.CodeValidation, "segment_id is required")
	}
	r.SegmentType = strings.TrimSpace(r.SegmentType)
	switch marketing.SegmentType(r.SegmentType) {
	case marketing.SegmentBehavioral, marketing.SegmentValue, marketing.SegmentLifecycle:
	default:
		return dErrors.Newf(dErrors.CodeValidation, "unknown segment_type %q", r.SegmentType)
	}
	r.ProductName = strings.TrimSpace(r.ProductName)
	if r.ProductName == "" {
		return dErrors.New(dErrors.CodeValidation, "product_name is required")
	}
	if r.DiscountPercent < 0 || r.DiscountPercent > 100 {
		return dErrors.New(dErrors.CodeValidation, "discount_percent must be between 0 and 100")
	}
	return nil
}

// ToSegment builds the segment shell personalization keys on.
func (r *PersonalizeRequest) ToSegment() marketing.Segment {
	return marketing.Segment{ID: r.SegmentID, Type: marketing.SegmentType(r.SegmentType)}
}

// BudgetRequest is the HTTP request body for POST /marketing/budget.
type BudgetRequest struct {
	CampaignID  string  `json:"campaign_id"`
	TotalBudget float64 `json:"total_budget"`
}

// Validate validates the request.
func (r *BudgetRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.CampaignID = strings.TrimSpace(r.CampaignID)
	if r.CampaignID == "" {
		return dErrors.New(dErrors.CodeValidation, "campaign_id is required")
	}
	if r.TotalBudget <= 0 {
		return dErrors.New(dErrors.CodeValidation, "total_budget must be positive")
	}
	return nil
}

// FairnessRequest is the HTTP request body for POST /marketing/fairness.
type FairnessRequest struct {
	RatesBySegment map[string]float64 `json:"conversion_rates_by_segment"`
}

// Validate validates the request.
func (r *FairnessRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.RatesBySegment) < 2 {
		return dErrors.New(dErrors.CodeValidation, "at least two segment conversion rates are required")
	}
	return nil
}

// InsightRequest is the HTTP request body for POST /marketing/insight.
type InsightRequest struct {
	CampaignID string  `json:"campaign_id"`
	SegmentID  string  `json:"segment_id"`
	Current    float64 `json:"conversion_rate"`
	Expected   float64 `json:"expected_conversion_rate"`
}

// Validate validates the request.
func (r *InsightRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.CampaignID = strings.TrimSpace(r.CampaignID)
	if r.CampaignID == "" {
		return dErrors.New(dErrors.CodeValidation, "campaign_id is required")
	}
	r.SegmentID = strings.TrimSpace(r.SegmentID)
	if r.SegmentID == "" {
		return dErrors.New(dErrors.CodeValidation, "segment_id is required")
	}
	if r.Current < 0 || r.Expected < 0 {
		return dErrors.New(dErrors.CodeValidation, "conversion rates must be non-negative")
	}
	return nil
}
