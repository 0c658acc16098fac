package handler

import (
	"strings"

	"custos/internal/forecast"
	dErrors "custos/pkg/domain-errors"
)

// CycleRequest is the HTTP request body for POST /forecast/cycle.
type CycleRequest struct {
	LocationID string                             `json:"location_id"`
	Historical map[string]forecast.HistoricalData `json:"historical"`
	Inventory  map[string]int                     `json:"inventory"`
}

// Validate validates the request.
func (r *CycleRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.LocationID = strings.TrimSpace(r.LocationID)
	if r.LocationID == "" {
		return dErrors.New(dErrors.CodeValidation, "location_id is required")
	}
	if len(r.Inventory) == 0 {
		return dErrors.New(dErrors.CodeValidation, "inventory is required")
	}
	for product, qty := range r.Inventory {
		if qty < 0 {
			return dErrors.Newf(dErrors.CodeValidation, "inventory for %s must be non-negative", product)
		}
	}
	return nil
}

// DriftRequest is the HTTP request body for POST /forecast/drift.
type DriftRequest struct {
	RecentErrors []float64 `json:"recent_errors"`
}

// Validate validates the request.
func (r *DriftRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	for _, e := range r.RecentErrors {
		if e < 0 || e > 1 {
			return dErrors.New(dErrors.CodeValidation, "recent_errors must be rates between 0 and 1")
		}
	}
	return nil
}

// RetrainRequest is the HTTP request body for POST /forecast/retrain.
type RetrainRequest struct {
	TriggerReason string `json:"trigger_reason"`
}

// Validate validates the request.
func (r *RetrainRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.TriggerReason = strings.TrimSpace(r.TriggerReason)
	return nil
}
