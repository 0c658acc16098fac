package handler

import (
	dErrors "custos/pkg/domain-errors"
)

// ReadinessRequest is the HTTP request body for POST /governance/readiness.
type ReadinessRequest struct {
	DimensionScores map[string]float64 `json:"dimension_scores"`
}

// Validate validates the request.
func (r *ReadinessRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.DimensionScores) == 0 {
		return dErrors.New(dErrors.CodeValidation, "dimension_scores is required")
	}
	return nil
}

// PilotRequest is the HTTP request body for POST /governance/pilot.
type PilotRequest struct {
	Metrics map[string]float64 `json:"metrics"`
}

// Validate validates the request.
func (r *PilotRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Metrics) == 0 {
		return dErrors.New(dErrors.CodeValidation, "metrics is required")
	}
	return nil
}
