package handler

import (
	"time"

	"custos/internal/operations"
)

// ProcessResponse is the HTTP response for POST /operations/process.
type ProcessResponse struct {
	CaseID             string                 `json:"case_id"`
	Status             string                 `json:"status"`
	Classification     ClassificationResponse `json:"classification"`
	RuleCheck          RuleCheckResponse      `json:"rule_check"`
	Allocation         AllocationResponse     `json:"allocation"`
	ExecutedBy         string                 `json:"executed_by,omitempty"`
	ExpectedCompletion *time.Time             `json:"expected_completion,omitempty"`
}

// ClassificationResponse is the classification portion of the response.
type ClassificationResponse struct {
	Pathway        string  `json:"pathway"`
	UrgencyScore   float64 `json:"urgency_score"`
	EstimatedHours float64 `json:"estimated_hours"`
	Confidence     float64 `json:"confidence"`
	Reasoning      string  `json:"reasoning"`
}

// RuleCheckResponse is the rule validation portion of the response.
type RuleCheckResponse struct {
	Level          string   `json:"level"`
	Violations     []string `json:"violations"`
	RiskScore      float64  `json:"risk_score"`
	RequiresReview bool     `json:"requires_review"`
}

// AllocationResponse is the resource allocation portion of the response.
type AllocationResponse struct {
	Team       string    `json:"team"`
	AssignedTo string    `json:"assigned_to"`
	Hours      float64   `json:"hours"`
	Deadline   time.Time `json:"deadline"`
	Available  bool      `json:"available"`
	Confidence float64   `json:"confidence"`
}

// FromExecution converts a domain execution to an HTTP response.
func FromExecution(exec operations.Execution) *ProcessResponse {
	resp := &ProcessResponse{
		CaseID: exec.CaseID.String(),
		Status: string(exec.Status),
		Classification: ClassificationResponse{
			Pathway:        string(exec.Classification.Pathway),
			UrgencyScore:   exec.Classification.UrgencyScore,
			EstimatedHours: exec.Classification.EstimatedHours,
			Confidence:     exec.Classification.Confidence,
			Reasoning:      exec.Classification.Reasoning,
		},
		RuleCheck: RuleCheckResponse{
			Level:          exec.RuleCheck.Level,
			Violations:     exec.RuleCheck.Violations,
			RiskScore:      exec.RuleCheck.RiskScore,
			RequiresReview: exec.RuleCheck.RequiresReview,
		},
		Allocation: AllocationResponse{
			Team:       exec.Allocation.Team,
			AssignedTo: exec.Allocation.AssignedTo,
			Hours:      exec.Allocation.Hours,
			Deadline:   exec.Allocation.Deadline,
			Available:  exec.Allocation.Available,
			Confidence: exec.Allocation.Confidence,
		},
		ExecutedBy: exec.ExecutedBy,
	}
	if exec.Status == operations.StatusExecuting {
		t := exec.ExpectedCompletion
		resp.ExpectedCompletion = &t
	}
	return resp
}
