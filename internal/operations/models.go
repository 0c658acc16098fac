// Package operations automates back-office task intake: classification,
// business-rule validation, resource allocation, and governed execution.
// Every amount-bearing decision routes through the composite risk policy
// so human authority is preserved for exceptions.
package operations

import (
	"time"

	"custos/pkg/domain"
)

// InputType identifies the kind of operational task being processed.
type InputType string

const (
	InputProcurementRequest InputType = "procurement_request"
	InputInvoice            InputType = "invoice"
	InputComplianceCheck    InputType = "compliance_check"
	InputAllocation         InputType = "allocation"
)

// Priority levels. Lower is more urgent.
const (
	PriorityCritical = 1
	PriorityHigh     = 2
	PriorityNormal   = 3
	PriorityLow      = 4
)

// Input is the standardized envelope for any operational task.
type Input struct {
	CaseID   domain.CaseID
	Type     InputType
	EntityID string
	Amount   float64
	VendorID string
	Priority int
	Metadata Metadata
}

// Metadata carries the optional per-type fields rule validation reads.
type Metadata struct {
	VendorRating      float64
	POInvoiceVariance float64
	IsDuplicate       bool
	EstimatedHours    float64
}

// Pathway is the processing route chosen during classification.
type Pathway string

const (
	PathwayProcurement        Pathway = "procurement_validation_routing"
	PathwayThreeWayMatch      Pathway = "three_way_match_and_payment"
	PathwayRegulatory         Pathway = "regulatory_assessment"
	PathwayResourceOptimizing Pathway = "resource_optimization"
	PathwayDefault            Pathway = "default_processing"
)

// Classification is the categorization of one input.
type Classification struct {
	CaseID         domain.CaseID
	Pathway        Pathway
	UrgencyScore   float64
	EstimatedHours float64
	Confidence     float64
	Reasoning      string
}

// RuleCheck is the outcome of business-rule validation, routed through the
// composite risk policy.
type RuleCheck struct {
	CaseID         domain.CaseID
	Level          string
	Violations     []string
	RiskScore      float64
	RequiresReview bool
}

// Allocation assigns a task to a team member with a priority-driven deadline.
type Allocation struct {
	CaseID     domain.CaseID
	Team       string
	AssignedTo string
	Hours      float64
	Deadline   time.Time
	Priority   int
	Available  bool
	Confidence float64
}

// ExecutionStatus is the terminal state of one processing run.
type ExecutionStatus string

const (
	StatusExecuting ExecutionStatus = "executing"
	StatusEscalated ExecutionStatus = "escalated"
)

// Execution is the full record of one processed input.
type Execution struct {
	CaseID             domain.CaseID
	Status             ExecutionStatus
	Classification     Classification
	RuleCheck          RuleCheck
	Allocation         Allocation
	ExecutedBy         string
	StartedAt          time.Time
	ExpectedCompletion time.Time
}

// ExceptionsReport summarizes workflow anomalies for the current cycle.
type ExceptionsReport struct {
	TotalProcessed  int      `json:"total_processed"`
	Escalated       int      `json:"escalated"`
	EscalationRate  float64  `json:"escalation_rate"`
	AvgHours        float64  `json:"average_processing_hours"`
	Anomalies       []string `json:"anomalies"`
	Recommendations []string `json:"recommendations"`
}

// Metric is one quantitative performance indicator.
type Metric struct {
	Name     string  `json:"name"`
	Current  float64 `json:"current"`
	Target   float64 `json:"target"`
	Baseline float64 `json:"baseline"`
	Trend    string  `json:"trend"`
}
