package handler

import (
	"strings"

	"custos/internal/operations"
	"custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
)

var validInputTypes = map[operations.InputType]bool{
	operations.InputProcurementRequest: true,
	operations.InputInvoice:            true,
	operations.InputComplianceCheck:    true,
	operations.InputAllocation:         true,
}

// ProcessRequest is the HTTP request body for POST /operations/process.
type ProcessRequest struct {
	CaseID   string          `json:"case_id"`
	Type     string          `json:"type"`
	EntityID string          `json:"entity_id"`
	Amount   float64         `json:"amount"`
	VendorID string          `json:"vendor_id"`
	Priority int             `json:"priority"`
	Metadata MetadataRequest `json:"metadata"`

	parsedCaseID domain.CaseID
}

// MetadataRequest carries the optional per-type fields.
type MetadataRequest struct {
	VendorRating      float64 `json:"vendor_rating"`
	POInvoiceVariance float64 `json:"po_invoice_variance"`
	IsDuplicate       bool    `json:"is_duplicate"`
	EstimatedHours    float64 `json:"estimated_hours"`
}

// Validate validates and parses the request.
func (r *ProcessRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Type = strings.TrimSpace(r.Type)
	if r.Type == "" {
		return dErrors.New(dErrors.CodeValidation, "type is required")
	}
	if !validInputTypes[operations.InputType(r.Type)] {
		return dErrors.Newf(dErrors.CodeValidation, "unknown input type %q", r.Type)
	}

	r.EntityID = strings.TrimSpace(r.EntityID)
	if r.EntityID == "" {
		return dErrors.New(dErrors.CodeValidation, "entity_id is required")
	}

	if r.Amount < 0 {
		return dErrors.New(dErrors.CodeValidation, "amount must be non-negative")
	}
	if r.Priority < operations.PriorityCritical || r.Priority > operations.PriorityLow {
		return dErrors.New(dErrors.CodeValidation, "priority must be between 1 and 4")
	}

	r.CaseID = strings.TrimSpace(r.CaseID)
	if r.CaseID == "" {
		r.parsedCaseID = domain.NewCaseID()
		return nil
	}
	caseID, err := domain.ParseCaseID(r.CaseID)
	if err != nil {
		return err
	}
	r.parsedCaseID = caseID
	return nil
}

// ToInput converts the request into a domain input.
func (r *ProcessRequest) ToInput() operations.Input {
	return operations.Input{
		CaseID:   r.parsedCaseID,
		Type:     operations.InputType(r.Type),
		EntityID: r.EntityID,
		Amount:   r.Amount,
		VendorID: r.VendorID,
		Priority: r.Priority,
		Metadata: operations.Metadata{
			VendorRating:      r.Metadata.VendorRating,
			POInvoiceVariance: r.Metadata.POInvoiceVariance,
			IsDuplicate:       r.Metadata.IsDuplicate,
			EstimatedHours:    r.Metadata.EstimatedHours,
		},
	}
}
