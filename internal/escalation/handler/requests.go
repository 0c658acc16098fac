package handler

import (
	"strings"

	"custos/internal/escalation"
	"custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
)

// EvaluateRequest is the HTTP request body for POST /escalation/evaluate.
type EvaluateRequest struct {
	Policy string  `json:"policy"`
	CaseID string  `json:"case_id"`
	Signal string  `json:"signal"`
	Value  float64 `json:"value"`

	// Parsed values (populated by Validate)
	parsedCaseID domain.CaseID
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *EvaluateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Policy = strings.TrimSpace(r.Policy)
	if r.Policy == "" {
		return dErrors.New(dErrors.CodeValidation, "policy is required")
	}

	r.Signal = strings.TrimSpace(r.Signal)
	if r.Signal == "" {
		return dErrors.New(dErrors.CodeValidation, "signal is required")
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

// ParsedCaseID returns the validated case ID, minted when the client
// omitted one.
func (r *EvaluateRequest) ParsedCaseID() domain.CaseID {
	return r.parsedCaseID
}

// ToSignal converts the request into a domain signal.
func (r *EvaluateRequest) ToSignal() escalation.Signal {
	return escalation.Signal{
		CaseID: r.parsedCaseID,
		Name:   r.Signal,
		Value:  r.Value,
	}
}

// ResolveRequest is the HTTP request body for POST /escalation/{case_id}/resolve.
type ResolveRequest struct {
	Approved *bool `json:"approved"`
}

// Validate validates the request.
func (r *ResolveRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Approved == nil {
		return dErrors.New(dErrors.CodeValidation, "approved is required")
	}
	return nil
}
