package handler

import (
	"time"

	"custos/internal/escalation"
)

// EvaluateResponse is the HTTP response for POST /escalation/evaluate.
type EvaluateResponse struct {
	CaseID         string `json:"case_id"`
	Policy         string `json:"policy"`
	Level          string `json:"level"`
	Severity       int    `json:"severity"`
	RequiresReview bool   `json:"requires_review"`
	Escalated      bool   `json:"escalated"`
}

// FromResult converts a domain evaluation result to an HTTP response.
func FromResult(caseID string, result escalation.Result) *EvaluateResponse {
	return &EvaluateResponse{
		CaseID:         caseID,
		Policy:         result.Policy,
		Level:          string(result.Level),
		Severity:       result.Severity,
		RequiresReview: result.RequiresReview,
		Escalated:      result.Escalated,
	}
}

// TicketResponse is one pending escalation.
type TicketResponse struct {
	CaseID      string    `json:"case_id"`
	Policy      string    `json:"policy"`
	SignalName  string    `json:"signal_name"`
	SignalValue float64   `json:"signal_value"`
	Level       string    `json:"level"`
	Reason      string    `json:"reason"`
	EscalatedAt time.Time `json:"escalated_at"`
}

// PendingResponse is the HTTP response for GET /escalation/pending.
type PendingResponse struct {
	Tickets []TicketResponse `json:"tickets"`
	Count   int              `json:"count"`
}

// FromTickets converts pending tickets to an HTTP response.
func FromTickets(tickets []escalation.Ticket) *PendingResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, fromTicket(t))
	}
	return &PendingResponse{Tickets: out, Count: len(out)}
}

// ResolveResponse is the HTTP response for POST /escalation/{case_id}/resolve.
type ResolveResponse struct {
	Ticket  TicketResponse `json:"ticket"`
	Verdict string         `json:"verdict"`
}

// FromResolution converts a resolved ticket to an HTTP response.
func FromResolution(ticket escalation.Ticket, approved bool) *ResolveResponse {
	verdict := "rejected"
	if approved {
		verdict = "approved"
	}
	return &ResolveResponse{Ticket: fromTicket(ticket), Verdict: verdict}
}

// AuditRecordResponse is one evaluation audit record.
type AuditRecordResponse struct {
	CaseID         string    `json:"case_id"`
	SignalName     string    `json:"signal_name"`
	SignalValue    float64   `json:"signal_value"`
	Level          string    `json:"level"`
	Severity       int       `json:"severity"`
	RequiresReview bool      `json:"requires_review"`
	At             time.Time `json:"at"`
}

// RecentResponse is the HTTP response for GET /audit/recent.
type RecentResponse struct {
	Policy  string                `json:"policy"`
	Records []AuditRecordResponse `json:"records"`
	Count   int                   `json:"count"`
}

// FromAuditRecords converts evaluator audit records to an HTTP response.
func FromAuditRecords(policy string, records []escalation.AuditRecord) *RecentResponse {
	out := make([]AuditRecordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, AuditRecordResponse{
			CaseID:         rec.CaseID.String(),
			SignalName:     rec.SignalName,
			SignalValue:    rec.SignalValue,
			Level:          string(rec.Level),
			Severity:       rec.Severity,
			RequiresReview: rec.RequiresReview,
			At:             rec.At,
		})
	}
	return &RecentResponse{Policy: policy, Records: out, Count: len(out)}
}

func fromTicket(t escalation.Ticket) TicketResponse {
	return TicketResponse{
		CaseID:      t.CaseID.String(),
		Policy:      t.Policy,
		SignalName:  t.SignalName,
		SignalValue: t.SignalValue,
		Level:       string(t.Level),
		Reason:      t.Reason,
		EscalatedAt: t.EscalatedAt,
	}
}
