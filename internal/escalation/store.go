package escalation

import (
	"context"
	"time"

	"custos/pkg/domain"
)

// Ticket is one case waiting for human review. Tickets are immutable; a
// resolution removes the ticket and leaves an audit event behind.
type Ticket struct {
	CaseID      domain.CaseID `json:"case_id"`
	Policy      string        `json:"policy"`
	SignalName  string        `json:"signal_name"`
	SignalValue float64       `json:"signal_value"`
	Level       Level         `json:"level"`
	Reason      string        `json:"reason"`
	EscalatedAt time.Time     `json:"escalated_at"`
}

// QueueStore holds pending escalations in FIFO order. Swap implementations
// (memory, Redis) without touching the service.
type QueueStore interface {
	Push(ctx context.Context, ticket Ticket) error
	Pending(ctx context.Context, limit int) ([]Ticket, error)
	// Resolve removes and returns the ticket for a case.
	// Errors: CodeNotFound when no ticket is pending for the case.
	Resolve(ctx context.Context, caseID domain.CaseID) (Ticket, error)
}
