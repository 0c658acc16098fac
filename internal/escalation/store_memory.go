package escalation

import (
	"context"
	"sync"

	"custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
)

// InMemoryQueue is the default queue store for local runs and tests.
type InMemoryQueue struct {
	mu      sync.Mutex
	order   []domain.CaseID
	tickets map[domain.CaseID]Ticket
}

func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{tickets: make(map[domain.CaseID]Ticket)}
}

func (q *InMemoryQueue) Push(_ context.Context, ticket Ticket) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, exists := q.tickets[ticket.CaseID]; exists {
		return dErrors.Newf(dErrors.CodeConflict, "case %s already escalated", ticket.CaseID)
	}
	q.tickets[ticket.CaseID] = ticket
	q.order = append(q.order, ticket.CaseID)
	return nil
}

func (q *InMemoryQueue) Pending(_ context.Context, limit int) ([]Ticket, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.order)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Ticket, 0, n)
	for _, caseID := range q.order[:n] {
		out = append(out, q.tickets[caseID])
	}
	return out, nil
}

func (q *InMemoryQueue) Resolve(_ context.Context, caseID domain.CaseID) (Ticket, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	ticket, ok := q.tickets[caseID]
	if !ok {
		return Ticket{}, dErrors.Newf(dErrors.CodeNotFound, "no pending escalation for case %s", caseID)
	}
	delete(q.tickets, caseID)
	for i, id := range q.order {
		if id == caseID {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
	return ticket, nil
}

// Depth returns the number of pending tickets.
func (q *InMemoryQueue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}
