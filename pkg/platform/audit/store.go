package audit

import "context"

// Store persists audit events. Implementations live under store/: an
// in-memory store for local runs and tests, and a Postgres outbox store
// for durable, replicated delivery.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByCase(ctx context.Context, caseID string) ([]Event, error)
	// ListRecent returns the most recent events in chronological order.
	// A non-positive limit returns the store's default window.
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
