// Package worker provides channel-fed audit persistence for callers that
// must not block on the store, such as request-path security events.
package worker

import (
	"context"
	"time"

	audit "custos/pkg/platform/audit"
)

// Worker consumes audit events from a channel and persists them. It keeps
// background processing testable without wiring queue implementations.
type Worker struct {
	store audit.Store
	inbox <-chan audit.Event
	now   func() time.Time
}

// Option configures a Worker.
type Option func(*Worker)

// WithClock overrides the timestamp source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(w *Worker) { w.now = now }
}

func NewWorker(store audit.Store, inbox <-chan audit.Event, opts ...Option) *Worker {
	w := &Worker{store: store, inbox: inbox, now: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run drains the inbox until the context ends. Events are stamped the same
// way the synchronous publisher stamps them, so the trail stays uniform
// regardless of which path an event took.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if event.Timestamp.IsZero() {
				event.Timestamp = w.now()
			}
			event.Category = audit.Action(event.Action).Category()
			if err := w.store.Append(ctx, event); err != nil {
				return err
			}
		}
	}
}
