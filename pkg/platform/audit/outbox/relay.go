// Package outbox relays audit events from the PostgreSQL outbox table to
// Kafka. The relay is the only writer of published_at, so running a single
// instance preserves per-case ordering.
package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"custos/pkg/platform/audit"
	pgstore "custos/pkg/platform/audit/store/postgres"
)

// Producer publishes one message to a topic. Satisfied by the Kafka
// platform client; tests supply fakes.
type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// Topics maps event categories to Kafka topics.
type Topics struct {
	Compliance string
	Security   string
	Operations string
}

// DefaultTopics returns the topic layout under the given prefix.
func DefaultTopics(prefix string) Topics {
	return Topics{
		Compliance: prefix + ".audit.compliance",
		Security:   prefix + ".audit.security",
		Operations: prefix + ".audit.operations",
	}
}

// Names lists all topics, for creation at startup.
func (t Topics) Names() []string {
	return []string{t.Compliance, t.Security, t.Operations}
}

func (t Topics) forCategory(category string) string {
	switch audit.EventCategory(category) {
	case audit.CategoryCompliance:
		return t.Compliance
	case audit.CategorySecurity:
		return t.Security
	default:
		return t.Operations
	}
}

// Relay polls the outbox and publishes unsent entries.
type Relay struct {
	store    *pgstore.Store
	producer Producer
	topics   Topics
	logger   *slog.Logger
	interval time.Duration
	batch    int
}

// NewRelay builds a relay with the given poll interval and batch size.
func NewRelay(store *pgstore.Store, producer Producer, topics Topics, logger *slog.Logger) *Relay {
	return &Relay{
		store:    store,
		producer: producer,
		topics:   topics,
		logger:   logger,
		interval: time.Second,
		batch:    100,
	}
}

// Run polls until the context is cancelled. Publish failures are logged and
// retried on the next tick; entries are only marked published after the
// broker acknowledges them.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.drain(ctx); err != nil {
				r.logger.ErrorContext(ctx, "outbox drain failed", "error", err)
			}
		}
	}
}

func (r *Relay) drain(ctx context.Context) error {
	entries, err := r.store.UnpublishedBatch(ctx, r.batch)
	if err != nil {
		return fmt.Errorf("fetch outbox batch: %w", err)
	}
	for _, entry := range entries {
		topic := r.topics.forCategory(entry.Category)
		if err := r.producer.Publish(ctx, topic, []byte(entry.ID.String()), entry.Payload); err != nil {
			// Stop the batch; ordering matters more than progress.
			return fmt.Errorf("publish outbox entry %s: %w", entry.ID, err)
		}
		if err := r.store.MarkPublished(ctx, entry.ID); err != nil {
			return fmt.Errorf("mark outbox entry %s: %w", entry.ID, err)
		}
	}
	return nil
}
