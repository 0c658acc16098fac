// Package postgres implements audit.Store using the transactional outbox
// pattern. Append writes each event to the outbox table and materializes
// it into audit_events in the same transaction, so the trail is queryable
// locally whether or not a Kafka pipeline runs. The outbox relay publishes
// to Kafka for downstream consumers; the materializing consumer shares the
// event ID with the local write, so replays cannot duplicate rows.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"custos/pkg/domain"
	"custos/pkg/platform/audit"
)

// Store writes audit events to PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// payload is the JSON structure carried through the outbox and Kafka.
// Field names match audit.Event so the consumer can deserialize directly.
type payload struct {
	ID        string `json:"id"`
	Category  string `json:"category"`
	Timestamp string `json:"timestamp"`
	CaseID    string `json:"case_id,omitempty"`
	AgentID   string `json:"agent_id,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Action    string `json:"action"`
	Policy    string `json:"policy,omitempty"`
	Decision  string `json:"decision,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	ActorID   string `json:"actor_id,omitempty"`
}

// Append writes an audit event to the outbox for Kafka publishing and to
// audit_events for local reads, atomically.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()

	// The eventCategories map is the source of truth for categories.
	category := audit.Action(event.Action).Category()
	event.Category = category

	p := payload{
		ID:        eventID.String(),
		Category:  string(category),
		Timestamp: event.Timestamp.Format(time.RFC3339Nano),
		AgentID:   event.AgentID,
		Subject:   event.Subject,
		Action:    event.Action,
		Policy:    event.Policy,
		Decision:  event.Decision,
		Reason:    event.Reason,
		RequestID: event.RequestID,
		ActorID:   event.ActorID,
	}
	if !event.CaseID.IsNil() {
		p.CaseID = event.CaseID.String()
	}

	payloadBytes, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	aggregateType, aggregateID := "audit", eventID.String()
	if !event.CaseID.IsNil() {
		aggregateType, aggregateID = "case", event.CaseID.String()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin audit append: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := tx.ExecContext(ctx, query,
		eventID, aggregateType, aggregateID, event.Action, payloadBytes, time.Now(),
	); err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	if err := insertAuditEvent(ctx, tx, eventID, event); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit audit append: %w", err)
	}
	return nil
}

// AppendWithID inserts a materialized audit event with a specific ID. Used
// by the Kafka consumer; idempotent via ON CONFLICT DO NOTHING so replayed
// messages and locally materialized events do not duplicate rows.
func (s *Store) AppendWithID(ctx context.Context, eventID uuid.UUID, event audit.Event) error {
	return insertAuditEvent(ctx, s.db, eventID, event)
}

// execer abstracts *sql.DB and *sql.Tx for the audit_events insert.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertAuditEvent(ctx context.Context, db execer, eventID uuid.UUID, event audit.Event) error {
	const query = `
		INSERT INTO audit_events
			(id, category, case_id, agent_id, subject, action, policy, decision, reason, request_id, actor_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`
	var caseID any
	if !event.CaseID.IsNil() {
		caseID = event.CaseID.String()
	}
	if _, err := db.ExecContext(ctx, query,
		eventID, string(event.Category), caseID, event.AgentID, event.Subject,
		event.Action, event.Policy, event.Decision, event.Reason,
		event.RequestID, event.ActorID, event.Timestamp,
	); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByCase returns the materialized trail for one case, oldest first.
func (s *Store) ListByCase(ctx context.Context, caseID string) ([]audit.Event, error) {
	const query = `
		SELECT category, case_id, agent_id, subject, action, policy, decision, reason, request_id, actor_id, occurred_at
		FROM audit_events
		WHERE case_id = $1
		ORDER BY occurred_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("query audit events by case: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListRecent returns the most recent materialized events, oldest first
// within the window so callers see them in occurrence order.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
		SELECT category, case_id, agent_id, subject, action, policy, decision, reason, request_id, actor_id, occurred_at
		FROM (
			SELECT * FROM audit_events ORDER BY occurred_at DESC LIMIT $1
		) recent
		ORDER BY occurred_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			e      audit.Event
			caseID sql.NullString
		)
		if err := rows.Scan(
			&e.Category, &caseID, &e.AgentID, &e.Subject, &e.Action,
			&e.Policy, &e.Decision, &e.Reason, &e.RequestID, &e.ActorID, &e.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if caseID.Valid {
			parsed, err := uuid.Parse(caseID.String)
			if err == nil {
				e.CaseID = domain.CaseID(parsed)
			}
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// OutboxEntry is one unpublished row pending Kafka delivery.
type OutboxEntry struct {
	ID        uuid.UUID
	EventType string
	Payload   []byte
	Category  string
}

// UnpublishedBatch returns up to limit unpublished outbox rows, oldest first.
func (s *Store) UnpublishedBatch(ctx context.Context, limit int) ([]OutboxEntry, error) {
	const query = `
		SELECT id, event_type, payload
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var entries []OutboxEntry
	for rows.Next() {
		var entry OutboxEntry
		if err := rows.Scan(&entry.ID, &entry.EventType, &entry.Payload); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entry.Category = string(audit.Action(entry.EventType).Category())
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// MarkPublished stamps an outbox row as delivered.
func (s *Store) MarkPublished(ctx context.Context, id uuid.UUID) error {
	const query = `UPDATE outbox SET published_at = $1 WHERE id = $2`
	if _, err := s.db.ExecContext(ctx, query, time.Now(), id); err != nil {
		return fmt.Errorf("mark outbox entry published: %w", err)
	}
	return nil
}
