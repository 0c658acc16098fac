// Package consumer materializes audit events from Kafka into the
// audit_events table so the trail is queryable.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"custos/pkg/domain"
	"custos/pkg/platform/audit"
	pgstore "custos/pkg/platform/audit/store/postgres"
)

// Message is one consumed Kafka record, decoupled from the client library.
type Message struct {
	Topic string
	Key   []byte
	Value []byte
}

// Materializer writes consumed audit payloads into audit_events.
// Inserts are idempotent, so at-least-once delivery is safe.
type Materializer struct {
	store  *pgstore.Store
	logger *slog.Logger
}

func NewMaterializer(store *pgstore.Store, logger *slog.Logger) *Materializer {
	return &Materializer{store: store, logger: logger}
}

// wirePayload mirrors the outbox payload written by the postgres store.
type wirePayload struct {
	ID        string `json:"id"`
	Category  string `json:"category"`
	Timestamp string `json:"timestamp"`
	CaseID    string `json:"case_id"`
	AgentID   string `json:"agent_id"`
	Subject   string `json:"subject"`
	Action    string `json:"action"`
	Policy    string `json:"policy"`
	Decision  string `json:"decision"`
	Reason    string `json:"reason"`
	RequestID string `json:"request_id"`
	ActorID   string `json:"actor_id"`
}

// Handle materializes one message. Malformed payloads are logged and
// skipped so a poison message cannot wedge the partition.
func (m *Materializer) Handle(ctx context.Context, msg Message) error {
	var p wirePayload
	if err := json.Unmarshal(msg.Value, &p); err != nil {
		m.logger.WarnContext(ctx, "skipping malformed audit payload",
			"topic", msg.Topic, "key", string(msg.Key), "error", err)
		return nil
	}

	eventID, err := uuid.Parse(p.ID)
	if err != nil {
		m.logger.WarnContext(ctx, "skipping audit payload with invalid id",
			"topic", msg.Topic, "id", p.ID)
		return nil
	}

	event := audit.Event{
		Category:  audit.EventCategory(p.Category),
		AgentID:   p.AgentID,
		Subject:   p.Subject,
		Action:    p.Action,
		Policy:    p.Policy,
		Decision:  p.Decision,
		Reason:    p.Reason,
		RequestID: p.RequestID,
		ActorID:   p.ActorID,
	}
	if ts, err := time.Parse(time.RFC3339Nano, p.Timestamp); err == nil {
		event.Timestamp = ts
	}
	if p.CaseID != "" {
		if caseID, err := uuid.Parse(p.CaseID); err == nil {
			event.CaseID = domain.CaseID(caseID)
		}
	}

	if err := m.store.AppendWithID(ctx, eventID, event); err != nil {
		return fmt.Errorf("materialize audit event %s: %w", eventID, err)
	}
	return nil
}
