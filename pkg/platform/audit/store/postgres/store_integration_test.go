//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"custos/pkg/domain"
	"custos/pkg/platform/audit"
)

const testSchema = `
CREATE TABLE IF NOT EXISTS outbox (
	id             UUID PRIMARY KEY,
	aggregate_type TEXT NOT NULL,
	aggregate_id   TEXT NOT NULL,
	event_type     TEXT NOT NULL,
	payload        JSONB NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	published_at   TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS audit_events (
	id          UUID PRIMARY KEY,
	category    TEXT NOT NULL,
	case_id     UUID,
	agent_id    TEXT NOT NULL DEFAULT '',
	subject     TEXT NOT NULL DEFAULT '',
	action      TEXT NOT NULL,
	policy      TEXT NOT NULL DEFAULT '',
	decision    TEXT NOT NULL DEFAULT '',
	reason      TEXT NOT NULL DEFAULT '',
	request_id  TEXT NOT NULL DEFAULT '',
	actor_id    TEXT NOT NULL DEFAULT '',
	occurred_at TIMESTAMPTZ NOT NULL
);
`

func newStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("custos"),
		tcpostgres.WithUsername("custos"),
		tcpostgres.WithPassword("custos"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, testcontainers.TerminateContainer(container))
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.ExecContext(ctx, testSchema)
	require.NoError(t, err)

	return New(db)
}

func TestAppendWritesOutboxPayload(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	caseID := domain.NewCaseID()

	require.NoError(t, store.Append(ctx, audit.Event{
		Timestamp: time.Now().UTC(),
		CaseID:    caseID,
		AgentID:   "vaa_test",
		Subject:   "amount",
		Action:    string(audit.ActionDecisionEvaluated),
		Policy:    "procurement_amount",
		Decision:  "human_review",
		Reason:    "amount=150000",
	}))

	entries, err := store.UnpublishedBatch(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, string(audit.ActionDecisionEvaluated), entries[0].EventType)
	assert.Equal(t, string(audit.CategoryCompliance), entries[0].Category)

	var p map[string]any
	require.NoError(t, json.Unmarshal(entries[0].Payload, &p))
	assert.Equal(t, caseID.String(), p["case_id"])
	assert.Equal(t, "procurement_amount", p["policy"])

	require.NoError(t, store.MarkPublished(ctx, entries[0].ID))
	entries, err = store.UnpublishedBatch(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAppendMaterializesLocally(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	caseID := domain.NewCaseID()

	// No relay or consumer runs here; the trail must still be readable.
	require.NoError(t, store.Append(ctx, audit.Event{
		Timestamp: time.Now().UTC(),
		CaseID:    caseID,
		AgentID:   "vaa_test",
		Subject:   "amount",
		Action:    string(audit.ActionDecisionEvaluated),
		Policy:    "procurement_amount",
		Decision:  "semi_autonomous",
	}))

	events, err := store.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, caseID, events[0].CaseID)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)

	// A consumer replaying the outbox payload must not duplicate the row.
	entries, err := store.UnpublishedBatch(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	var p map[string]any
	require.NoError(t, json.Unmarshal(entries[0].Payload, &p))
	eventID, err := uuid.Parse(p["id"].(string))
	require.NoError(t, err)
	require.Equal(t, entries[0].ID, eventID, "outbox row and payload share the event id")

	require.NoError(t, store.AppendWithID(ctx, eventID, events[0]))
	events, err = store.ListByCase(ctx, caseID.String())
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestUnpublishedBatchOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, audit.Event{
			Timestamp: time.Now().UTC(),
			Subject:   "amount",
			Action:    string(audit.ActionDecisionEvaluated),
		}))
	}

	entries, err := store.UnpublishedBatch(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestAppendWithIDIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	eventID := uuid.New()
	caseID := domain.NewCaseID()
	event := audit.Event{
		Category:  audit.CategoryCompliance,
		Timestamp: time.Now().UTC(),
		CaseID:    caseID,
		AgentID:   "vaa_test",
		Subject:   "amount",
		Action:    string(audit.ActionCaseEscalated),
		Policy:    "procurement_amount",
		Decision:  "human_review",
		ActorID:   "reviewer_ana",
	}

	// Replayed Kafka messages insert the same ID twice.
	require.NoError(t, store.AppendWithID(ctx, eventID, event))
	require.NoError(t, store.AppendWithID(ctx, eventID, event))

	events, err := store.ListByCase(ctx, caseID.String())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, caseID, events[0].CaseID)
	assert.Equal(t, "reviewer_ana", events[0].ActorID)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
}

func TestListRecentReturnsOccurrenceOrder(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 4; i++ {
		require.NoError(t, store.AppendWithID(ctx, uuid.New(), audit.Event{
			Category:  audit.CategoryCompliance,
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Subject:   "amount",
			Action:    string(audit.ActionDecisionEvaluated),
			Reason:    string(rune('a' + i)),
		}))
	}

	events, err := store.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "c", events[0].Reason, "window holds the newest rows, oldest first")
	assert.Equal(t, "d", events[1].Reason)
}
