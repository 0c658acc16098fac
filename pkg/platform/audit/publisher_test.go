package audit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custos/pkg/domain"
	"custos/pkg/platform/audit"
	memorystore "custos/pkg/platform/audit/store/memory"
)

type failingStore struct{}

func (failingStore) Append(context.Context, audit.Event) error {
	return errors.New("disk full")
}
func (failingStore) ListByCase(context.Context, string) ([]audit.Event, error) { return nil, nil }
func (failingStore) ListRecent(context.Context, int) ([]audit.Event, error)   { return nil, nil }

func TestEmitStampsTimestampAndCategory(t *testing.T) {
	ctx := context.Background()
	store := memorystore.NewInMemoryStore()
	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	publisher := audit.NewPublisher(store, audit.WithClock(func() time.Time { return at }))

	caseID := domain.NewCaseID()
	require.NoError(t, publisher.Emit(ctx, audit.Event{
		CaseID:   caseID,
		Action:   string(audit.ActionDecisionEvaluated),
		Policy:   "procurement_amount",
		Decision: "autonomous",
	}))

	events, err := store.ListByCase(ctx, caseID.String())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, at, events[0].Timestamp)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
}

func TestEmitDerivesCategoryFromAction(t *testing.T) {
	tests := []struct {
		action   audit.Action
		category audit.EventCategory
	}{
		{audit.ActionCaseEscalated, audit.CategoryCompliance},
		{audit.ActionEscalationResolved, audit.CategoryCompliance},
		{audit.ActionAuthRejected, audit.CategorySecurity},
		{audit.ActionForecastRecommended, audit.CategoryOperations},
		{audit.ActionDriftDetected, audit.CategoryOperations},
		{audit.Action("something_new"), audit.CategoryOperations},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.category, tt.action.Category(), string(tt.action))
	}

	// The publisher overrides whatever category the caller set.
	ctx := context.Background()
	store := memorystore.NewInMemoryStore()
	publisher := audit.NewPublisher(store)
	require.NoError(t, publisher.Emit(ctx, audit.Event{
		Category: audit.CategoryCompliance,
		Action:   string(audit.ActionAuthRejected),
	}))
	events, err := store.ListRecent(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, audit.CategorySecurity, events[0].Category)
}

func TestEmitRequiresAction(t *testing.T) {
	publisher := audit.NewPublisher(memorystore.NewInMemoryStore())
	err := publisher.Emit(context.Background(), audit.Event{Subject: "amount"})
	assert.Error(t, err)
}

func TestEmitFailsClosed(t *testing.T) {
	publisher := audit.NewPublisher(failingStore{})
	err := publisher.Emit(context.Background(), audit.Event{
		Action: string(audit.ActionDecisionEvaluated),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "audit persistence failed")
}

func TestListRecent(t *testing.T) {
	ctx := context.Background()
	store := memorystore.NewInMemoryStore()
	publisher := audit.NewPublisher(store)

	for i := 0; i < 5; i++ {
		require.NoError(t, publisher.Emit(ctx, audit.Event{
			Action:  string(audit.ActionDecisionEvaluated),
			Subject: "amount",
		}))
	}

	events, err := publisher.ListRecent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, events, 2)

	events, err = publisher.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, events, 5)
}
