//go:build integration

package escalation

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
)

func newRedisQueue(t *testing.T) *RedisQueue {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, testcontainers.TerminateContainer(container))
	})

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.Ping(ctx).Err())

	return NewRedisQueue(client)
}

func TestRedisQueueRoundTrip(t *testing.T) {
	ctx := context.Background()
	q := newRedisQueue(t)

	first := Ticket{
		CaseID:      domain.NewCaseID(),
		Policy:      "procurement_amount",
		SignalName:  "amount",
		SignalValue: 150000,
		Level:       LevelHumanReview,
		Reason:      "amount requires review",
		EscalatedAt: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
	second := first
	second.CaseID = domain.NewCaseID()
	second.SignalValue = 200000

	require.NoError(t, q.Push(ctx, first))
	require.NoError(t, q.Push(ctx, second))

	// Duplicate pushes conflict.
	err := q.Push(ctx, first)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	tickets, err := q.Pending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, first.CaseID, tickets[0].CaseID, "FIFO order")
	assert.Equal(t, first.SignalValue, tickets[0].SignalValue)
	assert.True(t, first.EscalatedAt.Equal(tickets[0].EscalatedAt))

	limited, err := q.Pending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, first.CaseID, limited[0].CaseID)

	resolved, err := q.Resolve(ctx, first.CaseID)
	require.NoError(t, err)
	assert.Equal(t, first.CaseID, resolved.CaseID)
	assert.Equal(t, first.Level, resolved.Level)

	_, err = q.Resolve(ctx, first.CaseID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	remaining, err := q.Pending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, second.CaseID, remaining[0].CaseID)
}
