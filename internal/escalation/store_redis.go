package escalation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
)

const (
	redisOrderKey   = "custos:escalations:order"
	redisTicketsKey = "custos:escalations:tickets"
)

// RedisQueue keeps pending escalations in Redis so reviewers see one queue
// across gateway replicas. Order lives in a list, ticket bodies in a hash.
type RedisQueue struct {
	client redis.Cmdable
}

func NewRedisQueue(client redis.Cmdable) *RedisQueue {
	return &RedisQueue{client: client}
}

func (q *RedisQueue) Push(ctx context.Context, ticket Ticket) error {
	payload, err := json.Marshal(ticket)
	if err != nil {
		return fmt.Errorf("marshal ticket: %w", err)
	}

	field := ticket.CaseID.String()
	added, err := q.client.HSetNX(ctx, redisTicketsKey, field, payload).Result()
	if err != nil {
		return fmt.Errorf("store ticket: %w", err)
	}
	if !added {
		return dErrors.Newf(dErrors.CodeConflict, "case %s already escalated", ticket.CaseID)
	}
	if err := q.client.RPush(ctx, redisOrderKey, field).Err(); err != nil {
		return fmt.Errorf("enqueue ticket: %w", err)
	}
	return nil
}

func (q *RedisQueue) Pending(ctx context.Context, limit int) ([]Ticket, error) {
	end := int64(-1)
	if limit > 0 {
		end = int64(limit) - 1
	}
	ids, err := q.client.LRange(ctx, redisOrderKey, 0, end).Result()
	if err != nil {
		return nil, fmt.Errorf("read escalation order: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	raw, err := q.client.HMGet(ctx, redisTicketsKey, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("read tickets: %w", err)
	}

	tickets := make([]Ticket, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue // resolved between LRANGE and HMGET
		}
		var t Ticket
		if err := json.Unmarshal([]byte(s), &t); err != nil {
			return nil, fmt.Errorf("decode ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	return tickets, nil
}

func (q *RedisQueue) Resolve(ctx context.Context, caseID domain.CaseID) (Ticket, error) {
	field := caseID.String()
	raw, err := q.client.HGet(ctx, redisTicketsKey, field).Result()
	if err == redis.Nil {
		return Ticket{}, dErrors.Newf(dErrors.CodeNotFound, "no pending escalation for case %s", caseID)
	}
	if err != nil {
		return Ticket{}, fmt.Errorf("read ticket: %w", err)
	}

	var ticket Ticket
	if err := json.Unmarshal([]byte(raw), &ticket); err != nil {
		return Ticket{}, fmt.Errorf("decode ticket: %w", err)
	}

	pipe := q.client.TxPipeline()
	pipe.HDel(ctx, redisTicketsKey, field)
	pipe.LRem(ctx, redisOrderKey, 1, field)
	if _, err := pipe.Exec(ctx); err != nil {
		return Ticket{}, fmt.Errorf("remove ticket: %w", err)
	}
	return ticket, nil
}
