// Package kafka wraps franz-go producers and consumers for the audit
// pipeline. Kafka carries the durable audit stream; the consumer
// materializes it back into PostgreSQL for querying.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Producer publishes audit payloads synchronously. The outbox relay marks
// entries published only after the broker acknowledges, so the producer
// must not buffer across calls.
type Producer struct {
	client *kgo.Client
}

// NewProducer connects a producer to the brokers.
func NewProducer(brokers []string) (*Producer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return &Producer{client: client}, nil
}

// Publish produces one record and waits for the broker acknowledgement.
func (p *Producer) Publish(ctx context.Context, topic string, key, value []byte) error {
	record := &kgo.Record{Topic: topic, Key: key, Value: value}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", topic, err)
	}
	return nil
}

// Close flushes and closes the underlying client.
func (p *Producer) Close() {
	p.client.Close()
}

// EnsureTopics creates the audit topics if they do not exist. Existing
// topics are left untouched.
func EnsureTopics(ctx context.Context, brokers []string, topics []string) error {
	client, err := kgo.NewClient(kgo.SeedBrokers(brokers...))
	if err != nil {
		return fmt.Errorf("create kafka admin client: %w", err)
	}
	defer client.Close()

	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopics(ctx, 1, 1, nil, topics...)
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}
	for _, res := range resp.Sorted() {
		if res.Err != nil && !kerrTopicExists(res.Err) {
			return fmt.Errorf("create topic %s: %w", res.Topic, res.Err)
		}
	}
	return nil
}

func kerrTopicExists(err error) bool {
	return errors.Is(err, kerr.TopicAlreadyExists)
}

// Handler processes one consumed record.
type Handler interface {
	Handle(ctx context.Context, topic string, key, value []byte) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, topic string, key, value []byte) error

func (f HandlerFunc) Handle(ctx context.Context, topic string, key, value []byte) error {
	return f(ctx, topic, key, value)
}

// Consumer polls the audit topics within a consumer group and dispatches
// records to a handler.
type Consumer struct {
	client *kgo.Client
	logger *slog.Logger
}

// NewConsumer joins the consumer group on the given topics.
func NewConsumer(brokers []string, group string, topics []string, logger *slog.Logger) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topics...),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return &Consumer{client: client, logger: logger}, nil
}

// Run polls until the context is cancelled. Handler errors are logged; the
// record will be redelivered since offsets only advance on success paths
// committed by the group protocol.
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.ErrorContext(ctx, "kafka fetch error",
				"topic", topic, "partition", partition, "error", err)
		})
		fetches.EachRecord(func(record *kgo.Record) {
			if err := handler.Handle(ctx, record.Topic, record.Key, record.Value); err != nil {
				c.logger.ErrorContext(ctx, "audit record handling failed",
					"topic", record.Topic, "key", string(record.Key), "error", err)
			}
		})
	}
}

// Close leaves the group and closes the client.
func (c *Consumer) Close() {
	c.client.Close()
}
