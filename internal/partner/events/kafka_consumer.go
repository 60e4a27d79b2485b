package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader  KafkaReader
	logger  *zap.Logger
	handler func(context.Context, Event) error
	// backOff paces FetchMessage retries while the broker is failing.
	backOff backoff.BackOff
}

// NewConsumer reads partner directory events from topic as part of groupID.
func NewConsumer(brokers []string, groupID, topic string, logger *zap.Logger) *Consumer {
	return newConsumer(kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   topic,
		Dialer:  kafka.DefaultDialer,
	}), logger)
}

func newConsumer(reader KafkaReader, logger *zap.Logger) *Consumer {
	return &Consumer{
		reader:  reader,
		logger:  logger.Named("kafka_consumer"),
		handler: func(context.Context, Event) error { return nil },
		backOff: fetchBackOff(),
	}
}

func fetchBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// Start consumes in the background until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Consumer) run(ctx context.Context) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			wait := c.backOff.NextBackOff()
			if wait == backoff.Stop {
				c.backOff.Reset()
				wait = c.backOff.NextBackOff()
			}
			c.logger.Error("Failed to fetch message",
				zap.Error(err),
				zap.Duration("retry_in", wait),
			)
			if !sleep(ctx, wait) {
				return
			}
			continue
		}
		c.backOff.Reset()

		var event Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			c.logger.Error("Failed to parse event",
				zap.Error(err),
				zap.ByteString("value", msg.Value),
			)
			c.commit(ctx, msg, "")
			continue
		}

		if err := c.handler(ctx, event); err != nil {
			c.logger.Error("Failed to handle event",
				zap.Error(err),
				zap.String("event_type", string(event.Type)),
			)
			continue
		}

		c.commit(ctx, msg, event.Type)
	}
}

// sleep waits for d and reports false when ctx was cancelled first.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message, eventType EventType) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("Failed to commit message",
			zap.Error(err),
			zap.String("event_type", string(eventType)),
		)
	}
}

func (c *Consumer) RegisterHandler(fn func(context.Context, Event) error) {
	c.handler = fn
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Error("Failed to close Kafka reader", zap.Error(err))
	}
}

// Invalidator drops cached partner data.
type Invalidator interface {
	Invalidate()
}

// InvalidateOnPartnerChange returns a handler that invalidates cache whenever
// another replica creates, updates or deletes a partner.
func InvalidateOnPartnerChange(cache Invalidator, logger *zap.Logger) func(context.Context, Event) error {
	return func(_ context.Context, event Event) error {
		if !event.Type.IsPartnerEvent() {
			return nil
		}
		logger.Debug("Invalidating partner cache",
			zap.String("event_type", string(event.Type)),
			zap.String("partner_id", event.EntityID),
		)
		cache.Invalidate()
		return nil
	}
}
