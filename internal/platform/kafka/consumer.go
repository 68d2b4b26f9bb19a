package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageHandler processes one message. Returning an error triggers a retry.
type MessageHandler func(ctx context.Context, msg kafkago.Message) error

// Consumer reads a single topic as part of a consumer group.
type Consumer struct {
	reader     *kafkago.Reader
	logger     *zap.Logger
	maxRetries int
	backoff    time.Duration
}

// NewConsumer creates a Consumer for topic in groupID.
func NewConsumer(brokers []string, groupID, topic string, logger *zap.Logger) *Consumer {
	return &Consumer{
		reader: kafkago.NewReader(kafkago.ReaderConfig{
			Brokers:     brokers,
			GroupID:     groupID,
			Topic:       topic,
			MinBytes:    1,
			MaxBytes:    10e6,
			StartOffset: kafkago.FirstOffset,
		}),
		logger:     logger.With(zap.String("topic", topic), zap.String("group_id", groupID)),
		maxRetries: 3,
		backoff:    500 * time.Millisecond,
	}
}

// Consume blocks, dispatching messages to handler until ctx is cancelled.
// A message is committed once handled, or after its retries are exhausted.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
				return context.Canceled
			}
			return fmt.Errorf("failed to fetch message: %w", err)
		}

		c.handleWithRetry(ctx, msg, handler)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("failed to commit message",
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}
	}
}

func (c *Consumer) handleWithRetry(ctx context.Context, msg kafkago.Message, handler MessageHandler) {
	var err error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err = handler(ctx, msg); err == nil {
			return
		}
		c.logger.Warn("message handler failed",
			zap.Int("attempt", attempt),
			zap.Int64("offset", msg.Offset),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(attempt) * c.backoff):
		}
	}
	c.logger.Error("giving up on message",
		zap.Int64("offset", msg.Offset),
		zap.Int("partition", msg.Partition),
		zap.Error(err),
	)
}

// Close closes the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
