package events

import (
	"context"
	"errors"

	"github.com/estatehub/service-scheduling/internal/events/schema"
	"github.com/estatehub/service-scheduling/internal/platform/domain"
	"github.com/estatehub/service-scheduling/internal/platform/kafka"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// DepositHandler applies payment outcomes to bookings.
type DepositHandler interface {
	HandleDepositSucceeded(ctx context.Context, bookingID uuid.UUID, reference string) error
	HandleDepositFailed(ctx context.Context, bookingID uuid.UUID, reason string) error
}

// PaymentEventConsumer listens to payment events and settles deposit-gated
// bookings.
type PaymentEventConsumer struct {
	consumer *kafka.Consumer
	handler  DepositHandler
	logger   *zap.Logger
}

// NewPaymentEventConsumer creates a new PaymentEventConsumer.
func NewPaymentEventConsumer(
	brokers []string,
	groupID string,
	topic string,
	handler DepositHandler,
	logger *zap.Logger,
) *PaymentEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, topic, logger)
	return &PaymentEventConsumer{
		consumer: consumer,
		handler:  handler,
		logger:   logger,
	}
}

// Start begins consuming payment events. This blocks until the context is cancelled.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *PaymentEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case schema.PaymentSucceeded:
		return c.handleSucceeded(ctx, cloudEvent)
	case schema.PaymentFailed:
		return c.handleFailed(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled payment event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *PaymentEventConsumer) handleSucceeded(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt schema.PaymentSucceededEvent
	if err := cloudEvent.ParseData(&evt); err != nil || evt.BookingID == uuid.Nil {
		c.logger.Error("invalid PaymentSucceededEvent data", zap.String("event_id", cloudEvent.ID), zap.Error(err))
		return nil
	}

	c.logger.Info("processing payment succeeded event",
		zap.String("booking_id", evt.BookingID.String()),
		zap.String("payment_reference", evt.PaymentReference),
	)
	err := c.handler.HandleDepositSucceeded(ctx, evt.BookingID, evt.PaymentReference)
	return c.settle(evt.BookingID, "failed to release booking after deposit", err)
}

func (c *PaymentEventConsumer) handleFailed(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt schema.PaymentFailedEvent
	if err := cloudEvent.ParseData(&evt); err != nil || evt.BookingID == uuid.Nil {
		c.logger.Error("invalid PaymentFailedEvent data", zap.String("event_id", cloudEvent.ID), zap.Error(err))
		return nil
	}

	c.logger.Info("processing payment failed event",
		zap.String("booking_id", evt.BookingID.String()),
		zap.String("reason", evt.Reason),
	)
	reason := evt.Reason
	if reason == "" {
		reason = "deposit payment failed"
	}
	err := c.handler.HandleDepositFailed(ctx, evt.BookingID, reason)
	return c.settle(evt.BookingID, "failed to cancel booking after failed deposit", err)
}

// settle returns err only when a retry can succeed. Missing bookings and
// bookings that already left pending_payment are logged and skipped.
func (c *PaymentEventConsumer) settle(bookingID uuid.UUID, msg string, err error) error {
	if err == nil {
		return nil
	}
	var (
		notFound *domain.NotFoundError
		invalid  *domain.InvalidStateError
	)
	if errors.As(err, &notFound) || errors.As(err, &invalid) {
		c.logger.Warn(msg+", skipping",
			zap.String("booking_id", bookingID.String()),
			zap.Error(err),
		)
		return nil
	}
	c.logger.Error(msg,
		zap.String("booking_id", bookingID.String()),
		zap.Error(err),
	)
	return err
}
