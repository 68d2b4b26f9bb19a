package application

import (
	"context"

	"github.com/estatehub/service-scheduling/internal/events/schema"
	"github.com/estatehub/service-scheduling/internal/platform/kafka"
	"go.uber.org/zap"
)

// EventPublisher publishes booking events on one topic. Failures are logged
// and never returned.
type EventPublisher struct {
	producer EventProducer
	topic    string
	logger   *zap.Logger
}

// NewEventPublisher creates an EventPublisher. A nil producer disables
// publishing.
func NewEventPublisher(producer EventProducer, topic string, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, topic: topic, logger: logger}
}

func (p *EventPublisher) publish(ctx context.Context, eventType, key string, data interface{}) {
	if p == nil || p.producer == nil {
		return
	}
	cloudEvent, err := kafka.NewCloudEvent(schema.Source, eventType, data)
	if err != nil {
		p.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}
	cloudEvent.Subject = key

	if err := p.producer.PublishEvent(ctx, p.topic, cloudEvent); err != nil {
		p.logger.Error("failed to publish event",
			zap.String("topic", p.topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
