package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/punchclock/punchclock-backend/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
)

var _ EventPublisher = (*Publisher)(nil)

// Publisher sends events to one topic exchange, routed by event type.
type Publisher struct {
	rmq      *RabbitMQ
	exchange string
	logger   *logger.Logger
}

// NewPublisher declares exchange and returns a publisher for it. Events are
// stamped with the connection's service name as their source.
func NewPublisher(rmq *RabbitMQ, exchange string, log *logger.Logger) (*Publisher, error) {
	if err := rmq.DeclareExchange(exchange); err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return &Publisher{rmq: rmq, exchange: exchange, logger: log}, nil
}

// Publish wraps data in an Event and publishes it persistently. Without a
// correlation id in ctx the event id is used.
func (p *Publisher) Publish(ctx context.Context, eventType string, data interface{}) error {
	event, err := NewEvent(eventType, p.rmq.service, CorrelationID(ctx), data)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	if event.CorrelationID == "" {
		event.CorrelationID = event.ID
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.rmq.Channel().PublishWithContext(ctx, p.exchange, eventType, false, false, amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     event.ID,
		Type:          eventType,
		AppId:         event.Source,
		Timestamp:     event.Timestamp,
		CorrelationId: event.CorrelationID,
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", eventType, err)
	}

	p.logger.Debug().
		Str("event_type", eventType).
		Str("event_id", event.ID).
		Str("correlation_id", event.CorrelationID).
		Msg("event published")
	return nil
}

type contextKey string

const correlationIDKey contextKey = "correlation_id"

// WithCorrelationID adds a correlation ID to the context
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey, correlationID)
}

// CorrelationID returns the correlation ID carried by ctx, if any.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}
