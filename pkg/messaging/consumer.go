package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/punchclock/punchclock-backend/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageHandler processes one decoded event. A returned error triggers a
// single redelivery before the message is dead-lettered.
type MessageHandler func(ctx context.Context, event *Event) error

// Consumer dispatches events from one queue to handlers keyed by event
// type. Handlers must be registered before Start.
type Consumer struct {
	rmq       *RabbitMQ
	queueName string
	handlers  map[string]MessageHandler
	logger    *logger.Logger
}

// NewConsumer declares queueName and returns a consumer for it.
func NewConsumer(rmq *RabbitMQ, queueName string, log *logger.Logger) (*Consumer, error) {
	if _, err := rmq.DeclareQueue(queueName); err != nil {
		return nil, fmt.Errorf("failed to declare queue %s: %w", queueName, err)
	}
	return &Consumer{
		rmq:       rmq,
		queueName: queueName,
		handlers:  make(map[string]MessageHandler),
		logger:    log,
	}, nil
}

// Subscribe binds the queue to exchange for routing keys matching pattern.
func (c *Consumer) Subscribe(exchange, pattern string) error {
	if err := c.rmq.DeclareExchange(exchange); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	if err := c.rmq.BindQueue(c.queueName, exchange, pattern); err != nil {
		return fmt.Errorf("failed to bind %s to %s: %w", c.queueName, exchange, err)
	}

	c.logger.Info().
		Str("queue", c.queueName).
		Str("exchange", exchange).
		Str("routing_key", pattern).
		Msg("subscribed to exchange")
	return nil
}

// RegisterHandler registers a handler for a specific event type
func (c *Consumer) RegisterHandler(eventType string, handler MessageHandler) {
	c.handlers[eventType] = handler
}

// Start begins delivery in a goroutine that runs until ctx is done or the
// broker closes the channel. Messages are handled one at a time.
func (c *Consumer) Start(ctx context.Context) error {
	msgs, err := c.rmq.Channel().Consume(c.queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume %s: %w", c.queueName, err)
	}

	c.logger.Info().Str("queue", c.queueName).Int("handlers", len(c.handlers)).Msg("consumer started")

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.logger.Info().Str("queue", c.queueName).Msg("consumer stopped")
				return
			case msg, ok := <-msgs:
				if !ok {
					c.logger.Warn().Str("queue", c.queueName).Msg("delivery channel closed")
					return
				}
				c.handleMessage(ctx, msg)
			}
		}
	}()
	return nil
}

func (c *Consumer) handleMessage(ctx context.Context, msg amqp.Delivery) {
	var event Event
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		c.logger.Error().Err(err).Str("routing_key", msg.RoutingKey).Msg("dropping malformed event")
		_ = msg.Reject(false)
		return
	}
	if event.Type == "" {
		event.Type = msg.RoutingKey
	}

	handler, ok := c.handlers[event.Type]
	if !ok {
		c.logger.Debug().Str("event_type", event.Type).Msg("no handler registered for event type")
		_ = msg.Ack(false)
		return
	}

	log := c.logger.With().
		Str("event_type", event.Type).
		Str("event_id", event.ID).
		Str("correlation_id", event.CorrelationID).
		Logger()
	log.Debug().Msg("processing event")

	if err := c.invoke(WithCorrelationID(ctx, event.CorrelationID), handler, &event); err != nil {
		// A requeued nack carries no x-death header, so the redelivered
		// flag is what bounds retries.
		if msg.Redelivered {
			log.Error().Err(err).Msg("event failed again, dead-lettering")
			_ = msg.Reject(false)
			return
		}
		log.Warn().Err(err).Msg("event failed, requeueing once")
		_ = msg.Nack(false, true)
		return
	}

	_ = msg.Ack(false)
}

// invoke runs handler and converts a panic into an error so one bad event
// cannot stop the delivery loop.
func (c *Consumer) invoke(ctx context.Context, handler MessageHandler, event *Event) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("handler panic: %v", p)
		}
	}()
	return handler(ctx, event)
}
