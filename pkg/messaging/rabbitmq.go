package messaging

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/punchclock/punchclock-backend/pkg/config"
	"github.com/punchclock/punchclock-backend/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQ owns one connection and one channel for a service. Queues it
// declares dead-letter into the service's own DLX.
type RabbitMQ struct {
	service string
	config  *config.RabbitMQConfig
	logger  *logger.Logger

	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel
	lastErr error
}

// Dial connects to the broker, retrying up to cfg.MaxRetries times so the
// service can start before RabbitMQ is ready, and declares the service's
// dead letter topology.
func Dial(ctx context.Context, cfg *config.RabbitMQConfig, service string, log *logger.Logger) (*RabbitMQ, error) {
	r := &RabbitMQ{service: service, config: cfg, logger: log}

	attempts := cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 1; i <= attempts; i++ {
		if err = r.connect(); err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", i).Int("max_attempts", attempts).Msg("RabbitMQ not reachable")
		if i == attempts {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.ReconnectDelay):
		}
	}

	if err := r.declareDeadLetter(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func (r *RabbitMQ) connect() error {
	conn, err := amqp.Dial(r.config.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.Qos(r.config.PrefetchCount, 0, false); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	r.mu.Lock()
	r.conn, r.channel, r.lastErr = conn, ch, nil
	r.mu.Unlock()

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	go r.watch(closed)

	r.logger.Info().Str("service", r.service).Msg("connected to RabbitMQ")
	return nil
}

// watch records why the connection went away. A nil error means Close was
// called.
func (r *RabbitMQ) watch(closed <-chan *amqp.Error) {
	amqpErr, ok := <-closed
	if !ok || amqpErr == nil {
		return
	}
	r.mu.Lock()
	r.lastErr = amqpErr
	r.mu.Unlock()
	r.logger.Error().Err(amqpErr).Msg("RabbitMQ connection lost")
}

// Channel returns the current channel
func (r *RabbitMQ) Channel() *amqp.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.channel
}

// Close closes the RabbitMQ connection
func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			r.logger.Warn().Err(err).Msg("failed to close channel")
		}
	}
	if r.conn != nil {
		if err := r.conn.Close(); err != nil {
			return fmt.Errorf("failed to close connection: %w", err)
		}
	}

	r.logger.Info().Msg("RabbitMQ connection closed")
	return nil
}

// Health reports whether the connection is open.
func (r *RabbitMQ) Health() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.conn == nil || r.conn.IsClosed() {
		status := map[string]string{"status": "down", "error": "connection closed"}
		if r.lastErr != nil {
			status["error"] = r.lastErr.Error()
		}
		return status
	}
	return map[string]string{"status": "up"}
}

// DeadLetterExchange is the exchange rejected messages of this service go to.
func (r *RabbitMQ) DeadLetterExchange() string {
	return "dlx." + r.service
}

// DeclareExchange declares a durable topic exchange.
func (r *RabbitMQ) DeclareExchange(name string) error {
	return r.Channel().ExchangeDeclare(name, amqp.ExchangeTopic, true, false, false, false, nil)
}

// DeclareQueue declares a durable queue that dead-letters into the
// service's DLX.
func (r *RabbitMQ) DeclareQueue(name string) (amqp.Queue, error) {
	return r.Channel().QueueDeclare(name, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange": r.DeadLetterExchange(),
	})
}

// BindQueue binds a queue to an exchange with a routing key pattern
func (r *RabbitMQ) BindQueue(queueName, exchange, routingKey string) error {
	return r.Channel().QueueBind(queueName, routingKey, exchange, false, nil)
}

func (r *RabbitMQ) declareDeadLetter() error {
	dlx := r.DeadLetterExchange()
	if err := r.DeclareExchange(dlx); err != nil {
		return fmt.Errorf("failed to declare DLX %s: %w", dlx, err)
	}

	dlq := "dlq." + r.service
	if _, err := r.Channel().QueueDeclare(dlq, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare DLQ %s: %w", dlq, err)
	}
	if err := r.BindQueue(dlq, dlx, "#"); err != nil {
		return fmt.Errorf("failed to bind DLQ %s: %w", dlq, err)
	}
	return nil
}
