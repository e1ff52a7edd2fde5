package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AMQPPublisher delivers JSON events to a durable RabbitMQ queue through the default exchange.
type AMQPPublisher struct {
	url    string
	logger *zap.Logger

	mu       sync.Mutex
	conn     *amqp.Connection
	declared map[string]bool
}

// NewAMQPPublisher builds a publisher. The connection is opened lazily on first publish.
func NewAMQPPublisher(url string, logger *zap.Logger) *AMQPPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AMQPPublisher{url: url, logger: logger, declared: make(map[string]bool)}
}

// Publish marshals payload and sends it as a persistent message routed to queue.
func (p *AMQPPublisher) Publish(ctx context.Context, queue string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if !p.declared[queue] {
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			p.reset()
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}
		p.declared[queue] = true
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue, false, false, msg); err != nil {
		p.reset()
		return fmt.Errorf("publish to %s: %w", queue, err)
	}
	return nil
}

// Close releases the broker connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	return err
}

func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.conn == nil || p.conn.IsClosed() {
		conn, err := amqp.Dial(p.url)
		if err != nil {
			return nil, fmt.Errorf("dial amqp: %w", err)
		}
		p.conn = conn
		p.declared = make(map[string]bool)
		p.logger.Info("amqp connection established")
	}
	ch, err := p.conn.Channel()
	if err != nil {
		p.reset()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	return ch, nil
}

// reset drops the connection so the next publish redials.
func (p *AMQPPublisher) reset() {
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn = nil
	p.declared = make(map[string]bool)
}
