package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQP publishes events to RabbitMQ through the default exchange, one
// durable queue per event type, as persistent JSON messages.
//
// The connection is opened lazily and reopened after a failure, so a broker
// restart heals itself on the next publish.
type AMQP struct {
	url    string
	logger *slog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

var _ Publisher = (*AMQP)(nil)

// NewAMQP dials the broker once to fail fast on a bad URL and declares the
// queues.
func NewAMQP(url string, logger *slog.Logger) (*AMQP, error) {
	p := &AMQP{url: url, logger: logger}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.channelLocked(); err != nil {
		return nil, err
	}
	return p, nil
}

// channelLocked returns an open channel, dialing if needed. p.mu must be held.
func (p *AMQP) channelLocked() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.resetLocked()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("events: dialing broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("events: opening channel: %w", err)
	}
	for _, q := range []string{QueuePeriodMarked, QueueUserEliminated} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("events: declaring queue %s: %w", q, err)
		}
	}

	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *AMQP) resetLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

func (p *AMQP) publish(ctx context.Context, queue string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events: encoding %s: %w", queue, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channelLocked()
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		p.resetLocked()
		return fmt.Errorf("events: publishing to %s: %w", queue, err)
	}

	p.logger.Debug("event published", slog.String("queue", queue))
	return nil
}

func (p *AMQP) PublishPeriodMarked(ctx context.Context, e PeriodMarked) error {
	return p.publish(ctx, QueuePeriodMarked, e)
}

func (p *AMQP) PublishUserEliminated(ctx context.Context, e UserEliminated) error {
	return p.publish(ctx, QueueUserEliminated, e)
}

func (p *AMQP) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
	return nil
}
