package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/foxseedlab/mensetsu/internal/events"
	"github.com/streadway/amqp"
)

const exchangeKind = "topic"

// AMQPPublisher publishes session updates to a topic exchange with routing
// key session.<id>. The connection is opened on first use and reopened after
// the broker drops it.
type AMQPPublisher struct {
	url      string
	exchange string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPPublisher(url, exchange string) *AMQPPublisher {
	return &AMQPPublisher{url: url, exchange: exchange}
}

func (p *AMQPPublisher) PublishSessionUpdate(_ context.Context, update events.SessionUpdate) error {
	routingKey, msg, err := encodeSessionUpdate(update)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ensureChannelLocked(); err != nil {
		return err
	}
	if err := p.ch.Publish(p.exchange, routingKey, false, false, msg); err != nil {
		p.resetLocked()
		return fmt.Errorf("publish session update: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
	return nil
}

func (p *AMQPPublisher) ensureChannelLocked() error {
	if p.conn != nil && !p.conn.IsClosed() && p.ch != nil {
		return nil
	}
	p.resetLocked()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open rabbitmq channel: %w", err)
	}
	if err := ch.ExchangeDeclare(p.exchange, exchangeKind, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("declare exchange %s: %w", p.exchange, err)
	}
	slog.Info("rabbitmq publisher connected", "exchange", p.exchange)
	p.conn = conn
	p.ch = ch
	return nil
}

func (p *AMQPPublisher) resetLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

func encodeSessionUpdate(update events.SessionUpdate) (string, amqp.Publishing, error) {
	body, err := json.Marshal(update)
	if err != nil {
		return "", amqp.Publishing{}, fmt.Errorf("marshal session update: %w", err)
	}
	return fmt.Sprintf("session.%s", update.SessionID), amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   update.Timestamp,
		Body:        body,
	}, nil
}

// DisabledPublisher is used when no broker URL is configured.
type DisabledPublisher struct{}

func (DisabledPublisher) PublishSessionUpdate(context.Context, events.SessionUpdate) error {
	return nil
}
