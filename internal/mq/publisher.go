package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher serializes all publishes on one channel. amqp091-go channels
// are not safe for concurrent Publish calls, so every publish goes through
// this mutex rather than relying on the library.
type Publisher struct {
	mu       sync.Mutex
	ch       *amqp.Channel
	exchange string
	logger   *slog.Logger
}

// NewPublisher opens a dedicated channel on conn for publishing.
func NewPublisher(conn *Connection, logger *slog.Logger) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	return &Publisher{ch: ch, exchange: conn.Exchange(), logger: logger}, nil
}

// PublishJSON marshals payload and publishes it to routingKey. persistent
// controls the delivery mode; the result, log and heartbeat publishers all
// pass true.
func (p *Publisher) PublishJSON(ctx context.Context, routingKey string, payload any, persistent bool) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload for %s: %w", routingKey, err)
	}

	mode := amqp.Transient
	if persistent {
		mode = amqp.Persistent
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: mode,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", routingKey, err)
	}
	return nil
}

// Close closes the publisher's channel.
func (p *Publisher) Close() error {
	return p.ch.Close()
}
