// Package mq wraps the AMQP topic-exchange wire contract: a durable
// exchange, one command queue per robot, and three outbound routing keys
// (result, log, heartbeat).
package mq

import (
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Connection owns the broker TCP connection and the exchange it's built
// around. Per-channel publishing is safe because each Publisher gets its
// own channel; the connection itself is never used for publishing directly.
type Connection struct {
	conn     *amqp.Connection
	exchange string
	logger   *slog.Logger
}

// Dial connects to the broker at url and declares exchange as a durable
// topic exchange, idempotently.
func Dial(url, exchange string, logger *slog.Logger) (*Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dialing broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening declare channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declaring exchange %s: %w", exchange, err)
	}

	return &Connection{conn: conn, exchange: exchange, logger: logger}, nil
}

// Channel opens a fresh AMQP channel on this connection.
func (c *Connection) Channel() (*amqp.Channel, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("opening channel: %w", err)
	}
	return ch, nil
}

// Exchange returns the declared exchange name.
func (c *Connection) Exchange() string {
	return c.exchange
}

// Close closes the underlying broker connection.
func (c *Connection) Close() error {
	return c.conn.Close()
}

// NotifyClose proxies the underlying connection's close notifications, for
// callers that want to detect an unexpected disconnect.
func (c *Connection) NotifyClose() chan *amqp.Error {
	return c.conn.NotifyClose(make(chan *amqp.Error, 1))
}
