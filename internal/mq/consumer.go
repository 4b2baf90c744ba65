package mq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer wraps the durable command queue for one robot: declare, bind,
// set QoS, consume.
type Consumer struct {
	ch       *amqp.Channel
	queue    string
	robotID  string
	exchange string
}

// NewConsumer declares robotID's durable command queue, binds it to
// exchange under its cmd routing key, and applies the configured prefetch.
func NewConsumer(conn *Connection, robotID string, prefetch int) (*Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	queue := RobotQueue(robotID)
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("declaring queue %s: %w", queue, err)
	}

	routingKey := CommandRoutingKey(robotID)
	if err := ch.QueueBind(queue, routingKey, conn.Exchange(), false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("binding queue %s to %s: %w", queue, routingKey, err)
	}

	if err := ch.Qos(prefetch, 0, false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("setting prefetch: %w", err)
	}

	return &Consumer{ch: ch, queue: queue, robotID: robotID, exchange: conn.Exchange()}, nil
}

// Deliveries starts consuming and returns the delivery channel. Callers ack
// or nack each delivery themselves; this consumer never auto-acks.
func (c *Consumer) Deliveries() (<-chan amqp.Delivery, error) {
	deliveries, err := c.ch.Consume(c.queue, c.robotID+"-worker", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consuming from %s: %w", c.queue, err)
	}
	return deliveries, nil
}

// Close closes the consumer's channel, stopping delivery.
func (c *Consumer) Close() error {
	return c.ch.Close()
}
