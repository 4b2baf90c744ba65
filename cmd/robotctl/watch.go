package main

import (
	"fmt"
	"os"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/cobra"

	"github.com/bic-labs/mock-robot-worker/internal/mq"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print every result, log, and heartbeat message a robot publishes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd)
		},
	}
}

func runWatch(cmd *cobra.Command) error {
	conn, err := connect(cmd)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	queue, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("declaring watch queue: %w", err)
	}

	robotID, _ := cmd.Flags().GetString("robot")
	bindingKeys := []string{mq.ResultRoutingKey(robotID), mq.LogRoutingKey(robotID), mq.HeartbeatRoutingKey(robotID)}
	for _, bindingKey := range bindingKeys {
		if err := ch.QueueBind(queue.Name, bindingKey, conn.Exchange(), false, nil); err != nil {
			return fmt.Errorf("binding watch queue: %w", err)
		}
	}

	deliveries, err := ch.Consume(queue.Name, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("consuming watch queue: %w", err)
	}

	fmt.Fprintf(os.Stdout, "watching %s (routing keys %s)...\n", robotID, strings.Join(bindingKeys, ", "))
	for d := range deliveries {
		printDelivery(d)
	}
	return nil
}

func printDelivery(d amqp.Delivery) {
	fmt.Fprintf(os.Stdout, "[%s] %s\n", d.RoutingKey, string(d.Body))
}
