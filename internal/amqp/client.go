// Package amqp carries the observability and administrative side channels:
// degraded-aggregation events out, cache-clear commands in. The client is
// optional; without AMQP configuration the application runs without it.
package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

type Client struct {
	conn          *amqp091.Connection
	channel       *amqp091.Channel
	exchangeName  string
	eventsQueue   string
	commandsQueue string
}

func NewClient(url, exchangeName, eventsQueue, commandsQueue string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:          conn,
		channel:       channel,
		exchangeName:  exchangeName,
		eventsQueue:   eventsQueue,
		commandsQueue: commandsQueue,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queues: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	for _, queue := range []string{c.eventsQueue, c.commandsQueue} {
		_, err = c.channel.QueueDeclare(
			queue, // name
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}

		// Routing key mirrors the queue name on a direct exchange.
		if err := c.channel.QueueBind(queue, queue, c.exchangeName, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}

	return nil
}

// PublishAggregationDegraded publishes a degraded-aggregation event.
// Satisfies the aggregation service's publisher port.
func (c *Client) PublishAggregationDegraded(ctx context.Context, operation, key, cause string) error {
	event := NewDegradedEvent(operation, key, cause)
	body, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.eventsQueue,  // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	slog.DebugContext(ctx, "published degraded-aggregation event",
		"operation", operation,
		"key", key,
		"queue", c.eventsQueue)

	return nil
}

// ConsumeCacheClear consumes administrative cache-clear commands and invokes
// handler for each. Blocks until ctx is cancelled or the channel closes.
func (c *Client) ConsumeCacheClear(ctx context.Context, handler func(*CacheClearCommand) error) error {
	msgs, err := c.channel.Consume(
		c.commandsQueue, // queue
		"",              // consumer
		false,           // auto-ack (we want manual ack)
		false,           // exclusive
		false,           // no-local
		false,           // no-wait
		nil,             // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "listening for cache-clear commands", "queue", c.commandsQueue)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "stopping command consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			cmd, err := CacheClearCommandFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "failed to unmarshal command", "error", err)
				delivery.Nack(false, false) // reject and don't requeue
				continue
			}

			if err := handler(cmd); err != nil {
				slog.ErrorContext(ctx, "cache-clear handler failed", "error", err)
				delivery.Nack(false, true) // reject and requeue
				continue
			}

			delivery.Ack(false)
			slog.InfoContext(ctx, "cache cleared by command", "requested_by", cmd.RequestedBy)
		}
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
