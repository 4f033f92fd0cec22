package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Client publishes and consumes the service's two message streams on one
// direct exchange: transaction-change events and mail jobs, each on its own
// durable queue.
type Client struct {
	conn       *amqp091.Connection
	channel    *amqp091.Channel
	exchange   string
	eventQueue string
	mailQueue  string
}

func NewClient(url, exchange, eventQueue, mailQueue string) (*Client, error) {
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
		conn:       conn,
		channel:    channel,
		exchange:   exchange,
		eventQueue: eventQueue,
		mailQueue:  mailQueue,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queues: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchange, // name
		"direct",   // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	for _, queue := range []string{c.eventQueue, c.mailQueue} {
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

		// Routing key matches the queue name on a direct exchange.
		err = c.channel.QueueBind(queue, queue, c.exchange, false, nil)
		if err != nil {
			return fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}

	return nil
}

// PublishTransactionChanged publishes an invalidation event for one
// (owner, year, month) aggregate key.
func (c *Client) PublishTransactionChanged(ctx context.Context, ownerID string, year, month int) error {
	msg := NewTransactionChangedMessage(ownerID, year, month)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := c.publish(ctx, c.eventQueue, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published transaction change event",
		"owner_id", ownerID,
		"year", year,
		"month", month,
		"queue", c.eventQueue)
	return nil
}

// PublishMailJob queues one outbound email.
func (c *Client) PublishMailJob(ctx context.Context, kind, recipient, name, ownerID string) error {
	msg := NewMailJobMessage(kind, recipient, name, ownerID)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := c.publish(ctx, c.mailQueue, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published mail job",
		"mail_kind", kind,
		"recipient", recipient,
		"queue", c.mailQueue)
	return nil
}

func (c *Client) publish(ctx context.Context, routingKey string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// ConsumeTransactionEvents delivers change events to the handler with manual
// acknowledgment. Handler errors requeue the delivery.
func (c *Client) ConsumeTransactionEvents(ctx context.Context, handler func(context.Context, *TransactionChangedMessage) error) error {
	return c.consume(ctx, c.eventQueue, func(ctx context.Context, body []byte) error {
		msg, err := TransactionChangedMessageFromJSON(body)
		if err != nil {
			return unmarshalError{err}
		}
		return handler(ctx, msg)
	})
}

// ConsumeMailJobs delivers mail jobs to the handler with manual
// acknowledgment. Handler errors requeue the delivery.
func (c *Client) ConsumeMailJobs(ctx context.Context, handler func(context.Context, *MailJobMessage) error) error {
	return c.consume(ctx, c.mailQueue, func(ctx context.Context, body []byte) error {
		msg, err := MailJobMessageFromJSON(body)
		if err != nil {
			return unmarshalError{err}
		}
		return handler(ctx, msg)
	})
}

// unmarshalError marks deliveries that can never succeed; they are dropped
// instead of requeued.
type unmarshalError struct{ error }

func (c *Client) consume(ctx context.Context, queue string, handle func(context.Context, []byte) error) error {
	msgs, err := c.channel.Consume(
		queue, // queue
		"",    // consumer
		false, // auto-ack (we want manual ack)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("start consuming %s: %w", queue, err)
	}

	slog.InfoContext(ctx, "Started consuming", "queue", queue)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "queue", queue, "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed for %s", queue)
			}

			err := handle(ctx, delivery.Body)
			switch err.(type) {
			case nil:
				if err := delivery.Ack(false); err != nil {
					slog.ErrorContext(ctx, "Failed to ack message", "queue", queue, "error", err)
				}
			case unmarshalError:
				slog.ErrorContext(ctx, "Dropping malformed message", "queue", queue, "error", err)
				if err := delivery.Nack(false, false); err != nil {
					slog.ErrorContext(ctx, "Failed to nack message", "queue", queue, "error", err)
				}
			default:
				slog.ErrorContext(ctx, "Handler failed, requeueing", "queue", queue, "error", err)
				if err := delivery.Nack(false, true); err != nil {
					slog.ErrorContext(ctx, "Failed to nack message", "queue", queue, "error", err)
				}
			}
		}
	}
}

// Close closes the channel and connection.
func (c *Client) Close() error {
	var firstErr error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			firstErr = err
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
