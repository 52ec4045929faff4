// Package service provides functions to publish domain events to RabbitMQ.
// Errors are logged and returned so callers can ignore failures without
// interrupting the main request flow.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/cinema-ticket-portal/internal/queue"
)

// Publisher announces payment events.
type Publisher interface {
	PublishPaymentSucceeded(ctx context.Context, ev queue.PaymentSucceededEvent) error
}

// NopPublisher drops every event.  Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishPaymentSucceeded(context.Context, queue.PaymentSucceededEvent) error {
	return nil
}

// AMQPPublisher publishes to RabbitMQ.  Each publish dials its own
// connection; payment events are rare enough that pooling buys nothing.
type AMQPPublisher struct {
	URL string
}

// PublishPaymentSucceeded sends ev to the payment.succeeded queue as a
// persistent JSON message.
func (p AMQPPublisher) PublishPaymentSucceeded(ctx context.Context, ev queue.PaymentSucceededEvent) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		slog.Warn("rabbitmq: dial failed", "error", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		slog.Warn("rabbitmq: channel open failed", "error", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		queue.PaymentSucceededQueue, // name
		true,                        // durable
		false,                       // autoDelete
		false,                       // exclusive
		false,                       // noWait
		nil,                         // args
	); err != nil {
		slog.Warn("rabbitmq: queue declare failed", "error", err)
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err = ch.PublishWithContext(pubCtx,
		"",                          // default exchange
		queue.PaymentSucceededQueue, // routing key
		false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    time.Now().UTC(),
			Body:         body,
		})
	if err != nil {
		slog.Warn("rabbitmq: publish failed", "order_id", ev.OrderID, "error", err)
		return err
	}
	return nil
}
