// Package notify provides the engine's Notifier implementation: booking
// confirmations are published to a durable RabbitMQ queue and picked up
// by the notification worker.  Errors are logged and returned so
// callers can ignore failures without interrupting the main flow.
package notify

import (
    "context"
    "encoding/json"
    "log"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/slot-reservation/internal/model"
    q "github.com/iliyamo/slot-reservation/internal/queue"
)

// QueueNotifier implements service.Notifier by publishing persistent
// NotificationEvent messages to the registration.confirmed queue.  The
// allocator treats delivery as fire-and-forget; a broker outage can
// never fail or roll back a committed reservation.
type QueueNotifier struct {
    url string
}

// NewQueueNotifier resolves the broker endpoint from the environment.
func NewQueueNotifier() *QueueNotifier {
    return &QueueNotifier{url: q.BrokerURL()}
}

// Send publishes one confirmation message.  The function attempts to be
// robust and never panic; any error is logged and returned so the
// caller can choose to ignore it.
func (n *QueueNotifier) Send(ctx context.Context, contact model.Contact, message string) error {
    conn, err := amqp.Dial(n.url)
    if err != nil {
        log.Printf("rabbitmq: dial failed: %v", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.Printf("rabbitmq: channel open failed: %v", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    // Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(
        q.NotificationQueueName, // name
        true,                    // durable
        false,                   // autoDelete
        false,                   // exclusive
        false,                   // noWait
        nil,                     // args
    ); err != nil {
        log.Printf("rabbitmq: queue declare failed: %v", err)
        return err
    }

    event := q.NotificationEvent{
        Name:     contact.Name,
        Email:    contact.Email,
        Phone:    contact.Phone,
        Message:  message,
        QueuedAt: time.Now().UTC().Format(time.RFC3339),
    }
    body, err := json.Marshal(event)
    if err != nil {
        log.Printf("rabbitmq: marshal event failed: %v", err)
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", q.NotificationQueueName, false, false, pub); err != nil {
        log.Printf("rabbitmq: publish failed: %v", err)
        return err
    }
    return nil
}
