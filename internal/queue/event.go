// Package queue defines message payloads exchanged over the message broker.
package queue

// NotificationQueueName is the durable queue carrying booking
// confirmations from the engine to the notification worker.
const NotificationQueueName = "registration.confirmed"

// NotificationEvent is published after a reservation commits.  It
// contains the attendee contact and the rendered message so the
// consumer can hand it to an email/SMS gateway without querying the
// primary database.
type NotificationEvent struct {
    Name     string `json:"name"`
    Email    string `json:"email"`
    Phone    string `json:"phone"`
    Message  string `json:"message"`
    QueuedAt string `json:"queued_at"`
}
