// Package queue moves booking notifications through RabbitMQ.  The API
// server publishes events and a background consumer renders and sends
// the corresponding emails, so a slow SMTP server never blocks a
// booking request.
package queue

import "github.com/cinebook/movie-ticket-booking/internal/notify"

// Queue names, one per notification kind.  Both are durable.
const (
	ConfirmedQueue = "booking.confirmed"
	ReminderQueue  = "booking.reminder"
)

// NotificationEvent is the message body for both queues.  It carries
// everything a consumer needs to render the email without querying the
// primary database.
type NotificationEvent struct {
	Kind        notify.Kind    `json:"kind"`
	Recipient   string         `json:"recipient"`
	Payload     notify.Payload `json:"payload"`
	PublishedAt string         `json:"published_at"`
}

// queueFor maps a notification kind to its queue name.
func queueFor(kind notify.Kind) string {
	if kind == notify.KindReminder {
		return ReminderQueue
	}
	return ConfirmedQueue
}
