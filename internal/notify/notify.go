// Package notify defines the notification gateway contract and the
// SMTP delivery backend.  Everything here runs after the reservation
// state has committed: a failed notification is logged and dropped,
// never surfaced to the request that triggered it.
package notify

import "context"

// Kind distinguishes the two notification flavours.
type Kind string

const (
	KindConfirmation Kind = "confirmation"
	KindReminder     Kind = "reminder"
)

// Payload is the booking+show+movie snapshot a notification is
// rendered from.  It is assembled before publishing so delivery never
// has to query the primary database.
type Payload struct {
	BookingID   string   `json:"booking_id"`
	ShowID      string   `json:"show_id"`
	MovieName   string   `json:"movie_name"`
	TheatreName string   `json:"theatre_name"`
	ShowDate    string   `json:"show_date"`
	ShowTime    string   `json:"show_time"`
	Seats       []string `json:"seats"`
}

// Notifier is the gateway the engine and scheduler hand notifications
// to.  Implementations must be safe for concurrent use.  Errors are for
// the caller's log only; callers never roll back on them.
type Notifier interface {
	Notify(ctx context.Context, kind Kind, recipient string, p Payload) error
}
