package model

import (
	"time"

	"github.com/cinebook/movie-ticket-booking/internal/seatmap"
)

// BookingStatusActive is the only status ever persisted.  A booking is
// created active and is deleted on cancellation or by the reaper; there
// is no archived terminal row.
const BookingStatusActive = "ACTIVE"

// Booking records one successful atomic seat claim by one user against
// one show.  TicketsData duplicates the claimed section→seat set from
// the show's seat map at creation time so that cancellation and listing
// never need to consult the live map.
//
// Fields:
//  BookingID   – unique identifier, client‑supplied or server‑generated.
//  UserEmail   – verified identity of the booking owner.
//  ShowID      – show the seats were claimed against.
//  TicketsData – snapshot of seat IDs per section at claim time.
//  Status      – always ACTIVE while the row exists.
//  CreatedAt   – creation timestamp in UTC.
type Booking struct {
	BookingID   string              `json:"booking_id"`
	UserEmail   string              `json:"user_email"`
	ShowID      string              `json:"show_id"`
	TicketsData seatmap.TicketsData `json:"tickets_data"`
	Status      string              `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
}
