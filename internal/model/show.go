package model

import (
	"time"

	"github.com/cinebook/movie-ticket-booking/internal/seatmap"
)

// Show represents one scheduled screening of a movie at a theatre,
// together with its seat inventory.  The date and time of day are kept
// as separate strings exactly as stored ("2006-01-02" and "15:04") and
// are always interpreted in the single operational timezone.
//
// Fields:
//  ShowID      – unique identifier.
//  MovieID     – movie being screened.
//  TheatreName – venue name, denormalized onto the show.
//  ShowDate    – calendar date in "2006-01-02" form.
//  ShowTime    – time of day in "15:04" form.
//  Seats       – the per‑section seat map for this show.
//  SeatVersion – version counter guarding seat map writes.
//  CreatedAt   – creation timestamp in UTC.
type Show struct {
	ShowID      string      `json:"show_id"`
	MovieID     string      `json:"movie_id"`
	TheatreName string      `json:"theatre_name"`
	ShowDate    string      `json:"show_date"`
	ShowTime    string      `json:"show_time"`
	Seats       seatmap.Map `json:"tickets"`
	SeatVersion uint64      `json:"-"`
	CreatedAt   time.Time   `json:"created_at"`
}

// StartsAt combines ShowDate and ShowTime into a single instant in the
// given location.  The stored fields carry no zone of their own, so the
// caller must always pass the operational timezone.
func (s *Show) StartsAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", s.ShowDate+" "+s.ShowTime, loc)
}
