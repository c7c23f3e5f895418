// Package reservation implements the seat claim and cancellation
// engine.  All seat-map writes go through an optimistic
// compare-and-swap on the owning show's version, so concurrent claims
// against the same show serialize through retries while claims on
// different shows never contend.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/cinebook/movie-ticket-booking/internal/clock"
	"github.com/cinebook/movie-ticket-booking/internal/model"
	"github.com/cinebook/movie-ticket-booking/internal/notify"
	"github.com/cinebook/movie-ticket-booking/internal/repository"
	"github.com/cinebook/movie-ticket-booking/internal/seatmap"
)

// ShowStore is the slice of show persistence the engine needs: a
// versioned read and a conditional seat-map write.
type ShowStore interface {
	GetByID(ctx context.Context, showID string) (*model.Show, error)
	CompareAndSwapSeatMap(ctx context.Context, showID string, version uint64, m seatmap.Map) error
}

// BookingStore is the booking persistence the engine needs.  Delete
// must be idempotent so an interrupted cancellation can be re-run.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, bookingID string) (*model.Booking, error)
	Delete(ctx context.Context, bookingID string) error
}

// Catalog resolves movie metadata for notification payloads.  A lookup
// failure only degrades the email contents, never the reservation.
type Catalog interface {
	GetByID(ctx context.Context, movieID string) (*model.Movie, error)
}

// maxCASRetries bounds how often a claim or cancellation re-reads and
// re-attempts the seat-map swap before giving up with ErrContended.
const maxCASRetries = 5

// notifyTimeout bounds the post-commit notification attempt.  It is
// detached from the request's own context on purpose: the caller has
// already been acknowledged.
const notifyTimeout = 10 * time.Second

// Engine turns claim requests into all-or-nothing seat allocations plus
// booking records, and cancellations into the symmetric release.
type Engine struct {
	shows    ShowStore
	bookings BookingStore
	catalog  Catalog
	notifier notify.Notifier
	clk      clock.Clock
}

// NewEngine builds an Engine.  catalog and notifier may be nil; the
// engine then skips payload enrichment or notification entirely.
func NewEngine(shows ShowStore, bookings BookingStore, catalog Catalog, notifier notify.Notifier, clk clock.Clock) *Engine {
	if shows == nil || bookings == nil {
		panic("nil store passed to NewEngine")
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Engine{shows: shows, bookings: bookings, catalog: catalog, notifier: notifier, clk: clk}
}

// ClaimRequest asks for the given seats on one show.  BookingID may be
// empty, in which case the engine generates one.
type ClaimRequest struct {
	ShowID      string
	BookingID   string
	UserEmail   string
	TicketsData seatmap.TicketsData
}

// Claim atomically claims every requested seat and creates the booking.
// Either all requested seats transition from free to occupied and the
// booking is persisted, or nothing changes.  It returns
// repository.ErrShowNotFound, a *SeatConflictError listing the taken
// seats, or ErrContended when the retry budget is exhausted.
func (e *Engine) Claim(ctx context.Context, req ClaimRequest) (*model.Booking, error) {
	tickets, err := req.TicketsData.Normalize()
	if err != nil {
		return nil, err
	}
	bookingID := req.BookingID
	if bookingID == "" {
		bookingID = uuid.NewString()
	}
	occ := seatmap.Occupancy{UserEmail: req.UserEmail, BookingID: bookingID}

	for attempt := 0; attempt < maxCASRetries; attempt++ {
		show, err := e.shows.GetByID(ctx, req.ShowID)
		if err != nil {
			return nil, err
		}

		var conflicts []seatmap.SeatRef
		for _, ref := range tickets.Refs() {
			if !show.Seats.IsFree(ref.Section, ref.SeatID) {
				conflicts = append(conflicts, ref)
			}
		}
		if len(conflicts) > 0 {
			return nil, &SeatConflictError{ShowID: req.ShowID, Seats: conflicts}
		}

		next := show.Seats.Clone()
		for _, ref := range tickets.Refs() {
			if err := next.Claim(ref.Section, ref.SeatID, occ); err != nil {
				// Unreachable after the free check above, but a claim on
				// the clone must never pass silently.
				return nil, &SeatConflictError{ShowID: req.ShowID, Seats: []seatmap.SeatRef{ref}}
			}
		}

		err = e.shows.CompareAndSwapSeatMap(ctx, req.ShowID, show.SeatVersion, next)
		if errors.Is(err, repository.ErrVersionConflict) {
			continue // someone else won this round; re-read and retry
		}
		if err != nil {
			return nil, err
		}

		booking := &model.Booking{
			BookingID:   bookingID,
			UserEmail:   req.UserEmail,
			ShowID:      req.ShowID,
			TicketsData: tickets,
			Status:      model.BookingStatusActive,
			CreatedAt:   e.clk.Now(),
		}
		if err := e.bookings.Create(ctx, booking); err != nil {
			// The seats are claimed but the booking row failed; free the
			// seats again so no occupancy points at a missing booking.
			if relErr := e.releaseSeats(ctx, req.ShowID, bookingID, tickets); relErr != nil {
				log.Printf("reservation: seat release after failed booking create did not go through: booking=%s show=%s: %v",
					bookingID, req.ShowID, relErr)
				return nil, fmt.Errorf("create booking: %w (seat release also failed: %v)", err, relErr)
			}
			return nil, err
		}

		e.postCommitNotify(notify.KindConfirmation, booking, show)
		return booking, nil
	}
	return nil, ErrContended
}

// Cancel releases every seat held by the booking across all sections
// and deletes the booking record.  Only the booking's owner (or an
// admin) may cancel.  When the show itself is already gone the seats
// are moot and only the booking is removed.
func (e *Engine) Cancel(ctx context.Context, bookingID, requestorEmail string, admin bool) error {
	booking, err := e.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if !admin && booking.UserEmail != requestorEmail {
		return repository.ErrForbidden
	}
	if err := e.releaseSeats(ctx, booking.ShowID, booking.BookingID, booking.TicketsData); err != nil {
		return err
	}
	return e.bookings.Delete(ctx, bookingID)
}

// releaseSeats frees the booking's seats in the show's map via the same
// bounded CAS loop used for claims.  Every section is walked through
// the identical path; a seat that is already free, or that has been
// re-claimed under a different booking, is left alone.
func (e *Engine) releaseSeats(ctx context.Context, showID, bookingID string, tickets seatmap.TicketsData) error {
	for attempt := 0; attempt < maxCASRetries; attempt++ {
		show, err := e.shows.GetByID(ctx, showID)
		if errors.Is(err, repository.ErrShowNotFound) {
			return nil // show retired; its inventory no longer matters
		}
		if err != nil {
			return err
		}

		next := show.Seats.Clone()
		changed := false
		for _, ref := range tickets.Refs() {
			st := next.State(ref.Section, ref.SeatID)
			if st.Occupied && st.Occupancy.BookingID == bookingID {
				next.Release(ref.Section, ref.SeatID)
				changed = true
			}
		}
		if !changed {
			return nil
		}

		err = e.shows.CompareAndSwapSeatMap(ctx, showID, show.SeatVersion, next)
		if errors.Is(err, repository.ErrVersionConflict) {
			continue
		}
		if errors.Is(err, repository.ErrShowNotFound) {
			return nil
		}
		return err
	}
	return ErrContended
}

// postCommitNotify fires the confirmation in a detached goroutine with
// its own timeout.  By the time it runs the caller has been answered;
// failures are logged and dropped.
func (e *Engine) postCommitNotify(kind notify.Kind, booking *model.Booking, show *model.Show) {
	if e.notifier == nil {
		return
	}
	payload := notify.Payload{
		BookingID:   booking.BookingID,
		ShowID:      show.ShowID,
		TheatreName: show.TheatreName,
		ShowDate:    show.ShowDate,
		ShowTime:    show.ShowTime,
		Seats:       booking.TicketsData.Labels(),
	}
	recipient := booking.UserEmail
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if e.catalog != nil {
			if movie, err := e.catalog.GetByID(ctx, show.MovieID); err == nil {
				payload.MovieName = movie.MovieName
			} else {
				log.Printf("reservation: movie lookup for notification failed: %v", err)
			}
		}
		if err := e.notifier.Notify(ctx, kind, recipient, payload); err != nil {
			log.Printf("reservation: %s notification for booking %s failed: %v", kind, payload.BookingID, err)
		}
	}()
}
