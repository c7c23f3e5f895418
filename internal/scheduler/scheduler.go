// Package scheduler runs the two periodic duties over booking and show
// state: reminding users shortly before their show starts, and purging
// bookings whose show has already begun.  Both duties are idempotent
// and read time in the single operational timezone.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/cinebook/movie-ticket-booking/internal/clock"
	"github.com/cinebook/movie-ticket-booking/internal/model"
	"github.com/cinebook/movie-ticket-booking/internal/notify"
)

// ShowSource is the slice of show persistence the duties read.
type ShowSource interface {
	StartingBetween(ctx context.Context, from, to time.Time) ([]model.Show, error)
	PastShowIDs(ctx context.Context, now time.Time) ([]string, error)
}

// BookingSource lists and bulk-deletes bookings.  The bulk delete never
// touches the seat map; a past show's inventory is moot.
type BookingSource interface {
	ListByShow(ctx context.Context, showID string) ([]model.Booking, error)
	DeleteByShowIDs(ctx context.Context, showIDs []string) (int64, error)
}

// Catalog resolves movie names for reminder payloads.
type Catalog interface {
	GetByID(ctx context.Context, movieID string) (*model.Movie, error)
}

// Scheduler owns the reminder and cleanup loops.  The two duties share
// nothing but the store and may run concurrently with each other and
// with live traffic.
type Scheduler struct {
	shows    ShowSource
	bookings BookingSource
	catalog  Catalog
	notifier notify.Notifier
	clk      clock.Clock
	loc      *time.Location

	lookahead     time.Duration // how far before a show the reminder fires
	reminderEvery time.Duration // reminder cadence; also the match window width
	cleanupEvery  time.Duration // cleanup cadence
}

// New builds a Scheduler.  catalog and notifier may be nil, in which
// case reminders degrade to log lines or are skipped entirely.
func New(shows ShowSource, bookings BookingSource, catalog Catalog, notifier notify.Notifier, clk clock.Clock, loc *time.Location, lookahead, reminderEvery, cleanupEvery time.Duration) *Scheduler {
	if shows == nil || bookings == nil {
		panic("nil source passed to scheduler.New")
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		shows:         shows,
		bookings:      bookings,
		catalog:       catalog,
		notifier:      notifier,
		clk:           clk,
		loc:           loc,
		lookahead:     lookahead,
		reminderEvery: reminderEvery,
		cleanupEvery:  cleanupEvery,
	}
}

// Run starts both duty loops and blocks until ctx is cancelled.  Duty
// failures are logged only; a failed tick never stops the loop.
func (s *Scheduler) Run(ctx context.Context) {
	reminder := time.NewTicker(s.reminderEvery)
	cleanup := time.NewTicker(s.cleanupEvery)
	defer reminder.Stop()
	defer cleanup.Stop()

	log.Printf("scheduler: reminder every %s (lookahead %s), cleanup every %s, timezone %s",
		s.reminderEvery, s.lookahead, s.cleanupEvery, s.loc)

	for {
		select {
		case <-ctx.Done():
			return
		case <-reminder.C:
			if err := s.RunReminderOnce(ctx); err != nil {
				log.Printf("scheduler: reminder duty failed: %v", err)
			}
		case <-cleanup.C:
			n, err := s.RunCleanupOnce(ctx)
			if err != nil {
				log.Printf("scheduler: cleanup duty failed: %v", err)
				continue
			}
			log.Printf("scheduler: cleanup removed %d old bookings", n)
		}
	}
}

// RunReminderOnce performs one pass of the reminder duty: shows whose
// start lies in [now+lookahead, now+lookahead+cadence) get one reminder
// per active booking.  There is no persisted "sent" marker; the window
// is as wide as the cadence, so the guarantee is best-effort
// at-most-once per window, not exactly-once.
func (s *Scheduler) RunReminderOnce(ctx context.Context) error {
	now := s.clk.Now().In(s.loc)
	from := now.Add(s.lookahead)
	to := from.Add(s.reminderEvery)

	shows, err := s.shows.StartingBetween(ctx, from, to)
	if err != nil {
		return err
	}
	for _, show := range shows {
		bookings, err := s.bookings.ListByShow(ctx, show.ShowID)
		if err != nil {
			log.Printf("scheduler: list bookings for show %s failed: %v", show.ShowID, err)
			continue
		}
		if len(bookings) == 0 {
			continue
		}
		movieName := ""
		if s.catalog != nil {
			if movie, err := s.catalog.GetByID(ctx, show.MovieID); err == nil {
				movieName = movie.MovieName
			} else {
				log.Printf("scheduler: movie lookup for show %s failed: %v", show.ShowID, err)
			}
		}
		for _, b := range bookings {
			if s.notifier == nil {
				continue
			}
			payload := notify.Payload{
				BookingID:   b.BookingID,
				ShowID:      show.ShowID,
				MovieName:   movieName,
				TheatreName: show.TheatreName,
				ShowDate:    show.ShowDate,
				ShowTime:    show.ShowTime,
				Seats:       b.TicketsData.Labels(),
			}
			if err := s.notifier.Notify(ctx, notify.KindReminder, b.UserEmail, payload); err != nil {
				log.Printf("scheduler: reminder for booking %s failed: %v", b.BookingID, err)
			}
		}
	}
	return nil
}

// RunCleanupOnce performs one pass of the cleanup duty: every booking
// referencing a show that has already started is deleted in one bulk
// operation.  Running it again immediately is harmless; the selection
// finds nothing left to delete.
func (s *Scheduler) RunCleanupOnce(ctx context.Context) (int64, error) {
	now := s.clk.Now().In(s.loc)
	ids, err := s.shows.PastShowIDs(ctx, now)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return s.bookings.DeleteByShowIDs(ctx, ids)
}
