package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cinebook/movie-ticket-booking/internal/model"
	"github.com/cinebook/movie-ticket-booking/internal/seatmap"
)

// ShowRepo persists shows and their embedded seat maps.  The seat map
// lives in a single JSON column next to a seat_version counter; every
// seat-map write goes through CompareAndSwapSeatMap so that concurrent
// claims on the same show serialize through the version check rather
// than a lock.
type ShowRepo struct {
	db *sql.DB
}

// NewShowRepo returns a ShowRepo bound to the given database.
func NewShowRepo(db *sql.DB) *ShowRepo { return &ShowRepo{db: db} }

// Create inserts a new show.  The seat map may be empty but must not be
// nil; seat_version starts at 1.  ErrDuplicate is returned when the
// show ID is already taken.
func (r *ShowRepo) Create(ctx context.Context, s *model.Show) error {
	raw, err := json.Marshal(s.Seats)
	if err != nil {
		return err
	}
	const q = `INSERT INTO shows (show_id, movie_id, theatre_name, show_date, show_time, seat_map, seat_version)
			   VALUES (?, ?, ?, ?, ?, ?, 1)`
	if _, err := r.db.ExecContext(ctx, q, s.ShowID, s.MovieID, s.TheatreName, s.ShowDate, s.ShowTime, raw); err != nil {
		return mapDuplicate(err)
	}
	s.SeatVersion = 1
	return nil
}

// GetByID loads a show including its seat map and current version.  It
// returns ErrShowNotFound when no row exists.
func (r *ShowRepo) GetByID(ctx context.Context, showID string) (*model.Show, error) {
	const q = `SELECT show_id, movie_id, theatre_name, show_date, show_time, seat_map, seat_version, created_at
			   FROM shows WHERE show_id = ?`
	var (
		s   model.Show
		raw []byte
	)
	err := r.db.QueryRowContext(ctx, q, showID).Scan(
		&s.ShowID, &s.MovieID, &s.TheatreName, &s.ShowDate, &s.ShowTime, &raw, &s.SeatVersion, &s.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShowNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &s.Seats); err != nil {
		return nil, fmt.Errorf("decode seat map for show %s: %w", showID, err)
	}
	if s.Seats == nil {
		s.Seats = seatmap.New()
	}
	return &s, nil
}

// CompareAndSwapSeatMap writes a new seat map for the show, but only if
// the version the caller read is still current.  On success the stored
// version is incremented.  It returns ErrVersionConflict when another
// writer got there first and ErrShowNotFound when the show is gone.
func (r *ShowRepo) CompareAndSwapSeatMap(ctx context.Context, showID string, version uint64, m seatmap.Map) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	const q = `UPDATE shows SET seat_map = ?, seat_version = seat_version + 1
			   WHERE show_id = ? AND seat_version = ?`
	res, err := r.db.ExecContext(ctx, q, raw, showID, version)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	// Distinguish a lost race from a deleted show.
	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM shows WHERE show_id = ?`, showID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrShowNotFound
	}
	if err != nil {
		return err
	}
	return ErrVersionConflict
}

// ListByMovie returns all shows for a movie ordered by date then time.
func (r *ShowRepo) ListByMovie(ctx context.Context, movieID string) ([]model.Show, error) {
	const q = `SELECT show_id, movie_id, theatre_name, show_date, show_time, seat_map, seat_version, created_at
			   FROM shows WHERE movie_id = ? ORDER BY show_date, show_time`
	return r.queryShows(ctx, q, movieID)
}

// StartingBetween returns every show whose start instant lies in
// [from, to).  Both bounds must already be expressed in the operational
// timezone; the comparison is done on the stored date and time-of-day
// strings, splitting into two predicates when the window crosses
// midnight.
func (r *ShowRepo) StartingBetween(ctx context.Context, from, to time.Time) ([]model.Show, error) {
	fromDate, fromTime := from.Format("2006-01-02"), from.Format("15:04")
	toDate, toTime := to.Format("2006-01-02"), to.Format("15:04")

	const sel = `SELECT show_id, movie_id, theatre_name, show_date, show_time, seat_map, seat_version, created_at
				 FROM shows WHERE `
	if fromDate == toDate {
		return r.queryShows(ctx,
			sel+`show_date = ? AND show_time >= ? AND show_time < ?`,
			fromDate, fromTime, toTime)
	}
	return r.queryShows(ctx,
		sel+`(show_date = ? AND show_time >= ?) OR (show_date = ? AND show_time < ?)`,
		fromDate, fromTime, toDate, toTime)
}

// PastShowIDs returns the IDs of every show whose start instant is
// strictly before now.  The cleanup duty feeds these into the bulk
// booking delete.
func (r *ShowRepo) PastShowIDs(ctx context.Context, now time.Time) ([]string, error) {
	nowDate, nowTime := now.Format("2006-01-02"), now.Format("15:04")
	const q = `SELECT show_id FROM shows
			   WHERE show_date < ? OR (show_date = ? AND show_time < ?)`
	rows, err := r.db.QueryContext(ctx, q, nowDate, nowDate, nowTime)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Delete removes a show.  Bookings against it are left to the cleanup
// duty; the seat inventory of a deleted show is moot.
func (r *ShowRepo) Delete(ctx context.Context, showID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM shows WHERE show_id = ?`, showID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrShowNotFound
	}
	return nil
}

func (r *ShowRepo) queryShows(ctx context.Context, q string, args ...interface{}) ([]model.Show, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	shows := make([]model.Show, 0)
	for rows.Next() {
		var (
			s   model.Show
			raw []byte
		)
		if err := rows.Scan(&s.ShowID, &s.MovieID, &s.TheatreName, &s.ShowDate, &s.ShowTime, &raw, &s.SeatVersion, &s.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &s.Seats); err != nil {
			return nil, fmt.Errorf("decode seat map for show %s: %w", s.ShowID, err)
		}
		if s.Seats == nil {
			s.Seats = seatmap.New()
		}
		shows = append(shows, s)
	}
	return shows, rows.Err()
}

// mapDuplicate converts a MySQL unique-key violation into ErrDuplicate
// and passes every other error through.
func mapDuplicate(err error) error {
	if err != nil && strings.Contains(err.Error(), "Error 1062") {
		return ErrDuplicate
	}
	return err
}
