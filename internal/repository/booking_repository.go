package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cinebook/movie-ticket-booking/internal/model"
)

// BookingRepo persists booking records.  Each row carries the
// denormalized tickets_data snapshot so cancellation and listing never
// read the live seat map.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// Create inserts a booking.  ErrDuplicate is returned when the booking
// ID already exists.  The row's created_at defaults in the database; it
// is queried back so the returned record is complete.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	raw, err := json.Marshal(b.TicketsData)
	if err != nil {
		return err
	}
	const q = `INSERT INTO bookings (booking_id, user_email, show_id, tickets_data, status)
			   VALUES (?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, b.BookingID, b.UserEmail, b.ShowID, raw, b.Status); err != nil {
		return mapDuplicate(err)
	}
	return r.db.QueryRowContext(ctx,
		`SELECT created_at FROM bookings WHERE booking_id = ?`, b.BookingID,
	).Scan(&b.CreatedAt)
}

// GetByID loads one booking, returning ErrBookingNotFound when absent.
func (r *BookingRepo) GetByID(ctx context.Context, bookingID string) (*model.Booking, error) {
	const q = `SELECT booking_id, user_email, show_id, tickets_data, status, created_at
			   FROM bookings WHERE booking_id = ?`
	var (
		b   model.Booking
		raw []byte
	)
	err := r.db.QueryRowContext(ctx, q, bookingID).Scan(
		&b.BookingID, &b.UserEmail, &b.ShowID, &raw, &b.Status, &b.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &b.TicketsData); err != nil {
		return nil, fmt.Errorf("decode tickets data for booking %s: %w", bookingID, err)
	}
	return &b, nil
}

// Delete removes a booking.  Deleting a booking that is already gone is
// a no-op so a cancellation can be retried after a partial failure.
func (r *BookingRepo) Delete(ctx context.Context, bookingID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE booking_id = ?`, bookingID)
	return err
}

// ListByUser returns the caller's bookings, newest first.  The email
// must come from the verified identity, never from client input.
func (r *BookingRepo) ListByUser(ctx context.Context, userEmail string) ([]model.Booking, error) {
	const q = `SELECT booking_id, user_email, show_id, tickets_data, status, created_at
			   FROM bookings WHERE user_email = ? ORDER BY created_at DESC`
	return r.queryBookings(ctx, q, userEmail)
}

// ListAll returns every booking, newest first.  Admin only.
func (r *BookingRepo) ListAll(ctx context.Context) ([]model.Booking, error) {
	const q = `SELECT booking_id, user_email, show_id, tickets_data, status, created_at
			   FROM bookings ORDER BY created_at DESC`
	return r.queryBookings(ctx, q)
}

// ListByShow returns every booking against one show.  The reminder duty
// uses this to fan out notifications.
func (r *BookingRepo) ListByShow(ctx context.Context, showID string) ([]model.Booking, error) {
	const q = `SELECT booking_id, user_email, show_id, tickets_data, status, created_at
			   FROM bookings WHERE show_id = ? ORDER BY created_at`
	return r.queryBookings(ctx, q, showID)
}

// DeleteByShowIDs removes every booking referencing any of the given
// show IDs in one statement and reports how many rows went away.  An
// empty ID list deletes nothing.
func (r *BookingRepo) DeleteByShowIDs(ctx context.Context, showIDs []string) (int64, error) {
	if len(showIDs) == 0 {
		return 0, nil
	}
	placeholders := strings.Repeat("?,", len(showIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, len(showIDs))
	for i, id := range showIDs {
		args[i] = id
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM bookings WHERE show_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *BookingRepo) queryBookings(ctx context.Context, q string, args ...interface{}) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	bookings := make([]model.Booking, 0)
	for rows.Next() {
		var (
			b   model.Booking
			raw []byte
		)
		if err := rows.Scan(&b.BookingID, &b.UserEmail, &b.ShowID, &raw, &b.Status, &b.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &b.TicketsData); err != nil {
			return nil, fmt.Errorf("decode tickets data for booking %s: %w", b.BookingID, err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
