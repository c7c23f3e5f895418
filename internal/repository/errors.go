// Package repository implements MySQL persistence for shows, bookings,
// movies and auth records.  This file defines sentinel errors shared
// across repositories so that higher layers can distinguish failure
// scenarios with errors.Is instead of inspecting driver errors.
package repository

import "errors"

// ErrShowNotFound is returned when no show exists for the given ID.
var ErrShowNotFound = errors.New("show not found")

// ErrBookingNotFound is returned when no booking exists for the given ID.
var ErrBookingNotFound = errors.New("booking not found")

// ErrMovieNotFound is returned when no movie exists for the given ID.
var ErrMovieNotFound = errors.New("movie not found")

// ErrUserNotFound is returned when no account exists for the given email.
var ErrUserNotFound = errors.New("user not found")

// ErrVersionConflict is returned by CompareAndSwapSeatMap when the seat
// map changed since it was read.  Callers re-read and retry.
var ErrVersionConflict = errors.New("seat map version conflict")

// ErrDuplicate is returned when an insert violates a unique key, such
// as registering an email twice or reusing a booking ID.
var ErrDuplicate = errors.New("duplicate record")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.  Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")
