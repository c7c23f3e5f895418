package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cinebook/movie-ticket-booking/internal/middleware"
	"github.com/cinebook/movie-ticket-booking/internal/model"
	"github.com/cinebook/movie-ticket-booking/internal/repository"
	"github.com/cinebook/movie-ticket-booking/internal/reservation"
	"github.com/cinebook/movie-ticket-booking/internal/seatmap"
)

// BookingLister is the read side the listing endpoints need.
type BookingLister interface {
	ListByUser(ctx context.Context, userEmail string) ([]model.Booking, error)
	ListAll(ctx context.Context) ([]model.Booking, error)
}

// BookingHandler exposes the booking lifecycle over HTTP.  All mutating
// work goes through the reservation engine; the handler only translates
// between JSON and engine errors and HTTP.
type BookingHandler struct {
	Engine   *reservation.Engine
	Bookings BookingLister
}

func NewBookingHandler(engine *reservation.Engine, bookings BookingLister) *BookingHandler {
	return &BookingHandler{Engine: engine, Bookings: bookings}
}

type addBookingReq struct {
	ShowID      string              `json:"showId"`
	TicketsData seatmap.TicketsData `json:"ticketsData"`
}

type bookingResp struct {
	BookingID   string              `json:"bookingId"`
	ShowID      string              `json:"showId"`
	UserEmail   string              `json:"userEmail"`
	TicketsData seatmap.TicketsData `json:"ticketsData"`
	Status      string              `json:"status"`
	CreatedAt   time.Time           `json:"createdAt"`
}

func toBookingResp(b *model.Booking) bookingResp {
	return bookingResp{
		BookingID:   b.BookingID,
		ShowID:      b.ShowID,
		UserEmail:   b.UserEmail,
		TicketsData: b.TicketsData,
		Status:      b.Status,
		CreatedAt:   b.CreatedAt,
	}
}

// AddBooking claims the requested seats for the authenticated user.
// The claim is all-or-nothing: if any requested seat is already taken
// the whole request fails with 409 and the conflicting seats.
func (h *BookingHandler) AddBooking(c echo.Context) error {
	var req addBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ShowID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "showId required"})
	}
	email, _ := c.Get(middleware.CtxUserEmail).(string)
	if email == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	booking, err := h.Engine.Claim(ctx, reservation.ClaimRequest{
		ShowID:      req.ShowID,
		UserEmail:   email,
		TicketsData: req.TicketsData,
	})
	if err != nil {
		var conflict *reservation.SeatConflictError
		switch {
		case errors.As(err, &conflict):
			taken := make([]string, len(conflict.Seats))
			for i, s := range conflict.Seats {
				taken[i] = s.String()
			}
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "seats already taken",
				"seats": taken,
			})
		case errors.Is(err, reservation.ErrContended):
			return c.JSON(http.StatusConflict, echo.Map{"error": "show is busy, please retry"})
		case errors.Is(err, repository.ErrShowNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
		case errors.Is(err, seatmap.ErrInvalidTickets):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
		}
	}
	return c.JSON(http.StatusCreated, toBookingResp(booking))
}

// CancelBooking releases the booking's seats and removes the booking.
// Users may cancel only their own bookings; admins may cancel any.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
	bookingID := c.Param("bookingId")
	if bookingID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bookingId required"})
	}
	email, _ := c.Get(middleware.CtxUserEmail).(string)
	role, _ := c.Get(middleware.CtxRole).(string)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	err := h.Engine.Cancel(ctx, bookingID, email, role == model.RoleAdmin)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"message": "booking cancelled"})
	case errors.Is(err, repository.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, reservation.ErrContended):
		return c.JSON(http.StatusConflict, echo.Map{"error": "show is busy, please retry"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}
}

// GetBookings lists the authenticated user's own bookings.
func (h *BookingHandler) GetBookings(c echo.Context) error {
	email, _ := c.Get(middleware.CtxUserEmail).(string)
	if email == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Bookings.ListByUser(ctx, email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]bookingResp, 0, len(list))
	for i := range list {
		out = append(out, toBookingResp(&list[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}

// GetAllBookings lists every booking in the system.  Admin only.
func (h *BookingHandler) GetAllBookings(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Bookings.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]bookingResp, 0, len(list))
	for i := range list {
		out = append(out, toBookingResp(&list[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}
