package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/cinebook/movie-ticket-booking/internal/model"
	"github.com/cinebook/movie-ticket-booking/internal/repository"
	"github.com/cinebook/movie-ticket-booking/internal/seatmap"
)

// ShowHandler manages screenings.  Reads are public; writes are admin
// only and enforced at the router.
type ShowHandler struct {
	Shows    *repository.ShowRepo
	Movies   *repository.MovieRepo
	Bookings *repository.BookingRepo
}

func NewShowHandler(shows *repository.ShowRepo, movies *repository.MovieRepo, bookings *repository.BookingRepo) *ShowHandler {
	return &ShowHandler{Shows: shows, Movies: movies, Bookings: bookings}
}

type addShowReq struct {
	MovieID     string `json:"movieId"`
	TheatreName string `json:"theatreName"`
	ShowDate    string `json:"showDate"` // "2006-01-02"
	ShowTime    string `json:"showTime"` // "15:04"
}

// AddShow creates a screening with an empty seat map.
func (h *ShowHandler) AddShow(c echo.Context) error {
	var req addShowReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.TheatreName = strings.TrimSpace(req.TheatreName)
	if req.MovieID == "" || req.TheatreName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "movieId/theatreName required"})
	}
	if _, err := time.Parse("2006-01-02", req.ShowDate); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "showDate must be YYYY-MM-DD"})
	}
	if _, err := time.Parse("15:04", req.ShowTime); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "showTime must be HH:MM"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Movies.GetByID(ctx, req.MovieID); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	s := &model.Show{
		ShowID:      uuid.NewString(),
		MovieID:     req.MovieID,
		TheatreName: req.TheatreName,
		ShowDate:    req.ShowDate,
		ShowTime:    req.ShowTime,
		Seats:       seatmap.New(),
	}
	if err := h.Shows.Create(ctx, s); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "show already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create show failed"})
	}
	return c.JSON(http.StatusCreated, s)
}

// GetMovieShows lists all screenings of one movie, each with its
// current seat occupancy counts.
func (h *ShowHandler) GetMovieShows(c echo.Context) error {
	movieID := c.Param("movieId")
	if movieID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "movieId required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Shows.ListByMovie(ctx, movieID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	type showSummary struct {
		model.Show
		OccupiedSeats int `json:"occupiedSeats"`
	}
	out := make([]showSummary, 0, len(list))
	for i := range list {
		out = append(out, showSummary{Show: list[i], OccupiedSeats: list[i].Seats.OccupiedCount()})
	}
	return c.JSON(http.StatusOK, echo.Map{"shows": out})
}

// GetShow returns one screening with its full seat map, so clients can
// render which seats are free.
func (h *ShowHandler) GetShow(c echo.Context) error {
	showID := c.Param("showId")
	if showID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "showId required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Shows.GetByID(ctx, showID)
	if err != nil {
		if errors.Is(err, repository.ErrShowNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, s)
}

// DeleteShow removes a screening and every booking made against it.
func (h *ShowHandler) DeleteShow(c echo.Context) error {
	showID := c.Param("showId")
	if showID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "showId required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if _, err := h.Bookings.DeleteByShowIDs(ctx, []string{showID}); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete bookings failed"})
	}
	if err := h.Shows.Delete(ctx, showID); err != nil {
		if errors.Is(err, repository.ErrShowNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "show deleted"})
}
