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
)

// MovieHandler manages the movie catalog.  Reads are public; writes
// are admin only and enforced at the router.
type MovieHandler struct {
	Movies *repository.MovieRepo
}

func NewMovieHandler(movies *repository.MovieRepo) *MovieHandler {
	return &MovieHandler{Movies: movies}
}

type addMovieReq struct {
	MovieName   string   `json:"movieName"`
	Description string   `json:"description"`
	Genres      []string `json:"genres"`
	RuntimeMin  int      `json:"runtimeMin"`
	MediaURL    string   `json:"mediaUrl"`
}

// AddMovie creates a catalog entry.
func (h *MovieHandler) AddMovie(c echo.Context) error {
	var req addMovieReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.MovieName = strings.TrimSpace(req.MovieName)
	if req.MovieName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "movieName required"})
	}
	if req.RuntimeMin < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "runtimeMin must not be negative"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m := &model.Movie{
		MovieID:     uuid.NewString(),
		MovieName:   req.MovieName,
		Description: req.Description,
		Genres:      req.Genres,
		RuntimeMin:  uint32(req.RuntimeMin),
		MediaURL:    req.MediaURL,
	}
	if err := h.Movies.Create(ctx, m); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "movie already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create movie failed"})
	}
	return c.JSON(http.StatusCreated, m)
}

// GetMovies lists the whole catalog.
func (h *MovieHandler) GetMovies(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Movies.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"movies": list})
}

// GetMovie returns one movie by ID.
func (h *MovieHandler) GetMovie(c echo.Context) error {
	movieID := c.Param("movieId")
	if movieID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "movieId required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Movies.GetByID(ctx, movieID)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, m)
}

// DeleteMovie removes a movie.  Shows that reference it keep working;
// their notifications just lose the movie name.
func (h *MovieHandler) DeleteMovie(c echo.Context) error {
	movieID := c.Param("movieId")
	if movieID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "movieId required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Movies.Delete(ctx, movieID); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "movie deleted"})
}
