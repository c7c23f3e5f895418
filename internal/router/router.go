// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/cinebook/movie-ticket-booking/internal/handler"
	"github.com/cinebook/movie-ticket-booking/internal/middleware"
	"github.com/cinebook/movie-ticket-booking/internal/model"
)

// Handlers collects every handler the router needs.
type Handlers struct {
	Auth    *handler.AuthHandler
	Booking *handler.BookingHandler
	Movie   *handler.MovieHandler
	Show    *handler.ShowHandler
}

// Register wires all routes under /api.  Catalog reads are public;
// the booking lifecycle requires a valid token, and catalog writes
// plus the all-bookings listing additionally require the ADMIN role.
func Register(e *echo.Echo, h Handlers, jwtSecret string) {
	e.GET("/healthz", handler.Health)

	api := e.Group("/api")

	// Auth: no token required.
	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)

	// Public catalog reads.
	api.GET("/movies/getmovies", h.Movie.GetMovies)
	api.GET("/movies/getmovie/:movieId", h.Movie.GetMovie)
	api.GET("/shows/getmovieshows/:movieId", h.Show.GetMovieShows)
	api.GET("/shows/getshow/:showId", h.Show.GetShow)

	// Booking lifecycle: any authenticated user.
	user := api.Group("/bookings")
	user.Use(middleware.JWTAuth(jwtSecret))
	user.POST("/addbooking", h.Booking.AddBooking)
	user.GET("/getbookings", h.Booking.GetBookings)
	user.PUT("/cancelbooking/:bookingId", h.Booking.CancelBooking)

	// Admin surface: catalog writes and the global booking listing.
	admin := api.Group("")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.POST("/movies/addmovie", h.Movie.AddMovie)
	admin.DELETE("/movies/deletemovie/:movieId", h.Movie.DeleteMovie)
	admin.POST("/shows/addshow", h.Show.AddShow)
	admin.DELETE("/shows/deleteshow/:showId", h.Show.DeleteShow)
	admin.GET("/bookings/getallbookings", h.Booking.GetAllBookings)
}
