package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/cinebook/movie-ticket-booking/internal/model"
)

// MovieRepo persists catalog metadata.  The core reads movies only to
// enrich notification payloads; writes come from admin endpoints.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo returns a MovieRepo bound to the given database.
func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

// Create inserts a movie.  Genres are stored as a JSON array.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	genres, err := json.Marshal(m.Genres)
	if err != nil {
		return err
	}
	const q = `INSERT INTO movies (movie_id, movie_name, description, genres, runtime_min, media_url)
			   VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, m.MovieID, m.MovieName, m.Description, genres, m.RuntimeMin, m.MediaURL); err != nil {
		return mapDuplicate(err)
	}
	return nil
}

// GetByID loads one movie, returning ErrMovieNotFound when absent.
func (r *MovieRepo) GetByID(ctx context.Context, movieID string) (*model.Movie, error) {
	const q = `SELECT movie_id, movie_name, description, genres, runtime_min, media_url, created_at
			   FROM movies WHERE movie_id = ?`
	var (
		m      model.Movie
		genres []byte
	)
	err := r.db.QueryRowContext(ctx, q, movieID).Scan(
		&m.MovieID, &m.MovieName, &m.Description, &genres, &m.RuntimeMin, &m.MediaURL, &m.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMovieNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(genres, &m.Genres); err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns the whole catalog ordered by name.
func (r *MovieRepo) List(ctx context.Context) ([]model.Movie, error) {
	const q = `SELECT movie_id, movie_name, description, genres, runtime_min, media_url, created_at
			   FROM movies ORDER BY movie_name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	movies := make([]model.Movie, 0)
	for rows.Next() {
		var (
			m      model.Movie
			genres []byte
		)
		if err := rows.Scan(&m.MovieID, &m.MovieName, &m.Description, &genres, &m.RuntimeMin, &m.MediaURL, &m.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(genres, &m.Genres); err != nil {
			return nil, err
		}
		movies = append(movies, m)
	}
	return movies, rows.Err()
}

// Delete removes a movie from the catalog.
func (r *MovieRepo) Delete(ctx context.Context, movieID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM movies WHERE movie_id = ?`, movieID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrMovieNotFound
	}
	return nil
}
