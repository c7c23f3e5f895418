package model

import "time"

// Movie holds the catalog metadata for a film.  The core only reads
// movies to enrich notification payloads; creation and updates belong
// to the admin catalog endpoints.
//
// Fields:
//  MovieID     – unique identifier.
//  MovieName   – display title.
//  Description – synopsis text.
//  Genres      – one or more genre labels.
//  RuntimeMin  – runtime in minutes.
//  MediaURL    – poster or artwork URL.
//  CreatedAt   – creation timestamp in UTC.
type Movie struct {
	MovieID     string    `json:"movie_id"`
	MovieName   string    `json:"movie_name"`
	Description string    `json:"description"`
	Genres      []string  `json:"genres"`
	RuntimeMin  uint32    `json:"runtime_min"`
	MediaURL    string    `json:"media"`
	CreatedAt   time.Time `json:"created_at"`
}
