package model

import "github.com/shopspring/decimal"

// Schedule represents a single screening of a movie in a studio at a given
// date and time.  Schedules are created by the backend and are read-only
// here.  The studio's shape drives the seat grid shown during booking.
//
// Fields:
//  ID       – upstream schedule id.
//  MovieID  – id of the movie (duplicated by some payloads).
//  Movie    – embedded movie summary.
//  Studio   – embedded studio, including its seat layout.
//  ShowDate – date in YYYY-MM-DD.
//  ShowTime – time in HH:MM or HH:MM:SS.
//  Price    – ticket price per seat.
type Schedule struct {
	ID       int64           `json:"id"`
	MovieID  int64           `json:"movie_id,omitempty"`
	Movie    Movie           `json:"movie"`
	Studio   Studio          `json:"studio"`
	ShowDate string          `json:"show_date"`
	ShowTime string          `json:"show_time"`
	Price    decimal.Decimal `json:"price"`
}
