package model

// Movie is the catalogue entry returned by GET /api/movies/{id} and embedded
// in every schedule.  The portal never writes movies; the struct mirrors the
// upstream payload with JSON tags so it can be relayed to the browser as is.
//
// Fields:
//  ID        – upstream movie id.
//  Title     – display title.
//  Synopsis  – free text description (may be empty).
//  Duration  – running time in minutes.
//  Genre     – genre label.
//  PosterURL – absolute poster image URL.
//  Rating    – age rating such as "R13".
type Movie struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Synopsis  string `json:"synopsis,omitempty"`
	Duration  int    `json:"duration,omitempty"`
	Genre     string `json:"genre,omitempty"`
	PosterURL string `json:"poster_url,omitempty"`
	Rating    string `json:"rating,omitempty"`
}
