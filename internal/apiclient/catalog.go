package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/iliyamo/cinema-ticket-portal/internal/model"
)

// ErrScheduleNotFound is returned by FindSchedule when no listed schedule
// has the requested id.
var ErrScheduleNotFound = errors.New("schedule not found")

// ListSchedules returns every schedule the backend currently offers.
func (c *Client) ListSchedules(ctx context.Context) ([]model.Schedule, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/schedules", nil)
	if err != nil {
		return nil, err
	}
	if env.IsNull() {
		return []model.Schedule{}, nil
	}
	var out []model.Schedule
	if err := env.Decode(&out); err != nil {
		return nil, fmt.Errorf("schedules: %w", err)
	}
	return out, nil
}

// FindSchedule looks a schedule up by id.  The backend has no single
// schedule endpoint, so the list is fetched and scanned.
func (c *Client) FindSchedule(ctx context.Context, id int64) (model.Schedule, error) {
	list, err := c.ListSchedules(ctx)
	if err != nil {
		return model.Schedule{}, err
	}
	for _, s := range list {
		if s.ID == id {
			return s, nil
		}
	}
	return model.Schedule{}, ErrScheduleNotFound
}

// GetMovie returns the movie with the given id.
func (c *Client) GetMovie(ctx context.Context, id int64) (model.Movie, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/movies/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return model.Movie{}, err
	}
	var m model.Movie
	if err := env.Decode(&m); err != nil {
		return model.Movie{}, fmt.Errorf("movie %d: %w", id, err)
	}
	return m, nil
}
