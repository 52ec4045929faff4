package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-portal/internal/apiclient"
	"github.com/iliyamo/cinema-ticket-portal/internal/booking"
	"github.com/iliyamo/cinema-ticket-portal/internal/middleware"
	"github.com/iliyamo/cinema-ticket-portal/internal/model"
)

// BrowseHandler serves the public catalog: schedules and movie details.
// Backend failures degrade to empty lists or 404s so the catalog pages
// always render.
type BrowseHandler struct {
	Log *slog.Logger
}

// ScheduleDetail is a schedule with the seat labels of its studio.
type ScheduleDetail struct {
	model.Schedule
	Seats []string `json:"seats"`
}

// ListSchedules returns every schedule.  Response JSON contains an "items"
// array; it is empty when the backend cannot be read.
func (h *BrowseHandler) ListSchedules(c echo.Context) error {
	items, err := middleware.UpstreamFrom(c).ListSchedules(c.Request().Context())
	if err != nil {
		h.Log.Warn("list schedules failed", "error", err)
		items = []model.Schedule{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetSchedule returns one schedule and its seat grid.
func (h *BrowseHandler) GetSchedule(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
	}
	s, err := middleware.UpstreamFrom(c).FindSchedule(c.Request().Context(), id)
	if err != nil {
		if !errors.Is(err, apiclient.ErrScheduleNotFound) {
			h.Log.Warn("find schedule failed", "schedule_id", id, "error", err)
		}
		return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
	}
	return c.JSON(http.StatusOK, ScheduleDetail{Schedule: s, Seats: booking.ScheduleSeats(s)})
}

// GetMovie returns a movie's details.
func (h *BrowseHandler) GetMovie(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	m, err := middleware.UpstreamFrom(c).GetMovie(c.Request().Context(), id)
	if err != nil {
		if !apiclient.IsNotFound(err) {
			h.Log.Warn("get movie failed", "movie_id", id, "error", err)
		}
		return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
	}
	return c.JSON(http.StatusOK, m)
}
