package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/cinema-ticket-portal/internal/apiclient"
	"github.com/iliyamo/cinema-ticket-portal/internal/booking"
	"github.com/iliyamo/cinema-ticket-portal/internal/discount"
	"github.com/iliyamo/cinema-ticket-portal/internal/middleware"
	"github.com/iliyamo/cinema-ticket-portal/internal/model"
)

// BookingHandler drives the booking wizard.  Each session has at most one
// wizard; starting a new booking replaces it.
type BookingHandler struct {
	Drafts booking.Store
	Log    *slog.Logger
}

// SeatView is one cell of the seat grid.
type SeatView struct {
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// WizardView is what every wizard endpoint returns.
type WizardView struct {
	Step          booking.Step    `json:"step"`
	TicketCount   int             `json:"ticket_count"`
	SelectedSeats []string        `json:"selected_seats"`
	Schedule      model.Schedule  `json:"schedule"`
	Seats         []SeatView      `json:"seats"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	CanProceed    bool            `json:"can_proceed"`
	Quote         *model.Quote    `json:"quote,omitempty"`
}

func newWizardView(w *booking.Wizard) WizardView {
	labels := booking.ScheduleSeats(w.Schedule)
	seats := make([]SeatView, len(labels))
	for i, l := range labels {
		seats[i] = SeatView{Label: l, Selected: slices.Contains(w.SelectedSeats, l)}
	}
	return WizardView{
		Step:          w.Step,
		TicketCount:   w.TicketCount,
		SelectedSeats: w.SelectedSeats,
		Schedule:      w.Schedule,
		Seats:         seats,
		Subtotal:      w.Subtotal(),
		CanProceed:    w.CanProceed(),
		Quote:         w.Quote,
	}
}

type startReq struct {
	ScheduleID int64 `json:"schedule_id"`
}

type ticketsReq struct {
	Count int `json:"count"`
}

// Start opens a wizard for a schedule at the ticket step.
func (h *BookingHandler) Start(c echo.Context) error {
	var req startReq
	if err := c.Bind(&req); err != nil || req.ScheduleID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "schedule_id is required"})
	}
	ctx := c.Request().Context()
	s, err := middleware.UpstreamFrom(c).FindSchedule(ctx, req.ScheduleID)
	if err != nil {
		if errors.Is(err, apiclient.ErrScheduleNotFound) || apiclient.IsNotFound(err) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		}
		return respondError(c, err)
	}
	sess := middleware.SessionFrom(c)
	w := booking.New(sess.ID, sess.User.ID, s)
	if err := h.Drafts.Save(ctx, w); err != nil {
		return respondError(c, err)
	}
	h.Log.Info("booking started", "session_id", sess.ID, "user_id", sess.User.ID, "schedule_id", s.ID)
	return c.JSON(http.StatusCreated, newWizardView(w))
}

// Get returns the session's wizard.
func (h *BookingHandler) Get(c echo.Context) error {
	w, err := h.load(c)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, newWizardView(w))
}

// Discard drops the session's wizard.
func (h *BookingHandler) Discard(c echo.Context) error {
	if err := h.Drafts.Delete(c.Request().Context(), middleware.SessionFrom(c).ID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SetTickets changes the ticket count, clearing the seat selection.
func (h *BookingHandler) SetTickets(c echo.Context) error {
	var req ticketsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	return h.mutate(c, func(w *booking.Wizard) error { return w.SetTicketCount(req.Count) })
}

// ToggleSeat selects or deselects a seat.  A click on a full selection is
// reported with added=false and removed=false.
func (h *BookingHandler) ToggleSeat(c echo.Context) error {
	w, err := h.load(c)
	if err != nil {
		return respondError(c, err)
	}
	res, err := w.ToggleSeat(c.Param("label"))
	if err != nil {
		return respondError(c, err)
	}
	if res.Added || res.Removed {
		if err := h.Drafts.Save(c.Request().Context(), w); err != nil {
			return respondError(c, err)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"toggle": res, "booking": newWizardView(w)})
}

// Advance moves to the seat step.
func (h *BookingHandler) Advance(c echo.Context) error {
	return h.mutate(c, (*booking.Wizard).Advance)
}

// Back returns to the ticket step.
func (h *BookingHandler) Back(c echo.Context) error {
	return h.mutate(c, (*booking.Wizard).Back)
}

// Proceed validates the wizard, resolves the discount for its subtotal and
// returns the draft with its quote.  The quote is kept on the wizard for
// checkout.
func (h *BookingHandler) Proceed(c echo.Context) error {
	ctx := c.Request().Context()
	w, err := h.load(c)
	if err != nil {
		return respondError(c, err)
	}
	draft, err := w.Proceed()
	if err != nil {
		return respondError(c, err)
	}
	q := discount.NewResolver(middleware.UpstreamFrom(c), h.Log).Resolve(ctx, draft.Schedule.ID, draft.TotalPrice)
	w.Quote = &q
	if err := h.Drafts.Save(ctx, w); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"draft": draft, "quote": q})
}

func (h *BookingHandler) load(c echo.Context) (*booking.Wizard, error) {
	return h.Drafts.Load(c.Request().Context(), middleware.SessionFrom(c).ID)
}

func (h *BookingHandler) mutate(c echo.Context, fn func(*booking.Wizard) error) error {
	w, err := h.load(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := fn(w); err != nil {
		return respondError(c, err)
	}
	if err := h.Drafts.Save(c.Request().Context(), w); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, newWizardView(w))
}
