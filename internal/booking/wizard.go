// Package booking holds the booking wizard: the guarded state machine that
// takes a customer from ticket count to seat selection to a draft ready for
// payment, plus the seat grid it selects from and the stores that keep a
// wizard alive between requests.
package booking

import (
	"errors"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/cinema-ticket-portal/internal/model"
)

// Step is the wizard's position.  Payment is not a step: Proceed hands a
// Draft to the payment flow instead.
type Step int

const (
	StepTickets Step = 1
	StepSeats   Step = 2
)

// Ticket count bounds offered by the ticket picker.
const (
	MinTickets = 1
	MaxTickets = 8
)

var (
	ErrInvalidTicketCount = errors.New("ticket count must be between 1 and 8")
	ErrInvalidTransition  = errors.New("transition not allowed from current step")
	ErrSeatCountMismatch  = errors.New("selected seats must match ticket count")
	ErrUnknownSeat        = errors.New("seat is not part of this studio")
	ErrWrongStep          = errors.New("seats can only be chosen on the seat step")
)

// Wizard is the per-session booking state.  Fields are exported so the
// stores can serialize it; all mutation goes through the methods, and
// Proceed re-validates the whole state so a tampered or stale record can
// never produce an invalid Draft.
type Wizard struct {
	SessionID     string         `json:"session_id"`
	UserID        int64          `json:"user_id"`
	Schedule      model.Schedule `json:"schedule"`
	Step          Step           `json:"step"`
	TicketCount   int            `json:"ticket_count"`
	SelectedSeats []string       `json:"selected_seats"`
	Quote         *model.Quote   `json:"quote,omitempty"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Draft is the wizard's output: the booking as handed to the payment view.
type Draft struct {
	Schedule      model.Schedule  `json:"schedule"`
	SelectedSeats []string        `json:"selected_seats"`
	TicketCount   int             `json:"ticket_count"`
	TotalPrice    decimal.Decimal `json:"total_price"`
}

// New starts a wizard for a schedule at the ticket step with one ticket.
func New(sessionID string, userID int64, s model.Schedule) *Wizard {
	return &Wizard{
		SessionID:     sessionID,
		UserID:        userID,
		Schedule:      s,
		Step:          StepTickets,
		TicketCount:   MinTickets,
		SelectedSeats: []string{},
		UpdatedAt:     time.Now().UTC(),
	}
}

// SetTicketCount changes the number of tickets and always clears the seat
// selection, so picks made for another count never survive.
func (w *Wizard) SetTicketCount(n int) error {
	if n < MinTickets || n > MaxTickets {
		return ErrInvalidTicketCount
	}
	w.TicketCount = n
	w.SelectedSeats = []string{}
	w.touch()
	return nil
}

// ToggleResult tells the caller what a toggle did.  Both false means the
// click was ignored because the selection was already full.
type ToggleResult struct {
	Added   bool `json:"added"`
	Removed bool `json:"removed"`
}

// ToggleSeat deselects a selected seat, or selects it while fewer than
// TicketCount seats are chosen.  Extra clicks on a full selection are
// ignored without error.
func (w *Wizard) ToggleSeat(label string) (ToggleResult, error) {
	if w.Step != StepSeats {
		return ToggleResult{}, ErrWrongStep
	}
	rows, cols := w.Schedule.Studio.Shape()
	label, ok := parseSeat(rows, cols, label)
	if !ok {
		return ToggleResult{}, ErrUnknownSeat
	}
	if i := slices.Index(w.SelectedSeats, label); i >= 0 {
		w.SelectedSeats = slices.Delete(w.SelectedSeats, i, i+1)
		w.touch()
		return ToggleResult{Removed: true}, nil
	}
	if len(w.SelectedSeats) >= w.TicketCount {
		return ToggleResult{}, nil
	}
	w.SelectedSeats = append(w.SelectedSeats, label)
	w.touch()
	return ToggleResult{Added: true}, nil
}

// Advance moves from the ticket step to the seat step.
func (w *Wizard) Advance() error {
	if w.Step != StepTickets {
		return ErrInvalidTransition
	}
	w.Step = StepSeats
	w.touch()
	return nil
}

// Back returns from the seat step to the ticket step, keeping the seats.
func (w *Wizard) Back() error {
	if w.Step != StepSeats {
		return ErrInvalidTransition
	}
	w.Step = StepTickets
	w.touch()
	return nil
}

// CanProceed reports whether Proceed would succeed.
func (w *Wizard) CanProceed() bool {
	_, err := w.Proceed()
	return err == nil
}

// Proceed validates the wizard and returns the Draft for payment.  It is
// allowed only on the seat step with exactly TicketCount distinct seats,
// all inside the studio.
func (w *Wizard) Proceed() (Draft, error) {
	if w.Step != StepSeats {
		return Draft{}, ErrInvalidTransition
	}
	if w.TicketCount < MinTickets || w.TicketCount > MaxTickets {
		return Draft{}, ErrInvalidTicketCount
	}
	if len(w.SelectedSeats) != w.TicketCount {
		return Draft{}, ErrSeatCountMismatch
	}
	rows, cols := w.Schedule.Studio.Shape()
	seen := make(map[string]struct{}, len(w.SelectedSeats))
	for _, s := range w.SelectedSeats {
		if !validSeat(rows, cols, s) {
			return Draft{}, ErrUnknownSeat
		}
		if _, dup := seen[s]; dup {
			return Draft{}, ErrSeatCountMismatch
		}
		seen[s] = struct{}{}
	}
	return Draft{
		Schedule:      w.Schedule,
		SelectedSeats: slices.Clone(w.SelectedSeats),
		TicketCount:   w.TicketCount,
		TotalPrice:    w.Subtotal(),
	}, nil
}

// Subtotal is the undiscounted price of the current ticket count.
func (w *Wizard) Subtotal() decimal.Decimal {
	return w.Schedule.Price.Mul(decimal.NewFromInt(int64(w.TicketCount)))
}

// touch records a change and drops any discount quote, which was computed
// for the previous selection.
func (w *Wizard) touch() {
	w.Quote = nil
	w.UpdatedAt = time.Now().UTC()
}
