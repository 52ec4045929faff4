// Package payment hands a booking draft to the payment widget and settles
// the outcome: recording the transaction, confirming it with the backend
// and announcing it to the rest of the system.
package payment

import (
	"context"
	"errors"
	"sync"

	"github.com/iliyamo/cinema-ticket-portal/internal/model"
)

// Outcome is what the widget reported.
type Outcome string

const (
	OutcomeSucceeded Outcome = "success"
	OutcomePending   Outcome = "pending"
	OutcomeFailed    Outcome = "error"
	OutcomeClosed    Outcome = "close"
)

// ParseOutcome maps the widget's callback names (and common gateway
// transaction statuses) onto an Outcome.
func ParseOutcome(s string) (Outcome, bool) {
	switch s {
	case "success", "settlement", "capture":
		return OutcomeSucceeded, true
	case "pending":
		return OutcomePending, true
	case "error", "deny", "expire", "cancel", "failure":
		return OutcomeFailed, true
	case "close", "closed":
		return OutcomeClosed, true
	}
	return "", false
}

// Result is the single awaited answer of a widget session.  Detail carries
// the gateway's raw callback payload, forwarded to the backend on success.
type Result struct {
	Outcome Outcome        `json:"outcome"`
	Detail  map[string]any `json:"detail,omitempty"`
}

// Provider runs a payment widget for an intent and blocks until it reports
// an outcome or ctx ends.
type Provider interface {
	Pay(ctx context.Context, intent model.PaymentIntent) (Result, error)
}

// Preparer is implemented by providers that must learn about an intent
// before the widget can report on it.
type Preparer interface {
	Prepare(intent model.PaymentIntent)
}

// ErrNoPendingPayment is returned when an outcome arrives for an order no
// one is waiting on.
var ErrNoPendingPayment = errors.New("no payment waiting for this order")

// Bridge is the Provider used by the portal.  The widget itself runs in
// the browser: the browser receives the token, opens the widget and posts
// the widget's callback back, which Report routes to the waiting Pay.
type Bridge struct {
	mu      sync.Mutex
	waiting map[string]chan Result
}

// NewBridge returns an empty bridge.
func NewBridge() *Bridge {
	return &Bridge{waiting: map[string]chan Result{}}
}

// Prepare opens a slot for intent so a report that races ahead of Pay is
// not lost.
func (b *Bridge) Prepare(intent model.PaymentIntent) {
	b.slot(intent.OrderID)
}

func (b *Bridge) slot(orderID string) chan Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.waiting[orderID]
	if !ok {
		ch = make(chan Result, 1)
		b.waiting[orderID] = ch
	}
	return ch
}

// Pay waits for the browser's report.  Cancellation or timeout of ctx is
// reported as a closed widget.
func (b *Bridge) Pay(ctx context.Context, intent model.PaymentIntent) (Result, error) {
	ch := b.slot(intent.OrderID)
	defer func() {
		b.mu.Lock()
		delete(b.waiting, intent.OrderID)
		b.mu.Unlock()
	}()
	select {
	case r := <-ch:
		return r, nil
	case <-ctx.Done():
		return Result{Outcome: OutcomeClosed}, ctx.Err()
	}
}

// Report delivers the widget outcome for an order.  Only the first report
// per order is accepted.
func (b *Bridge) Report(orderID string, r Result) error {
	b.mu.Lock()
	ch, ok := b.waiting[orderID]
	b.mu.Unlock()
	if !ok {
		return ErrNoPendingPayment
	}
	select {
	case ch <- r:
		return nil
	default:
		return ErrNoPendingPayment
	}
}

// Pending returns how many orders are waiting on a report.
func (b *Bridge) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.waiting)
}
