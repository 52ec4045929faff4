// Package discount folds the backend's discount decision into the price
// shown on the payment view.
package discount

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/cinema-ticket-portal/internal/metrics"
	"github.com/iliyamo/cinema-ticket-portal/internal/model"
)

// Checker is the backend call the resolver depends on.  *apiclient.Client
// satisfies it.
type Checker interface {
	CheckDiscount(ctx context.Context, req model.DiscountCheckRequest) (*model.Discount, error)
}

// Resolver asks the backend for an applicable discount.  Failures never
// reach the caller: they are logged and the undiscounted quote is returned.
type Resolver struct {
	checker Checker
	log     *slog.Logger
}

// NewResolver returns a resolver.  A nil logger uses slog.Default().
func NewResolver(c Checker, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{checker: c, log: log}
}

// Resolve returns the quote for a schedule and subtotal.  It is called once
// per booking draft; nothing is cached.
func (r *Resolver) Resolve(ctx context.Context, scheduleID int64, subtotal decimal.Decimal) model.Quote {
	d, err := r.checker.CheckDiscount(ctx, model.DiscountCheckRequest{ScheduleID: scheduleID, Subtotal: subtotal})
	if err != nil {
		r.log.Warn("discount check failed; using subtotal", "schedule_id", scheduleID, "subtotal", subtotal.String(), "error", err)
		metrics.DiscountCheck("error")
		return model.Undiscounted(subtotal)
	}
	if d == nil {
		metrics.DiscountCheck("none")
		return model.Undiscounted(subtotal)
	}
	metrics.DiscountCheck("applied")
	return Apply(subtotal, *d)
}

// Apply merges a discount into a subtotal.  The server's discount_amount and
// final_total win when present; otherwise they are derived from the
// discount's type and amount.  The saving never exceeds the subtotal.
func Apply(subtotal decimal.Decimal, d model.Discount) model.Quote {
	saved := d.DiscountAmount
	if saved.IsZero() {
		switch d.Type {
		case model.DiscountPercentage:
			saved = subtotal.Mul(d.Amount).Div(decimal.NewFromInt(100)).Round(0)
		case model.DiscountNominal:
			saved = d.Amount
		}
	}
	if saved.IsNegative() {
		saved = decimal.Zero
	}
	if saved.GreaterThan(subtotal) {
		saved = subtotal
	}
	total := d.FinalTotal
	if total.IsZero() || total.IsNegative() {
		total = subtotal.Sub(saved)
	} else {
		saved = subtotal.Sub(total)
		if saved.IsNegative() {
			saved = decimal.Zero
		}
	}
	d.DiscountAmount = saved
	d.FinalTotal = total
	return model.Quote{Subtotal: subtotal, Discount: &d, Saved: saved, Total: total}
}
