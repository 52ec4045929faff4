package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/cinema-ticket-portal/internal/model"
)

// Backend paths for the payment flow.
const (
	PathCheckDiscount   = "/api/check-discount"
	PathMoviePayment    = "/api/movie-payment"
	PathCashierPayment  = "/api/kasir/payment"
	PathPaymentCallback = "/api/movie-payment/callback"
)

// ErrMissingToken is returned when the backend accepts a payment intent but
// does not hand back a widget token.
var ErrMissingToken = errors.New("payment intent carries no token")

// CheckDiscount asks whether a discount applies to the schedule and
// subtotal.  A nil discount with a nil error means none applies.
func (c *Client) CheckDiscount(ctx context.Context, req model.DiscountCheckRequest) (*model.Discount, error) {
	env, err := c.do(ctx, http.MethodPost, PathCheckDiscount, req)
	if err != nil {
		return nil, err
	}
	if env.IsNull() {
		return nil, nil
	}
	// {"discount": {...}, "discount_amount": ..., "final_total": ...}
	if raw := env.Field("discount"); raw != nil {
		var d *model.Discount
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("discount: %w", err)
		}
		if d == nil {
			return nil, nil
		}
		var totals struct {
			DiscountAmount decimal.NullDecimal `json:"discount_amount"`
			FinalTotal     decimal.NullDecimal `json:"final_total"`
		}
		if json.Unmarshal(env.Data, &totals) == nil {
			if totals.DiscountAmount.Valid && d.DiscountAmount.IsZero() {
				d.DiscountAmount = totals.DiscountAmount.Decimal
			}
			if totals.FinalTotal.Valid && d.FinalTotal.IsZero() {
				d.FinalTotal = totals.FinalTotal.Decimal
			}
		}
		return d, nil
	}
	// bare discount object; an object without a type is "no discount"
	var d model.Discount
	if err := env.Decode(&d); err != nil {
		return nil, fmt.Errorf("discount: %w", err)
	}
	if d.Type == "" {
		return nil, nil
	}
	return &d, nil
}

// CreatePaymentIntent submits the booking for payment-intent creation.
// Cashier bookings use the kasir endpoint; everyone else self-service.
func (c *Client) CreatePaymentIntent(ctx context.Context, cashier bool, req model.PaymentIntentRequest) (model.PaymentIntent, error) {
	path := PathMoviePayment
	if cashier {
		path = PathCashierPayment
	}
	env, err := c.do(ctx, http.MethodPost, path, req)
	if err != nil {
		return model.PaymentIntent{}, err
	}
	var body struct {
		Token     string          `json:"token"`
		SnapToken string          `json:"snap_token"`
		OrderID   json.RawMessage `json:"order_id"`
	}
	if err := env.Decode(&body); err != nil {
		return model.PaymentIntent{}, fmt.Errorf("payment intent: %w", err)
	}
	intent := model.PaymentIntent{Token: body.Token, OrderID: rawID(body.OrderID)}
	if intent.Token == "" {
		intent.Token = body.SnapToken
	}
	if intent.Token == "" {
		return model.PaymentIntent{}, ErrMissingToken
	}
	return intent, nil
}

// ConfirmPayment reports a widget success so the backend persists the
// transaction.
func (c *Client) ConfirmPayment(ctx context.Context, conf model.PaymentConfirmation) error {
	_, err := c.do(ctx, http.MethodPost, PathPaymentCallback, conf)
	return err
}

// rawID accepts order ids sent either as strings or numbers.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	return ""
}
