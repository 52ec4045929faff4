package model

import "github.com/shopspring/decimal"

// Quote is the price summary shown on the payment view: the undiscounted
// subtotal, the discount applied (nil when none), the amount saved and the
// total the customer pays.
type Quote struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount *Discount       `json:"discount,omitempty"`
	Saved    decimal.Decimal `json:"saved"`
	Total    decimal.Decimal `json:"total"`
}

// Undiscounted is the quote used when no discount applies or the check
// failed: the total equals the subtotal.
func Undiscounted(subtotal decimal.Decimal) Quote {
	return Quote{Subtotal: subtotal, Saved: decimal.Zero, Total: subtotal}
}
