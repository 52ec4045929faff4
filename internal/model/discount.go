package model

import "github.com/shopspring/decimal"

// DiscountType distinguishes relative from absolute reductions.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountNominal    DiscountType = "nominal"
)

// Discount is the server-computed reduction for one booking draft.  Amount is
// the configured value (a percent for percentage discounts, a currency amount
// for nominal ones); DiscountAmount and FinalTotal are what the backend
// computed for the submitted subtotal.
type Discount struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Type           DiscountType    `json:"type"`
	Amount         decimal.Decimal `json:"amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalTotal     decimal.Decimal `json:"final_total"`
}
