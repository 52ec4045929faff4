package model

import "github.com/shopspring/decimal"

// PaymentIntentRequest is the body posted to /api/movie-payment (customers)
// or /api/kasir/payment (cashiers) to obtain a widget token.
type PaymentIntentRequest struct {
	ScheduleID    int64           `json:"schedule_id"`
	Seats         []string        `json:"seats"`
	TicketCount   int             `json:"ticket_count"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	DiscountID    *int64          `json:"discount_id,omitempty"`
	CustomerName  string          `json:"customer_name"`
	CustomerEmail string          `json:"customer_email,omitempty"`
	CustomerPhone string          `json:"customer_phone,omitempty"`
}

// PaymentIntent is the backend's answer: an opaque short-lived widget token
// and the order id it is bound to.
type PaymentIntent struct {
	Token   string `json:"token"`
	OrderID string `json:"order_id"`
}

// PaymentConfirmation is posted to /api/movie-payment/callback after the
// widget reports success so the backend can persist the transaction.
type PaymentConfirmation struct {
	OrderID           string          `json:"order_id"`
	TransactionStatus string          `json:"transaction_status"`
	ScheduleID        int64           `json:"schedule_id"`
	Seats             []string        `json:"seats"`
	TotalPrice        decimal.Decimal `json:"total_price"`
	Detail            map[string]any  `json:"detail,omitempty"`
}

// DiscountCheckRequest is the body of POST /api/check-discount.
type DiscountCheckRequest struct {
	ScheduleID int64           `json:"schedule_id"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}
