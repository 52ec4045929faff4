package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment statuses recorded on transaction records.
const (
	PaymentStatusSuccess = "success"
	PaymentStatusPending = "pending"
	PaymentStatusFailed  = "failed"
)

// TransactionTypeMovie marks ticket purchases in the transaction log.
const TransactionTypeMovie = "movie"

// Transaction is the client-side history record written after a successful
// payment.  It is a display cache only; the backend keeps the authoritative
// copy.  The JSON shape matches what the browser history views read.
type Transaction struct {
	OrderID       string          `json:"order_id"`
	Schedule      Schedule        `json:"schedule"`
	Seats         []string        `json:"seats"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	PaymentStatus string          `json:"payment_status"`
	Type          string          `json:"type"`
	CreatedAt     time.Time       `json:"created_at"`
}
