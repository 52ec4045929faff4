// Package queue defines message payloads exchanged over the message broker.
package queue

// PaymentSucceededQueue is the durable queue payment events are sent to.
const PaymentSucceededQueue = "payment.succeeded"

// PaymentSucceededEvent is published when the payment widget reports success
// for a booking.  It carries enough for downstream consumers to log, notify,
// or feed dashboards without calling the backend.
type PaymentSucceededEvent struct {
	OrderID     string   `json:"order_id"`
	UserID      int64    `json:"user_id"`
	ActorRole   string   `json:"actor_role"`
	Customer    string   `json:"customer"`
	ScheduleID  int64    `json:"schedule_id"`
	MovieTitle  string   `json:"movie_title"`
	StudioName  string   `json:"studio_name"`
	ShowDate    string   `json:"show_date"`
	ShowTime    string   `json:"show_time"`
	Seats       []string `json:"seats"`
	Subtotal    string   `json:"subtotal"`
	Total       string   `json:"total"`
	DiscountID  *int64   `json:"discount_id,omitempty"`
	Confirmed   bool     `json:"confirmed"`
	SucceededAt string   `json:"succeeded_at"`
}
