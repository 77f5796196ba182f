package checkout

import "time"

type orderPlaced struct {
	AttemptID  string    `json:"attempt_id"`
	CartID     string    `json:"cart_id"`
	UserID     string    `json:"user_id"`
	OrderID    string    `json:"order_id"`
	PaymentRef string    `json:"payment_ref"`
	Method     string    `json:"method"`
	Total      string    `json:"total"`
	Currency   string    `json:"currency"`
	PlacedAt   time.Time `json:"placed_at"`
}

type paymentUnreconciled struct {
	AttemptID  string    `json:"attempt_id"`
	CartID     string    `json:"cart_id"`
	UserID     string    `json:"user_id"`
	PaymentRef string    `json:"payment_ref"`
	Total      string    `json:"total"`
	Currency   string    `json:"currency"`
	Reason     string    `json:"reason"`
	FailedAt   time.Time `json:"failed_at"`
}
