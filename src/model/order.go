package model

import "time"

const (
	OrderSideBuy  = "buy"
	OrderSideSell = "sell"

	OrderTypeMarket = "market"
	OrderTypeLimit  = "limit"
)

const (
	OrderStatusPending  = "pending"
	OrderStatusAccepted = "accepted"
	OrderStatusFilled   = "filled"
	OrderStatusRejected = "rejected"
	OrderStatusError    = "error"
)

// Order represents an order submitted to the broker. Process-lifetime only;
// the broker keeps the durable record.
type Order struct {
	ClientOrderID string     `json:"client_order_id"`
	BrokerOrderID string     `json:"broker_order_id,omitempty"`
	Symbol        string     `json:"symbol"`
	Side          string     `json:"side"`
	OrderType     string     `json:"order_type"`
	Quantity      int        `json:"quantity"`
	Price         *float64   `json:"price,omitempty"`
	Status        string     `json:"status"`
	SubmittedAt   time.Time  `json:"submitted_at"`
	FilledAt      *time.Time `json:"filled_at,omitempty"`
}
