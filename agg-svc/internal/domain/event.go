package domain

import "time"

const OrderConfirmed = "order.confirmed"

// OrderEvent mirrors the payload storefront-svc publishes once an order is
// confirmed.
type OrderEvent struct {
	Type      string        `json:"type"`
	OrderID   int64         `json:"order_id"`
	Total     float64       `json:"total"`
	Items     []OrderedDish `json:"items"`
	Timestamp time.Time     `json:"timestamp"`
}

type OrderedDish struct {
	DishID   int `json:"dish_id"`
	Quantity int `json:"quantity"`
}
