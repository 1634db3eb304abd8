package domain

import "time"

type Restaurant struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Category     string  `json:"category"`
	Cuisine      string  `json:"cuisine"`
	Rating       float64 `json:"rating"`
	Reviews      int     `json:"reviews"`
	DeliveryTime string  `json:"delivery_time"`
	MinOrder     float64 `json:"min_order"`
	IsOpen       bool    `json:"is_open"`
	Dishes       []Dish  `json:"dishes"`
}

type Dish struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	Rating       float64 `json:"rating"`
	Reviews      int     `json:"reviews"`
	CookTime     string  `json:"cook_time"`
	IsVegetarian bool    `json:"is_vegetarian"`
	IsSpicy      bool    `json:"is_spicy"`
}

// LineItem is a dish snapshot held in a cart. RestaurantName is captured at
// add time so orders can be labelled without going back to the catalog.
type LineItem struct {
	Dish
	RestaurantName string `json:"restaurant_name,omitempty"`
	Quantity       int    `json:"quantity"`
}

type User struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

const (
	OrderStatusConfirmed = "confirmed"

	PaymentMethodCard   = "card"
	PaymentMethodPayPal = "paypal"
)

type Order struct {
	ID              int64      `json:"id"`
	Items           []LineItem `json:"items"`
	Total           float64    `json:"total"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"date"`
	DeliveryTime    string     `json:"delivery_time"`
	RestaurantName  string     `json:"restaurant_name"`
	CustomerName    string     `json:"customer_name"`
	CustomerEmail   string     `json:"customer_email"`
	PaymentMethod   string     `json:"payment_method"`
	DeliveryAddress string     `json:"delivery_address"`
	Phone           string     `json:"phone"`
}

type Breakdown struct {
	Subtotal    float64 `json:"subtotal"`
	Tax         float64 `json:"tax"`
	DeliveryFee float64 `json:"delivery_fee"`
	Total       float64 `json:"total"`
}

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

type DishPopularity struct {
	DishID   int     `json:"dish_id"`
	DishName string  `json:"dish_name"`
	Score    float64 `json:"score"`
}
