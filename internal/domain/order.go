package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order status constants.
const (
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
)

// Order is the result of a completed checkout: the cart contents frozen
// together with the chosen delivery option and the charged total.
type Order struct {
	ID              string          `json:"id"`
	Items           []CartItem      `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	ShippingCost    decimal.Decimal `json:"shipping_cost"`
	Total           decimal.Decimal `json:"total"`
	Currency        string          `json:"currency"`
	ShippingAddress Address         `json:"shipping_address"`
	Delivery        DeliveryOption  `json:"delivery"`
	PaymentRef      string          `json:"payment_ref"`
	Status          string          `json:"status"`
	PlacedAt        time.Time       `json:"placed_at"`
}
