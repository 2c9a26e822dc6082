package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vortelio/storefront/internal/domain/offer"
)

// Order represents a completed customer order with pricing and discount details.
type Order struct {
	ID        string
	Items     []OrderItem
	Subtotal  decimal.Decimal
	Total     decimal.Decimal
	Discounts decimal.Decimal
	OfferID   string
	// DiscountedItems records which units a bundle offer discounted,
	// copied from the engine's breakdown at order time.
	DiscountedItems []offer.DiscountedItem
	CreatedAt       time.Time
}

// OrderItem represents a single line item in an order.
type OrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, order *Order) error
}
