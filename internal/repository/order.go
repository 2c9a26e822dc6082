package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vortelio/storefront/internal/domain/order"
)

const createOrderSQL = `INSERT INTO orders (id, items, subtotal, total, discounts, offer_id, discount_breakdown)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// breakdownRow is the JSONB shape of one discounted-unit group.
type breakdownRow struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
	Discount  string `json:"discount"`
}

// Create persists a new order. Line items and the bundle discount breakdown
// are serialized to JSON for storage in JSONB columns.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}

	rows := make([]breakdownRow, len(o.DiscountedItems))
	for i, di := range o.DiscountedItems {
		rows[i] = breakdownRow{
			ProductID: di.ProductID,
			Quantity:  di.Quantity,
			Price:     di.Price.StringFixed(2),
			Discount:  di.Discount.StringFixed(2),
		}
	}
	breakdownJSON, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("marshaling discount breakdown: %w", err)
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, itemsJSON, o.Subtotal, o.Total, o.Discounts, nullableString(o.OfferID), breakdownJSON,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	return nil
}

// nullableString maps "" to SQL NULL for optional foreign keys.
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
