package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/vortelio/storefront/internal/domain/offer"
)

const (
	getOfferByIDSQL = `SELECT id, offer_type, title, description, discount_text,
		discount_percent, discount_amount, max_discount, min_purchase,
		buy_quantity, get_quantity, product_ids, category_ids,
		active, starts_at, ends_at
		FROM offers WHERE id = $1`

	upsertOfferSQL = `INSERT INTO offers (id, offer_type, title, description, discount_text,
		discount_percent, discount_amount, max_discount, min_purchase,
		buy_quantity, get_quantity, product_ids, category_ids, active, starts_at, ends_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			offer_type = EXCLUDED.offer_type,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			discount_text = EXCLUDED.discount_text,
			discount_percent = EXCLUDED.discount_percent,
			discount_amount = EXCLUDED.discount_amount,
			max_discount = EXCLUDED.max_discount,
			min_purchase = EXCLUDED.min_purchase,
			buy_quantity = EXCLUDED.buy_quantity,
			get_quantity = EXCLUDED.get_quantity,
			product_ids = EXCLUDED.product_ids,
			category_ids = EXCLUDED.category_ids,
			active = EXCLUDED.active,
			starts_at = EXCLUDED.starts_at,
			ends_at = EXCLUDED.ends_at`
)

var _ offer.Repository = (*OfferRepository)(nil)

// OfferRepository implements offer.Repository backed by PostgreSQL.
// Historical type tags stored in the offer_type column are normalized to the
// canonical kinds here, at the system boundary, so calculators never see a
// raw tag.
type OfferRepository struct {
	pool *pgxpool.Pool
}

// NewOfferRepository returns an OfferRepository that uses the given pool.
func NewOfferRepository(pool *pgxpool.Pool) *OfferRepository {
	return &OfferRepository{pool: pool}
}

// FindByID looks up an offer by its identifier.
// Returns offer.ErrNotFound when no such offer exists.
func (r *OfferRepository) FindByID(ctx context.Context, id string) (*offer.Offer, error) {
	rows, err := r.pool.Query(ctx, getOfferByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("finding offer %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOffer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, offer.ErrNotFound
		}
		return nil, fmt.Errorf("finding offer %q: %w", id, err)
	}
	return &o, nil
}

// Upsert inserts or replaces an offer row. The canonical type tag is stored
// as-is; FindByID normalizes on the way out, which keeps legacy rows loadable.
func (r *OfferRepository) Upsert(ctx context.Context, o *offer.Offer) error {
	_, err := r.pool.Exec(ctx, upsertOfferSQL,
		o.ID, string(o.Type), o.Title, o.Description, o.DiscountText,
		o.Percent, o.Amount, o.MaxDiscount, o.MinPurchase,
		int32(o.BuyQuantity), int32(o.GetQuantity), o.ProductIDs, o.CategoryIDs,
		o.Active, o.StartsAt, o.EndsAt,
	)
	if err != nil {
		return fmt.Errorf("upserting offer %q: %w", o.ID, err)
	}
	return nil
}

func scanOffer(row pgx.CollectableRow) (offer.Offer, error) {
	var (
		o           offer.Offer
		rawType     string
		percent     decimal.Decimal
		amount      decimal.Decimal
		maxDiscount decimal.Decimal
		minPurchase decimal.Decimal
		buyQty      int32
		getQty      int32
		startsAt    *time.Time
		endsAt      *time.Time
	)
	err := row.Scan(
		&o.ID, &rawType, &o.Title, &o.Description, &o.DiscountText,
		&percent, &amount, &maxDiscount, &minPurchase,
		&buyQty, &getQty, &o.ProductIDs, &o.CategoryIDs,
		&o.Active, &startsAt, &endsAt,
	)
	o.Type = offer.Normalize(rawType)
	o.Percent = percent
	o.Amount = amount
	o.MaxDiscount = maxDiscount
	o.MinPurchase = minPurchase
	o.BuyQuantity = int(buyQty)
	o.GetQuantity = int(getQty)
	o.StartsAt = startsAt
	o.EndsAt = endsAt
	return o, err
}
