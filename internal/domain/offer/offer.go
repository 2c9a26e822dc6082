package offer

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Type enumerates the canonical promotional offer kinds. Historical type tags
// stored in the database are collapsed onto these via Normalize before they
// reach any calculator.
type Type string

const (
	// TypePercentage discounts the eligible subtotal by a percentage.
	TypePercentage Type = "percentage"
	// TypeFixedAmount discounts a fixed monetary amount capped at the subtotal.
	TypeFixedAmount Type = "fixed_amount"
	// TypeBuyXGetY discounts the cheapest units of complete buy-X-get-Y sets.
	TypeBuyXGetY Type = "buy_x_get_y"
	// TypeMinimumPurchase grants a percentage or fixed discount once the cart
	// total clears the offer's minimum purchase threshold.
	TypeMinimumPurchase Type = "minimum_purchase"
	// TypeReferral grants a percentage or fixed discount for referred customers.
	TypeReferral Type = "referral"
	// TypeFreeShipping waives the shipping charge recorded as the offer's
	// discount amount.
	TypeFreeShipping Type = "free_shipping"
)

// ErrNotFound is returned when a requested offer does not exist.
var ErrNotFound = errors.New("offer not found")

// legacyTypes maps historical offer type tags, as they appear in stored
// offers, onto the canonical kinds. Tags absent from the table default to
// TypePercentage; stored offers predating the canonical taxonomy rely on
// this lenient fallback.
var legacyTypes = map[string]Type{
	"percentage":          TypePercentage,
	"percent":             TypePercentage,
	"percentage_discount": TypePercentage,
	"discount_percentage": TypePercentage,
	"seasonal":            TypePercentage,
	"flash_sale":          TypePercentage,
	"fixed_amount":        TypeFixedAmount,
	"fixed":               TypeFixedAmount,
	"fixed_discount":      TypeFixedAmount,
	"flat":                TypeFixedAmount,
	"flat_discount":       TypeFixedAmount,
	"buy_x_get_y":         TypeBuyXGetY,
	"buy_one_get_one":     TypeBuyXGetY,
	"bogo":                TypeBuyXGetY,
	"bundle":              TypeBuyXGetY,
	"minimum_purchase":    TypeMinimumPurchase,
	"min_purchase":        TypeMinimumPurchase,
	"threshold":           TypeMinimumPurchase,
	"referral":            TypeReferral,
	"refer_friend":        TypeReferral,
	"free_shipping":       TypeFreeShipping,
	"shipping":            TypeFreeShipping,
}

// Normalize collapses a raw offer type tag onto one of the canonical kinds.
// Unrecognized tags normalize to TypePercentage.
func Normalize(raw string) Type {
	if t, ok := legacyTypes[raw]; ok {
		return t
	}
	return TypePercentage
}

// Offer defines a promotional rule and its eligibility constraints. It is a
// read-only input to the calculation engine; the engine never mutates it.
type Offer struct {
	ID   string
	Type Type

	// Free-text fields. Any of them may encode a percentage ("Flat 15% off")
	// used as a last-resort discount source when Percent is unset.
	Title        string
	Description  string
	DiscountText string

	// Percent is the structured discount percentage. Zero means unset;
	// calculators only accept values in (0, 100].
	Percent decimal.Decimal
	// Amount is the fixed discount amount (or the shipping charge to waive
	// for free-shipping offers). Zero means unset.
	Amount decimal.Decimal
	// MaxDiscount caps percentage-based discounts. Zero means uncapped.
	MaxDiscount decimal.Decimal
	// MinPurchase is the cart total required before the offer applies.
	// Zero means no threshold.
	MinPurchase decimal.Decimal

	// BuyQuantity and GetQuantity define one buy-X-get-Y set.
	BuyQuantity int
	GetQuantity int

	// ProductIDs and CategoryIDs scope the offer. An empty list imposes no
	// filter on that axis; both filters combine.
	ProductIDs  []string
	CategoryIDs []string

	Active   bool
	StartsAt *time.Time
	EndsAt   *time.Time
}

// Item represents a cart line item for discount calculation purposes.
type Item struct {
	ProductID  string
	CategoryID string
	Price      decimal.Decimal
	Quantity   int
}

// DiscountedItem records how many units of a product were discounted by a
// bundle offer and by how much, for downstream order bookkeeping.
type DiscountedItem struct {
	ProductID string
	Quantity  int
	Price     decimal.Decimal
	Discount  decimal.Decimal
}

// Result is the outcome of one discount calculation. Business failures
// (ineligibility, missing configuration, unknown type) are represented as a
// zero Discount with an explanatory Message, never as an error.
type Result struct {
	// Discount is the total discount, non-negative, rounded to 2 decimals.
	Discount decimal.Decimal
	// Message is a human-readable explanation of the outcome.
	Message string
	// EligibleItems are the line items that passed the offer's scoping.
	EligibleItems []Item
	// DiscountedItems is the per-product breakdown for bundle offers.
	DiscountedItems []DiscountedItem
}

// Applied reports whether the calculation produced a positive discount.
func (r Result) Applied() bool {
	return r.Discount.IsPositive()
}

// Repository provides lookup of offers by their identifier.
type Repository interface {
	FindByID(ctx context.Context, id string) (*Offer, error)
}
