package offer

import (
	"time"

	"github.com/shopspring/decimal"
)

// EligibleItems returns the line items that pass the offer's product and
// category scoping. A missing scoping list imposes no filter on that axis;
// when both lists are present the filters combine.
func EligibleItems(o *Offer, items []Item) []Item {
	products := toSet(o.ProductIDs)
	categories := toSet(o.CategoryIDs)

	eligible := make([]Item, 0, len(items))
	for _, item := range items {
		if products != nil {
			if _, ok := products[item.ProductID]; !ok {
				continue
			}
		}
		if categories != nil {
			if _, ok := categories[item.CategoryID]; !ok {
				continue
			}
		}
		eligible = append(eligible, item)
	}
	return eligible
}

// IsApplicable reports whether the offer can produce a discount for the given
// cart at the given time: the offer must be active and inside its date window,
// the cart total must clear the minimum purchase threshold, at least one line
// item must match the offer's scoping, and bundle offers must have enough
// eligible quantity for one complete set.
func IsApplicable(o *Offer, items []Item, now time.Time) bool {
	if o == nil || len(items) == 0 {
		return false
	}
	if !o.Active || !inWindow(o, now) {
		return false
	}
	if o.MinPurchase.IsPositive() && subtotal(items).LessThan(o.MinPurchase) {
		return false
	}

	eligible := EligibleItems(o, items)
	if len(eligible) == 0 {
		return false
	}

	if o.Type == TypeBuyXGetY {
		setSize := o.BuyQuantity + o.GetQuantity
		if setSize <= 0 || totalQuantity(eligible) < setSize {
			return false
		}
	}
	return true
}

// inWindow reports whether now falls inside the offer's validity window.
// A missing bound is open-ended.
func inWindow(o *Offer, now time.Time) bool {
	if o.StartsAt != nil && now.Before(*o.StartsAt) {
		return false
	}
	if o.EndsAt != nil && now.After(*o.EndsAt) {
		return false
	}
	return true
}

// subtotal returns the sum of price * quantity across all items.
func subtotal(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		line := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		sum = sum.Add(line)
	}
	return sum
}

// totalQuantity returns the sum of quantities across all items.
func totalQuantity(items []Item) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

// toSet converts an ID list to a lookup set, or nil for an empty list so the
// caller can distinguish "no filter" from "filter matching nothing".
func toSet(ids []string) map[string]struct{} {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
