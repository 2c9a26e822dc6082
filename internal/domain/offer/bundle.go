package offer

import (
	"sort"

	"github.com/shopspring/decimal"
)

// unit is a single physical unit of a cart line item, produced by expanding
// line quantities for bundle allocation.
type unit struct {
	productID string
	price     decimal.Decimal
}

// expandUnits flattens line items into one record per unit of quantity.
func expandUnits(items []Item) []unit {
	var units []unit
	for _, item := range items {
		for i := 0; i < item.Quantity; i++ {
			units = append(units, unit{productID: item.ProductID, price: item.Price})
		}
	}
	return units
}

// allocateBundle applies a buy-X-get-Y discount to the cheapest
// discountCount units and returns the total discount plus a per-product
// breakdown of the discounted units.
//
// The ascending price sort is the business rule, not an optimization: the
// promotion discounts items of equal or lesser value, so the cheapest units
// are always the ones discounted regardless of cart order. Sorting the other
// way would invert the promotion's economics.
//
// percentOff in (0, 100) discounts each unit partially ("get Y at P% off");
// any other value makes the discounted units free.
func allocateBundle(units []unit, discountCount int, percentOff decimal.Decimal) (decimal.Decimal, []DiscountedItem) {
	if discountCount <= 0 || len(units) == 0 {
		return decimal.Zero, nil
	}
	if discountCount > len(units) {
		discountCount = len(units)
	}

	sorted := make([]unit, len(units))
	copy(sorted, units)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].price.LessThan(sorted[j].price)
	})

	partial := percentOff.IsPositive() && percentOff.LessThan(hundred)

	total := decimal.Zero
	// Group discounted units by product, preserving cheapest-first order.
	byProduct := make(map[string]int)
	var breakdown []DiscountedItem

	for _, u := range sorted[:discountCount] {
		perUnit := u.price
		if partial {
			perUnit = u.price.Mul(percentOff).Div(hundred)
		}
		total = total.Add(perUnit)

		if idx, ok := byProduct[u.productID]; ok {
			breakdown[idx].Quantity++
			breakdown[idx].Discount = breakdown[idx].Discount.Add(perUnit)
			continue
		}
		byProduct[u.productID] = len(breakdown)
		breakdown = append(breakdown, DiscountedItem{
			ProductID: u.productID,
			Quantity:  1,
			Price:     u.price,
			Discount:  perUnit,
		})
	}

	for i := range breakdown {
		breakdown[i].Discount = breakdown[i].Discount.Round(2)
	}
	return total, breakdown
}
