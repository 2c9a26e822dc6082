package offer

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Calculate computes the discount for the given offer and cart snapshot at
// the given time. It always returns a Result: ineligibility, missing offer
// configuration, and unknown offer types all yield a zero discount with an
// explanatory message. The calculation is pure and idempotent; it mutates
// neither the offer nor the items.
func Calculate(o *Offer, items []Item, now time.Time) Result {
	if o == nil {
		return reject("no offer selected")
	}
	if len(items) == 0 {
		return reject("cart is empty")
	}
	if !o.Active {
		return reject("offer is not active")
	}
	if !inWindow(o, now) {
		return reject("offer is outside its validity period")
	}

	if o.MinPurchase.IsPositive() && subtotal(items).LessThan(o.MinPurchase) {
		return reject(fmt.Sprintf("minimum purchase of %s required", o.MinPurchase.StringFixed(2)))
	}

	eligible := EligibleItems(o, items)
	if len(eligible) == 0 {
		return reject("no eligible items")
	}

	var res Result
	switch o.Type {
	case TypePercentage:
		res = calcPercentage(o, eligible)
	case TypeFixedAmount:
		res = calcFixedAmount(o, eligible, "discount applied")
	case TypeFreeShipping:
		res = calcFixedAmount(o, eligible, "free shipping applied")
	case TypeBuyXGetY:
		res = calcBundle(o, eligible)
	case TypeMinimumPurchase:
		res = calcConfigured(o, eligible)
	case TypeReferral:
		res = calcConfigured(o, eligible)
	default:
		// Normalize maps every tag onto a canonical kind, so this branch only
		// runs for offers constructed in code with a bogus type. Salvage what
		// the offer's fields allow before giving up.
		switch {
		case o.BuyQuantity > 0 && o.GetQuantity > 0:
			res = calcBundle(o, eligible)
		default:
			if _, ok := ResolvePercent(o); ok {
				res = calcPercentage(o, eligible)
			} else {
				res = reject("unknown offer type")
			}
		}
	}

	res.EligibleItems = eligible
	res.Discount = floorAtZero(res.Discount).Round(2)
	return res
}

// calcPercentage discounts the eligible subtotal by the offer's resolved
// percentage, capped at MaxDiscount when set.
func calcPercentage(o *Offer, eligible []Item) Result {
	pct, ok := ResolvePercent(o)
	if !ok {
		return reject("no discount percentage configured")
	}

	amount := subtotal(eligible).Mul(pct).Div(hundred)
	capped := false
	if o.MaxDiscount.IsPositive() && amount.GreaterThan(o.MaxDiscount) {
		amount = o.MaxDiscount
		capped = true
	}

	msg := fmt.Sprintf("%s%% discount applied", pct.String())
	if capped {
		msg = fmt.Sprintf("%s%% discount applied (capped at %s)", pct.String(), o.MaxDiscount.StringFixed(2))
	}
	return Result{Discount: amount, Message: msg}
}

// calcFixedAmount discounts the offer's fixed amount, never exceeding the
// eligible subtotal being discounted.
func calcFixedAmount(o *Offer, eligible []Item, label string) Result {
	if !o.Amount.IsPositive() {
		return reject("no discount amount configured")
	}
	amount := decimal.Min(o.Amount, subtotal(eligible))
	return Result{
		Discount: amount,
		Message:  fmt.Sprintf("%s %s", amount.StringFixed(2), label),
	}
}

// calcBundle applies the buy-X-get-Y rule: complete sets form from the total
// eligible quantity, and the cheapest sets*G units receive the discount.
func calcBundle(o *Offer, eligible []Item) Result {
	buy, get := o.BuyQuantity, o.GetQuantity
	if buy < 1 || get < 1 {
		return reject("bundle quantities not configured")
	}

	setSize := buy + get
	qty := totalQuantity(eligible)
	sets := qty / setSize
	if sets == 0 {
		missing := setSize - qty
		return reject(fmt.Sprintf("add %d more eligible item(s) to qualify for buy %d get %d", missing, buy, get))
	}

	total, breakdown := allocateBundle(expandUnits(eligible), sets*get, o.Percent)

	msg := fmt.Sprintf("buy %d get %d free applied to %d item(s)", buy, get, sets*get)
	if o.Percent.IsPositive() && o.Percent.LessThan(hundred) {
		msg = fmt.Sprintf("buy %d get %d at %s%% off applied to %d item(s)", buy, get, o.Percent.String(), sets*get)
	}
	return Result{
		Discount:        total,
		Message:         msg,
		DiscountedItems: breakdown,
	}
}

// calcConfigured serves minimum-purchase and referral offers: a resolvable
// percentage wins, a fixed amount is the fallback, and an offer carrying
// neither is a configuration error. The minimum purchase threshold itself is
// gated upstream in Calculate.
func calcConfigured(o *Offer, eligible []Item) Result {
	if _, ok := ResolvePercent(o); ok {
		return calcPercentage(o, eligible)
	}
	if o.Amount.IsPositive() {
		return calcFixedAmount(o, eligible, "discount applied")
	}
	return reject("no discount configured")
}

func reject(msg string) Result {
	return Result{Discount: decimal.Zero, Message: msg}
}

// floorAtZero clamps negative values to zero.
func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
