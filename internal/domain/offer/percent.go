package offer

import (
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"
)

// percentPattern matches the first "<digits>%" occurrence in free text,
// allowing whitespace before the sign ("Flat 15 % off").
var percentPattern = regexp.MustCompile(`(\d{1,3})\s*%`)

// ExtractPercent locates the first "<digits>%" pattern in text and returns
// its value. Values outside [0, 100] are rejected.
func ExtractPercent(text string) (int, bool) {
	m := percentPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.Atoi(m[1])
	if err != nil || v < 0 || v > 100 {
		return 0, false
	}
	return v, true
}

// percentSource yields a candidate discount percentage from one field of an
// offer. Sources report ok=false when their field holds no usable value.
type percentSource struct {
	name    string
	resolve func(*Offer) (decimal.Decimal, bool)
}

// percentSources is the ordered resolution chain for an offer's discount
// percentage: the structured field wins, then percentages parsed out of the
// description, title, and discount text, in that order.
var percentSources = []percentSource{
	{name: "percent", resolve: structuredPercent},
	{name: "description", resolve: textPercent(func(o *Offer) string { return o.Description })},
	{name: "title", resolve: textPercent(func(o *Offer) string { return o.Title })},
	{name: "discount_text", resolve: textPercent(func(o *Offer) string { return o.DiscountText })},
}

// ResolvePercent walks the resolution chain and returns the first percentage
// in (0, 100]. It returns ok=false when no source yields a usable value.
func ResolvePercent(o *Offer) (decimal.Decimal, bool) {
	for _, src := range percentSources {
		if pct, ok := src.resolve(o); ok {
			return pct, true
		}
	}
	return decimal.Zero, false
}

func structuredPercent(o *Offer) (decimal.Decimal, bool) {
	if o.Percent.IsPositive() && o.Percent.LessThanOrEqual(hundred) {
		return o.Percent, true
	}
	return decimal.Zero, false
}

func textPercent(field func(*Offer) string) func(*Offer) (decimal.Decimal, bool) {
	return func(o *Offer) (decimal.Decimal, bool) {
		v, ok := ExtractPercent(field(o))
		if !ok || v == 0 {
			return decimal.Zero, false
		}
		return decimal.NewFromInt(int64(v)), true
	}
}
