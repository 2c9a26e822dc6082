package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/vortelio/storefront/internal/domain/offer"
	"github.com/vortelio/storefront/internal/domain/product"
)

// calculateRequest is the decoded POST /api/offers/calculate body.
type calculateRequest struct {
	OfferID string
	Items   []offer.Item
}

// CalculateOffer computes the discount a promotional offer yields for a cart
// snapshot. Items without a price are enriched from the product catalog.
// An unknown offer id is a 404; a calculation that yields no discount is a
// 422 carrying the engine's explanation.
func (h *Handler) CalculateOffer(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "cannot read request body")
		return
	}

	req, err := decodeCalculateRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.OfferID == "" {
		writeError(w, http.StatusBadRequest, "offer_id required")
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "cart_items required")
		return
	}

	items, err := h.enrichItems(r.Context(), req.Items)
	if err != nil {
		var nf *itemNotFoundError
		if errors.As(err, &nf) {
			writeError(w, http.StatusUnprocessableEntity, nf.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	res, o, err := h.offers.CalculateByID(r.Context(), req.OfferID, items)
	if err != nil {
		if errors.Is(err, offer.ErrNotFound) {
			writeError(w, http.StatusNotFound, "offer not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	status := http.StatusOK
	if !res.Applied() {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, func(e *jx.Encoder) {
		encodeCalculateResponse(e, res, o)
	})
}

// itemNotFoundError reports a cart item whose product id is not in the catalog.
type itemNotFoundError struct {
	productID string
}

func (e *itemNotFoundError) Error() string {
	return "product " + e.productID + " not found"
}

// enrichItems fills missing prices and category ids from the product catalog.
// Items that already carry a positive price are passed through untouched so
// the engine sees exactly the snapshot the caller priced.
func (h *Handler) enrichItems(ctx context.Context, items []offer.Item) ([]offer.Item, error) {
	var missing []string
	for _, item := range items {
		if !item.Price.IsPositive() || item.CategoryID == "" {
			missing = append(missing, item.ProductID)
		}
	}
	if len(missing) == 0 {
		return items, nil
	}

	fetched, err := h.products.GetByIDs(ctx, missing)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	out := make([]offer.Item, len(items))
	for i, item := range items {
		out[i] = item
		if item.Price.IsPositive() && item.CategoryID != "" {
			continue
		}
		p, ok := byID[item.ProductID]
		if !ok {
			if item.Price.IsPositive() {
				// Price given; a missing catalog row only matters for the
				// category, which stays as supplied.
				continue
			}
			return nil, &itemNotFoundError{productID: item.ProductID}
		}
		if !out[i].Price.IsPositive() {
			out[i].Price = p.Price
		}
		if out[i].CategoryID == "" {
			out[i].CategoryID = p.CategoryID
		}
	}
	return out, nil
}

func decodeCalculateRequest(body []byte) (calculateRequest, error) {
	var req calculateRequest
	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "offer_id":
			v, err := d.Str()
			req.OfferID = v
			return err
		case "cart_items":
			return d.Arr(func(d *jx.Decoder) error {
				item, err := decodeCartItem(d)
				if err != nil {
					return err
				}
				req.Items = append(req.Items, item)
				return nil
			})
		default:
			return d.Skip()
		}
	}); err != nil {
		return req, errors.Wrap(err, "invalid request body")
	}
	return req, nil
}

func decodeCartItem(d *jx.Decoder) (offer.Item, error) {
	var item offer.Item
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		// "id" is the historical field name; "product_id" the current one.
		case "id", "product_id":
			v, err := d.Str()
			if item.ProductID == "" {
				item.ProductID = v
			}
			return err
		case "category_id":
			v, err := d.Str()
			item.CategoryID = v
			return err
		case "quantity":
			v, err := d.Int()
			item.Quantity = v
			return err
		case "price":
			return decodeDecimal(d, &item.Price)
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return item, err
	}
	if item.ProductID == "" {
		return item, errors.New("cart item missing product id")
	}
	if item.Quantity <= 0 {
		return item, errors.Errorf("quantity must be greater than 0 for product %s", item.ProductID)
	}
	if item.Price.IsNegative() {
		return item, errors.Errorf("price must not be negative for product %s", item.ProductID)
	}
	return item, nil
}

// decodeDecimal accepts a JSON number (or numeric string) into a decimal,
// preserving exact cents.
func decodeDecimal(d *jx.Decoder, out *decimal.Decimal) error {
	num, err := d.Num()
	if err != nil {
		return err
	}
	v, err := decimal.NewFromString(unquote(num.String()))
	if err != nil {
		return err
	}
	*out = v
	return nil
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func encodeCalculateResponse(e *jx.Encoder, res *offer.Result, o *offer.Offer) {
	e.ObjStart()

	e.FieldStart("success")
	e.Bool(res.Applied())

	e.FieldStart("discount")
	e.Raw([]byte(res.Discount.StringFixed(2)))

	e.FieldStart("message")
	e.Str(res.Message)

	e.FieldStart("eligible_items_count")
	e.Int(len(res.EligibleItems))

	if len(res.DiscountedItems) > 0 {
		e.FieldStart("discounted_items")
		e.ArrStart()
		for _, di := range res.DiscountedItems {
			e.ObjStart()
			e.FieldStart("product_id")
			e.Str(di.ProductID)
			e.FieldStart("quantity")
			e.Int(di.Quantity)
			e.FieldStart("price")
			e.Raw([]byte(di.Price.StringFixed(2)))
			e.FieldStart("discount")
			e.Raw([]byte(di.Discount.StringFixed(2)))
			e.ObjEnd()
		}
		e.ArrEnd()
	}

	e.FieldStart("offer")
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("type")
	e.Str(string(o.Type))
	e.FieldStart("title")
	e.Str(o.Title)
	e.ObjEnd()

	e.ObjEnd()
}
