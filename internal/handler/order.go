package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/vortelio/storefront/internal/domain/offer"
	"github.com/vortelio/storefront/internal/domain/order"
)

// PlaceOrder decodes the order request, delegates to the order service, and
// maps the result (or domain error) to an HTTP response.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "cannot read request body")
		return
	}

	req, err := decodeOrderRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.orderService.PlaceOrder(r.Context(), req)
	if err != nil {
		writeOrderError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		h.encodeOrder(e, result)
	})
}

// writeOrderError converts domain errors to HTTP error responses.
func writeOrderError(w http.ResponseWriter, err error) {
	if errors.Is(err, order.ErrEmptyItems) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var iqErr *order.InvalidQuantityError
	if errors.As(err, &iqErr) {
		writeError(w, http.StatusUnprocessableEntity, iqErr.Error())
		return
	}

	var pnfErr *order.ProductNotFoundError
	if errors.As(err, &pnfErr) {
		writeError(w, http.StatusUnprocessableEntity, pnfErr.Error())
		return
	}

	var orErr *order.OfferRejectedError
	if errors.As(err, &orErr) {
		writeError(w, http.StatusUnprocessableEntity, orErr.Error())
		return
	}

	if errors.Is(err, offer.ErrNotFound) {
		writeError(w, http.StatusUnprocessableEntity, "offer not found")
		return
	}

	writeError(w, http.StatusInternalServerError, "internal error")
}

func decodeOrderRequest(body []byte) (order.PlaceOrderRequest, error) {
	var req order.PlaceOrderRequest
	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "offer_id":
			v, err := d.Str()
			req.OfferID = v
			return err
		case "items":
			return d.Arr(func(d *jx.Decoder) error {
				var item order.OrderItem
				if err := d.Obj(func(d *jx.Decoder, key string) error {
					switch key {
					case "id", "product_id":
						v, err := d.Str()
						if item.ProductID == "" {
							item.ProductID = v
						}
						return err
					case "quantity":
						v, err := d.Int()
						item.Quantity = v
						return err
					default:
						return d.Skip()
					}
				}); err != nil {
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

func (h *Handler) encodeOrder(e *jx.Encoder, result *order.PlaceOrderResult) {
	o := result.Order

	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("subtotal")
	e.Raw([]byte(o.Subtotal.StringFixed(2)))
	e.FieldStart("total")
	e.Raw([]byte(o.Total.StringFixed(2)))
	e.FieldStart("discounts")
	e.Raw([]byte(o.Discounts.StringFixed(2)))
	if o.OfferID != "" {
		e.FieldStart("offer_id")
		e.Str(o.OfferID)
	}

	e.FieldStart("items")
	e.ArrStart()
	for _, item := range o.Items {
		e.ObjStart()
		e.FieldStart("product_id")
		e.Str(item.ProductID)
		e.FieldStart("quantity")
		e.Int(item.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()

	if len(o.DiscountedItems) > 0 {
		e.FieldStart("discounted_items")
		e.ArrStart()
		for _, di := range o.DiscountedItems {
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

	e.FieldStart("products")
	e.ArrStart()
	for _, p := range result.Products {
		h.encodeProduct(e, p)
	}
	e.ArrEnd()

	e.ObjEnd()
}
