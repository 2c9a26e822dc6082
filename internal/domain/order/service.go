package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vortelio/storefront/internal/domain/offer"
	"github.com/vortelio/storefront/internal/domain/product"
)

// Sentinel errors for order validation.
var (
	ErrEmptyItems      = fmt.Errorf("items required")
	ErrInvalidQuantity = fmt.Errorf("quantity must be greater than 0")
)

// ProductNotFoundError indicates a requested product does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// OfferRejectedError indicates the selected offer produced no discount.
// The message carries the engine's explanation (below minimum, not enough
// bundle units, misconfigured offer).
type OfferRejectedError struct {
	OfferID string
	Message string
}

func (e *OfferRejectedError) Error() string {
	return fmt.Sprintf("offer %s not applied: %s", e.OfferID, e.Message)
}

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	Items   []OrderItem
	OfferID string
}

// PlaceOrderResult holds the output of a successfully placed order.
type PlaceOrderResult struct {
	Order    *Order
	Products []product.Product
}

// Service encapsulates order placement business logic.
type Service struct {
	products product.Repository
	offers   offer.Calculator
	orders   Repository
}

// NewService creates an order Service with the required domain dependencies.
func NewService(
	products product.Repository,
	offers offer.Calculator,
	orders Repository,
) *Service {
	return &Service{
		products: products,
		offers:   offers,
		orders:   orders,
	}
}

// PlaceOrder validates items, fetches products in a single batch, recomputes
// the offer discount against the final cart snapshot, persists the order, and
// returns the result. The discount is recalculated here rather than trusted
// from an earlier /offers/calculate call so the committed totals always match
// the committed line items.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	// Validate quantities and collect product IDs.
	ids := make([]string, len(req.Items))
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
		ids[i] = item.ProductID
	}

	// Batch fetch all products in a single query.
	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}

	productMap := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		productMap[p.ID] = p
	}

	// Verify every requested product was found.
	products := make([]product.Product, 0, len(req.Items))
	for _, item := range req.Items {
		p, ok := productMap[item.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: item.ProductID}
		}
		products = append(products, p)
	}

	// Build the cart snapshot for the discount engine and the subtotal.
	cartItems := make([]offer.Item, len(req.Items))
	subtotal := decimal.Zero
	for i, item := range req.Items {
		p := products[i]
		qty := decimal.NewFromInt(int64(item.Quantity))

		cartItems[i] = offer.Item{
			ProductID:  item.ProductID,
			CategoryID: p.CategoryID,
			Price:      p.Price,
			Quantity:   item.Quantity,
		}
		subtotal = subtotal.Add(p.Price.Mul(qty))
	}

	// Apply the offer when one is selected.
	discountAmount := decimal.Zero
	var discountedItems []offer.DiscountedItem
	if req.OfferID != "" {
		res, _, err := s.offers.CalculateByID(ctx, req.OfferID, cartItems)
		if err != nil {
			return nil, fmt.Errorf("calculate offer: %w", err)
		}
		if !res.Applied() {
			return nil, &OfferRejectedError{OfferID: req.OfferID, Message: res.Message}
		}
		discountAmount = res.Discount
		discountedItems = res.DiscountedItems
	}

	// Total = subtotal - discount, floored at zero and rounded to 2 decimal places.
	total := subtotal.Sub(discountAmount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	total = total.Round(2)
	subtotal = subtotal.Round(2)
	discountAmount = discountAmount.Round(2)

	o := &Order{
		ID:              uuid.New().String(),
		Items:           req.Items,
		Subtotal:        subtotal,
		Total:           total,
		Discounts:       discountAmount,
		OfferID:         req.OfferID,
		DiscountedItems: discountedItems,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	return &PlaceOrderResult{
		Order:    o,
		Products: products,
	}, nil
}
