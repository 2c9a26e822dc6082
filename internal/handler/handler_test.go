package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vortelio/storefront/internal/domain/offer"
	"github.com/vortelio/storefront/internal/domain/order"
	"github.com/vortelio/storefront/internal/domain/product"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

type stubProductRepo struct {
	products map[string]product.Product
}

func (s *stubProductRepo) List(_ context.Context) ([]product.Product, error) {
	out := []product.Product{}
	for _, id := range []string{"p1", "p2", "p3"} {
		if p, ok := s.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (s *stubProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	var out []product.Product
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type stubOfferRepo struct {
	offers map[string]*offer.Offer
}

func (s *stubOfferRepo) FindByID(_ context.Context, id string) (*offer.Offer, error) {
	o, ok := s.offers[id]
	if !ok {
		return nil, offer.ErrNotFound
	}
	return o, nil
}

type stubOrderRepo struct {
	created *order.Order
}

func (s *stubOrderRepo) Create(_ context.Context, o *order.Order) error {
	s.created = o
	return nil
}

type stubAPIKeyRepo struct {
	hash string
}

func (s *stubAPIKeyRepo) FindByHash(_ context.Context, hash string) (*APIKeyInfo, error) {
	if hash != s.hash {
		return nil, errors.New("api key not found")
	}
	return &APIKeyInfo{ID: "k1", KeyHash: hash, Name: "test"}, nil
}

const (
	testAPIKey = "test-api-key"
	testPepper = "test-pepper"
)

func hashKey(key string) string {
	mac := hmac.New(sha256.New, []byte(testPepper))
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

func newTestHandler(t *testing.T, offers map[string]*offer.Offer) (*Handler, *stubOrderRepo) {
	t.Helper()

	products := &stubProductRepo{products: map[string]product.Product{
		"p1": {ID: "p1", Name: "Waffle", Price: d("6.50"), CategoryID: "c1"},
		"p2": {ID: "p2", Name: "Cake", Price: d("4.00"), CategoryID: "c1"},
		"p3": {ID: "p3", Name: "Mug", Price: d("12.00"), CategoryID: "c2"},
	}}

	calc := offer.NewRepoCalculator(&stubOfferRepo{offers: offers})
	orders := &stubOrderRepo{}
	svc := order.NewService(products, calc, orders)

	h := New(
		Config{APIKeyPepper: []byte(testPepper)},
		products,
		calc,
		svc,
		&stubAPIKeyRepo{hash: hashKey(testAPIKey)},
	)
	return h, orders
}

func testOffers() map[string]*offer.Offer {
	future := time.Now().Add(24 * time.Hour)
	return map[string]*offer.Offer{
		"spring10": {
			ID: "spring10", Type: offer.TypePercentage, Active: true,
			Percent: d("10"), Title: "Spring sale",
		},
		"b2g1": {
			ID: "b2g1", Type: offer.TypeBuyXGetY, Active: true,
			BuyQuantity: 2, GetQuantity: 1, Title: "Buy 2 get 1",
		},
		"expired": {
			ID: "expired", Type: offer.TypePercentage, Active: true,
			Percent: d("10"), StartsAt: &future,
		},
	}
}

func doRequest(t *testing.T, h *Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestListProducts(t *testing.T) {
	h, _ := newTestHandler(t, testOffers())

	rec := doRequest(t, h, http.MethodGet, "/api/products", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var products []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &products))
	require.Len(t, products, 3)
	assert.Equal(t, "p1", products[0]["id"])
	assert.Equal(t, 6.50, products[0]["price"])
}

func TestGetProduct_NotFound(t *testing.T) {
	h, _ := newTestHandler(t, testOffers())

	rec := doRequest(t, h, http.MethodGet, "/api/products/nope", nil, nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCalculateOffer_Percentage(t *testing.T) {
	h, _ := newTestHandler(t, testOffers())

	rec := doRequest(t, h, http.MethodPost, "/api/offers/calculate", map[string]any{
		"offer_id": "spring10",
		"cart_items": []map[string]any{
			{"product_id": "p1", "price": 6.50, "quantity": 2, "category_id": "c1"},
		},
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, 1.30, body["discount"])
	assert.Equal(t, float64(1), body["eligible_items_count"])

	o := body["offer"].(map[string]any)
	assert.Equal(t, "spring10", o["id"])
	assert.Equal(t, "percentage", o["type"])
}

func TestCalculateOffer_PriceEnrichedFromCatalog(t *testing.T) {
	h, _ := newTestHandler(t, testOffers())

	// No price supplied: the catalog's 6.50 is used.
	rec := doRequest(t, h, http.MethodPost, "/api/offers/calculate", map[string]any{
		"offer_id": "spring10",
		"cart_items": []map[string]any{
			{"id": "p1", "quantity": 2},
		},
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, 1.30, body["discount"])
}

func TestCalculateOffer_BundleBreakdown(t *testing.T) {
	h, _ := newTestHandler(t, testOffers())

	rec := doRequest(t, h, http.MethodPost, "/api/offers/calculate", map[string]any{
		"offer_id": "b2g1",
		"cart_items": []map[string]any{
			{"product_id": "p3", "price": 12.00, "quantity": 1, "category_id": "c2"},
			{"product_id": "p1", "price": 6.50, "quantity": 1, "category_id": "c1"},
			{"product_id": "p2", "price": 4.00, "quantity": 1, "category_id": "c1"},
		},
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, 4.00, body["discount"])

	discounted := body["discounted_items"].([]any)
	require.Len(t, discounted, 1)
	first := discounted[0].(map[string]any)
	assert.Equal(t, "p2", first["product_id"])
	assert.Equal(t, float64(1), first["quantity"])
}

func TestCalculateOffer_BundleShortfall(t *testing.T) {
	h, _ := newTestHandler(t, testOffers())

	rec := doRequest(t, h, http.MethodPost, "/api/offers/calculate", map[string]any{
		"offer_id": "b2g1",
		"cart_items": []map[string]any{
			{"product_id": "p1", "price": 6.50, "quantity": 2, "category_id": "c1"},
		},
	}, nil)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["message"], "add 1 more eligible item(s)")
}

func TestCalculateOffer_OfferNotFound(t *testing.T) {
	h, _ := newTestHandler(t, testOffers())

	rec := doRequest(t, h, http.MethodPost, "/api/offers/calculate", map[string]any{
		"offer_id": "nope",
		"cart_items": []map[string]any{
			{"product_id": "p1", "price": 6.50, "quantity": 1},
		},
	}, nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCalculateOffer_Validation(t *testing.T) {
	h, _ := newTestHandler(t, testOffers())

	tests := []struct {
		name string
		body map[string]any
	}{
		{name: "missing offer id", body: map[string]any{
			"cart_items": []map[string]any{{"product_id": "p1", "price": 1, "quantity": 1}},
		}},
		{name: "empty cart", body: map[string]any{
			"offer_id": "spring10", "cart_items": []map[string]any{},
		}},
		{name: "zero quantity", body: map[string]any{
			"offer_id": "spring10",
			"cart_items": []map[string]any{
				{"product_id": "p1", "price": 1, "quantity": 0},
			},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodPost, "/api/offers/calculate", tt.body, nil)
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestPlaceOrder_RequiresAPIKey(t *testing.T) {
	h, _ := newTestHandler(t, testOffers())

	body := map[string]any{
		"items": []map[string]any{{"product_id": "p1", "quantity": 1}},
	}

	rec := doRequest(t, h, http.MethodPost, "/api/orders", body, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/api/orders", body, map[string]string{"api_key": "wrong"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPlaceOrder_WithOffer(t *testing.T) {
	h, orders := newTestHandler(t, testOffers())

	rec := doRequest(t, h, http.MethodPost, "/api/orders", map[string]any{
		"offer_id": "b2g1",
		"items": []map[string]any{
			{"product_id": "p1", "quantity": 2},
			{"product_id": "p2", "quantity": 1},
		},
	}, map[string]string{"api_key": testAPIKey})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)

	// Subtotal 17.00, cheapest unit (4.00) free.
	assert.Equal(t, 17.00, body["subtotal"])
	assert.Equal(t, 4.00, body["discounts"])
	assert.Equal(t, 13.00, body["total"])

	require.NotNil(t, orders.created)
	assert.Equal(t, "b2g1", orders.created.OfferID)
	require.Len(t, orders.created.DiscountedItems, 1)
	assert.Equal(t, "p2", orders.created.DiscountedItems[0].ProductID)
}

func TestPlaceOrder_OfferRejected(t *testing.T) {
	h, _ := newTestHandler(t, testOffers())

	rec := doRequest(t, h, http.MethodPost, "/api/orders", map[string]any{
		"offer_id": "expired",
		"items":    []map[string]any{{"product_id": "p1", "quantity": 1}},
	}, map[string]string{"api_key": testAPIKey})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body["message"], "not applied")
}
