//go:build integration

package integration

import (
	"net/http"
	"strings"
	"testing"
)

func TestCalculateOffer_Percentage(t *testing.T) {
	req := calculateRequest{
		OfferID: "SPRING20",
		CartItems: []cartItemRequest{
			{ProductID: "3", Quantity: 1, Price: 8.00},
		},
	}
	resp := doPost(t, "/api/offers/calculate", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	result := decodeJSON[calculateResponse](t, resp)
	if !result.Success {
		t.Fatalf("expected success, got message %q", result.Message)
	}
	// 8.00 * 20% = 1.60
	if result.Discount != 1.6 {
		t.Errorf("discount: got %v, want 1.6", result.Discount)
	}
	if result.Offer.ID != "SPRING20" || result.Offer.Type != "percentage" {
		t.Errorf("offer: got %+v", result.Offer)
	}
}

func TestCalculateOffer_PriceFromCatalog(t *testing.T) {
	// No price supplied: the catalog price is looked up.
	req := calculateRequest{
		OfferID: "SPRING20",
		CartItems: []cartItemRequest{
			{ProductID: "3", Quantity: 1},
		},
	}
	resp := doPost(t, "/api/offers/calculate", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	result := decodeJSON[calculateResponse](t, resp)
	if result.Discount != 1.6 {
		t.Errorf("discount: got %v, want 1.6", result.Discount)
	}
}

func TestCalculateOffer_BundleBreakdown(t *testing.T) {
	req := calculateRequest{
		OfferID: "B2G1",
		CartItems: []cartItemRequest{
			{ProductID: "1", Quantity: 1}, // Waffle $6.50
			{ProductID: "3", Quantity: 1}, // Macaron $8.00
			{ProductID: "5", Quantity: 1}, // Baklava $4.00
		},
	}
	resp := doPost(t, "/api/offers/calculate", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	result := decodeJSON[calculateResponse](t, resp)
	if result.Discount != 4 {
		t.Errorf("discount: got %v, want 4", result.Discount)
	}
	if len(result.DiscountedItems) != 1 || result.DiscountedItems[0].ProductID != "5" {
		t.Errorf("discounted_items: got %+v, want baklava", result.DiscountedItems)
	}
}

func TestCalculateOffer_BundleShortfall(t *testing.T) {
	req := calculateRequest{
		OfferID: "B2G1",
		CartItems: []cartItemRequest{
			{ProductID: "1", Quantity: 2},
		},
	}
	resp := doPost(t, "/api/offers/calculate", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	result := decodeJSON[calculateResponse](t, resp)
	if result.Success {
		t.Error("expected success=false")
	}
	if !strings.Contains(result.Message, "add 1 more") {
		t.Errorf("message: got %q", result.Message)
	}
}

func TestCalculateOffer_MinimumPurchase(t *testing.T) {
	req := calculateRequest{
		OfferID: "BIGSPENDER",
		CartItems: []cartItemRequest{
			{ProductID: "5", Quantity: 1}, // $4.00, threshold is $50.00
		},
	}
	resp := doPost(t, "/api/offers/calculate", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	result := decodeJSON[calculateResponse](t, resp)
	if !strings.Contains(result.Message, "minimum purchase") {
		t.Errorf("message: got %q", result.Message)
	}
}

func TestCalculateOffer_NotFound(t *testing.T) {
	req := calculateRequest{
		OfferID: "NONEXISTENT",
		CartItems: []cartItemRequest{
			{ProductID: "1", Quantity: 1},
		},
	}
	resp := doPost(t, "/api/offers/calculate", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
