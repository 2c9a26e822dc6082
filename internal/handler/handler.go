// Package handler implements the storefront HTTP API on net/http, encoding
// request and response bodies with go-faster/jx.
package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/go-faster/jx"

	"github.com/vortelio/storefront/internal/domain/offer"
	"github.com/vortelio/storefront/internal/domain/order"
	"github.com/vortelio/storefront/internal/domain/product"
)

// APIKeyInfo holds the identity and permission data for a validated API key.
type APIKeyInfo struct {
	ID      string
	KeyHash string
	Name    string
	Scopes  []string
}

// APIKeyRepository provides lookup of API keys by their HMAC-SHA256 hash.
type APIKeyRepository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// When empty, image paths are returned as stored in the database.
	ImageBaseURL string
	// APIKeyPepper is the HMAC key for hashing API keys.
	APIKeyPepper []byte
}

// Handler serves the storefront API, delegating business logic to the domain
// services and repositories.
type Handler struct {
	products     product.Repository
	offers       offer.Calculator
	orderService *order.Service
	apikeys      APIKeyRepository
	imageBaseURL string
	pepper       []byte
}

// New constructs a Handler with the required domain dependencies.
func New(
	cfg Config,
	products product.Repository,
	offers offer.Calculator,
	orderService *order.Service,
	apikeys APIKeyRepository,
) *Handler {
	return &Handler{
		products:     products,
		offers:       offers,
		orderService: orderService,
		apikeys:      apikeys,
		imageBaseURL: cfg.ImageBaseURL,
		pepper:       cfg.APIKeyPepper,
	}
}

// Routes registers all API routes on a new ServeMux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)
	mux.HandleFunc("POST /api/offers/calculate", h.CalculateOffer)
	mux.Handle("POST /api/orders", h.RequireAPIKey(http.HandlerFunc(h.PlaceOrder)))
	return mux
}

// maxBodyBytes bounds request bodies; carts and offer requests are small.
const maxBodyBytes = 1 << 20

// readBody reads a size-limited request body.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
}

// writeJSON encodes a response body built by fn and writes it with the given
// status code.
func writeJSON(w http.ResponseWriter, status int, fn func(e *jx.Encoder)) {
	var e jx.Encoder
	fn(&e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError writes the standard {code, message} error body.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(status)
		e.FieldStart("message")
		e.Str(message)
		e.ObjEnd()
	})
}
