// Package handler serves the storefront JSON API over net/http.
package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric"

	"github.com/arkarz/perfumeria/internal/domain/cart"
	"github.com/arkarz/perfumeria/internal/domain/product"
	"github.com/arkarz/perfumeria/internal/domain/rating"
	"github.com/arkarz/perfumeria/internal/session"
)

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// When empty, image paths are returned as stored in the database.
	ImageBaseURL string
}

// Handler exposes the catalog, the session cart and product ratings.
type Handler struct {
	catalog  *product.Catalog
	carts    *cart.Service
	ratings  *rating.Aggregator
	sessions *session.Manager
	security *SecurityHandler

	imageBaseURL string

	cartAdds     metric.Int64Counter
	cartRemovals metric.Int64Counter
	ratingsTotal metric.Int64Counter
}

// NewHandler constructs a Handler and registers its counters on meter.
func NewHandler(
	cfg HandlerConfig,
	catalog *product.Catalog,
	carts *cart.Service,
	ratings *rating.Aggregator,
	sessions *session.Manager,
	security *SecurityHandler,
	meter metric.Meter,
) (*Handler, error) {
	h := &Handler{
		catalog:      catalog,
		carts:        carts,
		ratings:      ratings,
		sessions:     sessions,
		security:     security,
		imageBaseURL: cfg.ImageBaseURL,
	}

	var err error
	if h.cartAdds, err = meter.Int64Counter("perfumeria.cart.adds",
		metric.WithDescription("Units added to carts"),
	); err != nil {
		return nil, errors.Wrap(err, "cart adds counter")
	}
	if h.cartRemovals, err = meter.Int64Counter("perfumeria.cart.removals",
		metric.WithDescription("Lines removed from carts"),
	); err != nil {
		return nil, errors.Wrap(err, "cart removals counter")
	}
	if h.ratingsTotal, err = meter.Int64Counter("perfumeria.ratings.submitted",
		metric.WithDescription("Accepted rating submissions"),
	); err != nil {
		return nil, errors.Wrap(err, "ratings counter")
	}
	return h, nil
}

// Register adds every API route to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products/featured", h.FeaturedProducts)
	mux.HandleFunc("GET /api/products/{productID}", h.GetProduct)
	mux.HandleFunc("GET /api/products/{productID}/rating", h.GetRating)
	mux.HandleFunc("POST /api/products/{productID}/rate", h.RateProduct)
	mux.HandleFunc("GET /api/brands", h.ListBrands)
	mux.HandleFunc("GET /api/brands/{brandID}/products", h.BrandProducts)
	mux.HandleFunc("GET /api/search", h.Search)

	withSession := h.sessions.Middleware()
	mux.Handle("GET /api/cart", withSession(http.HandlerFunc(h.GetCart)))
	mux.Handle("POST /api/cart/add/{productID}", withSession(http.HandlerFunc(h.AddToCart)))
	mux.Handle("POST /api/cart/remove/{productID}", withSession(http.HandlerFunc(h.RemoveFromCart)))
	mux.Handle("POST /api/cart/clear", withSession(http.HandlerFunc(h.ClearCart)))
	mux.Handle("GET /api/cart/order-message", withSession(http.HandlerFunc(h.OrderMessage)))

	admin := h.security.RequireScope
	mux.Handle("PUT /api/admin/brands/{brandID}", admin(http.HandlerFunc(h.PutBrand)))
	mux.Handle("PUT /api/admin/products/{productID}", admin(http.HandlerFunc(h.PutProduct)))
}
