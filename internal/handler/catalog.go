package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/arkarz/perfumeria/internal/domain/product"
)

// ListProducts serves the filtered, paginated catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.catalog.Browse(r.Context(), product.Filter{
		BrandID:  q.Get("marca"),
		Gender:   q.Get("sexo"),
		MinPrice: q.Get("precio_min"),
		MaxPrice: q.Get("precio_max"),
		Query:    q.Get("q"),
		Sort:     q.Get("orden"),
		Page:     pageParam(r),
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toPage(page))
}

// FeaturedProducts serves the home page selection.
func (h *Handler) FeaturedProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Featured(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, productsResponse{Success: true, Products: h.toProducts(products)})
}

// GetProduct serves a product with its related products and rating.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("productID")
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("product.id", id))

	d, err := h.catalog.Detail(ctx, id)
	if err != nil {
		fail(w, r, err)
		return
	}
	agg, err := h.ratings.Aggregate(ctx, id)
	if err != nil {
		fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, detailResponse{
		Success: true,
		Product: h.toProduct(d.Product),
		Related: h.toProducts(d.Related),
		Rating:  toRating(agg),
	})
}

// ListBrands serves the active brands.
func (h *Handler) ListBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.catalog.Brands(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}

	out := make([]brandResponse, len(brands))
	for i, b := range brands {
		out[i] = h.toBrand(b)
	}
	writeJSON(w, http.StatusOK, brandsResponse{Success: true, Brands: out})
}

// BrandProducts serves one brand's catalog page.
func (h *Handler) BrandProducts(w http.ResponseWriter, r *http.Request) {
	b, page, err := h.catalog.BrandProducts(r.Context(), r.PathValue("brandID"), pageParam(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, brandPageResponse{
		Brand:        h.toBrand(*b),
		pageResponse: h.toPage(page),
	})
}

// Search serves the quick search box. Short queries yield no results.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil && !errors.Is(err, product.ErrQueryTooShort) {
		fail(w, r, err)
		return
	}

	results := make([]searchResult, len(products))
	for i, p := range products {
		results[i] = searchResult{
			ID:    p.ID,
			Name:  p.Name,
			Brand: p.Brand.Name,
			Price: p.Price.InexactFloat64(),
			Image: h.imageURL(p.Image),
			URL:   "/perfume/" + p.ID + "/",
		}
	}
	writeJSON(w, http.StatusOK, searchResponse{Success: true, Results: results})
}

func (h *Handler) toBrand(b product.Brand) brandResponse {
	return brandResponse{
		ID:          b.ID,
		Name:        b.Name,
		Description: b.Description,
		Logo:        h.imageURL(b.Logo),
		Products:    b.Products,
	}
}

// pageParam parses ?page, treating garbage as the first page.
func pageParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		return 1
	}
	return n
}
