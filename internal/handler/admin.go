package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/arkarz/perfumeria/internal/domain/product"
)

type brandRequest struct {
	Name        string `json:"nombre"`
	Description string `json:"descripcion"`
	Logo        string `json:"logo"`
	Active      *bool  `json:"activo"`
}

type productRequest struct {
	Name        string          `json:"nombre"`
	BrandID     string          `json:"marca"`
	Gender      string          `json:"sexo"`
	Size        string          `json:"tamano"`
	Price       decimal.Decimal `json:"precio"`
	Description string          `json:"descripcion"`
	Image       string          `json:"imagen"`
	Stock       int             `json:"stock"`
	Active      *bool           `json:"activo"`
	Featured    bool            `json:"destacado"`
}

type adminProductResponse struct {
	Success   bool            `json:"success"`
	Product   productResponse `json:"producto"`
	UpdatedAt time.Time       `json:"actualizado"`
}

type adminBrandResponse struct {
	Success bool          `json:"success"`
	Brand   brandResponse `json:"marca"`
}

// PutBrand creates or replaces a brand.
func (h *Handler) PutBrand(w http.ResponseWriter, r *http.Request) {
	var req brandRequest
	if err := decodeBody(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}

	b := &product.Brand{
		ID:          r.PathValue("brandID"),
		Name:        req.Name,
		Description: req.Description,
		Logo:        req.Logo,
		Active:      req.Active == nil || *req.Active,
	}
	if err := h.catalog.UpsertBrand(r.Context(), b); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, adminBrandResponse{Success: true, Brand: h.toBrand(*b)})
}

// PutProduct creates or replaces a product. The brand must exist.
func (h *Handler) PutProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeBody(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}

	p := &product.Product{
		ID:          r.PathValue("productID"),
		Name:        req.Name,
		Brand:       product.BrandRef{ID: req.BrandID},
		Gender:      product.Gender(req.Gender),
		Size:        product.Size(req.Size),
		Price:       req.Price,
		Description: req.Description,
		Image:       req.Image,
		Stock:       req.Stock,
		Active:      req.Active == nil || *req.Active,
		Featured:    req.Featured,
	}
	if err := h.catalog.UpsertProduct(r.Context(), p); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, adminProductResponse{
		Success:   true,
		Product:   h.toProduct(*p),
		UpdatedAt: p.UpdatedAt,
	})
}
