package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/arkarz/perfumeria/internal/domain/cart"
	"github.com/arkarz/perfumeria/internal/domain/product"
	"github.com/arkarz/perfumeria/internal/domain/rating"
)

// errBadRequest marks a malformed request body.
var errBadRequest = errors.New("bad request")

type failureResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    int    `json:"code"`
}

type brandRef struct {
	ID   string `json:"id"`
	Name string `json:"nombre"`
}

type productResponse struct {
	ID           string   `json:"id"`
	Name         string   `json:"nombre"`
	Brand        brandRef `json:"marca"`
	Gender       string   `json:"sexo"`
	Size         string   `json:"tamano"`
	Price        float64  `json:"precio"`
	PriceWithTax float64  `json:"precio_con_impuesto"`
	Description  string   `json:"descripcion"`
	Image        string   `json:"imagen"`
	Stock        int      `json:"stock"`
	Available    bool     `json:"disponible"`
	Featured     bool     `json:"destacado"`
}

type pageResponse struct {
	Success  bool              `json:"success"`
	Products []productResponse `json:"productos"`
	Total    int               `json:"total"`
	Page     int               `json:"pagina"`
	Pages    int               `json:"paginas"`
}

type productsResponse struct {
	Success  bool              `json:"success"`
	Products []productResponse `json:"productos"`
}

type ratingSummary struct {
	Average float64 `json:"promedio"`
	Count   int     `json:"total"`
}

type detailResponse struct {
	Success bool              `json:"success"`
	Product productResponse   `json:"producto"`
	Related []productResponse `json:"relacionados"`
	Rating  ratingSummary     `json:"valoracion"`
}

type ratingResponse struct {
	Success bool `json:"success"`
	ratingSummary
}

type rateResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ratingSummary
}

type brandResponse struct {
	ID          string `json:"id"`
	Name        string `json:"nombre"`
	Description string `json:"descripcion"`
	Logo        string `json:"logo"`
	Products    int    `json:"productos"`
}

type brandsResponse struct {
	Success bool            `json:"success"`
	Brands  []brandResponse `json:"marcas"`
}

type brandPageResponse struct {
	Brand brandResponse `json:"marca"`
	pageResponse
}

type searchResult struct {
	ID    string  `json:"id"`
	Name  string  `json:"nombre"`
	Brand string  `json:"marca"`
	Price float64 `json:"precio"`
	Image string  `json:"imagen"`
	URL   string  `json:"url"`
}

type searchResponse struct {
	Success bool           `json:"success"`
	Results []searchResult `json:"resultados"`
}

type cartUpdateResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	TotalItems int    `json:"total_items"`
}

type cartResponse struct {
	Success bool `json:"success"`
	*cart.Summary
}

type orderMessageResponse struct {
	Success bool   `json:"success"`
	Text    string `json:"mensaje"`
	Encoded string `json:"mensaje_codificado"`
	Link    string `json:"enlace"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fail maps err to a failure response. Unknown errors are logged and
// answered with a generic 500.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := classify(err)
	if status == http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
	}
	writeJSON(w, status, failureResponse{Error: msg, Code: status})
}

func classify(err error) (int, string) {
	var invalid *product.InvalidProductError
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "solicitud inválida"
	case errors.Is(err, cart.ErrInvalidQuantity):
		return http.StatusBadRequest, "cantidad inválida"
	case errors.Is(err, rating.ErrInvalidScore):
		return http.StatusBadRequest, "la puntuación debe estar entre 1 y 5"
	case errors.Is(err, cart.ErrEmptyCart):
		return http.StatusBadRequest, "el carrito está vacío"
	case errors.As(err, &invalid):
		return http.StatusBadRequest, invalid.Error()
	case errors.Is(err, cart.ErrLineNotFound):
		return http.StatusNotFound, "el producto no está en el carrito"
	case errors.Is(err, product.ErrBrandNotFound):
		return http.StatusNotFound, "marca no encontrada"
	case errors.Is(err, product.ErrNotFound):
		return http.StatusNotFound, "producto no encontrado"
	default:
		return http.StatusInternalServerError, "error interno"
	}
}

// decodeBody decodes an optional JSON body into v. An empty body leaves v
// untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errors.Wrapf(errBadRequest, "decode body: %v", err)
	}
	return nil
}

// imageURL prefixes relative image paths with the configured base.
func (h *Handler) imageURL(path string) string {
	if path == "" || h.imageBaseURL == "" || strings.Contains(path, "://") {
		return path
	}
	return strings.TrimRight(h.imageBaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func (h *Handler) toProduct(p product.Product) productResponse {
	return productResponse{
		ID:           p.ID,
		Name:         p.Name,
		Brand:        brandRef{ID: p.Brand.ID, Name: p.Brand.Name},
		Gender:       string(p.Gender),
		Size:         string(p.Size),
		Price:        p.Price.InexactFloat64(),
		PriceWithTax: p.PriceWithTax().InexactFloat64(),
		Description:  p.Description,
		Image:        h.imageURL(p.Image),
		Stock:        p.Stock,
		Available:    p.Available(),
		Featured:     p.Featured,
	}
}

func (h *Handler) toProducts(ps []product.Product) []productResponse {
	out := make([]productResponse, len(ps))
	for i, p := range ps {
		out[i] = h.toProduct(p)
	}
	return out
}

func (h *Handler) toPage(p *product.Page) pageResponse {
	return pageResponse{
		Success:  true,
		Products: h.toProducts(p.Products),
		Total:    p.Total,
		Page:     p.Number,
		Pages:    p.Pages,
	}
}

func toRating(a rating.Aggregate) ratingSummary {
	return ratingSummary{Average: a.Average.InexactFloat64(), Count: a.Count}
}
