package handler

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/arkarz/perfumeria/internal/domain/rating"
	"github.com/arkarz/perfumeria/pkg/httpmiddleware"
)

type rateRequest struct {
	Score   *int   `json:"puntuacion"`
	Comment string `json:"comentario"`
}

// RateProduct records the caller's rating of a product. Callers are told
// apart by client IP only.
func (h *Handler) RateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("productID")
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("product.id", id))

	var req rateRequest
	if err := decodeBody(w, r, &req); err != nil || req.Score == nil {
		fail(w, r, rating.ErrInvalidScore)
		return
	}

	res, err := h.ratings.Submit(ctx, rating.SubmitRequest{
		ProductID: id,
		OriginIP:  httpmiddleware.ClientIP(r),
		Score:     *req.Score,
		Comment:   req.Comment,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	h.ratingsTotal.Add(ctx, 1, metric.WithAttributes(attribute.Bool("created", res.Created)))

	msg := "¡Gracias por tu valoración!"
	if !res.Created {
		msg = "Tu valoración fue actualizada"
	}
	writeJSON(w, http.StatusOK, rateResponse{
		Success:       true,
		Message:       msg,
		ratingSummary: toRating(res.Aggregate),
	})
}

// GetRating serves a product's rating aggregate.
func (h *Handler) GetRating(w http.ResponseWriter, r *http.Request) {
	agg, err := h.ratings.Aggregate(r.Context(), r.PathValue("productID"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ratingResponse{Success: true, ratingSummary: toRating(agg)})
}
