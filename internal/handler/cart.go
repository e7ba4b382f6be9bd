package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/arkarz/perfumeria/internal/domain/cart"
	"github.com/arkarz/perfumeria/internal/session"
)

type addToCartRequest struct {
	Quantity *int `json:"cantidad"`
}

// AddToCart adds units of a product to the session cart. A missing
// quantity adds one unit.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("productID")
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("product.id", id))

	var req addToCartRequest
	if err := decodeBody(w, r, &req); err != nil {
		fail(w, r, cart.ErrInvalidQuantity)
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	s, c := h.loadCart(r)
	total, err := h.carts.Add(ctx, c, id, qty)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.storeCart(ctx, w, s, c); err != nil {
		fail(w, r, err)
		return
	}
	h.cartAdds.Add(ctx, int64(qty))

	l, _ := c.Line(id)
	writeJSON(w, http.StatusOK, cartUpdateResponse{
		Success:    true,
		Message:    l.Name + " agregado al carrito",
		TotalItems: total,
	})
}

// RemoveFromCart drops a line from the session cart.
func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("productID")
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("product.id", id))

	s, c := h.loadCart(r)
	if err := h.carts.Remove(c, id); err != nil {
		fail(w, r, err)
		return
	}
	if err := h.storeCart(ctx, w, s, c); err != nil {
		fail(w, r, err)
		return
	}
	h.cartRemovals.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "remove")))

	writeJSON(w, http.StatusOK, cartUpdateResponse{
		Success:    true,
		Message:    "Producto eliminado del carrito",
		TotalItems: c.Count(),
	})
}

// ClearCart empties the session cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s, c := h.loadCart(r)
	lines := c.Len()

	h.carts.Clear(c)
	if err := h.storeCart(ctx, w, s, c); err != nil {
		fail(w, r, err)
		return
	}
	if lines > 0 {
		h.cartRemovals.Add(ctx, int64(lines), metric.WithAttributes(attribute.String("reason", "clear")))
	}
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Carrito vaciado"})
}

// GetCart serves the priced session cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	_, c := h.loadCart(r)
	sum, err := h.carts.Summary(r.Context(), c)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cartResponse{Success: true, Summary: sum})
}

// OrderMessage serves the checkout message and its handoff link.
func (h *Handler) OrderMessage(w http.ResponseWriter, r *http.Request) {
	_, c := h.loadCart(r)
	msg, err := h.carts.OrderMessage(r.Context(), c)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orderMessageResponse{
		Success: true,
		Text:    msg.Text,
		Encoded: msg.Encoded,
		Link:    msg.Link,
	})
}

// loadCart reads the cart stored in the request session. A cart that no
// longer decodes is replaced by an empty one.
func (h *Handler) loadCart(r *http.Request) (*session.Session, *cart.Cart) {
	s := session.FromContext(r.Context())
	c := cart.New()
	raw, ok := s.Get(cart.SessionKey)
	if !ok {
		return s, c
	}
	if err := c.Decode(jx.DecodeBytes(raw)); err != nil {
		zctx.From(r.Context()).Warn("Discarding unreadable cart", zap.Error(err))
		return s, cart.New()
	}
	return s, c
}

// storeCart writes c back into the session and persists it. It must run
// before the response body is written so the cookie is sent.
func (h *Handler) storeCart(ctx context.Context, w http.ResponseWriter, s *session.Session, c *cart.Cart) error {
	data, err := c.MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "encode cart")
	}
	s.Set(cart.SessionKey, jx.Raw(data))
	return h.sessions.Save(ctx, w, s)
}
