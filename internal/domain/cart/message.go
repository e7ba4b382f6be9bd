package cart

import (
	"context"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// OrderMessage is a human-readable order summary ready to be handed off to
// an external messaging app.
type OrderMessage struct {
	Text    string
	Encoded string
	Link    string
}

var printer = message.NewPrinter(language.Spanish)

// OrderMessage renders the priced cart as an order message and builds the
// handoff deep link carrying it. It fails with ErrEmptyCart when no line
// survives pricing.
func (s *Service) OrderMessage(ctx context.Context, c *Cart) (*OrderMessage, error) {
	v, err := s.View(ctx, c)
	if err != nil {
		return nil, err
	}
	if len(v.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	var b strings.Builder
	b.WriteString("¡Hola! Quiero hacer el siguiente pedido:\n\n")
	for _, l := range v.Lines {
		name := l.Product.Name
		if l.Product.Brand.Name != "" {
			name += " (" + l.Product.Brand.Name + ")"
		}
		printer.Fprintf(&b, "• %s x%d - %s\n", name, l.Quantity, formatPrice(l.Subtotal))
	}
	printer.Fprintf(&b, "\nTotal de productos: %d\n", v.TotalItems)
	printer.Fprintf(&b, "Total a pagar: %s", formatPrice(v.Total))

	text := b.String()
	encoded := encode(text)
	return &OrderMessage{
		Text:    text,
		Encoded: encoded,
		Link:    s.handoff.BaseURL + s.handoff.Phone + "?text=" + encoded,
	}, nil
}

// formatPrice renders an amount in whole pesos with Spanish digit grouping.
func formatPrice(d decimal.Decimal) string {
	return printer.Sprintf("$%d", d.Round(0).IntPart())
}

// encode percent-encodes every reserved byte, spaces included.
func encode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
