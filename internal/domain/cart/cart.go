// Package cart implements the session-resident shopping cart.
package cart

import (
	"slices"

	"github.com/shopspring/decimal"
)

// SessionKey is the session key the cart is stored under.
const SessionKey = "carrito"

// Line is one product's entry in a cart. Name, Price and Image are captured
// when the product is first added.
type Line struct {
	ProductID string
	Name      string
	Quantity  int
	Price     decimal.Decimal
	Image     string
}

// Cart maps product identifiers to lines, remembering insertion order.
// The zero value is an empty cart ready to use. A Cart belongs to a single
// visitor session and is not safe for concurrent use.
type Cart struct {
	lines map[string]*Line
	order []string
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Line returns the line for productID.
func (c *Cart) Line(productID string) (Line, bool) {
	l, ok := c.lines[productID]
	if !ok {
		return Line{}, false
	}
	return *l, true
}

// Lines returns a copy of all lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.lines[id])
	}
	return out
}

// ProductIDs returns the product identifiers in insertion order.
func (c *Cart) ProductIDs() []string {
	return slices.Clone(c.order)
}

// Len returns the number of lines.
func (c *Cart) Len() int {
	return len(c.order)
}

// Count returns the total quantity across all lines.
func (c *Cart) Count() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// put inserts or replaces a line.
func (c *Cart) put(l Line) {
	if c.lines == nil {
		c.lines = make(map[string]*Line)
	}
	if existing, ok := c.lines[l.ProductID]; ok {
		*existing = l
		return
	}
	c.lines[l.ProductID] = &l
	c.order = append(c.order, l.ProductID)
}

// remove deletes the line for productID and reports whether it existed.
func (c *Cart) remove(productID string) bool {
	if _, ok := c.lines[productID]; !ok {
		return false
	}
	delete(c.lines, productID)
	c.order = slices.DeleteFunc(c.order, func(id string) bool { return id == productID })
	return true
}

func (c *Cart) clear() {
	c.lines = nil
	c.order = nil
}
