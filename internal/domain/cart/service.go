package cart

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/arkarz/perfumeria/internal/domain/product"
)

// MaxQuantity caps the units of a single cart line.
const MaxQuantity = 999

// Sentinel errors for cart operations.
var (
	ErrInvalidQuantity = errors.New("quantity must be between 1 and 999")
	ErrLineNotFound    = errors.New("product not in cart")
	ErrEmptyCart       = errors.New("cart is empty")
)

// ProductUnavailableError indicates a product that does not exist or is not
// active. It matches product.ErrNotFound with errors.Is.
type ProductUnavailableError struct {
	ProductID string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// Is reports product.ErrNotFound as equivalent.
func (e *ProductUnavailableError) Is(target error) bool {
	return target == product.ErrNotFound
}

// Products is the slice of the catalog the cart needs.
type Products interface {
	GetByID(ctx context.Context, id string) (*product.Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]product.Product, error)
}

// Handoff configures the external messaging deep link used for checkout.
type Handoff struct {
	// BaseURL is the deep link prefix the phone number is appended to,
	// e.g. https://wa.me/.
	BaseURL string
	// Phone is the store's number in international format without '+'.
	Phone string
}

// ViewLine is a cart line joined with the live product record.
type ViewLine struct {
	Product   product.Product
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// View is the priced content of a cart.
type View struct {
	Lines      []ViewLine
	TotalItems int
	Total      decimal.Decimal
}

// Service implements cart operations against the live catalog.
type Service struct {
	products Products
	handoff  Handoff
}

// NewService creates a cart Service.
func NewService(products Products, handoff Handoff) *Service {
	return &Service{
		products: products,
		handoff:  handoff,
	}
}

// Add puts quantity units of an active product into the cart, snapshotting
// its name, price and image when it is not yet present. It returns the total
// item count across all lines.
func (s *Service) Add(ctx context.Context, c *Cart, productID string, quantity int) (int, error) {
	if quantity < 1 || quantity > MaxQuantity {
		return 0, ErrInvalidQuantity
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return 0, &ProductUnavailableError{ProductID: productID}
		}
		return 0, errors.Wrapf(err, "get product %s", productID)
	}
	if !p.Active {
		return 0, &ProductUnavailableError{ProductID: productID}
	}

	l, ok := c.Line(p.ID)
	if ok {
		if quantity > MaxQuantity-l.Quantity {
			return 0, ErrInvalidQuantity
		}
		l.Quantity += quantity
	} else {
		l = Line{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  quantity,
			Price:     p.Price,
			Image:     p.Image,
		}
	}
	c.put(l)

	return c.Count(), nil
}

// Remove deletes the line for productID.
func (s *Service) Remove(c *Cart, productID string) error {
	if !c.remove(productID) {
		return ErrLineNotFound
	}
	return nil
}

// Clear empties the cart.
func (s *Service) Clear(c *Cart) {
	c.clear()
}

// View prices the cart against the live catalog. Lines whose product no
// longer exists or is inactive are skipped and excluded from the totals.
// Amounts always use the live price, including a price of zero. Captured
// names and images fill in blank live fields.
func (s *Service) View(ctx context.Context, c *Cart) (*View, error) {
	v := &View{Total: decimal.Zero}
	if c.Len() == 0 {
		return v, nil
	}

	fetched, err := s.products.GetByIDs(ctx, c.ProductIDs())
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	live := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		live[p.ID] = p
	}

	for _, l := range c.Lines() {
		p, ok := live[l.ProductID]
		if !ok || !p.Active {
			continue
		}

		if p.Name == "" {
			p.Name = l.Name
		}
		if p.Image == "" {
			p.Image = l.Image
		}

		subtotal := p.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		v.Lines = append(v.Lines, ViewLine{
			Product:   p,
			Quantity:  l.Quantity,
			UnitPrice: p.Price,
			Subtotal:  subtotal,
		})
		v.TotalItems += l.Quantity
		v.Total = v.Total.Add(subtotal)
	}

	return v, nil
}

// SummaryItem is one line of a Summary.
type SummaryItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"nombre"`
	Quantity int     `json:"cantidad"`
	Price    float64 `json:"precio"`
	Subtotal float64 `json:"subtotal"`
	Image    string  `json:"imagen"`
}

// Summary is the serializable form of a View for programmatic consumers.
type Summary struct {
	Items       []SummaryItem `json:"items"`
	TotalItems  int           `json:"total_items"`
	TotalAmount float64       `json:"total_monto"`
}

// Summary prices the cart like View and flattens it into numeric fields.
func (s *Service) Summary(ctx context.Context, c *Cart) (*Summary, error) {
	v, err := s.View(ctx, c)
	if err != nil {
		return nil, err
	}

	out := &Summary{
		Items:       make([]SummaryItem, len(v.Lines)),
		TotalItems:  v.TotalItems,
		TotalAmount: v.Total.InexactFloat64(),
	}
	for i, l := range v.Lines {
		out.Items[i] = SummaryItem{
			ID:       l.Product.ID,
			Name:     l.Product.Name,
			Quantity: l.Quantity,
			Price:    l.UnitPrice.InexactFloat64(),
			Subtotal: l.Subtotal.InexactFloat64(),
			Image:    l.Product.Image,
		}
	}
	return out, nil
}
