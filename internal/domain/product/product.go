package product

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrBrandNotFound is returned when a requested brand does not exist or
	// is not active.
	ErrBrandNotFound = errors.New("brand not found")
)

// Gender is the audience a perfume is marketed to.
type Gender string

const (
	GenderMale   Gender = "H"
	GenderFemale Gender = "M"
	GenderUnisex Gender = "U"
)

// Valid reports whether g is one of the known genders.
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderUnisex:
		return true
	default:
		return false
	}
}

// Size is the bottle size of a perfume.
type Size string

const (
	Size30  Size = "30ml"
	Size50  Size = "50ml"
	Size100 Size = "100ml"
	Size150 Size = "150ml"

	DefaultSize = Size100
)

// Valid reports whether s is one of the sold bottle sizes.
func (s Size) Valid() bool {
	switch s {
	case Size30, Size50, Size100, Size150:
		return true
	default:
		return false
	}
}

var taxRate = decimal.RequireFromString("1.21")

// Product is a perfume in the catalog.
type Product struct {
	ID          string
	Name        string
	Brand       BrandRef
	Gender      Gender
	Size        Size
	Price       decimal.Decimal
	Description string
	Image       string
	Stock       int
	Active      bool
	Featured    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BrandRef is the denormalized brand reference carried by a product.
type BrandRef struct {
	ID   string
	Name string
}

// Available reports whether the product can currently be shipped.
func (p *Product) Available() bool {
	return p.Active && p.Stock > 0
}

// PriceWithTax returns the price including 21% VAT.
func (p *Product) PriceWithTax() decimal.Decimal {
	return p.Price.Mul(taxRate).Round(3)
}

// Validate checks the invariants enforced on catalog writes.
func (p *Product) Validate() error {
	switch {
	case p.ID == "":
		return &InvalidProductError{Field: "id", Reason: "cannot be empty"}
	case p.Name == "":
		return &InvalidProductError{Field: "nombre", Reason: "cannot be empty"}
	case p.Brand.ID == "":
		return &InvalidProductError{Field: "marca", Reason: "cannot be empty"}
	case !p.Gender.Valid():
		return &InvalidProductError{Field: "sexo", Reason: fmt.Sprintf("unknown value %q", p.Gender)}
	case !p.Size.Valid():
		return &InvalidProductError{Field: "tamano", Reason: fmt.Sprintf("unknown value %q", p.Size)}
	case p.Price.IsNegative():
		return &InvalidProductError{Field: "precio", Reason: "must be non-negative"}
	case p.Stock < 0:
		return &InvalidProductError{Field: "stock", Reason: "must be non-negative"}
	}
	return nil
}

// Brand is a perfume house.
type Brand struct {
	ID          string
	Name        string
	Description string
	Logo        string
	Active      bool
	// Products is the number of active products, filled by listings only.
	Products int
}

// Validate checks the invariants enforced on brand writes.
func (b *Brand) Validate() error {
	if b.ID == "" {
		return &InvalidProductError{Field: "id", Reason: "cannot be empty"}
	}
	if b.Name == "" {
		return &InvalidProductError{Field: "nombre", Reason: "cannot be empty"}
	}
	return nil
}

// InvalidProductError reports a catalog record that violates an invariant.
type InvalidProductError struct {
	Field  string
	Reason string
}

func (e *InvalidProductError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Sort selects the ordering of a catalog listing.
type Sort string

const (
	SortName      Sort = "nombre"
	SortPriceAsc  Sort = "precio_asc"
	SortPriceDesc Sort = "precio_desc"
	SortNewest    Sort = "nuevo"
)

// Query is a normalized catalog listing request understood by repositories.
// Only active products are ever listed.
type Query struct {
	BrandID  string
	Gender   Gender
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	// Search is matched case-insensitively against product name and brand
	// name, and also against the description when SearchDescription is set.
	Search            string
	SearchDescription bool
	Sort              Sort
	Limit             int
	Offset            int
}

// Repository defines operations on the product catalog.
type Repository interface {
	// List returns one page of active products matching q together with the
	// total number of matches.
	List(ctx context.Context, q Query) ([]Product, int, error)
	// GetByID and GetByIDs return products regardless of the active flag.
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	// Related returns active products sharing brand or gender with p.
	Related(ctx context.Context, p *Product, limit int) ([]Product, error)
	ListBrands(ctx context.Context) ([]Brand, error)
	GetBrand(ctx context.Context, id string) (*Brand, error)
	UpsertBrand(ctx context.Context, b *Brand) error
	UpsertProduct(ctx context.Context, p *Product) error
}
