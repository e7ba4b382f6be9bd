package product

import (
	"context"
	"math"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

const (
	// PageSize is the number of products per listing page.
	PageSize = 12
	// FeaturedLimit is the number of products shown on the home page.
	FeaturedLimit = 8
	// RelatedLimit is the number of related products shown on a detail page.
	RelatedLimit = 4
	// SearchMinLength is the shortest query the quick search accepts.
	SearchMinLength = 3
	// SearchLimit caps quick search results.
	SearchLimit = 5
)

// maxPage bounds requested page numbers so offsets never overflow.
const maxPage = math.MaxInt32 / PageSize

// ErrQueryTooShort is returned by Search for queries under SearchMinLength.
var ErrQueryTooShort = errors.New("search query too short")

// Filter is a raw listing request as received from a client. Values that do
// not parse are ignored rather than rejected.
type Filter struct {
	BrandID  string
	Gender   string
	MinPrice string
	MaxPrice string
	Query    string
	Sort     string
	Page     int
}

// Page is one page of a catalog listing.
type Page struct {
	Products []Product
	Total    int
	Number   int
	Pages    int
}

// Detail is a product together with its related products.
type Detail struct {
	Product Product
	Related []Product
}

// Catalog implements the read side of the storefront and catalog
// maintenance on top of a Repository.
type Catalog struct {
	repo Repository
}

// NewCatalog creates a Catalog backed by repo.
func NewCatalog(repo Repository) *Catalog {
	return &Catalog{repo: repo}
}

// Browse lists active products matching f, one page at a time. Page numbers
// outside the valid range are clamped.
func (c *Catalog) Browse(ctx context.Context, f Filter) (*Page, error) {
	q := f.query()
	number := min(max(f.Page, 1), maxPage)
	q.Limit = PageSize
	q.Offset = (number - 1) * PageSize

	products, total, err := c.repo.List(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}

	pages := pageCount(total)
	if total > 0 && number > pages {
		number = pages
		q.Offset = (number - 1) * PageSize
		if products, total, err = c.repo.List(ctx, q); err != nil {
			return nil, errors.Wrap(err, "list products")
		}
		pages = pageCount(total)
	}

	return &Page{
		Products: products,
		Total:    total,
		Number:   number,
		Pages:    pages,
	}, nil
}

// Featured returns the newest active products for the home page.
func (c *Catalog) Featured(ctx context.Context) ([]Product, error) {
	products, _, err := c.repo.List(ctx, Query{Sort: SortNewest, Limit: FeaturedLimit})
	if err != nil {
		return nil, errors.Wrap(err, "list featured products")
	}
	return products, nil
}

// Detail returns an active product and up to RelatedLimit active products of
// the same brand or gender. Inactive products are reported as ErrNotFound.
func (c *Catalog) Detail(ctx context.Context, id string) (*Detail, error) {
	p, err := c.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return nil, ErrNotFound
	}

	related, err := c.repo.Related(ctx, p, RelatedLimit)
	if err != nil {
		return nil, errors.Wrap(err, "list related products")
	}
	return &Detail{Product: *p, Related: related}, nil
}

// Search is the quick search used by the header search box. It matches
// product and brand names only.
func (c *Catalog) Search(ctx context.Context, query string) ([]Product, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < SearchMinLength {
		return nil, ErrQueryTooShort
	}
	products, _, err := c.repo.List(ctx, Query{
		Search: query,
		Sort:   SortNewest,
		Limit:  SearchLimit,
	})
	if err != nil {
		return nil, errors.Wrap(err, "search products")
	}
	return products, nil
}

// Brands returns active brands ordered by name.
func (c *Catalog) Brands(ctx context.Context) ([]Brand, error) {
	brands, err := c.repo.ListBrands(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list brands")
	}
	return brands, nil
}

// BrandProducts lists the active products of an active brand, newest first.
func (c *Catalog) BrandProducts(ctx context.Context, brandID string, page int) (*Brand, *Page, error) {
	b, err := c.repo.GetBrand(ctx, brandID)
	if err != nil {
		return nil, nil, err
	}
	if !b.Active {
		return nil, nil, ErrBrandNotFound
	}

	p, err := c.Browse(ctx, Filter{BrandID: b.ID, Sort: string(SortNewest), Page: page})
	if err != nil {
		return nil, nil, err
	}
	return b, p, nil
}

// UpsertBrand validates and stores a brand.
func (c *Catalog) UpsertBrand(ctx context.Context, b *Brand) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if err := c.repo.UpsertBrand(ctx, b); err != nil {
		return errors.Wrap(err, "upsert brand")
	}
	return nil
}

// UpsertProduct validates and stores a product. An empty size defaults to
// DefaultSize.
func (c *Catalog) UpsertProduct(ctx context.Context, p *Product) error {
	if p.Size == "" {
		p.Size = DefaultSize
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if err := c.repo.UpsertProduct(ctx, p); err != nil {
		return errors.Wrap(err, "upsert product")
	}
	return nil
}

// query converts the raw filter into a repository Query.
func (f Filter) query() Query {
	q := Query{
		BrandID:           strings.TrimSpace(f.BrandID),
		Search:            strings.TrimSpace(f.Query),
		SearchDescription: true,
		Sort:              parseSort(f.Sort),
	}
	if g := Gender(strings.ToUpper(strings.TrimSpace(f.Gender))); g.Valid() {
		q.Gender = g
	}
	q.MinPrice = parsePrice(f.MinPrice)
	q.MaxPrice = parsePrice(f.MaxPrice)
	return q
}

// parseSort maps a client sort key to a Sort. An empty key sorts by name;
// unknown keys fall back to newest first.
func parseSort(s string) Sort {
	switch Sort(s) {
	case "":
		return SortName
	case SortName, SortPriceAsc, SortPriceDesc, SortNewest:
		return Sort(s)
	default:
		return SortNewest
	}
}

func parsePrice(s string) *decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

func pageCount(total int) int {
	if total == 0 {
		return 1
	}
	return (total + PageSize - 1) / PageSize
}
