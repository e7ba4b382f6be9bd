package product

import (
	"context"
	"math"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockRepo struct {
	products []Product
	byID     map[string]*Product
	brands   map[string]*Brand
	total    int
	queries  []Query
	listErr  error
	upserted []*Product
}

func (m *mockRepo) List(_ context.Context, q Query) ([]Product, int, error) {
	m.queries = append(m.queries, q)
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	total := m.total
	if total == 0 {
		total = len(m.products)
	}
	return m.products, total, nil
}

func (m *mockRepo) GetByID(_ context.Context, id string) (*Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (m *mockRepo) GetByIDs(_ context.Context, _ []string) ([]Product, error) {
	return nil, nil
}

func (m *mockRepo) Related(_ context.Context, p *Product, limit int) ([]Product, error) {
	var out []Product
	for _, other := range m.products {
		if other.ID == p.ID || len(out) == limit {
			continue
		}
		out = append(out, other)
	}
	return out, nil
}

func (m *mockRepo) ListBrands(_ context.Context) ([]Brand, error) {
	out := make([]Brand, 0, len(m.brands))
	for _, b := range m.brands {
		out = append(out, *b)
	}
	return out, nil
}

func (m *mockRepo) GetBrand(_ context.Context, id string) (*Brand, error) {
	b, ok := m.brands[id]
	if !ok {
		return nil, ErrBrandNotFound
	}
	return b, nil
}

func (m *mockRepo) UpsertBrand(_ context.Context, _ *Brand) error {
	return nil
}

func (m *mockRepo) UpsertProduct(_ context.Context, p *Product) error {
	m.upserted = append(m.upserted, p)
	return nil
}

// --- Helpers ---

func newTestProduct(id string, active bool) Product {
	return Product{
		ID:     id,
		Name:   "Perfume " + id,
		Brand:  BrandRef{ID: "b1", Name: "Lattafa"},
		Gender: GenderUnisex,
		Size:   Size100,
		Price:  decimal.NewFromInt(50000),
		Stock:  3,
		Active: active,
	}
}

func newRepo(products ...Product) *mockRepo {
	byID := make(map[string]*Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	return &mockRepo{
		products: products,
		byID:     byID,
		brands: map[string]*Brand{
			"b1": {ID: "b1", Name: "Lattafa", Active: true},
			"b2": {ID: "b2", Name: "Afnan", Active: false},
		},
	}
}

// --- Tests ---

func TestBrowse_FilterNormalization(t *testing.T) {
	repo := newRepo(newTestProduct("1", true))
	c := NewCatalog(repo)

	_, err := c.Browse(context.Background(), Filter{
		BrandID:  " b1 ",
		Gender:   "m",
		MinPrice: "10000",
		MaxPrice: "not-a-number",
		Query:    "  oud ",
		Sort:     "precio_desc",
	})
	require.NoError(t, err)
	require.Len(t, repo.queries, 1)

	q := repo.queries[0]
	assert.Equal(t, "b1", q.BrandID)
	assert.Equal(t, GenderFemale, q.Gender)
	require.NotNil(t, q.MinPrice)
	assert.True(t, decimal.NewFromInt(10000).Equal(*q.MinPrice))
	assert.Nil(t, q.MaxPrice, "unparsable bound is ignored")
	assert.Equal(t, "oud", q.Search)
	assert.True(t, q.SearchDescription)
	assert.Equal(t, SortPriceDesc, q.Sort)
	assert.Equal(t, PageSize, q.Limit)
	assert.Equal(t, 0, q.Offset)
}

func TestBrowse_UnknownGenderIgnored(t *testing.T) {
	repo := newRepo()
	c := NewCatalog(repo)

	_, err := c.Browse(context.Background(), Filter{Gender: "X"})
	require.NoError(t, err)
	assert.Equal(t, Gender(""), repo.queries[0].Gender)
}

func TestBrowse_Sort(t *testing.T) {
	tests := []struct {
		in   string
		want Sort
	}{
		{in: "", want: SortName},
		{in: "nombre", want: SortName},
		{in: "precio_asc", want: SortPriceAsc},
		{in: "nuevo", want: SortNewest},
		{in: "bogus", want: SortNewest},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSort(tt.in))
		})
	}
}

func TestBrowse_PageClamped(t *testing.T) {
	repo := newRepo(newTestProduct("1", true))
	repo.total = 30 // three pages of 12
	c := NewCatalog(repo)

	page, err := c.Browse(context.Background(), Filter{Page: 9})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Number)
	assert.Equal(t, 3, page.Pages)
	require.Len(t, repo.queries, 2)
	assert.Equal(t, 24, repo.queries[1].Offset)

	page, err = c.Browse(context.Background(), Filter{Page: -2})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Number)
}

func TestBrowse_HugePageNumber(t *testing.T) {
	repo := newRepo(newTestProduct("1", true))
	repo.total = 30
	c := NewCatalog(repo)

	page, err := c.Browse(context.Background(), Filter{Page: math.MaxInt})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Number)
	for _, q := range repo.queries {
		assert.GreaterOrEqual(t, q.Offset, 0)
	}
	assert.Equal(t, 24, repo.queries[len(repo.queries)-1].Offset)
}

func TestBrowse_Error(t *testing.T) {
	repo := newRepo()
	repo.listErr = errors.New("db down")
	c := NewCatalog(repo)

	_, err := c.Browse(context.Background(), Filter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list products")
}

func TestDetail(t *testing.T) {
	repo := newRepo(newTestProduct("1", true), newTestProduct("2", true), newTestProduct("3", false))
	c := NewCatalog(repo)

	t.Run("active", func(t *testing.T) {
		d, err := c.Detail(context.Background(), "1")
		require.NoError(t, err)
		assert.Equal(t, "1", d.Product.ID)
		for _, r := range d.Related {
			assert.NotEqual(t, "1", r.ID)
		}
	})

	t.Run("inactive is not found", func(t *testing.T) {
		_, err := c.Detail(context.Background(), "3")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := c.Detail(context.Background(), "404")
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSearch(t *testing.T) {
	repo := newRepo(newTestProduct("1", true))
	c := NewCatalog(repo)

	_, err := c.Search(context.Background(), " ou ")
	require.ErrorIs(t, err, ErrQueryTooShort)
	assert.Empty(t, repo.queries, "short queries never reach the store")

	res, err := c.Search(context.Background(), "oud")
	require.NoError(t, err)
	assert.Len(t, res, 1)

	q := repo.queries[0]
	assert.Equal(t, SearchLimit, q.Limit)
	assert.False(t, q.SearchDescription)
}

func TestBrandProducts(t *testing.T) {
	repo := newRepo(newTestProduct("1", true))
	c := NewCatalog(repo)

	b, page, err := c.BrandProducts(context.Background(), "b1", 1)
	require.NoError(t, err)
	assert.Equal(t, "Lattafa", b.Name)
	assert.Len(t, page.Products, 1)
	assert.Equal(t, "b1", repo.queries[0].BrandID)
	assert.Equal(t, SortNewest, repo.queries[0].Sort)

	_, _, err = c.BrandProducts(context.Background(), "b2", 1)
	require.ErrorIs(t, err, ErrBrandNotFound)

	_, _, err = c.BrandProducts(context.Background(), "missing", 1)
	require.ErrorIs(t, err, ErrBrandNotFound)
}

func TestUpsertProduct_Validation(t *testing.T) {
	repo := newRepo()
	c := NewCatalog(repo)

	p := newTestProduct("9", true)
	p.Size = ""
	require.NoError(t, c.UpsertProduct(context.Background(), &p))
	assert.Equal(t, DefaultSize, p.Size)
	require.Len(t, repo.upserted, 1)

	bad := newTestProduct("10", true)
	bad.Price = decimal.NewFromInt(-1)
	err := c.UpsertProduct(context.Background(), &bad)

	var invalid *InvalidProductError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "precio", invalid.Field)

	bad = newTestProduct("11", true)
	bad.Gender = "Z"
	err = c.UpsertProduct(context.Background(), &bad)
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "sexo", invalid.Field)
	assert.Len(t, repo.upserted, 1)
}

func TestProduct_Derived(t *testing.T) {
	p := newTestProduct("1", true)
	assert.True(t, p.Available())
	assert.True(t, decimal.NewFromInt(60500).Equal(p.PriceWithTax()))

	p.Stock = 0
	assert.False(t, p.Available())
}
