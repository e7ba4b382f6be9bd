package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/arkarz/perfumeria/internal/domain/product"
)

const productColumns = `p.id, p.name, p.brand_id, b.name, p.gender, p.size, p.price,
		p.description, p.image, p.stock, p.active, p.featured, p.created_at, p.updated_at`

const (
	getProductByIDSQL = `SELECT ` + productColumns + `
		FROM products p JOIN brands b ON b.id = p.brand_id
		WHERE p.id = $1`

	getProductsByIDsSQL = `SELECT ` + productColumns + `
		FROM products p JOIN brands b ON b.id = p.brand_id
		WHERE p.id = ANY($1)`

	relatedProductsSQL = `SELECT ` + productColumns + `
		FROM products p JOIN brands b ON b.id = p.brand_id
		WHERE p.active AND p.id <> $1 AND (p.brand_id = $2 OR p.gender = $3)
		ORDER BY p.created_at DESC, p.id
		LIMIT $4`

	listBrandsSQL = `SELECT b.id, b.name, b.description, b.logo, b.active,
		COUNT(p.id) FILTER (WHERE p.active)
		FROM brands b LEFT JOIN products p ON p.brand_id = b.id
		WHERE b.active
		GROUP BY b.id
		ORDER BY b.name`

	getBrandSQL = `SELECT id, name, description, logo, active, 0
		FROM brands WHERE id = $1`

	upsertBrandSQL = `INSERT INTO brands (id, name, description, logo, active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			logo = EXCLUDED.logo,
			active = EXCLUDED.active`

	upsertProductSQL = `INSERT INTO products
		(id, name, brand_id, gender, size, price, description, image, stock, active, featured)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			brand_id = EXCLUDED.brand_id,
			gender = EXCLUDED.gender,
			size = EXCLUDED.size,
			price = EXCLUDED.price,
			description = EXCLUDED.description,
			image = EXCLUDED.image,
			stock = EXCLUDED.stock,
			active = EXCLUDED.active,
			featured = EXCLUDED.featured,
			updated_at = now()
		RETURNING created_at, updated_at`
)

const foreignKeyViolation = "23503"

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns one page of active products matching q and the total number
// of matches.
func (r *ProductRepository) List(ctx context.Context, q product.Query) ([]product.Product, int, error) {
	where, args := listFilter(q)

	var total int
	countSQL := `SELECT COUNT(*) FROM products p JOIN brands b ON b.id = p.brand_id WHERE ` + where
	if err := r.pool.QueryRow(ctx, countSQL, args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting products: %w", err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	listSQL := `SELECT ` + productColumns + `
		FROM products p JOIN brands b ON b.id = p.brand_id
		WHERE ` + where + `
		ORDER BY ` + orderBy(q.Sort)
	if q.Limit > 0 {
		listSQL += ` LIMIT @limit OFFSET @offset`
		args["limit"] = q.Limit
		args["offset"] = q.Offset
	}

	rows, err := r.pool.Query(ctx, listSQL, args)
	if err != nil {
		return nil, 0, fmt.Errorf("listing products: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, 0, fmt.Errorf("listing products: %w", err)
	}
	return products, total, nil
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Related returns active products sharing brand or gender with p, newest
// first.
func (r *ProductRepository) Related(ctx context.Context, p *product.Product, limit int) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, relatedProductsSQL, p.ID, p.Brand.ID, string(p.Gender), limit)
	if err != nil {
		return nil, fmt.Errorf("listing products related to %q: %w", p.ID, err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// ListBrands returns active brands with their active product counts.
func (r *ProductRepository) ListBrands(ctx context.Context) ([]product.Brand, error) {
	rows, err := r.pool.Query(ctx, listBrandsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing brands: %w", err)
	}
	return pgx.CollectRows(rows, scanBrand)
}

// GetBrand returns a brand by id regardless of its active flag.
func (r *ProductRepository) GetBrand(ctx context.Context, id string) (*product.Brand, error) {
	rows, err := r.pool.Query(ctx, getBrandSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting brand %q: %w", id, err)
	}

	b, err := pgx.CollectExactlyOneRow(rows, scanBrand)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrBrandNotFound
		}
		return nil, fmt.Errorf("getting brand %q: %w", id, err)
	}
	return &b, nil
}

// UpsertBrand inserts or replaces a brand.
func (r *ProductRepository) UpsertBrand(ctx context.Context, b *product.Brand) error {
	_, err := r.pool.Exec(ctx, upsertBrandSQL, b.ID, b.Name, b.Description, b.Logo, b.Active)
	if err != nil {
		return fmt.Errorf("upserting brand %q: %w", b.ID, err)
	}
	return nil
}

// UpsertProduct inserts or replaces a product and fills in its timestamps.
func (r *ProductRepository) UpsertProduct(ctx context.Context, p *product.Product) error {
	err := r.pool.QueryRow(ctx, upsertProductSQL,
		p.ID, p.Name, p.Brand.ID, string(p.Gender), string(p.Size), p.Price,
		p.Description, p.Image, p.Stock, p.Active, p.Featured,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return product.ErrBrandNotFound
		}
		return fmt.Errorf("upserting product %q: %w", p.ID, err)
	}
	return nil
}

// listFilter renders the WHERE clause of a listing with named arguments.
func listFilter(q product.Query) (string, pgx.NamedArgs) {
	conds := []string{"p.active"}
	args := pgx.NamedArgs{}

	if q.BrandID != "" {
		conds = append(conds, "p.brand_id = @brand_id")
		args["brand_id"] = q.BrandID
	}
	if q.Gender != "" {
		conds = append(conds, "p.gender = @gender")
		args["gender"] = string(q.Gender)
	}
	if q.MinPrice != nil {
		conds = append(conds, "p.price >= @min_price")
		args["min_price"] = *q.MinPrice
	}
	if q.MaxPrice != nil {
		conds = append(conds, "p.price <= @max_price")
		args["max_price"] = *q.MaxPrice
	}
	if q.Search != "" {
		match := "p.name ILIKE @search OR b.name ILIKE @search"
		if q.SearchDescription {
			match += " OR p.description ILIKE @search"
		}
		conds = append(conds, "("+match+")")
		args["search"] = likePattern(q.Search)
	}

	return strings.Join(conds, " AND "), args
}

func orderBy(s product.Sort) string {
	switch s {
	case product.SortPriceAsc:
		return "p.price, p.id"
	case product.SortPriceDesc:
		return "p.price DESC, p.id"
	case product.SortNewest:
		return "p.created_at DESC, p.id DESC"
	default:
		return "p.name, p.id"
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a substring ILIKE pattern matching s literally.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p      product.Product
		gender string
		size   string
		price  decimal.Decimal
		stock  int32
		ts     [2]time.Time
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Brand.ID, &p.Brand.Name, &gender, &size, &price,
		&p.Description, &p.Image, &stock, &p.Active, &p.Featured, &ts[0], &ts[1],
	)
	p.Gender = product.Gender(gender)
	p.Size = product.Size(size)
	p.Price = price
	p.Stock = int(stock)
	p.CreatedAt, p.UpdatedAt = ts[0], ts[1]
	return p, err
}

func scanBrand(row pgx.CollectableRow) (product.Brand, error) {
	var (
		b        product.Brand
		products int64
	)
	err := row.Scan(&b.ID, &b.Name, &b.Description, &b.Logo, &b.Active, &products)
	b.Products = int(products)
	return b, err
}
