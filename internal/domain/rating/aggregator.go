package rating

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/arkarz/perfumeria/internal/domain/product"
)

// Products looks up the rated product.
type Products interface {
	GetByID(ctx context.Context, id string) (*product.Product, error)
}

// SubmitRequest holds the input of a rating submission.
type SubmitRequest struct {
	ProductID string
	OriginIP  string
	Score     int
	Comment   string
}

// SubmitResult is the outcome of a rating submission.
type SubmitResult struct {
	Created   bool
	Aggregate Aggregate
}

// Aggregator validates rating submissions and computes per-product
// aggregates.
type Aggregator struct {
	ratings  Repository
	products Products
	now      func() time.Time
}

// NewAggregator creates an Aggregator.
func NewAggregator(ratings Repository, products Products) *Aggregator {
	return &Aggregator{
		ratings:  ratings,
		products: products,
		now:      time.Now,
	}
}

// Submit records the rating of req.OriginIP for req.ProductID, replacing the
// score and comment of an earlier rating from the same origin. Nothing is
// written when the score is invalid or the product is missing or inactive.
func (a *Aggregator) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if req.Score < MinScore || req.Score > MaxScore {
		return nil, ErrInvalidScore
	}

	p, err := a.products.GetByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get product %s", req.ProductID)
	}
	if !p.Active {
		return nil, product.ErrNotFound
	}

	now := a.now()
	created, err := a.ratings.Upsert(ctx, &Rating{
		ProductID: p.ID,
		OriginIP:  req.OriginIP,
		Score:     req.Score,
		Comment:   strings.TrimSpace(req.Comment),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, errors.Wrap(err, "upsert rating")
	}

	agg, err := a.Aggregate(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return &SubmitResult{Created: created, Aggregate: agg}, nil
}

// Aggregate returns the rating count and mean score of a product, the mean
// rounded to one decimal place. A product without ratings yields (0, 0).
func (a *Aggregator) Aggregate(ctx context.Context, productID string) (Aggregate, error) {
	st, err := a.ratings.Stats(ctx, productID)
	if err != nil {
		return Aggregate{}, errors.Wrap(err, "rating stats")
	}
	return st.Aggregate(), nil
}

// Aggregate derives the count and rounded mean from the raw sums.
func (s Stats) Aggregate() Aggregate {
	if s.Count <= 0 {
		return Aggregate{Average: decimal.Zero}
	}
	avg := decimal.NewFromInt(int64(s.Sum)).
		Div(decimal.NewFromInt(int64(s.Count))).
		Round(1)
	return Aggregate{Count: s.Count, Average: avg}
}
