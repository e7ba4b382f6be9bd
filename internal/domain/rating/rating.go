// Package rating implements per-product star ratings keyed by origin IP.
//
// The origin IP is a best-effort visitor identity: many visitors can share
// one address behind NAT, and forwarded-for headers can be forged. It limits
// casual repeat voting and is not an anti-abuse guarantee.
package rating

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

const (
	MinScore = 1
	MaxScore = 5
)

// ErrInvalidScore is returned for scores outside [MinScore, MaxScore].
var ErrInvalidScore = errors.New("score must be between 1 and 5")

// Rating is one origin IP's rating of one product. At most one exists per
// (ProductID, OriginIP).
type Rating struct {
	ProductID string
	OriginIP  string
	Score     int
	// Comment is empty when the visitor left none.
	Comment   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Stats are the raw sums a repository keeps per product.
type Stats struct {
	Count int
	Sum   int
}

// Aggregate is the derived rating summary of a product.
type Aggregate struct {
	Count   int
	Average decimal.Decimal
}

// Repository persists ratings.
type Repository interface {
	// Upsert atomically inserts r or, when a rating for the same
	// (ProductID, OriginIP) exists, overwrites its score and comment keeping
	// the original creation time. It reports whether a row was created.
	Upsert(ctx context.Context, r *Rating) (created bool, err error)
	Stats(ctx context.Context, productID string) (Stats, error)
}
