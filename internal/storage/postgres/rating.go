package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arkarz/perfumeria/internal/domain/rating"
)

const (
	// xmax is zero only for a freshly inserted tuple.
	upsertRatingSQL = `INSERT INTO ratings (product_id, origin_ip, score, comment)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		ON CONFLICT (product_id, origin_ip) DO UPDATE SET
			score = EXCLUDED.score,
			comment = EXCLUDED.comment,
			updated_at = now()
		RETURNING (xmax = 0), created_at, updated_at`

	ratingStatsSQL = `SELECT COUNT(*), COALESCE(SUM(score), 0)
		FROM ratings WHERE product_id = $1`
)

var _ rating.Repository = (*RatingRepository)(nil)

// RatingRepository stores ratings in PostgreSQL. The primary key on
// (product_id, origin_ip) serializes concurrent submissions from one origin.
type RatingRepository struct {
	pool *pgxpool.Pool
}

// NewRatingRepository returns a RatingRepository that uses the given pool.
func NewRatingRepository(pool *pgxpool.Pool) *RatingRepository {
	return &RatingRepository{pool: pool}
}

func (r *RatingRepository) Upsert(ctx context.Context, rt *rating.Rating) (bool, error) {
	var created bool
	err := r.pool.QueryRow(ctx, upsertRatingSQL,
		rt.ProductID, rt.OriginIP, int16(rt.Score), rt.Comment,
	).Scan(&created, &rt.CreatedAt, &rt.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("upserting rating for %q: %w", rt.ProductID, err)
	}
	return created, nil
}

func (r *RatingRepository) Stats(ctx context.Context, productID string) (rating.Stats, error) {
	var count, sum int64
	if err := r.pool.QueryRow(ctx, ratingStatsSQL, productID).Scan(&count, &sum); err != nil {
		return rating.Stats{}, fmt.Errorf("rating stats for %q: %w", productID, err)
	}
	return rating.Stats{Count: int(count), Sum: int(sum)}, nil
}
