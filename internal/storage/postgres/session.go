package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arkarz/perfumeria/internal/session"
)

const (
	loadSessionSQL = `SELECT data FROM sessions WHERE id = $1 AND expires_at > now()`

	saveSessionSQL = `INSERT INTO sessions (id, data, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			data = EXCLUDED.data,
			expires_at = EXCLUDED.expires_at`

	deleteSessionSQL = `DELETE FROM sessions WHERE id = $1`

	deleteExpiredSessionsSQL = `DELETE FROM sessions WHERE expires_at <= $1`
)

var _ session.Store = (*SessionStore)(nil)

// SessionStore keeps session payloads as JSONB rows.
type SessionStore struct {
	pool *pgxpool.Pool
}

// NewSessionStore returns a SessionStore that uses the given pool.
func NewSessionStore(pool *pgxpool.Pool) *SessionStore {
	return &SessionStore{pool: pool}
}

func (s *SessionStore) Load(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	if err := s.pool.QueryRow(ctx, loadSessionSQL, id).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}
	return data, nil
}

func (s *SessionStore) Save(ctx context.Context, id string, data []byte, expiresAt time.Time) error {
	// Passing a string makes pgx send the payload as JSON text rather than bytea.
	if _, err := s.pool.Exec(ctx, saveSessionSQL, id, string(data), expiresAt); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, deleteSessionSQL, id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

func (s *SessionStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, deleteExpiredSessionsSQL, now)
	if err != nil {
		return 0, fmt.Errorf("purging sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
