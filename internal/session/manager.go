package session

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/arkarz/perfumeria/pkg/httpmiddleware"
)

// Config controls session cookies and lifetime.
type Config struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Manager loads and saves sessions through a Store.
type Manager struct {
	store Store
	cfg   Config
	now   func() time.Time
}

// NewManager creates a Manager. Zero config fields take the defaults
// "sessionid" and two weeks.
func NewManager(store Store, cfg Config) *Manager {
	if cfg.CookieName == "" {
		cfg.CookieName = "sessionid"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 14 * 24 * time.Hour
	}
	return &Manager{store: store, cfg: cfg, now: time.Now}
}

// Load returns the session named by the request cookie, or a new empty
// session when there is no cookie or the stored session is gone or corrupt.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	c, err := r.Cookie(m.cfg.CookieName)
	if err != nil || c.Value == "" {
		return newSession(), nil
	}

	ctx := r.Context()
	data, err := m.store.Load(ctx, c.Value)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return newSession(), nil
		}
		return nil, errors.Wrap(err, "load session")
	}

	s := &Session{id: c.Value}
	if err := s.Decode(jx.DecodeBytes(data)); err != nil {
		zctx.From(ctx).Warn("Discarding corrupt session", zap.Error(err))
		return newSession(), nil
	}
	return s, nil
}

// Save persists s with a refreshed expiry and sets the session cookie. It
// must be called before the response body is written.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, s *Session) error {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	s.Encode(e)

	expiresAt := m.now().Add(m.cfg.TTL)
	if err := m.store.Save(ctx, s.id, e.Bytes(), expiresAt); err != nil {
		return errors.Wrap(err, "save session")
	}
	s.isNew = false
	s.dirty = false

	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    s.id,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(m.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Middleware loads the request's session into the context. Store failures
// are answered with 500.
func (m *Manager) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := m.Load(r)
			if err != nil {
				zctx.From(r.Context()).Error("Load session", zap.Error(err))
				httpmiddleware.WriteFailure(w, http.StatusInternalServerError, "error interno")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}

// StartPurge removes expired sessions every interval until ctx is done.
func (m *Manager) StartPurge(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				n, err := m.store.DeleteExpired(ctx, now)
				if err != nil {
					zctx.From(ctx).Warn("Purge expired sessions", zap.Error(err))
					continue
				}
				if n > 0 {
					zctx.From(ctx).Debug("Purged expired sessions", zap.Int64("count", n))
				}
			}
		}
	}()
}
