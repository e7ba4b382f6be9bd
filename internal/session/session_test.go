package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	*MemoryStore
	loadErr error
}

func (f *failingStore) Load(ctx context.Context, id string) ([]byte, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.MemoryStore.Load(ctx, id)
}

func requestWithCookie(name, value string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if value != "" {
		r.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	return r
}

func TestManager_NewSessionWithoutCookie(t *testing.T) {
	m := NewManager(NewMemoryStore(), Config{})

	s, err := m.Load(requestWithCookie("sessionid", ""))
	require.NoError(t, err)
	assert.True(t, s.IsNew())
	assert.NotEmpty(t, s.ID())
	assert.False(t, s.Modified())
}

func TestManager_SaveAndLoad(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store, Config{CookieName: "sid", TTL: time.Hour, Secure: true})

	s := newSession()
	s.Set("carrito", jx.Raw(`{"1":{"cantidad":2}}`))
	assert.True(t, s.Modified())

	w := httptest.NewRecorder()
	require.NoError(t, m.Save(context.Background(), w, s))
	assert.False(t, s.Modified())
	assert.False(t, s.IsNew())

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "sid", c.Name)
	assert.Equal(t, s.ID(), c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, 3600, c.MaxAge)

	loaded, err := m.Load(requestWithCookie("sid", s.ID()))
	require.NoError(t, err)
	assert.False(t, loaded.IsNew())
	assert.Equal(t, s.ID(), loaded.ID())

	raw, ok := loaded.Get("carrito")
	require.True(t, ok)
	assert.JSONEq(t, `{"1":{"cantidad":2}}`, string(raw))
}

func TestManager_ExpiredSessionStartsOver(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store, Config{TTL: time.Minute})

	s := newSession()
	s.Set("k", jx.Raw(`1`))
	require.NoError(t, m.Save(context.Background(), httptest.NewRecorder(), s))

	store.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	loaded, err := m.Load(requestWithCookie("sessionid", s.ID()))
	require.NoError(t, err)
	assert.True(t, loaded.IsNew())
	assert.NotEqual(t, s.ID(), loaded.ID())
}

func TestManager_CorruptSessionStartsOver(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), "abc", []byte(`not json`), time.Now().Add(time.Hour)))
	m := NewManager(store, Config{})

	s, err := m.Load(requestWithCookie("sessionid", "abc"))
	require.NoError(t, err)
	assert.True(t, s.IsNew())
}

func TestMiddleware(t *testing.T) {
	t.Run("injects session", func(t *testing.T) {
		m := NewManager(NewMemoryStore(), Config{})

		var got *Session
		h := m.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = FromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, requestWithCookie("sessionid", "unknown"))

		require.NotNil(t, got)
		assert.True(t, got.IsNew())
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("store failure is 500", func(t *testing.T) {
		store := &failingStore{MemoryStore: NewMemoryStore(), loadErr: errors.New("db down")}
		m := NewManager(store, Config{})

		called := false
		h := m.Middleware()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			called = true
		}))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, requestWithCookie("sessionid", "abc"))

		assert.False(t, called)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"success":false,"error":"error interno","code":500}`, w.Body.String())
	})
}

func TestSession_Delete(t *testing.T) {
	s := newSession()
	s.Delete("missing")
	assert.False(t, s.Modified())

	s.Set("a", jx.Raw(`"x"`))
	s.dirty = false
	s.Delete("a")
	assert.True(t, s.Modified())
	_, ok := s.Get("a")
	assert.False(t, ok)
}

func TestMemoryStore_DeleteExpired(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "old", []byte(`{}`), now.Add(-time.Second)))
	require.NoError(t, store.Save(ctx, "fresh", []byte(`{}`), now.Add(time.Hour)))

	n, err := store.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = store.Load(ctx, "old")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = store.Load(ctx, "fresh")
	require.NoError(t, err)
}
