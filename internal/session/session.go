// Package session provides server-side visitor sessions identified by an
// opaque cookie. A Session is loaded once per request, carried in the
// request context and saved explicitly by handlers that mutate it.
package session

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
)

// ErrNotFound is returned by a Store for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

// Store persists encoded session blobs.
type Store interface {
	// Load returns the blob of an unexpired session.
	Load(ctx context.Context, id string) ([]byte, error)
	// Save writes the blob, replacing any previous one. Concurrent saves of
	// one session are last-write-wins.
	Save(ctx context.Context, id string, data []byte, expiresAt time.Time) error
	Delete(ctx context.Context, id string) error
	// DeleteExpired purges sessions that expired before now and returns how
	// many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Session is a visitor's key-value state. Values are raw JSON documents.
type Session struct {
	id     string
	values map[string]jx.Raw
	isNew  bool
	dirty  bool
}

func newSession() *Session {
	return &Session{
		id:     uuid.New().String(),
		values: make(map[string]jx.Raw),
		isNew:  true,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// IsNew reports whether the session was created by this request.
func (s *Session) IsNew() bool { return s.isNew }

// Modified reports whether values changed since the session was loaded.
func (s *Session) Modified() bool { return s.dirty }

// Get returns the raw value stored under key.
func (s *Session) Get(key string) (jx.Raw, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Set stores a raw JSON value under key.
func (s *Session) Set(key string, v jx.Raw) {
	s.values[key] = append(jx.Raw(nil), v...)
	s.dirty = true
}

// Delete removes key.
func (s *Session) Delete(key string) {
	if _, ok := s.values[key]; ok {
		delete(s.values, key)
		s.dirty = true
	}
}

// Encode writes all values as one JSON object.
func (s *Session) Encode(e *jx.Encoder) {
	e.ObjStart()
	for k, v := range s.values {
		e.FieldStart(k)
		e.Raw(v)
	}
	e.ObjEnd()
}

// Decode replaces all values with the fields of a JSON object.
func (s *Session) Decode(d *jx.Decoder) error {
	values := make(map[string]jx.Raw)
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		raw, err := d.Raw()
		if err != nil {
			return errors.Wrapf(err, "value %q", key)
		}
		values[string(key)] = append(jx.Raw(nil), raw...)
		return nil
	}); err != nil {
		return err
	}
	s.values = values
	return nil
}

type sessionKey struct{}

// FromContext returns the request's session, or nil outside Middleware.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}
