package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/arkarz/perfumeria/internal/domain/auth"
)

// APIKeyHeader carries the administration API key.
const APIKeyHeader = "api_key"

var errUnauthorized = errors.New("unauthorized")

// SecurityHandler authenticates administration requests via HMAC-SHA256
// hashed API keys.
type SecurityHandler struct {
	apikeys auth.Repository
	pepper  []byte
}

// NewSecurityHandler creates a SecurityHandler with the given API key
// repository and HMAC pepper.
func NewSecurityHandler(apikeys auth.Repository, pepper []byte) *SecurityHandler {
	return &SecurityHandler{
		apikeys: apikeys,
		pepper:  pepper,
	}
}

// HashKey returns the hex HMAC-SHA256 of key under pepper, as stored in the
// api_keys table.
func HashKey(pepper []byte, key string) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

// Authenticate resolves the key presented in the request.
func (s *SecurityHandler) Authenticate(ctx context.Context, key string) (*auth.APIKeyInfo, error) {
	if key == "" {
		return nil, errUnauthorized
	}
	hexHash := HashKey(s.pepper, key)

	info, err := s.apikeys.FindByHash(ctx, hexHash)
	if err != nil {
		if errors.Is(err, auth.ErrKeyNotFound) {
			return nil, errUnauthorized
		}
		return nil, errors.Wrap(err, "find api key")
	}

	computed, _ := hex.DecodeString(hexHash)
	stored, err := hex.DecodeString(info.KeyHash)
	if err != nil || subtle.ConstantTimeCompare(computed, stored) != 1 {
		return nil, errUnauthorized
	}
	return info, nil
}

// RequireScope rejects requests without a key holding
// auth.ScopeCatalogWrite.
func (s *SecurityHandler) RequireScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, err := s.Authenticate(r.Context(), r.Header.Get(APIKeyHeader))
		switch {
		case errors.Is(err, errUnauthorized):
			writeJSON(w, http.StatusUnauthorized, failureResponse{Error: "no autorizado", Code: http.StatusUnauthorized})
			return
		case err != nil:
			fail(w, r, err)
			return
		case !info.HasScope(auth.ScopeCatalogWrite):
			writeJSON(w, http.StatusForbidden, failureResponse{Error: "permiso insuficiente", Code: http.StatusForbidden})
			return
		}

		ctx := zctx.With(r.Context(), zap.String("api_key_id", info.ID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
