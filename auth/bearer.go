package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// BearerAuthenticator implements bearer token authentication.
type BearerAuthenticator struct {
	token string
}

// NewBearerAuthenticator creates a new bearer token authenticator.
func NewBearerAuthenticator(token string) *BearerAuthenticator {
	return &BearerAuthenticator{
		token: token,
	}
}

// Authenticate adds the Authorization: Bearer header to the request.
func (a *BearerAuthenticator) Authenticate(req *http.Request) error {
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	return nil
}

// Type returns the authentication type.
func (a *BearerAuthenticator) Type() Type {
	return AuthTypeBearer
}

// RequireToken rejects requests that carry neither "Authorization: Bearer
// <token>" nor "X-API-Key: <token>" with 401. An empty token disables the
// check.
func RequireToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !tokenMatches(r, token) {
				w.Header().Set("WWW-Authenticate", `Bearer realm="hrref"`)
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func tokenMatches(r *http.Request, token string) bool {
	got := r.Header.Get(APIKeyHeader)
	if h := r.Header.Get("Authorization"); got == "" && len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		got = h[7:]
	}
	return got != "" && subtle.ConstantTimeCompare([]byte(got), []byte(token)) == 1
}
