package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		typ     Type
		creds   Credentials
		want    Type
		wantErr bool
	}{
		{"none", AuthTypeNone, Credentials{}, "", false},
		{"empty", "", Credentials{}, "", false},
		{"bearer", AuthTypeBearer, Credentials{Token: "t"}, AuthTypeBearer, false},
		{"bearer without token", AuthTypeBearer, Credentials{}, "", true},
		{"apikey", AuthTypeAPIKey, Credentials{Token: "k"}, AuthTypeAPIKey, false},
		{"basic", AuthTypeBasic, Credentials{Username: "u", Password: "p"}, AuthTypeBasic, false},
		{"basic without user", AuthTypeBasic, Credentials{Password: "p"}, "", true},
		{"unknown", "kerberos", Credentials{}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := New(tt.typ, tt.creds)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.want == "" {
				assert.Nil(t, a)
				return
			}
			typed, ok := a.(interface{ Type() Type })
			require.True(t, ok)
			assert.Equal(t, tt.want, typed.Type())
		})
	}
}

func TestAuthenticators(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://hr.internal/records/city", nil)

	require.NoError(t, NewBearerAuthenticator("tok").Authenticate(req))
	assert.Equal(t, "Bearer tok", req.Header.Get("Authorization"))

	require.NoError(t, NewAPIKeyAuthenticator("key").Authenticate(req))
	assert.Equal(t, "key", req.Header.Get(APIKeyHeader))

	require.NoError(t, NewBasicAuthenticator("ann", "secret").Authenticate(req))
	user, pass, ok := req.BasicAuth()
	require.True(t, ok)
	assert.Equal(t, "ann", user)
	assert.Equal(t, "secret", pass)
}

func TestAuthenticators_EmptyCredentials(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://hr.internal/", nil)
	require.NoError(t, NewBearerAuthenticator("").Authenticate(req))
	require.NoError(t, NewAPIKeyAuthenticator("").Authenticate(req))
	require.NoError(t, NewBasicAuthenticator("", "").Authenticate(req))
	assert.Empty(t, req.Header)
}

func TestRequireToken(t *testing.T) {
	h := RequireToken("s3cret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		auth   Authenticator
		status int
	}{
		{"no credentials", nil, http.StatusUnauthorized},
		{"bearer", NewBearerAuthenticator("s3cret"), http.StatusNoContent},
		{"api key", NewAPIKeyAuthenticator("s3cret"), http.StatusNoContent},
		{"wrong token", NewBearerAuthenticator("guess"), http.StatusUnauthorized},
		{"basic", NewBasicAuthenticator("s3cret", ""), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/records/city", nil)
			if tt.auth != nil {
				require.NoError(t, tt.auth.Authenticate(req))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestRequireToken_Disabled(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := RequireToken("")(next)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
