package auth

import (
	"net/http"
)

// APIKeyHeader carries the key for AuthTypeAPIKey.
const APIKeyHeader = "X-API-Key"

type APIKeyAuthenticator struct {
	apiKey string
}

func NewAPIKeyAuthenticator(apiKey string) *APIKeyAuthenticator {
	return &APIKeyAuthenticator{
		apiKey: apiKey,
	}
}

func (a *APIKeyAuthenticator) Authenticate(req *http.Request) error {
	if a.apiKey != "" {
		req.Header.Set(APIKeyHeader, a.apiKey)
	}
	return nil
}

func (a *APIKeyAuthenticator) Type() Type {
	return AuthTypeAPIKey
}
