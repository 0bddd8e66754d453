package auth

import (
	"net/http"
)

// BasicAuthenticator implements HTTP basic authentication.
type BasicAuthenticator struct {
	username string
	password string
}

// NewBasicAuthenticator creates a basic authenticator.
func NewBasicAuthenticator(username, password string) *BasicAuthenticator {
	return &BasicAuthenticator{
		username: username,
		password: password,
	}
}

// Authenticate sets the Authorization: Basic header.
func (a *BasicAuthenticator) Authenticate(req *http.Request) error {
	if a.username != "" || a.password != "" {
		req.SetBasicAuth(a.username, a.password)
	}
	return nil
}

// Type returns the authentication type.
func (a *BasicAuthenticator) Type() Type {
	return AuthTypeBasic
}
