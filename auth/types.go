// Package auth provides request authentication for the remote store feed,
// on both the client and the serving side.
package auth

import (
	"fmt"
	"net/http"
)

// Authenticator adds credentials to outgoing requests.
type Authenticator interface {
	// Authenticate adds authentication to the request
	Authenticate(req *http.Request) error
}

// Type represents the type of authentication.
type Type string

const (
	// AuthTypeNone sends no credentials.
	AuthTypeNone Type = "none"
	// AuthTypeAPIKey sends the token in the X-API-Key header.
	AuthTypeAPIKey Type = "apikey"
	// AuthTypeBearer sends Authorization: Bearer <token>.
	AuthTypeBearer Type = "bearer"
	// AuthTypeBasic sends HTTP basic credentials.
	AuthTypeBasic Type = "basic"
)

// Credentials holds the secrets for every authentication type. Only the
// fields relevant to the selected Type are used.
type Credentials struct {
	Token    string
	Username string
	Password string
}

// New returns the authenticator for typ, or nil for AuthTypeNone.
func New(typ Type, creds Credentials) (Authenticator, error) {
	switch typ {
	case "", AuthTypeNone:
		return nil, nil
	case AuthTypeAPIKey, AuthTypeBearer:
		if creds.Token == "" {
			return nil, fmt.Errorf("%s authentication requires a token", typ)
		}
		if typ == AuthTypeAPIKey {
			return NewAPIKeyAuthenticator(creds.Token), nil
		}
		return NewBearerAuthenticator(creds.Token), nil
	case AuthTypeBasic:
		if creds.Username == "" {
			return nil, fmt.Errorf("basic authentication requires a username")
		}
		return NewBasicAuthenticator(creds.Username, creds.Password), nil
	default:
		return nil, fmt.Errorf("unknown authentication type %q", typ)
	}
}
