package bridge

import (
	"context"
	"strings"

	"github.com/desertthunder/shelfbridge/internal/shared"
	"golang.org/x/oauth2"
)

// Authenticator performs the username/password exchange against the source server.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// Resolver obtains the source bearer credential.
//
// It never retries and never caches; the [Manager] owns both decisions.
type Resolver struct {
	token    string
	username string
	password string
	auth     Authenticator
}

// NewResolver builds a resolver from the source settings. auth may be nil when a static token is configured.
func NewResolver(cfg shared.SourceConfig, auth Authenticator) *Resolver {
	return &Resolver{
		token:    strings.TrimSpace(cfg.Token),
		username: cfg.Username,
		password: cfg.Password,
		auth:     auth,
	}
}

// Static reports whether a configured token is returned instead of logging in.
func (r *Resolver) Static() bool {
	return r.token != ""
}

// Resolve returns the static token unchanged or logs in. Failures are [*AuthError].
func (r *Resolver) Resolve(ctx context.Context) (*oauth2.Token, error) {
	if r.Static() {
		return bearer(r.token), nil
	}
	if r.username == "" || r.password == "" {
		return nil, &AuthError{Reason: "no token and no username/password configured", Err: shared.ErrMissingCredentials}
	}
	if r.auth == nil {
		return nil, &AuthError{Reason: "no login client configured", Err: shared.ErrMissingCredentials}
	}

	token, err := r.auth.Login(ctx, r.username, r.password)
	if err != nil {
		return nil, &AuthError{Reason: "login as " + r.username, Err: err}
	}
	if token == "" {
		return nil, &AuthError{Reason: "login returned an empty token"}
	}
	return bearer(token), nil
}

func bearer(token string) *oauth2.Token {
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}
}
