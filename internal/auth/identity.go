// Package auth resolves bearer credentials into identities and guards routes.
//
// REQUEST FLOW:
//  1. The SPA signs in with the identity provider and receives an ID token.
//  2. Every API call carries it as "Authorization: Bearer <token>"
//     (older clients send "X-Id-Token: <token>" instead).
//  3. RequireAuth hands the credential to the configured Resolver, which
//     either verifies it locally (TokenVerifier, HS256) or asks the
//     provider's userinfo endpoint (UserInfoResolver).
//  4. The resulting Identity is stored in the request context; handlers
//     read the owner id from there and never from the request body.
//
// The Resolver is built once at startup by NewResolver and injected into
// the router. Nothing in this package holds global state.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Identity is what the identity provider asserts about the caller.
// Email and Name are nil when the provider did not assert them.
type Identity struct {
	Subject string
	Email   *string
	Name    *string
}

// Resolver turns a raw credential into an Identity. Invalid or expired
// credentials fail with an apperror.ErrUnauthenticated error.
type Resolver interface {
	Resolve(ctx context.Context, credential string) (*Identity, error)
}

// Modes accepted by NewResolver.
const (
	ModeJWT      = "jwt"
	ModeUserInfo = "userinfo"
)

// Config selects and configures the Resolver.
type Config struct {
	Mode        string
	JWTSecret   string
	Issuer      string
	Audience    string
	UserInfoURL string
}

// NewResolver builds the Resolver for cfg.Mode. httpClient is only used in
// userinfo mode and may be nil.
func NewResolver(cfg Config, httpClient *http.Client) (Resolver, error) {
	switch strings.ToLower(cfg.Mode) {
	case "", ModeJWT:
		return NewTokenVerifier(cfg.JWTSecret, cfg.Issuer, cfg.Audience)
	case ModeUserInfo:
		return NewUserInfoResolver(cfg.UserInfoURL, httpClient)
	default:
		return nil, fmt.Errorf("auth: unknown mode %q", cfg.Mode)
	}
}
