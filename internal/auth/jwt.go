package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/college-tracker/internal/apperror"
)

// TokenVerifier verifies HS256 identity tokens signed with a shared secret.
//
// JWT STRUCTURE:
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Payload: {"sub":"<provider uid>","email":"...","name":"...","exp":...}
//
// The signature check needs no network call and no database lookup.
type TokenVerifier struct {
	secret   []byte
	issuer   string
	audience string
}

// NewTokenVerifier rejects secrets shorter than 16 characters. issuer and
// audience are optional; when set, tokens must carry matching claims.
func NewTokenVerifier(secret, issuer, audience string) (*TokenVerifier, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenVerifier{secret: []byte(secret), issuer: issuer, audience: audience}, nil
}

// claims is the token payload: the registered claims plus the two profile
// claims identity providers put in ID tokens.
type claims struct {
	Email *string `json:"email,omitempty"`
	Name  *string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Generate signs a token for id that expires after ttl. The server never
// issues tokens itself; cmd/devtoken and the tests use this.
func (v *TokenVerifier) Generate(id Identity, ttl time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Email: id.Email,
		Name:  id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    v.issuer,
		},
	}
	if v.audience != "" {
		c.Audience = jwt.ClaimStrings{v.audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Resolve parses and verifies tokenStr.
//
// Passing jwt.WithValidMethods prevents algorithm confusion: a token
// claiming "alg":"none" or an RSA algorithm is rejected before the key
// function runs.
func (v *TokenVerifier) Resolve(_ context.Context, tokenStr string) (*Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.ParseWithClaims(tokenStr, &claims{}, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperror.Unauthenticated("token expired")
		}
		return nil, apperror.Unauthenticated("invalid token")
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, apperror.Unauthenticated("invalid token claims")
	}
	if c.Subject == "" {
		return nil, apperror.Unauthenticated("token has no subject")
	}

	return &Identity{Subject: c.Subject, Email: c.Email, Name: c.Name}, nil
}
