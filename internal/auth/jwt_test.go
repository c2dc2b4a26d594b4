package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/college-tracker/internal/apperror"
)

const testSecret = "test-secret-at-least-16-chars!!"

// newTestVerifier uses a fixed secret so tests are deterministic.
func newTestVerifier(t *testing.T, issuer, audience string) *TokenVerifier {
	t.Helper()
	v, err := NewTokenVerifier(testSecret, issuer, audience)
	if err != nil {
		t.Fatalf("NewTokenVerifier: %v", err)
	}
	return v
}

func strPtr(s string) *string { return &s }

// =========================================================================
// CONSTRUCTION
// =========================================================================

func TestNewTokenVerifier_ShortSecret(t *testing.T) {
	if _, err := NewTokenVerifier("short", "", ""); err == nil {
		t.Fatal("NewTokenVerifier() should reject secrets shorter than 16 chars")
	}
}

// =========================================================================
// ROUND TRIP
// =========================================================================

func TestResolve_RoundTrip(t *testing.T) {
	v := newTestVerifier(t, "college-tracker", "spa")

	token, err := v.Generate(Identity{Subject: "uid-1", Email: strPtr("a@example.com")}, time.Hour)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("token %q is not header.payload.signature", token)
	}

	id, err := v.Resolve(context.Background(), token)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if id.Subject != "uid-1" {
		t.Errorf("Subject = %q, want uid-1", id.Subject)
	}
	if id.Email == nil || *id.Email != "a@example.com" {
		t.Errorf("Email = %v, want a@example.com", id.Email)
	}
	if id.Name != nil {
		t.Errorf("Name = %q, want nil (not asserted)", *id.Name)
	}
}

// =========================================================================
// REJECTIONS
// =========================================================================

func TestResolve_Rejections(t *testing.T) {
	v := newTestVerifier(t, "college-tracker", "")
	other := newTestVerifier(t, "someone-else", "")
	otherSecret, _ := NewTokenVerifier("a-different-secret-entirely", "college-tracker", "")

	expired, _ := v.Generate(Identity{Subject: "u"}, -time.Minute)
	wrongIssuer, _ := other.Generate(Identity{Subject: "u"}, time.Hour)
	wrongSecret, _ := otherSecret.Generate(Identity{Subject: "u"}, time.Hour)
	noSubject, _ := v.Generate(Identity{}, time.Hour)
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "u",
		Issuer:    "college-tracker",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.jwt"},
		{"expired", expired},
		{"wrong issuer", wrongIssuer},
		{"wrong secret", wrongSecret},
		{"no subject", noSubject},
		{"alg none", none},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Resolve(context.Background(), tt.token)
			if !errors.Is(err, apperror.ErrUnauthenticated) {
				t.Errorf("Resolve() error = %v, want ErrUnauthenticated", err)
			}
		})
	}
}

func TestResolve_AudienceRequiredWhenConfigured(t *testing.T) {
	noAud := newTestVerifier(t, "", "")
	withAud := newTestVerifier(t, "", "spa")

	token, _ := noAud.Generate(Identity{Subject: "u"}, time.Hour)
	if _, err := withAud.Resolve(context.Background(), token); !errors.Is(err, apperror.ErrUnauthenticated) {
		t.Errorf("Resolve() error = %v, want ErrUnauthenticated for missing audience", err)
	}
}

func TestNewResolver(t *testing.T) {
	if _, err := NewResolver(Config{Mode: "jwt", JWTSecret: testSecret}, nil); err != nil {
		t.Errorf("jwt mode: %v", err)
	}
	if _, err := NewResolver(Config{Mode: "userinfo"}, nil); err == nil {
		t.Error("userinfo mode without URL should fail")
	}
	if _, err := NewResolver(Config{Mode: "magic"}, nil); err == nil {
		t.Error("unknown mode should fail")
	}
}
