package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// HeaderAdminKey carries the shared admin key for catalog mutations.
const HeaderAdminKey = "X-Admin-Key"

// DefaultAdminKeyCost is the bcrypt work factor for HashAdminKey.
const DefaultAdminKeyCost = 12

// AdminGuard protects the catalog mutation endpoints. Only a bcrypt hash
// of the admin key is configured (ADMIN_KEY_HASH), so the key itself never
// sits in the environment of the server.
//
// An authenticated caller with a missing or wrong key gets 403: they are
// known, just not allowed. With no hash configured every request is refused.
type AdminGuard struct {
	hash   []byte
	logger *slog.Logger
}

func NewAdminGuard(hash string, logger *slog.Logger) *AdminGuard {
	return &AdminGuard{hash: []byte(hash), logger: logger}
}

// Allowed reports whether key matches the configured hash.
// bcrypt.CompareHashAndPassword compares in constant time.
func (g *AdminGuard) Allowed(key string) bool {
	if len(g.hash) == 0 || key == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword(g.hash, []byte(key))
	if err != nil && !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		g.logger.Error("admin key hash is unusable", "error", err)
	}
	return err == nil
}

// Require is the middleware form of Allowed.
func (g *AdminGuard) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.Allowed(r.Header.Get(HeaderAdminKey)) {
			writeEnvelope(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HashAdminKey produces the value for ADMIN_KEY_HASH. bcrypt ignores
// everything past 72 bytes, so longer keys are rejected instead.
func HashAdminKey(key string, cost int) (string, error) {
	if key == "" {
		return "", fmt.Errorf("auth: admin key must not be empty")
	}
	if len(key) > 72 {
		return "", fmt.Errorf("auth: admin key must be 72 bytes or fewer")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing admin key: %w", err)
	}
	return string(hashed), nil
}
