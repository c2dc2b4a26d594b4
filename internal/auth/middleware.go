package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/college-tracker/internal/apperror"
)

// contextKey is unexported so no other package can read or shadow the
// identity stored in a request context.
type contextKey string

const identityKey contextKey = "identity"

// Header names a credential may arrive in, in order of preference.
const (
	HeaderAuthorization = "Authorization"
	HeaderIDToken       = "X-Id-Token"
)

// RequireAuth rejects requests without a valid credential with 401 before
// any handler runs, and otherwise stores the Identity in the context.
//
// Resolver failures that are not authentication failures (the provider is
// down, say) are logged and still answered with 401: the caller cannot be
// identified either way.
func RequireAuth(resolver Resolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credential := Credential(r)
			if credential == "" {
				writeUnauthorized(w, "authentication required")
				return
			}

			id, err := resolver.Resolve(r.Context(), credential)
			if err != nil {
				var appErr *apperror.AppError
				if errors.As(err, &appErr) && errors.Is(err, apperror.ErrUnauthenticated) {
					writeUnauthorized(w, appErr.Message)
					return
				}
				logger.Error("identity resolution failed", "path", r.URL.Path, "error", err)
				writeUnauthorized(w, "authentication failed")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// Credential extracts the raw token: "Authorization: Bearer <t>" first,
// then the X-Id-Token header. Empty if neither is present.
func Credential(r *http.Request) string {
	if h := strings.TrimSpace(r.Header.Get(HeaderAuthorization)); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	return strings.TrimSpace(r.Header.Get(HeaderIDToken))
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the caller's identity, if RequireAuth ran.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok && id != nil && id.Subject != ""
}

// UserIDFromContext returns the caller's subject id: the owner id of every
// saved record they create.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return "", false
	}
	return id.Subject, true
}

// writeUnauthorized writes the same envelope the handlers use.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeEnvelope(w, http.StatusUnauthorized, message)
}

func writeEnvelope(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": message,
	})
}
