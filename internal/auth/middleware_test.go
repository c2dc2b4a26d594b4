package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/college-tracker/internal/apperror"
)

// fakeResolver accepts exactly one token per subject in tokens.
type fakeResolver struct {
	tokens map[string]string
	err    error
}

func (f *fakeResolver) Resolve(_ context.Context, credential string) (*Identity, error) {
	if f.err != nil {
		return nil, f.err
	}
	sub, ok := f.tokens[credential]
	if !ok {
		return nil, apperror.Unauthenticated("invalid token")
	}
	return &Identity{Subject: sub}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// echoUID is the protected handler: it writes the subject it sees.
var echoUID = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	uid, _ := UserIDFromContext(r.Context())
	_, _ = w.Write([]byte(uid))
})

func TestRequireAuth(t *testing.T) {
	resolver := &fakeResolver{tokens: map[string]string{"tok-a": "alice"}}
	h := RequireAuth(resolver, discardLogger())(echoUID)

	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
		wantBody   string
	}{
		{"bearer", map[string]string{"Authorization": "Bearer tok-a"}, http.StatusOK, "alice"},
		{"bearer lower-case scheme", map[string]string{"Authorization": "bearer tok-a"}, http.StatusOK, "alice"},
		{"id token header", map[string]string{"X-Id-Token": "tok-a"}, http.StatusOK, "alice"},
		{"bearer wins over id token", map[string]string{"Authorization": "Bearer tok-a", "X-Id-Token": "nope"}, http.StatusOK, "alice"},
		{"missing", nil, http.StatusUnauthorized, ""},
		{"basic scheme", map[string]string{"Authorization": "Basic dXNlcjpwYXNz"}, http.StatusUnauthorized, ""},
		{"invalid token", map[string]string{"Authorization": "Bearer tok-b"}, http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/saved", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantBody, rec.Body.String())
				return
			}
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestRequireAuth_ResolverOutage(t *testing.T) {
	h := RequireAuth(&fakeResolver{err: errors.New("dial tcp: refused")}, discardLogger())(echoUID)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer x")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotContains(t, rec.Body.String(), "dial tcp", "internal detail must not leak")
}

func TestIdentityFromContext(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), &Identity{Subject: "u1"})
	uid, ok := UserIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "u1", uid)

	_, ok = IdentityFromContext(WithIdentity(context.Background(), &Identity{}))
	assert.False(t, ok, "empty subject is not an identity")
}
