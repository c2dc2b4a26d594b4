package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/sakif/college-tracker/internal/apperror"
)

// UserInfoResolver validates a credential by presenting it to the identity
// provider's OpenID Connect userinfo endpoint. A 200 with a "sub" means the
// token is live; 401/403 means it is not.
//
// oauth2.StaticTokenSource wraps the caller's access token so the returned
// *http.Client adds "Authorization: Bearer <token>" to the request.
type UserInfoResolver struct {
	url  string
	base *http.Client
}

// NewUserInfoResolver requires the endpoint URL. base is the transport
// used underneath the oauth2 client; nil means http.DefaultClient.
func NewUserInfoResolver(url string, base *http.Client) (*UserInfoResolver, error) {
	if url == "" {
		return nil, errors.New("auth: userinfo URL is required")
	}
	return &UserInfoResolver{url: url, base: base}, nil
}

type userInfo struct {
	Sub   string  `json:"sub"`
	Email *string `json:"email"`
	Name  *string `json:"name"`
}

func (u *UserInfoResolver) Resolve(ctx context.Context, accessToken string) (*Identity, error) {
	if u.base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, u.base)
	}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.url, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: building userinfo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: calling userinfo endpoint: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, apperror.Unauthenticated("invalid token")
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("auth: userinfo endpoint returned status %d", resp.StatusCode)
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("auth: decoding userinfo response: %w", err)
	}
	if info.Sub == "" {
		return nil, apperror.Unauthenticated("token has no subject")
	}

	return &Identity{Subject: info.Sub, Email: info.Email, Name: info.Name}, nil
}
