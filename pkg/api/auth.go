package api

import (
	"context"
	"net/http"

	"github.com/grovetools/ftrack/errors"
	"github.com/grovetools/ftrack/pkg/models"
)

// Login exchanges email and password for a session.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error) {
	return c.authenticate(ctx, "/auth/login", creds)
}

// Signup creates an account and returns its first session.
func (c *Client) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error) {
	return c.authenticate(ctx, "/auth/signup", req)
}

// GoogleLogin exchanges a Google ID token for a session.
func (c *Client) GoogleLogin(ctx context.Context, idToken string) (*models.AuthResponse, error) {
	return c.authenticate(ctx, "/auth/google", models.GoogleLoginRequest{IDToken: idToken})
}

func (c *Client) authenticate(ctx context.Context, path string, body interface{}) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.do(ctx, request{method: http.MethodPost, path: path, body: body}, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil || resp.User.ID == "" || resp.Token == "" || resp.RefreshToken == "" {
		return nil, errors.MalformedResponse("missing user or tokens").WithDetail("path", path)
	}
	return &resp, nil
}

// Refresh trades a refresh token for a new access token. The request is not
// bearer-authenticated since the access token may already be expired.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*models.RefreshResponse, error) {
	var resp models.RefreshResponse
	req := request{
		method: http.MethodPost,
		path:   "/auth/refresh-token",
		body:   models.RefreshRequest{RefreshToken: refreshToken},
	}
	if err := c.do(ctx, req, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" || resp.ExpiresAt == 0 {
		return nil, errors.MalformedResponse("refresh response missing token or expiry")
	}
	return &resp, nil
}

// Logout revokes the refresh token.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/logout",
		body:   models.RefreshRequest{RefreshToken: refreshToken},
		auth:   true,
	}, nil)
}
