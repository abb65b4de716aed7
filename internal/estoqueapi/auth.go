package estoqueapi

import (
	"context"
	"errors"
	"net/http"
)

// ErrNoToken is returned by Login when the API answers without a token.
var ErrNoToken = errors.New("login response carried no access token")

// Login calls POST /auth/login. Failures are returned to the caller only;
// the login form shows them inline.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   LoginRequest{Email: email, Password: password},
		out:    &out,
		silent: true,
	})
	if err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, ErrNoToken
	}
	return &out, nil
}

// Me calls GET /auth/me.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out User
	if err := c.get(ctx, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout calls POST /auth/logout.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, call{method: http.MethodPost, path: "/auth/logout", silent: true})
}
