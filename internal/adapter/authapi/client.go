// Package authapi implements domain.AuthAPI over the gateway.
package authapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"dreamfront/internal/domain"
)

// Doer sends JSON requests to the remote API.
type Doer interface {
	Do(ctx context.Context, method, path string, in, out any) error
}

var _ domain.AuthAPI = (*Client)(nil)

// Client calls the /auth endpoints.
type Client struct {
	gw Doer
}

// New creates a client over gw.
func New(gw Doer) *Client {
	return &Client{gw: gw}
}

// authResponse accepts both {user, tokens} and the flat
// {access_token, refresh_token, token_type, user} shape.
type authResponse struct {
	User   *domain.User       `json:"user"`
	Tokens *domain.Credential `json:"tokens"`
	domain.Credential
}

func (r authResponse) credential() domain.Credential {
	if r.Tokens != nil && r.Tokens.AccessToken != "" {
		return *r.Tokens
	}
	return r.Credential
}

func (r authResponse) result(op string) (*domain.AuthResult, error) {
	cred := r.credential()
	if cred.AccessToken == "" {
		return nil, &domain.Error{Kind: domain.KindUnknown, Op: op, Err: errors.New("response carries no access token")}
	}
	if r.User == nil {
		return nil, &domain.Error{Kind: domain.KindUnknown, Op: op, Err: errors.New("response carries no user")}
	}
	return &domain.AuthResult{User: *r.User, Credential: cred}, nil
}

// Login posts credentials to /auth/login.
func (c *Client) Login(ctx context.Context, in domain.LoginInput) (*domain.AuthResult, error) {
	var res authResponse
	if err := c.gw.Do(ctx, http.MethodPost, "/auth/login", in, &res); err != nil {
		return nil, err
	}
	return res.result("login")
}

// Register posts registration data to /auth/register.
func (c *Client) Register(ctx context.Context, in domain.SignupInput) (*domain.AuthResult, error) {
	var res authResponse
	if err := c.gw.Do(ctx, http.MethodPost, "/auth/register", in, &res); err != nil {
		return nil, err
	}
	return res.result("register")
}

// Refresh exchanges a refresh token at /auth/refresh.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*domain.Credential, error) {
	body := struct {
		RefreshToken string `json:"refresh_token"`
	}{refreshToken}

	var res authResponse
	if err := c.gw.Do(ctx, http.MethodPost, "/auth/refresh", body, &res); err != nil {
		return nil, err
	}
	cred := res.credential()
	if cred.AccessToken == "" {
		return nil, &domain.Error{Kind: domain.KindUnknown, Op: "refresh", Err: errors.New("response carries no access token")}
	}
	return &cred, nil
}

// Logout posts to /auth/logout.
func (c *Client) Logout(ctx context.Context) error {
	return c.gw.Do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// Me fetches /auth/me, which returns {user} or a bare user object.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var raw json.RawMessage
	if err := c.gw.Do(ctx, http.MethodGet, "/auth/me", nil, &raw); err != nil {
		return nil, err
	}

	var wrapped struct {
		User *domain.User `json:"user"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.User != nil {
		return wrapped.User, nil
	}
	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, &domain.Error{Kind: domain.KindUnknown, Op: "me", Err: err}
	}
	return &user, nil
}
