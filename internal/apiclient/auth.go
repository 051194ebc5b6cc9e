package apiclient

import (
	"context"
	"net/http"

	"github.com/jonathan/resume-studio/internal/types"
)

// Login exchanges credentials for a bearer token.
// A 401 here is a rejected login, reported as *ServerError.
func (c *Client) Login(ctx context.Context, req types.LoginRequest) (*types.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, validationFrom(err)
	}
	return c.authenticate(ctx, "login", "/api/auth/login", req)
}

// Register creates an account and returns its bearer token.
func (c *Client) Register(ctx context.Context, req types.RegisterRequest) (*types.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, validationFrom(err)
	}
	return c.authenticate(ctx, "register", "/api/auth/register", req)
}

func (c *Client) authenticate(ctx context.Context, op, path string, payload any) (*types.AuthResponse, error) {
	body, err := jsonBody(payload)
	if err != nil {
		return nil, &ValidationError{Message: err.Error(), Cause: err}
	}

	var resp types.AuthResponse
	if err := c.doJSON(ctx, request{
		op:          op,
		method:      http.MethodPost,
		path:        path,
		body:        body,
		contentType: "application/json",
	}, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, &FormatError{Op: op, Message: "response has no access_token"}
	}
	return &resp, nil
}

// Profile returns the account the token belongs to.
func (c *Client) Profile(ctx context.Context, token string) (*types.User, error) {
	var resp types.ProfileResponse
	if err := c.doJSON(ctx, request{
		op:            "profile",
		method:        http.MethodGet,
		path:          "/api/auth/profile",
		token:         token,
		authenticated: true,
	}, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, &FormatError{Op: "profile", Message: "response has no user"}
	}
	return resp.User, nil
}
