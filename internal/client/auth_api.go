package client

import (
	"context"
	"errors"
	"net/http"

	"github.com/wolfeidau/stockroom/internal/models"
)

// Login exchanges an email and password for a credential and identity.
// Any failure, including transport errors, is reported as ErrLoginFailed
// carrying the server's message when there was one.
func (c *Client) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	var resp models.LoginResponse

	err := c.Call(ctx, http.MethodPost, "/api/auth/login",
		map[string]string{"email": email, "password": password},
		&resp, WithoutAuth())
	if err != nil {
		return nil, loginFailed(err)
	}

	if resp.Token == "" {
		return nil, &Error{Kind: ErrLoginFailed, Message: "login failed: no token in response"}
	}

	if err := resp.User.Validate(); err != nil {
		return nil, &Error{Kind: ErrLoginFailed, Message: "login failed: invalid user in response", Cause: err}
	}

	return &resp, nil
}

func loginFailed(err error) *Error {
	failed := &Error{Kind: ErrLoginFailed, Cause: err}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		failed.Status = apiErr.Status
		failed.Message = apiErr.Message
	}

	return failed
}

// Register creates a new account. The response body is returned undecoded in shape.
func (c *Client) Register(ctx context.Context, account models.NewAccount) (map[string]any, error) {
	var resp map[string]any
	if err := c.Call(ctx, http.MethodPost, "/api/auth/register", account, &resp, WithoutAuth()); err != nil {
		return nil, err
	}
	return resp, nil
}

// CreateWorker creates a worker account. Requires an admin session.
func (c *Client) CreateWorker(ctx context.Context, account models.NewAccount) (map[string]any, error) {
	var resp map[string]any
	if err := c.Call(ctx, http.MethodPost, "/api/auth/create-worker", account, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}
